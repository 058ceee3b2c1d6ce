package quarry

import (
	"context"
	"database/sql"
	"fmt"

	quarrydriver "github.com/quarrydata/quarry/driver"
)

const (
	// DriverName is the database/sql driver name for quarry extracts.
	DriverName = "quarry"
)

// CreateMode aliases the driver's create modes for callers that only import
// this package.
type CreateMode = quarrydriver.CreateMode

const (
	// CreateModeNone opens an existing extract and fails when it is missing.
	CreateModeNone = quarrydriver.CreateModeNone
	// CreateModeCreate creates a new extract and fails when it already exists.
	CreateModeCreate = quarrydriver.CreateModeCreate
	// CreateModeCreateIfNotExists opens the extract, creating it when missing.
	CreateModeCreateIfNotExists = quarrydriver.CreateModeCreateIfNotExists
	// CreateModeCreateAndReplace always starts from a fresh extract.
	CreateModeCreateAndReplace = quarrydriver.CreateModeCreateAndReplace
)

// Register registers the quarry driver with database/sql
func Register() {
	sql.Register(DriverName, quarrydriver.NewDriver())
}

func init() {
	// Auto-register the driver on import
	Register()
}

// Open opens an existing extract file. The file must exist and carry the
// quarry format stamp; anything else is rejected before a connection is
// handed out.
func Open(path string) (*sql.DB, error) {
	return OpenContext(context.Background(), path, CreateModeNone)
}

// OpenContext opens an extract file with an explicit create mode.
//
// The returned *sql.DB speaks the full SQL dialect of the embedded engine.
// Connections are bound to a single file; multi-file operations (such as a
// defragmenting copy) attach the second file with ATTACH DATABASE.
//
// Example:
//
//	db, err := quarry.OpenContext(ctx, "orders.quarry", quarry.CreateModeCreateAndReplace)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
func OpenContext(ctx context.Context, path string, mode CreateMode) (*sql.DB, error) {
	db, err := sql.Open(DriverName, fmt.Sprintf("%s?mode=%s", path, mode))
	if err != nil {
		return nil, err
	}

	// A single connection per extract file: the embedded engine serializes
	// writers, and the original client exposes exactly one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("%w (close failed: %v)", err, closeErr)
		}
		return nil, err
	}
	return db, nil
}

// OpenVersion opens an extract like OpenContext but stamps newly created
// files with the given format version instead of the current one.
func OpenVersion(ctx context.Context, path string, mode CreateMode, version int) (*sql.DB, error) {
	db, err := sql.Open(DriverName, fmt.Sprintf("%s?mode=%s&version=%d", path, mode, version))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("%w (close failed: %v)", err, closeErr)
		}
		return nil, err
	}
	return db, nil
}

// ExecuteCommand executes a SQL command and returns the number of affected
// rows, mirroring the execute-command call of the original client API.
func ExecuteCommand(ctx context.Context, db *sql.DB, command string, args ...any) (int64, error) {
	result, err := db.ExecContext(ctx, command, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// QueryScalarInt64 runs a query that returns exactly one row with one
// integer column, such as SELECT COUNT(*).
func QueryScalarInt64(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	var value int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
