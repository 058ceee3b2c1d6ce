// Package driver provides the quarry extract driver for database/sql.
//
// This package implements a database/sql driver that opens quarry extract
// files: single-file columnar databases backed by an embedded SQLite engine.
// The driver owns everything that touches extract bytes: creation modes,
// file validation, format-version stamping, and table export.
//
// Usage:
//
//	import _ "github.com/quarrydata/quarry/driver"
//	db, err := sql.Open("quarry", "orders.quarry?mode=create_if_not_exists")
package driver

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"modernc.org/sqlite"
)

// CreateMode controls how Connect treats the extract file, mirroring the
// create semantics of the original client API.
type CreateMode string

const (
	// CreateModeNone opens an existing extract and fails when it is missing.
	CreateModeNone CreateMode = "none"
	// CreateModeCreate creates a new extract and fails when it already exists.
	CreateModeCreate CreateMode = "create"
	// CreateModeCreateIfNotExists opens the extract, creating it when missing.
	CreateModeCreateIfNotExists CreateMode = "create_if_not_exists"
	// CreateModeCreateAndReplace always starts from a fresh extract.
	CreateModeCreateAndReplace CreateMode = "create_and_replace"
)

// Driver implements database/sql/driver.Driver for quarry extract files.
type Driver struct{}

// Connector implements database/sql/driver.Connector. It holds the parsed
// DSN: the extract path, the create mode and the target format version.
type Connector struct {
	driver  *Driver
	path    string
	mode    CreateMode
	version int
}

// Connection implements database/sql/driver.Conn. It wraps an underlying
// SQLite connection opened on the extract file.
type Connection struct {
	conn driver.Conn
	path string
}

// Transaction implements database/sql/driver.Tx.
type Transaction struct {
	tx driver.Tx
}

// NewDriver creates a new quarry extract driver.
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements driver.Driver interface
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext interface
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	path, params, _ := strings.Cut(dsn, "?")
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPathProvided
	}

	values, err := url.ParseQuery(params)
	if err != nil {
		return nil, fmt.Errorf("quarry driver: invalid DSN parameters: %w", err)
	}

	mode := CreateModeNone
	if m := values.Get("mode"); m != "" {
		switch CreateMode(m) {
		case CreateModeNone, CreateModeCreate, CreateModeCreateIfNotExists, CreateModeCreateAndReplace:
			mode = CreateMode(m)
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidCreateMode, m)
		}
	}

	version := CurrentFormatVersion
	if v := values.Get("version"); v != "" {
		version, err = strconv.Atoi(v)
		if err != nil || version < MinFormatVersion || version > CurrentFormatVersion {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormatVersion, v)
		}
	}

	return &Connector{
		driver:  d,
		path:    path,
		mode:    mode,
		version: version,
	}, nil
}

// Connect implements driver.Connector interface
func (c *Connector) Connect(_ context.Context) (driver.Conn, error) {
	fresh, err := c.prepareFile()
	if err != nil {
		return nil, err
	}

	sqliteDriver := &sqlite.Driver{}
	conn, err := sqliteDriver.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open extract file: %w", err)
	}

	quarryConn := &Connection{conn: conn, path: c.path}
	if fresh {
		if err := quarryConn.stampExtract(c.version); err != nil {
			_ = conn.Close()
			_ = os.Remove(c.path)
			return nil, fmt.Errorf("failed to initialize extract file: %w", err)
		}
	}
	return quarryConn, nil
}

// Driver implements driver.Connector interface
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// prepareFile applies the create mode to the file on disk and reports whether
// a fresh extract will be created by the engine.
func (c *Connector) prepareFile() (fresh bool, err error) {
	_, statErr := os.Stat(c.path)
	exists := statErr == nil
	if statErr != nil && !os.IsNotExist(statErr) {
		return false, fmt.Errorf("failed to stat extract file: %w", statErr)
	}

	switch c.mode {
	case CreateModeNone:
		if !exists {
			return false, fmt.Errorf("%w: %s", ErrExtractNotFound, c.path)
		}
		return false, ValidateExtractFile(c.path)
	case CreateModeCreate:
		if exists {
			return false, fmt.Errorf("%w: %s", ErrExtractExists, c.path)
		}
		return true, nil
	case CreateModeCreateIfNotExists:
		if exists {
			return false, ValidateExtractFile(c.path)
		}
		return true, nil
	case CreateModeCreateAndReplace:
		if exists {
			if err := os.Remove(c.path); err != nil {
				return false, fmt.Errorf("failed to replace extract file: %w", err)
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidCreateMode, c.mode)
	}
}

// stampExtract marks a freshly created file as a quarry extract of the given
// format version.
func (conn *Connection) stampExtract(version int) error {
	statements := []string{
		fmt.Sprintf("PRAGMA application_id = %d", ApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", version),
		// Force the header to disk so an empty extract still validates.
		"CREATE TABLE IF NOT EXISTS \"quarry_catalog\" (\"key\" TEXT NOT NULL, \"value\" TEXT)",
	}
	for _, statement := range statements {
		if err := conn.exec(statement, nil); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the extract file path this connection is bound to.
func (conn *Connection) Path() string {
	return conn.path
}

// Close implements driver.Conn interface
func (conn *Connection) Close() error {
	if conn.conn != nil {
		return conn.conn.Close()
	}
	return nil
}

// Begin implements driver.Conn interface (deprecated, use BeginTx instead)
func (conn *Connection) Begin() (driver.Tx, error) {
	return conn.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx interface
func (conn *Connection) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if connBeginTx, ok := conn.conn.(driver.ConnBeginTx); ok {
		tx, err := connBeginTx.BeginTx(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &Transaction{tx: tx}, nil
	}
	return nil, ErrBeginTxNotSupported
}

// Commit implements driver.Tx interface
func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

// Rollback implements driver.Tx interface
func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// Prepare implements driver.Conn interface (deprecated, use PrepareContext instead)
func (conn *Connection) Prepare(query string) (driver.Stmt, error) {
	return conn.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext interface
func (conn *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if connPrepareCtx, ok := conn.conn.(driver.ConnPrepareContext); ok {
		return connPrepareCtx.PrepareContext(ctx, query)
	}
	return nil, ErrPrepareContextNotSupported
}

// exec prepares and executes a single statement on the underlying connection.
func (conn *Connection) exec(query string, args []driver.Value) error {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	stmtExecCtx, ok := stmt.(driver.StmtExecContext)
	if !ok {
		return ErrStmtExecContextNotSupported
	}
	namedArgs := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		namedArgs[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
	}
	_, err = stmtExecCtx.ExecContext(context.Background(), namedArgs)
	return err
}

// query prepares and executes a single query on the underlying connection.
func (conn *Connection) query(query string, args []driver.Value) (driver.Rows, error) {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return nil, err
	}

	namedArgs := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		namedArgs[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
	}
	stmtQueryCtx, ok := stmt.(driver.StmtQueryContext)
	if !ok {
		_ = stmt.Close()
		return nil, ErrStmtQueryContextNotSupported
	}
	rows, err := stmtQueryCtx.QueryContext(context.Background(), namedArgs)
	if err != nil {
		_ = stmt.Close()
		return nil, err
	}
	return &stmtRows{Rows: rows, stmt: stmt}, nil
}

// stmtRows closes the owning statement together with the rows.
type stmtRows struct {
	driver.Rows
	stmt driver.Stmt
}

func (r *stmtRows) Close() error {
	rowsErr := r.Rows.Close()
	stmtErr := r.stmt.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return stmtErr
}
