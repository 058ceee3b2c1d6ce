// Package clouddb extracts tables and query results from cloud databases
// into quarry extracts. Each supported source implements Extractor; the
// load functions stream rows through a transactional inserter.
package clouddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/domain/model"
)

// Predefined errors
var (
	// ErrSourceTableNotFound is returned when the source database has no such table
	ErrSourceTableNotFound = errors.New("clouddb: source table not found")

	// ErrUnsupportedSource is returned for an unknown source kind
	ErrUnsupportedSource = errors.New("clouddb: unsupported source database")
)

// Extractor reads schema and data from one source database.
type Extractor interface {
	// Name identifies the source kind, e.g. "mysql".
	Name() string
	// TableNames lists the tables of the configured source database.
	TableNames(ctx context.Context) ([]string, error)
	// TableDefinition maps one source table to a quarry table definition in
	// the given target schema, columns in ordinal order.
	TableDefinition(ctx context.Context, schema, table string) (*model.TableDefinition, error)
	// ReadTable streams every row of a source table in textual form.
	ReadTable(ctx context.Context, table string, fn func(model.Record) error) error
	// ReadQuery runs an arbitrary query and returns header and rows.
	ReadQuery(ctx context.Context, query string) (model.Header, []model.Record, error)
	// Close releases the source connection.
	Close() error
}

// New creates an extractor for the given source kind ("mysql" or
// "postgres") connected with the source-specific connection string.
func New(ctx context.Context, kind, uri, database string) (Extractor, error) {
	switch kind {
	case "mysql":
		return NewMySQLExtractor(ctx, uri, database)
	case "postgres", "postgresql":
		return NewPostgresExtractor(ctx, uri, database)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, kind)
	}
}

// LoadTable copies one source table into the extract, creating the target
// table from the mapped source definition.
func LoadTable(ctx context.Context, extractor Extractor, db *sql.DB, schema, table string) (int64, error) {
	definition, err := extractor.TableDefinition(ctx, schema, table)
	if err != nil {
		return 0, err
	}
	if err := quarry.CreateTable(ctx, db, definition); err != nil {
		return 0, err
	}

	inserter, err := quarry.NewInserter(ctx, db, definition)
	if err != nil {
		return 0, err
	}
	if err := extractor.ReadTable(ctx, table, inserter.AddRecord); err != nil {
		closeErr := inserter.Close()
		if closeErr != nil {
			return 0, errors.Join(err, closeErr)
		}
		return 0, err
	}
	return inserter.Execute()
}

// LoadAll copies every table of the source database into the extract.
func LoadAll(ctx context.Context, extractor Extractor, db *sql.DB, schema string) (int64, error) {
	tables, err := extractor.TableNames(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, table := range tables {
		count, err := LoadTable(ctx, extractor, db, schema, table)
		if err != nil {
			return total, fmt.Errorf("failed to load table %s: %w", table, err)
		}
		total += count
	}
	return total, nil
}

// LoadQuery runs a query against the source and loads the result into the
// extract under the given table name. Column types are inferred from the
// result values.
func LoadQuery(ctx context.Context, extractor Extractor, db *sql.DB, name model.TableName, query string) (int64, error) {
	header, records, err := extractor.ReadQuery(ctx, query)
	if err != nil {
		return 0, err
	}

	table := model.NewTable(name, header, records)
	definition := table.Definition()
	if err := quarry.CreateTable(ctx, db, definition); err != nil {
		return 0, err
	}

	inserter, err := quarry.NewInserter(ctx, db, definition)
	if err != nil {
		return 0, err
	}
	for _, record := range records {
		if err := inserter.AddRecord(record); err != nil {
			closeErr := inserter.Close()
			if closeErr != nil {
				return 0, errors.Join(err, closeErr)
			}
			return 0, err
		}
	}
	return inserter.Execute()
}

// formatSourceValue renders a scanned source value in the textual record
// form. NULL becomes the empty string.
func formatSourceValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
