package clouddb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/quarrydata/quarry/domain/model"
)

// MySQLExtractor reads schema and data from a MySQL database through
// information_schema.
type MySQLExtractor struct {
	db       *sql.DB
	database string
}

// NewMySQLExtractor connects to MySQL with a go-sql-driver DSN, e.g.
// "user:pass@tcp(host:3306)/db". The database parameter names the schema to
// extract from.
func NewMySQLExtractor(ctx context.Context, uri, database string) (*MySQLExtractor, error) {
	db, err := sql.Open("mysql", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("failed to ping mysql: %w (close failed: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}
	return &MySQLExtractor{db: db, database: database}, nil
}

// Name identifies the source kind.
func (e *MySQLExtractor) Name() string { return "mysql" }

// Close releases the source connection.
func (e *MySQLExtractor) Close() error { return e.db.Close() }

// TableNames lists the base tables of the configured database.
func (e *MySQLExtractor) TableNames(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		 WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		 ORDER BY TABLE_NAME`, e.database)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

// TableDefinition maps one MySQL table to a quarry table definition.
func (e *MySQLExtractor) TableDefinition(ctx context.Context, schema, table string) (*model.TableDefinition, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		 FROM INFORMATION_SCHEMA.COLUMNS
		 WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		 ORDER BY ORDINAL_POSITION`, e.database, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []model.Column
	for rows.Next() {
		var name, dataType, isNullable string
		if err := rows.Scan(&name, &dataType, &isNullable); err != nil {
			return nil, err
		}
		columns = append(columns, model.Column{
			Name:     name,
			Type:     mapMySQLType(dataType),
			Nullable: isNullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrSourceTableNotFound, e.database, table)
	}
	return model.NewTableDefinition(model.NewTableName(schema, table), columns...), nil
}

// ReadTable streams every row of a table in textual form.
func (e *MySQLExtractor) ReadTable(ctx context.Context, table string, fn func(model.Record) error) error {
	query := fmt.Sprintf("SELECT * FROM `%s`.`%s`", e.database, table)
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	return scanRows(rows, fn)
}

// ReadQuery runs an arbitrary query and returns header and rows.
func (e *MySQLExtractor) ReadQuery(ctx context.Context, query string) (model.Header, []model.Record, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var records []model.Record
	if err := scanRows(rows, func(record model.Record) error {
		records = append(records, record)
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return model.NewHeader(columns), records, nil
}

// scanRows drains a database/sql result set row by row in textual form.
func scanRows(rows *sql.Rows, fn func(model.Record) error) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return err
		}
		record := make(model.Record, len(values))
		for i, value := range values {
			record[i] = formatSourceValue(value)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return rows.Err()
}

// mapMySQLType maps a MySQL data type to a quarry column type.
func mapMySQLType(dataType string) model.ColumnType {
	switch strings.ToLower(dataType) {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year":
		return model.ColumnTypeBigInt
	case "float", "double", "decimal", "numeric":
		return model.ColumnTypeDouble
	case "bit", "bool", "boolean":
		return model.ColumnTypeBool
	case "datetime", "timestamp":
		return model.ColumnTypeTimestamp
	case "date":
		return model.ColumnTypeDate
	default:
		return model.ColumnTypeText
	}
}
