package quarry

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/quarrydata/quarry/domain/model"
)

// internalCatalogTable is the bookkeeping table the driver creates in every
// extract. It stores registered schema names and is hidden from listings.
const internalCatalogTable = "quarry_catalog"

// CreateSchema registers a schema name in the extract. Registering an
// existing schema is a no-op. Schemas have no storage of their own; they are
// name prefixes on stored table identifiers.
func CreateSchema(ctx context.Context, db *sql.DB, schema string) error {
	if strings.TrimSpace(schema) == "" {
		return ErrEmptySchemaName
	}
	_, err := db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s ("key", "value")
			SELECT 'schema', ? WHERE NOT EXISTS
			(SELECT 1 FROM %s WHERE "key" = 'schema' AND "value" = ?)`,
			model.QuoteIdentifier(internalCatalogTable), model.QuoteIdentifier(internalCatalogTable)),
		schema, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}
	return nil
}

// CreateTable creates a table from its definition. The schema is registered
// as a side effect so that catalog listings show it even for empty schemas.
func CreateTable(ctx context.Context, db *sql.DB, definition *model.TableDefinition) error {
	if len(definition.Columns) == 0 {
		return fmt.Errorf("%w: table %s", ErrNoColumns, definition.Name)
	}
	if err := CreateSchema(ctx, db, definition.Name.Schema()); err != nil {
		return err
	}

	columns := make([]string, 0, len(definition.Columns))
	for _, column := range definition.Columns {
		columns = append(columns, column.DDL())
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", definition.Name.Identifier(), strings.Join(columns, ", "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", definition.Name, err)
	}
	return nil
}

// SchemaNames returns all schema names of the extract in sorted order:
// every registered schema plus every schema that has at least one table.
func SchemaNames(ctx context.Context, db *sql.DB) ([]string, error) {
	schemas := map[string]struct{}{}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT "value" FROM %s WHERE "key" = 'schema'`, model.QuoteIdentifier(internalCatalogTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var schema string
		if err := rows.Scan(&schema); err != nil {
			return nil, err
		}
		schemas[schema] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	storedNames, err := storedTableNames(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, stored := range storedNames {
		schemas[model.ParseTableName(stored).Schema()] = struct{}{}
	}

	names := make([]string, 0, len(schemas))
	for schema := range schemas {
		names = append(names, schema)
	}
	sort.Strings(names)
	return names, nil
}

// TableNames returns the tables of one schema in sorted order.
func TableNames(ctx context.Context, db *sql.DB, schema string) ([]model.TableName, error) {
	storedNames, err := storedTableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	var names []model.TableName
	for _, stored := range storedNames {
		name := model.ParseTableName(stored)
		if name.Schema() == schema {
			names = append(names, name)
		}
	}
	return names, nil
}

// TableDefinition reads the definition of a table back from the extract.
// Columns come back in declared order.
func TableDefinition(ctx context.Context, db *sql.DB, name model.TableName) (*model.TableDefinition, error) {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA table_info(%s)", name.Identifier()))
	if err != nil {
		return nil, fmt.Errorf("failed to read table definition: %w", err)
	}
	defer rows.Close()

	var columns []model.Column
	for rows.Next() {
		var (
			cid          int
			columnName   string
			declaredType string
			notNull      int
			defaultValue sql.NullString
			primaryKey   int
		)
		if err := rows.Scan(&cid, &columnName, &declaredType, &notNull, &defaultValue, &primaryKey); err != nil {
			return nil, err
		}
		columns = append(columns, model.Column{
			Name:     columnName,
			Type:     model.ColumnTypeFromDeclared(declaredType),
			Nullable: notNull == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return model.NewTableDefinition(name, columns...), nil
}

// TableExists reports whether a table is present in the extract.
func TableExists(ctx context.Context, db *sql.DB, name model.TableName) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		name.StoredName()).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// storedTableNames lists the raw stored identifiers of all user tables.
func storedTableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> ? ORDER BY name`,
		internalCatalogTable)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
