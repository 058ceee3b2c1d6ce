// Package model provides the domain model for quarry extracts.
package model

import "strings"

// Header is the ordered list of column names of a table.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Record is one row of values.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// Equal compare Record.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// ColumnType represents the SQL column type of an extract column.
type ColumnType int

const (
	// ColumnTypeText represents TEXT column type
	ColumnTypeText ColumnType = iota
	// ColumnTypeBigInt represents BIGINT column type
	ColumnTypeBigInt
	// ColumnTypeDouble represents DOUBLE column type
	ColumnTypeDouble
	// ColumnTypeBool represents BOOLEAN column type
	ColumnTypeBool
	// ColumnTypeTimestamp represents TIMESTAMP column type (stored as ISO8601 text)
	ColumnTypeTimestamp
	// ColumnTypeDate represents DATE column type (stored as ISO8601 text)
	ColumnTypeDate
)

const (
	sqlTypeText      = "TEXT"
	sqlTypeBigInt    = "BIGINT"
	sqlTypeDouble    = "DOUBLE"
	sqlTypeBool      = "BOOLEAN"
	sqlTypeTimestamp = "TIMESTAMP"
	sqlTypeDate      = "DATE"
)

// String returns the SQL type string used in CREATE TABLE statements.
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeText:
		return sqlTypeText
	case ColumnTypeBigInt:
		return sqlTypeBigInt
	case ColumnTypeDouble:
		return sqlTypeDouble
	case ColumnTypeBool:
		return sqlTypeBool
	case ColumnTypeTimestamp:
		return sqlTypeTimestamp
	case ColumnTypeDate:
		return sqlTypeDate
	default:
		return sqlTypeText
	}
}

// ColumnTypeFromDeclared maps a declared SQL type string back to a ColumnType.
// Unknown declarations fall back to TEXT, matching the engine's affinity rules.
func ColumnTypeFromDeclared(declared string) ColumnType {
	switch strings.ToUpper(strings.TrimSpace(declared)) {
	case sqlTypeBigInt, "INTEGER", "INT":
		return ColumnTypeBigInt
	case sqlTypeDouble, "REAL", "FLOAT", "DOUBLE PRECISION":
		return ColumnTypeDouble
	case sqlTypeBool:
		return ColumnTypeBool
	case sqlTypeTimestamp, "DATETIME":
		return ColumnTypeTimestamp
	case sqlTypeDate:
		return ColumnTypeDate
	default:
		return ColumnTypeText
	}
}

// Column is one typed column of a table definition.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// NewColumn creates a nullable column.
func NewColumn(name string, columnType ColumnType) Column {
	return Column{Name: name, Type: columnType, Nullable: true}
}

// NewColumnNotNull creates a NOT NULL column.
func NewColumnNotNull(name string, columnType ColumnType) Column {
	return Column{Name: name, Type: columnType, Nullable: false}
}

// DDL returns the column clause for a CREATE TABLE statement.
func (c Column) DDL() string {
	ddl := QuoteIdentifier(c.Name) + " " + c.Type.String()
	if !c.Nullable {
		ddl += " NOT NULL"
	}
	return ddl
}

// DefaultSchema is the schema tables belong to when no schema is given.
const DefaultSchema = "public"

// TableName is an optionally schema-qualified table name.
//
// The underlying engine has no schema objects, so a qualified name is stored
// inside the extract as the single identifier "schema.table". Unqualified
// names live in the "public" schema.
type TableName struct {
	schema string
	name   string
}

// NewTableName creates a TableName from one or two parts. With one part the
// table is placed in the default "public" schema.
func NewTableName(parts ...string) TableName {
	switch len(parts) {
	case 1:
		return TableName{schema: DefaultSchema, name: parts[0]}
	case 2:
		return TableName{schema: parts[0], name: parts[1]}
	default:
		return TableName{}
	}
}

// ParseTableName splits a stored identifier back into schema and table. An
// identifier without a dot belongs to the default schema.
func ParseTableName(stored string) TableName {
	if i := strings.IndexByte(stored, '.'); i >= 0 {
		return TableName{schema: stored[:i], name: stored[i+1:]}
	}
	return TableName{schema: DefaultSchema, name: stored}
}

// Schema returns the schema name.
func (t TableName) Schema() string {
	return t.schema
}

// Name returns the unqualified table name.
func (t TableName) Name() string {
	return t.name
}

// StoredName returns the identifier the table is stored under in the extract.
// Tables in the default schema keep their bare name.
func (t TableName) StoredName() string {
	if t.schema == "" || t.schema == DefaultSchema {
		return t.name
	}
	return t.schema + "." + t.name
}

// Identifier returns the quoted identifier for use in SQL statements.
func (t TableName) Identifier() string {
	return QuoteIdentifier(t.StoredName())
}

// String returns the display form, e.g. "Extract"."Extract".
func (t TableName) String() string {
	return QuoteIdentifier(t.schema) + "." + QuoteIdentifier(t.name)
}

// TableDefinition describes a table: its name and ordered columns.
type TableDefinition struct {
	Name    TableName
	Columns []Column
}

// NewTableDefinition creates a TableDefinition.
func NewTableDefinition(name TableName, columns ...Column) *TableDefinition {
	return &TableDefinition{Name: name, Columns: columns}
}

// Header returns the column names in declared order.
func (d *TableDefinition) Header() Header {
	h := make(Header, 0, len(d.Columns))
	for _, c := range d.Columns {
		h = append(h, c.Name)
	}
	return h
}

// QuoteIdentifier quotes a SQL identifier with double quotes, doubling any
// embedded quote characters.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal with single quotes, doubling any
// embedded quote characters.
func QuoteLiteral(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
