package model

import (
	"path/filepath"
	"strings"
)

// Table represents file contents as an extract table: a name, a header and
// the parsed records, together with the inferred column types.
type Table struct {
	name    TableName
	header  Header
	records []Record
	columns []Column
}

// NewTable create new Table. Column types are inferred from the records.
func NewTable(name TableName, header Header, records []Record) *Table {
	return &Table{
		name:    name,
		header:  header,
		records: records,
		columns: InferColumns(header, records),
	}
}

// Name return table name.
func (t *Table) Name() TableName {
	return t.name
}

// Header return table header.
func (t *Table) Header() Header {
	return t.header
}

// Records return table records.
func (t *Table) Records() []Record {
	return t.records
}

// Columns returns the columns with inferred types.
func (t *Table) Columns() []Column {
	return t.columns
}

// Definition returns the table definition derived from the inferred columns.
func (t *Table) Definition() *TableDefinition {
	return NewTableDefinition(t.name, t.columns...)
}

// Equal compare Table.
func (t *Table) Equal(t2 *Table) bool {
	if t.name != t2.name {
		return false
	}
	if !t.header.Equal(t2.header) {
		return false
	}
	if len(t.records) != len(t2.records) {
		return false
	}
	for i, record := range t.records {
		if !record.Equal(t2.records[i]) {
			return false
		}
	}
	return true
}

// TableNameFromFilePath derives a table name from a file path, stripping
// compression and format extensions. "orders.csv.gz" becomes "orders".
func TableNameFromFilePath(filePath string) TableName {
	fileName := filepath.Base(filePath)
	lower := strings.ToLower(fileName)
	for _, ext := range []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD} {
		if strings.HasSuffix(lower, ext) {
			fileName = fileName[:len(fileName)-len(ext)]
			break
		}
	}
	return NewTableName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
}
