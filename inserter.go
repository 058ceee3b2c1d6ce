package quarry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/quarrydata/quarry/domain/model"
)

// Inserter loads rows into one table inside a single transaction. Rows added
// with AddRow become visible only after Execute commits; Close without a
// preceding Execute discards them.
//
// Example:
//
//	inserter, err := quarry.NewInserter(ctx, db, definition)
//	if err != nil {
//		return err
//	}
//	defer inserter.Close()
//	for _, row := range rows {
//		if err := inserter.AddRow(row...); err != nil {
//			return err
//		}
//	}
//	return inserter.Execute()
type Inserter struct {
	tx          *sql.Tx
	stmt        *sql.Stmt
	definition  *model.TableDefinition
	columnCount int
	rowCount    int64
	closed      bool
}

// NewInserter begins a transaction on db and prepares an insert statement for
// the table described by definition. The table must already exist.
func NewInserter(ctx context.Context, db *sql.DB, definition *model.TableDefinition) (*Inserter, error) {
	if len(definition.Columns) == 0 {
		return nil, fmt.Errorf("%w: table %s", ErrNoColumns, definition.Name)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin insert transaction: %w", err)
	}

	placeholders := make([]string, len(definition.Columns))
	columns := make([]string, len(definition.Columns))
	for i, column := range definition.Columns {
		placeholders[i] = "?"
		columns[i] = model.QuoteIdentifier(column.Name)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		definition.Name.Identifier(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			return nil, fmt.Errorf("failed to prepare insert: %w (rollback failed: %v)", err, rollbackErr)
		}
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &Inserter{
		tx:          tx,
		stmt:        stmt,
		definition:  definition,
		columnCount: len(definition.Columns),
	}, nil
}

// AddRow adds one row. The number of values must match the column count of
// the table definition; empty strings become NULL for nullable columns.
func (ins *Inserter) AddRow(values ...any) error {
	if ins.closed {
		return ErrInserterClosed
	}
	if len(values) != ins.columnCount {
		return fmt.Errorf("%w: got %d values, want %d", ErrColumnCountMismatch, len(values), ins.columnCount)
	}

	args := make([]any, len(values))
	for i, value := range values {
		if s, ok := value.(string); ok && s == "" && ins.definition.Columns[i].Nullable {
			args[i] = nil
			continue
		}
		args[i] = value
	}

	if _, err := ins.stmt.Exec(args...); err != nil {
		return fmt.Errorf("failed to insert row into %s: %w", ins.definition.Name, err)
	}
	ins.rowCount++
	return nil
}

// AddRecord adds one row from its textual record form.
func (ins *Inserter) AddRecord(record model.Record) error {
	values := make([]any, len(record))
	for i, v := range record {
		values[i] = v
	}
	return ins.AddRow(values...)
}

// Execute commits all added rows and returns how many were inserted. The
// inserter is closed afterwards.
func (ins *Inserter) Execute() (int64, error) {
	if ins.closed {
		return 0, ErrInserterClosed
	}
	ins.closed = true

	if err := ins.stmt.Close(); err != nil {
		rollbackErr := ins.tx.Rollback()
		if rollbackErr != nil {
			return 0, fmt.Errorf("failed to close insert statement: %w (rollback failed: %v)", err, rollbackErr)
		}
		return 0, fmt.Errorf("failed to close insert statement: %w", err)
	}
	if err := ins.tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit inserted rows: %w", err)
	}
	return ins.rowCount, nil
}

// Close discards all added rows unless Execute was already called. It is safe
// to call Close after Execute.
func (ins *Inserter) Close() error {
	if ins.closed {
		return nil
	}
	ins.closed = true

	stmtErr := ins.stmt.Close()
	if err := ins.tx.Rollback(); err != nil {
		return err
	}
	return stmtErr
}
