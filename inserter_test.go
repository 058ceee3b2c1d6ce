package quarry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/quarry/domain/model"
)

func newOrdersDefinition() *model.TableDefinition {
	return model.NewTableDefinition(
		model.NewTableName("orders"),
		model.NewColumnNotNull("id", model.ColumnTypeBigInt),
		model.NewColumn("product", model.ColumnTypeText),
	)
}

func TestInserter_Execute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestExtract(t)
	definition := newOrdersDefinition()
	require.NoError(t, CreateTable(ctx, db, definition))

	inserter, err := NewInserter(ctx, db, definition)
	require.NoError(t, err)
	defer inserter.Close()

	require.NoError(t, inserter.AddRow(int64(1), "book"))
	require.NoError(t, inserter.AddRow(int64(2), "pen"))

	count, err := inserter.Execute()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	total, err := QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "orders"`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// The inserter is closed after Execute.
	assert.ErrorIs(t, inserter.AddRow(int64(3), "ink"), ErrInserterClosed)
}

func TestInserter_CloseDiscardsRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestExtract(t)
	definition := newOrdersDefinition()
	require.NoError(t, CreateTable(ctx, db, definition))

	inserter, err := NewInserter(ctx, db, definition)
	require.NoError(t, err)

	require.NoError(t, inserter.AddRow(int64(1), "book"))
	require.NoError(t, inserter.Close())

	total, err := QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "orders"`)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestInserter_RowArity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestExtract(t)
	definition := newOrdersDefinition()
	require.NoError(t, CreateTable(ctx, db, definition))

	inserter, err := NewInserter(ctx, db, definition)
	require.NoError(t, err)
	defer inserter.Close()

	assert.ErrorIs(t, inserter.AddRow(int64(1)), ErrColumnCountMismatch)
	assert.ErrorIs(t, inserter.AddRow(int64(1), "book", "extra"), ErrColumnCountMismatch)
}

func TestInserter_NotNullEnforcement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestExtract(t)
	definition := newOrdersDefinition()
	require.NoError(t, CreateTable(ctx, db, definition))

	inserter, err := NewInserter(ctx, db, definition)
	require.NoError(t, err)
	defer inserter.Close()

	// NULL into the NOT NULL id column is rejected by the engine.
	assert.Error(t, inserter.AddRow(nil, "book"))
}

func TestInserter_AddRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestExtract(t)
	definition := newOrdersDefinition()
	require.NoError(t, CreateTable(ctx, db, definition))

	inserter, err := NewInserter(ctx, db, definition)
	require.NoError(t, err)
	defer inserter.Close()

	// Empty string maps to NULL for the nullable product column.
	require.NoError(t, inserter.AddRecord(model.NewRecord([]string{"1", ""})))
	_, err = inserter.Execute()
	require.NoError(t, err)

	nulls, err := QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "orders" WHERE "product" IS NULL`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, nulls)
}

func TestNewInserter_NoColumns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestExtract(t)

	_, err := NewInserter(ctx, db, model.NewTableDefinition(model.NewTableName("empty")))
	assert.ErrorIs(t, err, ErrNoColumns)
}
