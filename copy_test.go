package quarry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/quarry/domain/model"
	quarrydriver "github.com/quarrydata/quarry/driver"
)

// newPopulatedExtract writes an extract with two schemas and some rows and
// returns its path and total row count.
func newPopulatedExtract(t *testing.T) (string, int64) {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "source.quarry")
	db, err := OpenContext(ctx, path, CreateModeCreate)
	require.NoError(t, err)
	defer db.Close()

	orders := model.NewTableDefinition(
		model.NewTableName("orders"),
		model.NewColumnNotNull("id", model.ColumnTypeBigInt),
		model.NewColumn("product", model.ColumnTypeText),
	)
	require.NoError(t, CreateTable(ctx, db, orders))
	_, err = db.ExecContext(ctx, `INSERT INTO "orders" VALUES (1, 'book'), (2, 'pen'), (3, NULL)`)
	require.NoError(t, err)

	stats := model.NewTableDefinition(
		model.NewTableName("sales", "totals"),
		model.NewColumnNotNull("day", model.ColumnTypeDate),
		model.NewColumnNotNull("amount", model.ColumnTypeDouble),
	)
	require.NoError(t, CreateTable(ctx, db, stats))
	_, err = db.ExecContext(ctx, `INSERT INTO "sales.totals" VALUES ('2024-01-01', 10.5), ('2024-01-02', 7.25)`)
	require.NoError(t, err)

	return path, 5
}

func TestCopyExtract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, want := newPopulatedExtract(t)
	dstPath := filepath.Join(t.TempDir(), "copy.quarry")

	copied, err := CopyExtract(ctx, srcPath, dstPath, quarrydriver.CurrentFormatVersion)
	require.NoError(t, err)
	assert.Equal(t, want, copied)

	dst, err := Open(dstPath)
	require.NoError(t, err)
	defer dst.Close()

	// Schemas, definitions and rows survive the copy.
	schemas, err := SchemaNames(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"public", "sales"}, schemas)

	definition, err := TableDefinition(ctx, dst, model.NewTableName("orders"))
	require.NoError(t, err)
	assert.Equal(t, "id", definition.Columns[0].Name)
	assert.False(t, definition.Columns[0].Nullable)

	total, err := RowCount(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, want, total)
}

func TestCopyExtract_TargetVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, _ := newPopulatedExtract(t)
	dstPath := filepath.Join(t.TempDir(), "v1.quarry")

	_, err := CopyExtract(ctx, srcPath, dstPath, 1)
	require.NoError(t, err)

	version, err := quarrydriver.ExtractFormatVersion(dstPath)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestDefragExtract_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, want := newPopulatedExtract(t)

	firstPath := filepath.Join(t.TempDir(), "first.quarry")
	first, err := DefragExtract(ctx, srcPath, firstPath)
	require.NoError(t, err)
	assert.Equal(t, want, first)

	// Re-running on the defragmented output is a row-count no-op.
	secondPath := filepath.Join(t.TempDir(), "second.quarry")
	second, err := DefragExtract(ctx, firstPath, secondPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCopyExtract_SamePath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, want := newPopulatedExtract(t)

	_, err := CopyExtract(ctx, srcPath, srcPath, quarrydriver.CurrentFormatVersion)
	assert.ErrorIs(t, err, ErrSameExtractPath)

	// The same file spelled through a different path is rejected too.
	dir := filepath.Dir(srcPath)
	indirect := filepath.Join(dir, "..", filepath.Base(dir), filepath.Base(srcPath))
	_, err = CopyExtract(ctx, srcPath, indirect, quarrydriver.CurrentFormatVersion)
	assert.ErrorIs(t, err, ErrSameExtractPath)

	_, err = DefragExtract(ctx, srcPath, srcPath)
	assert.ErrorIs(t, err, ErrSameExtractPath)

	// The source survives untouched.
	db, err := Open(srcPath)
	require.NoError(t, err)
	defer db.Close()
	total, err := RowCount(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, want, total)
}

func TestCopyExtract_MissingSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := CopyExtract(ctx,
		filepath.Join(t.TempDir(), "missing.quarry"),
		filepath.Join(t.TempDir(), "out.quarry"),
		quarrydriver.CurrentFormatVersion)
	assert.ErrorIs(t, err, quarrydriver.ErrExtractNotFound)
}
