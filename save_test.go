package quarry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/quarry/domain/model"
)

func TestDumpDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, _ := newPopulatedExtract(t)
	db, err := Open(srcPath)
	require.NoError(t, err)
	defer db.Close()

	outputDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, DumpDatabase(ctx, db, outputDir))

	data, err := os.ReadFile(filepath.Join(outputDir, "orders.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, "id,product", lines[0])
	assert.Len(t, lines, 4)

	// Stored names keep the schema prefix in the file name.
	_, err = os.Stat(filepath.Join(outputDir, "sales.totals.csv"))
	assert.NoError(t, err)

	// The internal catalog is never exported.
	_, err = os.Stat(filepath.Join(outputDir, "quarry_catalog.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestDumpDatabase_TSVGzip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, _ := newPopulatedExtract(t)
	db, err := Open(srcPath)
	require.NoError(t, err)
	defer db.Close()

	outputDir := filepath.Join(t.TempDir(), "out")
	options := model.NewDumpOptions().
		WithFormat(model.OutputFormatTSV).
		WithCompression(model.CompressionGZ)
	require.NoError(t, DumpDatabase(ctx, db, outputDir, options))

	_, err = os.Stat(filepath.Join(outputDir, "orders.tsv.gz"))
	assert.NoError(t, err)
}

func TestExportTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, _ := newPopulatedExtract(t)
	db, err := Open(srcPath)
	require.NoError(t, err)
	defer db.Close()

	outputPath := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, ExportTable(ctx, db, model.NewTableName("orders"), outputPath, model.NewDumpOptions()))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,product\n"))

	err = ExportTable(ctx, db, model.NewTableName("missing"),
		filepath.Join(t.TempDir(), "missing.csv"), model.NewDumpOptions())
	assert.Error(t, err)
}

// Round trip: export a table as parquet and rebuild an extract from it.
func TestExportTable_ParquetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srcPath, _ := newPopulatedExtract(t)
	db, err := Open(srcPath)
	require.NoError(t, err)
	defer db.Close()

	outputPath := filepath.Join(t.TempDir(), "orders.parquet")
	options := model.NewDumpOptions().WithFormat(model.OutputFormatParquet)
	require.NoError(t, ExportTable(ctx, db, model.NewTableName("orders"), outputPath, options))

	rebuilt := filepath.Join(t.TempDir(), "rebuilt.quarry")
	validated, err := NewExtractBuilder(rebuilt).AddPath(outputPath).Build(ctx)
	require.NoError(t, err)
	db2, err := validated.Open(ctx)
	require.NoError(t, err)
	defer db2.Close()

	count, err := QueryScalarInt64(ctx, db2, `SELECT COUNT(*) FROM "orders"`)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
