package pds

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/driver"
)

// newExtract writes a small extract file and returns its path.
func newExtract(t *testing.T, rows int) string {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "orders.quarry")
	db, err := quarry.OpenContext(ctx, path, quarry.CreateModeCreate)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE "orders" ("id" BIGINT)`)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		_, err = db.ExecContext(ctx, `INSERT INTO "orders" VALUES (?)`, i)
		require.NoError(t, err)
	}
	return path
}

func TestBuildAndReadManifest(t *testing.T) {
	t.Parallel()

	extractPath := newExtract(t, 3)
	packagePath := filepath.Join(t.TempDir(), "orders"+Extension)

	require.NoError(t, Build(packagePath, extractPath, "Monthly Orders"))

	manifest, err := ReadManifest(packagePath)
	require.NoError(t, err)
	assert.Equal(t, "Monthly Orders", manifest.Name)
	assert.Equal(t, "orders.quarry", manifest.Extract)
	assert.Equal(t, driver.CurrentFormatVersion, manifest.FormatVersion)
	assert.NotEmpty(t, manifest.CreatedAt)
}

func TestBuild_InvalidExtract(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	notAnExtract := filepath.Join(dir, "plain.quarry")
	require.NoError(t, os.WriteFile(notAnExtract, []byte("not a database"), 0600))

	err := Build(filepath.Join(dir, "out"+Extension), notAnExtract, "bad")
	assert.ErrorIs(t, err, driver.ErrNotAnExtract)
}

func TestUnpack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	extractPath := newExtract(t, 2)
	packagePath := filepath.Join(t.TempDir(), "orders"+Extension)
	require.NoError(t, Build(packagePath, extractPath, "orders"))

	outputDir := filepath.Join(t.TempDir(), "unpacked")
	unpacked, err := Unpack(packagePath, outputDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "orders.quarry"), unpacked)

	// The unpacked extract opens and still holds its rows.
	db, err := quarry.Open(unpacked)
	require.NoError(t, err)
	defer db.Close()
	count, err := quarry.QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "orders"`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestUnpack_NoManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packagePath := filepath.Join(dir, "empty"+Extension)
	output, err := os.Create(packagePath)
	require.NoError(t, err)
	zipWriter := zip.NewWriter(output)
	entry, err := zipWriter.Create("something.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zipWriter.Close())
	require.NoError(t, output.Close())

	_, err = Unpack(packagePath, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrNoManifest)
}

func TestSwapExtract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	original := newExtract(t, 1)
	replacement := newExtract(t, 5)
	packagePath := filepath.Join(t.TempDir(), "orders"+Extension)
	require.NoError(t, Build(packagePath, original, "orders"))

	require.NoError(t, SwapExtract(packagePath, replacement))

	// Name and entry name survive the swap; the data is replaced.
	manifest, err := ReadManifest(packagePath)
	require.NoError(t, err)
	assert.Equal(t, "orders", manifest.Name)
	assert.Equal(t, "orders.quarry", manifest.Extract)

	unpacked, err := Unpack(packagePath, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	db, err := quarry.Open(unpacked)
	require.NoError(t, err)
	defer db.Close()
	count, err := quarry.QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "orders"`)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}
