package quarry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quarrydriver "github.com/quarrydata/quarry/driver"
)

func TestOpenContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Create and reopen", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "orders.quarry")
		db, err := OpenContext(ctx, path, CreateModeCreate)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db, err = Open(path)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})

	t.Run("Open missing extract fails", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing.quarry"))
		assert.ErrorIs(t, err, quarrydriver.ErrExtractNotFound)
	})
}

func TestOpenVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v1.quarry")

	db, err := OpenVersion(ctx, path, CreateModeCreate, 1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	version, err := quarrydriver.ExtractFormatVersion(path)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestExecuteCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := OpenContext(ctx, filepath.Join(t.TempDir(), "exec.quarry"), CreateModeCreate)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE "t" ("x" BIGINT)`)
	require.NoError(t, err)

	affected, err := ExecuteCommand(ctx, db, `INSERT INTO "t" VALUES (1), (2), (3)`)
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)

	affected, err = ExecuteCommand(ctx, db, `DELETE FROM "t" WHERE "x" > 1`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	count, err := QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "t"`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
