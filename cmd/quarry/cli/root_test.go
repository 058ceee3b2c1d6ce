package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/quarry"
)

// Commands share viper's global flag state, so these tests run sequentially.

func runCommand(t *testing.T, args ...string) error {
	t.Helper()

	cmd := RootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestRootCmd_NoCommand(t *testing.T) {
	assert.Error(t, runCommand(t))
}

func TestCreateAndListCommands(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(input, []byte("id,product\n1,book\n2,pen\n"), 0600))
	extract := filepath.Join(dir, "orders.quarry")

	require.NoError(t, runCommand(t, "create", extract, input))

	db, err := quarry.Open(extract)
	require.NoError(t, err)
	defer db.Close()

	count, err := quarry.QueryScalarInt64(context.Background(), db, `SELECT COUNT(*) FROM "orders"`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestGenCommand(t *testing.T) {
	extract := filepath.Join(t.TempDir(), "demo.quarry")

	require.NoError(t, runCommand(t, "gen", extract,
		"--seed", "1", "--customers", "3", "--orders", "5"))

	db, err := quarry.Open(extract)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	customers, err := quarry.QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "customers"`)
	require.NoError(t, err)
	assert.EqualValues(t, 3, customers)

	orders, err := quarry.QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "orders"`)
	require.NoError(t, err)
	assert.EqualValues(t, 5, orders)
}

func TestVersionCommand(t *testing.T) {
	assert.NoError(t, runCommand(t, "version"))
}
