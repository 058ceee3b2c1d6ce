package gitstats

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/quarry"
)

// newTestRepo builds a repository with two commits by one author.
func newTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Alice", "GIT_AUTHOR_EMAIL=alice@example.com",
			"GIT_COMMITTER_NAME=Alice", "GIT_COMMITTER_EMAIL=alice@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	run("init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0600))
	run("add", ".")
	run("commit", "-m", "initial commit")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0600))
	run("add", ".")
	run("commit", "-m", "add main")
	return dir
}

func TestExtract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)

	db, err := quarry.OpenContext(ctx,
		filepath.Join(t.TempDir(), "stats.quarry"), quarry.CreateModeCreate)
	require.NoError(t, err)
	defer db.Close()

	count, err := Extract(ctx, db, Options{RepoPath: repo, Workers: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	commits, err := quarry.QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "commits"`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, commits)

	changes, err := quarry.QueryScalarInt64(ctx, db, `SELECT COUNT(*) FROM "changed_files"`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changes)

	lines, err := quarry.QueryScalarInt64(ctx, db,
		`SELECT "line_count" FROM "blame" WHERE "file_path" = 'main.go' AND "author" = 'Alice'`)
	require.NoError(t, err)
	assert.EqualValues(t, 3, lines)
}

func TestExtract_SkipBlame(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newTestRepo(t)

	db, err := quarry.OpenContext(ctx,
		filepath.Join(t.TempDir(), "stats.quarry"), quarry.CreateModeCreate)
	require.NoError(t, err)
	defer db.Close()

	_, err = Extract(ctx, db, Options{RepoPath: repo, SkipBlame: true})
	require.NoError(t, err)

	exists, err := quarry.QueryScalarInt64(ctx, db,
		`SELECT COUNT(*) FROM sqlite_master WHERE name = 'blame'`)
	require.NoError(t, err)
	assert.EqualValues(t, 0, exists)
}

func TestExtract_NotARepository(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	ctx := context.Background()
	db, err := quarry.OpenContext(ctx,
		filepath.Join(t.TempDir(), "stats.quarry"), quarry.CreateModeCreate)
	require.NoError(t, err)
	defer db.Close()

	_, err = Extract(ctx, db, Options{RepoPath: t.TempDir()})
	assert.ErrorIs(t, err, ErrNotARepository)
}
