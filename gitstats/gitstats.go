// Package gitstats mines the history of a local git repository into a quarry
// extract: one table of commits, one of per-commit file changes, and one of
// per-file blame line counts. Blame runs on a fixed-size worker pool since it
// dominates the runtime on large repositories.
package gitstats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/domain/model"
)

// Predefined errors
var (
	// ErrNotARepository is returned when the path is not a git repository
	ErrNotARepository = errors.New("gitstats: not a git repository")
)

// Commit is one parsed commit of the history.
type Commit struct {
	Hash        string
	Author      string
	AuthorEmail string
	CommittedAt string
	Subject     string
	Changes     []FileChange
}

// FileChange is one changed file of a commit with numstat line counts.
// Binary files carry -1 for both counts.
type FileChange struct {
	Path         string
	LinesAdded   int64
	LinesDeleted int64
}

// BlameEntry aggregates surviving lines per author for one file.
type BlameEntry struct {
	Path      string
	Author    string
	LineCount int64
}

// Options configures the extraction.
type Options struct {
	// RepoPath is the path of the repository to mine.
	RepoPath string
	// Schema is the schema the result tables are created in.
	Schema string
	// Workers is the blame worker pool size. Zero means runtime.NumCPU.
	Workers int
	// SkipBlame skips the blame table, which is by far the slowest part.
	SkipBlame bool
}

// Extract mines the repository into the open extract and returns the number
// of commits loaded.
func Extract(ctx context.Context, db *sql.DB, opts Options) (int64, error) {
	if opts.Schema == "" {
		opts.Schema = model.DefaultSchema
	}
	if err := checkRepository(ctx, opts.RepoPath); err != nil {
		return 0, err
	}

	commits, err := readLog(ctx, opts.RepoPath)
	if err != nil {
		return 0, err
	}
	if err := loadCommits(ctx, db, opts.Schema, commits); err != nil {
		return 0, err
	}

	if !opts.SkipBlame {
		entries, err := blameRepository(ctx, opts.RepoPath, opts.Workers)
		if err != nil {
			return 0, err
		}
		if err := loadBlame(ctx, db, opts.Schema, entries); err != nil {
			return 0, err
		}
	}
	return int64(len(commits)), nil
}

// checkRepository verifies that path is inside a git work tree.
func checkRepository(ctx context.Context, path string) error {
	out, err := gitOutput(ctx, path, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return fmt.Errorf("%w: %s", ErrNotARepository, path)
	}
	return nil
}

// gitOutput runs one git command against the repository and returns stdout.
func gitOutput(ctx context.Context, repoPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoPath}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s failed: %s: %w", args[0], strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return string(out), nil
}

// loadCommits creates and fills the commits and changed_files tables.
func loadCommits(ctx context.Context, db *sql.DB, schema string, commits []Commit) error {
	commitsDef := model.NewTableDefinition(
		model.NewTableName(schema, "commits"),
		model.NewColumnNotNull("hash", model.ColumnTypeText),
		model.NewColumnNotNull("author", model.ColumnTypeText),
		model.NewColumn("author_email", model.ColumnTypeText),
		model.NewColumnNotNull("committed_at", model.ColumnTypeTimestamp),
		model.NewColumn("subject", model.ColumnTypeText),
	)
	changesDef := model.NewTableDefinition(
		model.NewTableName(schema, "changed_files"),
		model.NewColumnNotNull("hash", model.ColumnTypeText),
		model.NewColumnNotNull("file_path", model.ColumnTypeText),
		model.NewColumnNotNull("lines_added", model.ColumnTypeBigInt),
		model.NewColumnNotNull("lines_deleted", model.ColumnTypeBigInt),
	)
	for _, def := range []*model.TableDefinition{commitsDef, changesDef} {
		if err := quarry.CreateTable(ctx, db, def); err != nil {
			return err
		}
	}

	// The extract runs on a single connection, so the two inserters must not
	// hold transactions at the same time.
	commitInserter, err := quarry.NewInserter(ctx, db, commitsDef)
	if err != nil {
		return err
	}
	defer commitInserter.Close()
	for _, commit := range commits {
		if err := commitInserter.AddRow(commit.Hash, commit.Author, commit.AuthorEmail, commit.CommittedAt, commit.Subject); err != nil {
			return err
		}
	}
	if _, err := commitInserter.Execute(); err != nil {
		return err
	}

	changeInserter, err := quarry.NewInserter(ctx, db, changesDef)
	if err != nil {
		return err
	}
	defer changeInserter.Close()
	for _, commit := range commits {
		for _, change := range commit.Changes {
			if err := changeInserter.AddRow(commit.Hash, change.Path, change.LinesAdded, change.LinesDeleted); err != nil {
				return err
			}
		}
	}
	_, err = changeInserter.Execute()
	return err
}

// loadBlame creates and fills the blame table.
func loadBlame(ctx context.Context, db *sql.DB, schema string, entries []BlameEntry) error {
	def := model.NewTableDefinition(
		model.NewTableName(schema, "blame"),
		model.NewColumnNotNull("file_path", model.ColumnTypeText),
		model.NewColumnNotNull("author", model.ColumnTypeText),
		model.NewColumnNotNull("line_count", model.ColumnTypeBigInt),
	)
	if err := quarry.CreateTable(ctx, db, def); err != nil {
		return err
	}

	inserter, err := quarry.NewInserter(ctx, db, def)
	if err != nil {
		return err
	}
	defer inserter.Close()

	for _, entry := range entries {
		if err := inserter.AddRow(entry.Path, entry.Author, entry.LineCount); err != nil {
			return err
		}
	}
	_, err = inserter.Execute()
	return err
}
