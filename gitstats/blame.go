package gitstats

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// blameRepository blames every tracked file at HEAD and aggregates surviving
// lines per author. Files are split into disjoint slices, one per worker, and
// a single collector goroutine merges the per-file results.
func blameRepository(ctx context.Context, repoPath string, workers int) ([]BlameEntry, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out, err := gitOutput(ctx, repoPath, "ls-files")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	if len(files) == 0 {
		return nil, nil
	}
	if workers > len(files) {
		workers = len(files)
	}

	results := make(chan []BlameEntry, workers)

	group, groupCtx := errgroup.WithContext(ctx)
	for worker := 0; worker < workers; worker++ {
		worker := worker
		group.Go(func() error {
			// Disjoint slice: every worker takes each workers-th file.
			for i := worker; i < len(files); i += workers {
				entries, err := blameFile(groupCtx, repoPath, files[i])
				if err != nil {
					return err
				}
				select {
				case results <- entries:
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		_ = group.Wait()
		close(results)
	}()

	// Single collector keeps the aggregation map off the workers.
	totals := make(map[string]map[string]int64)
	for entries := range results {
		for _, entry := range entries {
			if totals[entry.Path] == nil {
				totals[entry.Path] = make(map[string]int64)
			}
			totals[entry.Path][entry.Author] += entry.LineCount
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var merged []BlameEntry
	for path, authors := range totals {
		for author, count := range authors {
			merged = append(merged, BlameEntry{Path: path, Author: author, LineCount: count})
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Path != merged[j].Path {
			return merged[i].Path < merged[j].Path
		}
		return merged[i].Author < merged[j].Author
	})
	return merged, nil
}

// blameFile counts surviving lines per author for one file using the
// line-porcelain output, which repeats the author for every line.
func blameFile(ctx context.Context, repoPath, file string) ([]BlameEntry, error) {
	out, err := gitOutput(ctx, repoPath, "blame", "--line-porcelain", "HEAD", "--", file)
	if err != nil {
		// Binary and unreadable files make git exit nonzero and are skipped.
		// Anything else, like a cancelled context, fails the run.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, err
	}

	counts := make(map[string]int64)
	for _, line := range strings.Split(out, "\n") {
		if author, ok := strings.CutPrefix(line, "author "); ok {
			counts[author]++
		}
	}

	entries := make([]BlameEntry, 0, len(counts))
	for author, count := range counts {
		entries = append(entries, BlameEntry{Path: file, Author: author, LineCount: count})
	}
	return entries, nil
}
