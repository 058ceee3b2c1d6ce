package gitstats

import (
	"context"
	"strconv"
	"strings"
)

// logFieldSeparator keeps the pretty format parseable even when subjects
// contain tabs. \x1f is the ASCII unit separator.
const logFieldSeparator = "\x1f"

// readLog parses the full history with numstat line counts. Oldest commit
// first, so downstream row order follows history order.
func readLog(ctx context.Context, repoPath string) ([]Commit, error) {
	format := strings.Join([]string{"%H", "%an", "%ae", "%aI", "%s"}, logFieldSeparator)
	out, err := gitOutput(ctx, repoPath,
		"log", "--reverse", "--numstat", "--no-merges", "--pretty=format:"+logFieldSeparator+format)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	var current *Commit
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, logFieldSeparator) {
			if current != nil {
				commits = append(commits, *current)
			}
			fields := strings.Split(strings.TrimPrefix(line, logFieldSeparator), logFieldSeparator)
			if len(fields) != 5 {
				continue
			}
			current = &Commit{
				Hash:        fields[0],
				Author:      fields[1],
				AuthorEmail: fields[2],
				CommittedAt: fields[3],
				Subject:     fields[4],
			}
			continue
		}

		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}
		if change, ok := parseNumstatLine(line); ok {
			current.Changes = append(current.Changes, change)
		}
	}
	if current != nil {
		commits = append(commits, *current)
	}
	return commits, nil
}

// parseNumstatLine parses one "added\tdeleted\tpath" line. Binary files show
// "-" for both counts and map to -1.
func parseNumstatLine(line string) (FileChange, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return FileChange{}, false
	}

	added, okAdded := parseNumstatCount(parts[0])
	deleted, okDeleted := parseNumstatCount(parts[1])
	if !okAdded || !okDeleted {
		return FileChange{}, false
	}
	return FileChange{
		Path:         parts[2],
		LinesAdded:   added,
		LinesDeleted: deleted,
	}, true
}

func parseNumstatCount(s string) (int64, bool) {
	if s == "-" {
		return -1, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
