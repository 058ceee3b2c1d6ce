package gitstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumstatLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want FileChange
		ok   bool
	}{
		{
			name: "regular change",
			line: "12\t3\tinternal/server.go",
			want: FileChange{Path: "internal/server.go", LinesAdded: 12, LinesDeleted: 3},
			ok:   true,
		},
		{
			name: "binary file",
			line: "-\t-\tassets/logo.png",
			want: FileChange{Path: "assets/logo.png", LinesAdded: -1, LinesDeleted: -1},
			ok:   true,
		},
		{
			name: "path with tab kept intact",
			line: "1\t0\tdocs/a\tb.txt",
			want: FileChange{Path: "docs/a\tb.txt", LinesAdded: 1, LinesDeleted: 0},
			ok:   true,
		},
		{
			name: "too few fields",
			line: "12\t3",
			ok:   false,
		},
		{
			name: "garbage counts",
			line: "x\ty\tfile.go",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseNumstatLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseNumstatCount(t *testing.T) {
	t.Parallel()

	n, ok := parseNumstatCount("42")
	assert.True(t, ok)
	assert.EqualValues(t, 42, n)

	n, ok = parseNumstatCount("-")
	assert.True(t, ok)
	assert.EqualValues(t, -1, n)

	_, ok = parseNumstatCount("abc")
	assert.False(t, ok)
}
