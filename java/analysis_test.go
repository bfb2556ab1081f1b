package java

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("parser", "testdata", name))
	require.NoError(t, err)
	return string(data)
}

// after returns the offset right after the first occurrence of marker.
func after(t *testing.T, src, marker string) int {
	t.Helper()
	i := strings.Index(src, marker)
	require.GreaterOrEqual(t, i, 0, "marker %q not found", marker)
	return i + len(marker)
}

// inside returns the offset of the first byte of name within the first
// occurrence of marker.
func inside(t *testing.T, src, marker, name string) int {
	t.Helper()
	i := strings.Index(src, marker)
	require.GreaterOrEqual(t, i, 0, "marker %q not found", marker)
	j := strings.Index(marker, name)
	require.GreaterOrEqual(t, j, 0, "%q not in marker %q", name, marker)
	return i + j
}

func analyzeAt(src string, offset int) *Analysis {
	return Analyze([]byte(src), parser.WithFile("Test.java"), parser.WithCursor(offset))
}

func suggestAt(t *testing.T, src string, offset int, idx index.Index) []Suggestion {
	t.Helper()
	got, err := analyzeAt(src, offset).Suggest(context.Background(), idx, offset)
	require.NoError(t, err)
	return got
}

func names(ss []Suggestion) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Name)
	}
	return out
}
