package parser

import (
	"testing"

	"github.com/chmouel/coverage-delta/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterFixture(t *testing.T) *model.Coverage {
	t.Helper()
	cov, err := Parse("SF:/ws/a.go\nDA:1,1\nend_of_record\nSF:/ws/b.go\nDA:1,0\nDA:2,1\nend_of_record\nSF:/ws/c.go\nDA:1,0\nend_of_record\n")
	require.NoError(t, err)
	return cov
}

func TestFilterByPaths(t *testing.T) {
	data := filterFixture(t)

	filtered := FilterByPaths(data, map[string]struct{}{"b.go": {}, "./c.go": {}, "missing.go": {}}, "/ws/")
	require.Len(t, filtered.Files, 2)
	assert.Equal(t, "/ws/b.go", filtered.Files[0].Path)
	assert.Equal(t, "/ws/c.go", filtered.Files[1].Path)
	assert.Equal(t, 3, filtered.TotalLines)
	assert.Equal(t, 1, filtered.CoveredLines)

	_, ok := filtered.File("/ws/a.go")
	assert.False(t, ok)

	// the input model is left alone
	assert.Len(t, data.Files, 3)
	assert.Equal(t, 4, data.TotalLines)
}

func TestFilterByPathsNilIsNoop(t *testing.T) {
	data := filterFixture(t)
	assert.Same(t, data, FilterByPaths(data, nil, "/ws"))
	assert.Nil(t, FilterByPaths(nil, map[string]struct{}{}, ""))
}

func TestFilterByPathsEmptySet(t *testing.T) {
	filtered := FilterByPaths(filterFixture(t), map[string]struct{}{}, "/ws")
	assert.Empty(t, filtered.Files)
	assert.Equal(t, 0, filtered.TotalLines)
}

func TestFilterByPathsFullSet(t *testing.T) {
	data := filterFixture(t)
	all := map[string]struct{}{}
	for _, f := range data.Files {
		all[f.Path] = struct{}{}
	}

	filtered := FilterByPaths(data, all, "")
	assert.Equal(t, data.Files, filtered.Files)
	assert.Equal(t, data.TotalLines, filtered.TotalLines)
	assert.Equal(t, data.CoveredLines, filtered.CoveredLines)
}

func TestPathSet(t *testing.T) {
	set := PathSet([]string{"./a.go", "dir\\b.go", "", "  "})
	assert.Equal(t, map[string]struct{}{"a.go": {}, "dir/b.go": {}}, set)
}
