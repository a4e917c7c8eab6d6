package diff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chmouel/coverage-delta/internal/model"
	"github.com/chmouel/coverage-delta/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *model.Coverage {
	t.Helper()
	cov, err := parser.Parse(text)
	require.NoError(t, err)
	return cov
}

func TestCompareLineChanges(t *testing.T) {
	tests := []struct {
		name        string
		base        string
		head        string
		wantHit     []int
		wantMissed  []int
		wantStatus  model.FileStatus
		wantDeltaOK bool
	}{
		{
			name:        "newly covered line",
			base:        "SF:foo.go\nDA:1,0\nend_of_record\n",
			head:        "SF:foo.go\nDA:1,1\nend_of_record\n",
			wantHit:     []int{1},
			wantStatus:  model.StatusModified,
			wantDeltaOK: true,
		},
		{
			name:        "regression - was covered now uncovered",
			base:        "SF:foo.go\nDA:1,3\nend_of_record\n",
			head:        "SF:foo.go\nDA:1,0\nend_of_record\n",
			wantMissed:  []int{1},
			wantStatus:  model.StatusModified,
			wantDeltaOK: true,
		},
		{
			name:        "unchanged covered",
			base:        "SF:foo.go\nDA:1,1\nend_of_record\n",
			head:        "SF:foo.go\nDA:1,9\nend_of_record\n",
			wantStatus:  model.StatusModified,
			wantDeltaOK: true,
		},
		{
			name:        "unchanged uncovered",
			base:        "SF:foo.go\nDA:1,0\nend_of_record\n",
			head:        "SF:foo.go\nDA:1,0\nend_of_record\n",
			wantStatus:  model.StatusModified,
			wantDeltaOK: true,
		},
		{
			name:       "new file not in base",
			base:       "SF:other.go\nDA:1,1\nend_of_record\n",
			head:       "SF:foo.go\nDA:1,1\nDA:2,0\nend_of_record\n",
			wantHit:    []int{1},
			wantMissed: []int{2},
			wantStatus: model.StatusAdded,
		},
		{
			name:        "mixed changes",
			base:        "SF:foo.go\nDA:1,1\nDA:2,0\nDA:3,1\nend_of_record\n",
			head:        "SF:foo.go\nDA:1,1\nDA:2,1\nDA:3,0\nDA:4,0\nend_of_record\n",
			wantHit:     []int{2},
			wantMissed:  []int{3, 4},
			wantStatus:  model.StatusModified,
			wantDeltaOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compare(mustParse(t, tt.head), mustParse(t, tt.base), Options{})
			require.True(t, result.HasBase)

			fd := result.Files[0]
			assert.Equal(t, "foo.go", fd.Path)
			assert.Equal(t, tt.wantStatus, fd.Status)
			assert.Equal(t, tt.wantHit, fd.HitLines)
			assert.Equal(t, tt.wantMissed, fd.MissedLines)

			_, ok := fd.Lines.Delta()
			assert.Equal(t, tt.wantDeltaOK, ok)
		})
	}
}

func TestCompareWithoutBase(t *testing.T) {
	head := mustParse(t, "SF:a.js\nDA:1,1\nDA:2,0\nBRDA:1,0,0,1\nend_of_record\nSF:b.js\nDA:1,0\nend_of_record\n")
	result := Compare(head, nil, Options{})

	assert.False(t, result.HasBase)
	require.Len(t, result.Files, 2)
	for _, fd := range result.Files {
		assert.Nil(t, fd.Lines.Base, "absent baseline is not a zero baseline")
		_, ok := fd.Lines.Delta()
		assert.False(t, ok)
		_, ok = fd.Branches.Delta()
		assert.False(t, ok)
		assert.Nil(t, fd.HitLines)
		assert.Nil(t, fd.MissedLines)
		assert.Equal(t, model.StatusAdded, fd.Status)
	}
	assert.Equal(t, []int{2}, result.Files[0].UncoveredLines)

	assert.Nil(t, result.Lines.Base)
	_, ok := result.Lines.Delta()
	assert.False(t, ok)
	assert.Equal(t, &model.Ratio{Covered: 1, Total: 3}, result.Lines.Head)
	assert.Equal(t, &model.Ratio{Covered: 1, Total: 1}, result.Branches.Head)
	assert.Nil(t, result.Functions.Head)
}

func TestCompareIdentical(t *testing.T) {
	text := "SF:a.js\nDA:1,1\nDA:2,0\nBRDA:1,0,0,1\nBRDA:1,0,1,0\nend_of_record\nSF:b.js\nDA:1,0\nDA:2,0\nDA:3,1\nend_of_record\n"
	m := mustParse(t, text)

	result := Compare(m, m, Options{})
	for _, fd := range result.Files {
		d, ok := fd.Lines.Delta()
		require.True(t, ok)
		assert.Zero(t, d)
		assert.Empty(t, fd.HitLines)
		assert.Empty(t, fd.MissedLines)
	}
	d, ok := result.Lines.Delta()
	require.True(t, ok)
	assert.Zero(t, d)

	d, ok = result.Branches.Delta()
	require.True(t, ok)
	assert.Zero(t, d)
}

func TestCompareWeightedTotal(t *testing.T) {
	var b strings.Builder
	b.WriteString("SF:small.go\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "DA:%d,%d\n", i, boolHits(i <= 9))
	}
	b.WriteString("end_of_record\nSF:large.go\n")
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, "DA:%d,%d\n", i, boolHits(i == 1))
	}
	b.WriteString("end_of_record\n")

	result := Compare(mustParse(t, b.String()), nil, Options{})
	require.Equal(t, &model.Ratio{Covered: 10, Total: 110}, result.Lines.Head)
	// the unweighted mean of 90% and 1% would be 45.5%
	assert.Equal(t, 9.09, model.Round(result.Lines.Head.Percent()))
}

func TestCompareRemovedFile(t *testing.T) {
	head := mustParse(t, "SF:kept.js\nDA:1,1\nend_of_record\n")
	base := mustParse(t, "SF:gone.js\nDA:1,0\nDA:2,0\nend_of_record\nSF:kept.js\nDA:1,0\nend_of_record\n")

	result := Compare(head, base, Options{})
	require.Len(t, result.Files, 2)
	assert.Equal(t, "kept.js", result.Files[0].Path)
	assert.Equal(t, "gone.js", result.Files[1].Path, "base-only files come after head files")

	gone := result.Files[1]
	assert.Equal(t, model.StatusRemoved, gone.Status)
	assert.Nil(t, gone.Lines.Head)
	_, ok := gone.Lines.Delta()
	assert.False(t, ok)

	assert.Equal(t, &model.Ratio{Covered: 1, Total: 1}, result.Lines.Head)
	assert.Equal(t, &model.Ratio{Covered: 0, Total: 3}, result.Lines.Base)
}

func TestCompareBranchPresentOnOneSide(t *testing.T) {
	head := mustParse(t, "SF:a.js\nDA:1,1\nBRDA:1,0,0,1\nBRDA:1,0,1,1\nend_of_record\n")
	base := mustParse(t, "SF:a.js\nDA:1,1\nend_of_record\n")

	result := Compare(head, base, Options{})
	fd := result.Files[0]
	require.NotNil(t, fd.Branches.Head)
	assert.Nil(t, fd.Branches.Base)
	_, ok := fd.Branches.Delta()
	assert.False(t, ok)

	d, ok := fd.Lines.Delta()
	require.True(t, ok)
	assert.Zero(t, d)

	_, ok = result.Branches.Delta()
	assert.False(t, ok, "no base file carries branch data")
}

func TestCompareDeltaPercent(t *testing.T) {
	base := mustParse(t, "SF:foo.go\nDA:1,1\nDA:2,0\nend_of_record\n")
	head := mustParse(t, "SF:foo.go\nDA:1,1\nDA:2,1\nend_of_record\n")

	result := Compare(head, base, Options{})
	d, ok := result.Lines.Delta()
	require.True(t, ok)
	assert.InDelta(t, 50.0, d, 1e-9)
	assert.InDelta(t, 50.0, result.Lines.Base.Percent(), 1e-9)
}

func TestComparePrefix(t *testing.T) {
	head := mustParse(t, "SF:/home/runner/work/repo/src/a.js\nDA:1,1\nend_of_record\n")
	base := mustParse(t, "SF:/builds/repo/src/a.js\nDA:1,0\nend_of_record\n")

	// Different workspaces only line up when both are made relative.
	result := Compare(head, base, Options{Prefix: "/home/runner/work/repo/"})
	require.Len(t, result.Files, 2)
	assert.Equal(t, "src/a.js", result.Files[0].Path)
	assert.Equal(t, model.StatusAdded, result.Files[0].Status)
}

func TestCompareMergesPathsSharingAKey(t *testing.T) {
	head := mustParse(t, "SF:/ws/a.js\nDA:1,1\nDA:2,0\nend_of_record\nSF:a.js\nDA:2,3\nDA:3,0\nend_of_record\n")
	base := mustParse(t, "SF:a.js\nDA:1,0\nend_of_record\nSF:/ws/a.js\nDA:4,1\nend_of_record\n")

	result := Compare(head, base, Options{Prefix: "/ws/"})
	require.Len(t, result.Files, 1)
	fd := result.Files[0]
	assert.Equal(t, "a.js", fd.Path)
	assert.Equal(t, model.StatusModified, fd.Status)
	assert.Equal(t, &model.Ratio{Covered: 2, Total: 3}, fd.Lines.Head)
	assert.Equal(t, &model.Ratio{Covered: 1, Total: 2}, fd.Lines.Base)
	assert.Equal(t, []int{1, 2}, fd.HitLines)
	assert.Equal(t, []int{3}, fd.MissedLines)

	assert.Equal(t, &model.Ratio{Covered: 2, Total: 3}, result.Lines.Head)
	assert.Equal(t, &model.Ratio{Covered: 1, Total: 2}, result.Lines.Base)
}

func TestCompareEmptyHead(t *testing.T) {
	result := Compare(model.NewCoverage(nil), nil, Options{})
	assert.Empty(t, result.Files)
	assert.Equal(t, &model.Ratio{}, result.Lines.Head)
	assert.InDelta(t, 100.0, result.Lines.Head.Percent(), 1e-9)
}

func boolHits(covered bool) int {
	if covered {
		return 1
	}
	return 0
}
