package generator

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chmouel/coverage-delta/internal/diff"
	"github.com/chmouel/coverage-delta/internal/model"
	"github.com/chmouel/coverage-delta/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	headReport = `SF:/ws/src/b.js
FN:1,b
FNDA:1,b
DA:1,1
DA:2,1
DA:3,0
BRDA:2,0,0,1
BRDA:2,0,1,0
end_of_record
SF:/ws/src/a.js
DA:1,1
DA:2,1
DA:3,1
end_of_record
SF:/ws/src/new.js
DA:1,0
end_of_record
`
	baseReport = `SF:/ws/src/a.js
DA:1,1
DA:2,0
DA:3,0
end_of_record
SF:/ws/src/b.js
FN:1,b
FNDA:1,b
DA:1,1
DA:2,0
DA:3,1
BRDA:2,0,0,0
BRDA:2,0,1,0
end_of_record
SF:/ws/src/gone.js
DA:1,1
end_of_record
`
)

func compare(t *testing.T, head, base string) *model.Comparison {
	t.Helper()
	h, err := parser.Parse(head)
	require.NoError(t, err)
	var b *model.Coverage
	if base != "" {
		b, err = parser.Parse(base)
		require.NoError(t, err)
	}
	return diff.Compare(h, b, diff.Options{Prefix: "/ws/"})
}

func TestRenderWithBase(t *testing.T) {
	out := Render(compare(t, headReport, baseReport), Options{Title: "PR Coverage", HeadRef: "feature", BaseRef: "main"})

	assert.True(t, strings.HasPrefix(out, "## PR Coverage\n"))
	// head 5/7 = 71.43%, base 4/7 = 57.14%
	assert.Contains(t, out, "Coverage after merging `feature` into `main` will be **71.43%** ▲ +14.29%")
	assert.Contains(t, out, "- Lines: 71.43% (5 of 7), ▲ +14.29% from 57.14%")
	assert.Contains(t, out, "- Functions: 100.00% (1 of 1), = 0.00% from 100.00%")
	assert.Contains(t, out, "- Branches: 50.00% (1 of 2), ▲ +50.00% from 0.00%")
	assert.Contains(t, out, "| File")
	assert.Contains(t, out, "Δ Branches")

	// head order first, then removed files
	b := strings.Index(out, "src/b.js")
	a := strings.Index(out, "src/a.js")
	n := strings.Index(out, "src/new.js")
	g := strings.Index(out, "src/gone.js")
	require.True(t, b > 0 && a > 0 && n > 0 && g > 0)
	assert.True(t, b < a && a < n && n < g, "rows must follow head order with removed files last")

	goneRow := rowFor(t, out, "src/gone.js")
	assert.Contains(t, goneRow, Absent)

	newRow := rowFor(t, out, "src/new.js")
	assert.Contains(t, newRow, "0.00%")
	assert.Contains(t, newRow, NotApplicable)
}

func TestRenderWithoutBase(t *testing.T) {
	out := Render(compare(t, headReport, ""), Options{})

	assert.Contains(t, out, "## "+DefaultTitle)
	assert.Contains(t, out, "Total coverage: **71.43%**\n")
	assert.NotContains(t, out, IndicatorUp)
	assert.NotContains(t, out, IndicatorDown)
	assert.Contains(t, rowFor(t, out, "src/a.js"), NotApplicable)
}

func TestRenderHideBranchCoverage(t *testing.T) {
	cmp := compare(t, headReport, baseReport)

	out := Render(cmp, Options{HideBranchCoverage: true})
	assert.NotContains(t, out, "Branches")

	out = Render(cmp, Options{})
	assert.Contains(t, out, "Branches")
}

func TestRenderNoBranchData(t *testing.T) {
	out := Render(compare(t, "SF:a.js\nDA:1,1\nend_of_record\n", ""), Options{})
	assert.NotContains(t, out, "Branches")
	assert.NotContains(t, out, "Functions")
}

func TestRenderLineDetail(t *testing.T) {
	head := "SF:a.js\nDA:1,1\nDA:2,1\nDA:3,1\nDA:5,0\nDA:7,1\nend_of_record\n"
	base := "SF:a.js\nDA:1,0\nDA:2,0\nDA:3,0\nDA:5,1\nDA:7,1\nend_of_record\n"

	out := Render(compare(t, head, base), Options{LineDetail: true})
	assert.Contains(t, out, "Newly Covered")
	assert.Contains(t, out, "Newly Uncovered")
	row := rowFor(t, out, "a.js")
	assert.Contains(t, row, "1-3")
	assert.Contains(t, row, "5")

	out = Render(compare(t, head, ""), Options{LineDetail: true})
	assert.Contains(t, out, "Uncovered Lines")
	assert.NotContains(t, out, "Newly Covered")
}

func TestRenderEmpty(t *testing.T) {
	for _, cmp := range []*model.Comparison{nil, compare(t, "TN:\n", "")} {
		out := Render(cmp, Options{Title: "Nothing"})
		assert.Equal(t, "## Nothing\n\n_No coverage data to show._\n", out)
	}
}

func TestRenderIdenticalIsUnchanged(t *testing.T) {
	out := Render(compare(t, baseReport, baseReport), Options{})
	assert.Contains(t, out, "Total coverage: **57.14%** = 0.00%")
	assert.NotContains(t, out, IndicatorDown)
}

func TestRenderEscapesPipes(t *testing.T) {
	out := Render(compare(t, "SF:odd|name.js\nDA:1,1\nend_of_record\n", ""), Options{})
	assert.Contains(t, out, `odd\|name.js`)
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "▲ +1.25%", FormatDelta(1.25))
	assert.Equal(t, "▼ -0.50%", FormatDelta(-0.5))
	assert.Equal(t, "= 0.00%", FormatDelta(0))
	assert.Equal(t, "= 0.00%", FormatDelta(-0.001), "rounds before picking a direction")
}

func TestRanges(t *testing.T) {
	assert.Equal(t, "", Ranges(nil))
	assert.Equal(t, "4", Ranges([]int{4}))
	assert.Equal(t, "1-3, 7, 9-10", Ranges([]int{1, 2, 3, 7, 9, 10}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 0))
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "▲▼", Truncate("▲▼=", 2), "counts characters, not bytes")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "md": FormatMarkdown, "JSON": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("html")
	assert.Error(t, err)
}

func TestEncodeJSON(t *testing.T) {
	out, err := Generate(compare(t, headReport, baseReport), Options{Format: FormatJSON})
	require.NoError(t, err)

	var view reportView
	require.NoError(t, json.Unmarshal(out, &view))
	assert.True(t, view.HasBase)
	require.NotNil(t, view.Lines.Delta)
	assert.Equal(t, 14.29, *view.Lines.Delta)
	require.Len(t, view.Files, 4)

	added := view.Files[2]
	assert.Equal(t, "src/new.js", added.Path)
	assert.Equal(t, "added", added.Status)
	assert.Nil(t, added.Lines.Base)
	assert.Nil(t, added.Lines.Delta)

	removed := view.Files[3]
	assert.Equal(t, "removed", removed.Status)
	assert.Nil(t, removed.Lines.Head)
}

func TestEncodeYAMLHidesBranches(t *testing.T) {
	out, err := Generate(compare(t, headReport, ""), Options{Format: FormatYAML, HideBranchCoverage: true})
	require.NoError(t, err)

	var view map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &view))
	assert.Equal(t, false, view["hasBase"])
	assert.NotContains(t, view, "branches")
	assert.Contains(t, view, "functions")
}

func TestGenerateUnknownFormat(t *testing.T) {
	_, err := Generate(nil, Options{Format: "html"})
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, Write([]byte("## hi\n"), outputPath, nil))

	content, err := os.ReadFile(outputPath) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, "## hi\n", string(content))

	var stdout bytes.Buffer
	require.NoError(t, Write([]byte("to stdout"), "-", &stdout))
	assert.Equal(t, "to stdout", stdout.String())

	err = Write([]byte("x"), filepath.Join(t.TempDir(), "missing", "dir", "r.md"), nil)
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(nil), "no data")

	s := Summary(compare(t, headReport, baseReport))
	assert.Contains(t, s, "71.43% across 4 files")
	assert.Contains(t, s, "+14.29%")

	s = Summary(compare(t, headReport, ""))
	assert.NotContains(t, s, IndicatorUp)
}

func rowFor(t *testing.T, out, path string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "|") && strings.Contains(line, path) {
			return line
		}
	}
	t.Fatalf("no table row for %s in:\n%s", path, out)
	return ""
}
