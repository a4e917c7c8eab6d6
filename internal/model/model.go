package model

import (
	"math"
	"sort"
)

// BranchKey identifies one branch of a conditional at a given line.
type BranchKey struct {
	Line   int `json:"line"`
	Block  int `json:"block"`
	Branch int `json:"branch"`
}

// Branch is the recorded outcome of a single branch.
type Branch struct {
	Hits         int  `json:"hits"`
	Instrumented bool `json:"instrumented"` // false for the "-" marker
}

// Covered reports whether the branch was taken at least once.
func (b Branch) Covered() bool {
	return b.Instrumented && b.Hits > 0
}

// Function is the recorded execution of a named function.
type Function struct {
	Line int `json:"line"`
	Hits int `json:"hits"`
}

// FileCoverage represents a single source file with coverage information.
type FileCoverage struct {
	Path      string               `json:"path"` // normalized, forward slashes
	Lines     map[int]int          `json:"lines"`
	Branches  map[BranchKey]Branch `json:"-"`
	Functions map[string]Function  `json:"functions,omitempty"`

	TotalLines       int `json:"totalLines"`
	CoveredLines     int `json:"coveredLines"`
	TotalBranches    int `json:"totalBranches,omitempty"`
	CoveredBranches  int `json:"coveredBranches,omitempty"`
	TotalFunctions   int `json:"totalFunctions,omitempty"`
	CoveredFunctions int `json:"coveredFunctions,omitempty"`
}

// NewFileCoverage returns an empty record for path.
func NewFileCoverage(path string) FileCoverage {
	return FileCoverage{
		Path:  NormalizePath(path),
		Lines: map[int]int{},
	}
}

// HasBranches reports whether the source report carried branch data for the
// file. Branches marked "-" were never instrumented and do not count.
func (f *FileCoverage) HasBranches() bool {
	for _, b := range f.Branches {
		if b.Instrumented {
			return true
		}
	}
	return false
}

// HasFunctions reports whether the source report carried function data for the file.
func (f *FileCoverage) HasFunctions() bool {
	return len(f.Functions) > 0
}

// Recount derives the aggregate counters from the raw maps. Summary
// directives from the input are never consulted.
func (f *FileCoverage) Recount() {
	f.TotalLines, f.CoveredLines = len(f.Lines), 0
	for _, hits := range f.Lines {
		if hits > 0 {
			f.CoveredLines++
		}
	}

	f.TotalBranches, f.CoveredBranches = 0, 0
	for _, b := range f.Branches {
		if !b.Instrumented {
			continue
		}
		f.TotalBranches++
		if b.Covered() {
			f.CoveredBranches++
		}
	}

	f.TotalFunctions, f.CoveredFunctions = len(f.Functions), 0
	for _, fn := range f.Functions {
		if fn.Hits > 0 {
			f.CoveredFunctions++
		}
	}
}

// LineNumbers returns the instrumented line numbers in ascending order.
func (f *FileCoverage) LineNumbers() []int {
	nums := make([]int, 0, len(f.Lines))
	for n := range f.Lines {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// LineRatio returns the line coverage counters.
func (f *FileCoverage) LineRatio() Ratio {
	return Ratio{Covered: f.CoveredLines, Total: f.TotalLines}
}

// BranchRatio returns the branch counters, or nil when there is no branch data.
func (f *FileCoverage) BranchRatio() *Ratio {
	if !f.HasBranches() {
		return nil
	}
	return &Ratio{Covered: f.CoveredBranches, Total: f.TotalBranches}
}

// FunctionRatio returns the function counters, or nil when there is no function data.
func (f *FileCoverage) FunctionRatio() *Ratio {
	if !f.HasFunctions() {
		return nil
	}
	return &Ratio{Covered: f.CoveredFunctions, Total: f.TotalFunctions}
}

// Coverage is a parsed coverage report: files in order of first appearance.
type Coverage struct {
	Files        []FileCoverage `json:"files"`
	TotalLines   int            `json:"totalLines"`
	CoveredLines int            `json:"coveredLines"`

	index map[string]int
}

// NewCoverage builds a Coverage from files, computing the line totals.
// Files are expected to already have their counters derived.
func NewCoverage(files []FileCoverage) *Coverage {
	c := &Coverage{
		Files: files,
		index: make(map[string]int, len(files)),
	}
	for i, f := range files {
		c.index[f.Path] = i
		c.TotalLines += f.TotalLines
		c.CoveredLines += f.CoveredLines
	}
	return c
}

// File looks up a file by its normalized path.
func (c *Coverage) File(path string) (*FileCoverage, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.index[NormalizePath(path)]
	if !ok {
		return nil, false
	}
	return &c.Files[i], true
}

// Ratio returns the weighted line coverage over all files.
func (c *Coverage) Ratio() Ratio {
	return Ratio{Covered: c.CoveredLines, Total: c.TotalLines}
}

// Ratio holds exact covered/total counters. Percentages are derived from it
// and rounded only for presentation.
type Ratio struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// Percent returns the coverage percentage. An empty ratio is vacuously fully covered.
func (r Ratio) Percent() float64 {
	if r.Total == 0 {
		return 100
	}
	return float64(r.Covered) / float64(r.Total) * 100
}

// Add sums two ratios.
func (r Ratio) Add(o Ratio) Ratio {
	return Ratio{Covered: r.Covered + o.Covered, Total: r.Total + o.Total}
}

// Round rounds a percentage to two decimals, half to even.
func Round(p float64) float64 {
	return math.RoundToEven(p*100) / 100
}
