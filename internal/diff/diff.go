// Package diff reconciles a head coverage report with an optional base report.
package diff

import (
	"github.com/chmouel/coverage-delta/internal/log"
	"github.com/chmouel/coverage-delta/internal/model"
)

// Options configures a comparison.
type Options struct {
	// Prefix is the workspace prefix stripped from paths before files are
	// matched between the two reports.
	Prefix string
}

// Compare diffs head against base. base may be nil, in which case every base
// figure and delta is absent. Files are returned in head order, followed by
// files only present in base.
func Compare(head, base *model.Coverage, opts Options) *model.Comparison {
	result := &model.Comparison{HasBase: base != nil}

	headFiles, headOrder := keyed(head, opts.Prefix)
	baseFiles, baseOrder := keyed(base, opts.Prefix)

	var totals accumulator
	for _, key := range headOrder {
		hf, bf := headFiles[key], baseFiles[key]
		result.Files = append(result.Files, compareFile(key, hf, bf, result.HasBase))
		totals.addHead(hf)
		if bf != nil {
			totals.addBase(bf)
		}
	}

	for _, key := range baseOrder {
		if _, ok := headFiles[key]; ok {
			continue
		}
		bf := baseFiles[key]
		result.Files = append(result.Files, compareFile(key, nil, bf, true))
		totals.addBase(bf)
	}

	result.Lines, result.Branches, result.Functions = totals.figures(result.HasBase)
	return result
}

// keyed indexes files by their path relative to prefix. Distinct paths that
// collapse onto one key, such as "/ws/a.js" and "a.js", are merged into the
// first file with later records winning.
func keyed(cov *model.Coverage, prefix string) (map[string]*model.FileCoverage, []string) {
	files := map[string]*model.FileCoverage{}
	if cov == nil {
		return files, nil
	}

	var order []string
	for i := range cov.Files {
		f := &cov.Files[i]
		key := model.RelativePath(f.Path, prefix)
		first, dup := files[key]
		if !dup {
			files[key] = f
			order = append(order, key)
			continue
		}
		log.Debugf("merging %s into %s: both resolve to %s", f.Path, first.Path, key)
		files[key] = mergeFiles(first, f)
	}
	return files, order
}

func mergeFiles(first, next *model.FileCoverage) *model.FileCoverage {
	out := model.NewFileCoverage(first.Path)
	for _, f := range []*model.FileCoverage{first, next} {
		for n, hits := range f.Lines {
			out.Lines[n] = hits
		}
		for k, b := range f.Branches {
			if out.Branches == nil {
				out.Branches = map[model.BranchKey]model.Branch{}
			}
			out.Branches[k] = b
		}
		for name, fn := range f.Functions {
			if out.Functions == nil {
				out.Functions = map[string]model.Function{}
			}
			out.Functions[name] = fn
		}
	}
	out.Recount()
	return &out
}

func compareFile(key string, head, base *model.FileCoverage, hasBase bool) model.FileDiff {
	fd := model.FileDiff{Path: key}

	switch {
	case head != nil && base != nil:
		fd.Status = model.StatusModified
	case head != nil:
		fd.Status = model.StatusAdded
	default:
		fd.Status = model.StatusRemoved
	}

	if head != nil {
		lines := head.LineRatio()
		fd.Lines.Head = &lines
		fd.Branches.Head = head.BranchRatio()
		fd.Functions.Head = head.FunctionRatio()
		for _, n := range head.LineNumbers() {
			if head.Lines[n] == 0 {
				fd.UncoveredLines = append(fd.UncoveredLines, n)
			}
		}
	}
	if base != nil {
		lines := base.LineRatio()
		fd.Lines.Base = &lines
		fd.Branches.Base = base.BranchRatio()
		fd.Functions.Base = base.FunctionRatio()
	}

	if hasBase && head != nil {
		fd.HitLines, fd.MissedLines = lineChanges(head, base)
	}
	return fd
}

// lineChanges lists head lines that became covered and head lines that
// became uncovered. A line missing from base counts as changed either way.
func lineChanges(head, base *model.FileCoverage) (hit, missed []int) {
	for _, n := range head.LineNumbers() {
		hits := head.Lines[n]
		baseHits, inBase := 0, false
		if base != nil {
			baseHits, inBase = base.Lines[n]
		}
		switch {
		case hits > 0 && (!inBase || baseHits == 0):
			hit = append(hit, n)
		case hits == 0 && (!inBase || baseHits > 0):
			missed = append(missed, n)
		}
	}
	return hit, missed
}

// accumulator sums exact counters so totals are weighted by file size and
// rounded only when presented.
type accumulator struct {
	headLines, baseLines         model.Ratio
	headBranches, baseBranches   *model.Ratio
	headFunctions, baseFunctions *model.Ratio
}

func (a *accumulator) addHead(f *model.FileCoverage) {
	a.headLines = a.headLines.Add(f.LineRatio())
	a.headBranches = addOptional(a.headBranches, f.BranchRatio())
	a.headFunctions = addOptional(a.headFunctions, f.FunctionRatio())
}

func (a *accumulator) addBase(f *model.FileCoverage) {
	a.baseLines = a.baseLines.Add(f.LineRatio())
	a.baseBranches = addOptional(a.baseBranches, f.BranchRatio())
	a.baseFunctions = addOptional(a.baseFunctions, f.FunctionRatio())
}

func (a *accumulator) figures(hasBase bool) (lines, branches, functions model.Figure) {
	headLines := a.headLines
	lines.Head = &headLines
	branches.Head = a.headBranches
	functions.Head = a.headFunctions
	if hasBase {
		baseLines := a.baseLines
		lines.Base = &baseLines
		branches.Base = a.baseBranches
		functions.Base = a.baseFunctions
	}
	return lines, branches, functions
}

func addOptional(sum, r *model.Ratio) *model.Ratio {
	if r == nil {
		return sum
	}
	if sum == nil {
		out := *r
		return &out
	}
	out := sum.Add(*r)
	return &out
}
