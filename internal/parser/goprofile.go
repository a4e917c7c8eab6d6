package parser

import (
	"strings"

	"github.com/chmouel/coverage-delta/internal/model"
	"golang.org/x/tools/cover"
)

// ParseGoProfile parses a `go test -coverprofile` profile. File names are
// import paths; strip the module path with a workspace prefix to compare them
// against repository paths.
func ParseGoProfile(text string) (*model.Coverage, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}

	profiles, err := cover.ParseProfilesFromReader(strings.NewReader(text))
	if err != nil {
		return nil, &MalformedReportError{Reason: "parsing coverage profile", Err: err}
	}

	byPath := make(map[string]*model.FileCoverage, len(profiles))
	for _, p := range profiles {
		path := model.NormalizePath(p.FileName)
		if path == "" {
			continue
		}
		fc, ok := byPath[path]
		if !ok {
			f := model.NewFileCoverage(path)
			fc = &f
			byPath[path] = fc
		}
		mergeBlocks(fc.Lines, p.Blocks)
	}

	// cover sorts profiles by name; report files in the order they first appear.
	files := make([]model.FileCoverage, 0, len(byPath))
	for _, path := range profileOrder(text) {
		fc, ok := byPath[path]
		if !ok {
			continue
		}
		fc.Recount()
		files = append(files, *fc)
		delete(byPath, path)
	}
	for _, p := range profiles {
		if fc, ok := byPath[model.NormalizePath(p.FileName)]; ok {
			fc.Recount()
			files = append(files, *fc)
			delete(byPath, fc.Path)
		}
	}

	return model.NewCoverage(files), nil
}

// profileOrder lists the normalized file names of a profile in order of first
// appearance. A block line is "<file>:<start>,<end> <stmts> <count>".
func profileOrder(text string) []string {
	var order []string
	seen := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "mode:") {
			continue
		}
		i := strings.LastIndexByte(line, ':')
		if i <= 0 {
			continue
		}
		path := model.NormalizePath(line[:i])
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		order = append(order, path)
	}
	return order
}

// mergeBlocks spreads block counts over the lines they span. A line covered
// by several blocks keeps the highest count.
func mergeBlocks(lines map[int]int, blocks []cover.ProfileBlock) {
	for _, b := range blocks {
		if b.NumStmt == 0 {
			continue
		}
		for line := b.StartLine; line <= b.EndLine; line++ {
			if line <= 0 {
				continue
			}
			if cur, ok := lines[line]; !ok || b.Count > cur {
				lines[line] = b.Count
			}
		}
	}
}
