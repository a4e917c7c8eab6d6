package parser

import (
	"github.com/chmouel/coverage-delta/internal/model"
)

// FilterByPaths keeps only the files whose path, relative to prefix, is in
// allowed. A nil allowed set means no filtering was requested and returns
// data unchanged; an empty set keeps nothing.
func FilterByPaths(data *model.Coverage, allowed map[string]struct{}, prefix string) *model.Coverage {
	if data == nil || allowed == nil {
		return data
	}

	keys := make(map[string]struct{}, len(allowed))
	for p := range allowed {
		keys[model.RelativePath(p, prefix)] = struct{}{}
	}

	filtered := make([]model.FileCoverage, 0, len(data.Files))
	for _, file := range data.Files {
		if _, ok := keys[model.RelativePath(file.Path, prefix)]; !ok {
			continue
		}
		filtered = append(filtered, file)
	}

	return model.NewCoverage(filtered)
}

// PathSet builds an allowed-path set from a list, skipping blanks.
func PathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p = model.NormalizePath(p); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}
