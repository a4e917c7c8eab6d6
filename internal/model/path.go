package model

import (
	"path"
	"strings"
)

// NormalizePath converts a report path to the platform-independent form used
// as file identity: forward slashes, no "./" or duplicate separators.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean(p)
}

// RelativePath normalizes p and strips the workspace prefix from it. Paths
// outside the prefix are returned normalized but otherwise untouched.
func RelativePath(p, prefix string) string {
	p = NormalizePath(p)
	if prefix == "" {
		return p
	}
	prefix = strings.TrimSuffix(NormalizePath(prefix), "/")
	if rest, ok := strings.CutPrefix(p, prefix+"/"); ok {
		return rest
	}
	return p
}
