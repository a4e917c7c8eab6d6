package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/chmouel/coverage-delta/internal/model"
)

// MalformedReportError is returned when a report cannot be read as a stream
// of coverage records at all.
type MalformedReportError struct {
	Input  string // "head" or "base", set by the caller that knows which one failed
	Reason string
	Err    error
}

func (e *MalformedReportError) Error() string {
	msg := "malformed coverage report"
	if e.Input != "" {
		msg = fmt.Sprintf("malformed %s coverage report", e.Input)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedReportError) Unwrap() error {
	return e.Err
}

// Parse detects the report format and parses text into a coverage model.
// Go cover profiles start with a "mode:" line; anything else is read as LCOV.
func Parse(text string) (*model.Coverage, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}
	if isGoProfile(text) {
		return ParseGoProfile(text)
	}
	return ParseLCOV(text)
}

func checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &MalformedReportError{Reason: "empty input"}
	}
	if strings.IndexByte(text, 0) >= 0 || !utf8.ValidString(text) {
		return &MalformedReportError{Reason: "binary input"}
	}
	return nil
}

func isGoProfile(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, "mode:")
	}
	return false
}

// DetectModulePath returns the module path declared in srcRoot/go.mod. Go
// cover profiles name files by import path, so the module path is the
// natural workspace prefix for them.
func DetectModulePath(srcRoot string) (string, error) {
	goModPath := filepath.Join(srcRoot, "go.mod")
	f, err := os.Open(goModPath) //nolint:gosec // path is from srcRoot argument
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if modPath, found := strings.CutPrefix(line, "module "); found {
			return strings.Trim(strings.TrimSpace(modPath), `"`), nil
		}
	}
	return "", fmt.Errorf("module directive not found in go.mod")
}
