package generator

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/chmouel/coverage-delta/internal/model"
)

// Format selects the report encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat validates a format name. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "md", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown, json or yaml)", s)
	}
}

// Options configures report generation.
type Options struct {
	Title              string
	HideBranchCoverage bool
	LineDetail         bool   // list changed (or uncovered) line ranges per file
	HeadRef            string // optional, names the head revision in the summary
	BaseRef            string
	Format             Format
}

// Generate renders cmp in the requested format.
func Generate(cmp *model.Comparison, opts Options) ([]byte, error) {
	switch opts.Format {
	case "", FormatMarkdown:
		return []byte(Render(cmp, opts)), nil
	case FormatJSON, FormatYAML:
		return Encode(cmp, opts)
	default:
		return nil, fmt.Errorf("unknown format %q", opts.Format)
	}
}

// Truncate cuts s to at most maxChars characters. maxChars <= 0 disables the limit.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}

// Write sends the report to outputPath, or to stdout when outputPath is
// empty or "-".
func Write(body []byte, outputPath string, stdout io.Writer) error {
	if outputPath == "" || outputPath == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		if _, err := stdout.Write(body); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, body, 0o644); err != nil { //nolint:gosec // G306: report should be readable
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
