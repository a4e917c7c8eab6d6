package badge

import (
	"fmt"
	"os"
	"strings"
)

// Thresholds defines the color thresholds for badge generation.
type Thresholds struct {
	Red    float64 // Upper threshold for red (0-Red is red)
	Yellow float64 // Upper threshold for yellow (Red-Yellow is yellow, Yellow+ is green)
}

// DefaultThresholds returns the default color thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Red:    40,
		Yellow: 70,
	}
}

// Validate checks that the thresholds are ordered and within 0-100.
func (t Thresholds) Validate() error {
	if t.Red < 0 || t.Yellow > 100 || t.Red > t.Yellow {
		return fmt.Errorf("invalid badge thresholds: red=%.1f yellow=%.1f", t.Red, t.Yellow)
	}
	return nil
}

// Badge is a shields-style two-part badge.
type Badge struct {
	Label      string
	Coverage   float64
	Thresholds Thresholds
}

// WriteFile writes the SVG to outputPath, or to stdout when outputPath is "-".
func (b Badge) WriteFile(outputPath string) error {
	svg := b.SVG()

	if outputPath == "-" {
		if _, err := os.Stdout.WriteString(svg); err != nil {
			return fmt.Errorf("writing badge to stdout: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, []byte(svg), 0o644); err != nil { //nolint:gosec // G306: Badge should be readable
		return fmt.Errorf("writing badge file: %w", err)
	}
	return nil
}

// SVG renders the badge.
func (b Badge) SVG() string {
	coverage := clamp(b.Coverage)
	label := b.Label
	if label == "" {
		label = "coverage"
	}
	label = escape(label)
	value := fmt.Sprintf("%.1f%%", coverage)
	color := getColor(coverage, b.Thresholds)

	// roughly 7px per character at font-size 11, plus padding
	leftWidth := textWidth(label)
	rightWidth := textWidth(value)
	height := 20
	totalWidth := leftWidth + rightWidth

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" role="img" aria-label="%s: %s">
  <title>%s: %s</title>
  <g shape-rendering="crispEdges">
    <rect width="%d" height="%d" fill="#555"/>
    <rect x="%d" width="%d" height="%d" fill="%s"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="11">
    <text aria-hidden="true" x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%d" y="14">%s</text>
    <text aria-hidden="true" x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%d" y="14">%s</text>
  </g>
</svg>`,
		totalWidth, height, label, value,
		label, value,
		leftWidth, height,
		leftWidth, rightWidth, height, color,
		leftWidth/2, label,
		leftWidth/2, label,
		leftWidth+rightWidth/2, value,
		leftWidth+rightWidth/2, value,
	)
}

func clamp(coverage float64) float64 {
	if coverage < 0 {
		return 0
	}
	if coverage > 100 {
		return 100
	}
	return coverage
}

func textWidth(s string) int {
	return len([]rune(s))*7 + 10
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}

// getColor returns the SVG color code based on coverage percentage and thresholds.
func getColor(coverage float64, thresholds Thresholds) string {
	switch {
	case coverage >= thresholds.Yellow:
		return "#4c1" // Green
	case coverage > thresholds.Red:
		return "#dfb317" // Yellow/Amber
	default:
		return "#e05d44" // Red
	}
}
