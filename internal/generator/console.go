package generator

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/coverage-delta/internal/model"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	sameStyle  = lipgloss.NewStyle().Faint(true)
)

// Summary returns a one-line status for the terminal.
func Summary(cmp *model.Comparison) string {
	if cmp == nil || len(cmp.Files) == 0 {
		return labelStyle.Render("coverage") + " no data"
	}

	line := fmt.Sprintf("%s %s across %d files", labelStyle.Render("coverage"), percent(cmp.Lines.Head), len(cmp.Files))
	d, ok := cmp.Lines.Delta()
	if !ok {
		return line
	}

	style := sameStyle
	switch r := model.Round(d); {
	case r > 0:
		style = upStyle
	case r < 0:
		style = downStyle
	}
	return line + " " + style.Render(FormatDelta(d))
}
