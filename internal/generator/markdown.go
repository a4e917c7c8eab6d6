package generator

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/chmouel/coverage-delta/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const (
	DefaultTitle  = "Coverage Report"
	NotApplicable = "n/a"
	Absent        = "absent"

	IndicatorUp   = "▲"
	IndicatorDown = "▼"
	IndicatorSame = "="
)

// columns decides which optional table columns are rendered.
type columns struct {
	branches  bool
	functions bool
	detail    bool
	hasBase   bool
}

// Render produces the markdown report. It never fails: an empty comparison
// still yields a titled report saying there is nothing to show.
func Render(cmp *model.Comparison, opts Options) string {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = DefaultTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)

	if cmp == nil || len(cmp.Files) == 0 {
		b.WriteString("_No coverage data to show._\n")
		return b.String()
	}

	cols := columns{
		branches:  !opts.HideBranchCoverage && cmp.HasBranches(),
		functions: cmp.HasFunctions(),
		detail:    opts.LineDetail,
		hasBase:   cmp.HasBase,
	}

	writeHeadline(&b, cmp, opts)
	b.WriteString("\n")
	writeFigure(&b, "Lines", cmp.Lines, cmp.HasBase)
	if cols.branches {
		writeFigure(&b, "Branches", cmp.Branches, cmp.HasBase)
	}
	if cols.functions {
		writeFigure(&b, "Functions", cmp.Functions, cmp.HasBase)
	}
	b.WriteString("\n")
	b.WriteString(renderTable(cmp, cols))
	return b.String()
}

func writeHeadline(b *strings.Builder, cmp *model.Comparison, opts Options) {
	head := percent(cmp.Lines.Head)
	d, ok := cmp.Lines.Delta()

	switch {
	case ok && opts.HeadRef != "" && opts.BaseRef != "":
		fmt.Fprintf(b, "Coverage after merging `%s` into `%s` will be **%s** %s\n",
			opts.HeadRef, opts.BaseRef, head, FormatDelta(d))
	case ok:
		fmt.Fprintf(b, "Total coverage: **%s** %s\n", head, FormatDelta(d))
	default:
		fmt.Fprintf(b, "Total coverage: **%s**\n", head)
	}
}

func writeFigure(b *strings.Builder, label string, f model.Figure, hasBase bool) {
	if f.Head == nil {
		fmt.Fprintf(b, "- %s: %s\n", label, NotApplicable)
		return
	}
	fmt.Fprintf(b, "- %s: %s (%s of %s)", label, percent(f.Head),
		humanize.Comma(int64(f.Head.Covered)), humanize.Comma(int64(f.Head.Total)))
	if d, ok := f.Delta(); ok {
		fmt.Fprintf(b, ", %s from %s", FormatDelta(d), percent(f.Base))
	} else if hasBase {
		fmt.Fprintf(b, ", base %s", NotApplicable)
	}
	b.WriteString("\n")
}

func renderTable(cmp *model.Comparison, cols columns) string {
	header := []string{"File", "Lines", "Δ Lines"}
	if cols.branches {
		header = append(header, "Branches", "Δ Branches")
	}
	if cols.functions {
		header = append(header, "Functions")
	}
	if cols.detail {
		if cols.hasBase {
			header = append(header, "Newly Covered", "Newly Uncovered")
		} else {
			header = append(header, "Uncovered Lines")
		}
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	for _, fd := range cmp.Files {
		table.Append(fileRow(fd, cols))
	}
	table.Render()
	return buf.String()
}

func fileRow(fd model.FileDiff, cols columns) []string {
	row := []string{escapeCell(fd.Path), headCell(fd, fd.Lines), deltaCell(fd.Lines)}
	if cols.branches {
		row = append(row, headCell(fd, fd.Branches), deltaCell(fd.Branches))
	}
	if cols.functions {
		row = append(row, headCell(fd, fd.Functions))
	}
	if cols.detail {
		if cols.hasBase {
			row = append(row, Ranges(fd.HitLines), Ranges(fd.MissedLines))
		} else {
			row = append(row, Ranges(fd.UncoveredLines))
		}
	}
	return row
}

func headCell(fd model.FileDiff, f model.Figure) string {
	if fd.Status == model.StatusRemoved {
		return Absent
	}
	if f.Head == nil {
		return NotApplicable
	}
	return percent(f.Head)
}

func deltaCell(f model.Figure) string {
	d, ok := f.Delta()
	if !ok {
		return NotApplicable
	}
	return FormatDelta(d)
}

// FormatDelta renders a signed percentage-point change with its direction.
func FormatDelta(d float64) string {
	r := model.Round(d)
	switch {
	case r > 0:
		return fmt.Sprintf("%s +%.2f%%", IndicatorUp, r)
	case r < 0:
		return fmt.Sprintf("%s %.2f%%", IndicatorDown, r)
	default:
		return IndicatorSame + " 0.00%"
	}
}

func percent(r *model.Ratio) string {
	if r == nil {
		return NotApplicable
	}
	return fmt.Sprintf("%.2f%%", model.Round(r.Percent()))
}

// Ranges collapses ascending line numbers into "1-3, 7" form.
func Ranges(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	var parts []string
	start, prev := lines[0], lines[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, strconv.Itoa(start)+"-"+strconv.Itoa(prev))
		}
	}
	for _, n := range lines[1:] {
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
