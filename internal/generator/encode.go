package generator

import (
	"encoding/json"
	"fmt"

	"github.com/chmouel/coverage-delta/internal/model"
	"gopkg.in/yaml.v3"
)

// figureView is the serialized form of a figure. Absent values are null.
type figureView struct {
	Head    *float64 `json:"head" yaml:"head"`
	Base    *float64 `json:"base" yaml:"base"`
	Delta   *float64 `json:"delta" yaml:"delta"`
	Covered int      `json:"covered" yaml:"covered"`
	Total   int      `json:"total" yaml:"total"`
}

type fileView struct {
	Path           string      `json:"path" yaml:"path"`
	Status         string      `json:"status" yaml:"status"`
	Lines          figureView  `json:"lines" yaml:"lines"`
	Branches       *figureView `json:"branches,omitempty" yaml:"branches,omitempty"`
	Functions      *figureView `json:"functions,omitempty" yaml:"functions,omitempty"`
	HitLines       []int       `json:"hitLines,omitempty" yaml:"hitLines,omitempty"`
	MissedLines    []int       `json:"missedLines,omitempty" yaml:"missedLines,omitempty"`
	UncoveredLines []int       `json:"uncoveredLines,omitempty" yaml:"uncoveredLines,omitempty"`
}

type reportView struct {
	Title     string      `json:"title" yaml:"title"`
	HasBase   bool        `json:"hasBase" yaml:"hasBase"`
	Lines     figureView  `json:"lines" yaml:"lines"`
	Branches  *figureView `json:"branches,omitempty" yaml:"branches,omitempty"`
	Functions *figureView `json:"functions,omitempty" yaml:"functions,omitempty"`
	Files     []fileView  `json:"files" yaml:"files"`
}

// Encode serializes cmp as JSON or YAML with percentages rounded to two decimals.
func Encode(cmp *model.Comparison, opts Options) ([]byte, error) {
	view := newReportView(cmp, opts)

	switch opts.Format {
	case FormatJSON:
		out, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling report: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		out, err := yaml.Marshal(view)
		if err != nil {
			return nil, fmt.Errorf("marshaling report: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("format %q is not a structured format", opts.Format)
	}
}

func newReportView(cmp *model.Comparison, opts Options) reportView {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	view := reportView{Title: title, Files: []fileView{}}
	if cmp == nil {
		return view
	}

	view.HasBase = cmp.HasBase
	view.Lines = newFigureView(cmp.Lines)
	if !opts.HideBranchCoverage {
		view.Branches = optionalFigureView(cmp.Branches)
	}
	view.Functions = optionalFigureView(cmp.Functions)

	for _, fd := range cmp.Files {
		fv := fileView{
			Path:           fd.Path,
			Status:         fd.Status.String(),
			Lines:          newFigureView(fd.Lines),
			Functions:      optionalFigureView(fd.Functions),
			HitLines:       fd.HitLines,
			MissedLines:    fd.MissedLines,
			UncoveredLines: fd.UncoveredLines,
		}
		if !opts.HideBranchCoverage {
			fv.Branches = optionalFigureView(fd.Branches)
		}
		view.Files = append(view.Files, fv)
	}
	return view
}

func optionalFigureView(f model.Figure) *figureView {
	if !f.Present() {
		return nil
	}
	v := newFigureView(f)
	return &v
}

func newFigureView(f model.Figure) figureView {
	var v figureView
	if f.Head != nil {
		v.Head = rounded(f.Head.Percent())
		v.Covered, v.Total = f.Head.Covered, f.Head.Total
	}
	if f.Base != nil {
		v.Base = rounded(f.Base.Percent())
	}
	if d, ok := f.Delta(); ok {
		v.Delta = rounded(d)
	}
	return v
}

func rounded(p float64) *float64 {
	r := model.Round(p)
	return &r
}
