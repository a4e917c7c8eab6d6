package model

// FileStatus tells which snapshots reported a file.
type FileStatus int

const (
	StatusModified FileStatus = iota // present in head and base
	StatusAdded                      // head only
	StatusRemoved                    // base only
)

func (s FileStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusRemoved:
		return "removed"
	default:
		return "modified"
	}
}

// Figure pairs the head and base counters of one metric. A nil side means
// the snapshot did not report the metric.
type Figure struct {
	Head *Ratio `json:"head,omitempty"`
	Base *Ratio `json:"base,omitempty"`
}

// Present reports whether either side carries data.
func (f Figure) Present() bool {
	return f.Head != nil || f.Base != nil
}

// Delta returns head% - base%, computed from exact counts. ok is false when
// either side is absent.
func (f Figure) Delta() (delta float64, ok bool) {
	if f.Head == nil || f.Base == nil {
		return 0, false
	}
	return f.Head.Percent() - f.Base.Percent(), true
}

// FileDiff is the comparison of one file between head and base.
type FileDiff struct {
	Path      string     `json:"path"`
	Status    FileStatus `json:"status"`
	Lines     Figure     `json:"lines"`
	Branches  Figure     `json:"branches"`
	Functions Figure     `json:"functions"`

	// HitLines went from uncovered-or-absent to covered, MissedLines the
	// other way. Both are only set when a base snapshot exists.
	HitLines    []int `json:"hitLines,omitempty"`
	MissedLines []int `json:"missedLines,omitempty"`
	// UncoveredLines are head lines with zero hits.
	UncoveredLines []int `json:"uncoveredLines,omitempty"`
}

// Comparison is the result of diffing a head report against an optional base.
type Comparison struct {
	Files     []FileDiff `json:"files"`
	Lines     Figure     `json:"lines"`
	Branches  Figure     `json:"branches"`
	Functions Figure     `json:"functions"`
	HasBase   bool       `json:"hasBase"`
}

// HasBranches reports whether any file carries branch data on either side.
func (c *Comparison) HasBranches() bool {
	for _, f := range c.Files {
		if f.Branches.Present() {
			return true
		}
	}
	return false
}

// HasFunctions reports whether any file carries function data on either side.
func (c *Comparison) HasFunctions() bool {
	for _, f := range c.Files {
		if f.Functions.Present() {
			return true
		}
	}
	return false
}
