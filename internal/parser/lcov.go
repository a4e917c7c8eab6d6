package parser

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/chmouel/coverage-delta/internal/model"
)

const maxRecordLength = 16 * 1024 * 1024

// recordKind is the closed set of LCOV directives the parser understands.
type recordKind int

const (
	recordUnknown recordKind = iota
	recordTestName
	recordSourceFile
	recordFunction
	recordFunctionHits
	recordLine
	recordBranch
	recordSummary
	recordEndOfRecord
)

// record is one decoded tracefile line. Which fields are meaningful depends on kind.
type record struct {
	kind   recordKind
	path   string
	name   string
	line   int
	hits   int
	key    model.BranchKey
	branch model.Branch
}

// ParseLCOV parses an LCOV tracefile.
func ParseLCOV(text string) (*model.Coverage, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}

	p := &lcovParser{index: map[string]int{}, current: -1}
	shaped := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordLength)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isRecordShaped(line) {
			shaped = true
		}
		p.apply(decodeRecord(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, &MalformedReportError{Reason: "reading records", Err: err}
	}
	if !shaped {
		return nil, &MalformedReportError{Reason: "no coverage records found"}
	}

	// A block left open at end of input still counts.
	p.commit()
	return model.NewCoverage(p.files), nil
}

type lcovParser struct {
	files   []model.FileCoverage
	index   map[string]int
	current int
}

func (p *lcovParser) apply(r record) {
	if r.kind == recordSourceFile {
		p.commit()
		p.open(r.path)
		return
	}
	if r.kind == recordEndOfRecord {
		p.commit()
		return
	}
	if p.current < 0 {
		return
	}

	fc := &p.files[p.current]
	switch r.kind {
	case recordLine:
		fc.Lines[r.line] = r.hits
	case recordBranch:
		if fc.Branches == nil {
			fc.Branches = map[model.BranchKey]model.Branch{}
		}
		fc.Branches[r.key] = r.branch
	case recordFunction:
		if fc.Functions == nil {
			fc.Functions = map[string]model.Function{}
		}
		fn := fc.Functions[r.name]
		fn.Line = r.line
		fc.Functions[r.name] = fn
	case recordFunctionHits:
		if fc.Functions == nil {
			fc.Functions = map[string]model.Function{}
		}
		fn := fc.Functions[r.name]
		fn.Hits = r.hits
		fc.Functions[r.name] = fn
	}
}

func (p *lcovParser) open(path string) {
	fc := model.NewFileCoverage(path)
	if fc.Path == "" {
		return
	}
	// A path seen before merges into its first record.
	if i, ok := p.index[fc.Path]; ok {
		p.current = i
		return
	}
	p.index[fc.Path] = len(p.files)
	p.current = len(p.files)
	p.files = append(p.files, fc)
}

func (p *lcovParser) commit() {
	if p.current < 0 {
		return
	}
	p.files[p.current].Recount()
	p.current = -1
}

func isRecordShaped(line string) bool {
	if line == "end_of_record" {
		return true
	}
	tag, _, found := strings.Cut(line, ":")
	if !found || tag == "" {
		return false
	}
	for _, r := range tag {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func decodeRecord(line string) record {
	if line == "end_of_record" {
		return record{kind: recordEndOfRecord}
	}
	tag, value, found := strings.Cut(line, ":")
	if !found {
		return record{kind: recordUnknown}
	}

	switch tag {
	case "TN":
		return record{kind: recordTestName, name: value}
	case "SF":
		if strings.TrimSpace(value) == "" {
			return record{kind: recordUnknown}
		}
		return record{kind: recordSourceFile, path: value}
	case "DA":
		return decodeLine(value)
	case "BRDA":
		return decodeBranch(value)
	case "FN":
		return decodeFunction(value)
	case "FNDA":
		hits, name, ok := strings.Cut(value, ",")
		n, valid := count(hits)
		if !ok || !valid || name == "" {
			return record{kind: recordUnknown}
		}
		return record{kind: recordFunctionHits, name: name, hits: n}
	case "LF", "LH", "BRF", "BRH", "FNF", "FNH":
		return record{kind: recordSummary}
	default:
		return record{kind: recordUnknown}
	}
}

// decodeLine handles DA:<line>,<hits>[,<checksum>].
func decodeLine(value string) record {
	parts := strings.Split(value, ",")
	if len(parts) < 2 {
		return record{kind: recordUnknown}
	}
	line, ok := lineNumber(parts[0])
	if !ok {
		return record{kind: recordUnknown}
	}
	hits, ok := count(parts[1])
	if !ok {
		return record{kind: recordUnknown}
	}
	return record{kind: recordLine, line: line, hits: hits}
}

// decodeBranch handles BRDA:<line>,[e]<block>,<branch>,<taken|->.
func decodeBranch(value string) record {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return record{kind: recordUnknown}
	}
	line, ok := lineNumber(parts[0])
	if !ok {
		return record{kind: recordUnknown}
	}
	block, ok := count(strings.TrimPrefix(strings.TrimSpace(parts[1]), "e"))
	if !ok {
		return record{kind: recordUnknown}
	}
	branch, ok := count(parts[2])
	if !ok {
		return record{kind: recordUnknown}
	}

	r := record{
		kind: recordBranch,
		key:  model.BranchKey{Line: line, Block: block, Branch: branch},
	}
	if taken := strings.TrimSpace(parts[3]); taken != "-" {
		hits, ok := count(taken)
		if !ok {
			return record{kind: recordUnknown}
		}
		r.branch = model.Branch{Hits: hits, Instrumented: true}
	}
	return r
}

// decodeFunction handles FN:<line>,<name> and FN:<start>,<end>,<name>.
func decodeFunction(value string) record {
	start, rest, ok := strings.Cut(value, ",")
	if !ok {
		return record{kind: recordUnknown}
	}
	line, ok := lineNumber(start)
	if !ok {
		return record{kind: recordUnknown}
	}
	if end, name, found := strings.Cut(rest, ","); found {
		if _, numeric := count(end); numeric {
			rest = name
		}
	}
	if rest == "" {
		return record{kind: recordUnknown}
	}
	return record{kind: recordFunction, line: line, name: rest}
}

func lineNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func count(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
