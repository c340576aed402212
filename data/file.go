package data

import (
	"errors"
	"fmt"
	"github.com/viant/pathcover/paths"
	"sort"
)

// FileCoverageData holds line, branch and path coverage of one source file
type FileCoverageData struct {
	Lines   map[int]*LineCoverageData          `json:"lines" yaml:"lines"`
	Methods map[int]*paths.MethodCoverageData `json:"methods,omitempty" yaml:"methods,omitempty"`
	// Fingerprint identifies the compiled unit; data of a different build is not merged
	Fingerprint uint64 `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`

	totalSegments int
	totalPaths    int
	counted       bool
}

// NewFileCoverageData creates file data
func NewFileCoverageData() *FileCoverageData {
	return &FileCoverageData{
		Lines:   map[int]*LineCoverageData{},
		Methods: map[int]*paths.MethodCoverageData{},
	}
}

func (f *FileCoverageData) init() {
	if f.Lines == nil {
		f.Lines = map[int]*LineCoverageData{}
	}
	if f.Methods == nil {
		f.Methods = map[int]*paths.MethodCoverageData{}
	}
}

// invalidate drops cached totals after a structural change
func (f *FileCoverageData) invalidate() {
	f.counted = false
	f.totalSegments = 0
	f.totalPaths = 0
}

// AddLine returns line data, registering the line if needed
func (f *FileCoverageData) AddLine(line int) *LineCoverageData {
	f.init()
	if data, ok := f.Lines[line]; ok {
		return data
	}
	data := &LineCoverageData{}
	f.Lines[line] = data
	f.invalidate()
	return data
}

// AddBranch adds a conditional jump to line and returns its index within the line
func (f *FileCoverageData) AddBranch(line int, noCounterpart bool) int {
	f.invalidate()
	return f.AddLine(line).addBranch(noCounterpart)
}

// AddMethod registers method data by its first body line
func (f *FileCoverageData) AddMethod(method *paths.MethodCoverageData) {
	f.init()
	f.Methods[method.FirstLine] = method
	f.invalidate()
}

// Line returns line data or nil
func (f *FileCoverageData) Line(line int) *LineCoverageData {
	return f.Lines[line]
}

// Method returns method data by its first body line or nil
func (f *FileCoverageData) Method(firstLine int) *paths.MethodCoverageData {
	return f.Methods[firstLine]
}

// LineNumbers returns registered lines in ascending order
func (f *FileCoverageData) LineNumbers() []int {
	result := make([]int, 0, len(f.Lines))
	for line := range f.Lines {
		result = append(result, line)
	}
	sort.Ints(result)
	return result
}

// MethodLines returns method first lines in ascending order
func (f *FileCoverageData) MethodLines() []int {
	result := make([]int, 0, len(f.Methods))
	for line := range f.Methods {
		result = append(result, line)
	}
	sort.Ints(result)
	return result
}

// IncrementLineCount records one execution of line body
func (f *FileCoverageData) IncrementLineCount(line int, cp *CallPoint) error {
	data, ok := f.Lines[line]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLine, line)
	}
	data.registerExecution(cp)
	return nil
}

// RegisterBranchExecution records one outcome of a conditional jump
func (f *FileCoverageData) RegisterBranchExecution(line, branch int, jumped bool, cp *CallPoint) error {
	data, ok := f.Lines[line]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLine, line)
	}
	if err := data.registerBranchExecution(branch, jumped, cp); err != nil {
		return fmt.Errorf("line %d: %w", line, err)
	}
	return nil
}

func (f *FileCoverageData) count() {
	if f.counted {
		return
	}
	f.totalSegments, f.totalPaths = 0, 0
	for _, line := range f.Lines {
		f.totalSegments += line.Segments()
	}
	for _, method := range f.Methods {
		f.totalPaths += method.TotalPaths()
	}
	f.counted = true
}

// TotalSegments returns line bodies plus branches
func (f *FileCoverageData) TotalSegments() int {
	f.count()
	return f.totalSegments
}

// CoveredSegments returns covered line bodies and branches
func (f *FileCoverageData) CoveredSegments() int {
	covered := 0
	for _, line := range f.Lines {
		covered += line.CoveredSegments()
	}
	return covered
}

// TotalPaths returns number of paths of all methods
func (f *FileCoverageData) TotalPaths() int {
	f.count()
	return f.totalPaths
}

// CoveredPaths returns number of executed paths of all methods
func (f *FileCoverageData) CoveredPaths() int {
	covered := 0
	for _, method := range f.Methods {
		covered += method.CoveredPaths()
	}
	return covered
}

// CodeCoveragePercentage returns percentage of covered segments or -1 when the file has no executable line
func (f *FileCoverageData) CodeCoveragePercentage() int {
	if len(f.Lines) == 0 {
		return -1
	}
	return Percentage(f.CoveredSegments(), f.TotalSegments())
}

// PathCoveragePercentage returns percentage of covered paths or -1 when no method has paths
func (f *FileCoverageData) PathCoveragePercentage() int {
	if len(f.Methods) == 0 {
		return -1
	}
	return Percentage(f.CoveredPaths(), f.TotalPaths())
}

// Counts returns covered and total units of metric
func (f *FileCoverageData) Counts(metric Metric) Counts {
	if metric == MetricPath {
		return Counts{Covered: f.CoveredPaths(), Total: f.TotalPaths()}
	}
	return Counts{Covered: f.CoveredSegments(), Total: f.TotalSegments()}
}

// Percentage returns file percentage of metric
func (f *FileCoverageData) Percentage(metric Metric) int {
	if metric == MetricPath {
		return f.PathCoveragePercentage()
	}
	return f.CodeCoveragePercentage()
}

// MergeWithDataFromPreviousTestRun adds counters of lines and methods present in both runs and copies the ones
// present only in previous. Entries whose shape changed keep the current data; their errors are joined.
func (f *FileCoverageData) MergeWithDataFromPreviousTestRun(previous *FileCoverageData) error {
	if previous == nil || previous == f {
		return nil
	}
	f.init()
	var errs []error
	for line, data := range f.Lines {
		previousData, ok := previous.Lines[line]
		if !ok {
			continue
		}
		if err := data.addCountsFromPreviousTestRun(previousData); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
		}
	}
	for line, previousData := range previous.Lines {
		if _, ok := f.Lines[line]; !ok {
			f.Lines[line] = previousData
		}
	}
	for firstLine, method := range f.Methods {
		previousMethod, ok := previous.Methods[firstLine]
		if !ok {
			continue
		}
		if err := method.AddCountsFromPreviousTestRun(previousMethod); err != nil {
			errs = append(errs, err)
		}
	}
	for firstLine, previousMethod := range previous.Methods {
		if _, ok := f.Methods[firstLine]; !ok {
			f.Methods[firstLine] = previousMethod
		}
	}
	f.invalidate()
	return errors.Join(errs...)
}

// Restore prepares decoded data for use
func (f *FileCoverageData) Restore() error {
	f.init()
	f.invalidate()
	var errs []error
	for firstLine, method := range f.Methods {
		if method == nil {
			delete(f.Methods, firstLine)
			continue
		}
		if err := method.Restore(); err != nil {
			errs = append(errs, err)
		}
	}
	for line, data := range f.Lines {
		if data == nil {
			f.Lines[line] = &LineCoverageData{}
		}
	}
	return errors.Join(errs...)
}
