package data

import "fmt"

// BranchCoverageData holds execution counters of one conditional jump inside a line
type BranchCoverageData struct {
	JumpCount   int `json:"jumpCount" yaml:"jumpCount"`
	NoJumpCount int `json:"noJumpCount" yaml:"noJumpCount"`
	// NoCounterpart marks a jump without a real alternate target, covered statically
	NoCounterpart bool         `json:"noCounterpart,omitempty" yaml:"noCounterpart,omitempty"`
	CallPoints    []*CallPoint `json:"callPoints,omitempty" yaml:"callPoints,omitempty"`
}

// IsCovered returns true when either outcome was executed or the branch has no counterpart
func (b *BranchCoverageData) IsCovered() bool {
	return b.NoCounterpart || b.JumpCount > 0 || b.NoJumpCount > 0
}

// ExecutionCount returns the not-jumped count, or the jumped one when the jump never fell through
func (b *BranchCoverageData) ExecutionCount() int {
	if b.NoJumpCount > 0 {
		return b.NoJumpCount
	}
	return b.JumpCount
}

func (b *BranchCoverageData) registerExecution(jumped bool, cp *CallPoint) {
	if jumped {
		b.JumpCount++
	} else {
		b.NoJumpCount++
	}
	if cp != nil {
		b.CallPoints = append(b.CallPoints, cp)
	}
}

func (b *BranchCoverageData) addCountsFromPreviousTestRun(previous *BranchCoverageData) {
	b.JumpCount += previous.JumpCount
	b.NoJumpCount += previous.NoJumpCount
	b.CallPoints = prependCallPoints(previous.CallPoints, b.CallPoints)
}

// LineCoverageData holds coverage of one executable source line
type LineCoverageData struct {
	ExecutionCount int `json:"executionCount" yaml:"executionCount"`
	// Unreachable lines count as fully covered
	Unreachable bool                  `json:"unreachable,omitempty" yaml:"unreachable,omitempty"`
	Branches    []*BranchCoverageData `json:"branches,omitempty" yaml:"branches,omitempty"`
	CallPoints  []*CallPoint          `json:"callPoints,omitempty" yaml:"callPoints,omitempty"`
}

// addBranch adds a conditional jump and returns its index
func (l *LineCoverageData) addBranch(noCounterpart bool) int {
	l.Branches = append(l.Branches, &BranchCoverageData{NoCounterpart: noCounterpart})
	return len(l.Branches) - 1
}

// Branch returns branch at index or nil
func (l *LineCoverageData) Branch(index int) *BranchCoverageData {
	if index < 0 || index >= len(l.Branches) {
		return nil
	}
	return l.Branches[index]
}

// HasBranches returns true when the line contains conditional jumps
func (l *LineCoverageData) HasBranches() bool {
	return len(l.Branches) > 0
}

// Segments returns the line body plus one segment per branch
func (l *LineCoverageData) Segments() int {
	return 1 + len(l.Branches)
}

// CoveredSegments returns covered segments; a line whose body never ran covers none
func (l *LineCoverageData) CoveredSegments() int {
	if l.Unreachable {
		return l.Segments()
	}
	if l.ExecutionCount == 0 {
		return 0
	}
	covered := 1
	for _, branch := range l.Branches {
		if branch.IsCovered() {
			covered++
		}
	}
	return covered
}

// IsCovered returns true when every segment is covered
func (l *LineCoverageData) IsCovered() bool {
	return l.CoveredSegments() == l.Segments()
}

func (l *LineCoverageData) registerExecution(cp *CallPoint) {
	l.ExecutionCount++
	if cp != nil {
		l.CallPoints = append(l.CallPoints, cp)
	}
}

func (l *LineCoverageData) registerBranchExecution(index int, jumped bool, cp *CallPoint) error {
	branch := l.Branch(index)
	if branch == nil {
		return fmt.Errorf("%w: %d of %d", ErrBranchIndexOutOfRange, index, len(l.Branches))
	}
	branch.registerExecution(jumped, cp)
	return nil
}

func (l *LineCoverageData) addCountsFromPreviousTestRun(previous *LineCoverageData) error {
	if len(l.Branches) != len(previous.Branches) {
		return fmt.Errorf("%w: %d branches, previous run %d", ErrMergeKeyMismatch, len(l.Branches), len(previous.Branches))
	}
	l.ExecutionCount += previous.ExecutionCount
	l.CallPoints = prependCallPoints(previous.CallPoints, l.CallPoints)
	for i, branch := range l.Branches {
		branch.addCountsFromPreviousTestRun(previous.Branches[i])
	}
	return nil
}
