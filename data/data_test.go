package data_test

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/pathcover/data"
	"github.com/viant/pathcover/graph"
	"github.com/viant/pathcover/paths"
	"strings"
	"testing"
)

// simpleIf builds: if (b) return 1; else return 2; with the body starting at line
func simpleIf(t *testing.T, line int) *paths.MethodCoverageData {
	builder := graph.NewBuilder()
	builder.NewPotentialBlock(line)
	builder.Jump(1, line, true)
	builder.Exit(line + 1)
	builder.JumpTarget(1, line+2)
	builder.Exit(line + 2)
	method := paths.NewMethodCoverageData("simpleIf")
	require.NoError(t, method.BuildPaths(line+2, builder))
	return method
}

func invoke(t *testing.T, method *paths.MethodCoverageData, nodes ...int) {
	r := method.NewReachability()
	for _, node := range nodes {
		require.NoError(t, method.MarkNodeReached(r, node))
	}
}

func TestLineCoverageData_CoveredSegments(t *testing.T) {
	tests := []struct {
		description string
		line        *data.LineCoverageData
		segments    int
		covered     int
	}{
		{
			description: "line never executed",
			line:        &data.LineCoverageData{},
			segments:    1,
			covered:     0,
		},
		{
			description: "line executed",
			line:        &data.LineCoverageData{ExecutionCount: 2},
			segments:    1,
			covered:     1,
		},
		{
			description: "one of two branches executed",
			line: &data.LineCoverageData{ExecutionCount: 1, Branches: []*data.BranchCoverageData{
				{JumpCount: 1}, {},
			}},
			segments: 3,
			covered:  2,
		},
		{
			description: "branch without counterpart",
			line: &data.LineCoverageData{ExecutionCount: 1, Branches: []*data.BranchCoverageData{
				{NoCounterpart: true},
			}},
			segments: 2,
			covered:  2,
		},
		{
			description: "branches of a line never executed",
			line: &data.LineCoverageData{Branches: []*data.BranchCoverageData{
				{JumpCount: 1},
			}},
			segments: 2,
			covered:  0,
		},
		{
			description: "unreachable line",
			line:        &data.LineCoverageData{Unreachable: true, Branches: []*data.BranchCoverageData{{}, {}}},
			segments:    3,
			covered:     3,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.segments, tc.line.Segments())
			assert.Equal(t, tc.covered, tc.line.CoveredSegments())
			assert.Equal(t, tc.segments == tc.covered, tc.line.IsCovered())
		})
	}
}

func TestBranchCoverageData_ExecutionCount(t *testing.T) {
	assert.Equal(t, 3, (&data.BranchCoverageData{JumpCount: 1, NoJumpCount: 3}).ExecutionCount())
	assert.Equal(t, 2, (&data.BranchCoverageData{JumpCount: 2}).ExecutionCount())
	assert.False(t, (&data.BranchCoverageData{}).IsCovered())
}

func TestFileCoverageData_Register(t *testing.T) {
	file := data.NewFileCoverageData()
	file.AddLine(3)
	branch := file.AddBranch(3, false)
	require.Equal(t, 0, branch)

	cp := &data.CallPoint{Function: "pkg.TestX", File: "x_test.go", Line: 10}
	require.NoError(t, file.IncrementLineCount(3, cp))
	require.NoError(t, file.RegisterBranchExecution(3, branch, true, nil))
	require.NoError(t, file.RegisterBranchExecution(3, branch, false, nil))

	line := file.Line(3)
	assert.Equal(t, 1, line.ExecutionCount)
	assert.Equal(t, []*data.CallPoint{cp}, line.CallPoints)
	assert.Equal(t, 1, line.Branch(0).JumpCount)
	assert.Equal(t, 1, line.Branch(0).NoJumpCount)

	err := file.IncrementLineCount(4, nil)
	assert.ErrorIs(t, err, data.ErrUnknownLine)
	assert.ErrorIs(t, err, graph.ErrStructuralInconsistency)

	err = file.RegisterBranchExecution(3, 1, true, nil)
	assert.ErrorIs(t, err, data.ErrBranchIndexOutOfRange)
	assert.ErrorIs(t, err, graph.ErrStructuralInconsistency)
}

func TestFileCoverageData_CodeCoveragePercentage(t *testing.T) {
	file := data.NewFileCoverageData()
	file.AddLine(1)
	file.AddLine(2)
	file.AddBranch(2, false)

	first := file.CodeCoveragePercentage()
	assert.Equal(t, 0, first)
	assert.Equal(t, first, file.CodeCoveragePercentage())
	assert.Equal(t, 3, file.TotalSegments())

	require.NoError(t, file.IncrementLineCount(1, nil))
	assert.Equal(t, 3, file.TotalSegments())
	assert.Equal(t, 33, file.CodeCoveragePercentage())
	assert.Equal(t, 33, file.CodeCoveragePercentage())

	require.NoError(t, file.IncrementLineCount(2, nil))
	assert.Equal(t, 67, file.CodeCoveragePercentage())

	file.AddBranch(1, false)
	assert.Equal(t, 4, file.TotalSegments())
	assert.Equal(t, 50, file.CodeCoveragePercentage())

	file.AddLine(1)
	assert.Equal(t, 4, file.TotalSegments())
}

func TestFileCoverageData_PathCoveragePercentage(t *testing.T) {
	file := data.NewFileCoverageData()
	method := simpleIf(t, 5)
	file.AddMethod(method)
	assert.Equal(t, 0, file.PathCoveragePercentage())

	invoke(t, method, 0, 1, 2)
	assert.Equal(t, 50, file.PathCoveragePercentage())
	assert.Equal(t, 2, file.TotalPaths())
	assert.Equal(t, 1, file.CoveredPaths())
	assert.Same(t, method, file.Method(5))
}

func TestFileCoverageData_NothingToCover(t *testing.T) {
	file := data.NewFileCoverageData()
	assert.Equal(t, -1, file.CodeCoveragePercentage())
	assert.Equal(t, -1, file.PathCoveragePercentage())

	abstract := paths.NewMethodCoverageData("abstract")
	require.NoError(t, abstract.BuildPaths(0, graph.NewBuilder()))
	file.AddMethod(abstract)
	assert.Equal(t, -1, file.CodeCoveragePercentage())
	assert.Equal(t, -1, file.PathCoveragePercentage())
}

func TestFileCoverageData_LineNumbers(t *testing.T) {
	file := data.NewFileCoverageData()
	for _, line := range []int{12, 3, 7, 1} {
		file.AddLine(line)
	}
	assert.Equal(t, []int{1, 3, 7, 12}, file.LineNumbers())
}

func TestFileCoverageData_MergeWithDataFromPreviousTestRun(t *testing.T) {
	t.Run("summation and union", func(t *testing.T) {
		previousCall := &data.CallPoint{Function: "pkg.TestOld"}
		currentCall := &data.CallPoint{Function: "pkg.TestNew"}

		current := data.NewFileCoverageData()
		current.AddLine(1)
		current.AddBranch(2, false)
		require.NoError(t, current.IncrementLineCount(1, currentCall))
		require.NoError(t, current.RegisterBranchExecution(2, 0, true, nil))
		currentMethod := simpleIf(t, 1)
		current.AddMethod(currentMethod)
		invoke(t, currentMethod, 0, 1, 2)

		previous := data.NewFileCoverageData()
		previous.AddLine(1)
		previous.AddBranch(2, false)
		previous.AddLine(9)
		require.NoError(t, previous.IncrementLineCount(1, previousCall))
		require.NoError(t, previous.IncrementLineCount(9, nil))
		require.NoError(t, previous.RegisterBranchExecution(2, 0, true, nil))
		require.NoError(t, previous.RegisterBranchExecution(2, 0, false, nil))
		previousMethod := simpleIf(t, 1)
		previous.AddMethod(previousMethod)
		invoke(t, previousMethod, 0, 1, 3)
		onlyPrevious := simpleIf(t, 20)
		previous.AddMethod(onlyPrevious)

		require.NoError(t, current.MergeWithDataFromPreviousTestRun(previous))
		assert.Equal(t, 2, current.Line(1).ExecutionCount)
		assert.Equal(t, []*data.CallPoint{previousCall, currentCall}, current.Line(1).CallPoints)
		assert.Equal(t, 2, current.Line(2).Branch(0).JumpCount)
		assert.Equal(t, 1, current.Line(2).Branch(0).NoJumpCount)
		assert.Equal(t, 1, current.Line(9).ExecutionCount)
		assert.Equal(t, []int{1, 2, 9}, current.LineNumbers())
		assert.Equal(t, 2, currentMethod.CoveredPaths())
		assert.Same(t, onlyPrevious, current.Method(20))
		assert.Equal(t, 4, current.TotalPaths())
	})

	t.Run("changed shape keeps current data", func(t *testing.T) {
		current := data.NewFileCoverageData()
		current.AddBranch(1, false)
		require.NoError(t, current.IncrementLineCount(1, nil))

		previous := data.NewFileCoverageData()
		previous.AddBranch(1, false)
		previous.AddBranch(1, false)
		require.NoError(t, previous.IncrementLineCount(1, nil))

		err := current.MergeWithDataFromPreviousTestRun(previous)
		assert.ErrorIs(t, err, data.ErrMergeKeyMismatch)
		assert.Equal(t, 1, current.Line(1).ExecutionCount)
		assert.Len(t, current.Line(1).Branches, 1)
	})

	t.Run("nothing to merge", func(t *testing.T) {
		current := data.NewFileCoverageData()
		current.AddLine(1)
		require.NoError(t, current.IncrementLineCount(1, nil))
		require.NoError(t, current.MergeWithDataFromPreviousTestRun(nil))
		require.NoError(t, current.MergeWithDataFromPreviousTestRun(current))
		assert.Equal(t, 1, current.Line(1).ExecutionCount)
	})
}

func TestFileCoverageData_MergeAcrossRuns(t *testing.T) {
	run := func(hits map[int]int) *data.FileCoverageData {
		file := data.NewFileCoverageData()
		for line, count := range hits {
			file.AddLine(line)
			for i := 0; i < count; i++ {
				require.NoError(t, file.IncrementLineCount(line, nil))
			}
		}
		return file
	}
	a := run(map[int]int{1: 1, 2: 2})
	b := run(map[int]int{2: 3, 3: 1})
	c := run(map[int]int{4: 5})

	accumulated := data.NewFileCoverageData()
	for _, previous := range []*data.FileCoverageData{a, b, c} {
		require.NoError(t, accumulated.MergeWithDataFromPreviousTestRun(previous))
	}
	expected := map[int]int{1: 1, 2: 5, 3: 1, 4: 5}
	actual := map[int]int{}
	for _, line := range accumulated.LineNumbers() {
		actual[line] = accumulated.Line(line).ExecutionCount
	}
	assert.Equal(t, expected, actual)
}

func TestCoverageData_Merge(t *testing.T) {
	current := data.NewCoverageData()
	same := current.AddFile("app/service.go")
	same.Fingerprint = 7
	same.AddLine(1)
	require.NoError(t, same.IncrementLineCount(1, nil))
	rebuilt := current.AddFile("app/handler.go")
	rebuilt.Fingerprint = 1
	rebuilt.AddLine(1)

	previous := data.NewCoverageData()
	previous.WithCallPoints = true
	previousSame := previous.AddFile("app/service.go")
	previousSame.Fingerprint = 7
	previousSame.AddLine(1)
	require.NoError(t, previousSame.IncrementLineCount(1, nil))
	previousRebuilt := previous.AddFile("app/handler.go")
	previousRebuilt.Fingerprint = 2
	previousRebuilt.AddLine(1)
	require.NoError(t, previousRebuilt.IncrementLineCount(1, nil))
	previous.AddFile("util/strings.go").AddLine(4)

	err := current.Merge(previous)
	assert.ErrorIs(t, err, data.ErrMergeKeyMismatch)
	assert.True(t, current.WithCallPoints)
	assert.Equal(t, []string{"app/handler.go", "app/service.go", "util/strings.go"}, current.FileNames())
	assert.Equal(t, 2, current.File("app/service.go").Line(1).ExecutionCount)
	assert.Equal(t, 0, current.File("app/handler.go").Line(1).ExecutionCount)
}

func TestCoverageData_Percentage(t *testing.T) {
	coverage := data.NewCoverageData()
	service := coverage.AddFile("app/service.go")
	service.AddLine(1)
	service.AddLine(2)
	require.NoError(t, service.IncrementLineCount(1, nil))
	require.NoError(t, service.IncrementLineCount(2, nil))
	handler := coverage.AddFile("app/handler.go")
	handler.AddLine(1)
	handler.AddLine(2)
	require.NoError(t, handler.IncrementLineCount(1, nil))
	util := coverage.AddFile("util/strings.go")
	util.AddLine(1)
	coverage.AddFile("doc/doc.go")

	tests := []struct {
		description string
		metric      data.Metric
		prefix      string
		expected    int
	}{
		{description: "all files", metric: data.MetricLine, prefix: "", expected: 60},
		{description: "prefix", metric: data.MetricLine, prefix: "app/", expected: 75},
		{description: "prefix without files", metric: data.MetricLine, prefix: "cmd/", expected: -1},
		{description: "no paths", metric: data.MetricPath, prefix: "", expected: -1},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, coverage.Percentage(tc.metric, tc.prefix))
		})
	}
	assert.Equal(t, 0, coverage.SmallestPerFilePercentage(data.MetricLine))
	assert.Equal(t, -1, coverage.SmallestPerFilePercentage(data.MetricPath))
}

func TestCoverageData_Restore(t *testing.T) {
	coverage := data.NewCoverageData()
	file := coverage.AddFile("app/service.go")
	file.AddLine(5)
	method := simpleIf(t, 5)
	file.AddMethod(method)

	encoded, err := json.Marshal(coverage)
	require.NoError(t, err)
	decoded := &data.CoverageData{}
	require.NoError(t, json.Unmarshal(encoded, decoded))
	require.NoError(t, decoded.Restore())

	restored := decoded.File("app/service.go")
	require.NotNil(t, restored)
	invoke(t, restored.Method(5), 0, 1, 3)
	assert.Equal(t, 50, restored.PathCoveragePercentage())
	assert.Equal(t, 0, restored.CodeCoveragePercentage())
}

func TestCoverageData_RestoreInvalidMethod(t *testing.T) {
	coverage := data.NewCoverageData()
	file := coverage.AddFile("app/service.go")
	file.AddLine(5)
	file.AddMethod(simpleIf(t, 5))
	file.AddMethod(simpleIf(t, 20))
	require.NoError(t, file.IncrementLineCount(5, nil))

	encoded, err := json.Marshal(coverage)
	require.NoError(t, err)
	decoded := &data.CoverageData{}
	require.NoError(t, json.Unmarshal(encoded, decoded))
	decoded.File("app/service.go").Method(20).Graph.Nodes[1].Next[1] = graph.NoNode

	err = decoded.Restore()
	assert.ErrorIs(t, err, graph.ErrStructuralInconsistency)
	restored := decoded.File("app/service.go")
	require.NotNil(t, restored)
	broken := restored.Method(20)
	assert.NotEmpty(t, broken.Unsupported)
	assert.False(t, broken.HasPaths())
	assert.Equal(t, 2, restored.TotalPaths())
	assert.Equal(t, 100, restored.CodeCoveragePercentage())
	invoke(t, restored.Method(5), 0, 1, 2)
	assert.Equal(t, 50, restored.PathCoveragePercentage())
}

func TestNewCallPoint(t *testing.T) {
	cp := data.NewCallPoint(0)
	require.NotNil(t, cp)
	assert.True(t, strings.HasSuffix(cp.Function, "TestNewCallPoint"), cp.Function)
	assert.True(t, strings.HasSuffix(cp.File, "data_test.go"))

	t.Run("inside subtest", func(t *testing.T) {
		cp := data.NewCallPoint(0)
		require.NotNil(t, cp)
		assert.Contains(t, cp.Function, "TestNewCallPoint")
	})
}

func TestParseMetric(t *testing.T) {
	metric, err := data.ParseMetric("Path")
	require.NoError(t, err)
	assert.Equal(t, data.MetricPath, metric)
	_, err = data.ParseMetric("data")
	assert.ErrorIs(t, err, data.ErrUnknownMetric)
	assert.Equal(t, -1, data.Percentage(0, 0))
	assert.Equal(t, 100, data.Percentage(3, 3))
}
