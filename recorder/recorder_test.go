package recorder_test

import (
	"bytes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/pathcover/data"
	"github.com/viant/pathcover/graph"
	"github.com/viant/pathcover/paths"
	"github.com/viant/pathcover/recorder"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

const sourceFile = "app/decision.go"

// instrument registers: func simpleIf(b bool) int { if b { return 1 }; return 2 } with body lines 1..3
func instrument(t *testing.T, options ...recorder.Option) *recorder.Recorder {
	builder := graph.NewBuilder()
	builder.NewPotentialBlock(1)
	builder.RegularInstruction(1)
	builder.Jump(1, 1, true)
	builder.NewPotentialBlock(2)
	builder.Exit(2)
	builder.JumpTarget(1, 3)
	builder.NewPotentialBlock(3)
	builder.Exit(3)
	method := paths.NewMethodCoverageData("simpleIf")
	require.NoError(t, method.BuildPaths(3, builder))

	r := recorder.New(data.NewCoverageData(), options...)
	file := r.Data().AddFile(sourceFile)
	file.AddLine(1)
	file.AddBranch(1, false)
	file.AddLine(2)
	file.AddLine(3)
	r.AddMethod(sourceFile, method)
	return r
}

// simpleIf is what the rewritten method body calls into
func simpleIf(r *recorder.Recorder, b bool) int {
	invocation := r.Enter(sourceFile, 1)
	invocation.Reach(0)
	r.IncrementLineCount(sourceFile, 1)
	invocation.Reach(1)
	r.RegisterBranchExecution(sourceFile, 1, 0, !b)
	if b {
		r.IncrementLineCount(sourceFile, 2)
		invocation.Reach(2)
		return 1
	}
	r.IncrementLineCount(sourceFile, 3)
	invocation.Reach(3)
	return 2
}

func TestRecorder_SimpleIf(t *testing.T) {
	r := instrument(t)
	assert.Equal(t, 1, simpleIf(r, true))
	assert.Equal(t, 2, simpleIf(r, false))

	file := r.Data().File(sourceFile)
	method := file.Method(1)
	assert.Equal(t, 2, method.TotalPaths())
	assert.Equal(t, 2, method.CoveredPaths())
	assert.Equal(t, 2, method.ExecutionCount())
	for _, path := range method.Paths {
		assert.Equal(t, 3, path.Len())
	}
	assert.Equal(t, 100, file.CodeCoveragePercentage())
	assert.Equal(t, 100, file.PathCoveragePercentage())

	metrics := r.Metrics()
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.Hits.WithLabelValues("line")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Hits.WithLabelValues("branch")))
	assert.Equal(t, float64(6), testutil.ToFloat64(metrics.Hits.WithLabelValues("node")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.UnmatchedExits))
}

func TestRecorder_SequentialGoroutines(t *testing.T) {
	r := instrument(t)
	const invocations = 16
	for i := 0; i < invocations; i++ {
		waitGroup := sync.WaitGroup{}
		waitGroup.Add(1)
		go func(b bool) {
			defer waitGroup.Done()
			simpleIf(r, b)
		}(i%3 == 0)
		waitGroup.Wait()
	}
	assert.Equal(t, invocations, r.Data().File(sourceFile).Method(1).ExecutionCount())
}

func TestRecorder_CallPoints(t *testing.T) {
	r := instrument(t, recorder.WithCallPoints(true))
	simpleIf(r, true)
	assert.True(t, r.Data().WithCallPoints)

	line := r.Data().File(sourceFile).Line(1)
	require.Len(t, line.CallPoints, 1)
	assert.True(t, strings.HasSuffix(line.CallPoints[0].Function, "TestRecorder_CallPoints"), line.CallPoints[0].Function)
	require.Len(t, line.Branch(0).CallPoints, 1)

	plain := instrument(t)
	simpleIf(plain, true)
	assert.Empty(t, plain.Data().File(sourceFile).Line(1).CallPoints)
}

func TestRecorder_Failures(t *testing.T) {
	logs := new(bytes.Buffer)
	registry := prometheus.NewRegistry()
	r := instrument(t,
		recorder.WithLogger(slog.New(slog.NewTextHandler(logs, nil))),
		recorder.WithRegisterer(registry))

	r.IncrementLineCount("missing.go", 1)
	r.IncrementLineCount(sourceFile, 42)
	r.RegisterBranchExecution(sourceFile, 1, 5, true)
	assert.Nil(t, r.Enter(sourceFile, 7))
	assert.Nil(t, r.Enter("missing.go", 1))

	var invocation *recorder.Invocation
	assert.NotPanics(t, func() { invocation.Reach(0) })

	valid := r.Enter(sourceFile, 1)
	valid.Reach(0)
	valid.Reach(9)

	errorsTotal := r.Metrics().Errors
	assert.Equal(t, float64(2), testutil.ToFloat64(errorsTotal.WithLabelValues("line")))
	assert.Equal(t, float64(1), testutil.ToFloat64(errorsTotal.WithLabelValues("branch")))
	assert.Equal(t, float64(2), testutil.ToFloat64(errorsTotal.WithLabelValues("enter")))
	assert.Equal(t, float64(1), testutil.ToFloat64(errorsTotal.WithLabelValues("node")))
	assert.Contains(t, logs.String(), "coverage recording failed")

	count, err := testutil.GatherAndCount(registry, "pathcover_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRecorder_UnmatchedExit(t *testing.T) {
	r := instrument(t)
	invocation := r.Enter(sourceFile, 1)
	invocation.Reach(0)
	invocation.Reach(3)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.Metrics().UnmatchedExits))
	assert.Zero(t, r.Data().File(sourceFile).Method(1).ExecutionCount())
}

func TestRecorder_RecoversPanic(t *testing.T) {
	r := instrument(t)
	method := r.Data().File(sourceFile).Method(1)
	method.Paths[0].Nodes = []int{0, 1, 99}

	invocation := r.Enter(sourceFile, 1)
	assert.NotPanics(t, func() {
		invocation.Reach(0)
		invocation.Reach(1)
		invocation.Reach(2)
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(r.Metrics().Errors.WithLabelValues("node")))
}

func TestRecorder_AbstractMethod(t *testing.T) {
	r := instrument(t)
	abstract := paths.NewMethodCoverageData("abstract")
	abstract.FirstLine = 10
	r.AddMethod(sourceFile, abstract)
	assert.Nil(t, r.Enter(sourceFile, 10))
	assert.Equal(t, float64(0), testutil.ToFloat64(r.Metrics().Errors.WithLabelValues("enter")))
}
