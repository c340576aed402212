package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/pathcover/check"
	"github.com/viant/pathcover/config"
	"github.com/viant/pathcover/data"
	"github.com/viant/pathcover/paths"
)

// callPointSkip skips callPoint and the recorder entry point
const callPointSkip = 2

var (
	ErrUnknownFile   = errors.New("unknown file")
	ErrUnknownMethod = errors.New("unknown method")
)

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithRegisterer registers recorder metrics with registerer
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(r *Recorder) {
		r.registerer = registerer
	}
}

// WithCallPoints attaches the calling test function to every recorded hit
func WithCallPoints(enabled bool) Option {
	return func(r *Recorder) {
		r.callPoints = enabled
	}
}

// Recorder exposes runtime entry points called by instrumented code.
// Failures are logged and counted, never returned or propagated to the caller.
type Recorder struct {
	coverage   *data.CoverageData
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *Metrics
	callPoints bool

	cfg       *config.Config
	closeOnce sync.Once
	result    *check.Result
	closeErr  error
}

// New creates a recorder for coverage
func New(coverage *data.CoverageData, options ...Option) *Recorder {
	if coverage == nil {
		coverage = data.NewCoverageData()
	}
	ret := &Recorder{coverage: coverage}
	for _, opt := range options {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	ret.metrics = NewMetrics(ret.registerer)
	if ret.callPoints {
		coverage.WithCallPoints = true
	}
	return ret
}

// Data returns recorded coverage
func (r *Recorder) Data() *data.CoverageData {
	return r.coverage
}

// Metrics returns recorder metrics
func (r *Recorder) Metrics() *Metrics {
	return r.metrics
}

// AddMethod registers method data of file at instrumentation time
func (r *Recorder) AddMethod(file string, method *paths.MethodCoverageData) {
	r.coverage.AddFile(file).AddMethod(method)
}

func (r *Recorder) callPoint() *data.CallPoint {
	if !r.callPoints {
		return nil
	}
	return data.NewCallPoint(callPointSkip)
}

func (r *Recorder) fail(operation string, err error, args ...any) {
	r.metrics.Errors.WithLabelValues(operation).Inc()
	r.logger.Warn("coverage recording failed", append([]any{"operation", operation, "error", err}, args...)...)
}

func (r *Recorder) recoverPanic(operation string) {
	if recovered := recover(); recovered != nil {
		r.fail(operation, fmt.Errorf("panic: %v", recovered))
	}
}

// IncrementLineCount records one execution of a line body
func (r *Recorder) IncrementLineCount(file string, line int) {
	defer r.recoverPanic("line")
	fileData := r.coverage.File(file)
	if fileData == nil {
		r.fail("line", ErrUnknownFile, "file", file)
		return
	}
	if err := fileData.IncrementLineCount(line, r.callPoint()); err != nil {
		r.fail("line", err, "file", file)
		return
	}
	r.metrics.Hits.WithLabelValues(hitLine).Inc()
}

// RegisterBranchExecution records one outcome of a conditional jump
func (r *Recorder) RegisterBranchExecution(file string, line, branch int, jumped bool) {
	defer r.recoverPanic("branch")
	fileData := r.coverage.File(file)
	if fileData == nil {
		r.fail("branch", ErrUnknownFile, "file", file)
		return
	}
	if err := fileData.RegisterBranchExecution(line, branch, jumped, r.callPoint()); err != nil {
		r.fail("branch", err, "file", file)
		return
	}
	r.metrics.Hits.WithLabelValues(hitBranch).Inc()
}

// Enter starts tracking one invocation of the method whose body starts at methodKey.
// It returns nil when the method has no path data; a nil invocation ignores every call.
func (r *Recorder) Enter(file string, methodKey int) *Invocation {
	defer r.recoverPanic("enter")
	fileData := r.coverage.File(file)
	if fileData == nil {
		r.fail("enter", ErrUnknownFile, "file", file)
		return nil
	}
	method := fileData.Method(methodKey)
	if method == nil {
		r.fail("enter", ErrUnknownMethod, "file", file, "method", methodKey)
		return nil
	}
	if !method.HasPaths() {
		return nil
	}
	return &Invocation{recorder: r, file: file, method: method, reachability: method.NewReachability()}
}

// Invocation tracks nodes reached by one in-flight method invocation; it must stay on the invoking goroutine
type Invocation struct {
	recorder     *Recorder
	file         string
	method       *paths.MethodCoverageData
	reachability *paths.Reachability
}

// Reach marks node as reached; node 0 starts over, an exit node credits the matching path
func (i *Invocation) Reach(nodeIndex int) {
	if i == nil {
		return
	}
	r := i.recorder
	defer r.recoverPanic("node")
	err := i.method.MarkNodeReached(i.reachability, nodeIndex)
	switch {
	case err == nil:
		r.metrics.Hits.WithLabelValues(hitNode).Inc()
	case errors.Is(err, paths.ErrNoPathMatched):
		r.metrics.Hits.WithLabelValues(hitNode).Inc()
		r.metrics.UnmatchedExits.Inc()
		r.logger.Debug("invocation not attributed to a path", "file", i.file, "method", i.method.Name, "node", nodeIndex)
	default:
		r.fail("node", err, "file", i.file, "method", i.method.Name)
	}
}
