package data

import (
	"errors"
	"fmt"
	"github.com/viant/pathcover/graph"
	"github.com/viant/pathcover/paths"
)

var (
	// ErrUnknownLine reports a hit on a line that was never registered
	ErrUnknownLine = fmt.Errorf("%w: unknown line", graph.ErrStructuralInconsistency)
	// ErrBranchIndexOutOfRange reports a hit on a branch the line does not have
	ErrBranchIndexOutOfRange = fmt.Errorf("%w: branch index out of range", graph.ErrStructuralInconsistency)
	// ErrMergeKeyMismatch reports previous run data discarded for one line, method or file
	ErrMergeKeyMismatch = paths.ErrMergeKeyMismatch
	// ErrUnknownMetric reports an unsupported metric name
	ErrUnknownMetric = errors.New("unknown metric")
)
