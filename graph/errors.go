package graph

import "errors"

var (
	// ErrStructuralInconsistency reports malformed event streams or graphs
	ErrStructuralInconsistency = errors.New("structural inconsistency")
	// ErrUnsupportedConstruct reports control constructs the graph model does not represent (loops, exception handlers, monitor cleanup)
	ErrUnsupportedConstruct = errors.New("unsupported construct")
)
