package paths

import (
	"errors"
	"fmt"
	"math"
	"github.com/viant/pathcover/graph"
)

var (
	// ErrNoPathMatched reports an exit reached with a node set matching no path; the invocation is not attributed
	ErrNoPathMatched = errors.New("no path matched reached nodes")
	// ErrNodeIndexOutOfRange reports a node index outside of the method graph
	ErrNodeIndexOutOfRange = errors.New("node index out of range")
	// ErrUnavailable reports a method without path data (no executable code or unsupported graph)
	ErrUnavailable = errors.New("path data unavailable")
	// ErrMergeKeyMismatch reports previous run data incompatible with the current build
	ErrMergeKeyMismatch = errors.New("merge key mismatch")
)

// MethodCoverageData holds the graph and paths of one method
type MethodCoverageData struct {
	Name        string       `json:"name" yaml:"name"`
	FirstLine   int          `json:"firstLine" yaml:"firstLine"`
	LastLine    int          `json:"lastLine" yaml:"lastLine"`
	Fingerprint uint64       `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Graph       *graph.Graph `json:"graph,omitempty" yaml:"graph,omitempty"`
	Paths       []*Path      `json:"paths,omitempty" yaml:"paths,omitempty"`
	// Unsupported holds the reason the graph could not be built
	Unsupported string `json:"unsupported,omitempty" yaml:"unsupported,omitempty"`

	exitPaths map[int][]*Path
}

// NewMethodCoverageData creates method data
func NewMethodCoverageData(name string) *MethodCoverageData {
	return &MethodCoverageData{Name: name}
}

// BuildPaths finishes the builder and enumerates paths. On failure the method is kept
// without path data and the reason is recorded in Unsupported.
func (m *MethodCoverageData) BuildPaths(lastLine int, builder *graph.Builder) error {
	m.FirstLine = builder.FirstLine
	m.LastLine = lastLine
	g, err := builder.Finish()
	if err == nil {
		err = m.setGraph(g)
	}
	if err != nil {
		m.Graph, m.Paths, m.exitPaths, m.Fingerprint = nil, nil, nil, 0
		m.Unsupported = err.Error()
		return fmt.Errorf("method %v: %w", m.Name, err)
	}
	return nil
}

func (m *MethodCoverageData) setGraph(g *graph.Graph) error {
	paths, err := Enumerate(g)
	if err != nil {
		return err
	}
	fingerprint, err := g.Fingerprint()
	if err != nil {
		return err
	}
	m.Graph = g
	m.Paths = paths
	m.Fingerprint = fingerprint
	m.Unsupported = ""
	m.index()
	return nil
}

// Restore validates decoded data and rebuilds exit lookups. Invalid path data is dropped:
// the method keeps its name and lines, records the reason in Unsupported and the error is returned.
func (m *MethodCoverageData) Restore() error {
	if m.Graph.IsEmpty() {
		m.exitPaths = nil
		return nil
	}
	if err := m.validate(); err != nil {
		m.Graph, m.Paths, m.exitPaths, m.Fingerprint = nil, nil, nil, 0
		m.Unsupported = err.Error()
		return fmt.Errorf("method %v: %w", m.Name, err)
	}
	m.index()
	return nil
}

func (m *MethodCoverageData) validate() error {
	if err := m.Graph.Validate(); err != nil {
		return err
	}
	for i, path := range m.Paths {
		if path == nil || len(path.Nodes) == 0 {
			return fmt.Errorf("path %d: %w", i, graph.ErrStructuralInconsistency)
		}
		for _, node := range path.Nodes {
			if m.Graph.Node(node) == nil {
				return fmt.Errorf("path %d: %w: %d", i, ErrNodeIndexOutOfRange, node)
			}
		}
	}
	return nil
}

func (m *MethodCoverageData) index() {
	m.exitPaths = map[int][]*Path{}
	for _, path := range m.Paths {
		exit := path.Exit()
		m.exitPaths[exit] = append(m.exitPaths[exit], path)
	}
}

// HasPaths returns true when the method has path data
func (m *MethodCoverageData) HasPaths() bool {
	return len(m.Paths) > 0
}

// NewReachability creates an invocation record sized for the method graph
func (m *MethodCoverageData) NewReachability() *Reachability {
	return NewReachability(m.Graph.Len())
}

// ExitPaths returns paths terminating at the exit node
func (m *MethodCoverageData) ExitPaths(exit int) []*Path {
	if m.exitPaths != nil {
		return m.exitPaths[exit]
	}
	var result []*Path
	for _, path := range m.Paths {
		if path.Exit() == exit {
			result = append(result, path)
		}
	}
	return result
}

// MarkNodeReached records node as reached by the invocation; node 0 starts a new invocation.
// Reaching an exit credits the one path whose nodes are exactly the reached ones.
func (m *MethodCoverageData) MarkNodeReached(r *Reachability, nodeIndex int) error {
	if m.Graph.IsEmpty() {
		return ErrUnavailable
	}
	node := m.Graph.Node(nodeIndex)
	if node == nil {
		return fmt.Errorf("method %v: %w: %d", m.Name, ErrNodeIndexOutOfRange, nodeIndex)
	}
	r.resize(m.Graph.Len())
	if nodeIndex == 0 {
		r.Reset()
	}
	r.Mark(nodeIndex)
	if node.Kind != graph.KindExit {
		return nil
	}
	for _, path := range m.ExitPaths(nodeIndex) {
		if path.countIfReached(r) {
			return nil
		}
	}
	return ErrNoPathMatched
}

// ExecutionCount returns the sum of path execution counts
func (m *MethodCoverageData) ExecutionCount() int {
	total := 0
	for _, path := range m.Paths {
		total += path.ExecutionCount
	}
	return total
}

// PathCoveragePercentage returns the rounded percentage of executed paths, -1 without paths
func (m *MethodCoverageData) PathCoveragePercentage() int {
	total := m.TotalPaths()
	if total == 0 {
		return -1
	}
	return int(math.Round(float64(m.CoveredPaths()) * 100 / float64(total)))
}

// CoveredPaths returns number of executed paths
func (m *MethodCoverageData) CoveredPaths() int {
	covered := 0
	for _, path := range m.Paths {
		if path.Covered() {
			covered++
		}
	}
	return covered
}

// TotalPaths returns number of paths
func (m *MethodCoverageData) TotalPaths() int {
	return len(m.Paths)
}

// AddCountsFromPreviousTestRun adds path execution counts of the same method recorded by an earlier run
func (m *MethodCoverageData) AddCountsFromPreviousTestRun(previous *MethodCoverageData) error {
	if m.Fingerprint != 0 && previous.Fingerprint != 0 && m.Fingerprint != previous.Fingerprint {
		return fmt.Errorf("%w: method %v at line %d changed shape", ErrMergeKeyMismatch, m.Name, m.FirstLine)
	}
	if len(m.Paths) != len(previous.Paths) {
		return fmt.Errorf("%w: method %v at line %d has %d paths, previous run %d", ErrMergeKeyMismatch, m.Name, m.FirstLine, len(m.Paths), len(previous.Paths))
	}
	for i, path := range m.Paths {
		path.ExecutionCount += previous.Paths[i].ExecutionCount
	}
	return nil
}

// NodeCounts returns, per node, the executions of paths running through it
func (m *MethodCoverageData) NodeCounts() map[int]int {
	result := make(map[int]int, m.Graph.Len())
	for _, path := range m.Paths {
		for _, node := range path.Nodes {
			result[node] += path.ExecutionCount
		}
	}
	return result
}
