package paths

import (
	"fmt"
	"github.com/viant/pathcover/graph"
	"strings"
)

// Path represents one entry-to-exit route through a method graph
type Path struct {
	Nodes          []int `json:"nodes" yaml:"nodes"`
	ExecutionCount int   `json:"executionCount" yaml:"executionCount"`
}

// Len returns number of nodes on the path
func (p *Path) Len() int {
	return len(p.Nodes)
}

// Covered returns true when the path was executed at least once
func (p *Path) Covered() bool {
	return p.ExecutionCount > 0
}

// Exit returns the terminating node index
func (p *Path) Exit() int {
	if len(p.Nodes) == 0 {
		return graph.NoNode
	}
	return p.Nodes[len(p.Nodes)-1]
}

// Contains returns true if the path runs through node
func (p *Path) Contains(node int) bool {
	for _, candidate := range p.Nodes {
		if candidate == node {
			return true
		}
	}
	return false
}

// countIfReached credits the path when the reached set equals its node set
func (p *Path) countIfReached(r *Reachability) bool {
	if r.count != len(p.Nodes) {
		return false
	}
	for _, node := range p.Nodes {
		if !r.reached[node] {
			return false
		}
	}
	p.ExecutionCount++
	return true
}

// Lines returns source lines of the path nodes
func (p *Path) Lines(g *graph.Graph) []int {
	result := make([]int, 0, len(p.Nodes))
	for _, index := range p.Nodes {
		if node := g.Node(index); node != nil {
			result = append(result, node.Line)
		}
	}
	return result
}

func (p *Path) String() string {
	parts := make([]string, len(p.Nodes))
	for i, node := range p.Nodes {
		parts[i] = fmt.Sprint(node)
	}
	return fmt.Sprintf("[%s]x%d", strings.Join(parts, " "), p.ExecutionCount)
}
