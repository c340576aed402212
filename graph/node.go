package graph

import (
	"fmt"
	"strings"
)

// NoNode marks an unset successor slot or an event that produced no node
const NoNode = -1

// Kind represents a control flow node variant
type Kind uint8

const (
	KindEntry Kind = iota
	KindBasicBlock
	KindSimpleFork
	KindMultiFork
	KindJoin
	KindExit
)

var kindNames = [...]string{
	KindEntry:      "entry",
	KindBasicBlock: "block",
	KindSimpleFork: "fork",
	KindMultiFork:  "multiFork",
	KindJoin:       "join",
	KindExit:       "exit",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsFork returns true for branching variants
func (k Kind) IsFork() bool {
	return k == KindSimpleFork || k == KindMultiFork
}

// MarshalText encodes kind by name
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown node kind: %d", k)
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes kind by name
func (k *Kind) UnmarshalText(text []byte) error {
	name := string(text)
	for i, candidate := range kindNames {
		if strings.EqualFold(candidate, name) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown node kind: %q", name)
}

// Node represents a control flow node addressed by its index in the graph arena
type Node struct {
	Index int  `json:"index" yaml:"index"`
	Kind  Kind `json:"kind" yaml:"kind"`
	Line  int  `json:"line" yaml:"line"`
	// Next holds successor slots in declaration order; forks use one slot per arm
	Next []int `json:"next,omitempty" yaml:"next,omitempty"`
	// Goto overrides Next[0] when a single-successor node ends with an unconditional jump
	Goto int `json:"goto" yaml:"goto"`
}

func newNode(index int, kind Kind, line int, slots int) *Node {
	node := &Node{Index: index, Kind: kind, Line: line, Goto: NoNode}
	if slots > 0 {
		node.Next = make([]int, slots)
		for i := range node.Next {
			node.Next[i] = NoNode
		}
	}
	return node
}

// Successor returns the single successor of an entry, block or join, preferring the goto override
func (n *Node) Successor() int {
	if n.Goto != NoNode {
		return n.Goto
	}
	if len(n.Next) == 0 {
		return NoNode
	}
	return n.Next[0]
}

// Successors returns all linked successors in declaration order
func (n *Node) Successors() []int {
	if n.Kind.IsFork() {
		return n.Next
	}
	if next := n.Successor(); next != NoNode {
		return []int{next}
	}
	return nil
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d:%d", n.Kind, n.Index, n.Line)
}

// Graph represents the control flow graph of one method
type Graph struct {
	Nodes []*Node `json:"nodes" yaml:"nodes"`
}

// Len returns number of nodes
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// IsEmpty returns true for methods without executable code
func (g *Graph) IsEmpty() bool {
	return g.Len() == 0
}

// Node returns node at index or nil
func (g *Graph) Node(index int) *Node {
	if index < 0 || index >= g.Len() {
		return nil
	}
	return g.Nodes[index]
}

// Entry returns the entry node
func (g *Graph) Entry() *Node {
	return g.Node(0)
}

// Exits returns exit nodes in index order
func (g *Graph) Exits() []*Node {
	var result []*Node
	for _, node := range g.Nodes {
		if node.Kind == KindExit {
			result = append(result, node)
		}
	}
	return result
}

// Forks returns fork nodes in index order
func (g *Graph) Forks() []*Node {
	var result []*Node
	for _, node := range g.Nodes {
		if node.Kind.IsFork() {
			result = append(result, node)
		}
	}
	return result
}

// Validate checks the shape invariants of every node variant
func (g *Graph) Validate() error {
	for i, node := range g.Nodes {
		if node.Index != i {
			return fmt.Errorf("%w: node %v stored at index %d", ErrStructuralInconsistency, node, i)
		}
		switch node.Kind {
		case KindEntry:
			if i != 0 {
				return fmt.Errorf("%w: entry node at index %d", ErrStructuralInconsistency, i)
			}
		case KindSimpleFork:
			if len(node.Next) != 2 {
				return fmt.Errorf("%w: %v has %d successors", ErrStructuralInconsistency, node, len(node.Next))
			}
		case KindMultiFork:
			if len(node.Next) < 2 {
				return fmt.Errorf("%w: %v has %d successors", ErrStructuralInconsistency, node, len(node.Next))
			}
		case KindExit:
			if len(node.Next) > 0 || node.Goto != NoNode {
				return fmt.Errorf("%w: %v has successors", ErrStructuralInconsistency, node)
			}
			continue
		}
		successors := node.Successors()
		if len(successors) == 0 {
			return fmt.Errorf("%w: %v has no linked successor", ErrStructuralInconsistency, node)
		}
		for _, next := range successors {
			if next == NoNode {
				return fmt.Errorf("%w: %v has unlinked successor slot", ErrStructuralInconsistency, node)
			}
			if next <= 0 || next >= len(g.Nodes) {
				return fmt.Errorf("%w: %v links to missing node %d", ErrStructuralInconsistency, node, next)
			}
		}
	}
	return nil
}
