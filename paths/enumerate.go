package paths

import (
	"fmt"
	"github.com/viant/pathcover/graph"
)

type enumerator struct {
	graph    *graph.Graph
	paths    []*Path
	expanded map[int]bool
}

// Enumerate returns the paths of a finished graph.
//
// The first successor of a fork continues the current path; each further successor starts a sibling
// path sharing the prefix up to the fork, appended after the paths found below the first successor.
// A fork already expanded by an earlier path only follows its first successor, so a method with
// forks f1..fn yields 1 + sum(successors(fi) - 1) paths rather than their cross product.
func Enumerate(g *graph.Graph) ([]*Path, error) {
	if g.IsEmpty() {
		return nil, nil
	}
	e := &enumerator{graph: g, expanded: map[int]bool{}}
	main := &Path{Nodes: []int{0}}
	e.paths = append(e.paths, main)
	if err := e.walk(main, g.Entry().Successor()); err != nil {
		return nil, err
	}
	return e.paths, nil
}

func (e *enumerator) walk(path *Path, index int) error {
	for {
		node := e.graph.Node(index)
		if node == nil {
			return fmt.Errorf("%w: path %v reaches missing node %d", graph.ErrStructuralInconsistency, path.Nodes, index)
		}
		if path.Contains(index) {
			return fmt.Errorf("%w: cycle through node %v", graph.ErrUnsupportedConstruct, node)
		}
		path.Nodes = append(path.Nodes, index)

		switch node.Kind {
		case graph.KindExit:
			return nil
		case graph.KindSimpleFork, graph.KindMultiFork:
			if e.expanded[index] {
				index = node.Next[0]
				continue
			}
			e.expanded[index] = true
			shared := path.Nodes[:len(path.Nodes):len(path.Nodes)]
			if err := e.walk(path, node.Next[0]); err != nil {
				return err
			}
			for _, next := range node.Next[1:] {
				sibling := &Path{Nodes: shared}
				e.paths = append(e.paths, sibling)
				if err := e.walk(sibling, next); err != nil {
					return err
				}
			}
			return nil
		default:
			index = node.Successor()
		}
	}
}
