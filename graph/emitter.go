package graph

import (
	"bytes"
	"fmt"
)

// Emitter represents graph generator
type Emitter interface {
	Emit(name string, g *Graph) ([]byte, error)
}

// DOTEmitter emits graphviz digraph source
type DOTEmitter struct {
	// Counts optionally labels nodes with the number of path executions running through them
	Counts map[int]int
}

var dotShapes = map[Kind]string{
	KindEntry:      "invhouse",
	KindBasicBlock: "box",
	KindSimpleFork: "diamond",
	KindMultiFork:  "diamond",
	KindJoin:       "circle",
	KindExit:       "house",
}

// Emit writes g as a digraph named name
func (e *DOTEmitter) Emit(name string, g *Graph) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("graph was nil")
	}
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "digraph %q {\n", name)
	for _, node := range g.Nodes {
		label := fmt.Sprintf("%s\\nline %d", node.Kind, node.Line)
		if count, ok := e.Counts[node.Index]; ok {
			label += fmt.Sprintf("\\n%d", count)
		}
		fmt.Fprintf(buf, "  n%d [shape=%s label=\"%s\"];\n", node.Index, dotShapes[node.Kind], label)
	}
	for _, node := range g.Nodes {
		if node.Kind.IsFork() {
			for slot, next := range node.Next {
				fmt.Fprintf(buf, "  n%d -> n%d [label=\"%d\"];\n", node.Index, next, slot)
			}
			continue
		}
		if next := node.Successor(); next != NoNode {
			style := ""
			if node.Goto != NoNode {
				style = " [style=dashed]"
			}
			fmt.Fprintf(buf, "  n%d -> n%d%s;\n", node.Index, next, style)
		}
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
