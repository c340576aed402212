package graph

import (
	"fmt"
	"sort"
)

// gotoSlot addresses the goto override of a single-successor node
const gotoSlot = -1

// link addresses one successor slot waiting for its target node
type link struct {
	node int
	slot int
}

// Builder builds a method graph from the structural event stream emitted by a bytecode or AST scanner.
// Event handlers return the index of the created node, or NoNode; the first error is kept and reported by Finish.
type Builder struct {
	FirstLine int

	nodes []*Node
	// open holds predecessors whose fall-through successor is the next created node
	open []link
	// block is the node absorbing regular instructions, NoNode when the next instruction starts a new block
	block       int
	forkTargets map[int][]link
	gotoTargets map[int][]link
	labels      map[int]int
	err         error
}

// NewBuilder creates a graph builder
func NewBuilder() *Builder {
	return &Builder{
		block:       NoNode,
		forkTargets: map[int][]link{},
		gotoTargets: map[int][]link{},
		labels:      map[int]int{},
	}
}

// Err returns the first error recorded while handling events
func (b *Builder) Err() error {
	return b.err
}

// Len returns number of nodes created so far
func (b *Builder) Len() int {
	return len(b.nodes)
}

func (b *Builder) fail(err error) int {
	if b.err == nil {
		b.err = err
	}
	return NoNode
}

// NewPotentialBlock handles the first instruction of a source line; only the first call creates the entry node
func (b *Builder) NewPotentialBlock(line int) int {
	if b.err != nil || len(b.nodes) > 0 {
		return NoNode
	}
	return b.ensureEntry(line)
}

func (b *Builder) ensureEntry(line int) int {
	if len(b.nodes) > 0 {
		return NoNode
	}
	b.FirstLine = line
	entry := b.addNode(KindEntry, line, 1)
	b.open = []link{{node: entry, slot: 0}}
	b.block = entry
	return entry
}

// RegularInstruction handles a non-branching instruction; it starts a basic block after a fork arm or a resolved label
func (b *Builder) RegularInstruction(line int) int {
	if b.err != nil {
		return NoNode
	}
	b.ensureEntry(line)
	if b.block != NoNode || len(b.open) == 0 {
		return NoNode
	}
	index := b.addNode(KindBasicBlock, line, 1)
	b.connect(index)
	b.open = []link{{node: index, slot: 0}}
	b.block = index
	return index
}

// Jump handles a jump to target; a conditional jump creates a simple fork, an unconditional one closes the current block
func (b *Builder) Jump(target, line int, conditional bool) int {
	if b.err != nil {
		return NoNode
	}
	b.ensureEntry(line)
	if !conditional {
		b.gotoTarget(target)
		return NoNode
	}
	index := b.addNode(KindSimpleFork, line, 2)
	b.connect(index)
	b.forkTarget(target, link{node: index, slot: 1})
	b.open = []link{{node: index, slot: 0}}
	b.block = NoNode
	return index
}

// MultiJump handles a switch: one fork slot per distinct case target, default last
func (b *Builder) MultiJump(defaultTarget int, caseTargets []int, line int) int {
	if b.err != nil {
		return NoNode
	}
	b.ensureEntry(line)
	targets := make([]int, 0, len(caseTargets)+1)
	seen := map[int]bool{defaultTarget: true}
	for _, target := range caseTargets {
		if seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		b.gotoTarget(defaultTarget)
		return NoNode
	}
	targets = append(targets, defaultTarget)
	index := b.addNode(KindMultiFork, line, len(targets))
	b.connect(index)
	for slot, target := range targets {
		b.forkTarget(target, link{node: index, slot: slot})
	}
	b.open = nil
	b.block = NoNode
	return index
}

// JumpTarget handles a label definition, resolving every pending jump to it
func (b *Builder) JumpTarget(target, line int) int {
	if b.err != nil {
		return NoNode
	}
	b.ensureEntry(line)
	if _, ok := b.labels[target]; ok {
		return b.fail(fmt.Errorf("%w: label %d defined twice (line %d)", ErrStructuralInconsistency, target, line))
	}
	forks := b.forkTargets[target]
	gotos := b.gotoTargets[target]
	delete(b.forkTargets, target)
	delete(b.gotoTargets, target)
	referrers := append(forks, gotos...)

	switch {
	case len(referrers) == 0:
		// fall-through point only
		b.labels[target] = NoNode
		return NoNode
	case len(referrers) == 1 && len(b.open) == 0:
		// single jump into code nothing falls through to: the next node becomes its target
		b.labels[target] = NoNode
		b.open = referrers
		b.block = NoNode
		return NoNode
	}

	if b.sharesFork(referrers) {
		// a fork falling through to a label it also jumps to gets a join per arm
		join := b.addNode(KindJoin, line, 1)
		b.connect(join)
		b.open = []link{{node: join, slot: 0}}
	}
	index := b.addNode(KindJoin, line, 1)
	b.connect(index)
	for _, referrer := range referrers {
		b.link(referrer, index)
	}
	b.labels[target] = index
	b.open = []link{{node: index, slot: 0}}
	b.block = index
	return index
}

// Exit handles a return or throw instruction
func (b *Builder) Exit(line int) int {
	if b.err != nil {
		return NoNode
	}
	b.ensureEntry(line)
	index := b.addNode(KindExit, line, 0)
	b.connect(index)
	b.open = nil
	b.block = NoNode
	return index
}

// Unsupported flags a construct the graph does not model, e.g. an exception handler or a monitor cleanup edge
func (b *Builder) Unsupported(construct string, line int) {
	b.fail(fmt.Errorf("%w: %s at line %d", ErrUnsupportedConstruct, construct, line))
}

// Finish ends the event stream and returns the validated graph
func (b *Builder) Finish() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.nodes) == 0 {
		return &Graph{}, nil
	}
	if pending := b.pendingTargets(); len(pending) > 0 {
		return nil, fmt.Errorf("%w: unresolved jump targets %v", ErrStructuralInconsistency, pending)
	}
	if len(b.open) > 0 {
		return nil, fmt.Errorf("%w: control falls off the end of method at node %d", ErrStructuralInconsistency, b.open[0].node)
	}
	result := &Graph{Nodes: b.nodes}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func (b *Builder) pendingTargets() []int {
	var result []int
	for target := range b.forkTargets {
		result = append(result, target)
	}
	for target := range b.gotoTargets {
		if _, ok := b.forkTargets[target]; !ok {
			result = append(result, target)
		}
	}
	sort.Ints(result)
	return result
}

func (b *Builder) addNode(kind Kind, line int, slots int) int {
	index := len(b.nodes)
	b.nodes = append(b.nodes, newNode(index, kind, line, slots))
	return index
}

// sharesFork returns true when an open predecessor is a fork that also has a slot among referrers
func (b *Builder) sharesFork(referrers []link) bool {
	for _, predecessor := range b.open {
		if !b.nodes[predecessor.node].Kind.IsFork() {
			continue
		}
		for _, referrer := range referrers {
			if referrer.node == predecessor.node {
				return true
			}
		}
	}
	return false
}

// connect links all open predecessors to the new node
func (b *Builder) connect(index int) {
	for _, predecessor := range b.open {
		b.link(predecessor, index)
	}
	b.open = nil
}

func (b *Builder) link(l link, target int) {
	node := b.nodes[l.node]
	if l.slot == gotoSlot {
		node.Goto = target
		return
	}
	node.Next[l.slot] = target
}

func (b *Builder) forkTarget(target int, l link) {
	if b.resolveBackward(target, l) {
		return
	}
	b.forkTargets[target] = append(b.forkTargets[target], l)
}

// gotoTarget moves every open predecessor to the pending goto successors of target
func (b *Builder) gotoTarget(target int) {
	if len(b.open) == 0 {
		return
	}
	for _, predecessor := range b.open {
		if !b.nodes[predecessor.node].Kind.IsFork() {
			predecessor.slot = gotoSlot
		}
		if b.resolveBackward(target, predecessor) {
			continue
		}
		b.gotoTargets[target] = append(b.gotoTargets[target], predecessor)
	}
	b.open = nil
	b.block = NoNode
}

// resolveBackward handles jumps to an already defined label. Back edges form loops, so even a jump
// to an existing join is reported as unsupported instead of being followed once as a forward reference.
func (b *Builder) resolveBackward(target int, l link) bool {
	if _, ok := b.labels[target]; !ok {
		return false
	}
	b.fail(fmt.Errorf("%w: backward jump from node %d to label %d", ErrUnsupportedConstruct, l.node, target))
	return true
}
