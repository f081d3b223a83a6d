package structure

import (
	"iter"

	"shaderflow/internal/cfg"
)

// Tree is the structured form of one function. Nodes live in an arena and
// refer to each other by NodeID; blocks are the CFG's own blocks.
type Tree struct {
	g     *cfg.CFG
	nodes []*Node
	root  NodeID
}

// CFG returns the graph the tree organizes
func (t *Tree) CFG() *cfg.CFG { return t.g }

// Root returns the root node
func (t *Tree) Root() *Node { return t.nodes[t.root] }

// Node returns the node with the given id
func (t *Tree) Node(id NodeID) *Node { return t.nodes[id] }

// Len returns the number of nodes, root included
func (t *Tree) Len() int { return len(t.nodes) }

// Parent returns the parent of id and id's index among its children. ok is
// false for the root.
func (t *Tree) Parent(id NodeID) (parent NodeID, index int, ok bool) {
	n := t.nodes[id]
	if n.Parent == NoNode {
		return NoNode, 0, false
	}
	return n.Parent, n.Index, true
}

// Position returns the node that holds block and the block's index in it.
// ok is false for blocks the tree does not contain.
func (t *Tree) Position(block cfg.BlockID) (NodeID, int, bool) {
	pos, ok := t.g.Block(block).TreePosition()
	if !ok {
		return NoNode, 0, false
	}
	return NodeID(pos.Node), pos.Index, true
}

// Children iterates over every Child of the tree in pre-order: a node child
// is yielded before its own children.
func (t *Tree) Children() iter.Seq[Child] {
	return func(yield func(Child) bool) {
		t.walk(t.root, yield)
	}
}

func (t *Tree) walk(id NodeID, yield func(Child) bool) bool {
	for _, c := range t.nodes[id].Children {
		if !yield(c) {
			return false
		}
		if c.IsNode() && !t.walk(c.Node(), yield) {
			return false
		}
	}
	return true
}

// Nodes iterates over all nodes in pre-order, starting with the root
func (t *Tree) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if !yield(t.Root()) {
			return
		}
		for c := range t.Children() {
			if c.IsNode() && !yield(t.nodes[c.Node()]) {
				return
			}
		}
	}
}

// Blocks iterates over the basic blocks in emission order
func (t *Tree) Blocks() iter.Seq[cfg.BlockID] {
	return func(yield func(cfg.BlockID) bool) {
		for c := range t.Children() {
			if !c.IsNode() && !yield(c.Block()) {
				return
			}
		}
	}
}

// IfArms returns the IfPart nodes of an If node for its true and false
// targets. A missing arm (its span was empty) is NoNode. When both targets are
// the same block the single arm is returned as the true arm.
func (t *Tree) IfArms(id NodeID) (then, otherwise NodeID) {
	n := t.nodes[id]
	if n.Kind != KindIf {
		return NoNode, NoNode
	}
	then, otherwise = NoNode, NoNode

	trueLabel, falseLabel, _ := t.g.Block(n.Header()).Terminator().ConditionalTargets()
	trueBlock, _ := t.g.BlockByLabel(trueLabel)
	falseBlock, _ := t.g.BlockByLabel(falseLabel)
	for _, c := range n.Children[1:] {
		part := t.nodes[c.Node()]
		switch part.FirstBlock {
		case trueBlock:
			then = part.ID
		case falseBlock:
			otherwise = part.ID
		}
	}
	return then, otherwise
}

// LoopParts returns the LoopBody and Continue nodes of a Loop node, NoNode
// where absent.
func (t *Tree) LoopParts(id NodeID) (body, continuing NodeID) {
	body, continuing = NoNode, NoNode
	n := t.nodes[id]
	if n.Kind != KindLoop {
		return
	}
	for _, c := range n.Children[1:] {
		switch t.nodes[c.Node()].Kind {
		case KindLoopBody:
			body = c.Node()
		case KindContinue:
			continuing = c.Node()
		}
	}
	return
}
