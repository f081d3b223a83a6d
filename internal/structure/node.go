package structure

import (
	"fmt"

	"shaderflow/internal/cfg"
)

// Kind is the kind of a structure tree node
type Kind uint8

const (
	KindRoot Kind = iota
	KindIf
	KindIfPart
	KindLoop
	KindLoopBody
	KindContinue
	KindSwitch
	KindCase
)

var kindNames = [...]string{
	KindRoot:     "Root",
	KindIf:       "If",
	KindIfPart:   "IfPart",
	KindLoop:     "Loop",
	KindLoopBody: "LoopBody",
	KindContinue: "Continue",
	KindSwitch:   "Switch",
	KindCase:     "Case",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// NodeID indexes a node in its tree's arena
type NodeID int

// NoNode marks a missing node, e.g. the parent of the root
const NoNode NodeID = -1

// Child is either a nested node or a basic block leaf. The zero value is not
// a valid child; use NodeChild or BlockChild.
type Child struct {
	node   NodeID
	block  cfg.BlockID
	isNode bool
}

// NodeChild wraps a nested node
func NodeChild(id NodeID) Child {
	return Child{node: id, block: cfg.NoBlock, isNode: true}
}

// BlockChild wraps a basic block leaf
func BlockChild(id cfg.BlockID) Child {
	return Child{node: NoNode, block: id}
}

// IsNode reports whether the child is a nested node rather than a block
func (c Child) IsNode() bool { return c.isNode }

// Node returns the nested node id, or NoNode for a block child
func (c Child) Node() NodeID { return c.node }

// Block returns the block id, or cfg.NoBlock for a node child
func (c Child) Block() cfg.BlockID { return c.block }

func (c Child) String() string {
	if c.isNode {
		return fmt.Sprintf("node#%d", c.node)
	}
	return fmt.Sprintf("block#%d", c.block)
}

// Node is one structured control construct. Nodes are immutable once built
// apart from the parent link, which is written once when the enclosing node
// is built.
type Node struct {
	ID         NodeID
	Kind       Kind
	Children   []Child
	Depth      int         // root is 0, every nested node is parent.Depth+1
	FirstBlock cfg.BlockID // first block reachable through Children
	Parent     NodeID      // NoNode for the root
	Index      int         // position in the parent's Children

	exits *ControlProperties
}

// Exits returns a copy of the loose ends the node left for its enclosing
// construct. The root never has exit edges.
func (n *Node) Exits() *ControlProperties { return n.exits.clone() }

// Header returns the plain block an If, Loop or Switch starts with, or
// cfg.NoBlock for the other kinds.
func (n *Node) Header() cfg.BlockID {
	switch n.Kind {
	case KindIf, KindLoop, KindSwitch:
		return n.Children[0].Block()
	}
	return cfg.NoBlock
}

// shape validation

// checkShape panics when children do not fit the kind. An invalid shape means
// the structurizer itself is broken, not that the input was bad.
func checkShape(kind Kind, children []Child, kindOf func(NodeID) Kind) {
	fail := func(why string) {
		panic(fmt.Sprintf("structure: invalid %s node: %s", kind, why))
	}
	isBlock := func(c Child) bool { return !c.IsNode() }
	isKind := func(c Child, k Kind) bool { return c.IsNode() && kindOf(c.Node()) == k }

	switch kind {
	case KindRoot, KindIfPart, KindLoopBody, KindContinue, KindCase:
		if len(children) == 0 {
			fail("expected at least one child")
		}
	case KindIf:
		if len(children) == 0 || !isBlock(children[0]) {
			fail("first child must be a block")
		}
		if len(children) > 3 {
			fail("more than two IfPart children")
		}
		for _, c := range children[1:] {
			if !isKind(c, KindIfPart) {
				fail("trailing children must be IfPart")
			}
		}
	case KindLoop:
		if len(children) == 0 || !isBlock(children[0]) {
			fail("first child must be the header block")
		}
		rest := children[1:]
		if len(rest) > 0 && isKind(rest[0], KindLoopBody) {
			rest = rest[1:]
		}
		if len(rest) > 0 && isKind(rest[0], KindContinue) {
			rest = rest[1:]
		}
		if len(rest) > 0 {
			fail("expected optional LoopBody then optional Continue after the header")
		}
	case KindSwitch:
		if len(children) == 0 || !isBlock(children[0]) {
			fail("first child must be a block")
		}
		for _, c := range children[1:] {
			if !isKind(c, KindCase) {
				fail("trailing children must be Case")
			}
		}
	default:
		fail("unknown kind")
	}
}
