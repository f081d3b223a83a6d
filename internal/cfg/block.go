package cfg

import (
	"fmt"

	"shaderflow/internal/ir"
)

// BlockID is a dense handle into a CFG's blocks. Block 0 is the entry.
type BlockID int

// EdgeID is a dense handle into a CFG's edges
type EdgeID int

// NoBlock marks the absence of a block, e.g. the entry's immediate dominator
const NoBlock BlockID = -1

// Edge is one directed control-flow edge
type Edge struct {
	ID   EdgeID
	From BlockID
	To   BlockID
}

// TreePosition locates a block inside a structure tree: the arena index of the
// node that owns it and the block's index among that node's children.
type TreePosition struct {
	Node  int
	Index int
}

// BasicBlock is a maximal straight-line run of instructions ending in exactly
// one terminator. The OpLabel that opens it is not part of Instructions.
type BasicBlock struct {
	ID           BlockID
	Label        ir.ID
	Name         string
	Pos          ir.Position // position of the OpLabel
	Instructions []ir.Instruction

	treePos *TreePosition
}

// Terminator returns the block's termination instruction
func (b *BasicBlock) Terminator() *ir.Instruction {
	return &b.Instructions[len(b.Instructions)-1]
}

// Merge returns the merge instruction immediately before the terminator, or nil
func (b *BasicBlock) Merge() *ir.Instruction {
	if len(b.Instructions) < 2 {
		return nil
	}
	if inst := &b.Instructions[len(b.Instructions)-2]; inst.IsMerge() {
		return inst
	}
	return nil
}

// SetTreePosition records where the structurizer placed the block. It may be
// called once; a second call panics.
func (b *BasicBlock) SetTreePosition(pos TreePosition) {
	if b.treePos != nil {
		panic(fmt.Sprintf("cfg: block %%%s already placed at node %d index %d", b.Name, b.treePos.Node, b.treePos.Index))
	}
	b.treePos = &pos
}

// ResetTreePosition forgets the block's placement, after structuring failed
func (b *BasicBlock) ResetTreePosition() {
	b.treePos = nil
}

// TreePosition returns the block's place in the structure tree, if assigned
func (b *BasicBlock) TreePosition() (TreePosition, bool) {
	if b.treePos == nil {
		return TreePosition{}, false
	}
	return *b.treePos, true
}

func (b *BasicBlock) String() string {
	return fmt.Sprintf("%%%s", b.Name)
}
