package cfg

import (
	"sort"

	"github.com/tliron/commonlog"

	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
)

var log = commonlog.GetLogger("shaderflow.cfg")

// CFG is the control-flow graph of one function: its basic blocks, one edge
// per distinct successor, and the dominator tree rooted at the entry block.
type CFG struct {
	fn     *ir.Function
	blocks []*BasicBlock
	edges  []Edge
	succs  [][]EdgeID
	preds  [][]EdgeID
	labels map[ir.ID]BlockID
	dom    *Dominators
}

// Build partitions fn's instruction stream into basic blocks, links them and
// computes dominators. The returned error is an errors.CompilerError.
func Build(fn *ir.Function) (*CFG, error) {
	if len(fn.Instructions) == 0 {
		return nil, errors.EmptyFunction(fn.Name)
	}

	g := &CFG{
		fn:     fn,
		labels: make(map[ir.ID]BlockID),
	}

	if err := g.partition(); err != nil {
		return nil, err
	}
	if err := g.link(); err != nil {
		return nil, err
	}
	g.dom = ComputeDominators(g, g.Entry())

	log.Debugf("function %s: %d blocks, %d edges, %d reachable",
		fn.Name, len(g.blocks), len(g.edges), len(g.dom.ReversePostorder()))
	return g, nil
}

// partition splits the instruction stream at OpLabel / terminator boundaries
func (g *CFG) partition() error {
	var current *BasicBlock

	for i := range g.fn.Instructions {
		inst := g.fn.Instructions[i]

		if current == nil {
			switch {
			case inst.IsDebugLine():
				continue
			case inst.Op != ir.OpLabel:
				return errors.ExpectedLabel(inst.Name(), inst.Pos)
			}
			if _, exists := g.labels[inst.Result]; exists {
				return errors.DuplicateLabel(g.fn.NameOf(inst.Result), inst.Pos)
			}
			current = &BasicBlock{
				ID:    BlockID(len(g.blocks)),
				Label: inst.Result,
				Name:  g.fn.NameOf(inst.Result),
				Pos:   inst.Pos,
			}
			g.labels[inst.Result] = current.ID
			g.blocks = append(g.blocks, current)
			continue
		}

		if inst.Op == ir.OpLabel {
			return errors.UnterminatedBlock(current.Name, current.Pos)
		}
		current.Instructions = append(current.Instructions, inst)
		if inst.IsBlockTerminator() {
			current = nil
		}
	}

	if current != nil {
		return errors.UnterminatedBlock(current.Name, current.Pos)
	}
	if len(g.blocks) == 0 {
		return errors.EmptyFunction(g.fn.Name)
	}
	return nil
}

// link adds one edge per distinct terminator target, in first-occurrence order
func (g *CFG) link() error {
	g.succs = make([][]EdgeID, len(g.blocks))
	g.preds = make([][]EdgeID, len(g.blocks))

	for _, block := range g.blocks {
		if err := g.checkMerge(block); err != nil {
			return err
		}

		term := block.Terminator()
		targets, ok := term.BranchTargets()
		if !ok {
			return errors.MissingBranchTargets(term.Name(), term.Pos)
		}

		seen := make(map[BlockID]bool, len(targets))
		for _, label := range targets {
			to, err := g.resolve(label, term.Pos)
			if err != nil {
				return err
			}
			if seen[to] {
				continue
			}
			seen[to] = true
			g.addEdge(block.ID, to)
		}
	}
	return nil
}

// checkMerge makes sure every label a merge instruction names exists, so the
// structurizer can rely on them.
func (g *CFG) checkMerge(block *BasicBlock) error {
	merge := block.Merge()
	if merge == nil {
		return nil
	}

	var labels []ir.ID
	switch merge.Op {
	case ir.OpLoopMerge:
		m, c, ok := merge.LoopMerge()
		if !ok {
			return errors.MissingBranchTargets(merge.Name(), merge.Pos)
		}
		labels = []ir.ID{m, c}
	case ir.OpSelectionMerge:
		m, ok := merge.SelectionMerge()
		if !ok {
			return errors.MissingBranchTargets(merge.Name(), merge.Pos)
		}
		labels = []ir.ID{m}
	}

	for _, label := range labels {
		if _, err := g.resolve(label, merge.Pos); err != nil {
			return err
		}
	}
	return nil
}

func (g *CFG) resolve(label ir.ID, pos ir.Position) (BlockID, error) {
	if id, ok := g.labels[label]; ok {
		return id, nil
	}
	names := make([]string, 0, len(g.blocks))
	for _, b := range g.blocks {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return NoBlock, errors.UndefinedLabel(g.fn.NameOf(label), pos, names)
}

func (g *CFG) addEdge(from, to BlockID) {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{ID: id, From: from, To: to})
	g.succs[from] = append(g.succs[from], id)
	g.preds[to] = append(g.preds[to], id)
}

// Function returns the function the graph was built from
func (g *CFG) Function() *ir.Function { return g.fn }

// Entry returns the entry block, always the first block of the function
func (g *CFG) Entry() BlockID { return 0 }

// NumBlocks returns the number of blocks, reachable or not
func (g *CFG) NumBlocks() int { return len(g.blocks) }

// NumEdges returns the number of edges
func (g *CFG) NumEdges() int { return len(g.edges) }

// Block returns the block with the given id
func (g *CFG) Block(id BlockID) *BasicBlock { return g.blocks[id] }

// Blocks returns all blocks in program order
func (g *CFG) Blocks() []*BasicBlock { return g.blocks }

// Edge returns the edge with the given id
func (g *CFG) Edge(id EdgeID) Edge { return g.edges[id] }

// SuccessorEdges returns the outgoing edges of b in terminator operand order
func (g *CFG) SuccessorEdges(b BlockID) []EdgeID { return g.succs[b] }

// PredecessorEdges returns the incoming edges of b
func (g *CFG) PredecessorEdges(b BlockID) []EdgeID { return g.preds[b] }

// Successors returns the distinct successor blocks of b
func (g *CFG) Successors(b BlockID) []BlockID {
	out := make([]BlockID, len(g.succs[b]))
	for i, e := range g.succs[b] {
		out[i] = g.edges[e].To
	}
	return out
}

// Predecessors returns the distinct predecessor blocks of b
func (g *CFG) Predecessors(b BlockID) []BlockID {
	out := make([]BlockID, len(g.preds[b]))
	for i, e := range g.preds[b] {
		out[i] = g.edges[e].From
	}
	return out
}

// EdgeBetween returns the edge from -> to, if there is one
func (g *CFG) EdgeBetween(from, to BlockID) (EdgeID, bool) {
	for _, e := range g.succs[from] {
		if g.edges[e].To == to {
			return e, true
		}
	}
	return -1, false
}

// BlockByLabel resolves an OpLabel result id
func (g *CFG) BlockByLabel(label ir.ID) (BlockID, bool) {
	id, ok := g.labels[label]
	return id, ok
}

// Dominators returns the dominator tree rooted at the entry block
func (g *CFG) Dominators() *Dominators { return g.dom }

// Unreachable returns the blocks no path from the entry reaches, in program order
func (g *CFG) Unreachable() []BlockID {
	var out []BlockID
	for _, b := range g.blocks {
		if !g.dom.Reachable(b.ID) {
			out = append(out, b.ID)
		}
	}
	return out
}
