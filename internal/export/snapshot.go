// Package export turns CFGs and structure trees into plain data that can be
// written as JSON, YAML or msgpack.
package export

import (
	"shaderflow/internal/cfg"
	"shaderflow/internal/ir"
	"shaderflow/internal/pipeline"
	"shaderflow/internal/structure"
)

// ModuleSnapshot holds every function of one source
type ModuleSnapshot struct {
	Source    string             `json:"source" yaml:"source" msgpack:"source"`
	Functions []FunctionSnapshot `json:"functions" yaml:"functions" msgpack:"functions"`
}

// FunctionSnapshot is the exported view of one function
type FunctionSnapshot struct {
	Name   string          `json:"name" yaml:"name" msgpack:"name"`
	Blocks []BlockSnapshot `json:"blocks,omitempty" yaml:"blocks,omitempty" msgpack:"blocks,omitempty"`
	Edges  []EdgeSnapshot  `json:"edges,omitempty" yaml:"edges,omitempty" msgpack:"edges,omitempty"`
	Tree   *NodeSnapshot   `json:"tree,omitempty" yaml:"tree,omitempty" msgpack:"tree,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// BlockSnapshot describes a basic block and its place in the dominator tree
type BlockSnapshot struct {
	Name         string   `json:"name" yaml:"name" msgpack:"name"`
	Line         int      `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
	Reachable    bool     `json:"reachable" yaml:"reachable" msgpack:"reachable"`
	Idom         string   `json:"idom,omitempty" yaml:"idom,omitempty" msgpack:"idom,omitempty"`
	Successors   []string `json:"successors,omitempty" yaml:"successors,omitempty" msgpack:"successors,omitempty"`
	Instructions []string `json:"instructions" yaml:"instructions" msgpack:"instructions"`
}

// EdgeSnapshot is a CFG edge between two named blocks
type EdgeSnapshot struct {
	From string `json:"from" yaml:"from" msgpack:"from"`
	To   string `json:"to" yaml:"to" msgpack:"to"`
}

// NodeSnapshot is a structure tree node. Leaves have Kind "Block" and name
// their block; every other node lists its children.
type NodeSnapshot struct {
	Kind     string          `json:"kind" yaml:"kind" msgpack:"kind"`
	Depth    int             `json:"depth" yaml:"depth" msgpack:"depth"`
	Block    string          `json:"block,omitempty" yaml:"block,omitempty" msgpack:"block,omitempty"`
	Children []*NodeSnapshot `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty"`
}

// BlockKind is the Kind of leaf NodeSnapshots
const BlockKind = "Block"

// Snapshot captures fn with whatever stages succeeded: g and tree may be nil.
func Snapshot(fn *ir.Function, g *cfg.CFG, tree *structure.Tree, err error) FunctionSnapshot {
	snap := FunctionSnapshot{Name: fn.Name}
	if err != nil {
		snap.Error = err.Error()
	}
	if g != nil {
		snap.Blocks, snap.Edges = graphSnapshot(g)
	}
	if tree != nil {
		snap.Tree = nodeSnapshot(tree, tree.Root().ID)
	}
	return snap
}

// FromResults snapshots every pipeline result of a source
func FromResults(source string, results []pipeline.Result) ModuleSnapshot {
	m := ModuleSnapshot{Source: source, Functions: make([]FunctionSnapshot, 0, len(results))}
	for _, r := range results {
		m.Functions = append(m.Functions, Snapshot(r.Function, r.CFG, r.Tree, r.Err))
	}
	return m
}

func graphSnapshot(g *cfg.CFG) ([]BlockSnapshot, []EdgeSnapshot) {
	dom := g.Dominators()
	fn := g.Function()

	blocks := make([]BlockSnapshot, 0, g.NumBlocks())
	for _, b := range g.Blocks() {
		bs := BlockSnapshot{
			Name:         b.Name,
			Line:         b.Pos.Line,
			Reachable:    dom.Reachable(b.ID),
			Instructions: make([]string, 0, len(b.Instructions)),
		}
		if idom, ok := dom.ImmediateDominator(b.ID); ok {
			bs.Idom = g.Block(idom).Name
		}
		for _, s := range g.Successors(b.ID) {
			bs.Successors = append(bs.Successors, g.Block(s).Name)
		}
		for i := range b.Instructions {
			bs.Instructions = append(bs.Instructions, fn.FormatInstruction(&b.Instructions[i]))
		}
		blocks = append(blocks, bs)
	}

	edges := make([]EdgeSnapshot, 0, g.NumEdges())
	for i := 0; i < g.NumEdges(); i++ {
		e := g.Edge(cfg.EdgeID(i))
		edges = append(edges, EdgeSnapshot{From: g.Block(e.From).Name, To: g.Block(e.To).Name})
	}
	return blocks, edges
}

func nodeSnapshot(t *structure.Tree, id structure.NodeID) *NodeSnapshot {
	n := t.Node(id)
	snap := &NodeSnapshot{Kind: n.Kind.String(), Depth: n.Depth}
	for _, c := range n.Children {
		if c.IsNode() {
			snap.Children = append(snap.Children, nodeSnapshot(t, c.Node()))
			continue
		}
		snap.Children = append(snap.Children, &NodeSnapshot{
			Kind:  BlockKind,
			Depth: n.Depth + 1,
			Block: t.CFG().Block(c.Block()).Name,
		})
	}
	return snap
}
