package cfg

// This file computes the dominator tree of a control-flow graph with the
// iterative algorithm of Cooper, Harvey and Kennedy ("A Simple, Fast
// Dominance Algorithm"), iterating over reverse postorder until a fixpoint.

// Graph is the view of a CFG the dominator computation needs
type Graph interface {
	NumBlocks() int
	Successors(b BlockID) []BlockID
	Predecessors(b BlockID) []BlockID
}

// Dominators holds the immediate dominator of every block reachable from the
// root. Unreachable blocks have no entry.
type Dominators struct {
	root     BlockID
	idom     []BlockID
	rpo      []BlockID
	children [][]BlockID

	// pre/post numbering of the dominator tree for O(1) Dominates queries
	pre  []int
	post []int
}

type blockAndIndex struct {
	b     BlockID
	index int // number of successors of b already explored
}

// postorder returns the blocks reachable from entry in DFS postorder
func postorder(g Graph, entry BlockID) []BlockID {
	seen := make([]bool, g.NumBlocks())
	order := make([]BlockID, 0, g.NumBlocks())

	s := make([]blockAndIndex, 0, 32)
	s = append(s, blockAndIndex{b: entry})
	seen[entry] = true
	for len(s) > 0 {
		tos := len(s) - 1
		x := s[tos]
		succs := g.Successors(x.b)
		if i := x.index; i < len(succs) {
			s[tos].index++
			if next := succs[i]; !seen[next] {
				seen[next] = true
				s = append(s, blockAndIndex{b: next})
			}
			continue
		}
		s = s[:tos]
		order = append(order, x.b)
	}
	return order
}

// ComputeDominators computes the dominator tree of g rooted at entry
func ComputeDominators(g Graph, entry BlockID) *Dominators {
	n := g.NumBlocks()
	po := postorder(g, entry)

	postnum := make([]int, n)
	for i := range postnum {
		postnum[i] = -1
	}
	for i, b := range po {
		postnum[b] = i
	}

	idom := make([]BlockID, n)
	for i := range idom {
		idom[i] = NoBlock
	}
	idom[entry] = entry

	for changed := true; changed; {
		changed = false
		// reverse postorder, skipping the entry
		for i := len(po) - 2; i >= 0; i-- {
			b := po[i]
			d := NoBlock
			for _, p := range g.Predecessors(b) {
				if idom[p] == NoBlock {
					continue
				}
				if d == NoBlock {
					d = p
					continue
				}
				d = intersect(p, d, postnum, idom)
			}
			if idom[b] != d {
				idom[b] = d
				changed = true
			}
		}
	}
	idom[entry] = NoBlock

	dom := &Dominators{
		root:     entry,
		idom:     idom,
		rpo:      make([]BlockID, 0, len(po)),
		children: make([][]BlockID, n),
	}
	for i := len(po) - 1; i >= 0; i-- {
		b := po[i]
		dom.rpo = append(dom.rpo, b)
		if d := idom[b]; d != NoBlock {
			dom.children[d] = append(dom.children[d], b)
		}
	}
	dom.number(n)
	return dom
}

// intersect finds the closest common dominator of b and c
func intersect(b, c BlockID, postnum []int, idom []BlockID) BlockID {
	for b != c {
		if postnum[b] < postnum[c] {
			b = idom[b]
		} else {
			c = idom[c]
		}
	}
	return b
}

// number assigns pre/post DFS numbers over the dominator tree
func (d *Dominators) number(n int) {
	d.pre = make([]int, n)
	d.post = make([]int, n)
	for i := range d.pre {
		d.pre[i] = -1
		d.post[i] = -1
	}

	clock := 0
	s := []blockAndIndex{{b: d.root}}
	d.pre[d.root] = clock
	clock++
	for len(s) > 0 {
		tos := len(s) - 1
		x := s[tos]
		if i := x.index; i < len(d.children[x.b]) {
			s[tos].index++
			child := d.children[x.b][i]
			d.pre[child] = clock
			clock++
			s = append(s, blockAndIndex{b: child})
			continue
		}
		s = s[:tos]
		d.post[x.b] = clock
		clock++
	}
}

// Root returns the block the tree is rooted at
func (d *Dominators) Root() BlockID { return d.root }

// ImmediateDominator returns b's immediate dominator. ok is false for the root
// and for unreachable blocks.
func (d *Dominators) ImmediateDominator(b BlockID) (BlockID, bool) {
	if b < 0 || int(b) >= len(d.idom) || d.idom[b] == NoBlock {
		return NoBlock, false
	}
	return d.idom[b], true
}

// Reachable reports whether b is reachable from the root
func (d *Dominators) Reachable(b BlockID) bool {
	return b >= 0 && int(b) < len(d.pre) && d.pre[b] >= 0
}

// Dominates reports whether every path from the root to b passes through a.
// A block dominates itself.
func (d *Dominators) Dominates(a, b BlockID) bool {
	if !d.Reachable(a) || !d.Reachable(b) {
		return false
	}
	return d.pre[a] <= d.pre[b] && d.post[b] <= d.post[a]
}

// Children returns the blocks b immediately dominates
func (d *Dominators) Children(b BlockID) []BlockID { return d.children[b] }

// ReversePostorder returns the reachable blocks in reverse postorder
func (d *Dominators) ReversePostorder() []BlockID { return d.rpo }
