package structure

import (
	"fmt"

	"github.com/tliron/commonlog"

	"shaderflow/internal/cfg"
	"shaderflow/internal/ir"
)

var log = commonlog.GetLogger("shaderflow.structure")

// parser holds the state of one structuring pass. Exit target sets and depths
// are threaded through the recursion as arguments; only the arena and the
// visited marks are shared.
type parser struct {
	g       *cfg.CFG
	tree    *Tree
	visited []bool
}

// Parse structurizes g into a tree of nested control constructs, guided by the
// merge instructions of its blocks. Every block reachable from the entry is
// placed in the tree exactly once, and its tree position is recorded on the
// block, so a CFG can be parsed successfully only once. A failed parse clears
// the positions it had recorded.
func Parse(g *cfg.CFG) (*Tree, error) {
	p := &parser{
		g:       g,
		tree:    &Tree{g: g, root: NoNode},
		visited: make([]bool, g.NumBlocks()),
	}

	children, props, err := p.parseChildren(g.Entry(), nil, blockSet{}, 1)
	if err != nil {
		p.discard()
		return nil, err
	}
	if !props.Empty() {
		panic(fmt.Sprintf("structure: %d exit targets left undrained at the root", len(props.Targets())))
	}

	root := p.newNode(KindRoot, children, 0, props)
	p.tree.root = root
	p.setParent(root, NoNode, 0)

	log.Debugf("function %s: %d nodes", g.Function().Name, len(p.tree.nodes))
	return p.tree, nil
}

// parseChildren parses the span starting at start, entered through sources.
// A start that is already an exit target yields an empty span whose only
// loose ends are the source edges.
func (p *parser) parseChildren(start cfg.BlockID, sources []cfg.EdgeID, exits blockSet, depth int) ([]Child, *ControlProperties, error) {
	if exits.has(start) {
		props := newControlProperties()
		for _, e := range sources {
			props.AddExit(start, e)
		}
		return nil, props, nil
	}
	return p.parseSpan(start, exits, depth)
}

// parseSpan walks a straight-line sequence of children starting at start
// until every loose end is an exit target.
func (p *parser) parseSpan(start cfg.BlockID, exits blockSet, depth int) ([]Child, *ControlProperties, error) {
	var children []Child
	props := newControlProperties()

	for target := start; target != cfg.NoBlock; {
		child, childProps, err := p.parseChild(target, exits, depth)
		if err != nil {
			return nil, nil, err
		}
		children = append(children, child)
		props.ReturnOrKill = append(props.ReturnOrKill, childProps.ReturnOrKill...)

		next := cfg.NoBlock
		for _, t := range childProps.Targets() {
			if exits.has(t) {
				for _, e := range childProps.Edges(t) {
					props.AddExit(t, e)
				}
				continue
			}
			if next != cfg.NoBlock {
				return nil, nil, p.fail(UnstructuredControlFlow, target,
					"more than one successor continues the enclosing construct", next, t)
			}
			next = t
		}
		target = next
	}

	return children, props, nil
}

// parseChild parses one block and, when it is a header, the construct it opens
func (p *parser) parseChild(block cfg.BlockID, exits blockSet, depth int) (Child, *ControlProperties, error) {
	if p.visited[block] {
		return Child{}, nil, p.fail(UnstructuredControlFlow, block,
			"block is reached from outside the construct that contains it")
	}
	p.visited[block] = true

	bb := p.g.Block(block)
	merge := bb.Merge()
	switch {
	case merge == nil:
		return p.parseSimple(block)
	case merge.Op == ir.OpLoopMerge:
		return p.parseLoop(block, merge, exits, depth)
	default:
		return p.parseSelection(block, merge, exits, depth)
	}
}

func (p *parser) parseSimple(block cfg.BlockID) (Child, *ControlProperties, error) {
	props := newControlProperties()
	if p.g.Block(block).Terminator().IsReturnOrKill() {
		props.ReturnOrKill = append(props.ReturnOrKill, block)
	} else {
		for _, e := range p.g.SuccessorEdges(block) {
			props.AddExit(p.g.Edge(e).To, e)
		}
	}
	return BlockChild(block), props, nil
}

func (p *parser) label(id ir.ID) cfg.BlockID {
	b, ok := p.g.BlockByLabel(id)
	if !ok {
		// cfg.Build rejects merge instructions naming unknown labels
		panic(fmt.Sprintf("structure: label %d has no block", id))
	}
	return b
}

func (p *parser) parseLoop(header cfg.BlockID, merge *ir.Instruction, exits blockSet, depth int) (Child, *ControlProperties, error) {
	mergeLabel, continueLabel, _ := merge.LoopMerge()
	mergeBlock, continueTarget := p.label(mergeLabel), p.label(continueLabel)

	loopExits := exits.with(mergeBlock)
	bodyExits := loopExits.with(continueTarget)

	children := []Child{BlockChild(header)}
	props := newControlProperties()

	var body []Child
	for _, e := range p.g.SuccessorEdges(header) {
		span, spanProps, err := p.parseChildren(p.g.Edge(e).To, []cfg.EdgeID{e}, bodyExits, depth+2)
		if err != nil {
			return Child{}, nil, err
		}
		body = append(body, span...)
		props.Merge(spanProps)
	}
	if len(body) > 0 {
		children = append(children, NodeChild(p.newNode(KindLoopBody, body, depth+1, nil)))
	}

	continueExits := loopExits.with(header)
	if props.Has(continueTarget) && !continueExits.has(continueTarget) {
		sources := props.Remove(continueTarget)
		span, spanProps, err := p.parseChildren(continueTarget, sources, continueExits, depth+2)
		if err != nil {
			return Child{}, nil, err
		}
		props.Merge(spanProps)
		if len(span) > 0 {
			children = append(children, NodeChild(p.newNode(KindContinue, span, depth+1, nil)))
		}
	}

	props.Remove(header)
	log.Debugf("loop at %s: merge %s, continue %s", p.g.Block(header), p.g.Block(mergeBlock), p.g.Block(continueTarget))
	return NodeChild(p.newNode(KindLoop, children, depth, props)), props, nil
}

func (p *parser) parseSelection(block cfg.BlockID, merge *ir.Instruction, exits blockSet, depth int) (Child, *ControlProperties, error) {
	mergeLabel, _ := merge.SelectionMerge()
	selectionExits := exits.with(p.label(mergeLabel))

	switch p.g.Block(block).Terminator().Op {
	case ir.OpBranchConditional:
		return p.parseIf(block, selectionExits, depth)
	case ir.OpSwitch:
		return p.parseSwitch(block, selectionExits, depth)
	}
	return Child{}, nil, p.fail(InvalidTerminationInstructionFollowingMergeInstruction, block, "")
}

func (p *parser) parseIf(block cfg.BlockID, exits blockSet, depth int) (Child, *ControlProperties, error) {
	trueLabel, falseLabel, _ := p.g.Block(block).Terminator().ConditionalTargets()
	sides := []cfg.BlockID{p.label(trueLabel)}
	if falseLabel != trueLabel {
		sides = append(sides, p.label(falseLabel))
	}

	children := []Child{BlockChild(block)}
	props := newControlProperties()
	for _, side := range sides {
		e, _ := p.g.EdgeBetween(block, side)
		span, spanProps, err := p.parseChildren(side, []cfg.EdgeID{e}, exits, depth+2)
		if err != nil {
			return Child{}, nil, err
		}
		if len(span) > 0 {
			children = append(children, NodeChild(p.newNode(KindIfPart, span, depth+1, spanProps)))
		}
		props.Merge(spanProps)
	}

	return NodeChild(p.newNode(KindIf, children, depth, props)), props, nil
}

// switchCase is one parsed case span before the cases are ordered
type switchCase struct {
	target    cfg.BlockID
	children  []Child
	props     *ControlProperties
	fallsInto cfg.BlockID
}

func (p *parser) parseSwitch(block cfg.BlockID, exits blockSet, depth int) (Child, *ControlProperties, error) {
	def, cases, _ := p.g.Block(block).Terminator().SwitchCases()
	defaultTarget := p.label(def)

	// distinct targets in operand order, default last
	var targets []cfg.BlockID
	seen := map[cfg.BlockID]bool{defaultTarget: true}
	for _, c := range cases {
		if t := p.label(c.Target); !seen[t] {
			seen[t] = true
			targets = append(targets, t)
		}
	}
	targets = append(targets, defaultTarget)

	props := newControlProperties()
	var caseTargets []cfg.BlockID
	for _, t := range targets {
		if exits.has(t) {
			e, _ := p.g.EdgeBetween(block, t)
			props.AddExit(t, e)
			continue
		}
		caseTargets = append(caseTargets, t)
	}

	caseExits := exits.with(caseTargets...)
	isCase := make(map[cfg.BlockID]bool, len(caseTargets))
	for _, t := range caseTargets {
		isCase[t] = true
	}

	parsed := make(map[cfg.BlockID]*switchCase, len(caseTargets))
	for _, t := range caseTargets {
		// The case's own target is an exit too: branching back to it is a
		// fallthrough cycle, caught below.
		span, spanProps, err := p.parseSpan(t, caseExits, depth+2)
		if err != nil {
			return Child{}, nil, err
		}

		sc := &switchCase{target: t, children: span, props: spanProps, fallsInto: cfg.NoBlock}
		var reached []cfg.BlockID
		for _, exit := range spanProps.Targets() {
			if isCase[exit] {
				reached = append(reached, exit)
			}
		}
		if len(reached) > 1 {
			return Child{}, nil, p.fail(SwitchCaseBranchesToMultipleCases, t, "", reached...)
		}
		if len(reached) == 1 {
			sc.fallsInto = reached[0]
			spanProps.Remove(reached[0])
		}
		props.Merge(spanProps)
		parsed[t] = sc
	}

	ordered, err := p.orderCases(caseTargets, parsed)
	if err != nil {
		return Child{}, nil, err
	}

	children := []Child{BlockChild(block)}
	for _, sc := range ordered {
		children = append(children, NodeChild(p.newNode(KindCase, sc.children, depth+1, sc.props)))
	}
	return NodeChild(p.newNode(KindSwitch, children, depth, props)), props, nil
}

// orderCases links cases through their fallthrough targets and emits each
// chain from its head, so a case always directly precedes the case it falls
// into.
func (p *parser) orderCases(targets []cfg.BlockID, cases map[cfg.BlockID]*switchCase) ([]*switchCase, error) {
	prev := make(map[cfg.BlockID]cfg.BlockID, len(targets))
	for _, t := range targets {
		next := cases[t].fallsInto
		if next == cfg.NoBlock {
			continue
		}
		if other, ok := prev[next]; ok {
			return nil, p.fail(UnstructuredControlFlow, next, "more than one case falls through into this case", other, t)
		}
		prev[next] = t
	}

	for _, t := range targets {
		cur := t
		for steps := 0; ; steps++ {
			before, ok := prev[cur]
			if !ok {
				break
			}
			if steps == len(targets) {
				return nil, p.fail(SwitchCasesFormALoop, t, "")
			}
			cur = before
		}
	}

	ordered := make([]*switchCase, 0, len(targets))
	for _, t := range targets {
		if _, ok := prev[t]; ok {
			continue
		}
		for cur := t; cur != cfg.NoBlock; cur = cases[cur].fallsInto {
			ordered = append(ordered, cases[cur])
		}
	}
	return ordered, nil
}

// newNode validates children against kind and adds the node to the arena.
// Node children get their parent link and block children their tree
// position; both are write-once.
func (p *parser) newNode(kind Kind, children []Child, depth int, exits *ControlProperties) NodeID {
	checkShape(kind, children, func(id NodeID) Kind { return p.tree.nodes[id].Kind })

	if exits == nil {
		exits = newControlProperties()
	}
	id := NodeID(len(p.tree.nodes))
	node := &Node{
		ID:         id,
		Kind:       kind,
		Children:   children,
		Depth:      depth,
		FirstBlock: p.firstBlock(children[0]),
		Parent:     NoNode,
		Index:      -1,
		exits:      exits.clone(),
	}
	p.tree.nodes = append(p.tree.nodes, node)

	for i, c := range children {
		if c.IsNode() {
			p.setParent(c.Node(), id, i)
		} else {
			p.g.Block(c.Block()).SetTreePosition(cfg.TreePosition{Node: int(id), Index: i})
		}
	}
	return id
}

// discard resets the tree positions of every block placed so far
func (p *parser) discard() {
	for _, n := range p.tree.nodes {
		for _, c := range n.Children {
			if !c.IsNode() {
				p.g.Block(c.Block()).ResetTreePosition()
			}
		}
	}
	p.tree.nodes = nil
}

func (p *parser) setParent(child, parent NodeID, index int) {
	n := p.tree.nodes[child]
	if n.Index != -1 {
		panic(fmt.Sprintf("structure: node %d already has parent %d", child, n.Parent))
	}
	n.Parent = parent
	n.Index = index
}

func (p *parser) firstBlock(c Child) cfg.BlockID {
	if c.IsNode() {
		return p.tree.nodes[c.Node()].FirstBlock
	}
	return c.Block()
}
