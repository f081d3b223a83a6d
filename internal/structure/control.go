package structure

import (
	"slices"

	"shaderflow/internal/cfg"
)

// ControlProperties are the loose ends of a parsed span: the edges leaving it,
// grouped by the block they lead to, and the blocks inside it that return or
// kill. Targets keep the order in which they were first seen.
type ControlProperties struct {
	targets      []cfg.BlockID
	edges        map[cfg.BlockID][]cfg.EdgeID
	ReturnOrKill []cfg.BlockID
}

func newControlProperties() *ControlProperties {
	return &ControlProperties{edges: make(map[cfg.BlockID][]cfg.EdgeID)}
}

// AddExit records an edge leaving the span for target
func (cp *ControlProperties) AddExit(target cfg.BlockID, edge cfg.EdgeID) {
	edges, ok := cp.edges[target]
	if !ok {
		cp.targets = append(cp.targets, target)
	}
	if !slices.Contains(edges, edge) {
		cp.edges[target] = append(edges, edge)
	}
}

// Merge folds other into cp
func (cp *ControlProperties) Merge(other *ControlProperties) {
	for _, target := range other.targets {
		for _, e := range other.edges[target] {
			cp.AddExit(target, e)
		}
	}
	cp.ReturnOrKill = append(cp.ReturnOrKill, other.ReturnOrKill...)
}

// Remove drops target and returns the edges that led to it
func (cp *ControlProperties) Remove(target cfg.BlockID) []cfg.EdgeID {
	edges, ok := cp.edges[target]
	if !ok {
		return nil
	}
	delete(cp.edges, target)
	cp.targets = slices.DeleteFunc(cp.targets, func(b cfg.BlockID) bool { return b == target })
	return edges
}

// clone returns an independent copy of cp
func (cp *ControlProperties) clone() *ControlProperties {
	out := &ControlProperties{
		targets:      slices.Clone(cp.targets),
		edges:        make(map[cfg.BlockID][]cfg.EdgeID, len(cp.edges)),
		ReturnOrKill: slices.Clone(cp.ReturnOrKill),
	}
	for target, edges := range cp.edges {
		out.edges[target] = slices.Clone(edges)
	}
	return out
}

// Has reports whether any edge leaves the span for target
func (cp *ControlProperties) Has(target cfg.BlockID) bool {
	_, ok := cp.edges[target]
	return ok
}

// Targets returns the exit targets in first-seen order
func (cp *ControlProperties) Targets() []cfg.BlockID {
	return slices.Clone(cp.targets)
}

// Edges returns the edges that leave the span for target
func (cp *ControlProperties) Edges(target cfg.BlockID) []cfg.EdgeID {
	return cp.edges[target]
}

// Empty reports whether the span has no exit edges
func (cp *ControlProperties) Empty() bool {
	return len(cp.targets) == 0
}

// blockSet is an exit target set. It is never mutated once built: with
// returns an extended copy so each recursion level keeps its own view.
type blockSet map[cfg.BlockID]struct{}

func (s blockSet) has(b cfg.BlockID) bool {
	_, ok := s[b]
	return ok
}

func (s blockSet) with(blocks ...cfg.BlockID) blockSet {
	out := make(blockSet, len(s)+len(blocks))
	for b := range s {
		out[b] = struct{}{}
	}
	for _, b := range blocks {
		out[b] = struct{}{}
	}
	return out
}
