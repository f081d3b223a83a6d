package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"shaderflow/internal/cfg"
	"shaderflow/internal/ir"
	"shaderflow/internal/pipeline"
	"shaderflow/internal/structure"
)

var nodeSymbolKinds = map[structure.Kind]protocol.SymbolKind{
	structure.KindRoot:     protocol.SymbolKindFunction,
	structure.KindIf:       protocol.SymbolKindObject,
	structure.KindIfPart:   protocol.SymbolKindKey,
	structure.KindLoop:     protocol.SymbolKindArray,
	structure.KindLoopBody: protocol.SymbolKindKey,
	structure.KindContinue: protocol.SymbolKindKey,
	structure.KindSwitch:   protocol.SymbolKindEnum,
	structure.KindCase:     protocol.SymbolKindEnumMember,
}

func documentSymbols(doc *document) []protocol.DocumentSymbol {
	symbols := make([]protocol.DocumentSymbol, 0, len(doc.results))
	for i := range doc.results {
		symbols = append(symbols, functionSymbol(&doc.results[i]))
	}
	return symbols
}

// functionSymbol nests the structure tree under the function. Functions that
// failed to structurize list their blocks flat.
func functionSymbol(r *pipeline.Result) protocol.DocumentSymbol {
	sym := protocol.DocumentSymbol{
		Name: r.Function.Name,
		Kind: protocol.SymbolKindFunction,
	}
	if r.Err != nil {
		detail := r.Err.Error()
		sym.Detail = &detail
	}

	switch {
	case r.Tree != nil:
		sym.Children = childSymbols(r.Tree, r.Tree.Root())
	case r.CFG != nil:
		for _, b := range r.CFG.Blocks() {
			sym.Children = append(sym.Children, blockSymbol(r.CFG, b.ID))
		}
	}
	sym.Range, sym.SelectionRange = enclose(sym.Children)
	return sym
}

func childSymbols(t *structure.Tree, n *structure.Node) []protocol.DocumentSymbol {
	symbols := make([]protocol.DocumentSymbol, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsNode() {
			symbols = append(symbols, blockSymbol(t.CFG(), c.Block()))
			continue
		}

		child := t.Node(c.Node())
		sym := protocol.DocumentSymbol{
			Name:     child.Kind.String() + " " + t.CFG().Block(child.FirstBlock).String(),
			Kind:     nodeSymbolKinds[child.Kind],
			Children: childSymbols(t, child),
		}
		sym.Range, sym.SelectionRange = enclose(sym.Children)
		symbols = append(symbols, sym)
	}
	return symbols
}

func blockSymbol(g *cfg.CFG, id cfg.BlockID) protocol.DocumentSymbol {
	b := g.Block(id)
	name := b.String()

	last := b.Pos
	if n := len(b.Instructions); n > 0 && b.Instructions[n-1].Pos.IsValid() {
		last = b.Instructions[n-1].Pos
	}

	detail := b.Terminator().Name()
	start := toPosition(b.Pos)
	return protocol.DocumentSymbol{
		Name:   name,
		Detail: &detail,
		Kind:   protocol.SymbolKindNamespace,
		Range: protocol.Range{
			Start: protocol.Position{Line: start.Line},
			End:   protocol.Position{Line: toPosition(last).Line + 1},
		},
		SelectionRange: protocol.Range{
			Start: start,
			End:   protocol.Position{Line: start.Line, Character: start.Character + uint32(len(name))},
		},
	}
}

// enclose returns the range spanning all symbols and the selection range of
// the first one
func enclose(symbols []protocol.DocumentSymbol) (protocol.Range, protocol.Range) {
	if len(symbols) == 0 {
		return protocol.Range{}, protocol.Range{}
	}
	r := symbols[0].Range
	for _, s := range symbols[1:] {
		if before(s.Range.Start, r.Start) {
			r.Start = s.Range.Start
		}
		if before(r.End, s.Range.End) {
			r.End = s.Range.End
		}
	}
	return r, symbols[0].SelectionRange
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

func toPosition(pos ir.Position) protocol.Position {
	if !pos.IsValid() {
		return protocol.Position{}
	}
	return protocol.Position{Line: uint32(pos.Line - 1), Character: uint32(pos.Column - 1)}
}
