package lsp

import (
	"github.com/alecthomas/participle/v2/lexer"

	"shaderflow/grammar"
)

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
// TokenType is an index into the SemanticTokenTypes array
// TokenModifiers is a bitmask based on SemanticTokenModifiers
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int // index into SemanticTokenTypes
	TokenModifiers int // bitmask
}

// collectSemanticTokens classifies every token of the program. Ids naming a
// block are highlighted as namespaces, ids naming a function as functions.
func collectSemanticTokens(program *grammar.Program) []SemanticToken {
	var tokens []SemanticToken

	if program == nil {
		return tokens
	}

	kinds := make(map[string]string)
	for _, inst := range program.Instructions {
		if inst.Result == nil {
			continue
		}
		switch inst.Opcode.Value {
		case "OpLabel":
			kinds[inst.Result.Value] = "namespace"
		case "OpFunction":
			kinds[inst.Result.Value] = "function"
		}
	}
	idKind := func(id string) string {
		if kind, ok := kinds[id]; ok {
			return kind
		}
		return "variable"
	}

	for _, inst := range program.Instructions {
		if inst.Result != nil {
			tokens = append(tokens, makeToken(inst.Result.Pos, inst.Result.Value, idKind(inst.Result.Value), 1)...)
		}
		tokens = append(tokens, makeToken(inst.Opcode.Pos, inst.Opcode.Value, "keyword", 0)...)

		for _, op := range inst.Operands {
			text := op.String()
			switch {
			case op.IdRef != nil:
				tokens = append(tokens, makeToken(op.Pos, text, idKind(*op.IdRef), 0)...)
			case op.Integer != nil, op.Float != nil:
				tokens = append(tokens, makeToken(op.Pos, text, "number", 0)...)
			case op.Str != nil:
				tokens = append(tokens, makeToken(op.Pos, text, "string", 0)...)
			case op.Enum != nil:
				tokens = append(tokens, makeToken(op.Pos, text, "enumMember", 0)...)
			}
		}
	}

	return tokens
}

// makeToken sizes the token by its text: EndPos would include the elided
// whitespace before the next token
func makeToken(pos lexer.Position, value, tokenType string, declModifier int) []SemanticToken {
	if value == "" {
		return nil
	}
	length := len(value)

	return []SemanticToken{{
		Line:           uint32(pos.Line - 1),   // LSP uses 0-based line numbers
		StartChar:      uint32(pos.Column - 1), // LSP uses 0-based column numbers
		Length:         uint32(length),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: declModifier << indexOf("declaration", SemanticTokenModifiers),
	}}
}

// indexOf returns the index of a string in a slice, or 0 if not found
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return 0
}
