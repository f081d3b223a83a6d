package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// AsmLexer tokenizes SPIR-V style assembly: one instruction per line,
// `;` comments, `%name` ids.
var AsmLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments run to the end of the line
		{Name: "Comment", Pattern: `;[^\n]*`, Action: nil},

		// Quoted string operands, e.g. OpString or OpName
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`, Action: nil},

		// Result ids and id operands
		{Name: "IdRef", Pattern: `%[a-zA-Z0-9_.]+`, Action: nil},

		// Numeric literals (float before integer)
		{Name: "Float", Pattern: `[-+]?[0-9]+\.[0-9]+([eE][-+]?[0-9]+)?`, Action: nil},
		{Name: "Integer", Pattern: `[-+]?(0x[0-9a-fA-F]+|[0-9]+)`, Action: nil},

		// Opcodes and enumerants; masks are written Flatten|DontFlatten
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(\|[a-zA-Z_][a-zA-Z0-9_]*)*`, Action: nil},

		{Name: "Punct", Pattern: `=`, Action: nil},

		// Newlines end instructions, so they are tokens of their own
		{Name: "Newline", Pattern: `\n`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r]+`, Action: nil},
	},
})
