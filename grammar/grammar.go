package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

type Program struct {
	Pos          lexer.Position
	EndPos       lexer.Position
	Instructions []*Instruction `parser:"( @@ | Newline )*"`
}

type Instruction struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Result   *PosIdRef  `parser:"( @@ \"=\" )?"`
	Opcode   PosIdent   `parser:"@@"`
	Operands []*Operand `parser:"@@* Newline"`
}

type PosIdRef struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Value  string `parser:"@IdRef"`
}

type PosIdent struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Value  string `parser:"@Ident"`
}

type Operand struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	IdRef   *string `parser:"  @IdRef"`
	Float   *string `parser:"| @Float"`
	Integer *string `parser:"| @Integer"`
	Str     *string `parser:"| @String"`
	Enum    *string `parser:"| @Ident"`
}

// Name returns the id name without its leading '%'
func (r *PosIdRef) Name() string {
	return r.Value[1:]
}
