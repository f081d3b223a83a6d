package grammar

import (
	"strconv"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("  ", level)
}

// String re-renders the program in canonical form: labels flush left, other
// instructions indented one level, comments and blank lines dropped.
func (p *Program) String() string {
	var b strings.Builder
	for _, inst := range p.Instructions {
		level := 1
		if inst.Opcode.Value == "OpLabel" || inst.Opcode.Value == "OpFunction" || inst.Opcode.Value == "OpFunctionEnd" {
			level = 0
		}
		b.WriteString(inst.StringWithIndent(level))
		b.WriteString("\n")
	}
	return b.String()
}

func (i *Instruction) StringWithIndent(level int) string {
	return indent(level) + i.String()
}

func (i *Instruction) String() string {
	var b strings.Builder
	if i.Result != nil {
		b.WriteString(i.Result.Value)
		b.WriteString(" = ")
	}
	b.WriteString(i.Opcode.Value)
	for _, op := range i.Operands {
		b.WriteString(" ")
		b.WriteString(op.String())
	}
	return b.String()
}

func (o *Operand) String() string {
	switch {
	case o.IdRef != nil:
		return *o.IdRef
	case o.Float != nil:
		return *o.Float
	case o.Integer != nil:
		return *o.Integer
	case o.Str != nil:
		return strconv.Quote(*o.Str)
	case o.Enum != nil:
		return *o.Enum
	}
	return ""
}
