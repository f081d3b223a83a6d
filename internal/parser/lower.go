package parser

import (
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"

	"shaderflow/grammar"
	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
)

type lowerer struct {
	filename    string
	module      *ir.Module
	diagnostics []errors.CompilerError

	builder *ir.FunctionBuilder
	start   ir.Position
	warned  map[string]bool
}

func newLowerer(filename string) *lowerer {
	return &lowerer{
		filename: filename,
		module:   &ir.Module{Name: filename},
		warned:   make(map[string]bool),
	}
}

func (l *lowerer) lowerProgram(program *grammar.Program) {
	framed := false
	for _, inst := range program.Instructions {
		if inst.Opcode.Value == "OpFunction" {
			framed = true
			break
		}
	}

	if !framed {
		l.builder = ir.NewFunctionBuilder("main")
		for _, inst := range program.Instructions {
			l.lowerInstruction(inst)
		}
		l.finish()
		return
	}

	for _, inst := range program.Instructions {
		switch inst.Opcode.Value {
		case "OpFunction":
			if l.builder != nil {
				l.unterminated()
			}
			l.begin(inst)
		case "OpFunctionParameter":
			// parameters carry no control flow
		case "OpFunctionEnd":
			if l.builder == nil {
				l.diagnostics = append(l.diagnostics, errors.SyntaxError("OpFunctionEnd outside a function", l.pos(inst.Pos)))
				continue
			}
			l.finish()
		default:
			if l.builder != nil {
				l.lowerInstruction(inst)
			}
		}
	}
	if l.builder != nil {
		l.unterminated()
	}
}

func (l *lowerer) begin(inst *grammar.Instruction) {
	name := "main"
	if inst.Result != nil {
		name = inst.Result.Name()
	}
	l.builder = ir.NewFunctionBuilder(name)
	l.start = l.pos(inst.Pos)
	if inst.Result != nil {
		l.builder.SetResult(name)
	}
}

func (l *lowerer) finish() {
	l.module.Functions = append(l.module.Functions, l.builder.Function())
	l.builder = nil
}

func (l *lowerer) unterminated() {
	l.diagnostics = append(l.diagnostics, errors.UnterminatedFunction(l.builder.Function().Name, l.start))
	l.finish()
}

func (l *lowerer) lowerInstruction(inst *grammar.Instruction) {
	pos := l.pos(inst.Pos)
	op := ir.LookupOp(inst.Opcode.Value)
	if op == ir.OpUnknown && !l.warned[inst.Opcode.Value] {
		l.warned[inst.Opcode.Value] = true
		l.diagnostics = append(l.diagnostics, errors.UnknownOpcode(inst.Opcode.Value, pos))
	}

	out := ir.Instruction{
		Op:       op,
		Mnemonic: inst.Opcode.Value,
		Pos:      pos,
	}
	if inst.Result != nil {
		out.Result = l.builder.ID(inst.Result.Name())
	}
	for _, operand := range inst.Operands {
		out.Operands = append(out.Operands, l.lowerOperand(operand))
	}
	l.builder.Append(out)
}

func (l *lowerer) lowerOperand(o *grammar.Operand) ir.Operand {
	switch {
	case o.IdRef != nil:
		return ir.IDOperand(l.builder.ID(*o.IdRef))
	case o.Integer != nil:
		v, err := strconv.ParseInt(*o.Integer, 0, 64)
		if err != nil {
			l.diagnostics = append(l.diagnostics, errors.InvalidLiteral(*o.Integer, l.pos(o.Pos)))
		}
		return ir.LiteralOperand(v)
	case o.Float != nil:
		return ir.Operand{Kind: ir.OperandFloat, Text: *o.Float}
	case o.Str != nil:
		return ir.Operand{Kind: ir.OperandString, Text: *o.Str}
	default:
		return ir.EnumOperand(*o.Enum)
	}
}

func (l *lowerer) pos(p lexer.Position) ir.Position {
	return ir.Position{Filename: l.filename, Line: p.Line, Column: p.Column}
}
