package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// The IR consumed by the control-flow stages is a flat, SPIR-V shaped
// instruction stream. Only the handful of opcodes that shape control flow are
// interpreted; everything else is carried through as an opaque instruction.

// ID is a result id. Zero means "no result".
type ID uint32

// Op is an instruction opcode. Values match the SPIR-V opcode numbering.
type Op uint16

const (
	OpNop                      Op = 0
	OpUnknown                  Op = 0xffff
	OpLine                     Op = 8
	OpFunction                 Op = 54
	OpFunctionParameter        Op = 55
	OpFunctionEnd              Op = 56
	OpPhi                      Op = 245
	OpLoopMerge                Op = 246
	OpSelectionMerge           Op = 247
	OpLabel                    Op = 248
	OpBranch                   Op = 249
	OpBranchConditional        Op = 250
	OpSwitch                   Op = 251
	OpKill                     Op = 252
	OpReturn                   Op = 253
	OpReturnValue              Op = 254
	OpUnreachable              Op = 255
	OpNoLine                   Op = 317
	OpTerminateInvocation      Op = 4416
	OpDemoteToHelperInvocation Op = 5380
)

var opNames = map[Op]string{
	OpNop:                      "OpNop",
	OpLine:                     "OpLine",
	OpFunction:                 "OpFunction",
	OpFunctionParameter:        "OpFunctionParameter",
	OpFunctionEnd:              "OpFunctionEnd",
	OpPhi:                      "OpPhi",
	OpLoopMerge:                "OpLoopMerge",
	OpSelectionMerge:           "OpSelectionMerge",
	OpLabel:                    "OpLabel",
	OpBranch:                   "OpBranch",
	OpBranchConditional:        "OpBranchConditional",
	OpSwitch:                   "OpSwitch",
	OpKill:                     "OpKill",
	OpReturn:                   "OpReturn",
	OpReturnValue:              "OpReturnValue",
	OpUnreachable:              "OpUnreachable",
	OpNoLine:                   "OpNoLine",
	OpTerminateInvocation:      "OpTerminateInvocation",
	OpDemoteToHelperInvocation: "OpDemoteToHelperInvocation",
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", uint16(op))
}

// LookupOp resolves a mnemonic such as "OpBranch". Mnemonics the IR does not
// interpret resolve to OpUnknown.
func LookupOp(mnemonic string) Op {
	if op, ok := opsByName[mnemonic]; ok {
		return op
	}
	return OpUnknown
}

// Position locates an instruction in its textual source, when there is one.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// OperandKind categorizes instruction operands
type OperandKind uint8

const (
	OperandID OperandKind = iota
	OperandLiteral
	OperandFloat
	OperandString
	OperandEnum
)

// Operand is a single instruction operand. Only the field matching Kind is
// meaningful, except Text which always holds the source spelling.
type Operand struct {
	Kind    OperandKind
	ID      ID
	Literal int64
	Text    string
}

// IDOperand creates an id reference operand
func IDOperand(id ID) Operand {
	return Operand{Kind: OperandID, ID: id}
}

// LiteralOperand creates an integer literal operand
func LiteralOperand(v int64) Operand {
	return Operand{Kind: OperandLiteral, Literal: v, Text: strconv.FormatInt(v, 10)}
}

// EnumOperand creates an enumerant operand such as "None" or "Unroll"
func EnumOperand(name string) Operand {
	return Operand{Kind: OperandEnum, Text: name}
}

// Instruction is one decoded instruction.
type Instruction struct {
	Op       Op
	Mnemonic string // source spelling, kept for opcodes the IR does not interpret
	Result   ID
	Operands []Operand
	Pos      Position
}

// Name returns the opcode mnemonic
func (i *Instruction) Name() string {
	if i.Op == OpUnknown && i.Mnemonic != "" {
		return i.Mnemonic
	}
	return i.Op.String()
}

// Function is the instruction stream of a single function body, without the
// OpFunction / OpFunctionParameter / OpFunctionEnd framing.
type Function struct {
	Name         string
	Result       ID
	Instructions []Instruction
	Names        map[ID]string // source spellings of ids, without the leading '%'
}

// NameOf returns the source name of id, or its number when it has none.
func (f *Function) NameOf(id ID) string {
	if f != nil && f.Names != nil {
		if name, ok := f.Names[id]; ok {
			return name
		}
	}
	return strconv.FormatUint(uint64(id), 10)
}

// Module is a list of functions read from one source.
type Module struct {
	Name      string
	Functions []*Function
}

// Function returns the function with the given name, or nil
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// SwitchCase is one literal -> label pair of an OpSwitch
type SwitchCase struct {
	Literal int64
	Target  ID
}

func (c SwitchCase) String() string {
	return fmt.Sprintf("%d -> %d", c.Literal, c.Target)
}

func formatOperands(ops []Operand, names func(ID) string) string {
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OperandID:
			parts = append(parts, "%"+names(op.ID))
		case OperandString:
			parts = append(parts, strconv.Quote(op.Text))
		default:
			parts = append(parts, op.Text)
		}
	}
	return strings.Join(parts, " ")
}
