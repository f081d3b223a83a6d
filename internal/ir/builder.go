package ir

import (
	"strconv"
	"strings"
)

// FunctionBuilder assembles a Function one instruction at a time, resolving
// symbolic names to ids on first use. Forward references are fine: a label can
// be branched to before it is defined.
type FunctionBuilder struct {
	fn     *Function
	ids    map[string]ID
	nextID ID
	pos    Position
}

// NewFunctionBuilder creates a builder for a function with the given name
func NewFunctionBuilder(name string) *FunctionBuilder {
	return &FunctionBuilder{
		fn: &Function{
			Name:         name,
			Instructions: []Instruction{},
			Names:        make(map[ID]string),
		},
		ids:    make(map[string]ID),
		nextID: 1,
	}
}

// ID returns the id bound to name, allocating one on first use. Purely
// numeric names ("12") keep their number when it is still free.
func (b *FunctionBuilder) ID(name string) ID {
	name = strings.TrimPrefix(name, "%")
	if id, ok := b.ids[name]; ok {
		return id
	}

	id := b.nextID
	if n, err := strconv.ParseUint(name, 10, 32); err == nil && n > 0 && !b.taken(ID(n)) {
		id = ID(n)
	}
	for b.taken(id) {
		id++
	}
	if id >= b.nextID {
		b.nextID = id + 1
	}

	b.ids[name] = id
	b.fn.Names[id] = name
	return id
}

func (b *FunctionBuilder) taken(id ID) bool {
	_, ok := b.fn.Names[id]
	return ok
}

// At sets the source position attached to subsequently added instructions
func (b *FunctionBuilder) At(pos Position) *FunctionBuilder {
	b.pos = pos
	return b
}

// Append adds a fully formed instruction
func (b *FunctionBuilder) Append(inst Instruction) {
	if !inst.Pos.IsValid() {
		inst.Pos = b.pos
	}
	b.fn.Instructions = append(b.fn.Instructions, inst)
}

// Emit adds an instruction by opcode with id operands given by name
func (b *FunctionBuilder) Emit(op Op, result string, operands ...string) {
	inst := Instruction{Op: op, Mnemonic: op.String()}
	if result != "" {
		inst.Result = b.ID(result)
	}
	for _, name := range operands {
		inst.Operands = append(inst.Operands, IDOperand(b.ID(name)))
	}
	b.Append(inst)
}

// Label starts a new block
func (b *FunctionBuilder) Label(name string) ID {
	id := b.ID(name)
	b.Append(Instruction{Op: OpLabel, Mnemonic: OpLabel.String(), Result: id})
	return id
}

// Branch adds an unconditional branch
func (b *FunctionBuilder) Branch(target string) {
	b.Emit(OpBranch, "", target)
}

// BranchConditional adds a two-way conditional branch
func (b *FunctionBuilder) BranchConditional(condition, trueLabel, falseLabel string) {
	b.Emit(OpBranchConditional, "", condition, trueLabel, falseLabel)
}

// Case pairs a switch literal with a target label name
type Case struct {
	Literal int64
	Target  string
}

// Switch adds a multi-way branch
func (b *FunctionBuilder) Switch(selector, defaultLabel string, cases ...Case) {
	inst := Instruction{
		Op:       OpSwitch,
		Mnemonic: OpSwitch.String(),
		Operands: []Operand{IDOperand(b.ID(selector)), IDOperand(b.ID(defaultLabel))},
	}
	for _, c := range cases {
		inst.Operands = append(inst.Operands, LiteralOperand(c.Literal), IDOperand(b.ID(c.Target)))
	}
	b.Append(inst)
}

// SelectionMerge declares the merge block of the selection that follows
func (b *FunctionBuilder) SelectionMerge(merge string) {
	b.Append(Instruction{
		Op:       OpSelectionMerge,
		Mnemonic: OpSelectionMerge.String(),
		Operands: []Operand{IDOperand(b.ID(merge)), EnumOperand("None")},
	})
}

// LoopMerge declares the merge block and continue target of a loop header
func (b *FunctionBuilder) LoopMerge(merge, continueTarget string) {
	b.Append(Instruction{
		Op:       OpLoopMerge,
		Mnemonic: OpLoopMerge.String(),
		Operands: []Operand{IDOperand(b.ID(merge)), IDOperand(b.ID(continueTarget)), EnumOperand("None")},
	})
}

func (b *FunctionBuilder) Return() { b.Emit(OpReturn, "") }

func (b *FunctionBuilder) ReturnValue(value string) { b.Emit(OpReturnValue, "", value) }

func (b *FunctionBuilder) Kill() { b.Emit(OpKill, "") }

func (b *FunctionBuilder) Unreachable() { b.Emit(OpUnreachable, "") }

func (b *FunctionBuilder) NoLine() { b.Emit(OpNoLine, "") }

// Line adds a debug line marker
func (b *FunctionBuilder) Line(file string, line, column int64) {
	b.Append(Instruction{
		Op:       OpLine,
		Mnemonic: OpLine.String(),
		Operands: []Operand{IDOperand(b.ID(file)), LiteralOperand(line), LiteralOperand(column)},
	})
}

// SetResult records the function's own result id
func (b *FunctionBuilder) SetResult(name string) {
	b.fn.Result = b.ID(name)
}

// Len returns the number of instructions added so far
func (b *FunctionBuilder) Len() int {
	return len(b.fn.Instructions)
}

// Function returns the assembled function
func (b *FunctionBuilder) Function() *Function {
	return b.fn
}
