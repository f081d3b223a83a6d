package ir

import (
	"fmt"
	"strings"
)

// Printer provides pretty-printing for IR
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the disassembly of a module
func Print(module *Module) string {
	p := NewPrinter()
	for i, fn := range module.Functions {
		if i > 0 {
			p.writeLine("")
		}
		p.printFunction(fn)
	}
	return p.output.String()
}

// PrintFunction returns the disassembly of a single function body
func PrintFunction(fn *Function) string {
	p := NewPrinter()
	p.printFunction(fn)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printFunction(fn *Function) {
	p.writeLine("; function %s", fn.Name)
	for i := range fn.Instructions {
		inst := &fn.Instructions[i]
		if inst.Op == OpLabel {
			p.indent = 0
			p.writeLine("%s", p.instructionString(fn, inst))
			p.indent = 1
			continue
		}
		p.writeLine("%s", p.instructionString(fn, inst))
	}
	p.indent = 0
}

func (p *Printer) instructionString(fn *Function, inst *Instruction) string {
	var sb strings.Builder
	if inst.Result != 0 {
		sb.WriteString("%")
		sb.WriteString(fn.NameOf(inst.Result))
		sb.WriteString(" = ")
	}
	sb.WriteString(inst.Name())
	if operands := formatOperands(inst.Operands, fn.NameOf); operands != "" {
		sb.WriteString(" ")
		sb.WriteString(operands)
	}
	return sb.String()
}

// FormatInstruction renders inst using the function's id names
func (f *Function) FormatInstruction(inst *Instruction) string {
	return NewPrinter().instructionString(f, inst)
}

// String renders the instruction with numeric ids
func (i *Instruction) String() string {
	return NewPrinter().instructionString(&Function{}, i)
}

func (f *Function) String() string { return PrintFunction(f) }

func (m *Module) String() string { return Print(m) }
