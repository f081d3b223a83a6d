package structure

import (
	"fmt"
	"strings"
)

// Format renders the tree on one line, e.g.
//
//	Root[If[start, IfPart[then]], merge]
func (t *Tree) Format() string {
	var sb strings.Builder
	t.format(&sb, t.root)
	return sb.String()
}

func (t *Tree) format(sb *strings.Builder, id NodeID) {
	n := t.nodes[id]
	sb.WriteString(n.Kind.String())
	sb.WriteString("[")
	for i, c := range n.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		if c.IsNode() {
			t.format(sb, c.Node())
		} else {
			sb.WriteString(t.g.Block(c.Block()).Name)
		}
	}
	sb.WriteString("]")
}

func (t *Tree) String() string { return t.Format() }

// Printer renders a structure tree as an indented outline
type Printer struct {
	indent     int
	output     strings.Builder
	showDepth  bool
	showBlocks bool
}

// NewPrinter creates a printer. showDepth adds each node's nesting depth and
// showBlocks lists every block's instructions under it.
func NewPrinter(showDepth, showBlocks bool) *Printer {
	return &Printer{showDepth: showDepth, showBlocks: showBlocks}
}

// Print returns the indented outline of the tree
func Print(t *Tree) string {
	p := NewPrinter(false, false)
	return p.Print(t)
}

// Print renders t and returns the accumulated output
func (p *Printer) Print(t *Tree) string {
	p.printNode(t, t.root)
	return p.output.String()
}

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

func (p *Printer) printNode(t *Tree, id NodeID) {
	n := t.nodes[id]
	if p.showDepth {
		p.writeLine("%s (depth %d)", n.Kind, n.Depth)
	} else {
		p.writeLine("%s", n.Kind)
	}

	p.indent++
	for _, c := range n.Children {
		if c.IsNode() {
			p.printNode(t, c.Node())
			continue
		}
		block := t.g.Block(c.Block())
		p.writeLine("%%%s", block.Name)
		if p.showBlocks {
			p.indent++
			fn := t.g.Function()
			for i := range block.Instructions {
				p.writeLine("%s", fn.FormatInstruction(&block.Instructions[i]))
			}
			p.indent--
		}
	}
	p.indent--
}
