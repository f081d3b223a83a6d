package structure

import (
	"fmt"
	"strings"

	"shaderflow/internal/cfg"
	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
)

// ErrorKind classifies a TranslationError
type ErrorKind int

const (
	// A selection merge is followed by a terminator other than a conditional
	// branch or a switch.
	InvalidTerminationInstructionFollowingMergeInstruction ErrorKind = iota + 1
	// A switch case reaches more than one other case.
	SwitchCaseBranchesToMultipleCases
	// Switch case fallthrough links form a cycle.
	SwitchCasesFormALoop
	// The merge instructions do not describe the control flow, e.g. a block
	// without a merge branches to two blocks that are both still unplaced.
	UnstructuredControlFlow
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidTerminationInstructionFollowingMergeInstruction:
		return "InvalidTerminationInstructionFollowingMergeInstruction"
	case SwitchCaseBranchesToMultipleCases:
		return "SwitchCaseBranchesToMultipleCases"
	case SwitchCasesFormALoop:
		return "SwitchCasesFormALoop"
	case UnstructuredControlFlow:
		return "UnstructuredControlFlow"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// TranslationError reports control flow that cannot be structured. It carries
// the offending instructions so callers can point at them.
type TranslationError struct {
	Kind       ErrorKind
	Block      cfg.BlockID
	BlockName  string
	Merge      *ir.Instruction // merge instruction of Block, when relevant
	Terminator *ir.Instruction // termination instruction of Block
	Targets    []string        // names of the blocks involved
	Detail     string
}

func (e *TranslationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at %%%s", e.Kind, e.BlockName)
	if len(e.Targets) > 0 {
		fmt.Fprintf(&sb, " (%%%s)", strings.Join(e.Targets, ", %"))
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

// Position returns the best source position for the error
func (e *TranslationError) Position() ir.Position {
	for _, inst := range []*ir.Instruction{e.Terminator, e.Merge} {
		if inst != nil && inst.Pos.IsValid() {
			return inst.Pos
		}
	}
	return ir.Position{}
}

// Diagnostic converts the error into a reportable CompilerError
func (e *TranslationError) Diagnostic() errors.CompilerError {
	pos := e.Position()
	switch e.Kind {
	case InvalidTerminationInstructionFollowingMergeInstruction:
		name := ""
		if e.Terminator != nil {
			name = e.Terminator.Name()
		}
		return errors.InvalidTerminationAfterMerge(name, pos)
	case SwitchCaseBranchesToMultipleCases:
		return errors.SwitchCaseMultipleTargets(e.BlockName, e.Targets, pos)
	case SwitchCasesFormALoop:
		return errors.SwitchCasesFormLoop(e.BlockName, pos)
	default:
		return errors.UnstructuredControlFlow(e.BlockName, e.Detail, pos)
	}
}

func (p *parser) fail(kind ErrorKind, block cfg.BlockID, detail string, targets ...cfg.BlockID) *TranslationError {
	bb := p.g.Block(block)
	err := &TranslationError{
		Kind:       kind,
		Block:      block,
		BlockName:  bb.Name,
		Merge:      bb.Merge(),
		Terminator: bb.Terminator(),
		Detail:     detail,
	}
	for _, t := range targets {
		err.Targets = append(err.Targets, p.g.Block(t).Name)
	}
	log.Debugf("structuring failed: %s", err)
	return err
}
