package errors

import (
	"fmt"
	"strings"

	"shaderflow/internal/ir"
)

// DiagnosticBuilder provides a fluent interface for creating diagnostics with suggestions
type DiagnosticBuilder struct {
	err CompilerError
}

// NewDiagnostic creates a new error builder
func NewDiagnostic(code, message string, pos ir.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewWarning creates a new warning builder
func NewWarning(code, message string, pos ir.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// WithLength sets the length of the error span
func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.err.Length = length
	return b
}

// WithLabel names the label the error is about so the reporter can point at it
func (b *DiagnosticBuilder) WithLabel(name string) *DiagnosticBuilder {
	b.err.Label = name
	return b
}

// WithSuggestion adds a suggestion to the error
func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error
func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error
func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error
func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// Assembly text errors

// SyntaxError creates an error for text the assembly grammar rejects
func SyntaxError(message string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorSyntax, message, pos).
		WithHelp("each line holds one instruction: [%result =] OpName operands...").
		Build()
}

// UnknownOpcode creates a warning for mnemonics the IR does not model
func UnknownOpcode(mnemonic string, pos ir.Position) CompilerError {
	return NewWarning(ErrorUnknownOpcode, fmt.Sprintf("unknown opcode '%s'", mnemonic), pos).
		WithLength(len(mnemonic)).
		WithNote("the instruction is kept but has no effect on control flow").
		Build()
}

// UnterminatedFunction creates an error for an OpFunction without OpFunctionEnd
func UnterminatedFunction(name string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorUnterminatedFunction, fmt.Sprintf("function '%s' is missing OpFunctionEnd", name), pos).
		WithSuggestion("add OpFunctionEnd after the last block").
		Build()
}

// InvalidLiteral creates an error for an integer operand that does not fit
func InvalidLiteral(text string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorInvalidLiteral, fmt.Sprintf("literal '%s' is out of range", text), pos).
		WithLength(len(text)).
		Build()
}

// CFG construction errors

// EmptyFunction creates an error for a function body with no instructions
func EmptyFunction(name string) CompilerError {
	return NewDiagnostic(ErrorEmptyFunction, fmt.Sprintf("function '%s' has no instructions", name), ir.Position{}).
		WithNote("a function body must contain at least one labeled block").
		Build()
}

// ExpectedLabel creates an error for an instruction that appears outside any block
func ExpectedLabel(found string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorExpectedLabel, fmt.Sprintf("expected OpLabel, found %s", found), pos).
		WithLength(len(found)).
		WithSuggestion("start a new block with '%name = OpLabel'").
		WithNote("every block must begin with OpLabel and end with a termination instruction").
		Build()
}

// UnterminatedBlock creates an error for a block that runs off the end of the function
func UnterminatedBlock(label string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorUnterminatedBlock, fmt.Sprintf("block '%%%s' has no termination instruction", label), pos).
		WithSuggestion("end the block with OpBranch, OpBranchConditional, OpSwitch, OpReturn, OpKill or OpUnreachable").
		Build()
}

// MissingBranchTargets creates an error for a terminator whose targets cannot be decoded
func MissingBranchTargets(opcode string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorMissingBranchTargets, fmt.Sprintf("%s has no resolvable branch targets", opcode), pos).
		WithLength(len(opcode)).
		WithHelp("branch targets must be %id operands naming labels").
		Build()
}

// UndefinedLabel creates an error for a branch to a label the function does not define
func UndefinedLabel(name string, pos ir.Position, labels []string) CompilerError {
	builder := NewDiagnostic(ErrorUndefinedLabel, fmt.Sprintf("undefined label '%%%s'", name), pos).
		WithLabel(name)

	similar := findSimilarNames(name, labels)
	if len(similar) == 1 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%%%s'?", similar[0]))
	} else if len(similar) > 1 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%%%s'?", strings.Join(similar, "', '%")))
	}

	return builder.Build()
}

// DuplicateLabel creates an error for a label defined by two OpLabel instructions
func DuplicateLabel(name string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorDuplicateLabel, fmt.Sprintf("label '%%%s' is defined more than once", name), pos).
		WithLabel(name).
		WithSuggestion("rename one of the blocks").
		Build()
}

// Structuring errors

// InvalidTerminationAfterMerge creates an error for a selection merge that is
// not followed by a conditional branch or a switch
func InvalidTerminationAfterMerge(terminator string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorInvalidTerminationAfterMerge,
		fmt.Sprintf("invalid termination instruction %s following OpSelectionMerge", terminator), pos).
		WithLength(len(terminator)).
		WithSuggestion("use OpBranchConditional or OpSwitch after OpSelectionMerge").
		WithSuggestion("or remove the OpSelectionMerge").
		Build()
}

// SwitchCaseMultipleTargets creates an error for a case that falls through into more than one case
func SwitchCaseMultipleTargets(caseLabel string, targets []string, pos ir.Position) CompilerError {
	builder := NewDiagnostic(ErrorSwitchCaseMultipleTargets,
		fmt.Sprintf("switch case '%%%s' branches to multiple cases", caseLabel), pos)
	if len(targets) > 0 {
		builder = builder.WithLabel(targets[0])
	}
	return builder.
		WithNote(fmt.Sprintf("reachable cases: %%%s", strings.Join(targets, ", %"))).
		WithHelp("a case may fall through into at most one other case").
		Build()
}

// SwitchCasesFormLoop creates an error for fallthrough links that form a cycle
func SwitchCasesFormLoop(caseLabel string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorSwitchCasesFormLoop,
		fmt.Sprintf("switch cases form a loop through '%%%s'", caseLabel), pos).
		WithHelp("fallthrough between cases must not return to an earlier case").
		Build()
}

// UnstructuredControlFlow creates an error for control flow the merge
// instructions do not describe
func UnstructuredControlFlow(blockLabel, detail string, pos ir.Position) CompilerError {
	return NewDiagnostic(ErrorUnstructuredControlFlow,
		fmt.Sprintf("unstructured control flow at '%%%s': %s", blockLabel, detail), pos).
		WithSuggestion("add OpSelectionMerge or OpLoopMerge before the branch").
		WithNote("only reducible control flow with merge instructions can be structured").
		Build()
}

// UnreachableBlock creates a warning for a block no path from the entry reaches
func UnreachableBlock(label string, pos ir.Position) CompilerError {
	return NewWarning(WarningUnreachableBlock, fmt.Sprintf("block '%%%s' is unreachable", label), pos).
		WithLabel(label).
		WithNote("unreachable blocks are left out of the structure tree").
		Build()
}

// Helper functions

func findSimilarNames(target string, candidates []string) []string {
	var similar []string

	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}

	return similar
}

// Simple Levenshtein distance for finding similar label names
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
