package errors

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"shaderflow/internal/ir"
)

func TestErrorReporter(t *testing.T) {
	source := `%entry = OpLabel
OpBranch %mrege
%merge = OpLabel
OpReturn`

	reporter := NewErrorReporter("test.spvasm", source)

	err := UndefinedLabel("mrege", ir.Position{Line: 2, Column: 10}, []string{"entry", "merge"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUndefinedLabel+"]")
	assert.Contains(t, formatted, "undefined label '%mrege'")
	assert.Contains(t, formatted, "test.spvasm:2:10")
	assert.Contains(t, formatted, "OpBranch %mrege")
	assert.Contains(t, formatted, "did you mean '%merge'?")
}

func TestUndefinedLabelSuggestions(t *testing.T) {
	pos := ir.Position{Line: 1, Column: 1}

	err := UndefinedLabel("body", pos, []string{"bodx", "boda", "header"})
	assert.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "one of")

	err = UndefinedLabel("zzz", pos, []string{"header"})
	assert.Empty(t, err.Suggestions)
}

func TestErrorWithoutPosition(t *testing.T) {
	reporter := NewErrorReporter("shader.spvasm", "")

	formatted := reporter.FormatError(EmptyFunction("main"))
	assert.Contains(t, formatted, "error[E0201]")
	assert.Contains(t, formatted, "--> shader.spvasm")
	assert.Contains(t, formatted, "note:")
	assert.NotContains(t, formatted, ":0:0")
}

func TestCompilerErrorString(t *testing.T) {
	err := ExpectedLabel("OpReturn", ir.Position{Filename: "a.spvasm", Line: 4, Column: 1})
	assert.Equal(t, "a.spvasm:4:1: error[E0202]: expected OpLabel, found OpReturn", err.Error())

	err = EmptyFunction("f")
	assert.Equal(t, "error[E0201]: function 'f' has no instructions", err.Error())
}

func TestWarningFormatting(t *testing.T) {
	source := `%x = OpFoo %y`
	reporter := NewErrorReporter("test.spvasm", source)

	err := UnknownOpcode("OpFoo", ir.Position{Line: 1, Column: 6})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning[E0101]")
	assert.Contains(t, formatted, "no effect on control flow")
	assert.True(t, err.IsWarning())
}

func TestFormatErrorsSummary(t *testing.T) {
	reporter := NewErrorReporter("s.spvasm", "OpReturn")
	pos := ir.Position{Line: 1, Column: 1}

	out := reporter.FormatErrors([]CompilerError{
		ExpectedLabel("OpReturn", pos),
		UnreachableBlock("dead", pos),
	})
	assert.Contains(t, out, "1 error(s), 1 warning(s) in s.spvasm")

	out = reporter.FormatErrors([]CompilerError{UnreachableBlock("dead", pos)})
	assert.Contains(t, out, "1 warning(s) in s.spvasm")
	assert.NotContains(t, out, "error(s)")
}

func TestErrorMarkerCreation(t *testing.T) {
	reporter := NewErrorReporter("test.spvasm", `OpBranch %target`)

	marker := reporter.createMarker(10, 7, Error)

	spaces := strings.Count(marker, " ")
	assert.Equal(t, 9, spaces)
	carets := strings.Count(marker, "^")
	assert.Equal(t, 7, carets)
}

func TestStructuringDiagnostics(t *testing.T) {
	pos := ir.Position{Line: 3, Column: 1}

	err := InvalidTerminationAfterMerge("OpBranch", pos)
	assert.Equal(t, ErrorInvalidTerminationAfterMerge, err.Code)
	assert.Len(t, err.Suggestions, 2)

	err = SwitchCaseMultipleTargets("c1", []string{"c2", "c3"}, pos)
	assert.Equal(t, ErrorSwitchCaseMultipleTargets, err.Code)
	assert.Equal(t, "reachable cases: %c2, %c3", err.Notes[0])

	err = SwitchCasesFormLoop("c1", pos)
	assert.Contains(t, err.Message, "'%c1'")
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("merge", "merge"))
	assert.Equal(t, 1, levenshteinDistance("merge", "merga"))
	assert.Equal(t, 1, levenshteinDistance("merge", "mere"))
	assert.Equal(t, 5, levenshteinDistance("merge", ""))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, "Assembly", GetErrorCategory(ErrorSyntax))
	assert.Equal(t, "Control Flow Graph", GetErrorCategory(ErrorUndefinedLabel))
	assert.Equal(t, "Structuring", GetErrorCategory(ErrorSwitchCasesFormLoop))
	assert.Equal(t, "Warning", GetErrorCategory(WarningUnreachableBlock))
	assert.Equal(t, "Switch cases form a loop", GetErrorDescription(ErrorSwitchCasesFormLoop))
	assert.False(t, IsWarning(ErrorExpectedLabel))
}

func TestMarkerPointsAtLabelOperand(t *testing.T) {
	color.NoColor = true
	source := `%entry = OpLabel
OpBranch %mrege
%merge = OpLabel
OpReturn`
	reporter := NewErrorReporter("test.spvasm", source)

	err := UndefinedLabel("mrege", ir.Position{Line: 2, Column: 1}, []string{"entry", "merge"})
	formatted := reporter.FormatError(err)
	assert.Contains(t, formatted, "│ "+strings.Repeat(" ", 9)+"^^^^^^\n")
	assert.Contains(t, formatted, "test.spvasm:2:1")
}

func TestSpan(t *testing.T) {
	reporter := NewErrorReporter("s.spvasm", "")
	line := "OpBranchConditional %c %merge_2 %merge"
	pos := ir.Position{Line: 1, Column: 1}

	column, length := reporter.span(UndefinedLabel("merge", pos, nil), line)
	assert.Equal(t, 33, column)
	assert.Equal(t, 6, length)

	column, length = reporter.span(UndefinedLabel("other", pos, nil), line)
	assert.Equal(t, 1, column)
	assert.Equal(t, 1, length)

	column, length = reporter.span(InvalidTerminationAfterMerge("OpBranchConditional", pos), line)
	assert.Equal(t, 1, column)
	assert.Equal(t, len("OpBranchConditional"), length)

	column, length = reporter.span(UnreachableBlock("dead", pos), "%dead = OpLabel")
	assert.Equal(t, 1, column)
	assert.Equal(t, 5, length)

	err := SwitchCaseMultipleTargets("a", []string{"b", "c"}, ir.Position{Line: 1, Column: 10})
	column, length = reporter.span(err, "         OpBranchConditional %cond %b %c")
	assert.Equal(t, 36, column)
	assert.Equal(t, 2, length)
}
