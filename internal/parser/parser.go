package parser

import (
	"fmt"
	"os"

	"shaderflow/grammar"
	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
)

// ParseFile reads an assembly file and lowers it to IR
func ParseFile(path string) (*ir.Module, []errors.CompilerError, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	module, diags := ParseSource(path, string(source))
	return module, diags, nil
}

// ParseSource parses assembly text and lowers it to IR. Diagnostics hold both
// errors and warnings; the module is nil only when the text does not parse.
//
// Instructions between OpFunction and OpFunctionEnd form one function each,
// named after the OpFunction result. Text without any OpFunction is taken as
// a single function body named "main".
func ParseSource(path string, source string) (*ir.Module, []errors.CompilerError) {
	program, err := grammar.Parse(path, source)
	if err != nil {
		return nil, []errors.CompilerError{SyntaxDiagnostic(path, err)}
	}

	return Lower(path, program)
}

// Lower converts an already parsed program to IR
func Lower(path string, program *grammar.Program) (*ir.Module, []errors.CompilerError) {
	l := newLowerer(path)
	l.lowerProgram(program)
	return l.module, l.diagnostics
}

// HasErrors reports whether diags contains anything above warning severity
func HasErrors(diags []errors.CompilerError) bool {
	for _, d := range diags {
		if !d.IsWarning() {
			return true
		}
	}
	return false
}

// SyntaxDiagnostic converts a grammar.Parse error into a diagnostic
func SyntaxDiagnostic(path string, err error) errors.CompilerError {
	pos, message, _ := grammar.ErrorPosition(err)
	return errors.SyntaxError(message, ir.Position{
		Filename: path,
		Line:     pos.Line,
		Column:   pos.Column,
	})
}
