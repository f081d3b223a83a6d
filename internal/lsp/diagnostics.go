package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"shaderflow/internal/errors"
)

// ConvertDiagnostics transforms compiler diagnostics into LSP diagnostics.
// Unreachable-block warnings are tagged so editors can fade the block.
func ConvertDiagnostics(diags []errors.CompilerError) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(diags))

	for _, d := range diags {
		line, column := 0, 0
		if d.Position.IsValid() {
			line = d.Position.Line - 1 // Convert to 0-based indexing
			column = d.Position.Column - 1
		}
		length := d.Length
		if length <= 0 {
			length = 1
		}

		severity := protocol.DiagnosticSeverityError
		if d.IsWarning() {
			severity = protocol.DiagnosticSeverityWarning
		}

		diagnostic := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(column)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(column + length)},
			},
			Severity: &severity,
			Source:   ptrString("shaderflow"),
			Message:  d.Message,
		}
		if d.Code != "" {
			diagnostic.Code = &protocol.IntegerOrString{Value: d.Code}
		}
		if d.Code == errors.WarningUnreachableBlock {
			diagnostic.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
		}
		diagnostics = append(diagnostics, diagnostic)
	}

	return diagnostics
}

func ptrString(s string) *string {
	return &s
}
