package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"shaderflow/grammar"
	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
	"shaderflow/internal/parser"
	"shaderflow/internal/pipeline"
)

// document is the analysis of one open text document
type document struct {
	uri         protocol.DocumentUri
	program     *grammar.Program // nil when the text does not parse
	module      *ir.Module
	results     []pipeline.Result
	diagnostics []errors.CompilerError
}

func analyze(uri protocol.DocumentUri, path, text string, opts pipeline.Options) *document {
	doc := &document{uri: uri}

	program, err := grammar.Parse(path, text)
	if err != nil {
		doc.diagnostics = append(doc.diagnostics, parser.SyntaxDiagnostic(path, err))
		return doc
	}
	doc.program = program

	module, diags := parser.Lower(path, program)
	doc.module = module
	doc.diagnostics = append(doc.diagnostics, diags...)

	doc.results = pipeline.Run(module, opts)
	doc.diagnostics = append(doc.diagnostics, pipeline.Diagnostics(doc.results)...)
	return doc
}
