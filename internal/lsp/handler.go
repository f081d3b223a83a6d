package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"shaderflow/internal/pipeline"
)

var log = commonlog.GetLogger("shaderflow.lsp")

// Semantic token types advertised in the server legend; indices are used in token data
var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"function",
	"variable",
	"keyword",
	"number",
	"string",
	"enumMember",
}

// Define the set of supported semantic token modifiers
var SemanticTokenModifiers = []string{
	"declaration",
	"definition",
	"readonly",
}

// ShaderflowHandler implements the LSP server handlers for shader assembly
type ShaderflowHandler struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentUri]*document
	options   pipeline.Options
	name      string
	version   string
}

// NewShaderflowHandler creates a handler that runs the pipeline with opts
func NewShaderflowHandler(name, version string, opts pipeline.Options) *ShaderflowHandler {
	return &ShaderflowHandler{
		documents: make(map[protocol.DocumentUri]*document),
		options:   opts,
		name:      name,
		version:   version,
	}
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *ShaderflowHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			DocumentSymbolProvider: true,
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    h.name,
			Version: &h.version,
		},
	}, nil
}

// Initialized is called after the client receives the server's capabilities and completes initialization
func (h *ShaderflowHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("LSP Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request
func (h *ShaderflowHandler) Shutdown(ctx *glsp.Context) error {
	log.Info("LSP Shutdown")
	return nil
}

// SetTrace accepts trace level changes from the client
func (h *ShaderflowHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen analyzes a newly opened document and publishes its diagnostics
func (h *ShaderflowHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Infof("Opened file: %s", params.TextDocument.URI)

	doc, err := h.update(params.TextDocument.URI, params.TextDocument.Text)
	if err != nil {
		return fmt.Errorf("failed to analyze document: %w", err)
	}
	publishDiagnostics(ctx, doc)
	return nil
}

// TextDocumentDidChange re-analyzes a document after a full-content change
func (h *ShaderflowHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Infof("Changed file: %s", params.TextDocument.URI)

	var text *string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = &c.Text
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text = &c.Text
			}
		}
	}
	if text == nil {
		return nil
	}

	doc, err := h.update(params.TextDocument.URI, *text)
	if err != nil {
		return fmt.Errorf("failed to analyze document: %w", err)
	}
	publishDiagnostics(ctx, doc)
	return nil
}

// TextDocumentDidClose forgets a closed document and clears its diagnostics
func (h *ShaderflowHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Infof("Closed file: %s", params.TextDocument.URI)

	h.mu.Lock()
	delete(h.documents, params.TextDocument.URI)
	h.mu.Unlock()

	if ctx.Notify != nil {
		ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
	}
	return nil
}

// TextDocumentDocumentSymbol returns one symbol per function whose children
// follow the function's structure tree
func (h *ShaderflowHandler) TextDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc, err := h.getOrLoad(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return documentSymbols(doc), nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *ShaderflowHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc, err := h.getOrLoad(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tokens := collectSemanticTokens(doc.program)

	var data []uint32
	var prevLine, prevStart uint32

	// Encode tokens into LSP wire format (using delta-line, delta-start compression)
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}

		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

func (h *ShaderflowHandler) update(uri protocol.DocumentUri, text string) (*document, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}

	doc := analyze(uri, path, text, h.options)

	h.mu.Lock()
	h.documents[uri] = doc
	h.mu.Unlock()
	return doc, nil
}

// getOrLoad returns the analyzed document, reading it from disk when the
// client asks about a file it never opened
func (h *ShaderflowHandler) getOrLoad(ctx *glsp.Context, uri protocol.DocumentUri) (*document, error) {
	h.mu.RLock()
	doc, ok := h.documents[uri]
	h.mu.RUnlock()
	if ok {
		return doc, nil
	}

	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	doc, err = h.update(uri, string(content))
	if err != nil {
		return nil, err
	}
	publishDiagnostics(ctx, doc)
	return doc, nil
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) -> C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func publishDiagnostics(ctx *glsp.Context, doc *document) {
	if ctx == nil || ctx.Notify == nil {
		return
	}

	diagnostics := ConvertDiagnostics(doc.diagnostics)
	log.Debugf("Sending %d diagnostics for %s", len(diagnostics), doc.uri)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         doc.uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
