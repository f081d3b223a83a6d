// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"shaderflow/internal/config"
	"shaderflow/internal/lsp"
	"shaderflow/internal/pipeline"
)

const lsName = "shaderflow" // Name identifier for the language server

var (
	version = "0.1.0"        // Server version
	handler protocol.Handler // Protocol handler instance (wired up below)
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Println("Error loading configuration, using defaults:", err)
		cfg = config.DefaultConfig()
	}

	// Logs go to stderr or the configured file; stdout carries the protocol
	commonlog.Configure(cfg.Verbosity, cfg.LogFilePath())

	shaderflowHandler := lsp.NewShaderflowHandler(lsName, version, pipeline.Options{Parallel: cfg.Parallel})

	handler = protocol.Handler{
		Initialize:                     shaderflowHandler.Initialize,
		Initialized:                    shaderflowHandler.Initialized,
		Shutdown:                       shaderflowHandler.Shutdown,
		SetTrace:                       shaderflowHandler.SetTrace,
		TextDocumentDidOpen:            shaderflowHandler.TextDocumentDidOpen,
		TextDocumentDidClose:           shaderflowHandler.TextDocumentDidClose,
		TextDocumentDidChange:          shaderflowHandler.TextDocumentDidChange,
		TextDocumentDocumentSymbol:     shaderflowHandler.TextDocumentDocumentSymbol,
		TextDocumentSemanticTokensFull: shaderflowHandler.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting shaderflow LSP server...")

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting shaderflow LSP server:", err)
		os.Exit(1)
	}
}
