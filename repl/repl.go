// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"shaderflow/internal/errors"
	"shaderflow/internal/parser"
	"shaderflow/internal/pipeline"
	"shaderflow/internal/structure"
)

const (
	PROMPT       = ">> "
	CONTINUATION = ".. "
)

const help = `Enter assembly, one instruction per line. A blank line structurizes it.
Commands:
  :blocks  toggle instruction listing under each block
  :help    show this help
  :quit    exit
`

// Start reads assembly from in until EOF or :quit and writes the structure
// tree of each entered snippet to out
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	showBlocks := false
	var buf []string

	for {
		if len(buf) == 0 {
			fmt.Fprint(out, PROMPT)
		} else {
			fmt.Fprint(out, CONTINUATION)
		}
		if !scanner.Scan() {
			if len(buf) > 0 {
				eval(out, strings.Join(buf, "\n"), showBlocks)
			}
			fmt.Fprintln(out)
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == ":quit" || line == ":q":
			return
		case line == ":help":
			fmt.Fprint(out, help)
		case line == ":blocks":
			showBlocks = !showBlocks
			fmt.Fprintf(out, "showing instructions: %t\n", showBlocks)
		case line == "":
			if len(buf) > 0 {
				eval(out, strings.Join(buf, "\n"), showBlocks)
				buf = buf[:0]
			}
		default:
			buf = append(buf, line)
		}
	}
}

func eval(out io.Writer, source string, showBlocks bool) {
	reporter := errors.NewErrorReporter("<repl>", source)

	module, diags := parser.ParseSource("<repl>", source)
	if module == nil {
		fmt.Fprint(out, reporter.FormatErrors(diags))
		return
	}

	results := pipeline.Run(module, pipeline.Options{})
	diags = append(diags, pipeline.Diagnostics(results)...)
	if len(diags) > 0 {
		fmt.Fprint(out, reporter.FormatErrors(diags))
	}

	for _, r := range results {
		if r.Tree == nil {
			continue
		}
		if len(results) > 1 {
			fmt.Fprintf(out, "; function %s\n", r.Function.Name)
		}
		fmt.Fprint(out, structure.NewPrinter(false, showBlocks).Print(r.Tree))
	}
}
