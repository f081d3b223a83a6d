// SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func run(t *testing.T, input string) string {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	Start(strings.NewReader(input), &out)
	return out.String()
}

func TestStartPrintsTree(t *testing.T) {
	out := run(t, strings.Join([]string{
		"%b1 = OpLabel",
		"OpBranch %b2",
		"%b2 = OpLabel",
		"OpReturn",
		"",
		":quit",
	}, "\n"))

	assert.Contains(t, out, "Root\n  %b1\n  %b2\n")
	assert.Contains(t, out, PROMPT)
	assert.Contains(t, out, CONTINUATION)
}

func TestStartEvaluatesAtEOF(t *testing.T) {
	out := run(t, "%start = OpLabel\nOpReturn\n")
	assert.Contains(t, out, "Root\n  %start\n")
}

func TestBlocksToggle(t *testing.T) {
	out := run(t, strings.Join([]string{
		":blocks",
		"%start = OpLabel",
		"OpReturn",
		"",
		":q",
	}, "\n"))

	assert.Contains(t, out, "showing instructions: true")
	assert.Contains(t, out, "  %start\n    OpReturn\n")
}

func TestHelp(t *testing.T) {
	out := run(t, ":help\n:quit\n")
	assert.Contains(t, out, ":blocks")
}

func TestErrorsAreReported(t *testing.T) {
	out := run(t, "%start = OpLabel\nOpBranch %nowhere\n\n:quit\n")
	assert.Contains(t, out, "E0205")
	assert.NotContains(t, out, "Root")

	out = run(t, "= = =\n\n:quit\n")
	assert.Contains(t, out, "E0100")
}
