package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
	"shaderflow/internal/parser"
)

func load(t *testing.T, name string) *ir.Module {
	t.Helper()
	module, diags, err := parser.ParseFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.False(t, parser.HasErrors(diags), "%v", diags)
	return module
}

func TestScenarioFiles(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"single_return.spvasm", "Root[b1]"},
		{"straight_line.spvasm", "Root[b1, b2]"},
		{"if_then.spvasm", "Root[If[start, IfPart[then]], merge]"},
		{"while_loop.spvasm", "Root[start, Loop[header, LoopBody[body]], merge]"},
		{"infinite_loop.spvasm", "Root[start, Loop[header, LoopBody[body]]]"},
		{"switch_fallthrough.spvasm", "Root[Switch[start, Case[default], Case[case1]], merge]"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			results := Run(load(t, tt.file), Options{})
			require.Len(t, results, 1)
			require.NoError(t, results[0].Err)
			assert.Equal(t, tt.want, results[0].Tree.Format())
		})
	}
}

func TestParallelKeepsOrder(t *testing.T) {
	module := load(t, "functions.spvasm")

	sequential := Run(module, Options{})
	parallel := Run(module, Options{Parallel: 4})
	require.Len(t, parallel, 2)
	for i := range sequential {
		assert.Equal(t, sequential[i].Function.Name, parallel[i].Function.Name)
		require.NoError(t, parallel[i].Err)
		assert.Equal(t, sequential[i].Tree.Format(), parallel[i].Tree.Format())
	}
	assert.Equal(t, "Root[start, Loop[header, LoopBody[If[body, IfPart[brk]], ifmerge], Continue[cont]], exit]",
		parallel[0].Tree.Format())
	assert.Equal(t, "Root[entry]", parallel[1].Tree.Format())
	assert.False(t, Failed(parallel))
}

func TestUnreachableBlockWarning(t *testing.T) {
	results := Run(load(t, "infinite_loop.spvasm"), Options{})
	diags := results[0].Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, errors.WarningUnreachableBlock, diags[0].Code)
	assert.True(t, diags[0].IsWarning())
	assert.Contains(t, diags[0].Message, "merge")
	assert.Equal(t, 9, diags[0].Position.Line)
}

func TestStructuringFailure(t *testing.T) {
	results := Run(load(t, "broken_switch.spvasm"), Options{})
	require.Len(t, results, 1)
	assert.True(t, Failed(results))
	require.NotNil(t, results[0].CFG)
	assert.Nil(t, results[0].Tree)
	for _, b := range results[0].CFG.Blocks() {
		_, ok := b.TreePosition()
		assert.False(t, ok, "block %s", b)
	}

	diags := Diagnostics(results)
	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorSwitchCaseMultipleTargets, diags[0].Code)
	assert.Equal(t, "b", diags[0].Label)
}

func TestGraphFailure(t *testing.T) {
	module, _ := parser.ParseSource("undefined.spvasm", "%b1 = OpLabel\nOpBranch %nowhere\n")
	results := Run(module, Options{Parallel: 2})
	require.Len(t, results, 1)
	assert.Nil(t, results[0].CFG)

	diags := results[0].Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorUndefinedLabel, diags[0].Code)
	assert.Equal(t, 2, diags[0].Position.Line)
}
