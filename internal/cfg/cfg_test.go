package cfg

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
)

func buildDiamond() *ir.Function {
	b := ir.NewFunctionBuilder("diamond")
	b.Label("start")
	b.SelectionMerge("merge")
	b.BranchConditional("cond", "then", "else")
	b.Label("then")
	b.Branch("merge")
	b.Label("else")
	b.Branch("merge")
	b.Label("merge")
	b.Return()
	return b.Function()
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var diag errors.CompilerError
	require.True(t, stderrors.As(err, &diag), "expected CompilerError, got %T", err)
	assert.Equal(t, code, diag.Code)
}

func TestBuildDiamond(t *testing.T) {
	g, err := Build(buildDiamond())
	require.NoError(t, err)

	require.Equal(t, 4, g.NumBlocks())
	assert.Equal(t, 4, g.NumEdges())
	assert.Equal(t, BlockID(0), g.Entry())

	start := g.Block(0)
	assert.Equal(t, "start", start.Name)
	assert.Equal(t, ir.OpBranchConditional, start.Terminator().Op)
	require.NotNil(t, start.Merge())
	assert.Equal(t, ir.OpSelectionMerge, start.Merge().Op)
	assert.Nil(t, g.Block(1).Merge())

	assert.Equal(t, []BlockID{1, 2}, g.Successors(0))
	assert.Equal(t, []BlockID{1, 2}, g.Predecessors(3))
	assert.Empty(t, g.Successors(3))

	e, ok := g.EdgeBetween(1, 3)
	require.True(t, ok)
	assert.Equal(t, Edge{ID: e, From: 1, To: 3}, g.Edge(e))
	_, ok = g.EdgeBetween(3, 0)
	assert.False(t, ok)

	id, ok := g.BlockByLabel(start.Label)
	require.True(t, ok)
	assert.Equal(t, BlockID(0), id)
	assert.Empty(t, g.Unreachable())
}

func TestBuildDeduplicatesTargets(t *testing.T) {
	b := ir.NewFunctionBuilder("dedupe")
	b.Label("start")
	b.SelectionMerge("merge")
	b.Switch("sel", "merge",
		ir.Case{Literal: 1, Target: "a"},
		ir.Case{Literal: 2, Target: "merge"},
		ir.Case{Literal: 3, Target: "a"})
	b.Label("a")
	b.Branch("merge")
	b.Label("merge")
	b.Return()

	g, err := Build(b.Function())
	require.NoError(t, err)
	assert.Equal(t, []BlockID{2, 1}, g.Successors(0), "first occurrence order, default first")
	assert.Len(t, g.SuccessorEdges(0), 2)
}

func TestBuildSkipsDebugLinesBeforeLabels(t *testing.T) {
	b := ir.NewFunctionBuilder("lines")
	b.Line("file", 1, 1)
	b.Label("start")
	b.Line("file", 2, 1)
	b.Branch("next")
	b.NoLine()
	b.Line("file", 3, 1)
	b.Label("next")
	b.Return()

	g, err := Build(b.Function())
	require.NoError(t, err)
	require.Equal(t, 2, g.NumBlocks())
	assert.Len(t, g.Block(0).Instructions, 2, "line marker inside a block is kept")
	assert.Len(t, g.Block(1).Instructions, 1)
}

func TestBuildErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Build(ir.NewFunctionBuilder("f").Function())
		requireCode(t, err, errors.ErrorEmptyFunction)
	})

	t.Run("only debug lines", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.NoLine()
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorEmptyFunction)
	})

	t.Run("expected label", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Return()
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorExpectedLabel)
	})

	t.Run("instruction after terminator", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Label("a")
		b.Return()
		b.Kill()
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorExpectedLabel)
	})

	t.Run("unterminated block", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Label("a")
		b.Emit(ir.OpNop, "")
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorUnterminatedBlock)
	})

	t.Run("label inside block", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Label("a")
		b.Label("b")
		b.Return()
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorUnterminatedBlock)
	})

	t.Run("undefined label", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Label("a")
		b.Branch("nowhere")
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorUndefinedLabel)
	})

	t.Run("undefined merge label", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Label("a")
		b.LoopMerge("gone", "a")
		b.Branch("a")
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorUndefinedLabel)
	})

	t.Run("missing targets", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Label("a")
		b.Append(ir.Instruction{Op: ir.OpBranch, Mnemonic: "OpBranch"})
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorMissingBranchTargets)
	})

	t.Run("duplicate label", func(t *testing.T) {
		b := ir.NewFunctionBuilder("f")
		b.Label("a")
		b.Return()
		b.Label("a")
		b.Return()
		_, err := Build(b.Function())
		requireCode(t, err, errors.ErrorDuplicateLabel)
	})
}

func TestTreePositionIsWriteOnce(t *testing.T) {
	g, err := Build(buildDiamond())
	require.NoError(t, err)

	block := g.Block(2)
	_, ok := block.TreePosition()
	assert.False(t, ok)

	block.SetTreePosition(TreePosition{Node: 3, Index: 1})
	pos, ok := block.TreePosition()
	require.True(t, ok)
	assert.Equal(t, TreePosition{Node: 3, Index: 1}, pos)

	assert.Panics(t, func() {
		block.SetTreePosition(TreePosition{Node: 4, Index: 0})
	})
}

func TestResetTreePosition(t *testing.T) {
	g, err := Build(buildDiamond())
	require.NoError(t, err)

	block := g.Block(1)
	block.SetTreePosition(TreePosition{Node: 2, Index: 0})
	block.ResetTreePosition()
	_, ok := block.TreePosition()
	assert.False(t, ok)

	assert.NotPanics(t, func() {
		block.SetTreePosition(TreePosition{Node: 5, Index: 1})
	})
	pos, ok := block.TreePosition()
	require.True(t, ok)
	assert.Equal(t, TreePosition{Node: 5, Index: 1}, pos)
}

func TestUnreachableBlocks(t *testing.T) {
	b := ir.NewFunctionBuilder("f")
	b.Label("start")
	b.Return()
	b.Label("dead")
	b.Branch("start")

	g, err := Build(b.Function())
	require.NoError(t, err)
	assert.Equal(t, []BlockID{1}, g.Unreachable())
	assert.Equal(t, []BlockID{1}, g.Predecessors(0))
}
