package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderflow/internal/errors"
	"shaderflow/internal/ir"
)

func opcodes(fn *ir.Function) []ir.Op {
	ops := make([]ir.Op, len(fn.Instructions))
	for i := range fn.Instructions {
		ops[i] = fn.Instructions[i].Op
	}
	return ops
}

func TestParseFileWithFunctions(t *testing.T) {
	module, diags, err := ParseFile("../../testdata/functions.spvasm")
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.NotNil(t, module)
	require.Len(t, module.Functions, 2)

	main := module.Function("main")
	require.NotNil(t, main)
	assert.Equal(t, "main", main.NameOf(main.Result))
	first := main.Instructions[0]
	assert.Equal(t, ir.OpLabel, first.Op)
	assert.Equal(t, "start", main.NameOf(first.Result))
	assert.Equal(t, 5, first.Pos.Line)
	assert.Equal(t, 1, first.Pos.Column)
	assert.Equal(t, ir.OpLine, main.Instructions[1].Op)

	helper := module.Function("helper")
	require.NotNil(t, helper)
	assert.Equal(t, []ir.Op{ir.OpLabel, ir.OpKill}, opcodes(helper))
}

func TestBareBodyBecomesMain(t *testing.T) {
	module, diags := ParseSource("bare.spvasm", "%b1 = OpLabel\nOpBranch %b2\n%b2 = OpLabel\nOpReturn")
	assert.Empty(t, diags)
	require.Len(t, module.Functions, 1)

	fn := module.Functions[0]
	assert.Equal(t, "main", fn.Name)
	assert.Equal(t, []ir.Op{ir.OpLabel, ir.OpBranch, ir.OpLabel, ir.OpReturn}, opcodes(fn))
	targets, ok := fn.Instructions[1].BranchTargets()
	require.True(t, ok)
	assert.Equal(t, []ir.ID{fn.Instructions[2].Result}, targets)
}

func TestUnknownOpcodeWarnsOnce(t *testing.T) {
	src := `%b1 = OpLabel
%x = OpLoad %t %p
%y = OpLoad %t %p
OpReturn`
	module, diags := ParseSource("load.spvasm", src)
	require.NotNil(t, module)
	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorUnknownOpcode, diags[0].Code)
	assert.True(t, diags[0].IsWarning())
	assert.Equal(t, 2, diags[0].Position.Line)
	assert.False(t, HasErrors(diags))

	load := module.Functions[0].Instructions[1]
	assert.Equal(t, ir.OpUnknown, load.Op)
	assert.Equal(t, "OpLoad", load.Name())
}

func TestOperandKinds(t *testing.T) {
	src := `%b1 = OpLabel
OpSelectionMerge %m None
OpSwitch %sel %m 0x10 %a -3 %b
OpName %a "case a"
%f = OpConstant %float 2.5
%a = OpLabel
OpReturn
%b = OpLabel
OpReturn
%m = OpLabel
OpReturn`
	module, _ := ParseSource("kinds.spvasm", src)
	require.NotNil(t, module)
	fn := module.Functions[0]

	sw := fn.Instructions[2]
	assert.Equal(t, ir.OperandLiteral, sw.Operands[2].Kind)
	assert.Equal(t, int64(16), sw.Operands[2].Literal)
	assert.Equal(t, int64(-3), sw.Operands[4].Literal)

	merge := fn.Instructions[1]
	assert.Equal(t, ir.OperandEnum, merge.Operands[1].Kind)
	assert.Equal(t, "None", merge.Operands[1].Text)

	name := fn.Instructions[3]
	assert.Equal(t, ir.OperandString, name.Operands[1].Kind)
	assert.Equal(t, "case a", name.Operands[1].Text)

	constant := fn.Instructions[4]
	assert.Equal(t, ir.OperandFloat, constant.Operands[1].Kind)
	assert.Equal(t, "2.5", constant.Operands[1].Text)
}

func TestSyntaxError(t *testing.T) {
	module, diags := ParseSource("bad.spvasm", "%b1 = OpLabel\n= OpReturn\n")
	assert.Nil(t, module)
	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorSyntax, diags[0].Code)
	assert.Equal(t, "bad.spvasm", diags[0].Position.Filename)
	assert.Equal(t, 2, diags[0].Position.Line)
	assert.True(t, HasErrors(diags))
}

func TestInvalidLiteral(t *testing.T) {
	_, diags := ParseSource("big.spvasm", "%b1 = OpLabel\nOpSwitch %s %d 99999999999999999999 %a\n")
	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorInvalidLiteral, diags[0].Code)
	assert.Equal(t, 2, diags[0].Position.Line)
}

func TestFunctionFraming(t *testing.T) {
	t.Run("unterminated", func(t *testing.T) {
		src := `%f = OpFunction %void None %ty
%b1 = OpLabel
OpReturn`
		module, diags := ParseSource("open.spvasm", src)
		require.Len(t, diags, 1)
		assert.Equal(t, errors.ErrorUnterminatedFunction, diags[0].Code)
		assert.Equal(t, 1, diags[0].Position.Line)
		require.Len(t, module.Functions, 1)
		assert.Equal(t, "f", module.Functions[0].Name)
	})

	t.Run("nested start closes the previous function", func(t *testing.T) {
		src := `%f = OpFunction %void None %ty
%b1 = OpLabel
OpReturn
%g = OpFunction %void None %ty
%p = OpFunctionParameter %int
%b2 = OpLabel
OpReturn
OpFunctionEnd`
		module, diags := ParseSource("nested.spvasm", src)
		require.Len(t, diags, 1)
		assert.Equal(t, errors.ErrorUnterminatedFunction, diags[0].Code)
		require.Len(t, module.Functions, 2)
		assert.Equal(t, []ir.Op{ir.OpLabel, ir.OpReturn}, opcodes(module.Function("g")))
	})

	t.Run("stray end", func(t *testing.T) {
		src := `%f = OpFunction %void None %ty
%b1 = OpLabel
OpReturn
OpFunctionEnd
OpFunctionEnd`
		_, diags := ParseSource("stray.spvasm", src)
		require.Len(t, diags, 1)
		assert.Equal(t, errors.ErrorSyntax, diags[0].Code)
		assert.Equal(t, 5, diags[0].Position.Line)
	})
}

func TestMissingFile(t *testing.T) {
	_, _, err := ParseFile("no/such/file.spvasm")
	assert.Error(t, err)
}
