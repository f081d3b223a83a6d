package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderflow/grammar"
)

func TestParseFile(t *testing.T) {
	program, err := grammar.ParseFile(`../testdata/if_then.spvasm`)
	require.NoError(t, err)

	require.NotEmpty(t, program.Instructions)
	first := program.Instructions[0]
	assert.Equal(t, "OpLabel", first.Opcode.Value)
	require.NotNil(t, first.Result)
	assert.Equal(t, "start", first.Result.Name())

	var opcodes []string
	for _, inst := range program.Instructions {
		opcodes = append(opcodes, inst.Opcode.Value)
	}
	assert.Contains(t, opcodes, "OpSelectionMerge")
	assert.Contains(t, opcodes, "OpBranchConditional")
}

func TestParseOperands(t *testing.T) {
	src := `%c = OpConstant %int -42
OpLoopMerge %merge %cont Unroll|DontUnroll
OpName %x "with \"quotes\""
%f = OpConstant %float 1.5e3`

	program, err := grammar.Parse("ops.spvasm", src)
	require.NoError(t, err)
	require.Len(t, program.Instructions, 4)

	constant := program.Instructions[0]
	require.Len(t, constant.Operands, 2)
	assert.Equal(t, "%int", *constant.Operands[0].IdRef)
	assert.Equal(t, "-42", *constant.Operands[1].Integer)

	merge := program.Instructions[1]
	require.Len(t, merge.Operands, 3)
	assert.Equal(t, "Unroll|DontUnroll", *merge.Operands[2].Enum)

	name := program.Instructions[2]
	assert.Equal(t, `with "quotes"`, *name.Operands[1].Str)

	float := program.Instructions[3]
	assert.Equal(t, "1.5e3", *float.Operands[1].Float)
}

func TestCommentsAndBlankLines(t *testing.T) {
	src := `; header comment

%start = OpLabel   ; trailing
          OpReturn
`
	program, err := grammar.Parse("c.spvasm", src)
	require.NoError(t, err)
	require.Len(t, program.Instructions, 2)
	assert.Equal(t, 3, program.Instructions[0].Pos.Line)
	assert.Equal(t, 11, program.Instructions[1].Pos.Column)
}

func TestRoundTrip(t *testing.T) {
	src := "%start = OpLabel\nOpBranch %next\n%next = OpLabel\nOpName %x \"a b\"\nOpReturn\n"
	program, err := grammar.Parse("r.spvasm", src)
	require.NoError(t, err)

	want := "%start = OpLabel\n  OpBranch %next\n%next = OpLabel\n  OpName %x \"a b\"\n  OpReturn\n"
	assert.Equal(t, want, program.String())

	again, err := grammar.Parse("r2.spvasm", program.String())
	require.NoError(t, err)
	assert.Equal(t, program.String(), again.String())
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := grammar.Parse("bad.spvasm", "%start = OpLabel\n%x = = OpReturn\n")
	require.Error(t, err)

	pos, msg, ok := grammar.ErrorPosition(err)
	assert.True(t, ok)
	assert.Equal(t, 2, pos.Line)
	assert.NotEmpty(t, msg)
}

func TestMissingFile(t *testing.T) {
	_, err := grammar.ParseFile("does/not/exist.spvasm")
	require.Error(t, err)
	_, _, ok := grammar.ErrorPosition(err)
	assert.False(t, ok)
}
