package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"shaderflow/internal/parser"
	"shaderflow/internal/pipeline"
)

func snapshotOf(t *testing.T, name, src string) ModuleSnapshot {
	t.Helper()
	module, diags := parser.ParseSource(name, src)
	require.False(t, parser.HasErrors(diags))
	return FromResults(name, pipeline.Run(module, pipeline.Options{}))
}

const ifThen = `%start = OpLabel
OpSelectionMerge %merge None
OpBranchConditional %cond %then %merge
%then = OpLabel
OpBranch %merge
%merge = OpLabel
OpReturn
`

func TestSnapshotContents(t *testing.T) {
	m := snapshotOf(t, "if.spvasm", ifThen)
	require.Len(t, m.Functions, 1)
	fn := m.Functions[0]
	assert.Equal(t, "main", fn.Name)
	assert.Empty(t, fn.Error)

	require.Len(t, fn.Blocks, 3)
	start := fn.Blocks[0]
	assert.Equal(t, "start", start.Name)
	assert.Equal(t, 1, start.Line)
	assert.Empty(t, start.Idom)
	assert.Equal(t, []string{"then", "merge"}, start.Successors)
	assert.Equal(t, []string{"OpSelectionMerge %merge None", "OpBranchConditional %cond %then %merge"}, start.Instructions)
	assert.Equal(t, "start", fn.Blocks[2].Idom)
	assert.Equal(t, []EdgeSnapshot{{"start", "then"}, {"start", "merge"}, {"then", "merge"}}, fn.Edges)

	require.NotNil(t, fn.Tree)
	assert.Equal(t, "Root", fn.Tree.Kind)
	require.Len(t, fn.Tree.Children, 2)
	ifNode := fn.Tree.Children[0]
	assert.Equal(t, "If", ifNode.Kind)
	assert.Equal(t, 1, ifNode.Depth)
	assert.Equal(t, &NodeSnapshot{Kind: BlockKind, Depth: 2, Block: "start"}, ifNode.Children[0])
	assert.Equal(t, "IfPart", ifNode.Children[1].Kind)
	assert.Equal(t, &NodeSnapshot{Kind: BlockKind, Depth: 1, Block: "merge"}, fn.Tree.Children[1])
}

func TestSnapshotOfFailure(t *testing.T) {
	m := snapshotOf(t, "loop.spvasm", `%a = OpLabel
OpBranchConditional %c %b %d
%b = OpLabel
OpBranch %d
%d = OpLabel
OpBranch %b
`)
	fn := m.Functions[0]
	assert.NotEmpty(t, fn.Error)
	assert.Nil(t, fn.Tree)
	assert.Len(t, fn.Blocks, 3)
}

func TestUnreachableBlockSnapshot(t *testing.T) {
	m := snapshotOf(t, "dead.spvasm", "%a = OpLabel\nOpReturn\n%b = OpLabel\nOpReturn\n")
	blocks := m.Functions[0].Blocks
	require.Len(t, blocks, 2)
	assert.True(t, blocks[0].Reachable)
	assert.False(t, blocks[1].Reachable)
	assert.Empty(t, blocks[1].Idom)
}

func TestEncodeFormats(t *testing.T) {
	m := snapshotOf(t, "if.spvasm", ifThen)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, FormatJSON, m))
		assert.Contains(t, buf.String(), `"kind": "IfPart"`)

		var back ModuleSnapshot
		require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, m, back)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, FormatYAML, m))
		assert.Contains(t, buf.String(), "kind: IfPart")

		var back ModuleSnapshot
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, m, back)
	})

	t.Run("msgpack", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, FormatMsgpack, m))

		back, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, m, *back)
	})

	t.Run("text", func(t *testing.T) {
		assert.Error(t, Encode(&bytes.Buffer{}, FormatText, m))
	})
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0xc1}))
	assert.ErrorContains(t, err, "failed to decode snapshot")
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "yaml", "msgpack"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, Format(name), f)
	}
	_, err := ParseFormat("toml")
	assert.Error(t, err)
}
