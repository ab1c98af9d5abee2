package koto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseSource_valid(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"number literal", "1\n"},
		{"string literal", `"hello"` + "\n"},
		{"list literal", "[1, 2, 3]\n"},
		{"map literal", "{a: 1, b: 2}\n"},
		{"arithmetic", "1 + 2 * 3\n"},
		{"comparison", "1 < 2\n"},
		{"assignment", "x = 5\n"},
		{"compound assignment", "x = 5\nx += 1\n"},
		{"global assignment", "global x = 5\n"},
		{"multi-assign", "a, b = 1, 2\n"},
		{"if/then/else expr", "if true then 1 else 2\n"},
		{"block if", "if true\n  1\nelse\n  2\n"},
		{"while loop", "while true\n  break\n"},
		{"until loop", "until false\n  break\n"},
		{"for loop", "for x in 0..3\n  debug x\n"},
		{"function literal", "f = |a, b| a + b\n"},
		{"function call", "f = |a| a\nf(1)\n"},
		{"lookup chain", "x.y.z\n"},
		{"index expr", "x[0]\n"},
		{"range literal", "0..10\n"},
		{"inclusive range literal", "0..=10\n"},
		{"copy/share", "copy x\nshare x\n"},
		{"debug statement", "debug 1, 2\n"},
		{"return statement", "f = ||\n  return 1\n"},
		{"string interpolation", `"x is ${1 + 1}"` + "\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSource(tc.input)
			assert.NoError(t, err)
		})
	}
}

func Test_ParseSource_errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"hello`},
		{"unmatched paren", "(1 + 2"},
		{"dangling operator", "1 +\n"},
		{"inconsistent indentation", "if true\n  1\n   2\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSource(tc.input)
			assert.Error(t, err)
		})
	}
}

func Test_ParseSource_duplicateParamName_isError(t *testing.T) {
	_, err := ParseSource("f = |a, a| a\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate parameter")
}

func Test_ParseSource_listLiteral_shape(t *testing.T) {
	ast, err := ParseSource("[1, 2, 3]\n")
	require.NoError(t, err)

	block, ok := ast.Payload.(BlockStmt)
	require.True(t, ok)
	require.Len(t, block.Nodes, 1)

	listNode := block.Nodes[0]
	assert.Equal(t, KindList, listNode.Kind)

	lit, ok := listNode.Payload.(ListLit)
	require.True(t, ok)
	assert.Len(t, lit.Items, 3)
}

func Test_ParseSource_assignTarget_scope(t *testing.T) {
	ast, err := ParseSource("global x = 1\n")
	require.NoError(t, err)

	block := ast.Payload.(BlockStmt)
	require.Len(t, block.Nodes, 1)

	assign, ok := block.Nodes[0].Payload.(AssignStmt)
	require.True(t, ok)
	assert.Equal(t, ScopeGlobal, assign.Target.Scope)
	assert.Equal(t, "x", assign.Target.Name)
}

func Test_ParseErrorInfo_roundTrip(t *testing.T) {
	_, err := ParseSource("(1 + 2")
	require.Error(t, err)

	msg, _, _, isIndent := ParseErrorInfo(err)
	assert.NotEmpty(t, msg)
	assert.True(t, isIndent)
}
