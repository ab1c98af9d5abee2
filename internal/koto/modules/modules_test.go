package modules

import (
	"testing"

	"github.com/dekarrin/koto/internal/koto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalWith(t *testing.T, source string) koto.Value {
	t.Helper()
	rt := koto.NewRuntime()
	RegisterList(rt)
	RegisterMap(rt)

	ast, err := koto.ParseSource(source)
	require.NoError(t, err)
	v, err := rt.Eval(ast)
	require.NoError(t, err)
	return v
}

func Test_RegisterList_size(t *testing.T) {
	v := evalWith(t, "list.size([1, 2, 3])\n")
	assert.Equal(t, float64(3), v.Number())
}

func Test_RegisterList_push(t *testing.T) {
	v := evalWith(t, "l = [1]\nlist.push(l, 2, 3)\nl\n")
	assert.Equal(t, 3, v.List().Len())
}

func Test_RegisterList_contains(t *testing.T) {
	assert.True(t, evalWith(t, "list.contains([1, 2, 3], 2)\n").Bool())
	assert.False(t, evalWith(t, "list.contains([1, 2, 3], 9)\n").Bool())
}

func Test_RegisterList_size_wrongKind_isError(t *testing.T) {
	rt := koto.NewRuntime()
	RegisterList(rt)
	ast, err := koto.ParseSource(`list.size("not a list")` + "\n")
	require.NoError(t, err)
	_, err = rt.Eval(ast)
	assert.Error(t, err)
}

func Test_RegisterMap_sizeAndKeys(t *testing.T) {
	v := evalWith(t, "map.size({a: 1, b: 2})\n")
	assert.Equal(t, float64(2), v.Number())

	keys := evalWith(t, "map.keys({a: 1, b: 2})\n")
	assert.Equal(t, 2, keys.List().Len())
}

func Test_RegisterMap_containsKey(t *testing.T) {
	assert.True(t, evalWith(t, `map.contains_key({a: 1}, "a")`+"\n").Bool())
	assert.False(t, evalWith(t, `map.contains_key({a: 1}, "z")`+"\n").Bool())
}
