package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyxlang/nyxc/internal/types"
)

func TestCompatibleIdenticalCanonicalForm(t *testing.T) {
	assert.True(t, types.Compatible(nil, types.Int(32), types.Int(32)))
	assert.False(t, types.Compatible(nil, types.Int(32), types.Int(64)))
}

func TestCompatibleWrapsIntoVariant(t *testing.T) {
	v := types.NewVariant([]types.Type{types.TBool, types.TUnit})
	assert.True(t, types.Compatible(nil, types.TBool, v))
	assert.False(t, types.Compatible(nil, types.Int(32), v))
}

func TestCompatibleArrayToSlice(t *testing.T) {
	arr := types.Array{Elem: types.Int(32), Size: types.ArraySize{IsConst: true, Const: 4}}
	sl := types.Slice{Elem: types.Int(32)}
	assert.True(t, types.Compatible(nil, arr, sl))
}

func TestCompatibleStringToByteSlice(t *testing.T) {
	sl := types.Slice{Elem: types.Uint(8)}
	assert.True(t, types.Compatible(nil, types.TString, sl))
	assert.True(t, types.Compatible(nil, types.TChars, sl))
}

func TestCompatibleRangeUnwrapsToBase(t *testing.T) {
	r := types.RangeType{Base: types.Int(32), Start: 0, End: 10}
	assert.True(t, types.Compatible(nil, types.Int(32), r))
	assert.True(t, types.Compatible(nil, r, types.Int(32)))
}

func TestCompatibleTupleComponentwise(t *testing.T) {
	a := types.Tuple{Elements: []types.Type{types.Int(32), types.TBool}}
	b := types.Tuple{Elements: []types.Type{types.Int(32), types.TBool}}
	c := types.Tuple{Elements: []types.Type{types.Int(32), types.TString}}
	assert.True(t, types.Compatible(nil, a, b))
	assert.False(t, types.Compatible(nil, a, c))
}

func TestCompatiblePointerUpcastThroughBehaviour(t *testing.T) {
	reg := types.NewImplementorRegistry()
	reg.Register("app.Dog", "app.Speaker")

	from := types.Pointer{Elem: types.Structure{Name: "app.Dog"}}
	to := types.Pointer{Elem: types.Behaviour{Name: "app.Speaker"}}
	assert.True(t, types.Compatible(reg, from, to))

	other := types.Pointer{Elem: types.Structure{Name: "app.Cat"}}
	assert.False(t, types.Compatible(reg, other, to))
}

func TestImplementorRegistry(t *testing.T) {
	reg := types.NewImplementorRegistry()
	assert.False(t, reg.Implements("app.Dog", "app.Speaker"))

	reg.Register("app.Dog", "app.Speaker")
	reg.Register("app.Dog", "app.Runner")
	assert.True(t, reg.Implements("app.Dog", "app.Speaker"))
	assert.ElementsMatch(t, []string{"app.Speaker", "app.Runner"}, reg.Behaviours("app.Dog"))
}
