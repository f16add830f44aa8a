package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/types"
)

func TestMatchBindsGenericToCandidate(t *testing.T) {
	b, err := types.Match(types.Generic{Name: "T"}, types.Int(32))
	require.NoError(t, err)
	assert.Equal(t, "i32", b["T"].String())
}

func TestMatchIsDeterministicAcrossInvocations(t *testing.T) {
	pattern := types.Tuple{Elements: []types.Type{types.Generic{Name: "T"}, types.Generic{Name: "U"}}}
	candidate := types.Tuple{Elements: []types.Type{types.Int(32), types.TString}}

	first, err := types.Match(pattern, candidate)
	require.NoError(t, err)
	second, err := types.Match(pattern, candidate)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMatchConflictingBindingsIsDuplication(t *testing.T) {
	pattern := types.Tuple{Elements: []types.Type{types.Generic{Name: "T"}, types.Generic{Name: "T"}}}
	candidate := types.Tuple{Elements: []types.Type{types.Int(32), types.TString}}

	_, err := types.Match(pattern, candidate)
	require.Error(t, err)
	me, ok := err.(*types.MatchError)
	require.True(t, ok)
	assert.True(t, me.Duplication)
}

func TestMatchSlicePatternAcceptsArrayCandidate(t *testing.T) {
	pattern := types.Slice{Elem: types.Generic{Name: "T"}}
	candidate := types.Array{Elem: types.TBool, Size: types.ArraySize{IsConst: true, Const: 3}}

	b, err := types.Match(pattern, candidate)
	require.NoError(t, err)
	assert.Equal(t, "bool", b["T"].String())
}

func TestMatchArraySizeUnifiesAsValueParameter(t *testing.T) {
	pattern := types.Array{Elem: types.Int(32), Size: types.ArraySize{ParamRef: "N"}}
	candidate := types.Array{Elem: types.Int(32), Size: types.ArraySize{IsConst: true, Const: 4}}

	b, err := types.Match(pattern, candidate)
	require.NoError(t, err)
	gv, ok := b["N"].(types.GenericValue)
	require.True(t, ok)
	assert.Equal(t, int64(4), gv.Value)
}

func TestMatchIntoSeededBindingConflicts(t *testing.T) {
	seed := types.Bindings{"T": types.Int(64)}
	_, err := types.MatchInto(types.Generic{Name: "T"}, types.Int(32), seed)
	require.Error(t, err)
}

func TestBindingsApplyAndIsTotal(t *testing.T) {
	b := types.Bindings{"T": types.Int(32)}
	applied := b.Apply(types.Function{Params: []types.Type{types.Generic{Name: "T"}}, Result: types.Generic{Name: "T"}})
	assert.Equal(t, "(i32) -> i32", applied.String())

	assert.True(t, b.IsTotal([]types.Generic{{Name: "T"}}))
	assert.False(t, b.IsTotal([]types.Generic{{Name: "T"}, {Name: "U"}}))
}
