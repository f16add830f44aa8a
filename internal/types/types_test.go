package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/types"
)

func TestPrimitiveString(t *testing.T) {
	assert.Equal(t, "unit", types.TUnit.String())
	assert.Equal(t, "bool", types.TBool.String())
	assert.Equal(t, "i32", types.Int(32).String())
	assert.Equal(t, "u64", types.Uint(64).String())
	assert.Equal(t, "float64", types.Float(64).String())
}

func TestGenericApplySubstitutesBoundParameter(t *testing.T) {
	g := types.Generic{Name: "T"}
	subst := types.Subst{"T": types.Int(32)}
	assert.Equal(t, types.Int(32), g.Apply(subst))

	unbound := types.Generic{Name: "U"}
	assert.Equal(t, unbound, unbound.Apply(subst))
}

func TestSliceOfGenericFreeGenerics(t *testing.T) {
	s := types.Slice{Elem: types.Generic{Name: "T"}}
	fg := s.FreeGenerics()
	require.Len(t, fg, 1)
	assert.Equal(t, "T", fg[0].Name)
}

func TestSliceApplySubstitutesElement(t *testing.T) {
	s := types.Slice{Elem: types.Generic{Name: "T"}}
	applied := s.Apply(types.Subst{"T": types.TBool})
	assert.Equal(t, "[]bool", applied.String())
}

func TestStructureIdentityIsNominal(t *testing.T) {
	a := types.Structure{Name: "app.Point", Fields: []types.Field{{Name: "x", Type: types.Int(32)}}}
	b := types.Structure{Name: "app.Point", Fields: []types.Field{{Name: "x", Type: types.Int(32)}}}
	assert.Equal(t, a.String(), b.String())

	ty, ok := a.FieldType("x")
	require.True(t, ok)
	assert.Equal(t, types.Int(32), ty)

	_, ok = a.FieldType("missing")
	assert.False(t, ok)
}

func TestNewVariantFlattensDedupsAndSorts(t *testing.T) {
	v := types.NewVariant([]types.Type{types.TBool, types.TUnit, types.TBool})
	variant, ok := v.(types.Variant)
	require.True(t, ok)
	require.Len(t, variant.Members, 2)
	assert.True(t, variant.Members[0].String() < variant.Members[1].String())
}

func TestNewVariantCollapsesSingleMember(t *testing.T) {
	v := types.NewVariant([]types.Type{types.TBool})
	assert.Equal(t, types.TBool, v)
}

func TestVariantContains(t *testing.T) {
	v := types.NewVariant([]types.Type{types.TBool, types.TUnit}).(types.Variant)
	assert.True(t, v.Contains(types.TBool))
	assert.False(t, v.Contains(types.Int(32)))
}

func TestTagIsStableAndDistinct(t *testing.T) {
	t1 := types.Tag(types.TBool)
	t2 := types.Tag(types.TBool)
	t3 := types.Tag(types.TUnit)
	assert.Equal(t, t1, t2)
	assert.NotEqual(t, t1, t3)
}

func TestFunctionApplySubstitutesParamsAndResult(t *testing.T) {
	f := types.Function{Params: []types.Type{types.Generic{Name: "T"}}, Result: types.Generic{Name: "T"}}
	applied := f.Apply(types.Subst{"T": types.TString})
	assert.Equal(t, "(string) -> string", applied.String())
}

func TestIsUnknown(t *testing.T) {
	assert.True(t, types.IsUnknown(types.Unknown{}))
	assert.False(t, types.IsUnknown(types.TBool))
}
