package pattern_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/pattern"
	"github.com/nyxlang/nyxc/internal/types"
)

func TestCompileWildcardAlwaysMatchesAndBindsNothing(t *testing.T) {
	result, err := pattern.Compile(nil, &ast.WildcardPattern{}, types.Int(32), pattern.Root())
	require.NoError(t, err)
	assert.Equal(t, pattern.Always{}, result.Condition)
	assert.Empty(t, result.Bindings)
}

func TestCompileIdentifierBindsTheWholeScrutinee(t *testing.T) {
	result, err := pattern.Compile(nil, &ast.IdentifierPattern{Name: "x"}, types.TBool, pattern.Root())
	require.NoError(t, err)
	require.Len(t, result.Bindings, 1)
	assert.Equal(t, "x", result.Bindings[0].Name)
	assert.Equal(t, types.TBool, result.Bindings[0].Type)
}

func TestCompileLiteralPatternTestsEquality(t *testing.T) {
	v := constval.Int(big.NewInt(7), types.Int(32))
	lit := &ast.Literal{Kind: ast.LitInt}
	lit.Value = &v
	result, err := pattern.Compile(nil, &ast.LiteralPattern{Value: lit}, types.Int(32), pattern.Root())
	require.NoError(t, err)
	eq, ok := result.Condition.(pattern.Equals)
	require.True(t, ok)
	assert.True(t, constval.Equal(v, eq.Value))
}

func TestCompileLiteralPatternWithoutConstantValueIsMismatch(t *testing.T) {
	_, err := pattern.Compile(nil, &ast.LiteralPattern{Value: &ast.Literal{Kind: ast.LitInt}}, types.Int(32), pattern.Root())
	require.Error(t, err)
	var mismatch *pattern.Mismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestCompileTupleArityMismatch(t *testing.T) {
	tup := types.Tuple{Elements: []types.Type{types.Int(32), types.TBool}}
	p := &ast.TuplePattern{Elements: []ast.Pattern{&ast.IdentifierPattern{Name: "a"}}}
	_, err := pattern.Compile(nil, p, tup, pattern.Root())
	require.Error(t, err)
}

func TestCompileTupleBindsEachElement(t *testing.T) {
	tup := types.Tuple{Elements: []types.Type{types.Int(32), types.TBool}}
	p := &ast.TuplePattern{Elements: []ast.Pattern{
		&ast.IdentifierPattern{Name: "a"},
		&ast.IdentifierPattern{Name: "b"},
	}}
	result, err := pattern.Compile(nil, p, tup, pattern.Root())
	require.NoError(t, err)
	require.Len(t, result.Bindings, 2)
	assert.Equal(t, "a", result.Bindings[0].Name)
	assert.Equal(t, 0, result.Bindings[0].Selector.Index)
	assert.Equal(t, "b", result.Bindings[1].Name)
	assert.Equal(t, 1, result.Bindings[1].Selector.Index)
}

func TestCompileTupleRejectsDuplicateBindingNames(t *testing.T) {
	tup := types.Tuple{Elements: []types.Type{types.Int(32), types.Int(32)}}
	p := &ast.TuplePattern{Elements: []ast.Pattern{
		&ast.IdentifierPattern{Name: "a"},
		&ast.IdentifierPattern{Name: "a"},
	}}
	result, err := pattern.Compile(nil, p, tup, pattern.Root())
	require.NoError(t, err)
	assert.Len(t, result.Bindings, 1, "a duplicate binding name must not shadow the first")
}

func TestCompileOrPatternRequiresMatchingBindingNames(t *testing.T) {
	p := &ast.OrPattern{Alternatives: []ast.Pattern{
		&ast.IdentifierPattern{Name: "a"},
		&ast.IdentifierPattern{Name: "b"},
	}}
	_, err := pattern.Compile(nil, p, types.Int(32), pattern.Root())
	require.Error(t, err)
}

func TestCompileOrPatternWithMatchingNamesSucceeds(t *testing.T) {
	p := &ast.OrPattern{Alternatives: []ast.Pattern{
		&ast.IdentifierPattern{Name: "a"},
		&ast.IdentifierPattern{Name: "a"},
	}}
	result, err := pattern.Compile(nil, p, types.Int(32), pattern.Root())
	require.NoError(t, err)
	_, ok := result.Condition.(pattern.Or)
	assert.True(t, ok)
}

func TestCompileArrayPatternWithTrailingWildcardAllowsExtraElements(t *testing.T) {
	sl := types.Slice{Elem: types.Int(32)}
	p := &ast.ArrayPattern{Elements: []ast.Pattern{
		&ast.IdentifierPattern{Name: "head"},
		&ast.WildcardPattern{},
	}}
	result, err := pattern.Compile(nil, p, sl, pattern.Root())
	require.NoError(t, err)
	size, ok := result.Condition.(pattern.SizeEquals)
	require.True(t, ok, "the identifier sub-pattern contributes no test, so only the size test should remain")
	assert.True(t, size.AtLeast)
	assert.Equal(t, 1, size.Size)
}
