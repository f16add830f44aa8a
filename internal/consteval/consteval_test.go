package consteval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/consteval"
	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/token"
)

type noBindings struct{}

func (noBindings) Lookup(name string) (constval.Value, bool) { return constval.Value{}, false }

func intLit(raw string) *ast.Literal {
	return &ast.Literal{Kind: ast.LitInt, Raw: raw}
}

func TestFoldIntegerArithmetic(t *testing.T) {
	e := consteval.New(noBindings{})
	expr := &ast.BinaryExpression{Op: token.PLUS, Left: intLit("2"), Right: intLit("3")}
	v, err := e.Fold(expr)
	require.NoError(t, err)
	idx, ok := v.AsIndex()
	require.True(t, ok)
	assert.Equal(t, 5, idx)
}

func TestFoldDivisionByZeroIsArithmeticError(t *testing.T) {
	e := consteval.New(noBindings{})
	expr := &ast.BinaryExpression{Op: token.SLASH, Left: intLit("1"), Right: intLit("0")}
	_, err := e.Fold(expr)
	require.Error(t, err)
	var arith *consteval.ErrArithmetic
	assert.ErrorAs(t, err, &arith)
}

func TestFoldUnboundIdentifierIsNotConstant(t *testing.T) {
	e := consteval.New(noBindings{})
	_, err := e.Fold(&ast.Identifier{Value: "x"})
	require.Error(t, err)
	var notConst *consteval.ErrNotConstant
	assert.ErrorAs(t, err, &notConst)
}

func TestFoldIdentifierResolvesThroughBindings(t *testing.T) {
	b := fakeBindings{values: map[string]constval.Value{"N": constval.Sequence(nil, nil)}}
	e := consteval.New(b)
	v, err := e.Fold(&ast.Identifier{Value: "N"})
	require.NoError(t, err)
	assert.Equal(t, constval.KSequence, v.Kind)
}

type fakeBindings struct{ values map[string]constval.Value }

func (f fakeBindings) Lookup(name string) (constval.Value, bool) {
	v, ok := f.values[name]
	return v, ok
}

func TestFoldTupleLiteral(t *testing.T) {
	e := consteval.New(noBindings{})
	expr := &ast.TupleExpression{Elements: []ast.Expression{intLit("1"), intLit("2")}}
	v, err := e.Fold(expr)
	require.NoError(t, err)
	require.Equal(t, constval.KSequence, v.Kind)
	require.Len(t, v.Seq, 2)
}

func TestFoldIndexIntoConstantSequence(t *testing.T) {
	e := consteval.New(noBindings{})
	seq := &ast.TupleExpression{Elements: []ast.Expression{intLit("10"), intLit("20")}}
	expr := &ast.IndexExpression{Receiver: seq, Index: intLit("1")}
	v, err := e.Fold(expr)
	require.NoError(t, err)
	idx, ok := v.AsIndex()
	require.True(t, ok)
	assert.Equal(t, 20, idx)
}

func TestFoldIndexOutOfRangeIsArithmeticError(t *testing.T) {
	e := consteval.New(noBindings{})
	seq := &ast.TupleExpression{Elements: []ast.Expression{intLit("10")}}
	expr := &ast.IndexExpression{Receiver: seq, Index: intLit("5")}
	_, err := e.Fold(expr)
	require.Error(t, err)
	var arith *consteval.ErrArithmetic
	assert.ErrorAs(t, err, &arith)
}

func TestFoldUnaryNegation(t *testing.T) {
	e := consteval.New(noBindings{})
	expr := &ast.UnaryExpression{Op: token.MINUS, Operand: intLit("5")}
	v, err := e.Fold(expr)
	require.NoError(t, err)
	idx, ok := v.AsIndex()
	require.True(t, ok)
	assert.Equal(t, -5, idx)
}
