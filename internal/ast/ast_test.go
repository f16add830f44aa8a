package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/types"
)

func TestAnnotationsResolvedTypeDefaultsToUnknown(t *testing.T) {
	lit := &ast.Literal{Kind: ast.LitInt, Raw: "1"}
	assert.Equal(t, types.Unknown{}, lit.ResolvedType())

	lit.Annotations.Type = types.Int(32)
	assert.Equal(t, types.Int(32), lit.ResolvedType())
}

func TestIdentifierIsAssignableOnlyWhenReferencingVar(t *testing.T) {
	id := &ast.Identifier{Value: "x"}
	assert.False(t, id.IsAssignable(), "unresolved identifier is not assignable")

	id.Referencing = &ast.VarDeclaration{Name: &ast.Identifier{Value: "x"}}
	assert.True(t, id.IsAssignable())

	id.Referencing = &ast.ConstDeclaration{Name: &ast.Identifier{Value: "x"}}
	assert.False(t, id.IsAssignable(), "a const binding is never assignable")
}

func TestUnwrapDeclarationRoundTripsThroughVisitorDispatch(t *testing.T) {
	decl := &ast.FunctionDeclaration{Name: &ast.Identifier{Value: "f"}}
	stmt := ast.WrapDeclarationAsStatement(decl)

	got, ok := ast.UnwrapDeclaration(stmt)
	require.True(t, ok)
	assert.Same(t, decl, got)
}

func TestUnwrapDeclarationFalseForOrdinaryStatement(t *testing.T) {
	stmt := &ast.ExpressionStatement{Expression: &ast.Literal{Kind: ast.LitInt, Raw: "1"}}
	_, ok := ast.UnwrapDeclaration(stmt)
	assert.False(t, ok)
}
