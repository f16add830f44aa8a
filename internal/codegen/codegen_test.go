package codegen_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/codegen"
	"github.com/nyxlang/nyxc/internal/token"
	"github.com/nyxlang/nyxc/internal/types"
)

func TestGeneratorDefineEmitsStructureAndFunction(t *testing.T) {
	pointType := types.Structure{
		Name: "app.Point",
		Fields: []types.Field{
			{Name: "x", Type: types.Int(32)},
			{Name: "y", Type: types.Int(32)},
		},
	}
	sig := types.Function{Params: []types.Type{types.Int(32), types.Int(32)}, Result: types.Int(32)}
	decl := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Value: "add"},
		Params: []ast.Param{
			{Name: &ast.Identifier{Value: "a"}},
			{Name: &ast.Identifier{Value: "b"}},
		},
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.ReturnStatement{Value: &ast.BinaryExpression{
				Op:   token.PLUS,
				Left: &ast.Identifier{Value: "a"},
				Right: &ast.Identifier{Value: "b"},
			}},
		}},
	}

	gen := &codegen.Generator{
		Workspace: "app",
		Types:     []codegen.TypeEntry{{Path: "app.Point", Type: pointType}},
		Funcs:     []codegen.FuncEntry{{Path: "app.add", Sig: sig, Decl: decl}},
		Impls:     types.NewImplementorRegistry(),
	}

	unit := gen.Define()
	assert.Equal(t, "app", unit.Workspace)
	assert.Contains(t, unit.Header, "struct app_Point;")
	assert.Contains(t, unit.Header, "#pragma once")
	assert.Contains(t, unit.Source, "struct app_Point {")
	assert.Contains(t, unit.Source, "int32_t x;")
	assert.Contains(t, unit.Source, "int32_t app_add(int32_t a, int32_t b) {")
	assert.Contains(t, unit.Source, "return (a + b);")
}

// S6 — range constraint: the wrapper's constructor asserts the declared
// bounds, inclusive per the `..=` syntax.
func TestGeneratorDefineEmitsRangeWrapperWithBoundsCheck(t *testing.T) {
	rt := types.RangeType{Base: types.Int(32), Start: 1, End: 10, Inclusive: true}
	gen := &codegen.Generator{
		Workspace: "app",
		Types:     []codegen.TypeEntry{{Path: "app.U", Type: rt}},
		Impls:     types.NewImplementorRegistry(),
	}
	unit := gen.Define()
	assert.Contains(t, unit.Source, "v >= 1 && v <= 10")
	assert.Contains(t, unit.Header, "typedef struct")
}

// Property 8 — every variant member gets a tagged constructor and a
// checked accessor keyed by the hash of its canonical form.
func TestGeneratorDefineEmitsVariantTagDispatch(t *testing.T) {
	v, ok := types.NewVariant([]types.Type{types.Int(32), types.TString}).(types.Variant)
	require.True(t, ok)
	gen := &codegen.Generator{
		Workspace: "app",
		Types:     []codegen.TypeEntry{{Path: "app.V", Type: v}},
		Impls:     types.NewImplementorRegistry(),
	}
	unit := gen.Define()
	assert.Contains(t, unit.Source, "uint64_t __tag;")
	assert.Contains(t, unit.Source, fmt.Sprintf("_init_%x", types.Tag(types.Int(32))))
	assert.Contains(t, unit.Source, fmt.Sprintf("_as_%x", types.Tag(types.TString)))
	assert.Contains(t, unit.Source, "__crash_tag_mismatch")
}

func TestGeneratorDefineSynthesizesEntryTrampoline(t *testing.T) {
	sig := types.Function{Result: types.TUnit}
	decl := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Value: "main"},
		Body: &ast.BlockStatement{},
	}
	entry := codegen.FuncEntry{Path: "app.main", Sig: sig, Decl: decl}
	gen := &codegen.Generator{
		Workspace:  "app",
		Funcs:      []codegen.FuncEntry{entry},
		Impls:      types.NewImplementorRegistry(),
		EntryPoint: &entry,
	}

	unit := gen.Define()
	require.NotEmpty(t, unit.Source)
	assert.Contains(t, unit.Source, "int main(")
}
