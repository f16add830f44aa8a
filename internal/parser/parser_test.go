package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/lexer"
	"github.com/nyxlang/nyxc/internal/parser"
	"github.com/nyxlang/nyxc/internal/token"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks := parser.Tokenize(lexer.New("t.nyx", src))
	p := parser.New("t.nyx", toks)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors, "unexpected parse errors: %v", p.Errors)
	return prog
}

func decl(t *testing.T, prog *ast.Program, i int) ast.Declaration {
	t.Helper()
	d, ok := ast.UnwrapDeclaration(prog.Statements[i])
	require.True(t, ok, "statement %d is not a declaration", i)
	return d
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parse(t, `
function add(a: i32, b: i32): i32 {
	return a + b
}
`)
	require.Len(t, prog.Statements, 1)
	fn, ok := decl(t, prog, 0).(*ast.FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name.Value)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name.Value)
	require.Len(t, fn.Body.Statements, 1)
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStatement)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, token.PLUS, bin.Op)
}

func TestParseGenericFunctionDeclaration(t *testing.T) {
	prog := parse(t, `function id[T](x: T): T = x`)
	fn, ok := decl(t, prog, 0).(*ast.FunctionDeclaration)
	require.True(t, ok)
	require.Len(t, fn.Generics, 1)
	assert.Equal(t, "T", fn.Generics[0].Value)
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog := parse(t, `val x: i32 = 2 + 3 * 4`)
	cd, ok := decl(t, prog, 0).(*ast.ConstDeclaration)
	require.True(t, ok)
	top, ok := cd.Value.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, token.PLUS, top.Op, "multiplication should bind tighter than addition")

	right, ok := top.Right.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, token.STAR, right.Op)
}

func TestParseTypeDeclarationStructureAndVariant(t *testing.T) {
	prog := parse(t, `
type Point { x: i32, y: i32 }
type V = i32 | string
`)
	require.Len(t, prog.Statements, 2)

	pt, ok := decl(t, prog, 0).(*ast.TypeDeclaration)
	require.True(t, ok)
	require.Len(t, pt.Fields, 2)
	assert.Equal(t, "x", pt.Fields[0].Name.Value)

	variant, ok := decl(t, prog, 1).(*ast.TypeDeclaration)
	require.True(t, ok)
	require.Len(t, variant.Variants, 2)
}

func TestParseIfStatement(t *testing.T) {
	prog := parse(t, `
function f(x: i32): i32 {
	if x > 0 {
		return 1
	} else {
		return 0
	}
}
`)
	fn := decl(t, prog, 0).(*ast.FunctionDeclaration)
	ifst, ok := fn.Body.Statements[0].(*ast.IfStatement)
	require.True(t, ok)
	require.NotNil(t, ifst.Else)
}

func TestParseWhenStatementWithTuplePattern(t *testing.T) {
	prog := parse(t, `
function f(): i32 {
	val t = (1, 2, 3)
	when t {
		(a, _, c) => a + c,
	}
	return 0
}
`)
	fn := decl(t, prog, 0).(*ast.FunctionDeclaration)
	require.Len(t, fn.Body.Statements, 3)
	whenStmt, ok := fn.Body.Statements[1].(*ast.WhenStatement)
	require.True(t, ok)
	require.Len(t, whenStmt.Cases, 1)
	_, ok = whenStmt.Cases[0].Pattern.(*ast.TuplePattern)
	assert.True(t, ok)
}

func TestParseRangeTypeDeclaration(t *testing.T) {
	prog := parse(t, `type U = range i32 1..=10`)
	td, ok := decl(t, prog, 0).(*ast.TypeDeclaration)
	require.True(t, ok)
	_, ok = td.Alias.(*ast.RangeTypeExpr)
	assert.True(t, ok)
}

func TestParseCallWithExplicitGenericArgs(t *testing.T) {
	prog := parse(t, `
function user(): i32 {
	return id[i32](3)
}
`)
	fn := decl(t, prog, 0).(*ast.FunctionDeclaration)
	ret := fn.Body.Statements[0].(*ast.ReturnStatement)
	call, ok := ret.Value.(*ast.CallExpression)
	require.True(t, ok)
	require.Len(t, call.Generics, 1)
}

func TestParseErrorRecoveryReportsAndContinues(t *testing.T) {
	toks := parser.Tokenize(lexer.New("t.nyx", `
function f(): i32 { return 1 }
function ) broken
function g(): i32 { return 2 }
`))
	p := parser.New("t.nyx", toks)
	prog := p.ParseProgram()
	assert.NotEmpty(t, p.Errors)
	assert.NotEmpty(t, prog.Statements)
}
