package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/environment"
)

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Value: name}
}

func TestDefineAndLookupValue(t *testing.T) {
	root := environment.New(environment.Global, ident("root"), nil)
	decl := ident("x")
	diag := root.Define(environment.Def{Name: "x", Kind: environment.DefVar, Node: decl}, decl.Token)
	require.Nil(t, diag)

	def, ok := root.Value("x", true)
	require.True(t, ok)
	assert.Same(t, decl, def.Node)
}

func TestDefineDuplicateReportsDiagnosticWithNote(t *testing.T) {
	root := environment.New(environment.Global, ident("root"), nil)
	first := ident("Point")
	second := ident("Point")

	require.Nil(t, root.Define(environment.Def{Name: "Point", Kind: environment.DefType, Node: first}, first.Token))
	diag := root.Define(environment.Def{Name: "Point", Kind: environment.DefType, Node: second}, second.Token)

	require.NotNil(t, diag)
	assert.Equal(t, "\"Point\" is already defined in this scope", diag.Message)
	require.Len(t, diag.Notes, 1)
}

func TestLookupWalksParentChainUnlessNonRecursive(t *testing.T) {
	root := environment.New(environment.Global, ident("root"), nil)
	decl := ident("x")
	require.Nil(t, root.Define(environment.Def{Name: "x", Kind: environment.DefVar, Node: decl}, decl.Token))

	child := environment.New(environment.Block, ident("block"), root)
	_, ok := child.Value("x", true)
	assert.True(t, ok, "recursive lookup should see the parent's definition")

	_, ok = child.Value("x", false)
	assert.False(t, ok, "non-recursive lookup should not escape its own scope")
}

func TestInsideAndOutscopeFindEnclosingKind(t *testing.T) {
	root := environment.New(environment.Global, ident("root"), nil)
	loopNode := ident("loop")
	loop := environment.New(environment.Loop, loopNode, root)
	block := environment.New(environment.Block, ident("body"), loop)

	assert.True(t, block.Inside(environment.Loop))
	assert.False(t, root.Inside(environment.Loop))
	assert.Same(t, loopNode, block.Outscope(environment.Loop))
	assert.Nil(t, block.Outscope(environment.TestScope))
}

func TestRemoveDeletesDefinition(t *testing.T) {
	root := environment.New(environment.Global, ident("root"), nil)
	decl := ident("x")
	require.Nil(t, root.Define(environment.Def{Name: "x", Kind: environment.DefVar, Node: decl}, decl.Token))

	root.Remove("x", environment.DefVar)
	_, ok := root.Value("x", true)
	assert.False(t, ok)
}

func TestGraphEnterAndScopeOf(t *testing.T) {
	rootNode := ident("root")
	g := environment.NewGraph(rootNode)

	fnNode := ident("f")
	fnEnv := g.Enter(environment.FunctionScope, fnNode, g.Root())

	got, ok := g.ScopeOf(fnNode)
	require.True(t, ok)
	assert.Same(t, fnEnv, got)

	_, ok = g.ScopeOf(ident("never-entered"))
	assert.False(t, ok)
}
