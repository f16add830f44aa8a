package compilation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/compilation"
)

func TestNewConstructsUniqueRunID(t *testing.T) {
	a := compilation.New()
	b := compilation.New()
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.NotNil(t, a.Bus)
	assert.NotNil(t, a.Interner)
	assert.NotNil(t, a.Impls)
	assert.Nil(t, a.Graph, "Graph is attached later via SetRoot")
}

func TestSetRootBuildsGraphRootedAtNode(t *testing.T) {
	c := compilation.New()
	root := &ast.Program{File: "t.nyx"}
	c.SetRoot(root)
	require.NotNil(t, c.Graph)
	assert.Same(t, root, c.Graph.Root().Enclosing())
}

func TestOwnerReturnsLastPackageInBuildOrder(t *testing.T) {
	c := compilation.New()
	assert.Nil(t, c.Owner())

	dep := &compilation.Package{Name: "dep"}
	owner := &compilation.Package{Name: "app"}
	c.Packages = append(c.Packages, dep, owner)

	assert.Same(t, owner, c.Owner())
}

func TestStringIncludesPackageCount(t *testing.T) {
	c := compilation.New()
	c.Packages = append(c.Packages, &compilation.Package{Name: "app"})
	assert.Contains(t, c.String(), "1 package")
}
