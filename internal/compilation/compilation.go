// Package compilation models the single compilation context value
// described at spec §9 "Global singletons": the diagnostics bus and
// type-intern table, here gathered with the environment graph and
// implementor registry into one Context constructed once per `build`
// command and threaded explicitly through every pass, replacing the
// process-wide singletons the source relies on. The source handler is
// not part of it; the driver's own Context carries that.
package compilation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/checker"
	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/environment"
	"github.com/nyxlang/nyxc/internal/manifest"
	"github.com/nyxlang/nyxc/internal/types"
)

// Unit is one source file within a package: its path, raw text, and
// (once parsed) its AST.
type Unit struct {
	Path string
	Text string
	AST  *ast.Program
}

// Package is one workspace: an application or library with its own
// manifest and ordered source units. Declarations within it are
// visited in source order, per spec §5 "Ordering guarantees".
type Package struct {
	Name     string
	Manifest *manifest.Manifest
	Units    []*Unit
}

// Context is the compilation-context value of spec §9: it replaces the
// source's process-wide type-intern singleton with one value,
// constructed once per build and released at its end.
type Context struct {
	// RunID uniquely identifies one invocation of the driver, for trace
	// output and diagnostic correlation.
	RunID uuid.UUID

	Bus      *diagnostics.Bus
	Interner *types.Interner
	Impls    *types.ImplementorRegistry
	Graph    *environment.Graph

	// Instances holds every cached generic instantiation the checker
	// produced (spec §4.4 rule 3), for codegen to lower into one
	// concrete function per instance.
	Instances []*checker.GenericInstance

	// Packages holds the resolved dependency closure in reverse
	// topological order followed by the owning package last (spec §5,
	// §8 property 7).
	Packages []*Package
}

// New constructs a fresh compilation context for one driver invocation.
// Graph is left nil: it is keyed to the workspace's root AST node,
// which is only known once parsing has produced it, so callers attach
// it via SetRoot before the checker pass begins.
func New() *Context {
	c := &Context{
		RunID:    uuid.New(),
		Bus:      diagnostics.NewBus(),
		Interner: types.NewInterner(),
		Impls:    types.NewImplementorRegistry(),
	}
	// Stamp every diagnostic published on this run's bus with the run ID;
	// subscribed first, so every later subscriber sees the stamp.
	runID := c.RunID.String()
	c.Bus.Subscribe(diagnostics.PrinterFunc(func(d *diagnostics.Diagnostic) { d.RunID = runID }))
	return c
}

// SetRoot constructs the environment graph rooted at the workspace's
// entry AST node, once parsing has produced it.
func (c *Context) SetRoot(root ast.Node) {
	c.Graph = environment.NewGraph(root)
}

// Owner returns the final (owning) package in the build order, per
// spec §8 property 7.
func (c *Context) Owner() *Package {
	if len(c.Packages) == 0 {
		return nil
	}
	return c.Packages[len(c.Packages)-1]
}

func (c *Context) String() string {
	return fmt.Sprintf("compilation %s (%d package(s))", c.RunID, len(c.Packages))
}
