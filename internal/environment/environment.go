// Package environment implements the scope graph of spec §4.1: a
// parent-linked tree of environments, each carrying four name tables
// (values, functions, types, concepts), classified by scope kind.
//
// Grounded on the teacher's internal/symbols package (Symbol, ScopeType)
// generalised to the four-table shape and inside/outscope operations of
// spec §3–§4.1, and cross-checked against the reference compiler's
// include/nemesis/analysis/environment.hpp.
package environment

import (
	"fmt"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/token"
)

// Kind classifies what kind of AST node an Environment encloses.
type Kind int

const (
	Workspace Kind = iota
	Global
	FunctionScope
	TestScope
	Block
	Loop
	Declaration
)

func (k Kind) String() string {
	switch k {
	case Workspace:
		return "workspace"
	case Global:
		return "global"
	case FunctionScope:
		return "function"
	case TestScope:
		return "test"
	case Block:
		return "block"
	case Loop:
		return "loop"
	case Declaration:
		return "declaration"
	default:
		return "unknown"
	}
}

// DefKind dispatches a definition to its matching table, per spec §4.1:
// "Definitions dispatch on declaration category... and populate the
// matching table."
type DefKind int

const (
	DefType DefKind = iota
	DefVar
	DefConst
	DefGenericConstParam
	DefFunction
	DefProperty
	DefConcept
)

// Def is one named definition installed into an environment's table.
type Def struct {
	Name string
	Kind DefKind
	Node ast.Node // the declaring AST node
}

// Environment is one node of the scope graph: a parent-linked tree
// carrying the four name tables of spec §3.
type Environment struct {
	kind      Kind
	enclosing ast.Node
	parent    *Environment
	children  []*Environment

	values    map[string]Def
	functions map[string]Def
	types     map[string]Def
	concepts  map[string]Def
}

// New constructs a fresh environment enclosing node, optionally nested
// under parent. Every semantic construct creates exactly one
// environment (spec §4.1).
func New(kind Kind, enclosing ast.Node, parent *Environment) *Environment {
	e := &Environment{
		kind:      kind,
		enclosing: enclosing,
		parent:    parent,
		values:    make(map[string]Def),
		functions: make(map[string]Def),
		types:     make(map[string]Def),
		concepts:  make(map[string]Def),
	}
	if parent != nil {
		parent.children = append(parent.children, e)
	}
	return e
}

func (e *Environment) Kind() Kind          { return e.kind }
func (e *Environment) Enclosing() ast.Node { return e.enclosing }
func (e *Environment) Parent() *Environment { return e.parent }
func (e *Environment) Children() []*Environment { return e.children }

func tableFor(e *Environment, kind DefKind) (map[string]Def, error) {
	switch kind {
	case DefType:
		return e.types, nil
	case DefVar, DefConst, DefGenericConstParam:
		return e.values, nil
	case DefFunction, DefProperty:
		return e.functions, nil
	case DefConcept:
		return e.concepts, nil
	default:
		return nil, fmt.Errorf("environment: unknown definition kind %d", kind)
	}
}

// Define installs a definition in its matching table. A duplicate key
// in the same table is rejected per spec §4.1's failure semantics and
// Invariant 3 ("No environment contains two definitions with the same
// key in the same table"); the caller supplies the token so the
// diagnostic can report both source ranges.
func (e *Environment) Define(d Def, at token.Token) *diagnostics.Diagnostic {
	table, err := tableFor(e, d.Kind)
	if err != nil {
		panic(err) // programmer error: unknown DefKind, not a user diagnostic
	}
	if existing, ok := table[d.Name]; ok {
		diag := diagnostics.NewError(diagnostics.CodeDuplicateDef, at,
			"%q is already defined in this scope", d.Name)
		if tok, ok := existing.Node.(interface{ GetToken() token.Token }); ok {
			prior := tok.GetToken()
			diag.WithNote(fmt.Sprintf("previous definition of %q", d.Name), prior.Pos)
		}
		return diag
	}
	table[d.Name] = d
	return nil
}

// Remove deletes a definition from its matching table (spec §4.1:
// "targeted removal").
func (e *Environment) Remove(name string, kind DefKind) {
	table, err := tableFor(e, kind)
	if err != nil {
		return
	}
	delete(table, name)
}

func lookup(e *Environment, table func(*Environment) map[string]Def, name string, recursive bool) (Def, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if d, ok := table(cur)[name]; ok {
			return d, true
		}
		if !recursive {
			break
		}
	}
	return Def{}, false
}

// Value looks up name in the values table, walking parents unless
// recursive is false.
func (e *Environment) Value(name string, recursive bool) (Def, bool) {
	return lookup(e, func(env *Environment) map[string]Def { return env.values }, name, recursive)
}

// Function looks up name in the functions table.
func (e *Environment) Function(name string, recursive bool) (Def, bool) {
	return lookup(e, func(env *Environment) map[string]Def { return env.functions }, name, recursive)
}

// Type looks up name in the types table.
func (e *Environment) Type(name string, recursive bool) (Def, bool) {
	return lookup(e, func(env *Environment) map[string]Def { return env.types }, name, recursive)
}

// Concept looks up name in the concepts table.
func (e *Environment) Concept(name string, recursive bool) (Def, bool) {
	return lookup(e, func(env *Environment) map[string]Def { return env.concepts }, name, recursive)
}

// Inside walks the parent chain and reports whether any enclosing
// environment (including e itself) has the given Kind.
func (e *Environment) Inside(kind Kind) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.kind == kind {
			return true
		}
	}
	return false
}

// Outscope returns the enclosing AST node of the nearest environment of
// the given Kind, or nil if none encloses e.
func (e *Environment) Outscope(kind Kind) ast.Node {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.kind == kind {
			return cur.enclosing
		}
	}
	return nil
}

// Graph is the checker's "AST node → environment" map, giving O(1)
// lookup of a node's scope during later passes (spec §4.1).
type Graph struct {
	scopes map[ast.Node]*Environment
	root   *Environment
}

// NewGraph constructs an empty scope graph rooted at a freshly created
// Workspace environment enclosing root.
func NewGraph(root ast.Node) *Graph {
	env := New(Workspace, root, nil)
	g := &Graph{scopes: make(map[ast.Node]*Environment), root: env}
	g.scopes[root] = env
	return g
}

// Root returns the workspace-level environment.
func (g *Graph) Root() *Environment { return g.root }

// Enter creates a new environment of the given kind enclosing node,
// parented under parent, and records it in the scope map.
func (g *Graph) Enter(kind Kind, node ast.Node, parent *Environment) *Environment {
	env := New(kind, node, parent)
	g.scopes[node] = env
	return env
}

// ScopeOf returns the environment recorded for node, if any.
func (g *Graph) ScopeOf(node ast.Node) (*Environment, bool) {
	env, ok := g.scopes[node]
	return env, ok
}
