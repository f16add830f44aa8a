package checker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/checker"
	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/lexer"
	"github.com/nyxlang/nyxc/internal/parser"
	"github.com/nyxlang/nyxc/internal/types"
)

// parseProgram lexes and parses src into one *ast.Program, failing the
// test on any syntax error.
func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks := parser.Tokenize(lexer.New("t.nyx", src))
	p := parser.New("t.nyx", toks)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors, "unexpected parse errors: %v", p.Errors)
	return prog
}

// check lexes, parses, and checks src, returning the Checker (so tests
// can inspect cached generic instantiations) and the diagnostics bus.
func check(t *testing.T, src string) (*checker.Checker, *diagnostics.Bus, *ast.Program) {
	t.Helper()
	prog := parseProgram(t, src)
	bus := diagnostics.NewBus()
	c := checker.New(bus, types.NewInterner(), types.NewImplementorRegistry(), prog)
	c.Check([]*ast.Program{prog})
	return c, bus, prog
}

// topDecl returns the i'th top-level declaration of prog, unwrapping the
// parser's Statement adapter.
func topDecl(t *testing.T, prog *ast.Program, i int) ast.Declaration {
	t.Helper()
	decl, ok := ast.UnwrapDeclaration(prog.Statements[i])
	require.True(t, ok, "statement %d is not a declaration", i)
	return decl
}

// S1 — arithmetic const fold: `val x: i32 = 2 + 3 * 4` folds to 14.
func TestCheckConstFold(t *testing.T) {
	_, bus, prog := check(t, `val x: i32 = 2 + 3 * 4`)
	require.False(t, bus.HasErrors())

	cd, ok := topDecl(t, prog, 0).(*ast.ConstDeclaration)
	require.True(t, ok, "expected a const declaration")
	require.NotNil(t, cd.Annotations.Value)
	got, ok := cd.Annotations.Value.AsIndex()
	require.True(t, ok)
	assert.Equal(t, 14, got)
}

func TestCheckUndefinedNameReportsDiagnostic(t *testing.T) {
	_, bus, _ := check(t, `function f(): i32 { return y }`)
	assert.True(t, bus.HasErrors())
	assert.Equal(t, 1, bus.Count(diagnostics.Error))
}

func TestCheckDuplicateDefinitionReportsDiagnostic(t *testing.T) {
	_, bus, _ := check(t, `
type Point { x: i32, y: i32 }
type Point { x: i32, y: i32 }
`)
	assert.True(t, bus.HasErrors())
}

// S6 — range constraint: declaring a range type and using it checks
// cleanly; the constructed value's bound is checked at codegen time
// (crash on out-of-range), not at compile time, per spec §4.6.
func TestCheckRangeTypeDeclares(t *testing.T) {
	_, bus, _ := check(t, `
type U = range i32 1..=10
function f(): i32 { return 5 }
`)
	assert.False(t, bus.HasErrors())
}

// S2 — variant member resolution: a type alias to a variant of two
// members checks cleanly.
func TestCheckVariantTypeDeclaration(t *testing.T) {
	_, bus, _ := check(t, `type V = i32 | string`)
	assert.False(t, bus.HasErrors())
}

// S5 — generic instantiation: calling a generic function with two
// distinct argument types produces two distinct cached instances; the
// matcher's binding is deterministic across repeated calls with the same
// argument type (spec §4.4 rule 3, §8 property 4).
func TestCheckGenericInstantiationCachesPerBinding(t *testing.T) {
	c, bus, _ := check(t, `
function id[T](x: T): T = x
function user(): i32 {
	val a = id(3)
	val b = id(4)
	val c = id("s")
	return a
}
`)
	require.False(t, bus.HasErrors())
	insts := c.Instances()
	require.Len(t, insts, 2, "expected one instance per distinct argument type, got %d", len(insts))

	names := map[string]bool{}
	for _, inst := range insts {
		names[inst.MangledName] = true
	}
	assert.Len(t, names, 2, "each distinct argument type should produce its own mangled name")
}

func TestCheckGenericArityMismatchReportsArityError(t *testing.T) {
	_, bus, _ := check(t, `
function id[T](x: T): T = x
function user(): i32 {
	return id()
}
`)
	assert.True(t, bus.HasErrors())
}

func TestCheckBreakOutsideLoopReportsDiagnostic(t *testing.T) {
	_, bus, _ := check(t, `
function f(): i32 {
	break
	return 0
}
`)
	assert.True(t, bus.HasErrors())
}

func TestCheckContractConditionMustBeBool(t *testing.T) {
	_, bus, _ := check(t, `
function f(x: i32): i32
	require x
{
	return x
}
`)
	assert.True(t, bus.HasErrors())
}

// S2 — variant wrap/unwrap: a value-producing `when` over a variant
// member binds the payload and joins every branch to one type.
func TestCheckWhenExpressionOverVariantMember(t *testing.T) {
	_, bus, prog := check(t, `
type V = i32 | string
function f(v: V): i32 {
	return when v is i32 { k => k + 1, else => 0 }
}
`)
	require.False(t, bus.HasErrors())

	fn, ok := topDecl(t, prog, 1).(*ast.FunctionDeclaration)
	require.True(t, ok)
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStatement)
	require.True(t, ok)
	when, ok := ret.Value.(*ast.WhenExpression)
	require.True(t, ok)
	assert.Equal(t, "i32", when.ResolvedType().String())
	require.Len(t, when.Cases, 1)
	require.NotNil(t, when.Cases[0].Condition, "the compiled tag test must be stored on the case")
	require.Len(t, when.Cases[0].Decls, 1)
	assert.Equal(t, "k", when.Cases[0].Decls[0].Name.Value)
}

// S4 — behaviour wiring: an extend that implements every method of the
// behaviour registers the implementor; one that misses a method is a
// linkage error.
func TestCheckExtendRegistersBehaviourImplementor(t *testing.T) {
	c, bus, _ := check(t, `
type T { n: i32 }
behaviour Display { function show(x: i32): i32 }
extend T: Display {
	function show(x: i32): i32 { return x }
}
`)
	require.False(t, bus.HasErrors())
	assert.True(t, c.Impls.Implements("T", "Display"))
}

func TestCheckExtendMissingBehaviourMethodReportsLinkageError(t *testing.T) {
	_, bus, _ := check(t, `
type T { n: i32 }
behaviour Display { function show(x: i32): i32 }
extend T: Display { }
`)
	assert.True(t, bus.HasErrors())
}

// S3 — pattern with binding: `(a, _, c)` against a 3-tuple binds `a` and
// `c`, leaving the body free to reference them.
func TestCheckWhenPatternBindsAndChecksBody(t *testing.T) {
	_, bus, _ := check(t, `
function f(): i32 {
	val t = (1, 2, 3)
	when t {
		(a, _, c) => a + c,
	}
	return 0
}
`)
	assert.False(t, bus.HasErrors())
}
