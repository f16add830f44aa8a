// Package checker implements the semantic analyzer of spec §4.4: a
// multi-pass walker that builds the scope graph, resolves names,
// assigns types, and enforces the checking rules R1-R9.
//
// Grounded on the teacher's internal/analyzer two-phase design
// (headers-then-bodies, see analyzer.go's IsHeadersAnalyzed/
// IsBodiesAnalyzed split) and its walker/error-dedup style
// (analyzer.go's `walker` type), re-targeted from the teacher's
// Hindley-Milner inference (internal/analyzer/inference*.go) onto
// internal/types' declared-type-driven checking and internal/pattern's
// selector-tree compiler instead of ad hoc pattern desugaring.
package checker

import (
	"fmt"
	"strings"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/consteval"
	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/diagnostics"
	"github.com/nyxlang/nyxc/internal/environment"
	"github.com/nyxlang/nyxc/internal/pattern"
	"github.com/nyxlang/nyxc/internal/token"
	"github.com/nyxlang/nyxc/internal/types"
)

// Checker runs the nine checking rules of spec §4.4 over one workspace
// (possibly many packages/files) and publishes diagnostics to Bus as it
// finds violations. It never panics on malformed user input; an
// internal invariant violation (e.g. an untagged AST node) is the only
// panic surface.
type Checker struct {
	Bus      *diagnostics.Bus
	Interner *types.Interner
	Impls    *types.ImplementorRegistry
	Graph    *environment.Graph

	// declaredTypes maps a type declaration's dot-path name to its
	// resolved types.Type, populated during the declare pass and read
	// during the check pass (spec §4.4 rule 2: "types are resolved
	// before any body is checked").
	declaredTypes map[string]types.Type
	// declaredSigs maps a function/property's dot-path name to its
	// resolved signature.
	declaredSigs map[string]types.Function
	// genericFuncs maps a generic function's name to its declaration, so
	// a call site can look up its unsubstituted (Generic-bearing)
	// signature for unification (spec §4.4 rule 3).
	genericFuncs map[string]*ast.FunctionDeclaration
	// instances caches one GenericInstance per distinct (declaration,
	// parameter map), keyed by a stable string so a second call site
	// with the same argument types reuses the first instantiation
	// rather than emitting it twice (spec §4.4 rule 3, §8 property 4,
	// scenario S5).
	instances map[string]*GenericInstance
	// instanceOrder preserves first-seen order for deterministic codegen
	// output across multiple call sites.
	instanceOrder []*GenericInstance

	currentEnv *environment.Environment
}

// GenericInstance records one cached instantiation of a generic function:
// the declaration it specializes, the bindings the type matcher produced,
// the substituted concrete signature, and the mangled name codegen emits
// the specialized body under.
type GenericInstance struct {
	Decl        *ast.FunctionDeclaration
	Bindings    types.Bindings
	Sig         types.Function
	MangledName string
}

// Instances returns every cached generic instantiation produced while
// checking, in first-seen order, for codegen to lower into one concrete
// function per instance (spec §4.6, scenario S5).
func (c *Checker) Instances() []*GenericInstance { return c.instanceOrder }

// New constructs a Checker publishing to bus, interning types through
// interner, and recording behaviour implementors in impls. root is the
// program (or synthetic multi-file root) the scope graph is rooted at.
func New(bus *diagnostics.Bus, interner *types.Interner, impls *types.ImplementorRegistry, root ast.Node) *Checker {
	c := &Checker{
		Bus:           bus,
		Interner:      interner,
		Impls:         impls,
		Graph:         environment.NewGraph(root),
		declaredTypes: make(map[string]types.Type),
		declaredSigs:  make(map[string]types.Function),
		genericFuncs:  make(map[string]*ast.FunctionDeclaration),
		instances:     make(map[string]*GenericInstance),
	}
	c.currentEnv = c.Graph.Root()
	pattern.SetMemberTypeResolver(c.resolveTypeExpr)
	return c
}

// Check runs the declare pass then the check pass over every program in
// files, stopping after the declare pass if it produced any errors
// (rule ordering: "types are resolved before any body is checked").
func (c *Checker) Check(files []*ast.Program) {
	for _, f := range files {
		c.declareFile(f)
	}
	if c.Bus.HasErrors() {
		return
	}
	for _, f := range files {
		c.checkFile(f)
	}
}

// ---- Declare pass (rule 2: type declaration resolution; rule 8:
// generic formal-parameter scoping) ----

func (c *Checker) declareFile(f *ast.Program) {
	env := c.Graph.Enter(environment.Global, f, c.Graph.Root())
	for _, stmt := range f.Statements {
		c.declareTop(stmt, env)
	}
}

func (c *Checker) declareTop(stmt ast.Statement, env *environment.Environment) {
	var target ast.Node = stmt
	if decl, ok := ast.UnwrapDeclaration(stmt); ok {
		target = decl
	}
	switch d := target.(type) {
	case *ast.TypeDeclaration:
		c.declareType(d, env)
	case *ast.FunctionDeclaration:
		c.declareFunction(d, env)
	case *ast.ConstDeclaration:
		c.declareConst(d, env)
	case *ast.VarDeclaration:
		c.declareVar(d, env)
	case *ast.BehaviourDeclaration:
		c.declareBehaviour(d, env)
	case *ast.ConceptDeclaration:
		if diag := env.Define(environment.Def{Name: d.Name.Value, Kind: environment.DefConcept, Node: d}, d.Token); diag != nil {
			c.Bus.Publish(diag)
		}
	case *ast.ExtendDeclaration:
		c.declareExtend(d, env)
	case *ast.TestDeclaration:
		testEnv := c.Graph.Enter(environment.TestScope, d, env)
		_ = testEnv
	}
}

func (c *Checker) declareType(d *ast.TypeDeclaration, env *environment.Environment) {
	if diag := env.Define(environment.Def{Name: d.Name.Value, Kind: environment.DefType, Node: d}, d.Token); diag != nil {
		c.Bus.Publish(diag)
		return
	}
	declEnv := c.Graph.Enter(environment.Declaration, d, env)
	for _, g := range d.Generics {
		declEnv.Define(environment.Def{Name: g.Value, Kind: environment.DefType, Node: g}, g.Token)
	}

	var resolved types.Type
	var err error
	switch {
	case d.Alias != nil:
		resolved, err = c.resolveTypeExprIn(d.Alias, declEnv)
	case len(d.Variants) > 0:
		members := make([]types.Type, len(d.Variants))
		for i, m := range d.Variants {
			members[i], err = c.resolveTypeExprIn(m, declEnv)
			if err != nil {
				break
			}
		}
		resolved = types.NewVariant(members)
	default:
		fields := make([]types.Field, len(d.Fields))
		for i, fd := range d.Fields {
			var ft types.Type
			ft, err = c.resolveTypeExprIn(fd.Type, declEnv)
			if err != nil {
				break
			}
			fields[i] = types.Field{Name: fd.Name.Value, Type: ft}
		}
		resolved = types.Structure{Name: d.Name.Value, Fields: fields}
	}
	if err != nil {
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, d.Token, "%s", err.Error()))
		resolved = types.Unknown{}
	}
	resolved = c.Interner.Intern(resolved)
	d.Type = resolved
	c.declaredTypes[d.Name.Value] = resolved
}

func (c *Checker) declareFunction(d *ast.FunctionDeclaration, env *environment.Environment) {
	if diag := env.Define(environment.Def{Name: d.Name.Value, Kind: environment.DefFunction, Node: d}, d.Token); diag != nil {
		c.Bus.Publish(diag)
	}
	sigEnv := c.Graph.Enter(environment.Declaration, d, env)
	for _, g := range d.Generics {
		// The formal's own identifier node backs its table entry; backing
		// it with the function declaration would make a body-level use of
		// T resolve to the whole signature once d.Type is set.
		sigEnv.Define(environment.Def{Name: g.Value, Kind: environment.DefType, Node: g}, g.Token)
	}
	for _, cp := range d.ConstParams {
		sigEnv.Define(environment.Def{Name: cp.Name.Value, Kind: environment.DefGenericConstParam, Node: cp}, cp.Token)
	}
	params := make([]types.Type, len(d.Params))
	for i, p := range d.Params {
		pt, err := c.resolveTypeExprIn(p.Type, sigEnv)
		if err != nil {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, p.Name.Token, "%s", err.Error()))
			pt = types.Unknown{}
		}
		params[i] = pt
	}
	var result types.Type = types.TUnit
	if d.ReturnType != nil {
		rt, err := c.resolveTypeExprIn(d.ReturnType, sigEnv)
		if err != nil {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, d.Token, "%s", err.Error()))
		} else {
			result = rt
		}
	}
	sig := types.Function{Params: params, Result: result}
	if n := len(d.Params); n > 0 && d.Params[n-1].Variadic {
		sig.IsVariadic = true
	}
	d.Type = c.Interner.Intern(sig)
	c.declaredSigs[d.Name.Value] = sig
	if len(d.Generics) > 0 {
		c.genericFuncs[d.Name.Value] = d
	}
}

func (c *Checker) declareConst(d *ast.ConstDeclaration, env *environment.Environment) {
	if d.Name != nil {
		env.Define(environment.Def{Name: d.Name.Value, Kind: environment.DefConst, Node: d}, d.Token)
	}
}

func (c *Checker) declareVar(d *ast.VarDeclaration, env *environment.Environment) {
	if d.Name != nil {
		env.Define(environment.Def{Name: d.Name.Value, Kind: environment.DefVar, Node: d}, d.Token)
	}
}

func (c *Checker) declareBehaviour(d *ast.BehaviourDeclaration, env *environment.Environment) {
	methods := make([]types.Method, len(d.Methods))
	for i, m := range d.Methods {
		params := make([]types.Type, len(m.Params))
		for j, p := range m.Params {
			pt, _ := c.resolveTypeExprIn(p.Type, env)
			params[j] = pt
		}
		var result types.Type = types.TUnit
		if m.ReturnType != nil {
			result, _ = c.resolveTypeExprIn(m.ReturnType, env)
		}
		methods[i] = types.Method{Name: m.Name.Value, Sig: types.Function{Params: params, Result: result}}
	}
	behaviour := types.Behaviour{Name: d.Name.Value, Methods: methods}
	d.Type = c.Interner.Intern(behaviour)
	env.Define(environment.Def{Name: d.Name.Value, Kind: environment.DefType, Node: d}, d.Token)
}

func (c *Checker) declareExtend(d *ast.ExtendDeclaration, env *environment.Environment) {
	target, err := c.resolveTypeExprIn(d.Target, env)
	if err != nil {
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, d.Token, "%s", err.Error()))
		return
	}
	if d.Behaviour != nil {
		if bd, ok := env.Type(d.Behaviour.Value, true); ok {
			if bdecl, ok := bd.Node.(*ast.BehaviourDeclaration); ok {
				c.Impls.Register(target.String(), d.Behaviour.Value)
				have := make(map[string]bool, len(d.Methods))
				for _, m := range d.Methods {
					have[m.Name.Value] = true
				}
				for _, req := range bdecl.Methods {
					if !have[req.Name.Value] {
						c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnimplementedBehav, d.Token,
							"extend of %s does not implement %s.%s", target, d.Behaviour.Value, req.Name.Value))
					}
				}
			}
		} else {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, d.Behaviour.Token,
				"unknown behaviour %q", d.Behaviour.Value))
		}
	}
	for _, m := range d.Methods {
		c.declareFunction(m, env)
	}
}

// ---- Check pass (rules 1, 3-9) ----

func (c *Checker) checkFile(f *ast.Program) {
	env, ok := c.Graph.ScopeOf(f)
	if !ok {
		env = c.Graph.Root()
	}
	for _, stmt := range f.Statements {
		c.checkTop(stmt, env)
	}
}

func (c *Checker) checkTop(stmt ast.Statement, env *environment.Environment) {
	var target ast.Node = stmt
	if decl, ok := ast.UnwrapDeclaration(stmt); ok {
		target = decl
	}
	switch d := target.(type) {
	case *ast.FunctionDeclaration:
		c.checkFunction(d, env)
	case *ast.ConstDeclaration:
		c.checkConstDecl(d, env)
	case *ast.VarDeclaration:
		c.checkVarDecl(d, env)
	case *ast.ExtendDeclaration:
		for _, m := range d.Methods {
			c.checkFunction(m, env)
		}
	case *ast.TestDeclaration:
		testEnv, ok := c.Graph.ScopeOf(d)
		if !ok {
			testEnv = c.Graph.Enter(environment.TestScope, d, env)
		}
		c.checkBlock(d.Body, testEnv)
	}
}

func (c *Checker) checkFunction(d *ast.FunctionDeclaration, env *environment.Environment) {
	sigEnv, ok := c.Graph.ScopeOf(d)
	if !ok {
		sigEnv = env
	}
	fnEnv := c.Graph.Enter(environment.FunctionScope, d, sigEnv)
	sig, _ := d.Type.(types.Function)
	for i, p := range d.Params {
		pt := types.Type(types.Unknown{})
		if i < len(sig.Params) {
			pt = sig.Params[i]
		}
		fnEnv.Define(environment.Def{Name: p.Name.Value, Kind: environment.DefVar, Node: paramDecl(p.Name, pt)}, p.Name.Token)
	}
	for _, req := range d.Requires {
		c.checkExpr(req.Condition, fnEnv)
		c.requireBool(req.Condition, diagnostics.CodeContractViolation)
	}
	if d.Body != nil {
		c.checkBlock(d.Body, fnEnv)
	}
	for _, ens := range d.Ensures {
		c.checkExpr(ens.Condition, fnEnv)
		c.requireBool(ens.Condition, diagnostics.CodeContractViolation)
	}
}

func (c *Checker) checkConstDecl(d *ast.ConstDeclaration, env *environment.Environment) {
	if d.Value != nil {
		c.checkExpr(d.Value, env)
		d.Annotations.Type = d.Value.ResolvedType()
		if d.Annotations.Value == nil {
			if v, err := consteval.New(&constLookup{c: c, env: env}).Fold(d.Value); err == nil {
				d.Annotations.Value = &v
			}
		}
	}
	if d.TypeAnnotation != nil {
		declared, err := c.resolveTypeExprIn(d.TypeAnnotation, env)
		if err == nil && d.Value != nil {
			d.Value = c.checkAssignable(d.Value, declared)
			d.Annotations.Type = declared
		}
	}
}

func (c *Checker) checkVarDecl(d *ast.VarDeclaration, env *environment.Environment) {
	if d.Value != nil {
		c.checkExpr(d.Value, env)
		d.Annotations.Type = d.Value.ResolvedType()
	}
	if d.TypeAnnotation != nil {
		declared, err := c.resolveTypeExprIn(d.TypeAnnotation, env)
		if err == nil && d.Value != nil {
			d.Value = c.checkAssignable(d.Value, declared)
			d.Annotations.Type = declared
		}
	}
}

func (c *Checker) checkBlock(b *ast.BlockStatement, env *environment.Environment) {
	blockEnv, ok := c.Graph.ScopeOf(b)
	if !ok {
		blockEnv = c.Graph.Enter(environment.Block, b, env)
	}
	for _, s := range b.Statements {
		c.checkStatement(s, blockEnv)
	}
}

func (c *Checker) checkStatement(s ast.Statement, env *environment.Environment) {
	switch st := s.(type) {
	case *ast.ExpressionStatement:
		c.checkExpr(st.Expression, env)
	case *ast.AssignStatement:
		c.checkExpr(st.LHS, env)
		c.checkExpr(st.RHS, env)
		if !st.LHS.IsAssignable() {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, st.Token,
				"left-hand side of assignment is not assignable"))
		}
	case *ast.IfStatement:
		c.checkExpr(st.Condition, env)
		c.requireBool(st.Condition, diagnostics.CodeTypeMismatch)
		c.checkBlock(st.Then, env)
		if elseSt, ok := st.Else.(*ast.BlockStatement); ok {
			c.checkBlock(elseSt, env)
		} else if elseIf, ok := st.Else.(*ast.IfStatement); ok {
			c.checkStatement(elseIf, env)
		}
	case *ast.WhenStatement:
		c.checkWhen(st, env)
	case *ast.ForStatement:
		c.checkExpr(st.Iterable, env)
		loopEnv := c.Graph.Enter(environment.Loop, st, env)
		var elem types.Type = types.Unknown{}
		switch it := st.Iterable.ResolvedType().(type) {
		case types.Slice:
			elem = it.Elem
		case types.Array:
			elem = it.Elem
		case types.RangeType:
			elem = it.Base
		}
		loopEnv.Define(environment.Def{Name: st.Var.Value, Kind: environment.DefVar, Node: paramDecl(st.Var, elem)}, st.Var.Token)
		c.checkLoopContracts(st.Requires, st.Ensures, loopEnv)
		c.checkBlock(st.Body, loopEnv)
	case *ast.WhileStatement:
		c.checkExpr(st.Condition, env)
		c.requireBool(st.Condition, diagnostics.CodeTypeMismatch)
		loopEnv := c.Graph.Enter(environment.Loop, st, env)
		c.checkLoopContracts(st.Requires, st.Ensures, loopEnv)
		c.checkBlock(st.Body, loopEnv)
	case *ast.LoopStatement:
		loopEnv := c.Graph.Enter(environment.Loop, st, env)
		c.checkLoopContracts(st.Requires, st.Ensures, loopEnv)
		c.checkBlock(st.Body, loopEnv)
	case *ast.BreakStatement:
		if !env.Inside(environment.Loop) {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, st.Token, "break outside of a loop"))
		}
		if st.Value != nil {
			c.checkExpr(st.Value, env)
		}
	case *ast.ContinueStatement:
		if !env.Inside(environment.Loop) {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, st.Token, "continue outside of a loop"))
		}
	case *ast.ReturnStatement:
		if st.Value != nil {
			c.checkExpr(st.Value, env)
		}
		if !env.Inside(environment.FunctionScope) {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, st.Token, "return outside of a function"))
		} else if st.Value != nil {
			if result, ok := enclosingResultType(env); ok {
				st.Value = c.checkAssignable(st.Value, result)
			}
		}
	case *ast.RequireStatement:
		c.checkExpr(st.Condition, env)
		c.requireBool(st.Condition, diagnostics.CodeContractViolation)
	case *ast.EnsureStatement:
		c.checkExpr(st.Condition, env)
		c.requireBool(st.Condition, diagnostics.CodeContractViolation)
	case *ast.InvariantStatement:
		c.checkExpr(st.Condition, env)
		c.requireBool(st.Condition, diagnostics.CodeContractViolation)
	case *ast.ConstDeclaration:
		c.declareConst(st, env)
		c.checkConstDecl(st, env)
	case *ast.VarDeclaration:
		c.declareVar(st, env)
		c.checkVarDecl(st, env)
	case *ast.BlockStatement:
		c.checkBlock(st, env)
	}
}

// paramDecl backs a parameter or loop-variable name-table entry with a
// synthetic declaration node carrying the binding's resolved type, so
// an identifier use of the name resolves to that type rather than to
// the whole enclosing declaration's.
func paramDecl(name *ast.Identifier, t types.Type) *ast.VarDeclaration {
	d := &ast.VarDeclaration{Token: name.Token, Name: name}
	d.Annotations.Type = t
	return d
}

// checkLoopContracts type-checks a loop's require/ensure clauses in its
// loop environment; the code generator re-emits them at the top and
// bottom of each iteration (spec §4.4 rule 7).
func (c *Checker) checkLoopContracts(reqs, ens []ast.Contract, env *environment.Environment) {
	for _, ct := range reqs {
		c.checkExpr(ct.Condition, env)
		c.requireBool(ct.Condition, diagnostics.CodeContractViolation)
	}
	for _, ct := range ens {
		c.checkExpr(ct.Condition, env)
		c.requireBool(ct.Condition, diagnostics.CodeContractViolation)
	}
}

// enclosingResultType returns the declared result type of the nearest
// enclosing function or lambda, for coercing a `return`'s value (spec
// §4.4 rule 5).
func enclosingResultType(env *environment.Environment) (types.Type, bool) {
	switch fn := env.Outscope(environment.FunctionScope).(type) {
	case *ast.FunctionDeclaration:
		if sig, ok := fn.Type.(types.Function); ok && !types.IsUnknown(sig.Result) {
			return sig.Result, true
		}
	case *ast.LambdaExpression:
		if sig, ok := fn.ResolvedType().(types.Function); ok && !types.IsUnknown(sig.Result) {
			return sig.Result, true
		}
	}
	return nil, false
}

func (c *Checker) requireBool(e ast.Expression, code diagnostics.Code) {
	t := e.ResolvedType()
	if types.IsUnknown(t) {
		return
	}
	if prim, ok := t.(types.Primitive); !ok || prim.Kind != types.Bool {
		c.Bus.Publish(diagnostics.NewError(code, e.GetToken(), "expected a bool expression, got %s", t))
	}
}

// checkWhen compiles every case's pattern via internal/pattern against
// the scrutinee's checked type, storing the compiled condition and the
// binding declarations on the case node for codegen (spec §4.4 rule 8).
func (c *Checker) checkWhen(w *ast.WhenStatement, env *environment.Environment) {
	c.checkExpr(w.Scrutinee, env)
	scrutType := w.Scrutinee.ResolvedType()
	reg := &structRegistry{declared: c.declaredTypes}
	for _, cs := range w.Cases {
		caseEnv := c.Graph.Enter(environment.Block, cs.Body, env)
		result, err := pattern.Compile(reg, cs.Pattern, scrutType, pattern.Root())
		if err != nil {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodePatternMismatch, cs.Pattern.GetToken(), "%s", err.Error()))
			continue
		}
		c.attachCompiledPattern(cs, result, w.Scrutinee, caseEnv)
		if cs.Guard != nil {
			c.checkExpr(cs.Guard, caseEnv)
			c.requireBool(cs.Guard, diagnostics.CodeTypeMismatch)
		}
		c.checkBlock(cs.Body, caseEnv)
	}
	if w.Else != nil {
		c.checkBlock(w.Else, env)
	}
}

// checkWhenExpr is the value-producing form: cases compile like
// checkWhen's, and the whole expression's type is the join of every
// branch's value (spec §4.4 rule 6: nearest common super-type, variant
// wrapping as the fallback).
func (c *Checker) checkWhenExpr(e *ast.WhenExpression, env *environment.Environment) {
	c.checkExpr(e.Scrutinee, env)
	scrutType := e.Scrutinee.ResolvedType()
	reg := &structRegistry{declared: c.declaredTypes}
	var branches []types.Type
	for _, cs := range e.Cases {
		caseEnv := c.Graph.Enter(environment.Block, cs.Body, env)
		result, err := pattern.Compile(reg, cs.Pattern, scrutType, pattern.Root())
		if err != nil {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodePatternMismatch, cs.Pattern.GetToken(), "%s", err.Error()))
			continue
		}
		c.attachCompiledPattern(cs, result, e.Scrutinee, caseEnv)
		if cs.Guard != nil {
			c.checkExpr(cs.Guard, caseEnv)
			c.requireBool(cs.Guard, diagnostics.CodeTypeMismatch)
		}
		c.checkBlock(cs.Body, caseEnv)
		if v := blockValue(cs.Body); v != nil {
			branches = append(branches, v.ResolvedType())
		}
	}
	if e.Else != nil {
		c.checkExpr(e.Else, env)
		branches = append(branches, e.Else.ResolvedType())
	}
	e.Annotations.Type = c.joinTypes(branches)
}

// blockValue returns the expression a case body yields: its trailing
// expression statement, or nil for a body that ends in control flow.
func blockValue(b *ast.BlockStatement) ast.Expression {
	if b == nil || len(b.Statements) == 0 {
		return nil
	}
	if es, ok := b.Statements[len(b.Statements)-1].(*ast.ExpressionStatement); ok {
		return es.Expression
	}
	return nil
}

// joinTypes computes rule 6's join: if every yielding branch is
// compatible with the first, the first wins; otherwise the join is the
// variant over all branch types, uniformly (the Open Question decision
// recorded in SPEC_FULL.md).
func (c *Checker) joinTypes(ts []types.Type) types.Type {
	known := ts[:0:0]
	for _, t := range ts {
		if t != nil && !types.IsUnknown(t) {
			known = append(known, t)
		}
	}
	if len(known) == 0 {
		return types.Unknown{}
	}
	first := known[0]
	all := true
	for _, t := range known[1:] {
		if !types.Compatible(c.Impls, t, first) {
			all = false
			break
		}
	}
	if all {
		return c.Interner.Intern(first)
	}
	return c.Interner.Intern(types.NewVariant(known))
}

// structRegistry adapts the checker's declared-type table to
// pattern.Registry.
type structRegistry struct{ declared map[string]types.Type }

func (r *structRegistry) StructureFields(name string) ([]types.Field, bool) {
	t, ok := r.declared[name]
	if !ok {
		return nil, false
	}
	st, ok := t.(types.Structure)
	if !ok {
		return nil, false
	}
	return st.Fields, true
}

// ---- Expressions (rules 1, 3, 4, 5) ----

func (c *Checker) checkExpr(e ast.Expression, env *environment.Environment) {
	switch ex := e.(type) {
	case *ast.Literal:
		c.checkLiteral(ex, env)
	case *ast.Identifier:
		c.checkIdentifier(ex, env)
	case *ast.BinaryExpression:
		c.checkBinary(ex, env)
	case *ast.UnaryExpression:
		c.checkExpr(ex.Operand, env)
		ex.Annotations.Type = ex.Operand.ResolvedType()
		c.foldIfConstant(ex, env)
	case *ast.CallExpression:
		c.checkCall(ex, env)
	case *ast.IndexExpression:
		c.checkExpr(ex.Receiver, env)
		c.checkExpr(ex.Index, env)
		switch rt := ex.Receiver.ResolvedType().(type) {
		case types.Slice:
			ex.Annotations.Type = rt.Elem
		case types.Array:
			ex.Annotations.Type = rt.Elem
		default:
			ex.Annotations.Type = types.Unknown{}
		}
	case *ast.FieldExpression:
		c.checkExpr(ex.Receiver, env)
		if st, ok := ex.Receiver.ResolvedType().(types.Structure); ok {
			if ft, ok := st.FieldType(ex.Field.Value); ok {
				ex.Annotations.Type = ft
				return
			}
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, ex.Field.Token,
				"%s has no field %q", st.Name, ex.Field.Value))
		}
		ex.Annotations.Type = types.Unknown{}
	case *ast.TupleExpression:
		elems := make([]types.Type, len(ex.Elements))
		for i, el := range ex.Elements {
			c.checkExpr(el, env)
			elems[i] = el.ResolvedType()
		}
		ex.Annotations.Type = c.Interner.Intern(types.Tuple{Elements: elems})
	case *ast.ArrayExpression:
		var elemType types.Type = types.Unknown{}
		for i, el := range ex.Elements {
			c.checkExpr(el, env)
			if i == 0 {
				elemType = el.ResolvedType()
			}
		}
		ex.Annotations.Type = c.Interner.Intern(types.Slice{Elem: elemType})
	case *ast.RecordExpression:
		for _, f := range ex.Fields {
			c.checkExpr(f.Value, env)
		}
		if ex.Type != nil {
			rt, err := c.resolveTypeExprIn(ex.Type, env)
			if err == nil {
				ex.Annotations.Type = rt
				return
			}
		}
		ex.Annotations.Type = types.Unknown{}
	case *ast.LambdaExpression:
		c.checkLambda(ex, env)
	case *ast.AsExpression:
		c.checkExpr(ex.Value, env)
		target, err := c.resolveTypeExprIn(ex.Target, env)
		if err != nil {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, ex.Token, "%s", err.Error()))
			target = types.Unknown{}
		}
		ex.Annotations.Type = target
	case *ast.RangeExpression:
		c.checkExpr(ex.Start, env)
		c.checkExpr(ex.End, env)
		ex.Annotations.Type = c.Interner.Intern(types.RangeType{Base: ex.Start.ResolvedType(), Inclusive: ex.Inclusive})
	case *ast.WhenExpression:
		c.checkWhenExpr(ex, env)
	case *ast.ImplicitConversion:
		c.checkExpr(ex.Inner, env)
	}
}

func (c *Checker) checkLiteral(l *ast.Literal, env *environment.Environment) {
	ev := consteval.New(&constLookup{c: c, env: env})
	v, err := ev.Fold(l)
	if err != nil {
		c.publishConstevalError(err, l.Token)
		l.Annotations.Type = types.Unknown{}
		return
	}
	l.Annotations.Value = &v
	l.Annotations.Type = v.Type
}

func (c *Checker) publishConstevalError(err error, at token.Token) {
	switch e := err.(type) {
	case *consteval.ErrArithmetic:
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeOverflow, at, "%s", e.Message))
	case *consteval.ErrGenericRetry:
		// Deferred, not an error: the caller re-tries after generic
		// instantiation (spec §4.5).
	case *consteval.ErrNotConstant:
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeNonConstant, at, "%s", e.Reason))
	default:
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeNonConstant, at, "%s", err.Error()))
	}
}

// constLookup adapts the checker's environment to consteval.Bindings,
// resolving a named constant by folding its declaring expression
// (memoizing the result on the declaration's own Annotations.Value).
type constLookup struct {
	c   *Checker
	env *environment.Environment
}

func (l *constLookup) Lookup(name string) (constval.Value, bool) {
	def, ok := l.env.Value(name, true)
	if !ok {
		return constval.Value{}, false
	}
	switch d := def.Node.(type) {
	case *ast.ConstDeclaration:
		if d.Annotations.Value != nil {
			return *d.Annotations.Value, true
		}
		if d.Value == nil {
			return constval.Value{}, false
		}
		v, err := consteval.New(l).Fold(d.Value)
		if err != nil {
			return constval.Value{}, false
		}
		d.Annotations.Value = &v
		return v, true
	case *ast.GenericConstParamDeclaration:
		if d.Annotations.Value != nil {
			return *d.Annotations.Value, true
		}
		return constval.Value{}, false
	default:
		return constval.Value{}, false
	}
}

func (c *Checker) checkIdentifier(id *ast.Identifier, env *environment.Environment) {
	if def, ok := env.Value(id.Value, true); ok {
		id.Referencing = def.Node
		id.Annotations.Type = resolvedNodeType(def.Node)
		return
	}
	if def, ok := env.Function(id.Value, true); ok {
		id.Referencing = def.Node
		id.Annotations.Type = resolvedNodeType(def.Node)
		return
	}
	c.Bus.Publish(diagnostics.NewError(diagnostics.CodeUnresolvedName, id.Token, "undefined name %q", id.Value))
	id.Annotations.Type = types.Unknown{}
}

func resolvedNodeType(n ast.Node) types.Type {
	if ann, ok := n.(interface{ ResolvedType() types.Type }); ok {
		return ann.ResolvedType()
	}
	return types.Unknown{}
}

func (c *Checker) checkBinary(b *ast.BinaryExpression, env *environment.Environment) {
	c.checkExpr(b.Left, env)
	c.checkExpr(b.Right, env)
	lt, rt := b.Left.ResolvedType(), b.Right.ResolvedType()
	switch b.Op {
	case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE, token.AND, token.OR:
		b.Annotations.Type = types.TBool
	default:
		switch {
		case lt.String() == rt.String():
		case types.Compatible(c.Impls, rt, lt):
			b.Right = c.checkAssignable(b.Right, lt)
		case types.Compatible(c.Impls, lt, rt):
			b.Left = c.checkAssignable(b.Left, rt)
			lt = rt
		default:
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, b.Token,
				"incompatible operand types %s and %s", lt, rt))
		}
		b.Annotations.Type = lt
	}
	c.foldIfConstant(b, env)
}

// foldIfConstant opportunistically evaluates an expression whose
// operands turned out constant (spec §4.4 rule 9), leaving non-constant
// sub-trees untouched: a failed fold is not an error here, only an
// explicitly-constant context surfaces one.
func (c *Checker) foldIfConstant(e ast.Expression, env *environment.Environment) {
	ann, ok := e.(interface{ ConstValue() *constval.Value })
	if !ok || ann.ConstValue() != nil {
		return
	}
	if v, err := consteval.New(&constLookup{c: c, env: env}).Fold(e); err == nil {
		switch ex := e.(type) {
		case *ast.BinaryExpression:
			ex.Annotations.Value = &v
		case *ast.UnaryExpression:
			ex.Annotations.Value = &v
		}
	}
}

func (c *Checker) checkCall(call *ast.CallExpression, env *environment.Environment) {
	c.checkExpr(call.Callee, env)
	for _, a := range call.Args {
		c.checkExpr(a, env)
	}
	sig, ok := call.Callee.ResolvedType().(types.Function)
	if !ok {
		if !types.IsUnknown(call.Callee.ResolvedType()) {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, call.Token, "callee is not callable"))
		}
		call.Annotations.Type = types.Unknown{}
		return
	}
	if id, isID := call.Callee.(*ast.Identifier); isID {
		if decl, isGeneric := c.genericFuncs[id.Value]; isGeneric {
			if inst := c.instantiateGeneric(decl, sig, call, env); inst != nil {
				sig = inst.Sig
				call.Instance = inst.MangledName
			}
		}
	}
	switch {
	case sig.IsVariadic:
		if len(call.Args) < len(sig.Params)-1 {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeArityMismatch, call.Token,
				"expected at least %d arguments, got %d", len(sig.Params)-1, len(call.Args)))
			break
		}
		for i, a := range call.Args {
			pi := i
			if pi >= len(sig.Params) {
				pi = len(sig.Params) - 1
			}
			call.Args[i] = c.checkAssignable(a, sig.Params[pi])
		}
	case len(call.Args) != len(sig.Params):
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeArityMismatch, call.Token,
			"expected %d arguments, got %d", len(sig.Params), len(call.Args)))
	default:
		for i, a := range call.Args {
			call.Args[i] = c.checkAssignable(a, sig.Params[i])
		}
	}
	call.Annotations.Type = sig.Result
}

// instantiateGeneric unifies a generic function declaration's formal
// parameter types against one call site's argument types (spec §4.4 rule
// 3), caching the result keyed by (declaration, binding map) so a second
// call site with the same argument types reuses the same instance
// (scenario S5). genSig is the declaration's unsubstituted signature
// (its Params still carry types.Generic placeholders for each formal).
func (c *Checker) instantiateGeneric(decl *ast.FunctionDeclaration, genSig types.Function, call *ast.CallExpression, env *environment.Environment) *GenericInstance {
	// Explicit generic arguments (`id[i32](x)`) seed the unification; a
	// full explicit list skips structural matching entirely so the
	// ordinary argument-coercion path handles any literal narrowing.
	seed := types.Bindings{}
	for i, gx := range call.Generics {
		if i >= len(decl.Generics) {
			break
		}
		if t, err := c.resolveTypeExprIn(gx, env); err == nil {
			seed[decl.Generics[i].Value] = t
		}
	}
	argTypes := make([]types.Type, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = a.ResolvedType()
	}
	var bindings types.Bindings
	var err error
	if len(seed) >= len(decl.Generics) && len(decl.Generics) > 0 {
		bindings = seed
	} else {
		if len(argTypes) != len(genSig.Params) {
			// Arity mismatch is reported by the ordinary arity check below
			// once we fall through with the unsubstituted signature; nothing
			// to unify here.
			return nil
		}
		bindings, err = types.MatchInto(types.Tuple{Elements: genSig.Params}, types.Tuple{Elements: argTypes}, seed)
	}
	if err != nil {
		if me, ok := err.(*types.MatchError); ok && me.Duplication {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeGenericConflict, call.Token,
				"generic instantiation of %q has conflicting bindings: %s", decl.Name.Value, me.Reason))
		} else {
			c.Bus.Publish(diagnostics.NewError(diagnostics.CodeGenericConflict, call.Token,
				"cannot unify arguments against %q: %s", decl.Name.Value, err.Error()))
		}
		return nil
	}
	formals := make([]types.Generic, len(decl.Generics))
	for i, g := range decl.Generics {
		formals[i] = types.Generic{Name: g.Value}
	}
	if !bindings.IsTotal(formals) {
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeGenericConflict, call.Token,
			"generic instantiation of %q does not bind every type parameter", decl.Name.Value))
		return nil
	}
	key := instanceKey(decl.Name.Value, formals, bindings)
	if existing, ok := c.instances[key]; ok {
		return existing
	}
	concrete, _ := bindings.Apply(genSig).(types.Function)
	inst := &GenericInstance{
		Decl:        decl,
		Bindings:    bindings,
		Sig:         concrete,
		MangledName: mangleInstanceName(decl.Name.Value, formals, bindings),
	}
	c.instances[key] = inst
	c.instanceOrder = append(c.instanceOrder, inst)
	return inst
}

// instanceKey and mangleInstanceName both walk formals in the
// declaration's own generic-parameter order, so the same argument types
// always produce the same key/name regardless of map iteration order
// (spec §8 property 4, "generic unification determinism").
func instanceKey(name string, formals []types.Generic, b types.Bindings) string {
	parts := make([]string, 0, len(formals)+1)
	parts = append(parts, name)
	for _, f := range formals {
		parts = append(parts, f.Name+"="+b[f.Name].String())
	}
	return strings.Join(parts, "|")
}

func mangleInstanceName(name string, formals []types.Generic, b types.Bindings) string {
	parts := make([]string, 0, len(formals)+1)
	parts = append(parts, name)
	for _, f := range formals {
		parts = append(parts, sanitizeTypeName(b[f.Name].String()))
	}
	return strings.Join(parts, "__")
}

func sanitizeTypeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// checkAssignable implements rule 4's implicit-conversion acceptance and
// rule 5's coercion insertion: a value flows into target if Compatible
// says so, and when its own type isn't already target's canonical form
// the checker wraps it in an *ast.ImplicitConversion carrying the target
// type, so the code generator finds every implicit coercion site as an
// AST node instead of re-deriving it from Compatible a second time
// (spec §4.6 "Implicit conversions"). Callers must use the returned
// expression in place of e.
func (c *Checker) checkAssignable(e ast.Expression, target types.Type) ast.Expression {
	from := e.ResolvedType()
	if types.IsUnknown(from) || types.IsUnknown(target) {
		return e
	}
	if from.String() == target.String() {
		return e
	}
	if conv, ok := c.narrowConstant(e, target); ok {
		return conv
	}
	if !types.Compatible(c.Impls, from, target) {
		c.Bus.Publish(diagnostics.NewError(diagnostics.CodeTypeMismatch, e.GetToken(),
			"cannot use %s where %s is expected", from, target))
		return e
	}
	return &ast.ImplicitConversion{Inner: e, Annotations: ast.Annotations{Type: target}}
}

// narrowConstant implements rule 4's targeted top-down propagation for
// numeric constants: a folded integer or float expression flowing into a
// numeric context of a different width is retyped to the context's type,
// provided the value fits (otherwise the ordinary mismatch diagnostic
// fires from checkAssignable).
func (c *Checker) narrowConstant(e ast.Expression, target types.Type) (ast.Expression, bool) {
	prim, ok := target.(types.Primitive)
	if !ok {
		return nil, false
	}
	ann, ok := e.(interface{ ConstValue() *constval.Value })
	if !ok {
		return nil, false
	}
	v := ann.ConstValue()
	if v == nil {
		return nil, false
	}
	switch prim.Kind {
	case types.SInt, types.UInt:
		if v.Kind != constval.KInt || !consteval.FitsWidth(v.Int, prim) {
			return nil, false
		}
	case types.Flt:
		if v.Kind != constval.KInt && v.Kind != constval.KFloat {
			return nil, false
		}
	default:
		return nil, false
	}
	retyped := *v
	retyped.Type = target
	conv := &ast.ImplicitConversion{Inner: e}
	conv.Annotations.Type = target
	conv.Annotations.Value = &retyped
	return conv, true
}

func (c *Checker) checkLambda(l *ast.LambdaExpression, env *environment.Environment) {
	fnEnv := c.Graph.Enter(environment.FunctionScope, l, env)
	params := make([]types.Type, len(l.Params))
	paramNodes := make([]ast.Node, len(l.Params))
	for i, p := range l.Params {
		var pt types.Type = types.Unknown{}
		if p.Type != nil {
			if resolved, err := c.resolveTypeExprIn(p.Type, env); err == nil {
				pt = resolved
			}
		}
		params[i] = pt
		pd := paramDecl(p.Name, pt)
		paramNodes[i] = pd
		fnEnv.Define(environment.Def{Name: p.Name.Value, Kind: environment.DefVar, Node: pd}, p.Name.Token)
	}
	var result types.Type = types.Unknown{}
	if l.ReturnType != nil {
		result, _ = c.resolveTypeExprIn(l.ReturnType, env)
	}
	c.checkBlock(l.Body, fnEnv)
	if types.IsUnknown(result) {
		if v := blockValue(l.Body); v != nil {
			result = v.ResolvedType()
		}
	}
	l.Annotations.Type = c.Interner.Intern(types.Function{Params: params, Result: result, IsClosure: true})
	l.Captures = collectCaptures(l, paramNodes)
}

// ---- Type-expression resolution (rule 2) ----

func (c *Checker) resolveTypeExpr(t ast.TypeExpr) (types.Type, error) {
	return c.resolveTypeExprIn(t, c.currentEnv)
}

func (c *Checker) resolveTypeExprIn(t ast.TypeExpr, env *environment.Environment) (types.Type, error) {
	switch te := t.(type) {
	case *ast.NamedTypeExpr:
		if prim, ok := primitiveByName(te.Name); ok {
			return prim, nil
		}
		if def, ok := env.Type(te.Name, true); ok {
			if typed, ok := def.Node.(interface{ ResolvedType() types.Type }); ok {
				if resolved := typed.ResolvedType(); !types.IsUnknown(resolved) {
					return resolved, nil
				}
			}
			return types.Generic{Name: te.Name}, nil
		}
		return types.Generic{Name: te.Name}, nil
	case *ast.PointerTypeExpr:
		elem, err := c.resolveTypeExprIn(te.Elem, env)
		if err != nil {
			return nil, err
		}
		return types.Pointer{Elem: elem}, nil
	case *ast.SliceTypeExpr:
		elem, err := c.resolveTypeExprIn(te.Elem, env)
		if err != nil {
			return nil, err
		}
		return types.Slice{Elem: elem}, nil
	case *ast.ArrayTypeExpr:
		elem, err := c.resolveTypeExprIn(te.Elem, env)
		if err != nil {
			return nil, err
		}
		size, err := c.resolveArraySize(te.Size, env)
		if err != nil {
			return nil, err
		}
		return types.Array{Elem: elem, Size: size}, nil
	case *ast.TupleTypeExpr:
		out := make([]types.Type, len(te.Elements))
		for i, el := range te.Elements {
			r, err := c.resolveTypeExprIn(el, env)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return types.Tuple{Elements: out}, nil
	case *ast.VariantTypeExpr:
		out := make([]types.Type, len(te.Members))
		for i, m := range te.Members {
			r, err := c.resolveTypeExprIn(m, env)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return types.NewVariant(out), nil
	case *ast.FunctionTypeExpr:
		params := make([]types.Type, len(te.Params))
		for i, p := range te.Params {
			r, err := c.resolveTypeExprIn(p, env)
			if err != nil {
				return nil, err
			}
			params[i] = r
		}
		result := types.Type(types.TUnit)
		if te.Result != nil {
			r, err := c.resolveTypeExprIn(te.Result, env)
			if err != nil {
				return nil, err
			}
			result = r
		}
		return types.Function{Params: params, Result: result, IsVariadic: te.IsVariadic}, nil
	case *ast.RangeTypeExpr:
		base, err := c.resolveTypeExprIn(te.Base, env)
		if err != nil {
			return nil, err
		}
		var startVal, endVal int64
		if sv, err := c.foldConst(te.Start, env); err == nil {
			if i, ok := sv.AsIndex(); ok {
				startVal = int64(i)
			}
		}
		if ev, err := c.foldConst(te.End, env); err == nil {
			if i, ok := ev.AsIndex(); ok {
				endVal = int64(i)
			}
		}
		return types.RangeType{Base: base, Start: startVal, End: endVal, Inclusive: te.Inclusive}, nil
	case *ast.GenericInstanceTypeExpr:
		base, err := c.resolveTypeExprIn(&ast.NamedTypeExpr{Token: te.Token, Name: te.Name}, env)
		if err != nil {
			return nil, err
		}
		subst := types.Subst{}
		gens := base.FreeGenerics()
		for i, a := range te.Args {
			r, err := c.resolveTypeExprIn(a, env)
			if err != nil {
				return nil, err
			}
			if i < len(gens) {
				subst[gens[i].Name] = r
			}
		}
		return base.Apply(subst), nil
	default:
		return nil, fmt.Errorf("unsupported type expression %T", t)
	}
}

func (c *Checker) resolveArraySize(e ast.Expression, env *environment.Environment) (types.ArraySize, error) {
	if id, ok := e.(*ast.Identifier); ok {
		if def, found := env.Value(id.Value, true); found {
			if _, isConstParam := def.Node.(*ast.GenericConstParamDeclaration); isConstParam {
				return types.ArraySize{ParamRef: id.Value}, nil
			}
		}
	}
	v, err := c.foldConst(e, env)
	if err != nil {
		return types.ArraySize{}, &consteval.ErrGenericRetry{Param: e.GetToken().Lexeme}
	}
	i, ok := v.AsIndex()
	if !ok {
		return types.ArraySize{}, fmt.Errorf("array size must be a constant integer")
	}
	return types.ArraySize{Const: int64(i), IsConst: true}, nil
}

// foldConst folds e against env's bindings, used for array sizes and
// range-type bounds that must be resolved during type-expression
// checking (spec §4.5 "compile-time indexing").
func (c *Checker) foldConst(e ast.Expression, env *environment.Environment) (constval.Value, error) {
	return consteval.New(&constLookup{c: c, env: env}).Fold(e)
}

func primitiveByName(name string) (types.Type, bool) {
	switch name {
	case "unit":
		return types.TUnit, true
	case "bool":
		return types.TBool, true
	case "char":
		return types.TChar, true
	case "chars":
		return types.TChars, true
	case "string":
		return types.TString, true
	case "i8":
		return types.Int(8), true
	case "i16":
		return types.Int(16), true
	case "i32":
		return types.Int(32), true
	case "i64":
		return types.Int(64), true
	case "u8":
		return types.Uint(8), true
	case "u16":
		return types.Uint(16), true
	case "u32":
		return types.Uint(32), true
	case "u64":
		return types.Uint(64), true
	case "f32":
		return types.Float(32), true
	case "f64":
		return types.Float(64), true
	default:
		return nil, false
	}
}
