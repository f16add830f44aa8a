package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/types"
)

// TypeEntry pairs a declared nominal type with the dot-path name it was
// declared under, the unit the checker's declare pass already recorded.
type TypeEntry struct {
	Path string
	Type types.Type
}

// FuncEntry pairs a declared function's signature with its AST body.
type FuncEntry struct {
	Path string
	Sig  types.Function
	Decl *ast.FunctionDeclaration
}

// closureEntry records one lambda literal discovered while lowering a
// function body, and the uniquely-mangled class name codegen emits it
// under (spec §4.6 "Closure"). Entries accumulate into Generator.Closures
// as Define walks the workspace's functions, so by the time Declare runs
// (at the end of Define, its only call site) every closure discovered
// anywhere in the workspace already has its forward declaration emitted.
type closureEntry struct {
	Name   string
	Lambda *ast.LambdaExpression
}

// Generator lowers a checked workspace into one Unit per spec §4.6/§6.
// It runs two passes: Declare emits the shared header of forward
// declarations; Define emits per-workspace source bodies plus, for a
// test build, a synthesised driver.
type Generator struct {
	Workspace  string
	Types      []TypeEntry
	Funcs      []FuncEntry
	Globals    []ast.Statement // top-level val/var declarations, in source order
	Tests      []*ast.TestDeclaration
	Impls      *types.ImplementorRegistry
	EntryPoint *FuncEntry // non-nil when the program defines a `main`-shaped entry

	// Closures collects every lambda literal lowered so far, keyed by
	// discovery order, and closureSeq is the counter backing each entry's
	// mangled name. Both live on the Generator instead of a package
	// global so two workspaces built in the same process never collide
	// or interleave counters (spec §9 "no global singletons").
	Closures   []*closureEntry
	closureSeq int
}

// Declare runs the forward-declaration pass (spec §4.6 para 1).
func (g *Generator) Declare() string {
	w := NewWriter()
	w.Line("// generated forward declarations for workspace %q", g.Workspace)
	w.Line("#pragma once")
	w.Line("")
	for _, te := range g.Types {
		g.declareType(w, te)
	}
	for _, ce := range g.Closures {
		w.Line("struct %s;", ce.Name)
	}
	w.Line("")
	for _, fe := range g.Funcs {
		w.Line("%s;", g.signature(fe))
	}
	return w.String()
}

func (g *Generator) declareType(w *Writer, te TypeEntry) {
	name := Mangle(te.Path)
	switch t := te.Type.(type) {
	case types.Structure:
		w.Line("struct %s;", name)
	case types.Variant:
		// Variants live under their canonical-hash name so every use
		// site (including anonymous `A | B` forms) shares one emission;
		// the declared path becomes an alias (spec §4.6 "named by a hash
		// of the canonical string").
		w.Line("struct %s; // tagged union", typeRef(t))
		w.Line("typedef struct %s %s;", typeRef(t), name)
	case types.RangeType:
		w.Line("struct %s; // range wrapper", typeRef(t))
		w.Line("typedef struct %s %s;", typeRef(t), name)
	case types.Behaviour:
		w.Line("struct %s;", name)
		w.Line("struct %s_vtable;", name)
	}
}

// Define runs the body-emission pass, producing the workspace's source
// unit and, when the program carries tests, a separate test driver.
func (g *Generator) Define() Unit {
	w := NewWriter()
	w.Line("// generated definitions for workspace %q", g.Workspace)
	w.Line("#include \"%s.h\"", Mangle(g.Workspace))
	w.Line("")

	for _, te := range g.Types {
		g.defineType(w, te)
	}
	for _, gd := range g.Globals {
		g.emitStatement(w, gd, exprList{g: g})
	}
	for _, fe := range g.Funcs {
		g.defineFunction(w, fe)
	}
	// Closures discovered while lowering the functions above are defined
	// last. The loop is indexed, so a closure nested inside another
	// closure's body, registered while that body is lowered here, is
	// defined as well.
	for i := 0; i < len(g.Closures); i++ {
		g.defineClosure(w, g.Closures[i])
	}
	if len(g.Tests) > 0 {
		for _, t := range g.Tests {
			g.defineTest(w, t)
		}
		g.defineTestDriver(w)
	}
	if g.EntryPoint != nil {
		g.defineEntryTrampoline(w)
	}
	return Unit{Workspace: g.Workspace, Header: g.Declare(), Source: w.String()}
}

// defineType lowers one nominal declaration per the per-construct rules
// of spec §4.6.
func (g *Generator) defineType(w *Writer, te TypeEntry) {
	name := Mangle(te.Path)
	switch t := te.Type.(type) {
	case types.Structure:
		w.Line("struct %s {", name)
		w.Push()
		for _, behv := range g.Impls.Behaviours(te.Path) {
			w.Line("%s_vtable *__vt_%s;", Mangle(behv), Mangle(behv))
		}
		for _, f := range t.Fields {
			w.Line("%s %s;", typeRef(f.Type), f.Name)
		}
		w.Pop()
		w.Line("};")
		w.Line("%s %s_init(%s) {", name, name, ctorParams(t))
		w.Push()
		w.Line("%s self;", name)
		for _, behv := range g.Impls.Behaviours(te.Path) {
			w.Line("self.__vt_%s = &%s_%s_vtable_instance;", Mangle(behv), name, Mangle(behv))
		}
		for _, f := range t.Fields {
			w.Line("self.%s = %s;", f.Name, f.Name)
		}
		w.Line("return self;")
		w.Pop()
		w.Line("}")

	case types.Variant:
		name = typeRef(t)
		w.Line("struct %s {", name)
		w.Push()
		w.Line("uint64_t __tag;")
		w.Line("union {")
		w.Push()
		for _, m := range t.Members {
			w.Line("%s as_%x;", typeRef(m), types.Tag(m))
		}
		w.Pop()
		w.Line("} __u;")
		w.Pop()
		w.Line("};")
		for _, m := range t.Members {
			tag := types.Tag(m)
			w.Line("%s %s_init_%x(%s v) {", name, name, tag, typeRef(m))
			w.Push()
			w.Line("%s self; self.__tag = %xULL; self.__u.as_%x = v; return self;", name, tag, tag)
			w.Pop()
			w.Line("}")
			w.Line("%s %s_as_%x(%s *v, const char *loc) {", typeRef(m), name, tag, name)
			w.Push()
			w.Line("if (v->__tag != %xULL) __crash_tag_mismatch(loc);", tag)
			w.Line("return v->__u.as_%x;", tag)
			w.Pop()
			w.Line("}")
		}

	case types.RangeType:
		name = typeRef(t)
		base := typeRef(t.Base)
		w.Line("struct %s { %s value; };", name, base)
		op := "<"
		if t.Inclusive {
			op = "<="
		}
		w.Line("%s %s_init(%s v) {", name, name, base)
		w.Push()
		w.Line("if (!(v >= %d && v %s %d)) __crash_range_bound(\"%s\");", t.Start, op, t.End, name)
		w.Line("%s self; self.value = v; return self;", name)
		w.Pop()
		w.Line("}")

	case types.Behaviour:
		// The base behaviour type holds only the vptr (spec §4.6
		// "Behaviour"): a value with this type's address is exactly the
		// implementor struct's __vt_<Behv> field, which the upcast and
		// downcast lowerings below point directly at.
		w.Line("struct %s {", name)
		w.Push()
		w.Line("%s_vtable *__vt;", name)
		w.Pop()
		w.Line("};")
		w.Line("struct %s_vtable {", name)
		w.Push()
		w.Line("uint64_t __dynamic_type_hash;")
		w.Line("ptrdiff_t __vptr_offset;")
		for _, m := range t.Methods {
			w.Line("%s (*%s)(void *self%s);", typeRef(m.Sig.Result), m.Name, methodParamList(m.Sig))
		}
		w.Pop()
		w.Line("};")
		for _, m := range t.Methods {
			w.Line("%s %s_%s(void *self%s) {", typeRef(m.Sig.Result), name, m.Name, methodParamList(m.Sig))
			w.Push()
			w.Line("%s_vtable *vt = *(%s_vtable **)((char *)self);", name, name)
			w.Line("void *real = (char *)self - vt->__vptr_offset;")
			w.Line("return vt->%s(real%s);", m.Name, methodArgList(m.Sig))
			w.Pop()
			w.Line("}")
		}
		// Checked downcast (spec §4.6 "Implicit conversions": "downcast
		// via hash compare and offset subtract"), shared by every `as`
		// expression converting a %s* back to an implementor pointer.
		w.Line("static inline void *%s_downcast(void *b, uint64_t want, const char *loc) {", name)
		w.Push()
		w.Line("%s_vtable *vt = *(%s_vtable **)b;", name, name)
		w.Line("if (vt->__dynamic_type_hash != want) __crash_tag_mismatch(loc);")
		w.Line("return (char *)b - vt->__vptr_offset;")
		w.Pop()
		w.Line("}")
	}
	w.Line("")
}

func ctorParams(s types.Structure) string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = fmt.Sprintf("%s %s", typeRef(f.Type), f.Name)
	}
	return strings.Join(parts, ", ")
}

func methodParamList(f types.Function) string {
	var b strings.Builder
	for i, p := range f.Params {
		b.WriteString(fmt.Sprintf(", %s a%d", typeRef(p), i))
	}
	return b.String()
}

func methodArgList(f types.Function) string {
	var b strings.Builder
	for i := range f.Params {
		b.WriteString(fmt.Sprintf(", a%d", i))
	}
	return b.String()
}

// typeRef renders a types.Type as a target-language type reference.
// Most categories map directly onto their canonical string; nominal
// categories use their mangled dot-path name.
func typeRef(t types.Type) string {
	switch v := t.(type) {
	case types.Primitive:
		return primitiveRef(v)
	case types.Pointer:
		return typeRef(v.Elem) + "*"
	case types.Slice:
		return "nyx_slice_" + Mangle(typeRef(v.Elem))
	case types.Array:
		return fmt.Sprintf("%s[%s]", typeRef(v.Elem), v.Size.String())
	case types.Structure:
		return Mangle(v.Name)
	case types.Variant:
		// Canonical-hash naming: a variant's members contain characters
		// (`|`) no mangling maps cleanly, and two references to the same
		// member set must agree on one emitted type.
		return fmt.Sprintf("nyx_variant_%x", types.Tag(v))
	case types.RangeType:
		return fmt.Sprintf("nyx_range_%x", types.Tag(v))
	case types.Behaviour:
		return Mangle(v.Name)
	case types.Tuple:
		return fmt.Sprintf("nyx_tuple_%x", types.Tag(v))
	default:
		return Mangle(t.String())
	}
}

func primitiveRef(p types.Primitive) string {
	switch p.Kind {
	case types.Unit:
		return "void"
	case types.Bool:
		return "bool"
	case types.Char:
		return "uint32_t"
	case types.Chars, types.Str:
		return "nyx_string"
	case types.SInt:
		return fmt.Sprintf("int%d_t", widthOr(p.Width, 32))
	case types.UInt:
		return fmt.Sprintf("uint%d_t", widthOr(p.Width, 32))
	case types.Flt:
		if p.Width == 32 {
			return "float"
		}
		return "double"
	case types.Ratio:
		return "nyx_rational"
	case types.Cplx:
		return "nyx_complex"
	default:
		return "void"
	}
}

func widthOr(w, def int) int {
	if w == 0 {
		return def
	}
	return w
}

func (g *Generator) signature(fe FuncEntry) string {
	parts := make([]string, len(fe.Sig.Params))
	for i, p := range fe.Sig.Params {
		name := "a"
		if fe.Decl != nil && i < len(fe.Decl.Params) {
			name = fe.Decl.Params[i].Name.Value
		}
		parts[i] = fmt.Sprintf("%s %s", typeRef(p), name)
	}
	return fmt.Sprintf("%s %s(%s)", typeRef(fe.Sig.Result), Mangle(fe.Path), strings.Join(parts, ", "))
}

// defineFunction lowers one function's contracts and body per spec
// §4.6 "Function with contracts".
func (g *Generator) defineFunction(w *Writer, fe FuncEntry) {
	w.Line("%s {", g.signature(fe))
	w.Push()
	if fe.Decl != nil {
		for _, req := range fe.Decl.Requires {
			w.Line("if (!(%s)) __crash_contract(\"require\", \"%s\");", g.exprRef(req.Condition), fe.Path)
		}
		ens := exprList{g: g, clauses: fe.Decl.Ensures, fnPath: fe.Path}
		g.emitBlock(w, fe.Decl.Body, ens)
	}
	w.Pop()
	w.Line("}")
	w.Line("")
}

type exprList struct {
	g       *Generator
	clauses []ast.Contract
	fnPath  string
}

func (e exprList) emitBefore(w *Writer) {
	for _, c := range e.clauses {
		w.Line("if (!(%s)) __crash_contract(\"ensure\", \"%s\");", e.g.exprRef(c.Condition), e.fnPath)
	}
}

// emitBlock lowers a block's statements; ens.emitBefore is invoked
// immediately before every return path, per the ensure-contract rule.
func (g *Generator) emitBlock(w *Writer, b *ast.BlockStatement, ens exprList) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		g.emitStatement(w, s, ens)
	}
}

func (g *Generator) emitStatement(w *Writer, s ast.Statement, ens exprList) {
	switch st := s.(type) {
	case *ast.ExpressionStatement:
		w.Line("%s;", g.exprRef(st.Expression))
	case *ast.VarDeclaration:
		if st.Value != nil {
			w.Line("%s %s = %s;", declTypeRef(st.Annotations.Type), declName(st.Name), g.exprRef(st.Value))
		}
	case *ast.ConstDeclaration:
		if st.Value != nil {
			w.Line("const %s %s = %s;", declTypeRef(st.Annotations.Type), declName(st.Name), g.constOrExprRef(&st.Annotations, st.Value))
		}
	case *ast.RequireStatement:
		w.Line("if (!(%s)) __crash_contract(\"require\", %s);", g.exprRef(st.Condition), g.contractMessage(st.Message))
	case *ast.EnsureStatement:
		w.Line("if (!(%s)) __crash_contract(\"ensure\", %s);", g.exprRef(st.Condition), g.contractMessage(st.Message))
	case *ast.InvariantStatement:
		w.Line("if (!(%s)) __crash_contract(\"invariant\", %s);", g.exprRef(st.Condition), g.contractMessage(st.Message))
	case *ast.AssignStatement:
		w.Line("%s %s %s;", g.exprRef(st.LHS), st.Op, g.exprRef(st.RHS))
	case *ast.IfStatement:
		w.Line("if (%s) {", g.exprRef(st.Condition))
		w.Push()
		g.emitBlock(w, st.Then, ens)
		w.Pop()
		if st.Else != nil {
			w.Line("} else {")
			w.Push()
			g.emitStatement(w, st.Else, ens)
			w.Pop()
		}
		w.Line("}")
	case *ast.WhenStatement:
		g.emitWhen(w, st.Cases, st.Else, ens)
	case *ast.WhileStatement:
		w.Line("while (%s) {", g.exprRef(st.Condition))
		w.Push()
		g.emitBlock(w, st.Body, ens)
		w.Pop()
		w.Line("}")
	case *ast.LoopStatement:
		w.Line("for (;;) {")
		w.Push()
		g.emitBlock(w, st.Body, ens)
		w.Pop()
		w.Line("}")
	case *ast.ForStatement:
		w.Line("for (nyx_iter __it = nyx_iter_begin(%s); !nyx_iter_done(&__it); nyx_iter_next(&__it)) {", g.exprRef(st.Iterable))
		w.Push()
		w.Line("%s %s = nyx_iter_value(&__it);", "auto", declName(st.Var))
		g.emitBlock(w, st.Body, ens)
		w.Pop()
		w.Line("}")
	case *ast.BreakStatement:
		if st.Value != nil {
			w.Line("__break_value = %s;", g.exprRef(st.Value))
		}
		w.Line("break;")
	case *ast.ContinueStatement:
		w.Line("continue;")
	case *ast.ReturnStatement:
		ens.emitBefore(w)
		if st.Value != nil {
			w.Line("return %s;", g.exprRef(st.Value))
		} else {
			w.Line("return;")
		}
	case *ast.BlockStatement:
		w.Line("{")
		w.Push()
		g.emitBlock(w, st, ens)
		w.Pop()
		w.Line("}")
	}
}

// emitWhen desugars to a chain of `if` over compiled pattern
// conditions, per spec §4.6.
func (g *Generator) emitWhen(w *Writer, cases []*ast.WhenCase, els *ast.BlockStatement, ens exprList) {
	for i, c := range cases {
		kw := "if"
		if i > 0 {
			kw = "} else if"
		}
		cond := "true"
		if c.Condition != nil {
			cond = g.exprRef(c.Condition)
		}
		if c.Guard != nil {
			cond = fmt.Sprintf("(%s) && (%s)", cond, g.exprRef(c.Guard))
		}
		w.Line("%s (%s) {", kw, cond)
		w.Push()
		for _, d := range c.Decls {
			g.emitStatement(w, d, ens)
		}
		g.emitBlock(w, c.Body, ens)
		w.Pop()
	}
	if els != nil {
		w.Line("} else {")
		w.Push()
		g.emitBlock(w, els, ens)
		w.Pop()
	}
	w.Line("}")
}

// declTypeRef renders a local declaration's checked type, or falls back
// to the target language's type inference for anything the checker left
// unresolved.
func declTypeRef(t types.Type) string {
	if t == nil || types.IsUnknown(t) {
		return "auto"
	}
	return typeRef(t)
}

// constOrExprRef prefers the checker's folded constant over re-emitting
// the expression tree, so a `val x: i32 = 2 + 3 * 4` lands in the
// target text as the literal 14 (spec §4.4 rule 9's elision).
func (g *Generator) constOrExprRef(ann *ast.Annotations, e ast.Expression) string {
	if v := ann.ConstValue(); v != nil && v.Kind != constval.KSequence {
		return v.String()
	}
	return g.exprRef(e)
}

// contractMessage renders a contract's optional user message, defaulting
// to an empty string literal so the runtime hook's signature is uniform.
func (g *Generator) contractMessage(msg ast.Expression) string {
	if msg == nil {
		return `""`
	}
	return g.exprRef(msg)
}

func declName(id *ast.Identifier) string {
	if id == nil {
		return "_"
	}
	return id.Value
}

// exprRef renders an expression as target-language text. Precedence is
// preserved with full parenthesisation rather than the source's own
// precedence table, since round-tripping formatting is not a goal here.
func (g *Generator) exprRef(e ast.Expression) string {
	switch ex := e.(type) {
	case nil:
		return ""
	case *ast.Literal:
		return ex.Raw
	case *ast.Identifier:
		return ex.Value
	case *ast.BinaryExpression:
		return fmt.Sprintf("(%s %s %s)", g.exprRef(ex.Left), ex.Op, g.exprRef(ex.Right))
	case *ast.UnaryExpression:
		return fmt.Sprintf("(%s%s)", ex.Op, g.exprRef(ex.Operand))
	case *ast.CallExpression:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = g.exprRef(a)
		}
		callee := g.exprRef(ex.Callee)
		if ex.Instance != "" {
			// A generic call site is lowered to its cached instantiation
			// (spec §4.4 rule 3), not the unsubstituted declaration.
			callee = Mangle(ex.Instance)
		} else if id, ok := ex.Callee.(*ast.Identifier); ok {
			if _, isFn := id.Referencing.(*ast.FunctionDeclaration); isFn {
				// Free functions are defined under their workspace-mangled
				// name; the call site must agree.
				callee = Mangle(Join(g.Workspace, id.Value))
			}
		}
		return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", "))
	case *ast.IndexExpression:
		return fmt.Sprintf("%s[%s]", g.exprRef(ex.Receiver), g.exprRef(ex.Index))
	case *ast.FieldExpression:
		return fmt.Sprintf("%s.%s", g.exprRef(ex.Receiver), ex.Field.Value)
	case *ast.TupleExpression:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = g.exprRef(el)
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case *ast.ArrayExpression:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = g.exprRef(el)
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case *ast.RecordExpression:
		parts := make([]string, len(ex.Fields))
		for i, f := range ex.Fields {
			parts[i] = fmt.Sprintf(".%s = %s", f.Name.Value, g.exprRef(f.Value))
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case *ast.AsExpression:
		return g.lowerConversion(ex.Value.ResolvedType(), ex.ResolvedType(), g.exprRef(ex.Value))
	case *ast.RangeExpression:
		op := ".."
		if ex.Inclusive {
			op = "..="
		}
		return fmt.Sprintf("%s%s%s", g.exprRef(ex.Start), op, g.exprRef(ex.End))
	case *ast.ImplicitConversion:
		return g.lowerConversion(ex.Inner.ResolvedType(), ex.ResolvedType(), g.exprRef(ex.Inner))
	case *ast.WhenExpression:
		return g.whenExprRef(ex)
	case *ast.LambdaExpression:
		ce := g.registerClosure(ex)
		args := make([]string, len(ex.Captures))
		for i, cap := range ex.Captures {
			args[i] = "&" + cap.Value
		}
		return fmt.Sprintf("(%s::__instances.push_back(%s{%s}), %s::__instances.back())",
			ce.Name, ce.Name, strings.Join(args, ", "), ce.Name)
	default:
		return fmt.Sprintf("/* unhandled expr %T */", e)
	}
}

// whenExprRef lowers a value-producing `when` to a conditional chain
// over the compiled pattern conditions (spec §4.6: "desugars to a chain
// of if"). A case with pattern bindings becomes a statement expression
// so the binding declarations stay scoped to their own branch.
func (g *Generator) whenExprRef(e *ast.WhenExpression) string {
	out := "0"
	if e.Else != nil {
		out = g.exprRef(e.Else)
	}
	for i := len(e.Cases) - 1; i >= 0; i-- {
		c := e.Cases[i]
		cond := "true"
		if c.Condition != nil {
			cond = g.exprRef(c.Condition)
		}
		if c.Guard != nil {
			cond = fmt.Sprintf("(%s) && (%s)", cond, g.exprRef(c.Guard))
		}
		out = fmt.Sprintf("((%s) ? %s : %s)", cond, g.caseValueRef(c), out)
	}
	return out
}

func (g *Generator) caseValueRef(c *ast.WhenCase) string {
	value := "0"
	if v := caseValue(c.Body); v != nil {
		value = g.exprRef(v)
	}
	if len(c.Decls) == 0 {
		return value
	}
	var b strings.Builder
	b.WriteString("({ ")
	for _, d := range c.Decls {
		fmt.Fprintf(&b, "const %s %s = %s; ", declTypeRef(d.Annotations.Type), declName(d.Name), g.exprRef(d.Value))
	}
	b.WriteString(value)
	b.WriteString("; })")
	return b.String()
}

// caseValue mirrors the checker's yielding-branch rule: the body's
// trailing expression statement is the branch's value.
func caseValue(b *ast.BlockStatement) ast.Expression {
	if b == nil || len(b.Statements) == 0 {
		return nil
	}
	if es, ok := b.Statements[len(b.Statements)-1].(*ast.ExpressionStatement); ok {
		return es.Expression
	}
	return nil
}

// lowerConversion renders the target-language expression converting a
// value of type from into type to. It covers every compatible pair spec
// §4.2 documents, in both directions: the implicit direction reached
// from *ast.ImplicitConversion, and the explicit reverse reached from
// *ast.AsExpression (spec §4.6 "Implicit conversions").
func (g *Generator) lowerConversion(from, to types.Type, inner string) string {
	switch toT := to.(type) {
	case types.Variant:
		if toT.Contains(from) {
			return fmt.Sprintf("%s_init_%x(%s)", typeRef(to), types.Tag(from), inner)
		}
	case types.Pointer:
		if behav, ok := toT.Elem.(types.Behaviour); ok {
			// D* -> B* upcast: B's address is exactly D's __vt_<Behv>
			// field, so no arithmetic is needed beyond taking it.
			if fromP, ok := from.(types.Pointer); ok {
				if _, ok := fromP.Elem.(types.Structure); ok {
					return fmt.Sprintf("(&(%s)->__vt_%s)", inner, Mangle(behav.Name))
				}
			}
		}
		if dstruct, ok := toT.Elem.(types.Structure); ok {
			// B* -> D* checked downcast via the per-behaviour helper
			// defined alongside the behaviour's vtable.
			if fromP, ok := from.(types.Pointer); ok {
				if behav, ok := fromP.Elem.(types.Behaviour); ok {
					return fmt.Sprintf("((%s*)%s_downcast(%s, 0x%xULL, \"as\"))",
						typeRef(dstruct), Mangle(behav.Name), inner, types.Tag(dstruct))
				}
			}
		}
	case types.Slice:
		if fromArr, ok := from.(types.Array); ok {
			return fmt.Sprintf("nyx_slice_from_array(%s, %s)", inner, fromArr.Size.String())
		}
		if fromPrim, ok := from.(types.Primitive); ok && (fromPrim.Kind == types.Chars || fromPrim.Kind == types.Str) {
			return fmt.Sprintf("nyx_string_as_bytes(%s)", inner)
		}
	case types.RangeType:
		if from.String() == toT.Base.String() {
			return fmt.Sprintf("%s_init(%s)", typeRef(to), inner)
		}
	}
	if fromRange, ok := from.(types.RangeType); ok && fromRange.Base.String() == to.String() {
		return fmt.Sprintf("(%s).value", inner)
	}
	if fromVariant, ok := from.(types.Variant); ok && fromVariant.Contains(to) {
		return fmt.Sprintf("%s_as_%x(&(%s), \"as\")", typeRef(from), types.Tag(to), inner)
	}
	// Anonymous-to-nominal and componentwise tuple coercions: the two
	// layouts agree field-for-field, so a plain cast carries the value
	// across without any runtime work.
	return fmt.Sprintf("((%s)%s)", typeRef(to), inner)
}

// registerClosure assigns l a stable, uniquely-mangled class name and
// records it on the Generator so Declare/Define both see it, the first
// time this particular lambda literal is lowered. A second exprRef visit
// of the same AST node (there isn't one in the current single-pass
// emitter, but a future caching pass might re-render an expression)
// would otherwise mint a second class for one literal, so this checks
// Lambda identity before minting a new entry.
func (g *Generator) registerClosure(l *ast.LambdaExpression) *closureEntry {
	for _, ce := range g.Closures {
		if ce.Lambda == l {
			return ce
		}
	}
	g.closureSeq++
	ce := &closureEntry{Name: fmt.Sprintf("%s__lambda_%d", Mangle(g.Workspace), g.closureSeq), Lambda: l}
	g.Closures = append(g.Closures, ce)
	return ce
}

// defineClosure lowers one lambda literal to a uniquely-named class with
// a static owning collection and an overloaded call operator (spec §4.6
// "Closure"). Captured variables become by-reference members: each is
// stored as a pointer, then re-exposed inside the call operator's body
// as a same-named reference alias, so the lowered body's identifier
// references need no special-casing relative to an ordinary function.
func (g *Generator) defineClosure(w *Writer, ce *closureEntry) {
	l := ce.Lambda
	sig, _ := l.ResolvedType().(types.Function)

	w.Line("struct %s {", ce.Name)
	w.Push()
	for _, cap := range l.Captures {
		w.Line("%s *__cap_%s;", typeRef(cap.ResolvedType()), cap.Value)
	}
	w.Line("static std::deque<%s> __instances;", ce.Name)

	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = fmt.Sprintf("%s %s", typeRef(sig.Params[i]), p.Name.Value)
	}
	w.Line("%s operator()(%s) const {", typeRef(sig.Result), strings.Join(params, ", "))
	w.Push()
	for _, cap := range l.Captures {
		w.Line("%s &%s = *__cap_%s;", typeRef(cap.ResolvedType()), cap.Value, cap.Value)
	}
	g.emitBlock(w, l.Body, exprList{g: g})
	w.Pop()
	w.Line("}")
	w.Pop()
	w.Line("};")
	w.Line("std::deque<%s> %s::__instances;", ce.Name, ce.Name)
	w.Line("")
}

// defineTest lowers one test declaration's body as a free function the
// synthesised driver calls through __nyx_run_guarded.
func (g *Generator) defineTest(w *Writer, t *ast.TestDeclaration) {
	w.Line("void %s(void) {", Mangle(Join(g.Workspace, "test."+t.Name)))
	w.Push()
	g.emitBlock(w, t.Body, exprList{g: g})
	w.Pop()
	w.Line("}")
	w.Line("")
}

// defineTestDriver synthesises the test driver described in spec §6
// "Emitted artifacts" / §4.6 "Entry point": it calls every test
// function, measuring duration and tallying success/failure.
func (g *Generator) defineTestDriver(w *Writer) {
	names := make([]string, len(g.Tests))
	for i, t := range g.Tests {
		names[i] = t.Name
	}
	sort.Strings(names)
	w.Line("int __nyx_test_main(int argc, char **argv) {")
	w.Push()
	w.Line("int passed = 0, failed = 0;")
	for _, t := range g.Tests {
		fn := Mangle(Join(g.Workspace, "test."+t.Name))
		w.Line("{")
		w.Push()
		w.Line("clock_t __start = clock();")
		w.Line("int __ok = __nyx_run_guarded(%s);", fn)
		w.Line("double __elapsed = (double)(clock() - __start) / CLOCKS_PER_SEC;")
		w.Line("if (__ok) { passed++; printf(\"ok   %s (%%.3fs)\\n\", __elapsed); }", t.Name)
		w.Line("else { failed++; printf(\"FAIL %s (%%.3fs)\\n\", __elapsed); }", t.Name)
		w.Pop()
		w.Line("}")
	}
	w.Line("printf(\"%%d passed, %%d failed\\n\", passed, failed);")
	w.Line("return failed == 0 ? 0 : 1;")
	w.Pop()
	w.Line("}")
}

// defineEntryTrampoline emits the argument-packaging and signal-handler
// installation wrapper described in spec §4.6 "Entry point".
func (g *Generator) defineEntryTrampoline(w *Writer) {
	w.Line("int main(int argc, char **argv) {")
	w.Push()
	w.Line("nyx_slice_string args = __nyx_pack_args(argc, argv);")
	w.Line("__nyx_install_crash_handlers();")
	w.Line("return %s(args);", Mangle(g.EntryPoint.Path))
	w.Pop()
	w.Line("}")
}
