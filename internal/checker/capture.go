package checker

import "github.com/nyxlang/nyxc/internal/ast"

// collectCaptures implements the free-variable pass spec §4.4 rule 5
// requires before a lambda can be lowered to a closure class (spec §4.6
// "Closure": "captured variables become by-reference members"). It
// walks the lambda body twice: once to record every declaration the
// lambda introduces itself (its own parameters, and any const/var/loop
// binding anywhere in its body, including inside a nested lambda
// literal), once to visit every identifier use and treat any whose
// checker-resolved declaration escaped that set as a capture. Captures
// are returned in first-use order, deduplicated by name.
// extraLocal carries the synthetic parameter declarations the checker
// installed for the lambda's own parameters, which live outside the body
// subtree this walk can see.
func collectCaptures(l *ast.LambdaExpression, extraLocal []ast.Node) []*ast.Identifier {
	local := map[ast.Node]bool{l: true}
	for _, n := range extraLocal {
		local[n] = true
	}
	walkNode(l.Body, func(d ast.Node) { local[d] = true }, nil)

	var order []string
	byName := map[string]*ast.Identifier{}
	walkNode(l.Body, nil, func(id *ast.Identifier) {
		if id.Referencing == nil || local[id.Referencing] {
			return
		}
		if vd, ok := id.Referencing.(*ast.VarDeclaration); ok && local[vd.Name] {
			// A loop variable's table entry is a synthetic declaration
			// sharing the loop's own Var identifier.
			return
		}
		if _, ok := byName[id.Value]; ok {
			return
		}
		byName[id.Value] = id
		order = append(order, id.Value)
	})

	caps := make([]*ast.Identifier, len(order))
	for i, name := range order {
		caps[i] = byName[name]
	}
	return caps
}

// walkNode performs a single, hand-written, switch-based traversal (the
// AST here has no generic Walk; Accept only dispatches one level, see
// internal/ast's Visitor) over a statement or expression subtree,
// calling onDecl for every node that introduces a new local binding and
// onIdent for every identifier use. Either callback may be nil.
func walkNode(n ast.Node, onDecl func(ast.Node), onIdent func(*ast.Identifier)) {
	if n == nil {
		return
	}
	switch x := n.(type) {
	case *ast.BlockStatement:
		for _, s := range x.Statements {
			walkNode(s, onDecl, onIdent)
		}
	case *ast.ExpressionStatement:
		walkNode(x.Expression, onDecl, onIdent)
	case *ast.AssignStatement:
		walkNode(x.LHS, onDecl, onIdent)
		walkNode(x.RHS, onDecl, onIdent)
	case *ast.IfStatement:
		walkNode(x.Condition, onDecl, onIdent)
		walkNode(x.Then, onDecl, onIdent)
		walkNode(x.Else, onDecl, onIdent)
	case *ast.WhenStatement:
		walkNode(x.Scrutinee, onDecl, onIdent)
		for _, cs := range x.Cases {
			walkCase(cs, onDecl, onIdent)
		}
		walkNode(x.Else, onDecl, onIdent)
	case *ast.ForStatement:
		walkNode(x.Iterable, onDecl, onIdent)
		if onDecl != nil {
			onDecl(x)
			onDecl(x.Var)
		}
		for _, req := range x.Requires {
			walkNode(req.Condition, onDecl, onIdent)
		}
		for _, ens := range x.Ensures {
			walkNode(ens.Condition, onDecl, onIdent)
		}
		walkNode(x.Body, onDecl, onIdent)
	case *ast.WhileStatement:
		walkNode(x.Condition, onDecl, onIdent)
		walkNode(x.Body, onDecl, onIdent)
	case *ast.LoopStatement:
		walkNode(x.Body, onDecl, onIdent)
	case *ast.BreakStatement:
		walkNode(x.Value, onDecl, onIdent)
	case *ast.ContinueStatement:
	case *ast.ReturnStatement:
		walkNode(x.Value, onDecl, onIdent)
	case *ast.RequireStatement:
		walkNode(x.Condition, onDecl, onIdent)
	case *ast.EnsureStatement:
		walkNode(x.Condition, onDecl, onIdent)
	case *ast.InvariantStatement:
		walkNode(x.Condition, onDecl, onIdent)
	case *ast.ConstDeclaration:
		walkNode(x.Value, onDecl, onIdent)
		if onDecl != nil {
			onDecl(x)
		}
	case *ast.VarDeclaration:
		walkNode(x.Value, onDecl, onIdent)
		if onDecl != nil {
			onDecl(x)
		}

	case *ast.Identifier:
		if onIdent != nil {
			onIdent(x)
		}
	case *ast.Literal:
	case *ast.BinaryExpression:
		walkNode(x.Left, onDecl, onIdent)
		walkNode(x.Right, onDecl, onIdent)
	case *ast.UnaryExpression:
		walkNode(x.Operand, onDecl, onIdent)
	case *ast.CallExpression:
		walkNode(x.Callee, onDecl, onIdent)
		for _, a := range x.Args {
			walkNode(a, onDecl, onIdent)
		}
	case *ast.IndexExpression:
		walkNode(x.Receiver, onDecl, onIdent)
		walkNode(x.Index, onDecl, onIdent)
	case *ast.FieldExpression:
		walkNode(x.Receiver, onDecl, onIdent)
	case *ast.TupleExpression:
		for _, el := range x.Elements {
			walkNode(el, onDecl, onIdent)
		}
	case *ast.ArrayExpression:
		for _, el := range x.Elements {
			walkNode(el, onDecl, onIdent)
		}
	case *ast.RecordExpression:
		for _, f := range x.Fields {
			walkNode(f.Value, onDecl, onIdent)
		}
	case *ast.LambdaExpression:
		if onDecl != nil {
			onDecl(x)
		}
		for _, p := range x.Params {
			walkNode(p.DefaultValue, onDecl, onIdent)
		}
		walkNode(x.Body, onDecl, onIdent)
	case *ast.AsExpression:
		walkNode(x.Value, onDecl, onIdent)
	case *ast.RangeExpression:
		walkNode(x.Start, onDecl, onIdent)
		walkNode(x.End, onDecl, onIdent)
	case *ast.WhenExpression:
		walkNode(x.Scrutinee, onDecl, onIdent)
		for _, cs := range x.Cases {
			walkCase(cs, onDecl, onIdent)
		}
		walkNode(x.Else, onDecl, onIdent)
	case *ast.ImplicitConversion:
		walkNode(x.Inner, onDecl, onIdent)
	}
}

func walkCase(cs *ast.WhenCase, onDecl func(ast.Node), onIdent func(*ast.Identifier)) {
	if cs == nil {
		return
	}
	if onDecl != nil {
		onDecl(cs.Body)
	}
	walkNode(cs.Guard, onDecl, onIdent)
	for _, d := range cs.Decls {
		walkNode(d, onDecl, onIdent)
	}
	walkNode(cs.Body, onDecl, onIdent)
}
