// Package ast implements the tree model of spec §3: an immutable-in-shape
// tree of nodes with annotation slots filled by later passes.
//
// Per the Design Notes of spec §9, node categories are expressed as sum
// types (a sealed interface per category with an unexported marker
// method) rather than the teacher's deep struct inheritance; the
// Visitor becomes a pattern-matching dispatch over concrete types. Field
// shapes and the overall package layout (Accept/GetToken naming,
// one file per syntactic family) are grounded on the teacher's
// internal/ast package.
package ast

import (
	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/token"
	"github.com/nyxlang/nyxc/internal/types"
)

// Node is the base interface every AST node implements.
type Node interface {
	GetToken() token.Token
	Accept(Visitor)
}

// Annotations holds the three per-node slots populated during checking,
// per spec §3: a type (possibly Unknown), an evaluated constant value
// when the node is a constant expression, and a referencing back-edge.
type Annotations struct {
	Type        types.Type
	Value       *constval.Value
	Referencing Node // the declaration a use refers to, or a synthetic var
}

// ResolvedType returns the node's type annotation, or Unknown if none
// was ever assigned (should not happen post-checking per Invariant 1).
func (a *Annotations) ResolvedType() types.Type {
	if a.Type == nil {
		return types.Unknown{}
	}
	return a.Type
}

// ConstValue returns the node's folded constant value, or nil when the
// node is not a constant expression.
func (a *Annotations) ConstValue() *constval.Value { return a.Value }

// Declaration is a top-level or nested binding form: types, vars,
// consts, functions, properties, concepts, behaviours/extend, tests.
type Declaration interface {
	Node
	declarationNode()
}

// declStatementUnwrapper is implemented by the parser's adapter that
// lets a top-level Declaration sit in Program.Statements (which is
// typed []Statement). Passes that walk Program.Statements recover the
// Declaration's own concrete dynamic type through UnwrapDeclaration
// instead of switching on the adapter type itself.
type declStatementUnwrapper interface {
	UnwrapDeclaration() Declaration
}

// UnwrapDeclaration reports the Declaration a top-level Statement wraps
// (true for anything produced from a Declaration, per the parser's
// declAsStatement), or false for an ordinary statement.
func UnwrapDeclaration(s Statement) (Declaration, bool) {
	if u, ok := s.(declStatementUnwrapper); ok {
		return u.UnwrapDeclaration(), true
	}
	return nil, false
}

// declStatement wraps a Declaration so it can sit in Program.Statements,
// which is typed []Statement; declarations satisfy Statement too via this
// adapter since top-level declarations are not otherwise nested inside a
// block. Statement's marker method is unexported, so the adapter must
// live in this package to satisfy the interface; WrapDeclarationAsStatement
// is the constructor callers outside the package use.
type declStatement struct{ Declaration }

func (d declStatement) statementNode() {}

// UnwrapDeclaration implements declStatementUnwrapper so checker and driver
// passes walking Program.Statements can recover the original Declaration's
// own concrete dynamic type.
func (d declStatement) UnwrapDeclaration() Declaration { return d.Declaration }

// WrapDeclarationAsStatement adapts a Declaration to sit in a []Statement
// slice (e.g. Program.Statements), as used for top-level declarations.
func WrapDeclarationAsStatement(d Declaration) Statement { return declStatement{d} }

// Statement is a Node that occurs in a statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that occurs in an expression position. Per spec
// §3, expressions additionally report is-path, is-assignable, and
// is-type-ambiguous.
type Expression interface {
	Node
	expressionNode()
	// IsPath reports whether this expression is a syntactic name path.
	IsPath() bool
	// IsAssignable reports whether this expression is a valid
	// assignment left-hand side.
	IsAssignable() bool
	// IsTypeAmbiguous reports whether the syntactic form could be a
	// type or a value expression; resolution defers until the
	// surrounding context is known.
	IsTypeAmbiguous() bool
	// ResolvedType returns the checker's type annotation for this
	// expression (types.Unknown{} before checking runs).
	ResolvedType() types.Type
}

// TypeExpr is the syntactic form of a type (as opposed to types.Type,
// its resolved semantic representation).
type TypeExpr interface {
	Node
	typeExprNode()
}

// Pattern is a pattern sub-tree matched against a scrutinee expression
// by internal/pattern (spec §4.3).
type Pattern interface {
	Node
	patternNode()
}

// Visitor dispatches over every concrete node type, replacing the
// teacher's virtual-method-per-subclass inheritance with a single
// pattern-matching interface per spec §9's Design Notes.
type Visitor interface {
	VisitProgram(*Program)

	// Declarations
	VisitTypeDeclaration(*TypeDeclaration)
	VisitVarDeclaration(*VarDeclaration)
	VisitConstDeclaration(*ConstDeclaration)
	VisitGenericConstParamDeclaration(*GenericConstParamDeclaration)
	VisitFunctionDeclaration(*FunctionDeclaration)
	VisitPropertyDeclaration(*PropertyDeclaration)
	VisitConceptDeclaration(*ConceptDeclaration)
	VisitBehaviourDeclaration(*BehaviourDeclaration)
	VisitExtendDeclaration(*ExtendDeclaration)
	VisitTestDeclaration(*TestDeclaration)

	// Statements
	VisitBlockStatement(*BlockStatement)
	VisitExpressionStatement(*ExpressionStatement)
	VisitIfStatement(*IfStatement)
	VisitWhenStatement(*WhenStatement)
	VisitForStatement(*ForStatement)
	VisitWhileStatement(*WhileStatement)
	VisitLoopStatement(*LoopStatement)
	VisitBreakStatement(*BreakStatement)
	VisitContinueStatement(*ContinueStatement)
	VisitReturnStatement(*ReturnStatement)
	VisitRequireStatement(*RequireStatement)
	VisitEnsureStatement(*EnsureStatement)
	VisitInvariantStatement(*InvariantStatement)
	VisitAssignStatement(*AssignStatement)

	// Expressions
	VisitIdentifier(*Identifier)
	VisitLiteral(*Literal)
	VisitBinaryExpression(*BinaryExpression)
	VisitUnaryExpression(*UnaryExpression)
	VisitCallExpression(*CallExpression)
	VisitIndexExpression(*IndexExpression)
	VisitFieldExpression(*FieldExpression)
	VisitTupleExpression(*TupleExpression)
	VisitArrayExpression(*ArrayExpression)
	VisitRecordExpression(*RecordExpression)
	VisitLambdaExpression(*LambdaExpression)
	VisitAsExpression(*AsExpression)
	VisitRangeExpression(*RangeExpression)
	VisitWhenExpression(*WhenExpression)
	VisitImplicitConversion(*ImplicitConversion)

	// Type expressions
	VisitNamedTypeExpr(*NamedTypeExpr)
	VisitPointerTypeExpr(*PointerTypeExpr)
	VisitSliceTypeExpr(*SliceTypeExpr)
	VisitArrayTypeExpr(*ArrayTypeExpr)
	VisitTupleTypeExpr(*TupleTypeExpr)
	VisitVariantTypeExpr(*VariantTypeExpr)
	VisitFunctionTypeExpr(*FunctionTypeExpr)
	VisitRangeTypeExpr(*RangeTypeExpr)
	VisitGenericInstanceTypeExpr(*GenericInstanceTypeExpr)

	// Patterns
	VisitIdentifierPattern(*IdentifierPattern)
	VisitWildcardPattern(*WildcardPattern)
	VisitLiteralPattern(*LiteralPattern)
	VisitConstantPathPattern(*ConstantPathPattern)
	VisitRangePattern(*RangePattern)
	VisitTuplePattern(*TuplePattern)
	VisitArrayPattern(*ArrayPattern)
	VisitRecordPattern(*RecordPattern)
	VisitOrPattern(*OrPattern)
	VisitVariantPattern(*VariantPattern)
}
