package ast

import (
	"github.com/nyxlang/nyxc/internal/token"
)

// exprBase factors the three boolean reports every Expression carries
// (spec §3): is-path, is-assignable, is-type-ambiguous. Most node kinds
// are none of these; the few that are override the corresponding
// method (see Identifier, FieldExpression, IndexExpression).
type exprBase struct{}

func (exprBase) expressionNode()    {}
func (exprBase) IsPath() bool        { return false }
func (exprBase) IsAssignable() bool  { return false }
func (exprBase) IsTypeAmbiguous() bool { return false }

// Identifier is a bare name reference; it is always a path and, when it
// resolves to a mutable var, assignable. Its syntactic form may be
// type-ambiguous (spec §3: "an identifier path may be a type or a value
// until its position is known").
type Identifier struct {
	Token token.Token
	Value string
	exprBase
	Annotations
}

func (e *Identifier) GetToken() token.Token { return e.Token }
func (e *Identifier) Accept(v Visitor)       { v.VisitIdentifier(e) }
func (e *Identifier) IsPath() bool           { return true }
func (e *Identifier) IsAssignable() bool {
	if e.Referencing == nil {
		return false
	}
	_, isVar := e.Referencing.(*VarDeclaration)
	return isVar
}
func (e *Identifier) IsTypeAmbiguous() bool { return true }

// LiteralKind tags a Literal's syntactic form.
type LiteralKind int

const (
	LitUnit LiteralKind = iota
	LitBool
	LitChar
	LitString
	LitInt
	LitFloat
	LitRational
	LitImaginary
)

// Literal is a scalar literal expression; its lexeme is parsed into a
// constant value by internal/consteval (spec §4.5).
type Literal struct {
	Token token.Token
	Kind  LiteralKind
	Raw   string // the lexeme, for base-prefix / digit-separator-aware parsing
	exprBase
	Annotations
}

func (e *Literal) GetToken() token.Token { return e.Token }
func (e *Literal) Accept(v Visitor)       { v.VisitLiteral(e) }

// BinaryExpression is `lhs op rhs`.
type BinaryExpression struct {
	Token token.Token
	Op    token.Kind
	Left  Expression
	Right Expression
	exprBase
	Annotations
}

func (e *BinaryExpression) GetToken() token.Token { return e.Token }
func (e *BinaryExpression) Accept(v Visitor)       { v.VisitBinaryExpression(e) }

// UnaryExpression is `op operand` (negation, logical not, address-of,
// dereference).
type UnaryExpression struct {
	Token   token.Token
	Op      token.Kind
	Operand Expression
	exprBase
	Annotations
}

func (e *UnaryExpression) GetToken() token.Token { return e.Token }
func (e *UnaryExpression) Accept(v Visitor)       { v.VisitUnaryExpression(e) }
func (e *UnaryExpression) IsAssignable() bool {
	// `*p = x` assigns through a dereferenced pointer.
	return e.Op == token.STAR
}

// CallExpression is `callee(args...)`.
type CallExpression struct {
	Token    token.Token
	Callee   Expression
	Args     []Expression
	Generics []TypeExpr // explicit generic arguments, e.g. id[i32](3)
	// Instance is the mangled name of the cached generic instantiation
	// this call resolved to (spec §4.4 rule 3), set by the checker when
	// Callee refers to a generic function declaration. Empty for a call
	// to a non-generic function, in which case codegen names the callee
	// from Callee itself.
	Instance string
	exprBase
	Annotations
}

func (e *CallExpression) GetToken() token.Token { return e.Token }
func (e *CallExpression) Accept(v Visitor)       { v.VisitCallExpression(e) }

// IndexExpression is `receiver[index]`.
type IndexExpression struct {
	Token    token.Token
	Receiver Expression
	Index    Expression
	exprBase
	Annotations
}

func (e *IndexExpression) GetToken() token.Token { return e.Token }
func (e *IndexExpression) Accept(v Visitor)       { v.VisitIndexExpression(e) }
func (e *IndexExpression) IsAssignable() bool     { return true }

// FieldExpression is `receiver.field`.
type FieldExpression struct {
	Token    token.Token
	Receiver Expression
	Field    *Identifier
	exprBase
	Annotations
}

func (e *FieldExpression) GetToken() token.Token { return e.Token }
func (e *FieldExpression) Accept(v Visitor)       { v.VisitFieldExpression(e) }
func (e *FieldExpression) IsPath() bool           { return e.Receiver.IsPath() }
func (e *FieldExpression) IsAssignable() bool      { return true }

// TupleExpression is `(e0, e1, ...)`.
type TupleExpression struct {
	Token    token.Token
	Elements []Expression
	exprBase
	Annotations
}

func (e *TupleExpression) GetToken() token.Token { return e.Token }
func (e *TupleExpression) Accept(v Visitor)       { v.VisitTupleExpression(e) }

// ArrayExpression is `[e0, e1, ...]`.
type ArrayExpression struct {
	Token    token.Token
	Elements []Expression
	exprBase
	Annotations
}

func (e *ArrayExpression) GetToken() token.Token { return e.Token }
func (e *ArrayExpression) Accept(v Visitor)       { v.VisitArrayExpression(e) }

// RecordField is one `name: value` pair in a record literal.
type RecordField struct {
	Name  *Identifier
	Value Expression
}

// RecordExpression is `T{f0: v0, f1: v1}` or an anonymous `{f0: v0}`.
type RecordExpression struct {
	Token  token.Token
	Type   TypeExpr // nil for an anonymous structural record
	Fields []RecordField
	exprBase
	Annotations
}

func (e *RecordExpression) GetToken() token.Token { return e.Token }
func (e *RecordExpression) Accept(v Visitor)       { v.VisitRecordExpression(e) }

// LambdaExpression is an anonymous closure literal; captured free
// variables are resolved by the checker and recorded for code
// generation (spec §4.6 "Closure").
type LambdaExpression struct {
	Token      token.Token
	Params     []Param
	ReturnType TypeExpr
	Body       *BlockStatement
	Captures   []*Identifier // filled in by the checker
	exprBase
	Annotations
}

func (e *LambdaExpression) GetToken() token.Token { return e.Token }
func (e *LambdaExpression) Accept(v Visitor)       { v.VisitLambdaExpression(e) }

// AsExpression is the explicit conversion `expr as T` (spec §4.2/§4.4
// rule 4).
type AsExpression struct {
	Token  token.Token
	Value  Expression
	Target TypeExpr
	exprBase
	Annotations
}

func (e *AsExpression) GetToken() token.Token { return e.Token }
func (e *AsExpression) Accept(v Visitor)       { v.VisitAsExpression(e) }

// RangeExpression is `a..b` or `a..=b`.
type RangeExpression struct {
	Token     token.Token
	Start     Expression
	End       Expression
	Inclusive bool
	exprBase
	Annotations
}

func (e *RangeExpression) GetToken() token.Token { return e.Token }
func (e *RangeExpression) Accept(v Visitor)       { v.VisitRangeExpression(e) }

// WhenExpression is the value-producing form of `when`, e.g. `k => when
// v is i32 { k => k+1 } else { 0 }` from spec §8 scenario S2. Its cases
// compile the same way WhenStatement's do; its type is the join of the
// branch values.
type WhenExpression struct {
	Token     token.Token
	Scrutinee Expression
	Cases     []*WhenCase
	Else      Expression
	exprBase
	Annotations
}

func (e *WhenExpression) GetToken() token.Token { return e.Token }
func (e *WhenExpression) Accept(v Visitor)       { v.VisitWhenExpression(e) }

// ImplicitConversion wraps a sub-expression the checker determined
// flows into a compatible-but-distinct-type context (spec §4.4 rule 5).
// Annotations.Type carries the exact target type so the code generator
// emits the lowering without repeating the analysis.
type ImplicitConversion struct {
	Inner Expression
	exprBase
	Annotations
}

func (e *ImplicitConversion) GetToken() token.Token { return e.Inner.GetToken() }
func (e *ImplicitConversion) Accept(v Visitor)       { v.VisitImplicitConversion(e) }
