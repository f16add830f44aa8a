package ast

import "github.com/nyxlang/nyxc/internal/token"

// NamedTypeExpr is a bare name reference to a declared type, a generic
// formal parameter, or a primitive (e.g. `i32`, `Shape`, `T`).
type NamedTypeExpr struct {
	Token token.Token
	Name  string
}

func (t *NamedTypeExpr) GetToken() token.Token { return t.Token }
func (t *NamedTypeExpr) Accept(v Visitor)       { v.VisitNamedTypeExpr(t) }
func (t *NamedTypeExpr) typeExprNode()          {}

// PointerTypeExpr is `*T`.
type PointerTypeExpr struct {
	Token token.Token
	Elem  TypeExpr
}

func (t *PointerTypeExpr) GetToken() token.Token { return t.Token }
func (t *PointerTypeExpr) Accept(v Visitor)       { v.VisitPointerTypeExpr(t) }
func (t *PointerTypeExpr) typeExprNode()          {}

// SliceTypeExpr is `[]T`.
type SliceTypeExpr struct {
	Token token.Token
	Elem  TypeExpr
}

func (t *SliceTypeExpr) GetToken() token.Token { return t.Token }
func (t *SliceTypeExpr) Accept(v Visitor)       { v.VisitSliceTypeExpr(t) }
func (t *SliceTypeExpr) typeExprNode()          {}

// ArrayTypeExpr is `[N]T`, where Size is either a constant literal or a
// generic parametric identifier (spec §3).
type ArrayTypeExpr struct {
	Token token.Token
	Elem  TypeExpr
	Size  Expression // a constant expression, or an Identifier naming a const-generic param
}

func (t *ArrayTypeExpr) GetToken() token.Token { return t.Token }
func (t *ArrayTypeExpr) Accept(v Visitor)       { v.VisitArrayTypeExpr(t) }
func (t *ArrayTypeExpr) typeExprNode()          {}

// TupleTypeExpr is `(T0, T1, ...)`.
type TupleTypeExpr struct {
	Token    token.Token
	Elements []TypeExpr
}

func (t *TupleTypeExpr) GetToken() token.Token { return t.Token }
func (t *TupleTypeExpr) Accept(v Visitor)       { v.VisitTupleTypeExpr(t) }
func (t *TupleTypeExpr) typeExprNode()          {}

// VariantTypeExpr is `T0 | T1 | ...`.
type VariantTypeExpr struct {
	Token   token.Token
	Members []TypeExpr
}

func (t *VariantTypeExpr) GetToken() token.Token { return t.Token }
func (t *VariantTypeExpr) Accept(v Visitor)       { v.VisitVariantTypeExpr(t) }
func (t *VariantTypeExpr) typeExprNode()          {}

// FunctionTypeExpr is `(T0, T1) -> R`.
type FunctionTypeExpr struct {
	Token      token.Token
	Params     []TypeExpr
	Result     TypeExpr
	IsVariadic bool
}

func (t *FunctionTypeExpr) GetToken() token.Token { return t.Token }
func (t *FunctionTypeExpr) Accept(v Visitor)       { v.VisitFunctionTypeExpr(t) }
func (t *FunctionTypeExpr) typeExprNode()          {}

// RangeTypeExpr is `range T a..b` / `range T a..=b` (Glossary "Range
// type").
type RangeTypeExpr struct {
	Token     token.Token
	Base      TypeExpr
	Start     Expression
	End       Expression
	Inclusive bool
}

func (t *RangeTypeExpr) GetToken() token.Token { return t.Token }
func (t *RangeTypeExpr) Accept(v Visitor)       { v.VisitRangeTypeExpr(t) }
func (t *RangeTypeExpr) typeExprNode()          {}

// GenericInstanceTypeExpr is `Name[Arg0, Arg1]`, e.g. `Box[i32]`.
type GenericInstanceTypeExpr struct {
	Token token.Token
	Name  string
	Args  []TypeExpr
}

func (t *GenericInstanceTypeExpr) GetToken() token.Token { return t.Token }
func (t *GenericInstanceTypeExpr) Accept(v Visitor)       { v.VisitGenericInstanceTypeExpr(t) }
func (t *GenericInstanceTypeExpr) typeExprNode()          {}
