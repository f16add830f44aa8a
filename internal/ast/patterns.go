package ast

import "github.com/nyxlang/nyxc/internal/token"

// IdentifierPattern binds the scrutinee (or a selector sub-component)
// to a name, unconditionally (spec §4.3 table: "Identifier (non-constant)").
type IdentifierPattern struct {
	Token token.Token
	Name  string
}

func (p *IdentifierPattern) GetToken() token.Token { return p.Token }
func (p *IdentifierPattern) Accept(v Visitor)       { v.VisitIdentifierPattern(p) }
func (p *IdentifierPattern) patternNode()           {}

// WildcardPattern is `_`; it may not be rebound (spec §4.3 Tie-breaks).
type WildcardPattern struct {
	Token token.Token
}

func (p *WildcardPattern) GetToken() token.Token { return p.Token }
func (p *WildcardPattern) Accept(v Visitor)       { v.VisitWildcardPattern(p) }
func (p *WildcardPattern) patternNode()           {}

// LiteralPattern matches a scalar literal value.
type LiteralPattern struct {
	Token token.Token
	Value *Literal
}

func (p *LiteralPattern) GetToken() token.Token { return p.Token }
func (p *LiteralPattern) Accept(v Visitor)       { v.VisitLiteralPattern(p) }
func (p *LiteralPattern) patternNode()           {}

// ConstantPathPattern matches a named constant's value by identity
// (spec §4.3 table: "Constant path").
type ConstantPathPattern struct {
	Token token.Token
	Path  *Identifier
}

func (p *ConstantPathPattern) GetToken() token.Token { return p.Token }
func (p *ConstantPathPattern) Accept(v Visitor)       { v.VisitConstantPathPattern(p) }
func (p *ConstantPathPattern) patternNode()           {}

// RangePattern matches `a..b` or `a..=b` (inclusive/exclusive).
type RangePattern struct {
	Token     token.Token
	Start     Expression
	End       Expression
	Inclusive bool
}

func (p *RangePattern) GetToken() token.Token { return p.Token }
func (p *RangePattern) Accept(v Visitor)       { v.VisitRangePattern(p) }
func (p *RangePattern) patternNode()           {}

// TuplePattern matches `(p0, p1, ...)`, possibly with a trailing
// wildcard covering fewer positions (spec §4.3 Tie-breaks).
type TuplePattern struct {
	Token    token.Token
	Elements []Pattern
}

func (p *TuplePattern) GetToken() token.Token { return p.Token }
func (p *TuplePattern) Accept(v Visitor)       { v.VisitTuplePattern(p) }
func (p *TuplePattern) patternNode()           {}

// ArrayPattern matches `[p0, p1, ...]` against a slice/array scrutinee.
type ArrayPattern struct {
	Token    token.Token
	Elements []Pattern
}

func (p *ArrayPattern) GetToken() token.Token { return p.Token }
func (p *ArrayPattern) Accept(v Visitor)       { v.VisitArrayPattern(p) }
func (p *ArrayPattern) patternNode()           {}

// RecordFieldPattern is one `name: pattern` pair in a record pattern.
type RecordFieldPattern struct {
	Name    *Identifier
	Pattern Pattern
}

// RecordPattern matches `T{p...}` or `T{f: p...}`.
type RecordPattern struct {
	Token  token.Token
	Type   *Identifier // nil for an untyped structural match
	Fields []RecordFieldPattern
}

func (p *RecordPattern) GetToken() token.Token { return p.Token }
func (p *RecordPattern) Accept(v Visitor)       { v.VisitRecordPattern(p) }
func (p *RecordPattern) patternNode()           {}

// OrPattern is `p1 | p2`; both alternatives must bind the same names
// (spec §4.3 table: "Or").
type OrPattern struct {
	Token        token.Token
	Alternatives []Pattern
}

func (p *OrPattern) GetToken() token.Token { return p.Token }
func (p *OrPattern) Accept(v Visitor)       { v.VisitOrPattern(p) }
func (p *OrPattern) patternNode()           {}

// VariantPattern matches a tagged sub-pattern within a variant-typed
// scrutinee: `v is T(sub)` (spec §4.3 table: "Variant-tagged sub-pattern").
type VariantPattern struct {
	Token   token.Token
	Member  TypeExpr
	Sub     Pattern // nil when only the tag is tested, e.g. `is Nil`
}

func (p *VariantPattern) GetToken() token.Token { return p.Token }
func (p *VariantPattern) Accept(v Visitor)       { v.VisitVariantPattern(p) }
func (p *VariantPattern) patternNode()           {}
