// Package consteval implements the constant evaluator of spec §4.5: a
// stack-based visitor that folds constant sub-trees into constval.Value
// results, parses literal lexemes (base-prefix and digit-separator
// aware), and surfaces overflow/division/cast/shift errors as
// diagnostics rather than panics.
//
// Grounded on the teacher's internal/evaluator tree-walking style
// (expressions_literals.go, expressions_operators.go) and object model,
// re-targeted from runtime evaluation to compile-time folding with
// math/big throughout per spec §3's "Constant value".
package consteval

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/token"
	"github.com/nyxlang/nyxc/internal/types"
)

// ErrNotConstant is returned when a sub-tree is not foldable because it
// references a runtime value (a var, a function call with side
// effects, and so on).
type ErrNotConstant struct {
	At     token.Token
	Reason string
}

func (e *ErrNotConstant) Error() string {
	return fmt.Sprintf("%s: not a compile-time constant: %s", e.At.Pos, e.Reason)
}

// ErrGenericRetry is the "generic_evaluation" signal of spec §4.5: a
// const-generic parameter (e.g. an array length `N`) is still unbound,
// so folding must be retried once the enclosing generic is
// instantiated. Callers distinguish this from ErrNotConstant so the
// checker can defer rather than reject.
type ErrGenericRetry struct {
	Param string
}

func (e *ErrGenericRetry) Error() string {
	return fmt.Sprintf("generic parameter %q not yet bound", e.Param)
}

// ErrArithmetic covers overflow, division/modulo by zero, and
// out-of-range shift/cast errors (spec §4.5 "overflow, division").
type ErrArithmetic struct {
	At      token.Token
	Message string
}

func (e *ErrArithmetic) Error() string { return fmt.Sprintf("%s: %s", e.At.Pos, e.Message) }

// Bindings resolves named constants for the evaluator. Identifiers
// resolve constants through Lookup; a name Lookup does not find makes
// Fold return ErrNotConstant.
type Bindings interface {
	// Lookup resolves a named constant declaration (const, generic
	// const-param) to its folded value, or reports not-found.
	Lookup(name string) (constval.Value, bool)
}

// Evaluator folds constant expression sub-trees. It carries no mutable
// state of its own beyond the bindings it is given per call, matching
// the "compilation context passed explicitly" Design Note of spec §9.
type Evaluator struct {
	Bindings Bindings
}

// New returns an Evaluator resolving named constants through b.
func New(b Bindings) *Evaluator { return &Evaluator{Bindings: b} }

// Fold evaluates expr to a constant value, or returns ErrNotConstant /
// ErrArithmetic. Fold itself never returns ErrGenericRetry; the checker
// raises it when an array size does not fold.
func (e *Evaluator) Fold(expr ast.Expression) (constval.Value, error) {
	switch n := expr.(type) {
	case *ast.Literal:
		return e.foldLiteral(n)
	case *ast.Identifier:
		if v, ok := e.Bindings.Lookup(n.Value); ok {
			return v, nil
		}
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("%s does not refer to a constant", n.Value)}
	case *ast.UnaryExpression:
		return e.foldUnary(n)
	case *ast.BinaryExpression:
		return e.foldBinary(n)
	case *ast.TupleExpression:
		return e.foldSequence(n.Token, n.Elements)
	case *ast.ArrayExpression:
		return e.foldSequence(n.Token, n.Elements)
	case *ast.IndexExpression:
		return e.foldIndex(n)
	case *ast.AsExpression:
		return e.foldCast(n)
	default:
		return constval.Value{}, &ErrNotConstant{At: expr.GetToken(), Reason: fmt.Sprintf("%T is not a constant expression form", expr)}
	}
}

func (e *Evaluator) foldSequence(tok token.Token, elems []ast.Expression) (constval.Value, error) {
	out := make([]constval.Value, len(elems))
	elemTypes := make([]types.Type, len(elems))
	for i, el := range elems {
		v, err := e.Fold(el)
		if err != nil {
			return constval.Value{}, err
		}
		out[i] = v
		elemTypes[i] = v.Type
	}
	return constval.Sequence(out, types.Tuple{Elements: elemTypes}), nil
}

func (e *Evaluator) foldIndex(n *ast.IndexExpression) (constval.Value, error) {
	recv, err := e.Fold(n.Receiver)
	if err != nil {
		return constval.Value{}, err
	}
	idx, err := e.Fold(n.Index)
	if err != nil {
		return constval.Value{}, err
	}
	i, ok := idx.AsIndex()
	if !ok {
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: "index is not a constant integer"}
	}
	if recv.Kind != constval.KSequence || i < 0 || i >= len(recv.Seq) {
		return constval.Value{}, &ErrArithmetic{At: n.Token, Message: "constant index out of range"}
	}
	return recv.Seq[i], nil
}

func (e *Evaluator) foldUnary(n *ast.UnaryExpression) (constval.Value, error) {
	v, err := e.Fold(n.Operand)
	if err != nil {
		return constval.Value{}, err
	}
	switch n.Op {
	case token.MINUS:
		switch v.Kind {
		case constval.KInt:
			return constval.Int(new(big.Int).Neg(v.Int), v.Type), nil
		case constval.KRational:
			return constval.Rational(new(big.Rat).Neg(v.Ratio), v.Type), nil
		case constval.KFloat:
			return constval.Float(new(big.Float).Neg(v.Float), v.Type), nil
		}
	case token.NOT:
		if v.Kind == constval.KBool {
			return constval.Bool(!v.Bool, v.Type), nil
		}
	case token.TILDE:
		if v.Kind == constval.KInt {
			return constval.Int(new(big.Int).Not(v.Int), v.Type), nil
		}
	}
	return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("unary %s not defined on %s", n.Op, v.Type)}
}

func (e *Evaluator) foldBinary(n *ast.BinaryExpression) (constval.Value, error) {
	l, err := e.Fold(n.Left)
	if err != nil {
		return constval.Value{}, err
	}
	r, err := e.Fold(n.Right)
	if err != nil {
		return constval.Value{}, err
	}

	switch n.Op {
	case token.AND, token.OR:
		if l.Kind != constval.KBool || r.Kind != constval.KBool {
			return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: "logical operator on non-bool constants"}
		}
		if n.Op == token.AND {
			return constval.Bool(l.Bool && r.Bool, l.Type), nil
		}
		return constval.Bool(l.Bool || r.Bool, l.Type), nil
	case token.EQ:
		return constval.Bool(constval.Equal(l, r), types.TBool), nil
	case token.NEQ:
		return constval.Bool(!constval.Equal(l, r), types.TBool), nil
	case token.LT, token.LTE, token.GT, token.GTE:
		if !constval.Ordered(l) || l.Kind != r.Kind {
			return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: "ordering on unordered constants"}
		}
		cmp := constval.Compare(l, r)
		switch n.Op {
		case token.LT:
			return constval.Bool(cmp < 0, types.TBool), nil
		case token.LTE:
			return constval.Bool(cmp <= 0, types.TBool), nil
		case token.GT:
			return constval.Bool(cmp > 0, types.TBool), nil
		default:
			return constval.Bool(cmp >= 0, types.TBool), nil
		}
	}

	if l.Kind == constval.KInt && r.Kind == constval.KInt {
		return e.foldIntArith(n, l, r)
	}
	if l.Kind == constval.KRational && r.Kind == constval.KRational {
		return e.foldRatArith(n, l, r)
	}
	if l.Kind == constval.KFloat && r.Kind == constval.KFloat {
		return e.foldFloatArith(n, l, r)
	}
	if l.Kind == constval.KString && r.Kind == constval.KString && n.Op == token.PLUS {
		return constval.Str(l.Str+r.Str, l.Type), nil
	}
	return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("binary %s not defined on %s and %s", n.Op, l.Type, r.Type)}
}

func (e *Evaluator) foldIntArith(n *ast.BinaryExpression, l, r constval.Value) (constval.Value, error) {
	result := new(big.Int)
	switch n.Op {
	case token.PLUS:
		result.Add(l.Int, r.Int)
	case token.MINUS:
		result.Sub(l.Int, r.Int)
	case token.STAR:
		result.Mul(l.Int, r.Int)
	case token.SLASH:
		if r.Int.Sign() == 0 {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: "division by zero"}
		}
		result.Quo(l.Int, r.Int)
	case token.PERCENT:
		if r.Int.Sign() == 0 {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: "modulo by zero"}
		}
		result.Rem(l.Int, r.Int)
	case token.AMP:
		result.And(l.Int, r.Int)
	case token.PIPE:
		result.Or(l.Int, r.Int)
	case token.CARET:
		result.Xor(l.Int, r.Int)
	case token.LSHIFT:
		if !r.Int.IsUint64() {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: "shift amount out of range"}
		}
		result.Lsh(l.Int, uint(r.Int.Uint64()))
	case token.RSHIFT:
		if !r.Int.IsUint64() {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: "shift amount out of range"}
		}
		result.Rsh(l.Int, uint(r.Int.Uint64()))
	default:
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("integer operator %s", n.Op)}
	}
	ty := l.Type
	if prim, ok := ty.(types.Primitive); ok && prim.Width > 0 {
		if err := checkWidth(n.Token, result, prim); err != nil {
			return constval.Value{}, err
		}
	}
	return constval.Int(result, ty), nil
}

// FitsWidth reports whether v is representable in the fixed-width
// integer type prim; a prim with no width (an unsized integer) admits
// every value.
func FitsWidth(v *big.Int, prim types.Primitive) bool {
	bits := prim.Width
	if bits == 0 {
		return true
	}
	min, max := new(big.Int), new(big.Int)
	if prim.Kind == types.UInt {
		min.SetInt64(0)
		max.Lsh(big.NewInt(1), uint(bits))
		max.Sub(max, big.NewInt(1))
	} else {
		max.Lsh(big.NewInt(1), uint(bits-1))
		min.Neg(max)
		max.Sub(max, big.NewInt(1))
	}
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// checkWidth enforces overflow for a fixed-width integer type, per spec
// §4.5's overflow error.
func checkWidth(at token.Token, v *big.Int, prim types.Primitive) error {
	if !FitsWidth(v, prim) {
		return &ErrArithmetic{At: at, Message: fmt.Sprintf("constant %s overflows %s", v, prim)}
	}
	return nil
}

func (e *Evaluator) foldRatArith(n *ast.BinaryExpression, l, r constval.Value) (constval.Value, error) {
	result := new(big.Rat)
	switch n.Op {
	case token.PLUS:
		result.Add(l.Ratio, r.Ratio)
	case token.MINUS:
		result.Sub(l.Ratio, r.Ratio)
	case token.STAR:
		result.Mul(l.Ratio, r.Ratio)
	case token.SLASH:
		if r.Ratio.Sign() == 0 {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: "division by zero"}
		}
		result.Quo(l.Ratio, r.Ratio)
	default:
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("rational operator %s", n.Op)}
	}
	return constval.Rational(result, l.Type), nil
}

// foldFloatArith implements the Open Question decision recorded in
// SPEC_FULL.md: float constant folding follows IEEE-754 binary64
// round-to-nearest-even, regardless of the literal's declared width.
func (e *Evaluator) foldFloatArith(n *ast.BinaryExpression, l, r constval.Value) (constval.Value, error) {
	lf, _ := l.Float.Float64()
	rf, _ := r.Float.Float64()
	var out float64
	switch n.Op {
	case token.PLUS:
		out = lf + rf
	case token.MINUS:
		out = lf - rf
	case token.STAR:
		out = lf * rf
	case token.SLASH:
		out = lf / rf
	default:
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("float operator %s", n.Op)}
	}
	return constval.Float(big.NewFloat(out), l.Type), nil
}

// foldCast implements `expr as T` for constant operands (spec §4.2/§4.4
// rule 4 intersected with §4.5): numeric widening/narrowing and
// int<->float conversions are folded; everything else defers to the
// checker's runtime conversion lowering.
func (e *Evaluator) foldCast(n *ast.AsExpression) (constval.Value, error) {
	v, err := e.Fold(n.Value)
	if err != nil {
		return constval.Value{}, err
	}
	target := n.ResolvedType()
	prim, ok := target.(types.Primitive)
	if !ok {
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: "non-primitive constant cast"}
	}
	switch prim.Kind {
	case types.SInt, types.UInt:
		var i *big.Int
		switch v.Kind {
		case constval.KInt:
			i = v.Int
		case constval.KFloat:
			i, _ = v.Float.Int(nil)
		default:
			return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: "cannot cast to integer"}
		}
		if prim.Width > 0 {
			if err := checkWidth(n.Token, i, prim); err != nil {
				return constval.Value{}, err
			}
		}
		return constval.Int(i, prim), nil
	case types.Flt:
		var f *big.Float
		switch v.Kind {
		case constval.KInt:
			f = new(big.Float).SetInt(v.Int)
		case constval.KFloat:
			f = v.Float
		case constval.KRational:
			f, _ = new(big.Float).SetString(v.Ratio.FloatString(40))
		default:
			return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: "cannot cast to float"}
		}
		return constval.Float(f, prim), nil
	default:
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("unsupported constant cast to %s", prim)}
	}
}

// ---- Literal parsing ----

// foldLiteral parses a Literal's raw lexeme into a constval.Value,
// honouring base prefixes (0x/0o/0b) and `_` digit separators (spec §3
// lexical grammar).
func (e *Evaluator) foldLiteral(n *ast.Literal) (constval.Value, error) {
	switch n.Kind {
	case ast.LitUnit:
		return constval.Unit(), nil
	case ast.LitBool:
		return constval.Bool(n.Raw == "true", types.TBool), nil
	case ast.LitChar:
		r, err := parseCharLiteral(n.Raw)
		if err != nil {
			return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: err.Error()}
		}
		return constval.Char(r, types.TChar), nil
	case ast.LitString:
		return constval.Str(unescape(n.Raw), types.TString), nil
	case ast.LitInt:
		i, ok := parseIntLiteral(stripSeparators(n.Raw))
		if !ok {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: fmt.Sprintf("malformed integer literal %q", n.Raw)}
		}
		return constval.Int(i, inferIntType(n)), nil
	case ast.LitFloat:
		f, ok := new(big.Float).SetString(stripSeparators(n.Raw))
		if !ok {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: fmt.Sprintf("malformed float literal %q", n.Raw)}
		}
		return constval.Float(f, types.Float(64)), nil
	case ast.LitRational:
		ratio, ok := new(big.Rat).SetString(stripSeparators(strings.TrimSuffix(n.Raw, "r")))
		if !ok {
			return constval.Value{}, &ErrArithmetic{At: n.Token, Message: fmt.Sprintf("malformed rational literal %q", n.Raw)}
		}
		return constval.Rational(ratio, types.Primitive{Kind: types.Ratio}), nil
	default:
		return constval.Value{}, &ErrNotConstant{At: n.Token, Reason: fmt.Sprintf("unsupported literal kind %d", n.Kind)}
	}
}

// inferIntType defaults an untyped integer literal to i32, the target
// language's word-default; the checker widens or narrows once context
// is known (spec §4.4 rule 4, targeted top-down propagation).
func inferIntType(n *ast.Literal) types.Type {
	if n.Type != nil && !types.IsUnknown(n.Type) {
		return n.Type
	}
	return types.Int(32)
}

func stripSeparators(raw string) string {
	return strings.ReplaceAll(raw, "_", "")
}

func parseIntLiteral(raw string) (*big.Int, bool) {
	base := 10
	digits := raw
	switch {
	case strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X"):
		base, digits = 16, raw[2:]
	case strings.HasPrefix(raw, "0o") || strings.HasPrefix(raw, "0O"):
		base, digits = 8, raw[2:]
	case strings.HasPrefix(raw, "0b") || strings.HasPrefix(raw, "0B"):
		base, digits = 2, raw[2:]
	}
	i, ok := new(big.Int).SetString(digits, base)
	return i, ok
}

// parseCharLiteral and unescape both receive the lexeme with its quotes
// already stripped by the scanner; re-quoting lets strconv resolve the
// escape sequences.
func parseCharLiteral(raw string) (rune, error) {
	unq, err := strconv.Unquote("'" + raw + "'")
	if err != nil {
		unq, err = strconv.Unquote(`"` + raw + `"`)
	}
	if err != nil || len(unq) == 0 {
		return 0, fmt.Errorf("malformed character literal %q", raw)
	}
	for _, r := range unq {
		return r, nil
	}
	return 0, fmt.Errorf("empty character literal")
}

func unescape(raw string) string {
	if s, err := strconv.Unquote(`"` + raw + `"`); err == nil {
		return s
	}
	return raw
}
