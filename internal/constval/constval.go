// Package constval implements the "Constant value" data model of spec
// §3: a tagged union carrying a type pointer and the appropriate
// payload, with componentwise equality and ordering. It is produced by
// internal/consteval and consumed by the checker (for substitution) and
// the code generator (for compile-time elision).
//
// Grounded on the teacher's internal/evaluator object model
// (Boolean/Integer/BigInt/Rational/Float), generalised to carry an
// explicit types.Type tag and widened to the rational/complex families
// spec §3 names, with math/big used the same way the teacher uses it
// for BigInt/Rational.
package constval

import (
	"fmt"
	"math/big"

	"github.com/nyxlang/nyxc/internal/types"
)

// Kind tags which payload field of a Value is active.
type Kind int

const (
	KUnit Kind = iota
	KBool
	KChar
	KString // also used for the `chars` primitive (a code-point sequence)
	KInt    // big.Int, width tracked via Type
	KRational
	KFloat // big.Float payload; exact rationals use KRational
	KComplex
	KSequence // tuple/array payload
)

// Value is the tagged union of spec §3's "Constant value".
type Value struct {
	Kind Kind
	Type types.Type

	Bool    bool
	Char    rune
	Str     string
	Int     *big.Int
	Ratio   *big.Rat
	Float   *big.Float
	Complex complex128
	Seq     []Value
}

func Unit() Value                       { return Value{Kind: KUnit, Type: types.TUnit} }
func Bool(v bool, t types.Type) Value   { return Value{Kind: KBool, Bool: v, Type: t} }
func Char(v rune, t types.Type) Value   { return Value{Kind: KChar, Char: v, Type: t} }
func Str(v string, t types.Type) Value  { return Value{Kind: KString, Str: v, Type: t} }
func Int(v *big.Int, t types.Type) Value {
	return Value{Kind: KInt, Int: new(big.Int).Set(v), Type: t}
}
func Rational(v *big.Rat, t types.Type) Value {
	return Value{Kind: KRational, Ratio: new(big.Rat).Set(v), Type: t}
}
func Float(v *big.Float, t types.Type) Value {
	return Value{Kind: KFloat, Float: new(big.Float).Set(v), Type: t}
}
func Sequence(elems []Value, t types.Type) Value {
	return Value{Kind: KSequence, Seq: elems, Type: t}
}

func (v Value) String() string {
	switch v.Kind {
	case KUnit:
		return "()"
	case KBool:
		return fmt.Sprintf("%t", v.Bool)
	case KChar:
		return fmt.Sprintf("%q", v.Char)
	case KString:
		return fmt.Sprintf("%q", v.Str)
	case KInt:
		return v.Int.String()
	case KRational:
		return v.Ratio.RatString()
	case KFloat:
		return v.Float.Text('g', -1)
	case KComplex:
		return fmt.Sprintf("%v", v.Complex)
	case KSequence:
		return fmt.Sprintf("%v", v.Seq)
	default:
		return "<invalid constant>"
	}
}

// Equal implements componentwise equality over the type category, as
// required by spec §3's "Constant value. ... Equality and ordering are
// defined componentwise over the type category."
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KUnit:
		return true
	case KBool:
		return a.Bool == b.Bool
	case KChar:
		return a.Char == b.Char
	case KString:
		return a.Str == b.Str
	case KInt:
		return a.Int.Cmp(b.Int) == 0
	case KRational:
		return a.Ratio.Cmp(b.Ratio) == 0
	case KFloat:
		return a.Float.Cmp(b.Float) == 0
	case KComplex:
		return a.Complex == b.Complex
	case KSequence:
		if len(a.Seq) != len(b.Seq) {
			return false
		}
		for i := range a.Seq {
			if !Equal(a.Seq[i], b.Seq[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Ordered reports whether v belongs to a category Compare accepts.
func Ordered(v Value) bool {
	switch v.Kind {
	case KBool, KChar, KString, KInt, KRational, KFloat:
		return true
	default:
		return false
	}
}

// Compare implements ordering componentwise for the ordered categories
// (bool, char, string, int, rational, float); it panics on sequence or
// unit values, which have no total order in the language.
func Compare(a, b Value) int {
	switch a.Kind {
	case KBool:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case KChar:
		return int(a.Char) - int(b.Char)
	case KString:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	case KInt:
		return a.Int.Cmp(b.Int)
	case KRational:
		return a.Ratio.Cmp(b.Ratio)
	case KFloat:
		return a.Float.Cmp(b.Float)
	default:
		panic(fmt.Sprintf("constval: no total order for kind %d", a.Kind))
	}
}

// AsIndex extracts an int index from an integral constant, used for
// compile-time indexing of constant compound values (spec §4.5).
func (v Value) AsIndex() (int, bool) {
	if v.Kind != KInt {
		return 0, false
	}
	if !v.Int.IsInt64() {
		return 0, false
	}
	return int(v.Int.Int64()), true
}
