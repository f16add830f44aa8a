// Package types implements the type system of spec §4.2: construction,
// canonicalisation, compatibility, and generic substitution. The shape
// of the Type interface and its Apply/FreeTypeVariables methods are
// grounded on the teacher's internal/typesystem package; the concrete
// categories are the ones spec §3 names instead of the teacher's
// Hindley-Milner constructor set.
package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type is the interface every type category implements.
type Type interface {
	// String returns the canonical structural form used for interning,
	// hashing (variant tags), and the compatibility rule "identical
	// canonical string ⇒ compatible".
	String() string
	// Apply substitutes generic parameters per Subst, used during
	// generic instantiation (spec §4.4 rule 3).
	Apply(Subst) Type
	// FreeGenerics lists the unbound formal type parameters reachable
	// from this type.
	FreeGenerics() []Generic
}

// Subst maps a generic parameter's formal name to its bound argument.
type Subst map[string]Type

// Compose combines two substitutions so that applying the result is
// equivalent to applying s2 then s1.
func (s1 Subst) Compose(s2 Subst) Subst {
	out := Subst{}
	for k, v := range s2 {
		out[k] = v
	}
	for k, v := range s1 {
		out[k] = v.Apply(s2)
	}
	return out
}

// ---- Primitives ----

// PrimitiveKind enumerates spec §3's primitive categories.
type PrimitiveKind int

const (
	Unit PrimitiveKind = iota
	Bool
	Char
	Chars  // a sequence of code points, distinct from String
	Str    // the UTF-8 owning string primitive
	SInt   // signed integer, width carried on Primitive.Width
	UInt   // unsigned integer
	Ratio  // the rational family
	Flt    // the float family
	Cplx   // the complex family
)

var primitiveNames = map[PrimitiveKind]string{
	Unit: "unit", Bool: "bool", Char: "char", Chars: "chars", Str: "string",
	SInt: "i", UInt: "u", Ratio: "rational", Flt: "float", Cplx: "complex",
}

// Primitive is a primitive type, e.g. unit, bool, char, i32, u64, float64.
type Primitive struct {
	Kind  PrimitiveKind
	Width int // bit width for SInt/UInt/Flt/Cplx; 0 when not applicable
}

func (p Primitive) String() string {
	switch p.Kind {
	case SInt, UInt, Flt, Cplx:
		if p.Width > 0 {
			return fmt.Sprintf("%s%d", primitiveNames[p.Kind], p.Width)
		}
		return primitiveNames[p.Kind]
	default:
		return primitiveNames[p.Kind]
	}
}
func (p Primitive) Apply(Subst) Type            { return p }
func (p Primitive) FreeGenerics() []Generic      { return nil }

// Convenience constructors mirroring the primitives named in spec §3.
var (
	TUnit   = Primitive{Kind: Unit}
	TBool   = Primitive{Kind: Bool}
	TChar   = Primitive{Kind: Char}
	TChars  = Primitive{Kind: Chars}
	TString = Primitive{Kind: Str}
)

func Int(width int) Primitive   { return Primitive{Kind: SInt, Width: width} }
func Uint(width int) Primitive  { return Primitive{Kind: UInt, Width: width} }
func Float(width int) Primitive { return Primitive{Kind: Flt, Width: width} }

// ---- Pointer / Slice / Array ----

// Pointer is pointer(T).
type Pointer struct{ Elem Type }

func (p Pointer) String() string          { return "*" + p.Elem.String() }
func (p Pointer) Apply(s Subst) Type      { return Pointer{Elem: p.Elem.Apply(s)} }
func (p Pointer) FreeGenerics() []Generic { return p.Elem.FreeGenerics() }

// Slice is slice(T).
type Slice struct{ Elem Type }

func (s Slice) String() string          { return "[]" + s.Elem.String() }
func (s Slice) Apply(sub Subst) Type    { return Slice{Elem: s.Elem.Apply(sub)} }
func (s Slice) FreeGenerics() []Generic { return s.Elem.FreeGenerics() }

// ArraySize is either a compile-time constant length or a generic
// parametric identifier, per spec §3 "array(T, N) where N is either a
// constant or a parametric identifier".
type ArraySize struct {
	Const    int64
	IsConst  bool
	ParamRef string // the generic const-parameter's name when !IsConst
}

func (n ArraySize) String() string {
	if n.IsConst {
		return strconv.FormatInt(n.Const, 10)
	}
	return n.ParamRef
}

// Array is array(T, N).
type Array struct {
	Elem Type
	Size ArraySize
}

func (a Array) String() string { return fmt.Sprintf("[%s]%s", a.Size, a.Elem.String()) }
func (a Array) Apply(s Subst) Type {
	size := a.Size
	if !size.IsConst {
		if repl, ok := s[size.ParamRef]; ok {
			if g, ok := repl.(GenericValue); ok {
				size = ArraySize{IsConst: true, Const: g.Value}
			}
		}
	}
	return Array{Elem: a.Elem.Apply(s), Size: size}
}
func (a Array) FreeGenerics() []Generic {
	g := a.Elem.FreeGenerics()
	if !a.Size.IsConst {
		g = append(g, Generic{Name: a.Size.ParamRef, IsValueParam: true})
	}
	return g
}

// GenericValue is a bound compile-time value substituted for a
// const-generic parameter (e.g. an array length). It is a Type only so
// that it can flow through Subst uniformly with type parameters.
type GenericValue struct {
	Value int64
}

func (g GenericValue) String() string          { return strconv.FormatInt(g.Value, 10) }
func (g GenericValue) Apply(Subst) Type        { return g }
func (g GenericValue) FreeGenerics() []Generic { return nil }

// ---- Tuple ----

// Tuple is tuple(T...), always structural: "anonymous tuples are
// compatible componentwise" per spec §4.2.
type Tuple struct{ Elements []Type }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t Tuple) Apply(s Subst) Type {
	out := make([]Type, len(t.Elements))
	for i, e := range t.Elements {
		out[i] = e.Apply(s)
	}
	return Tuple{Elements: out}
}
func (t Tuple) FreeGenerics() []Generic {
	var out []Generic
	for _, e := range t.Elements {
		out = append(out, e.FreeGenerics()...)
	}
	return uniqueGenerics(out)
}

// ---- Structure ----

// Field is one ordered, named field of a Structure.
type Field struct {
	Name string
	Type Type
}

// Structure is an ordered named-field record with a declaration owner,
// compatible only by identity (nominal) per spec §4.2.
type Structure struct {
	Name   string // the declaration's dot-path name; identity key
	Fields []Field
}

func (s Structure) String() string { return s.Name }
func (s Structure) Apply(sub Subst) Type {
	out := make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = Field{Name: f.Name, Type: f.Type.Apply(sub)}
	}
	return Structure{Name: s.Name, Fields: out}
}
func (s Structure) FreeGenerics() []Generic {
	var out []Generic
	for _, f := range s.Fields {
		out = append(out, f.Type.FreeGenerics()...)
	}
	return uniqueGenerics(out)
}

// FieldType looks up a field's type by name.
func (s Structure) FieldType(name string) (Type, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// ---- Variant ----

// Variant is an unordered set of member types, identified by the hash
// of each member's canonical form (spec §4.6, Glossary "Variant").
// Contains tests set membership; the member set is kept duplicate-free
// under canonicalisation per Invariant 5 and the Open Question decision
// in SPEC_FULL.md (dedup by canonical string only, not nominal identity).
type Variant struct{ Members []Type }

func (v Variant) String() string {
	parts := make([]string, len(v.Members))
	for i, m := range v.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (v Variant) Apply(s Subst) Type {
	out := make([]Type, len(v.Members))
	for i, m := range v.Members {
		out[i] = m.Apply(s)
	}
	return NewVariant(out)
}
func (v Variant) FreeGenerics() []Generic {
	var out []Generic
	for _, m := range v.Members {
		out = append(out, m.FreeGenerics()...)
	}
	return uniqueGenerics(out)
}

// Contains reports whether t is a member of v by canonical string.
func (v Variant) Contains(t Type) bool {
	key := t.String()
	for _, m := range v.Members {
		if m.String() == key {
			return true
		}
	}
	return false
}

// Tag is the variant member's dispatch tag: a stable hash of its
// canonical form, per spec §4.6 and testable property 8.
func Tag(member Type) uint64 {
	return fnv1a(member.String())
}

func fnv1a(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// NewVariant builds a normalized Variant: flattens nested variants,
// deduplicates by canonical string, and sorts for deterministic output
// (mirrors the teacher's NormalizeUnion).
func NewVariant(members []Type) Type {
	flat := make([]Type, 0, len(members))
	for _, m := range members {
		if v, ok := m.(Variant); ok {
			flat = append(flat, v.Members...)
		} else {
			flat = append(flat, m)
		}
	}
	seen := make(map[string]bool, len(flat))
	unique := flat[:0:0]
	for _, m := range flat {
		k := m.String()
		if !seen[k] {
			seen[k] = true
			unique = append(unique, m)
		}
	}
	if len(unique) == 1 {
		return unique[0]
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })
	return Variant{Members: unique}
}

// ---- Function ----

// Function is function(params, result, is-closure). IsVariadic marks a
// signature whose final parameter absorbs the remaining positional
// arguments (spec §4.3, "if marked variadic").
type Function struct {
	Params     []Type
	Result     Type
	IsClosure  bool
	IsVariadic bool
}

func (f Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	if f.IsVariadic && len(parts) > 0 {
		parts[len(parts)-1] = ".." + parts[len(parts)-1]
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Result.String())
}
func (f Function) Apply(s Subst) Type {
	out := make([]Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Apply(s)
	}
	return Function{Params: out, Result: f.Result.Apply(s), IsClosure: f.IsClosure, IsVariadic: f.IsVariadic}
}
func (f Function) FreeGenerics() []Generic {
	var out []Generic
	for _, p := range f.Params {
		out = append(out, p.FreeGenerics()...)
	}
	out = append(out, f.Result.FreeGenerics()...)
	return uniqueGenerics(out)
}

// ---- Range ----

// RangeType is range(T): a nominal subtype of T carrying compile-time
// start/end bounds, enforced by the constructor at code-gen time
// (spec §4.6 "Range type").
type RangeType struct {
	Base      Type
	Start     int64
	End       int64
	Inclusive bool
}

func (r RangeType) String() string {
	op := ".."
	if r.Inclusive {
		op = "..="
	}
	return fmt.Sprintf("range %s %d%s%d", r.Base.String(), r.Start, op, r.End)
}
func (r RangeType) Apply(s Subst) Type      { return RangeType{Base: r.Base.Apply(s), Start: r.Start, End: r.End, Inclusive: r.Inclusive} }
func (r RangeType) FreeGenerics() []Generic { return r.Base.FreeGenerics() }

// ---- Behaviour ----

// Method is one behaviour method signature.
type Method struct {
	Name string
	Sig  Function
}

// Behaviour is an abstract interface type dispatched through a
// per-implementor vtable (spec §4.6, Glossary "Behaviour").
type Behaviour struct {
	Name    string
	Methods []Method
}

func (b Behaviour) String() string { return b.Name }
func (b Behaviour) Apply(s Subst) Type {
	out := make([]Method, len(b.Methods))
	for i, m := range b.Methods {
		out[i] = Method{Name: m.Name, Sig: m.Sig.Apply(s).(Function)}
	}
	return Behaviour{Name: b.Name, Methods: out}
}
func (b Behaviour) FreeGenerics() []Generic {
	var out []Generic
	for _, m := range b.Methods {
		out = append(out, m.Sig.FreeGenerics()...)
	}
	return uniqueGenerics(out)
}

// ---- Generic ----

// Generic is an unbound formal type parameter referencing its
// declaration. IsValueParam distinguishes a const-generic parameter
// (e.g. an array length `N`) from a type parameter (e.g. `T`).
type Generic struct {
	Name         string
	DeclSite     string // dot-path of the generic declaration, for error messages
	IsValueParam bool
	ValueType    Type // for value params, the parameter's own type (e.g. usize)
}

func (g Generic) String() string { return g.Name }
func (g Generic) Apply(s Subst) Type {
	if repl, ok := s[g.Name]; ok {
		return repl
	}
	return g
}
func (g Generic) FreeGenerics() []Generic { return []Generic{g} }

func uniqueGenerics(gs []Generic) []Generic {
	seen := make(map[string]bool, len(gs))
	out := gs[:0:0]
	for _, g := range gs {
		if !seen[g.Name] {
			seen[g.Name] = true
			out = append(out, g)
		}
	}
	return out
}

// ---- Unknown ----

// Unknown is the placeholder for a not-yet-inferred type; per
// Invariant 1, no node leaves the checker annotated Unknown unless a
// diagnostic was surfaced for it.
type Unknown struct{}

func (Unknown) String() string          { return "?" }
func (Unknown) Apply(Subst) Type        { return Unknown{} }
func (Unknown) FreeGenerics() []Generic { return nil }

// IsUnknown reports whether t is the Unknown placeholder.
func IsUnknown(t Type) bool {
	_, ok := t.(Unknown)
	return ok
}
