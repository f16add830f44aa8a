package types

import "fmt"

// MatchError is returned when the type matcher cannot unify a pattern
// type against a candidate, including the "duplication" case of spec
// §4.3: a prior binding for a formal name conflicts with a new one.
type MatchError struct {
	Reason      string
	Duplication bool
}

func (e *MatchError) Error() string { return e.Reason }

// Bindings is the output of the type matcher: a map from a generic's
// formal parameter names to the type or const-value argument bound to
// it (spec §4.3, "Type matcher").
type Bindings map[string]Type

// Match unifies pattern (possibly containing Generic formals) against
// candidate, producing a total Bindings map over every formal name that
// appears in pattern. It recurses structurally into pointer/slice/
// array/tuple/variant/structure/function constituents, per spec §4.3.
func Match(pattern, candidate Type) (Bindings, error) {
	return MatchInto(pattern, candidate, Bindings{})
}

// MatchInto unifies like Match but seeds the walk with pre-established
// bindings (e.g. explicit generic arguments at a call site); a seeded
// binding conflicts with a structural one the same way two structural
// ones conflict with each other.
func MatchInto(pattern, candidate Type, b Bindings) (Bindings, error) {
	if b == nil {
		b = Bindings{}
	}
	if err := match(pattern, candidate, b); err != nil {
		return nil, err
	}
	return b, nil
}

func match(pattern, candidate Type, b Bindings) error {
	switch p := pattern.(type) {
	case Generic:
		if p.IsValueParam {
			gv, ok := candidate.(GenericValue)
			if !ok {
				return &MatchError{Reason: fmt.Sprintf("expected a constant value for %s, got %s", p.Name, candidate.String())}
			}
			if prior, ok := b[p.Name]; ok {
				priorVal, ok := prior.(GenericValue)
				if !ok || priorVal.Value != gv.Value {
					return &MatchError{Reason: fmt.Sprintf("conflicting bindings for %s", p.Name), Duplication: true}
				}
				return nil
			}
			b[p.Name] = gv
			return nil
		}
		if prior, ok := b[p.Name]; ok {
			if prior.String() != candidate.String() {
				return &MatchError{Reason: fmt.Sprintf("%s bound to both %s and %s", p.Name, prior, candidate), Duplication: true}
			}
			return nil
		}
		b[p.Name] = candidate
		return nil

	case Pointer:
		c, ok := candidate.(Pointer)
		if !ok {
			return &MatchError{Reason: fmt.Sprintf("expected pointer, got %s", candidate)}
		}
		return match(p.Elem, c.Elem, b)

	case Slice:
		switch c := candidate.(type) {
		case Slice:
			return match(p.Elem, c.Elem, b)
		case Array:
			// implicit decay, spec §4.3: "A slice pattern additionally
			// accepts an array candidate"
			return match(p.Elem, c.Elem, b)
		}
		return &MatchError{Reason: fmt.Sprintf("expected slice (or array), got %s", candidate)}

	case Array:
		c, ok := candidate.(Array)
		if !ok {
			return &MatchError{Reason: fmt.Sprintf("expected array, got %s", candidate)}
		}
		if err := match(p.Elem, c.Elem, b); err != nil {
			return err
		}
		return matchArraySize(p.Size, c.Size, b)

	case Tuple:
		c, ok := candidate.(Tuple)
		if !ok {
			return &MatchError{Reason: fmt.Sprintf("expected tuple, got %s", candidate)}
		}
		if len(p.Elements) != len(c.Elements) {
			return &MatchError{Reason: "tuple arity mismatch"}
		}
		for i := range p.Elements {
			if err := match(p.Elements[i], c.Elements[i], b); err != nil {
				return err
			}
		}
		return nil

	case Structure:
		c, ok := candidate.(Structure)
		if !ok || c.Name != p.Name {
			return &MatchError{Reason: fmt.Sprintf("expected structure %s, got %s", p.Name, candidate)}
		}
		for _, pf := range p.Fields {
			cf, ok := c.FieldType(pf.Name)
			if !ok {
				return &MatchError{Reason: fmt.Sprintf("structure %s missing field %s", p.Name, pf.Name)}
			}
			if err := match(pf.Type, cf, b); err != nil {
				return err
			}
		}
		return nil

	case Variant:
		c, ok := candidate.(Variant)
		if !ok {
			return &MatchError{Reason: fmt.Sprintf("expected variant, got %s", candidate)}
		}
		if len(p.Members) != len(c.Members) {
			return &MatchError{Reason: "variant member-set arity mismatch"}
		}
		for i := range p.Members {
			if err := match(p.Members[i], c.Members[i], b); err != nil {
				return err
			}
		}
		return nil

	case Function:
		c, ok := candidate.(Function)
		if !ok {
			return &MatchError{Reason: fmt.Sprintf("expected function, got %s", candidate)}
		}
		if !p.IsVariadicCompatible(c) {
			return &MatchError{Reason: "function arity mismatch"}
		}
		n := len(p.Params)
		if c.IsVariadic && n > len(c.Params) {
			n = len(c.Params)
		}
		for i := 0; i < n && i < len(c.Params); i++ {
			if err := match(p.Params[i], c.Params[i], b); err != nil {
				return err
			}
		}
		return match(p.Result, c.Result, b)

	case RangeType:
		c, ok := candidate.(RangeType)
		if !ok {
			return &MatchError{Reason: fmt.Sprintf("expected range type, got %s", candidate)}
		}
		return match(p.Base, c.Base, b)

	default:
		// Primitives, Behaviour, Unknown: structural equality by
		// canonical string, no recursion needed.
		if pattern.String() != candidate.String() {
			return &MatchError{Reason: fmt.Sprintf("expected %s, got %s", pattern, candidate)}
		}
		return nil
	}
}

func matchArraySize(p, c ArraySize, b Bindings) error {
	if p.IsConst {
		if !c.IsConst || p.Const != c.Const {
			return &MatchError{Reason: fmt.Sprintf("array size mismatch: expected %d", p.Const)}
		}
		return nil
	}
	// The pattern's size is a generic const-parameter: unify it as a
	// value binding like any other const-generic parameter.
	if c.IsConst {
		return match(Generic{Name: p.ParamRef, IsValueParam: true}, GenericValue{Value: c.Const}, b)
	}
	if p.ParamRef != c.ParamRef {
		return &MatchError{Reason: "array size parameter mismatch"}
	}
	return nil
}

// IsVariadicCompatible reports whether a candidate function signature
// can satisfy a pattern function signature's arity, accounting for the
// pattern possibly being variadic and "absorbing the remaining
// positional arguments" (spec §4.3).
func (f Function) IsVariadicCompatible(candidate Function) bool {
	if f.IsVariadic {
		return len(candidate.Params) >= len(f.Params)-1
	}
	return len(f.Params) == len(candidate.Params)
}

// Apply substitutes a Bindings map (as a Subst) through t, used after a
// successful Match to specialise a generic declaration's body (spec
// §4.4 rule 3).
func (b Bindings) Apply(t Type) Type {
	return t.Apply(Subst(b))
}

// IsTotal reports whether b binds every formal parameter named in
// formals, satisfying Invariant 4 of spec §3: "the parameter-binding
// map is total over the generic's formal parameters."
func (b Bindings) IsTotal(formals []Generic) bool {
	for _, f := range formals {
		if _, ok := b[f.Name]; !ok {
			return false
		}
	}
	return true
}
