package types

// Compatible implements the compatibility relation of spec §4.2: from is
// compatible with to when their canonical forms are identical or one of
// the documented implicit conversions takes from to to.
//
//   - Identical canonical string ⇒ compatible.
//   - T ⇒ variant{…,T,…} (implicit wrap); the reverse needs `as`.
//   - pointer(D) ⇒ pointer(B) when B is a behaviour D implements (upcast).
//   - array(T,N) ⇒ slice(T); chars/string ⇒ slice(u8).
//   - T ⇄ range<T> (wrap, or unwrap via __value).
//   - Nominal structure/variant: identity only; anonymous tuples:
//     componentwise.
//   - Generics unify only through the matcher; otherwise incompatible
//     with everything but themselves.
func Compatible(reg *ImplementorRegistry, from, to Type) bool {
	if from.String() == to.String() {
		return true
	}

	switch toT := to.(type) {
	case Variant:
		if toT.Contains(from) {
			return true
		}
		// A variant is compatible with a wider variant when every member
		// of `from` is also a member of `to`.
		if fromV, ok := from.(Variant); ok {
			for _, m := range fromV.Members {
				if !toT.Contains(m) {
					return false
				}
			}
			return true
		}
	case Pointer:
		if fromP, ok := from.(Pointer); ok {
			if behav, ok := toT.Elem.(Behaviour); ok && reg != nil {
				if dstruct, ok := fromP.Elem.(Structure); ok {
					return reg.Implements(dstruct.Name, behav.Name)
				}
			}
		}
	case Slice:
		switch fromT := from.(type) {
		case Array:
			return fromT.Elem.String() == toT.Elem.String()
		case Primitive:
			if (fromT.Kind == Chars || fromT.Kind == Str) && toT.Elem.String() == Uint(8).String() {
				return true
			}
		}
	case RangeType:
		return from.String() == toT.Base.String()
	}

	if fromRange, ok := from.(RangeType); ok {
		return fromRange.Base.String() == to.String()
	}

	if fromTuple, ok := from.(Tuple); ok {
		if toTuple, ok := to.(Tuple); ok {
			if len(fromTuple.Elements) != len(toTuple.Elements) {
				return false
			}
			for i := range fromTuple.Elements {
				if !Compatible(reg, fromTuple.Elements[i], toTuple.Elements[i]) {
					return false
				}
			}
			return true
		}
	}

	return false
}

// ImplementorRegistry is the global mapping "type → set of behaviours it
// implements", populated when an `extend` declaration is checked and
// consumed to synthesise vtables and permit implicit upcasts (spec
// §4.2). Owned by a single compilation.Context, not a package global.
type ImplementorRegistry struct {
	implements map[string]map[string]bool
}

// NewImplementorRegistry constructs an empty registry.
func NewImplementorRegistry() *ImplementorRegistry {
	return &ImplementorRegistry{implements: make(map[string]map[string]bool)}
}

// Register records that a type named typeName implements behaviourName,
// called when the checker processes an `extend T: Behaviour { ... }`.
func (r *ImplementorRegistry) Register(typeName, behaviourName string) {
	set, ok := r.implements[typeName]
	if !ok {
		set = make(map[string]bool)
		r.implements[typeName] = set
	}
	set[behaviourName] = true
}

// Implements reports whether typeName implements behaviourName.
func (r *ImplementorRegistry) Implements(typeName, behaviourName string) bool {
	set, ok := r.implements[typeName]
	if !ok {
		return false
	}
	return set[behaviourName]
}

// Behaviours lists every behaviour implemented by typeName, in
// registration order is not guaranteed (map-backed); callers needing a
// stable vtable layout order should sort by name.
func (r *ImplementorRegistry) Behaviours(typeName string) []string {
	set, ok := r.implements[typeName]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	return out
}
