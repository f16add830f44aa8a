package types

import "sync"

// Interner keeps one Type instance per distinct canonical string, so
// that equality can be checked as pointer/key identity rather than deep
// structural comparison (spec §4.2: "a private interning table keyed by
// canonical string keeps one instance per distinct type").
//
// An Interner is owned by a single compilation.Context; it is never a
// package-level global (spec §9 Design Notes).
type Interner struct {
	mu    sync.Mutex
	table map[string]Type
}

// NewInterner constructs an empty interning table.
func NewInterner() *Interner {
	return &Interner{table: make(map[string]Type)}
}

// Intern returns the canonical representative for t: the first Type
// ever interned with this canonical string is returned for every later
// call with a structurally-equal type.
func (in *Interner) Intern(t Type) Type {
	key := t.String()
	in.mu.Lock()
	defer in.mu.Unlock()
	if existing, ok := in.table[key]; ok {
		return existing
	}
	in.table[key] = t
	return t
}

// Lookup finds a previously interned type by its canonical string,
// without inserting anything.
func (in *Interner) Lookup(canonical string) (Type, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	t, ok := in.table[canonical]
	return t, ok
}

// Len reports how many distinct canonical types have been interned.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.table)
}
