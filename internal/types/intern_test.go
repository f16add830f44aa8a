package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyxlang/nyxc/internal/types"
)

func TestInternerReturnsSameInstanceForEqualCanonicalForm(t *testing.T) {
	in := types.NewInterner()
	a := in.Intern(types.Int(32))
	b := in.Intern(types.Int(32))
	assert.Equal(t, a, b)
	assert.Equal(t, 1, in.Len())
}

func TestInternerDistinguishesDifferentCanonicalForms(t *testing.T) {
	in := types.NewInterner()
	in.Intern(types.Int(32))
	in.Intern(types.Int(64))
	assert.Equal(t, 2, in.Len())
}

func TestInternerLookup(t *testing.T) {
	in := types.NewInterner()
	in.Intern(types.TBool)

	found, ok := in.Lookup("bool")
	assert.True(t, ok)
	assert.Equal(t, types.TBool, found)

	_, ok = in.Lookup("nope")
	assert.False(t, ok)
}
