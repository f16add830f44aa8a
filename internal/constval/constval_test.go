package constval_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/types"
)

func TestEqualAcrossKindsIsFalse(t *testing.T) {
	b := constval.Bool(true, types.TBool)
	i := constval.Int(big.NewInt(1), types.Int(32))
	assert.False(t, constval.Equal(b, i))
}

func TestEqualInt(t *testing.T) {
	a := constval.Int(big.NewInt(42), types.Int(32))
	b := constval.Int(big.NewInt(42), types.Int(32))
	c := constval.Int(big.NewInt(7), types.Int(32))
	assert.True(t, constval.Equal(a, b))
	assert.False(t, constval.Equal(a, c))
}

func TestEqualSequenceIsComponentwise(t *testing.T) {
	a := constval.Sequence([]constval.Value{
		constval.Int(big.NewInt(1), types.Int(32)),
		constval.Bool(true, types.TBool),
	}, types.Tuple{Elements: []types.Type{types.Int(32), types.TBool}})
	b := constval.Sequence([]constval.Value{
		constval.Int(big.NewInt(1), types.Int(32)),
		constval.Bool(true, types.TBool),
	}, types.Tuple{Elements: []types.Type{types.Int(32), types.TBool}})
	c := constval.Sequence([]constval.Value{
		constval.Int(big.NewInt(1), types.Int(32)),
		constval.Bool(false, types.TBool),
	}, types.Tuple{Elements: []types.Type{types.Int(32), types.TBool}})
	assert.True(t, constval.Equal(a, b))
	assert.False(t, constval.Equal(a, c))
}

func TestCompareOrdersInts(t *testing.T) {
	a := constval.Int(big.NewInt(1), types.Int(32))
	b := constval.Int(big.NewInt(2), types.Int(32))
	assert.Equal(t, -1, constval.Compare(a, b))
	assert.Equal(t, 1, constval.Compare(b, a))
	assert.Equal(t, 0, constval.Compare(a, a))
}

func TestComparePanicsOnSequence(t *testing.T) {
	seq := constval.Sequence(nil, types.Tuple{})
	assert.Panics(t, func() { constval.Compare(seq, seq) })
}

func TestAsIndex(t *testing.T) {
	v := constval.Int(big.NewInt(3), types.Int(32))
	idx, ok := v.AsIndex()
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = constval.Bool(true, types.TBool).AsIndex()
	assert.False(t, ok)
}
