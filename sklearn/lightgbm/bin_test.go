package lightgbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinMapper_NumericalRoundTrip(t *testing.T) {
	m := &BinMapper{
		NumBin:      4,
		Type:        NumericalBin,
		Missing:     MissingNone,
		UpperBounds: []float64{1.0, 2.0, 3.0, 4.0},
	}

	assert.EqualValues(t, 0, m.BinThreshold(0.5))
	assert.EqualValues(t, 0, m.BinThreshold(1.0))
	assert.EqualValues(t, 1, m.BinThreshold(1.5))
	assert.EqualValues(t, 3, m.BinThreshold(100.0), "values past the last upper bound clamp to the top bin")

	assert.Equal(t, 1.0, m.RealThreshold(0))
	assert.Equal(t, 4.0, m.RealThreshold(3))
	assert.Equal(t, 4.0, m.RealThreshold(99), "an out-of-range bin id clamps to the top bound")
}

func TestBinMapper_Categorical(t *testing.T) {
	m := &BinMapper{NumBin: 3, Type: CategoricalBin}
	assert.EqualValues(t, 2, m.BinThreshold(2.0))
	assert.Equal(t, 2.0, m.RealThreshold(2))
}

func TestBitset_SetAndTest(t *testing.T) {
	bits := make([]uint32, bitsetWords(40))
	assert.Len(t, bits, 2)

	setBit(bits, 5)
	setBit(bits, 33)

	assert.True(t, testBit(bits, 5))
	assert.True(t, testBit(bits, 33))
	assert.False(t, testBit(bits, 6))
	assert.False(t, testBit(bits, 100), "a bit past the bitset's word count reports unset, not a panic")
}
