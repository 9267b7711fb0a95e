package lightgbm

// BinType describes how a feature's raw values were discretised.
type BinType int

const (
	// NumericalBin orders bins by increasing feature value.
	NumericalBin BinType = iota
	// CategoricalBin treats each bin as an unordered category id.
	CategoricalBin
)

// MissingType describes how a feature encodes "no value" in its bin space.
type MissingType uint8

const (
	MissingNone MissingType = iota
	MissingZero
	MissingNaN
)

// BinMapper describes one feature's discretisation: how many bins it has,
// whether it is numerical or categorical, and how missing values map onto
// bins. It is owned by the Dataset; the tree learner only reads it.
type BinMapper struct {
	NumBin      int
	Type        BinType
	Missing     MissingType
	UpperBounds []float64 // numerical only: UpperBounds[b] is the max real value mapped to bin b
}

// BinThreshold returns the bin id that a real-valued threshold falls into,
// mirroring the LightGBM convention that a numerical split's threshold is
// stored as the bin whose upper bound is the split point.
func (m *BinMapper) BinThreshold(real float64) uint32 {
	if m.Type == CategoricalBin {
		return uint32(real)
	}
	for b, upper := range m.UpperBounds {
		if real <= upper {
			return uint32(b)
		}
	}
	return uint32(len(m.UpperBounds) - 1)
}

// RealThreshold decodes a bin id back into the real-valued split point used
// by numerical decision nodes.
func (m *BinMapper) RealThreshold(bin uint32) float64 {
	if m.Type == CategoricalBin {
		return float64(bin)
	}
	if int(bin) >= len(m.UpperBounds) {
		return m.UpperBounds[len(m.UpperBounds)-1]
	}
	return m.UpperBounds[bin]
}

// HistogramEntry is the (Σg, Σh) pair accumulated for one bin.
type HistogramEntry struct {
	SumGrad float64
	SumHess float64
	Count   int32
}

// bitsetWords returns how many uint32 words are needed to hold a bitset
// over bin ids in [0, numBits).
func bitsetWords(numBits int) int {
	return (numBits + 31) / 32
}

// setBit sets bit i in a little-endian uint32 bitset.
func setBit(bits []uint32, i int) {
	bits[i/32] |= 1 << uint(i%32)
}

// testBit reports whether bit i is set in a little-endian uint32 bitset.
func testBit(bits []uint32, i int) bool {
	if i/32 >= len(bits) {
		return false
	}
	return bits[i/32]&(1<<uint(i%32)) != 0
}
