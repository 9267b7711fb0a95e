package lightgbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowMajorPartition_InitAssignsAllRowsToRoot(t *testing.T) {
	dataset := newTestDataset(t, [][]uint32{{0, 0, 1, 1}}, []int{2})
	p := NewRowMajorPartition(dataset)

	assert.EqualValues(t, 4, p.LeafCount(0))
	assert.ElementsMatch(t, []int32{0, 1, 2, 3}, p.GetIndexOnLeaf(0))
}

func TestRowMajorPartition_SplitRoutesByThresholdBin(t *testing.T) {
	dataset := newTestDataset(t, [][]uint32{{0, 1, 0, 1}}, []int{2})
	p := NewRowMajorPartition(dataset)

	left, right := p.Split(0, 0, 0, false, 1)

	assert.EqualValues(t, 2, left)
	assert.EqualValues(t, 2, right)
	assert.ElementsMatch(t, []int32{0, 2}, p.GetIndexOnLeaf(0))
	assert.ElementsMatch(t, []int32{1, 3}, p.GetIndexOnLeaf(1))
}

func TestRowMajorPartition_SplitCategoricalRoutesByBitset(t *testing.T) {
	dataset := newTestDataset(t, [][]uint32{{0, 1, 2, 3}}, []int{4})
	p := NewRowMajorPartition(dataset)
	dataset.mappers[0].Type = CategoricalBin

	bits := make([]uint32, bitsetWords(4))
	setBit(bits, 0)
	setBit(bits, 2)

	left, right := p.SplitCategorical(0, 0, bits, false, 1)

	assert.EqualValues(t, 2, left)
	assert.EqualValues(t, 2, right)
	assert.ElementsMatch(t, []int32{0, 2}, p.GetIndexOnLeaf(0))
	assert.ElementsMatch(t, []int32{1, 3}, p.GetIndexOnLeaf(1))
}

func TestRowMajorPartition_SetIndexOnLeafGrowsAndOverwrites(t *testing.T) {
	dataset := newTestDataset(t, [][]uint32{{0, 0, 1, 1}}, []int{2})
	p := NewRowMajorPartition(dataset)

	p.SetIndexOnLeaf(3, []int32{7, 8})

	require.Len(t, p.leafRows, 4)
	assert.ElementsMatch(t, []int32{7, 8}, p.GetIndexOnLeaf(3))
}

func TestRowMajorPartition_MissingRowsFollowDefaultDirection(t *testing.T) {
	dataset := newTestDataset(t, [][]uint32{{0, 1, 2}}, []int{3})
	dataset.mappers[0].Missing = MissingZero
	p := NewRowMajorPartition(dataset)

	left, right := p.Split(0, 0, 1, true, 1)

	// Row 0 is the missing bin (bin==0 under MissingZero) and defaultLeft
	// is true, so it must route left regardless of the threshold test.
	assert.Contains(t, p.GetIndexOnLeaf(0), int32(0))
	assert.EqualValues(t, left+right, 3)
}
