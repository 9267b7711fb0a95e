package lightgbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFitByExistingTree_ZeroDecayIdempotence: property #8. With
// refit_decay_rate=0, refitting a freshly grown tree against the same
// gradients/hessians it was grown from must reproduce the same leaf
// outputs (up to floating point tolerance), since the closed-form
// regularised score is exactly what growth already computed.
func TestFitByExistingTree_ZeroDecayIdempotence(t *testing.T) {
	bins := [][]uint32{{0, 0, 0, 0, 1, 1, 1, 1}}
	dataset := newTestDataset(t, bins, []int{2})
	partition := NewRowMajorPartition(dataset)

	params := DefaultTrainingParams()
	params.NumLeaves = 2
	params.MinDataInLeaf = 1
	params.MinSumHessianInLeaf = 0
	params.RefitDecayRate = 0

	grower := NewTreeGrower(dataset, partition, params, true)

	gradients := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	hessians := []float64{1, 1, 1, 1, 1, 1, 1, 1}

	tree, err := grower.Train(gradients, hessians, nil)
	require.NoError(t, err)

	before := make([]float64, tree.NumLeaves())
	for leaf := range before {
		before[leaf] = tree.LeafOutput(leaf)
	}

	grower.FitByExistingTree(tree, gradients, hessians)

	for leaf := range before {
		assert.InDelta(t, before[leaf], tree.LeafOutput(leaf), 1e-9)
	}
}

// TestFitByExistingTree_LeafPredRepartition exercises the leaf_pred
// overload: rows are handed to refitLeaf via an externally supplied
// leaf assignment rather than by replaying the tree's own decisions.
func TestFitByExistingTree_LeafPredRepartition(t *testing.T) {
	bins := [][]uint32{{0, 0, 0, 0, 1, 1, 1, 1}}
	dataset := newTestDataset(t, bins, []int{2})
	partition := NewRowMajorPartition(dataset)

	params := DefaultTrainingParams()
	params.NumLeaves = 2
	params.MinDataInLeaf = 1
	params.MinSumHessianInLeaf = 0
	params.RefitDecayRate = 0

	grower := NewTreeGrower(dataset, partition, params, true)

	gradients := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	hessians := []float64{1, 1, 1, 1, 1, 1, 1, 1}

	tree, err := grower.Train(gradients, hessians, nil)
	require.NoError(t, err)

	// Swap every row to the opposite leaf of what growth assigned.
	leafPred := make([]int32, 8)
	for i := range leafPred {
		leafPred[i] = int32(tree.Predict([]uint32{bins[0][i]}))
	}
	swapped := make([]int32, 8)
	for i, leaf := range leafPred {
		swapped[i] = 1 - leaf
	}

	grower.FitByExistingTreeWithLeafPred(tree, swapped, gradients, hessians)

	// The leaf that used to hold the positive-gradient rows now holds the
	// negative-gradient ones, so its regularised output must have flipped
	// sign relative to the original growth result.
	newOutputForOldLeft := tree.LeafOutput(int(leafPred[0]))
	assert.Greater(t, newOutputForOldLeft, 0.0)
}
