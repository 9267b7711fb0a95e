package lightgbm

import (
	"runtime"
	"sync"

	scigoErrors "github.com/scigo-ml/leafwise/pkg/errors"
)

// forEachLeafBounded runs fn over every leaf in [0, numLeaves) on a
// GOMAXPROCS-capped worker pool draining a channel of leaf indices, the
// same fork-join shape split_searcher.go's computeBestSplitForLeaf uses
// for its per-feature reduction, rather than one goroutine per leaf.
//
// Each worker's whole loop runs under scigoErrors.SafeExecute; per §5/§7's
// WorkerFailure contract, the first captured panic or returned error wins
// the race and is rethrown to the caller once every worker has joined.
// The failing worker stops draining leaves; the other workers run to
// completion, and outputs already written to the tree are kept.
func forEachLeafBounded(numLeaves int, fn func(leaf int) error) error {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > numLeaves {
		numWorkers = numLeaves
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	work := make(chan int, numLeaves)
	for leaf := 0; leaf < numLeaves; leaf++ {
		work <- leaf
	}
	close(work)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := scigoErrors.SafeExecute("forEachLeafBounded", func() error {
				for leaf := range work {
					if err := fn(leaf); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return scigoErrors.Wrap(firstErr, "forEachLeafBounded: worker failed")
	}
	return nil
}

// FitByExistingTree re-scores every leaf of tree from the current gradients
// and hessians, without changing the tree's shape, per §4.9. Row membership
// per leaf is read from partition as it stands; callers that need to
// re-partition rows against leaf_pred first should use
// FitByExistingTreeWithLeafPred.
func (g *TreeGrower) FitByExistingTree(tree *Tree, gradients, hessians []float64) (*Tree, error) {
	numLeaves := tree.NumLeaves()
	err := forEachLeafBounded(numLeaves, func(leaf int) error {
		g.refitLeaf(tree, leaf, gradients, hessians)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// FitByExistingTreeWithLeafPred first re-partitions every row into the leaf
// named by leafPred[row], then re-scores as FitByExistingTree does. leafPred
// must assign every row to a leaf already present in tree.
func (g *TreeGrower) FitByExistingTreeWithLeafPred(tree *Tree, leafPred []int32, gradients, hessians []float64) (*Tree, error) {
	numLeaves := tree.NumLeaves()
	g.partition.ResetLeaves(numLeaves)
	rowsByLeaf := make([][]int32, numLeaves)
	for row, leaf := range leafPred {
		rowsByLeaf[leaf] = append(rowsByLeaf[leaf], int32(row))
	}
	for leaf, rows := range rowsByLeaf {
		g.partition.SetIndexOnLeaf(leaf, rows)
	}
	return g.FitByExistingTree(tree, gradients, hessians)
}

// refitLeaf recomputes one leaf's (Σg, Σh) over its current row set and
// blends the regularised output with the leaf's prior value by
// refit_decay_rate.
func (g *TreeGrower) refitLeaf(tree *Tree, leaf int, gradients, hessians []float64) {
	rows := g.partition.GetIndexOnLeaf(leaf)
	var sumGrad, sumHess float64
	for _, r := range rows {
		sumGrad += gradients[r]
		sumHess += hessians[r]
	}

	output := clampDelta(g.reg.ApplyLeafRegularization(sumGrad, sumHess), g.params.MaxDeltaStep)

	decay := g.params.RefitDecayRate
	old := tree.LeafOutput(leaf)
	newOutput := decay*old + (1-decay)*output*tree.Shrinkage()

	tree.SetLeafOutput(leaf, newOutput)
}

// RenewTreeOutput re-estimates tree's leaf outputs for objectives that need
// a post-hoc pass beyond the raw regularised score (e.g. L1, quantile),
// per §6's single-machine branch of RenewTreeOutput.
func (g *TreeGrower) RenewTreeOutput(tree *Tree, obj ObjectiveFunction, residual func(row int) float64) error {
	if !obj.IsRenewTreeOutput() {
		return nil
	}
	numLeaves := tree.NumLeaves()
	return forEachLeafBounded(numLeaves, func(leaf int) error {
		rows := g.partition.GetIndexOnLeaf(leaf)
		index := make([]int, len(rows))
		for i, r := range rows {
			index[i] = int(r)
		}
		newOutput := obj.RenewTreeOutput(tree.LeafOutput(leaf), residual, index)
		tree.SetLeafOutput(leaf, newOutput)
		return nil
	})
}
