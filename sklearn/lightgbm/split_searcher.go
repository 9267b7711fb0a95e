package lightgbm

import (
	"math/rand"
	"runtime"
	"sync"

	scigoErrors "github.com/scigo-ml/leafwise/pkg/errors"
)

// sampleWithoutReplacement returns k distinct values from [0, n) via a
// partial Fisher-Yates shuffle.
func sampleWithoutReplacement(n, k int, rng *rand.Rand) []int {
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}

// sampleTreeLevelFeatures draws the tree-wide feature subset used when
// feature_fraction < 1, returning both the resulting inner-index mask and
// the raw sampled inner-index list (used_feature_indices_ in the source).
func (g *TreeGrower) sampleTreeLevelFeatures() ([]bool, []int) {
	numSample := int(float64(g.numFeatures) * g.params.FeatureFraction)
	if numSample < 1 {
		numSample = 1
	}
	sampled := sampleWithoutReplacement(len(g.validFeatureIndices), numSample, g.nodeRNG)

	mask := make([]bool, g.numFeatures)
	used := make([]int, len(sampled))
	for i, pos := range sampled {
		inner := g.validFeatureIndices[pos]
		used[i] = inner
		mask[inner] = true
	}
	return mask, used
}

// getUsedFeatures returns the per-node feature-usage mask. When isTreeLevel
// is true this reproduces the tree-level sampling branch; otherwise it
// reproduces the three node-level branches exactly, including the
// documented double-indirection quirk of the third branch: it samples
// positions into usedFeatureIndices, and then re-uses each resulting
// *value* (itself already an inner feature index) as a second position
// into validFeatureIndices, rather than using it directly. This is
// replicated deliberately, not "fixed" — see the source's own behavior.
func (g *TreeGrower) getUsedFeatures(isTreeLevel bool) []bool {
	if isTreeLevel {
		mask, used := g.sampleTreeLevelFeatures()
		g.usedFeatureIndices = used
		return mask
	}

	if g.params.FeatureFractionByNode >= 1.0 {
		if g.treeFeatureUsed != nil {
			return append([]bool(nil), g.treeFeatureUsed...)
		}
		return allTrue(g.numFeatures)
	}

	numSample := int(float64(g.numFeatures) * g.params.FeatureFractionByNode)
	if numSample < 1 {
		numSample = 1
	}

	mask := make([]bool, g.numFeatures)

	if len(g.usedFeatureIndices) == 0 {
		sampled := sampleWithoutReplacement(len(g.validFeatureIndices), numSample, g.nodeRNG)
		for _, pos := range sampled {
			mask[g.validFeatureIndices[pos]] = true
		}
		return mask
	}

	sampledPositions := sampleWithoutReplacement(len(g.usedFeatureIndices), numSample, g.nodeRNG)
	for _, sp := range sampledPositions {
		innerAsPosition := g.usedFeatureIndices[sp]
		real := g.validFeatureIndices[innerAsPosition]
		mask[real] = true
	}
	return mask
}

// findBestSplits runs the per-feature parallel reduction for the smaller
// leaf (and the larger leaf, unless it is unused), storing the winners
// into bestSplitPerLeaf. Per §5/§7's WorkerFailure contract, the first
// failure raised by either leaf's fork-join reduction is returned; the two
// reductions run one after the other, so a failure in the smaller leaf's
// reduction means the larger leaf's is never started.
func (g *TreeGrower) findBestSplits(gradients, hessians []float64) error {
	useSubtract := g.parentReused && g.larger.IsValid()

	smallerUsed := g.getUsedFeatures(false)
	var largerUsed []bool
	if g.larger.IsValid() {
		largerUsed = g.getUsedFeatures(false)
	}

	if useSubtract {
		for inner, u := range smallerUsed {
			if u && !g.largerBank.IsSplittable(inner) {
				smallerUsed[inner] = false
				if largerUsed != nil {
					largerUsed[inner] = false
				}
			}
		}
	}

	g.constructLeafHistograms(g.smaller, g.smallerBank, smallerUsed, gradients, hessians)

	if g.larger.IsValid() {
		if useSubtract {
			g.subtractHistograms(g.largerBank, g.smallerBank, largerUsed)
		} else {
			g.constructLeafHistograms(g.larger, g.largerBank, largerUsed, gradients, hessians)
		}
	}

	smallerBest, err := g.computeBestSplitForLeaf(g.smaller, g.smallerBank, smallerUsed)
	if err != nil {
		return err
	}
	g.bestSplitPerLeaf[g.smaller.LeafID()] = smallerBest

	if g.larger.IsValid() {
		largerBest, err := g.computeBestSplitForLeaf(g.larger, g.largerBank, largerUsed)
		if err != nil {
			return err
		}
		g.bestSplitPerLeaf[g.larger.LeafID()] = largerBest
	}

	return nil
}

func (g *TreeGrower) leafRows(ls *LeafSplits) []int32 {
	if idx := ls.Indices(); idx != nil {
		return idx
	}
	rows := make([]int32, g.numData)
	for i := range rows {
		rows[i] = int32(i)
	}
	return rows
}

func (g *TreeGrower) constructLeafHistograms(ls *LeafSplits, bank *histogramBank, used []bool, gradients, hessians []float64) {
	rows := g.leafRows(ls)
	out := bank.entries
	g.dataset.ConstructHistograms(used, rows, gradients, hessians, out)
	for inner, u := range used {
		if !u {
			continue
		}
		mapper := g.dataset.FeatureBinMapper(inner)
		if mapper.Missing != MissingNone {
			g.dataset.FixHistogram(inner, ls.SumGradients(), ls.SumHessians(), out[inner])
		}
	}
}

func (g *TreeGrower) subtractHistograms(larger *histogramBank, smaller *histogramBank, used []bool) {
	for inner, u := range used {
		if !u {
			continue
		}
		l := larger.entries[inner]
		s := smaller.entries[inner]
		for i := range l {
			l[i].SumGrad -= s[i].SumGrad
			l[i].SumHess -= s[i].SumHess
			l[i].Count -= s[i].Count
		}
	}
}

// computeBestSplitForLeaf runs the parallel-over-features reduction
// described in §4.5/§5: a fork-join loop writing only to per-worker
// slots, reduced deterministically by the SplitInfo.better tie-break.
// Each worker's iteration is guarded by scigoErrors.SafeExecute so a panic
// inside computeBestSplitForFeature (e.g. a caller-supplied Dataset
// returning an out-of-range bin) is captured rather than crashing the
// process; per §5/§7, the first worker failure wins the race and is
// rethrown after join, with every worker's partial per-feature progress
// discarded.
func (g *TreeGrower) computeBestSplitForLeaf(ls *LeafSplits, bank *histogramBank, used []bool) (SplitInfo, error) {
	constraint := g.constraints.Get(ls.LeafID())

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > g.numFeatures {
		numWorkers = g.numFeatures
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	perWorkerBest := make([]SplitInfo, numWorkers)
	for i := range perWorkerBest {
		perWorkerBest[i] = invalidSplit()
	}

	work := make(chan int, g.numFeatures)
	for inner := 0; inner < g.numFeatures; inner++ {
		if used[inner] {
			work <- inner
		}
	}
	close(work)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			err := scigoErrors.SafeExecute("computeBestSplitForFeature", func() error {
				for inner := range work {
					cand := g.computeBestSplitForFeature(ls, bank, inner, constraint)
					if cand.better(perWorkerBest[worker]) {
						perWorkerBest[worker] = cand
					}
				}
				return nil
			})
			if err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return invalidSplit(), scigoErrors.Wrap(firstErr, "computeBestSplitForLeaf: worker failed")
	}

	best := invalidSplit()
	for _, cand := range perWorkerBest {
		if cand.better(best) {
			best = cand
		}
	}
	return best, nil
}

// computeBestSplitForFeature evaluates one feature's histogram for leaf,
// respecting the parent-non-splittable propagation rule: if the feature
// couldn't split the parent it can't split a subset of the parent's rows
// either. A feature already marked non-splittable on this leaf's bank is
// skipped; one that yields no positive gain here is marked on this bank,
// and findBestSplits leaves it out of both children's searches when the
// bank is later reused as their parent.
func (g *TreeGrower) computeBestSplitForFeature(ls *LeafSplits, bank *histogramBank, inner int, constraint ConstraintEntry) SplitInfo {
	if !bank.IsSplittable(inner) {
		return invalidSplit()
	}

	mapper := g.dataset.FeatureBinMapper(inner)
	real := g.dataset.RealFeatureIndex(inner)
	view := NewFeatureHistogramView(inner, real, mapper, bank.FeatureEntries(inner), g.reg, g.params)

	split := view.FindBestThreshold(ls.SumGradients(), ls.SumHessians(), ls.NumData(), constraint)
	if split.Gain <= 0 {
		bank.SetSplittable(inner, false)
	}
	return split
}
