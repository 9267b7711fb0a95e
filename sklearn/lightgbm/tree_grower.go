package lightgbm

import (
	"log/slog"
	"math"
	"math/rand"

	scigoErrors "github.com/scigo-ml/leafwise/pkg/errors"
)

// TreeGrower is the serial histogram-based leaf-wise learner: one call to
// Train grows one tree, up to num_leaves leaves, by repeatedly finding the
// best admissible split among all live leaves and applying it.
type TreeGrower struct {
	dataset   Dataset
	partition DataPartition
	params    TrainingParams
	reg       *RegularizationStrategy
	logger    *slog.Logger

	isConstantHessian bool
	numData           int
	numFeatures       int
	validFeatureIndices []int // inner indices; identity unless dataset filters features

	numBinsPerFeature map[int]int
	pool              *HistogramPool
	constraints       *LeafConstraints
	bestSplitPerLeaf  []SplitInfo

	smaller *LeafSplits
	larger  *LeafSplits

	// hist banks currently checked out for the pending split step.
	smallerBank *histogramBank
	largerBank  *histogramBank
	parentReused bool

	treeFeatureUsed    []bool
	usedFeatureIndices []int // tree-level sampled inner indices

	nodeRNG *rand.Rand

	curDepth              int
	abortedLastForceSplit bool
}

// NewTreeGrower constructs and Inits a grower over dataset, using
// partition as its row router.
func NewTreeGrower(dataset Dataset, partition DataPartition, params TrainingParams, isConstantHessian bool) *TreeGrower {
	g := &TreeGrower{logger: slog.Default().With("component", "lightgbm.tree_grower")}
	g.Init(dataset, partition, params, isConstantHessian)
	return g
}

// Init binds the grower to a dataset, partition, and configuration,
// allocating the histogram pool and per-leaf state.
func (g *TreeGrower) Init(dataset Dataset, partition DataPartition, params TrainingParams, isConstantHessian bool) {
	g.dataset = dataset
	g.partition = partition
	g.params = params
	g.reg = NewRegularizationStrategy(params)
	g.isConstantHessian = isConstantHessian
	g.numData = dataset.NumData()
	g.numFeatures = dataset.NumFeatures()

	g.validFeatureIndices = make([]int, g.numFeatures)
	g.numBinsPerFeature = make(map[int]int, g.numFeatures)
	for inner := 0; inner < g.numFeatures; inner++ {
		g.validFeatureIndices[inner] = inner
		g.numBinsPerFeature[inner] = dataset.FeatureNumBin(inner)
	}

	numLeaves := params.NumLeaves
	if numLeaves < 2 {
		numLeaves = 2
	}
	g.pool = NewHistogramPool(numLeaves, params.HistogramPoolSize, g.numBinsPerFeature)
	g.constraints = NewLeafConstraints(numLeaves)
	g.bestSplitPerLeaf = make([]SplitInfo, numLeaves)

	g.smaller = NewLeafSplits()
	g.larger = NewLeafSplits()

	seed := params.FeatureFractionSeed
	if seed == 0 {
		seed = int64(params.Seed)
	}
	g.nodeRNG = rand.New(rand.NewSource(seed))
}

// ResetTrainingData rebinds the grower to a new dataset/partition pair
// with the same feature set; num_features must not have changed.
func (g *TreeGrower) ResetTrainingData(dataset Dataset, partition DataPartition) error {
	if dataset.NumFeatures() != g.numFeatures {
		return scigoErrors.NewValidationError("dataset", "num_features changed between Init and ResetTrainingData", dataset.NumFeatures())
	}
	g.dataset = dataset
	g.partition = partition
	g.numData = dataset.NumData()
	return nil
}

// ResetConfig applies a new configuration. If num_leaves changed, the best
// split vector, constraints, and histogram pool are resized; otherwise
// only regularisation parameters are refreshed.
func (g *TreeGrower) ResetConfig(params TrainingParams) {
	if params.NumLeaves != g.params.NumLeaves {
		numLeaves := params.NumLeaves
		if numLeaves < 2 {
			numLeaves = 2
		}
		g.bestSplitPerLeaf = make([]SplitInfo, numLeaves)
		g.constraints = NewLeafConstraints(numLeaves)
		g.pool.DynamicChangeSize(numLeaves, params.HistogramPoolSize)
	}
	g.params = params
	g.reg = NewRegularizationStrategy(params)
}

// BeforeTrain resets per-tree state ahead of a fresh Train call.
func (g *TreeGrower) BeforeTrain() {
	g.pool.ResetMap()

	if g.params.FeatureFraction < 1.0 {
		g.treeFeatureUsed, g.usedFeatureIndices = g.sampleTreeLevelFeatures()
	} else {
		g.treeFeatureUsed = allTrue(g.numFeatures)
		g.usedFeatureIndices = nil
	}

	g.dataset.InitTrain(g.treeFeatureUsed)
	g.partition.Init()
	g.constraints.Reset()

	for i := range g.bestSplitPerLeaf {
		g.bestSplitPerLeaf[i] = invalidSplit()
	}

	g.smaller.Reset()
	g.larger.Reset()
	g.curDepth = 0
	g.abortedLastForceSplit = false
}

// Train grows one tree from gradients/hessians. forcedSplitJSON may be nil.
func (g *TreeGrower) Train(gradients, hessians []float64, forcedSplitJSON []byte) (*Tree, error) {
	g.BeforeTrain()

	tree := NewTree(1.0)

	if len(g.partition.GetIndexOnLeaf(0)) == g.numData {
		g.smaller.InitRoot(gradients, hessians)
	} else {
		g.smaller.InitBaggedRoot(g.partition, gradients, hessians)
	}
	g.larger.Reset()

	initSplits := 0
	if len(forcedSplitJSON) > 0 {
		n, err := g.forceSplits(tree, forcedSplitJSON, gradients, hessians)
		if err != nil {
			return nil, err
		}
		initSplits = n
	}

	numLeaves := g.params.NumLeaves
	if numLeaves < 2 {
		numLeaves = 2
	}

	leftLeaf, rightLeaf := 0, -1
	if initSplits > 0 {
		// The left child keeps the parent's leaf id, which is the lower one.
		leftLeaf, rightLeaf = g.smaller.LeafID(), g.larger.LeafID()
		if leftLeaf > rightLeaf {
			leftLeaf, rightLeaf = rightLeaf, leftLeaf
		}
	}

	skipBeforeFind := g.abortedLastForceSplit
	for split := initSplits; split < numLeaves-1; split++ {
		if !skipBeforeFind {
			ok := g.beforeFindBestSplit(tree, leftLeaf, rightLeaf)
			if ok {
				if err := g.findBestSplits(gradients, hessians); err != nil {
					return nil, err
				}
			}
		}
		skipBeforeFind = false

		bestLeaf := argmaxGain(g.bestSplitPerLeaf)
		if bestLeaf < 0 || g.bestSplitPerLeaf[bestLeaf].Gain <= 0 {
			g.logger.Warn("no further splits with positive gain", "leaves", tree.NumLeaves())
			break
		}

		var err error
		leftLeaf, rightLeaf, err = g.split(tree, bestLeaf)
		if err != nil {
			return nil, err
		}
	}

	return tree, nil
}

// beforeFindBestSplit prepares smaller/larger LeafSplits and histogram
// bank bindings for one greedy-loop iteration, per §4.6 step 3.
func (g *TreeGrower) beforeFindBestSplit(tree *Tree, leftLeaf, rightLeaf int) bool {
	if leftLeaf < 0 {
		return false
	}

	if g.params.MaxDepth > 0 {
		leftDepth := tree.LeafDepth(leftLeaf)
		rightOK := rightLeaf < 0
		rightDepth := 0
		if !rightOK {
			rightDepth = tree.LeafDepth(rightLeaf)
		}
		if leftDepth >= g.params.MaxDepth && (rightOK || rightDepth >= g.params.MaxDepth) {
			g.bestSplitPerLeaf[leftLeaf] = invalidSplit()
			if rightLeaf >= 0 {
				g.bestSplitPerLeaf[rightLeaf] = invalidSplit()
			}
			return false
		}
	}

	leftCount := g.partition.LeafCount(leftLeaf)
	if rightLeaf >= 0 {
		rightCount := g.partition.LeafCount(rightLeaf)
		minTwice := int32(2 * g.params.MinDataInLeaf)
		if leftCount < minTwice && rightCount < minTwice {
			g.bestSplitPerLeaf[leftLeaf] = invalidSplit()
			g.bestSplitPerLeaf[rightLeaf] = invalidSplit()
			return false
		}
	}

	if rightLeaf < 0 {
		bank, reused := g.pool.Get(leftLeaf)
		g.smallerBank = bank
		g.largerBank = nil
		g.parentReused = reused
		return true
	}

	leftCnt := g.partition.LeafCount(leftLeaf)
	rightCnt := g.partition.LeafCount(rightLeaf)
	if leftCnt < rightCnt {
		bank, reused := g.pool.Get(leftLeaf)
		g.pool.Move(leftLeaf, rightLeaf)
		g.largerBank = bank
		g.parentReused = reused
		smallerBank, _ := g.pool.Get(leftLeaf)
		g.smallerBank = smallerBank
	} else {
		bank, reused := g.pool.Get(leftLeaf)
		g.largerBank = bank
		g.parentReused = reused
		smallerBank, _ := g.pool.Get(rightLeaf)
		g.smallerBank = smallerBank
	}
	return true
}

// split commits the best split found for leaf, per §4.8.
func (g *TreeGrower) split(tree *Tree, leaf int) (int, int, error) {
	info := g.bestSplitPerLeaf[leaf]
	nextLeafID := tree.NextLeafId()

	var leftCount, rightCount int32
	if info.IsCategorical {
		leftCount, rightCount = g.partition.SplitCategorical(leaf, info.Inner, info.CatThreshold, info.DefaultLeft, nextLeafID)
	} else {
		leftCount, rightCount = g.partition.Split(leaf, info.Inner, info.Threshold, info.DefaultLeft, nextLeafID)
	}
	info.LeftCount = leftCount
	info.RightCount = rightCount

	var nodeID, leftLeaf, rightLeaf int
	if info.IsCategorical {
		nodeID, leftLeaf, rightLeaf = tree.SplitCategorical(leaf, info.Feature, info.CatThreshold, info.DefaultLeft, info.Gain, info.MonotoneType, info.LeftOutput, info.RightOutput, leftCount, rightCount)
	} else {
		real := g.dataset.RealThreshold(info.Inner, info.Threshold)
		nodeID, leftLeaf, rightLeaf = tree.Split(leaf, info.Feature, real, info.Threshold, info.DefaultLeft, info.Gain, info.MonotoneType, info.LeftOutput, info.RightOutput, leftCount, rightCount)
	}
	_ = nodeID

	smallerCount := leftCount
	if rightCount < smallerCount {
		smallerCount = rightCount
	}
	if smallerCount <= 0 {
		return 0, 0, scigoErrors.NewValidationError("split", "smaller child empty after partition split", leaf)
	}

	if leftCount < rightCount {
		g.smaller.InitFromSplit(leftLeaf, g.partition, info.LeftSumGrad, info.LeftSumHess)
		g.larger.InitFromSplit(rightLeaf, g.partition, info.RightSumGrad, info.RightSumHess)
	} else {
		g.smaller.InitFromSplit(rightLeaf, g.partition, info.RightSumGrad, info.RightSumHess)
		g.larger.InitFromSplit(leftLeaf, g.partition, info.LeftSumGrad, info.LeftSumHess)
	}

	g.constraints.UpdateConstraints(leaf, leftLeaf, rightLeaf, info.MonotoneType, info.LeftOutput, info.RightOutput)

	g.curDepth = tree.LeafDepth(leftLeaf)
	if d := tree.LeafDepth(rightLeaf); d > g.curDepth {
		g.curDepth = d
	}

	return leftLeaf, rightLeaf, nil
}

func argmaxGain(splits []SplitInfo) int {
	best := -1
	bestGain := math.Inf(-1)
	for i, s := range splits {
		if s.Gain > bestGain {
			bestGain = s.Gain
			best = i
		}
	}
	return best
}

func allTrue(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}
