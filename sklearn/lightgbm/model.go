package lightgbm

// Node decision-type bit flags, mirroring LightGBM's packed uint8 encoding.
const (
	decisionTypeCategorical uint8 = 1 << 0
	decisionTypeDefaultLeft uint8 = 1 << 1
)

// Tree is the mutable structure a TreeGrower builds one split at a time.
// Internal (split) nodes are addressed by a dense index starting at 0 for
// the root; leaves are addressed by a separate dense leaf index also
// starting at 0 for the (single) root leaf. leftChild/rightChild store a
// leaf reference as the negative-encoded value ^leafID (bitwise complement,
// so leaf 0 encodes as -1, leaf 1 as -2, ...), the same convention
// LightGBM's C++ tree uses to distinguish an internal-node child from a
// leaf child without a separate tag bit.
type Tree struct {
	leftChild    []int32
	rightChild   []int32
	splitFeature []int32
	threshold    []float64
	thresholdBin []uint32
	decisionType []uint8
	splitGain    []float64
	monotoneType []int8

	catBoundaries []int32
	catBitsLen    []int32
	catThreshold  []uint32

	leafValue  []float64
	leafCount  []int32
	leafDepth  []int32
	leafParent []int32

	numLeaves int
	shrinkage float64
}

// NewTree creates a tree with a single root leaf (leaf 0, depth 0, no parent).
func NewTree(shrinkage float64) *Tree {
	return &Tree{
		leafValue:  []float64{0.0},
		leafCount:  []int32{0},
		leafDepth:  []int32{0},
		leafParent: []int32{-1},
		numLeaves:  1,
		shrinkage:  shrinkage,
	}
}

// NumLeaves returns the current number of leaves.
func (t *Tree) NumLeaves() int { return t.numLeaves }

// NumSplits returns the number of internal (decision) nodes, always
// NumLeaves()-1 for a tree grown solely through Split/SplitCategorical.
func (t *Tree) NumSplits() int { return len(t.leftChild) }

// LeafDepth returns the depth of a leaf, root leaf being depth 0.
func (t *Tree) LeafDepth(leaf int) int { return int(t.leafDepth[leaf]) }

// LeafOutput returns the current predicted output of a leaf.
func (t *Tree) LeafOutput(leaf int) float64 { return t.leafValue[leaf] }

// SetLeafOutput overwrites a leaf's predicted output.
func (t *Tree) SetLeafOutput(leaf int, value float64) { t.leafValue[leaf] = value }

// LeafCount returns the row count recorded for a leaf at split time.
func (t *Tree) LeafCount(leaf int) int32 { return t.leafCount[leaf] }

// Shrinkage returns the learning-rate multiplier applied to this tree's
// leaf outputs at prediction time.
func (t *Tree) Shrinkage() float64 { return t.shrinkage }

// SetShrinkage rebinds the per-tree learning rate applied by PredictValue,
// used by a boosting driver once a tree has been grown at shrinkage 1.0.
func (t *Tree) SetShrinkage(s float64) { t.shrinkage = s }

// NextLeafId returns the leaf index that the next call to Split or
// SplitCategorical will assign to the new right-hand leaf.
func (t *Tree) NextLeafId() int { return t.numLeaves }

func encodeLeafChild(leaf int) int32 { return int32(^leaf) }

// Split turns leaf into a numerical decision node and allocates a new
// leaf for the right-hand side. leaf itself is reused as the left-hand
// leaf id, matching LightGBM's in-place convention. It returns the new
// internal node id and the (left, right) leaf ids.
func (t *Tree) Split(
	leaf int,
	feature int,
	threshold float64,
	thresholdBin uint32,
	defaultLeft bool,
	gain float64,
	monotoneType int8,
	leftOutput, rightOutput float64,
	leftCount, rightCount int32,
) (nodeID, leftLeaf, rightLeaf int) {
	nodeID = len(t.leftChild)
	rightLeaf = t.numLeaves

	var decision uint8
	if defaultLeft {
		decision |= decisionTypeDefaultLeft
	}

	parent := t.leafParent[leaf]
	t.leftChild = append(t.leftChild, encodeLeafChild(leaf))
	t.rightChild = append(t.rightChild, encodeLeafChild(rightLeaf))
	t.splitFeature = append(t.splitFeature, int32(feature))
	t.threshold = append(t.threshold, threshold)
	t.thresholdBin = append(t.thresholdBin, thresholdBin)
	t.decisionType = append(t.decisionType, decision)
	t.splitGain = append(t.splitGain, gain)
	t.monotoneType = append(t.monotoneType, monotoneType)
	t.catBoundaries = append(t.catBoundaries, -1)
	t.catBitsLen = append(t.catBitsLen, 0)

	t.fixupParentPointer(parent, leaf, nodeID)

	depth := t.leafDepth[leaf] + 1
	t.leafValue[leaf] = leftOutput
	t.leafCount[leaf] = leftCount
	t.leafDepth[leaf] = depth
	t.leafParent[leaf] = int32(nodeID)

	t.leafValue = append(t.leafValue, rightOutput)
	t.leafCount = append(t.leafCount, rightCount)
	t.leafDepth = append(t.leafDepth, depth)
	t.leafParent = append(t.leafParent, int32(nodeID))
	t.numLeaves++

	return nodeID, leaf, rightLeaf
}

// SplitCategorical turns leaf into a categorical decision node whose
// left-membership set is the bitset bits (bit i set means bin i routes
// left).
func (t *Tree) SplitCategorical(
	leaf int,
	feature int,
	bits []uint32,
	defaultLeft bool,
	gain float64,
	monotoneType int8,
	leftOutput, rightOutput float64,
	leftCount, rightCount int32,
) (nodeID, leftLeaf, rightLeaf int) {
	nodeID = len(t.leftChild)
	rightLeaf = t.numLeaves

	decision := decisionTypeCategorical
	if defaultLeft {
		decision |= decisionTypeDefaultLeft
	}

	parent := t.leafParent[leaf]
	boundary := int32(len(t.catThreshold))
	t.catThreshold = append(t.catThreshold, bits...)

	t.leftChild = append(t.leftChild, encodeLeafChild(leaf))
	t.rightChild = append(t.rightChild, encodeLeafChild(rightLeaf))
	t.splitFeature = append(t.splitFeature, int32(feature))
	t.threshold = append(t.threshold, 0)
	t.thresholdBin = append(t.thresholdBin, 0)
	t.decisionType = append(t.decisionType, decision)
	t.splitGain = append(t.splitGain, gain)
	t.monotoneType = append(t.monotoneType, monotoneType)
	t.catBoundaries = append(t.catBoundaries, boundary)
	t.catBitsLen = append(t.catBitsLen, int32(len(bits)))

	t.fixupParentPointer(parent, leaf, nodeID)

	depth := t.leafDepth[leaf] + 1
	t.leafValue[leaf] = leftOutput
	t.leafCount[leaf] = leftCount
	t.leafDepth[leaf] = depth
	t.leafParent[leaf] = int32(nodeID)

	t.leafValue = append(t.leafValue, rightOutput)
	t.leafCount = append(t.leafCount, rightCount)
	t.leafDepth = append(t.leafDepth, depth)
	t.leafParent = append(t.leafParent, int32(nodeID))
	t.numLeaves++

	return nodeID, leaf, rightLeaf
}

// fixupParentPointer rewrites the child pointer that used to reference
// leaf (as a leaf) so that it now references nodeID (as an internal node),
// unless leaf was the root leaf, which has no parent to fix.
func (t *Tree) fixupParentPointer(parent int32, leaf, nodeID int) {
	if parent < 0 {
		return
	}
	want := encodeLeafChild(leaf)
	if t.leftChild[parent] == want {
		t.leftChild[parent] = int32(nodeID)
	} else if t.rightChild[parent] == want {
		t.rightChild[parent] = int32(nodeID)
	}
}

// CatBits returns the left-membership bitset recorded for a categorical
// split node.
func (t *Tree) CatBits(node int) []uint32 {
	start := t.catBoundaries[node]
	if start < 0 {
		return nil
	}
	return t.catThreshold[start : start+t.catBitsLen[node]]
}

// Predict walks a row's pre-binned feature values from the root and
// returns the leaf id it lands on.
func (t *Tree) Predict(binRow []uint32) int {
	if len(t.leftChild) == 0 {
		return 0
	}
	node := int32(0)
	for {
		var goLeft bool
		decision := t.decisionType[node]
		bin := binRow[t.splitFeature[node]]
		if decision&decisionTypeCategorical != 0 {
			goLeft = testBit(t.CatBits(int(node)), int(bin))
		} else {
			goLeft = bin <= t.thresholdBin[node]
		}
		var next int32
		if goLeft {
			next = t.leftChild[node]
		} else {
			next = t.rightChild[node]
		}
		if next < 0 {
			return int(^next)
		}
		node = next
	}
}

// PredictValue is a convenience wrapper returning the shrunk leaf output
// for a row.
func (t *Tree) PredictValue(binRow []uint32) float64 {
	return t.leafValue[t.Predict(binRow)] * t.shrinkage
}
