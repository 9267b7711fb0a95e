package lightgbm

// LeafSplits holds the working aggregate statistics of one leaf currently
// under consideration by the split searcher: its id, row count, and
// (Σg, Σh). Two instances are kept live at any time during a split step —
// "smaller" and "larger" — following the caller convention that the
// smaller child always occupies the smaller slot so histogram subtraction
// stays valid.
type LeafSplits struct {
	leafID  int
	numData int32
	sumGrad float64
	sumHess float64
	// index borrows the partition's row slice for this leaf; nil for the
	// full-dataset root case where every row belongs to the leaf.
	index []int32
}

// NewLeafSplits creates an unused LeafSplits slot.
func NewLeafSplits() *LeafSplits {
	ls := &LeafSplits{}
	ls.Reset()
	return ls
}

// Reset marks the slot unused (leaf_id = -1), mirroring the no-arg Init().
func (ls *LeafSplits) Reset() {
	ls.leafID = -1
	ls.numData = 0
	ls.sumGrad = 0
	ls.sumHess = 0
	ls.index = nil
}

// InitRoot performs full-dataset root initialisation: Σg, Σh over all N
// rows, leaf id 0, no explicit index slice (every row index is implicit).
func (ls *LeafSplits) InitRoot(gradients, hessians []float64) {
	ls.leafID = 0
	ls.numData = int32(len(gradients))
	ls.index = nil
	var sg, sh float64
	for i := range gradients {
		sg += gradients[i]
		sh += hessians[i]
	}
	ls.sumGrad = sg
	ls.sumHess = sh
}

// InitBaggedRoot is the bagging-root variant: sums are computed only over
// the partition's row slice for leaf 0, rather than every row.
func (ls *LeafSplits) InitBaggedRoot(partition DataPartition, gradients, hessians []float64) {
	ls.leafID = 0
	ls.index = partition.GetIndexOnLeaf(0)
	ls.numData = int32(len(ls.index))
	var sg, sh float64
	for _, r := range ls.index {
		sg += gradients[r]
		sh += hessians[r]
	}
	ls.sumGrad = sg
	ls.sumHess = sh
}

// InitFromSplit is the non-root path: sums are precomputed by the caller
// from the parent split (SplitInfo), and the row-index slice is borrowed
// fresh from the partition.
func (ls *LeafSplits) InitFromSplit(leafID int, partition DataPartition, sumGrad, sumHess float64) {
	ls.leafID = leafID
	ls.index = partition.GetIndexOnLeaf(leafID)
	ls.numData = int32(len(ls.index))
	ls.sumGrad = sumGrad
	ls.sumHess = sumHess
}

func (ls *LeafSplits) LeafID() int        { return ls.leafID }
func (ls *LeafSplits) NumData() int32     { return ls.numData }
func (ls *LeafSplits) SumGradients() float64 { return ls.sumGrad }
func (ls *LeafSplits) SumHessians() float64  { return ls.sumHess }
func (ls *LeafSplits) IsValid() bool      { return ls.leafID >= 0 }

// Indices returns the leaf's row indices; for the (unbagged) root leaf,
// where no explicit slice was borrowed, the caller must derive rows
// itself (all of [0, numData)).
func (ls *LeafSplits) Indices() []int32 { return ls.index }
