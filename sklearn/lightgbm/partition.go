package lightgbm

// DataPartition reorganises row indices among live leaves as the tree
// grows. The learner treats it as an opaque row router: it only asks for
// a leaf's current row slice and asks it to split one leaf's rows in two.
type DataPartition interface {
	Init()
	ResetNumData(n int)
	ResetLeaves(numLeaves int)

	// GetIndexOnLeaf returns the row indices currently routed to leaf.
	GetIndexOnLeaf(leaf int) []int32
	LeafCount(leaf int) int32

	// SetIndexOnLeaf overwrites leaf's row set directly, used to
	// re-partition rows against an externally supplied leaf assignment
	// (FitByExistingTree's leaf_pred overload) rather than by walking
	// split decisions.
	SetIndexOnLeaf(leaf int, rows []int32)

	// Split partitions leaf's rows into (leaf, nextLeafID) according to a
	// numerical decision (bin <= thresholdBin goes left, or missing rows
	// per defaultLeft) and returns the resulting (leftCount, rightCount).
	Split(leaf int, inner int, thresholdBin uint32, defaultLeft bool, nextLeafID int) (leftCount, rightCount int32)

	// SplitCategorical is Split's categorical counterpart: bin membership
	// in the bits bitset routes left.
	SplitCategorical(leaf int, inner int, bits []uint32, defaultLeft bool, nextLeafID int) (leftCount, rightCount int32)
}

// RowMajorPartition is a straightforward slice-per-leaf DataPartition
// implementation over a dense bin matrix, adequate for single-machine
// training and for tests.
type RowMajorPartition struct {
	dataset *BinnedDataset
	numData int
	// leafRows[leaf] holds the row indices currently assigned to leaf.
	leafRows [][]int32
}

// NewRowMajorPartition creates a partition over dataset with every row
// initially assigned to leaf 0.
func NewRowMajorPartition(dataset *BinnedDataset) *RowMajorPartition {
	p := &RowMajorPartition{dataset: dataset}
	p.Init()
	return p
}

func (p *RowMajorPartition) Init() {
	p.numData = p.dataset.NumData()
	root := make([]int32, p.numData)
	for i := range root {
		root[i] = int32(i)
	}
	p.leafRows = [][]int32{root}
}

func (p *RowMajorPartition) ResetNumData(n int) {
	p.numData = n
}

func (p *RowMajorPartition) ResetLeaves(numLeaves int) {
	if cap(p.leafRows) >= numLeaves {
		p.leafRows = p.leafRows[:numLeaves]
		return
	}
	grown := make([][]int32, numLeaves)
	copy(grown, p.leafRows)
	p.leafRows = grown
}

func (p *RowMajorPartition) GetIndexOnLeaf(leaf int) []int32 {
	return p.leafRows[leaf]
}

func (p *RowMajorPartition) LeafCount(leaf int) int32 {
	return int32(len(p.leafRows[leaf]))
}

func (p *RowMajorPartition) SetIndexOnLeaf(leaf int, rows []int32) {
	if leaf >= len(p.leafRows) {
		p.ResetLeaves(leaf + 1)
	}
	p.leafRows[leaf] = rows
}

func (p *RowMajorPartition) Split(leaf int, inner int, thresholdBin uint32, defaultLeft bool, nextLeafID int) (int32, int32) {
	rows := p.leafRows[leaf]
	col := p.dataset.bins[inner]
	mapper := p.dataset.mappers[inner]

	left := rows[:0:0]
	right := make([]int32, 0, len(rows))
	for _, r := range rows {
		bin := col[r]
		goLeft := bin <= thresholdBin
		if mapper.Missing != MissingNone && isMissingBin(mapper, bin) {
			goLeft = defaultLeft
		}
		if goLeft {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	p.assignChildren(leaf, nextLeafID, left, right)
	return int32(len(left)), int32(len(right))
}

func (p *RowMajorPartition) SplitCategorical(leaf int, inner int, bits []uint32, defaultLeft bool, nextLeafID int) (int32, int32) {
	rows := p.leafRows[leaf]
	col := p.dataset.bins[inner]
	mapper := p.dataset.mappers[inner]

	left := rows[:0:0]
	right := make([]int32, 0, len(rows))
	for _, r := range rows {
		bin := col[r]
		var goLeft bool
		if mapper.Missing != MissingNone && isMissingBin(mapper, bin) {
			goLeft = defaultLeft
		} else {
			goLeft = testBit(bits, int(bin))
		}
		if goLeft {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	p.assignChildren(leaf, nextLeafID, left, right)
	return int32(len(left)), int32(len(right))
}

func (p *RowMajorPartition) assignChildren(leaf, nextLeafID int, left, right []int32) {
	if nextLeafID >= len(p.leafRows) {
		p.ResetLeaves(nextLeafID + 1)
	}
	p.leafRows[leaf] = left
	p.leafRows[nextLeafID] = right
}

func isMissingBin(m *BinMapper, bin uint32) bool {
	switch m.Missing {
	case MissingZero:
		return bin == 0
	case MissingNaN:
		return int(bin) == m.NumBin-1
	default:
		return false
	}
}
