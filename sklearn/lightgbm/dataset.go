package lightgbm

import scigoErrors "github.com/scigo-ml/leafwise/pkg/errors"

// Dataset is the pre-binned feature store the tree learner consumes. The
// learner never bins raw values itself; it only reads bin ids and asks the
// dataset to build histograms over row subsets.
type Dataset interface {
	NumData() int
	NumFeatures() int

	// ValidFeatureIndices lists the real feature indices the dataset kept
	// after any upstream feature filtering.
	ValidFeatureIndices() []int

	InnerFeatureIndex(real int) int
	RealFeatureIndex(inner int) int

	FeatureNumBin(inner int) int
	FeatureBinMapper(inner int) *BinMapper

	BinThreshold(inner int, real float64) uint32
	RealThreshold(inner int, bin uint32) float64

	// Row returns the bin ids of one row across all inner features, used
	// by a boosting driver to evaluate a grown tree against training rows
	// for the next iteration's predictions.
	Row(row int) []uint32

	// InitTrain lets the dataset prepare any per-tree scratch space (e.g.
	// ordered gradient/hessian buffers or a row-wise/col-wise layout
	// decision) before the first ConstructHistograms call of a tree.
	InitTrain(usedFeatures []bool)

	// ConstructHistograms fills out[inner] for every inner feature flagged
	// in usedFeatures, summing (g, h) per bin over the given row subset.
	ConstructHistograms(
		usedFeatures []bool,
		rows []int32,
		gradients, hessians []float64,
		out map[int][]HistogramEntry,
	)

	// FixHistogram reconstructs the bin that was left unpopulated during
	// ConstructHistograms (conventionally the last/missing bin) so that
	// the histogram's totals equal (sumGrad, sumHess).
	FixHistogram(inner int, sumGrad, sumHess float64, hist []HistogramEntry)
}

// BinnedDataset is a simple in-memory Dataset used by tests and by callers
// that already have a pre-binned column-major matrix.
type BinnedDataset struct {
	numData  int
	features []int // real feature indices, in inner order
	mappers  []*BinMapper
	// bins[inner][row] is the bin id row was assigned for that feature.
	bins [][]uint32
}

// NewBinnedDataset builds a BinnedDataset from parallel per-feature bin
// mappers and bin-id columns. All columns must have the same length.
func NewBinnedDataset(realFeatureIndices []int, mappers []*BinMapper, bins [][]uint32) (*BinnedDataset, error) {
	if len(mappers) != len(bins) || len(mappers) != len(realFeatureIndices) {
		return nil, scigoErrors.NewValidationError("mappers", "must have the same length as bins and realFeatureIndices", len(mappers))
	}
	n := 0
	if len(bins) > 0 {
		n = len(bins[0])
	}
	for _, col := range bins {
		if len(col) != n {
			return nil, scigoErrors.NewValidationError("bins", "all columns must have the same row count", len(col))
		}
	}
	return &BinnedDataset{
		numData:  n,
		features: realFeatureIndices,
		mappers:  mappers,
		bins:     bins,
	}, nil
}

func (d *BinnedDataset) NumData() int     { return d.numData }
func (d *BinnedDataset) NumFeatures() int { return len(d.features) }

func (d *BinnedDataset) ValidFeatureIndices() []int {
	out := make([]int, len(d.features))
	copy(out, d.features)
	return out
}

func (d *BinnedDataset) InnerFeatureIndex(real int) int {
	for inner, r := range d.features {
		if r == real {
			return inner
		}
	}
	return -1
}

func (d *BinnedDataset) RealFeatureIndex(inner int) int { return d.features[inner] }

func (d *BinnedDataset) FeatureNumBin(inner int) int { return d.mappers[inner].NumBin }

func (d *BinnedDataset) FeatureBinMapper(inner int) *BinMapper { return d.mappers[inner] }

func (d *BinnedDataset) BinThreshold(inner int, real float64) uint32 {
	return d.mappers[inner].BinThreshold(real)
}

func (d *BinnedDataset) RealThreshold(inner int, bin uint32) float64 {
	return d.mappers[inner].RealThreshold(bin)
}

// InitTrain is a no-op for BinnedDataset: it holds no per-tree scratch
// state, unlike a production dataset that swaps row-wise/col-wise layouts.
func (d *BinnedDataset) InitTrain(usedFeatures []bool) {}

// Row returns the bin ids of one row across all inner features, used by
// BoostingDriver.Fit to update predictions through Tree.PredictValue.
func (d *BinnedDataset) Row(row int) []uint32 {
	out := make([]uint32, len(d.bins))
	for inner, col := range d.bins {
		out[inner] = col[row]
	}
	return out
}

func (d *BinnedDataset) ConstructHistograms(
	usedFeatures []bool,
	rows []int32,
	gradients, hessians []float64,
	out map[int][]HistogramEntry,
) {
	for inner, used := range usedFeatures {
		if !used {
			continue
		}
		numBin := d.mappers[inner].NumBin
		hist := out[inner]
		if cap(hist) < numBin {
			hist = make([]HistogramEntry, numBin)
		} else {
			hist = hist[:numBin]
			for i := range hist {
				hist[i] = HistogramEntry{}
			}
		}
		col := d.bins[inner]
		for _, r := range rows {
			b := col[r]
			hist[b].SumGrad += gradients[r]
			hist[b].SumHess += hessians[r]
			hist[b].Count++
		}
		out[inner] = hist
	}
}

// FixHistogram delegates to FeatureHistogramView.FixHistogram, the
// operation named by §4.3, over the caller-supplied entries slice.
func (d *BinnedDataset) FixHistogram(inner int, sumGrad, sumHess float64, hist []HistogramEntry) {
	view := &FeatureHistogramView{mapper: d.FeatureBinMapper(inner), entries: hist}
	view.FixHistogram(sumGrad, sumHess)
}
