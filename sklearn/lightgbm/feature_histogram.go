package lightgbm

import (
	"math"
	"sort"
)

// SplitInfo is the outcome of searching one feature's histogram for the
// best admissible threshold, or of gathering info for a caller-chosen
// (forced) threshold.
type SplitInfo struct {
	Feature      int // real feature index
	Inner        int // inner feature index
	Threshold    uint32
	DefaultLeft  bool
	Gain         float64
	LeftCount    int32
	RightCount   int32
	LeftSumGrad  float64
	RightSumGrad float64
	LeftSumHess  float64
	RightSumHess float64
	LeftOutput   float64
	RightOutput  float64
	MonotoneType int8

	IsCategorical bool
	CatThreshold  []uint32
}

// invalidGain marks a SplitInfo that cannot legally win argmax.
var invalidGain = math.Inf(-1)

func invalidSplit() SplitInfo {
	return SplitInfo{Gain: invalidGain}
}

// better implements the deterministic tie-break required by the split
// searcher's parallel reduction: higher gain wins; on an exact tie, lower
// feature index wins; on a further tie, lower threshold wins.
func (s SplitInfo) better(other SplitInfo) bool {
	if s.Gain != other.Gain {
		return s.Gain > other.Gain
	}
	if s.Feature != other.Feature {
		return s.Feature < other.Feature
	}
	return s.Threshold < other.Threshold
}

// FeatureHistogramView is a read/write view over one feature's per-bin
// (Σg, Σh) histogram plus the regularisation/constraint context needed to
// turn it into a SplitInfo.
type FeatureHistogramView struct {
	inner   int
	real    int
	mapper  *BinMapper
	entries []HistogramEntry

	reg *RegularizationStrategy

	minDataInLeaf        int32
	minSumHessianInLeaf  float64
	maxDeltaStep         float64
	monotoneType         int8
	maxCatThreshold      int
	catSmooth            float64
	minDataPerGroup      int32
}

// NewFeatureHistogramView wraps a histogram bank slice for one feature.
func NewFeatureHistogramView(inner, real int, mapper *BinMapper, entries []HistogramEntry, reg *RegularizationStrategy, params TrainingParams) *FeatureHistogramView {
	monotone := int8(0)
	if inner < len(params.MonotoneConstraints) {
		monotone = params.MonotoneConstraints[inner]
	}
	maxCat := params.MaxCatToOnehot
	if maxCat <= 0 {
		maxCat = 32
	}
	minGroup := int32(params.MinDataInBin)
	if minGroup <= 0 {
		minGroup = 1
	}
	return &FeatureHistogramView{
		inner:               inner,
		real:                real,
		mapper:              mapper,
		entries:             entries,
		reg:                 reg,
		minDataInLeaf:       int32(params.MinDataInLeaf),
		minSumHessianInLeaf: params.MinSumHessianInLeaf,
		maxDeltaStep:        params.MaxDeltaStep,
		monotoneType:        monotone,
		maxCatThreshold:     maxCat,
		catSmooth:           params.CatSmooth,
		minDataPerGroup:     minGroup,
	}
}

func (h *FeatureHistogramView) Entries() []HistogramEntry { return h.entries }

// FixHistogram reconstructs the bin that ConstructHistograms leaves
// unpopulated (the designated missing bin, when the feature has one) so
// that the sum across all bins equals the leaf's totals.
func (h *FeatureHistogramView) FixHistogram(sumGradLeaf, sumHessLeaf float64) {
	missingBin, ok := h.missingBinIndex()
	if !ok {
		return
	}
	var g, s float64
	var cnt int32
	for i, e := range h.entries {
		if i == missingBin {
			continue
		}
		g += e.SumGrad
		s += e.SumHess
		cnt += e.Count
	}
	h.entries[missingBin] = HistogramEntry{
		SumGrad: sumGradLeaf - g,
		SumHess: sumHessLeaf - s,
		Count:   h.entries[missingBin].Count,
	}
}

func (h *FeatureHistogramView) missingBinIndex() (int, bool) {
	switch h.mapper.Missing {
	case MissingZero:
		return 0, true
	case MissingNaN:
		return h.mapper.NumBin - 1, true
	default:
		return -1, false
	}
}

// Subtract turns self, which must currently hold the parent's stats, into
// the larger child's histogram by subtracting smaller bin-wise.
func (h *FeatureHistogramView) Subtract(smaller *FeatureHistogramView) {
	for i := range h.entries {
		h.entries[i].SumGrad -= smaller.entries[i].SumGrad
		h.entries[i].SumHess -= smaller.entries[i].SumHess
		h.entries[i].Count -= smaller.entries[i].Count
	}
}

// FindBestThreshold searches this feature's histogram for the best
// admissible split of a leaf whose totals are (sumGradParent,
// sumHessParent, numDataParent), respecting constraint's output bounds.
func (h *FeatureHistogramView) FindBestThreshold(sumGradParent, sumHessParent float64, numDataParent int32, constraint ConstraintEntry) SplitInfo {
	if h.mapper.Type == CategoricalBin {
		return h.findBestCategoricalSplit(sumGradParent, sumHessParent, numDataParent, constraint)
	}
	return h.findBestNumericalSplit(sumGradParent, sumHessParent, numDataParent, constraint)
}

func (h *FeatureHistogramView) findBestNumericalSplit(sumGradParent, sumHessParent float64, numDataParent int32, constraint ConstraintEntry) SplitInfo {
	best := invalidSplit()
	missingBin, hasMissing := h.missingBinIndex()

	for _, defaultLeft := range []bool{false, true} {
		var leftG, leftH float64
		var leftCnt int32
		for b := 0; b < len(h.entries)-1; b++ {
			if hasMissing && b == missingBin {
				continue
			}
			leftG += h.entries[b].SumGrad
			leftH += h.entries[b].SumHess
			leftCnt += h.entries[b].Count

			cand := SplitInfo{
				Feature:     h.real,
				Inner:       h.inner,
				Threshold:   uint32(b),
				DefaultLeft: defaultLeft,
				MonotoneType: h.monotoneType,
			}
			cg, ch, cc := leftG, leftH, leftCnt
			if hasMissing && defaultLeft {
				cg += h.entries[missingBin].SumGrad
				ch += h.entries[missingBin].SumHess
				cc += h.entries[missingBin].Count
			}
			rg := sumGradParent - cg
			rh := sumHessParent - ch
			rc := numDataParent - cc

			cand.LeftSumGrad, cand.LeftSumHess, cand.LeftCount = cg, ch, cc
			cand.RightSumGrad, cand.RightSumHess, cand.RightCount = rg, rh, rc

			if !h.admissible(cand) {
				continue
			}
			cand.LeftOutput = h.reg.ApplyLeafRegularization(cand.LeftSumGrad, cand.LeftSumHess)
			cand.RightOutput = h.reg.ApplyLeafRegularization(cand.RightSumGrad, cand.RightSumHess)
			cand.LeftOutput = clampDelta(cand.LeftOutput, h.maxDeltaStep)
			cand.RightOutput = clampDelta(cand.RightOutput, h.maxDeltaStep)
			if !h.withinConstraint(cand, constraint) {
				continue
			}
			cand.Gain = h.reg.CalculateSplitGain(cand.LeftSumGrad, cand.LeftSumHess, cand.RightSumGrad, cand.RightSumHess, sumGradParent, sumHessParent)
			if cand.better(best) {
				best = cand
			}
		}
	}
	return best
}

func (h *FeatureHistogramView) admissible(s SplitInfo) bool {
	if s.LeftCount < h.minDataInLeaf || s.RightCount < h.minDataInLeaf {
		return false
	}
	if s.LeftSumHess < h.minSumHessianInLeaf || s.RightSumHess < h.minSumHessianInLeaf {
		return false
	}
	return true
}

func (h *FeatureHistogramView) withinConstraint(s SplitInfo, c ConstraintEntry) bool {
	if s.LeftOutput < c.Min || s.LeftOutput > c.Max {
		return false
	}
	if s.RightOutput < c.Min || s.RightOutput > c.Max {
		return false
	}
	return true
}

func clampDelta(output, maxDeltaStep float64) float64 {
	if maxDeltaStep <= 0 {
		return output
	}
	if output > maxDeltaStep {
		return maxDeltaStep
	}
	if output < -maxDeltaStep {
		return -maxDeltaStep
	}
	return output
}

// findBestCategoricalSplit sorts bins by Σg/(Σh+λ₂) and greedily grows a
// left-membership bitset up to maxCatThreshold bins, scoring each prefix.
func (h *FeatureHistogramView) findBestCategoricalSplit(sumGradParent, sumHessParent float64, numDataParent int32, constraint ConstraintEntry) SplitInfo {
	type catStat struct {
		bin   int
		grad  float64
		hess  float64
		count int32
		ratio float64
	}
	stats := make([]catStat, 0, len(h.entries))
	for b, e := range h.entries {
		if e.Count < h.minDataPerGroup {
			continue
		}
		stats = append(stats, catStat{
			bin:   b,
			grad:  e.SumGrad,
			hess:  e.SumHess,
			count: e.Count,
			ratio: e.SumGrad / (e.SumHess + h.reg.lambdaL2),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ratio < stats[j].ratio })

	limit := h.maxCatThreshold
	if limit > len(stats) {
		limit = len(stats)
	}

	best := invalidSplit()
	var leftG, leftH float64
	var leftCnt int32
	bits := make([]uint32, bitsetWords(h.mapper.NumBin))

	for i := 0; i < limit; i++ {
		s := stats[i]
		setBit(bits, s.bin)
		leftG += s.grad
		leftH += s.hess
		leftCnt += s.count

		cand := SplitInfo{
			Feature:       h.real,
			Inner:         h.inner,
			DefaultLeft:   false,
			MonotoneType:  h.monotoneType,
			IsCategorical: true,
			LeftSumGrad:   leftG,
			LeftSumHess:   leftH,
			LeftCount:     leftCnt,
			RightSumGrad:  sumGradParent - leftG,
			RightSumHess:  sumHessParent - leftH,
			RightCount:    numDataParent - leftCnt,
		}
		if !h.admissible(cand) {
			continue
		}
		cand.LeftOutput = clampDelta(h.reg.ApplyLeafRegularization(cand.LeftSumGrad, cand.LeftSumHess), h.maxDeltaStep)
		cand.RightOutput = clampDelta(h.reg.ApplyLeafRegularization(cand.RightSumGrad, cand.RightSumHess), h.maxDeltaStep)
		if !h.withinConstraint(cand, constraint) {
			continue
		}
		cand.Gain = h.reg.CalculateSplitGain(cand.LeftSumGrad, cand.LeftSumHess, cand.RightSumGrad, cand.RightSumHess, sumGradParent, sumHessParent)
		if cand.Gain > best.Gain {
			cand.CatThreshold = append([]uint32(nil), bits...)
			best = cand
		}
	}
	return best
}

// GatherInfoForThreshold evaluates a caller-chosen numerical threshold
// (used by the forced-split driver) without searching for the best one.
func (h *FeatureHistogramView) GatherInfoForThreshold(sumGradParent, sumHessParent float64, threshold uint32, numDataParent int32) SplitInfo {
	missingBin, hasMissing := h.missingBinIndex()
	var leftG, leftH float64
	var leftCnt int32
	for b := 0; b <= int(threshold) && b < len(h.entries); b++ {
		if hasMissing && b == missingBin {
			continue
		}
		leftG += h.entries[b].SumGrad
		leftH += h.entries[b].SumHess
		leftCnt += h.entries[b].Count
	}
	cand := SplitInfo{
		Feature:      h.real,
		Inner:        h.inner,
		Threshold:    threshold,
		MonotoneType: h.monotoneType,
		LeftSumGrad:  leftG,
		LeftSumHess:  leftH,
		LeftCount:    leftCnt,
		RightSumGrad: sumGradParent - leftG,
		RightSumHess: sumHessParent - leftH,
		RightCount:   numDataParent - leftCnt,
	}
	cand.LeftOutput = clampDelta(h.reg.ApplyLeafRegularization(cand.LeftSumGrad, cand.LeftSumHess), h.maxDeltaStep)
	cand.RightOutput = clampDelta(h.reg.ApplyLeafRegularization(cand.RightSumGrad, cand.RightSumHess), h.maxDeltaStep)
	cand.Gain = h.reg.CalculateSplitGain(cand.LeftSumGrad, cand.LeftSumHess, cand.RightSumGrad, cand.RightSumHess, sumGradParent, sumHessParent)
	return cand
}
