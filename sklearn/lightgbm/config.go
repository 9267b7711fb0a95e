package lightgbm

// TrainingParams is the read-only configuration bundle the tree learner
// consults. Only a subset of real LightGBM's parameter surface is
// reproduced here — the fields this core actually reads.
type TrainingParams struct {
	// Tree shape
	NumLeaves     int
	MaxDepth      int // <= 0 means unbounded
	MinDataInLeaf int

	// Regularisation
	Lambda               float64 // L2 (lambda_l2)
	Alpha                float64 // L1 (lambda_l1)
	MinSumHessianInLeaf  float64
	MaxDeltaStep         float64

	// Feature/row sampling
	FeatureFraction       float64
	FeatureFractionByNode float64
	FeatureFractionSeed   int64
	BaggingFraction       float64
	BaggingFreq           int

	// Histogram
	MaxBin          int
	MinDataInBin    int
	HistogramPoolSize float64 // MiB; <= 0 means "size to num_leaves"
	ForceColWise    bool
	ForceRowWise    bool

	// Categorical
	MaxCatToOnehot int
	CatSmooth      float64

	// Monotone constraints, indexed by inner feature index; 0 = none,
	// +1 = increasing, -1 = decreasing.
	MonotoneConstraints []int8

	// FitByExistingTree
	RefitDecayRate float64

	// Objective
	Objective     string
	NumClass      int
	HuberDelta    float64
	QuantileAlpha float64
	FairC         float64

	// Categorical features, as real feature indices.
	CategoricalFeatures []int

	// Misc
	Seed          int
	Deterministic bool
	Verbosity     int

	// CEGB (cost-efficient gradient boosting) is an opaque penalty overlay
	// on split gain; this core threads the fields through but never reads
	// them (the overlay formula itself is out of scope for the tree
	// learner, per the boosting driver's contract).
	CEGBTradeoff      float64
	CEGBPenaltySplit  float64
	CEGBPenaltyFeatureLazy  []float64
	CEGBPenaltyFeatureCoupled []float64
}

// DefaultTrainingParams mirrors LightGBM's own out-of-the-box defaults for
// the fields this core reads.
func DefaultTrainingParams() TrainingParams {
	return TrainingParams{
		NumLeaves:             31,
		MaxDepth:              -1,
		MinDataInLeaf:         20,
		Lambda:                0.0,
		Alpha:                 0.0,
		MinSumHessianInLeaf:   1e-3,
		MaxDeltaStep:          0.0,
		FeatureFraction:       1.0,
		FeatureFractionByNode: 1.0,
		BaggingFraction:       1.0,
		BaggingFreq:           0,
		MaxBin:                255,
		MinDataInBin:          3,
		HistogramPoolSize:     -1,
		MaxCatToOnehot:        4,
		CatSmooth:             10.0,
		RefitDecayRate:        0.9,
		Objective:             "regression",
	}
}
