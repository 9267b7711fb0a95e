package lightgbm

// RegularizationStrategy handles L1/L2 regularization
type RegularizationStrategy struct {
	lambdaL1 float64
	lambdaL2 float64
}

// NewRegularizationStrategy creates a new regularization strategy
func NewRegularizationStrategy(params TrainingParams) *RegularizationStrategy {
	return &RegularizationStrategy{
		lambdaL1: params.Alpha,
		lambdaL2: params.Lambda,
	}
}

// ApplyLeafRegularization applies L1/L2 regularization to leaf value calculation
func (r *RegularizationStrategy) ApplyLeafRegularization(sumGrad, sumHess float64) float64 {
	const epsilon = 1e-10

	// Apply L2 regularization
	denominator := sumHess + r.lambdaL2 + epsilon

	// Apply L1 regularization (soft thresholding)
	if r.lambdaL1 > 0 {
		if sumGrad > r.lambdaL1 {
			return -(sumGrad - r.lambdaL1) / denominator
		} else if sumGrad < -r.lambdaL1 {
			return -(sumGrad + r.lambdaL1) / denominator
		} else {
			return 0.0
		}
	}

	return -sumGrad / denominator
}

// CalculateSplitGain calculates the gain for a split with regularization
func (r *RegularizationStrategy) CalculateSplitGain(
	leftGrad, leftHess, rightGrad, rightHess, parentGrad, parentHess float64) float64 {

	// Calculate scores with L2 regularization
	leftScore := r.calculateScore(leftGrad, leftHess)
	rightScore := r.calculateScore(rightGrad, rightHess)
	parentScore := r.calculateScore(parentGrad, parentHess)

	// Gain = left_score + right_score - parent_score
	return leftScore + rightScore - parentScore
}

// calculateScore calculates the score for a node with regularization
func (r *RegularizationStrategy) calculateScore(sumGrad, sumHess float64) float64 {
	const epsilon = 1e-10

	// Apply L2 regularization
	denominator := sumHess + r.lambdaL2 + epsilon

	// Apply L1 regularization
	var numerator float64
	if r.lambdaL1 > 0 {
		if sumGrad > r.lambdaL1 {
			numerator = sumGrad - r.lambdaL1
		} else if sumGrad < -r.lambdaL1 {
			numerator = sumGrad + r.lambdaL1
		} else {
			return 0.0
		}
	} else {
		numerator = sumGrad
	}

	// Score = G^2 / (H + lambda), matching L(g,h) in the worked-example gain
	// derivation: no 0.5 factor is applied, here or in the leaf-value form
	// (ApplyLeafRegularization).
	return numerator * numerator / denominator
}
