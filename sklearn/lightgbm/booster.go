package lightgbm

import (
	"context"
	"log/slog"

	scigoErrors "github.com/scigo-ml/leafwise/pkg/errors"
	scigoLog "github.com/scigo-ml/leafwise/pkg/log"
)

// BoostingDriver runs the outer gradient-boosting loop over a TreeGrower:
// compute gradients/hessians from the current predictions, grow one tree,
// accumulate it into the ensemble. It owns nothing the core learner
// doesn't already expose — no early stopping, no validation tracking, no
// multi-tree-per-iteration ensembling.
type BoostingDriver struct {
	grower    *TreeGrower
	dataset   Dataset
	objective ObjectiveFunction
	shrinkage float64

	trees []*Tree

	logger *slog.Logger
}

// NewBoostingDriver builds a driver around an already-Init'd grower.
// grower.params.Verbosity configures the process-wide slog default via
// pkg/log.SetupLogger, following LightGBM's own verbosity convention
// (<0 silent-ish/error, 0 warn, 1 info, >1 debug) before this driver (and
// TreeGrower, whose logger is re-derived here) pull their component-scoped
// loggers from slog.Default().
func NewBoostingDriver(grower *TreeGrower, dataset Dataset, objective ObjectiveFunction, shrinkage float64) *BoostingDriver {
	scigoLog.SetupLogger(verbosityToLogLevel(grower.params.Verbosity))
	grower.logger = slog.Default().With("component", "lightgbm.tree_grower")
	return &BoostingDriver{
		grower:    grower,
		dataset:   dataset,
		objective: objective,
		shrinkage: shrinkage,
		logger:    slog.Default().With("component", "lightgbm.booster"),
	}
}

// verbosityToLogLevel maps LightGBM's integer verbosity parameter onto the
// level names pkg/log.SetupLogger/ToLogLevel accepts.
func verbosityToLogLevel(verbosity int) string {
	switch {
	case verbosity > 1:
		return "debug"
	case verbosity == 1:
		return "info"
	case verbosity == 0:
		return "warn"
	default:
		return "error"
	}
}

// Fit runs numIterations rounds of gradient boosting over targets, using
// forcedSplitJSON (may be nil) for every tree grown. It returns the number
// of trees actually grown (== numIterations unless ctx is cancelled or an
// error stops the loop early).
func (b *BoostingDriver) Fit(ctx context.Context, targets []float64, numIterations int, forcedSplitJSON []byte) (int, error) {
	n := b.dataset.NumData()
	if len(targets) != n {
		return 0, scigoErrors.NewValidationError("targets", "must have one entry per row", len(targets))
	}

	initScore := b.objective.GetInitScore(targets)
	predictions := make([]float64, n)
	for i := range predictions {
		predictions[i] = initScore
	}

	gradients := make([]float64, n)
	hessians := make([]float64, n)

	grown := 0
	for iter := 0; iter < numIterations; iter++ {
		select {
		case <-ctx.Done():
			return grown, ctx.Err()
		default:
		}

		for i := 0; i < n; i++ {
			gradients[i] = b.objective.CalculateGradient(predictions[i], targets[i])
			hessians[i] = b.objective.CalculateHessian(predictions[i], targets[i])
		}

		tree, err := b.grower.Train(gradients, hessians, forcedSplitJSON)
		if err != nil {
			return grown, err
		}
		tree.SetShrinkage(b.shrinkage)

		if b.objective.IsRenewTreeOutput() {
			if err := b.grower.RenewTreeOutput(tree, b.objective, func(i int) float64 {
				return targets[i] - predictions[i]
			}); err != nil {
				return grown, err
			}
		}

		for i := 0; i < n; i++ {
			predictions[i] += tree.PredictValue(b.dataset.Row(i))
		}

		b.trees = append(b.trees, tree)
		grown++
		b.logger.Debug("grew tree", "iteration", iter, "leaves", tree.NumLeaves())
	}

	return grown, nil
}

// Predict sums every tree's contribution for each row of binned features.
func (b *BoostingDriver) Predict(rows [][]uint32) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		for _, tree := range b.trees {
			sum += tree.PredictValue(row)
		}
		out[i] = sum
	}
	return out
}

// Trees returns the grown ensemble in fit order.
func (b *BoostingDriver) Trees() []*Tree {
	return b.trees
}
