// Package lightgbm implements LightGBM's histogram-based, leaf-wise
// (best-first) decision tree learner: TreeGrower.Train builds one tree at a
// time from a pre-binned Dataset and per-row gradients/hessians, choosing at
// each step the single leaf split with the highest regularised gain across
// the whole frontier rather than growing level by level.
//
// # Growing a tree
//
//	dataset, err := lightgbm.NewBinnedDataset(realFeatureIndex, mappers, bins)
//	partition := lightgbm.NewRowMajorPartition(dataset)
//	grower := lightgbm.NewTreeGrower(dataset, partition, lightgbm.DefaultTrainingParams(), true)
//
//	tree, err := grower.Train(gradients, hessians, nil)
//	leaf := tree.Predict(row)
//	value := tree.PredictValue(row)
//
// # Boosting
//
// BoostingDriver wraps a TreeGrower with the outer gradient-boosting loop:
// it derives gradients/hessians from an ObjectiveFunction each iteration,
// grows one tree, and accumulates its shrinkage-scaled contribution into a
// running prediction.
//
//	driver := lightgbm.NewBoostingDriver(grower, dataset, lightgbm.NewL2Objective(), 0.1)
//	grown, err := driver.Fit(ctx, targets, numIterations, nil)
//	preds := driver.Predict(rows)
//
// # Forced splits and refitting
//
// TreeGrower.Train accepts an optional forced-split JSON skeleton (see
// forced_split.go), applied before greedy growth resumes. A tree already
// grown can be re-scored against new gradients without changing its shape
// via FitByExistingTree, or re-partitioned against an externally supplied
// leaf assignment via FitByExistingTreeWithLeafPred.
//
// # Categorical features and monotone constraints
//
// Features whose BinMapper.Type is CategoricalBin are split by greedily
// grouping bins ordered by Σg/(Σh+λ₂) into a left-membership bitset, up to
// max_cat_threshold groups. TrainingParams.MonotoneConstraints, indexed by
// inner feature index, constrains split search so that a leaf's admissible
// output range never crosses its monotone-constrained siblings.
package lightgbm
