// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

/*
Package retrain rebuilds the churn classifier from a labeled CSV dataset.

A run reads the dataset, shuffles it with a fixed seed, holds out a fifth of
the rows, fits a binary gradient-boosted tree ensemble and writes the result
over the existing artifact. The write is atomic: a failed run leaves the
previous model in place.

When Config.ScalerPath names an existing churn scaler, the feature columns
are standardized with it before the split, matching what the churn
predictor does at inference time.

Runs are serialized per Trainer. A second call while one is active returns
ErrRetrainInProgress immediately instead of queueing.

The running server does not pick up a new artifact. Inference keeps using
the model loaded at startup until the process restarts.

Usage:

	t := retrain.NewTrainer(retrain.DefaultConfig(), logger)
	res, err := t.Retrain(ctx, "data/customer_data.csv", "models/churn_model.gbt")
	if errors.Is(err, retrain.ErrRetrainInProgress) {
	    // try later
	}
*/
package retrain
