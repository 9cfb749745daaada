// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package gbdt implements gradient-boosted regression trees for the three
// model families InsurePredict serves: a binary churn classifier, multi-class
// plan tier classifiers and a customer value regressor.
//
// Training uses second-order (gradient and hessian) exact greedy splits with
// L2 leaf regularization. Nothing is sampled, so the same rows in the same
// order always produce the same trees; reproducibility of a retrain run
// therefore depends only on how the caller splits its data.
//
// Models are plain exported structs so they can be stored with encoding/gob
// by the registry package.
package gbdt
