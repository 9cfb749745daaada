// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered with promauto at package init and exposed as
// package variables. Call sites use the Record* helpers where one exists so
// label sets stay consistent:
//
//	metrics.RecordPrediction("value", true, 0.73)
//	metrics.RecordStageFallback("value")
//	metrics.RecordPersistenceFailure("history")
package metrics
