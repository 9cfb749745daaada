// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package api

import (
	"context"
	"time"

	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/persist"
	"github.com/tomtom215/insurepredict/internal/predict"
	"github.com/tomtom215/insurepredict/internal/retrain"
)

// Analyzer runs the prediction pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, v features.Vector) (predict.AnalysisResult, error)
	Variant() predict.Variant
}

// Recorder persists a completed prediction.
type Recorder interface {
	Record(ctx context.Context, pred persist.Prediction) error
}

// Retrainer rebuilds the churn model.
type Retrainer interface {
	Retrain(ctx context.Context, datasetPath, outputPath string) (*retrain.Result, error)
}

// CustomerReader is the read side of the customer store.
type CustomerReader interface {
	Ping(ctx context.Context) error
	GetCustomer(ctx context.Context, id string) (*database.CustomerRecord, error)
	ListCustomers(ctx context.Context, limit int) ([]database.CustomerRecord, error)
	CustomerStats(ctx context.Context) (database.ChurnStats, error)
}

// ArtifactReporter reports which optional artifacts were loaded.
type ArtifactReporter interface {
	Summary() map[string]bool
}

// OutboxCounter reports the number of writes waiting for replay.
type OutboxCounter interface {
	Len(ctx context.Context) (int, error)
}

// RetrainTarget names the files used by the retrain endpoint.
type RetrainTarget struct {
	Dataset string
	Output  string
}

// Deps are the handler dependencies. Analyzer is required. Persister,
// Trainer, Customers, Artifacts and Outbox are optional; routes that need a
// missing dependency answer 503.
type Deps struct {
	Analyzer  Analyzer
	Persister Recorder
	Trainer   Retrainer
	Customers CustomerReader
	Artifacts ArtifactReporter
	Outbox    OutboxCounter
	Retrain   RetrainTarget
}

// Handler holds the HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_predict.go: POST /api/predict/
//   - handlers_retrain.go: POST /api/retrain-model/
//   - handlers_health.go: GET /api/health
//   - handlers_customers.go: GET /api/customers/...
type Handler struct {
	analyzer  Analyzer
	persister Recorder
	trainer   Retrainer
	customers CustomerReader
	artifacts ArtifactReporter
	outbox    OutboxCounter
	retrain   RetrainTarget
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		analyzer:  deps.Analyzer,
		persister: deps.Persister,
		trainer:   deps.Trainer,
		customers: deps.Customers,
		artifacts: deps.Artifacts,
		outbox:    deps.Outbox,
		retrain:   deps.Retrain,
		startTime: time.Now(),
	}
}
