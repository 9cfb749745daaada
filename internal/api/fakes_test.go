// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/persist"
	"github.com/tomtom215/insurepredict/internal/predict"
	"github.com/tomtom215/insurepredict/internal/retrain"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	result  predict.AnalysisResult
	err     error
	variant predict.Variant
	got     []features.Vector
}

func (f *fakeAnalyzer) Analyze(_ context.Context, v features.Vector) (predict.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, v)
	return f.result, f.err
}

func (f *fakeAnalyzer) Variant() predict.Variant {
	if f.variant == "" {
		return predict.VariantValue
	}
	return f.variant
}

type fakeRecorder struct {
	mu    sync.Mutex
	err   error
	preds []persist.Prediction
}

func (f *fakeRecorder) Record(_ context.Context, pred persist.Prediction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preds = append(f.preds, pred)
	return f.err
}

type fakeTrainer struct {
	res     *retrain.Result
	err     error
	dataset string
	output  string
}

func (f *fakeTrainer) Retrain(_ context.Context, datasetPath, outputPath string) (*retrain.Result, error) {
	f.dataset, f.output = datasetPath, outputPath
	return f.res, f.err
}

type fakeCustomers struct {
	pingErr   error
	recs      []database.CustomerRecord
	stats     database.ChurnStats
	err       error
	lastLimit int
}

func (f *fakeCustomers) Ping(context.Context) error { return f.pingErr }

func (f *fakeCustomers) GetCustomer(_ context.Context, id string) (*database.CustomerRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.recs {
		if f.recs[i].ID == id {
			return &f.recs[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeCustomers) ListCustomers(_ context.Context, limit int) ([]database.CustomerRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recs) {
		return f.recs[:limit], nil
	}
	return f.recs, nil
}

func (f *fakeCustomers) CustomerStats(context.Context) (database.ChurnStats, error) {
	return f.stats, f.err
}

type fakeArtifacts map[string]bool

func (f fakeArtifacts) Summary() map[string]bool { return f }

type fakeOutbox struct {
	n   int
	err error
}

func (f fakeOutbox) Len(context.Context) (int, error) { return f.n, f.err }

// sampleResult is an analysis for an at-risk customer.
func sampleResult() predict.AnalysisResult {
	return predict.AnalysisResult{
		Churn: predict.ChurnResult{Probability: 0.8, IsChurnRisk: true, Recommendation: "High churn risk"},
		Plan: predict.PlanResult{
			CurrentPlan: 2, CurrentPlanName: "Standard",
			RecommendedPlan: 3, RecommendedPlanName: "Premium",
			Message: "Consider upgrading from Standard to Premium",
		},
		Value: &predict.ValueResult{Value: 12000, Category: "High Value"},
	}
}

const validFeatures = `[45,1,60000,2000,3000,1,0,10,1,0,0,2]`

func newTestRouter(t *testing.T, deps Deps, mw *ChiMiddlewareConfig) http.Handler {
	t.Helper()
	if deps.Analyzer == nil {
		deps.Analyzer = &fakeAnalyzer{result: sampleResult()}
	}
	return NewRouter(NewHandler(deps), NewChiMiddleware(mw)).SetupChi()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, rec.Body.String())
	}
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["error"].(string)
	return msg
}

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(context.Context, features.Vector) (predict.AnalysisResult, error) {
	panic("unexpected nil model")
}

func (panicAnalyzer) Variant() predict.Variant { return predict.VariantValue }
