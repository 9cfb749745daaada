// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/predict"
)

func TestPredict_Success(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{result: sampleResult()}
	rec := &fakeRecorder{}
	h := newTestRouter(t, Deps{Analyzer: analyzer, Persister: rec}, nil)

	resp := do(t, h, http.MethodPost, "/api/predict/", `{"features":`+validFeatures+`}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	body := decodeBody(t, resp)
	for _, key := range []string{"churn_analysis", "plan_recommendation", "customer_analysis"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q: %v", key, body)
		}
	}
	if _, ok := body["customer_recommendations"]; ok {
		t.Error("value variant response should not carry customer_recommendations")
	}

	want := features.Vector{45, 1, 60000, 2000, 3000, 1, 0, 10, 1, 0, 0, 2}
	if len(analyzer.got) != 1 || analyzer.got[0] != want {
		t.Errorf("analyzer got %v", analyzer.got)
	}
	if len(rec.preds) != 1 {
		t.Fatalf("persisted %d predictions, want 1", len(rec.preds))
	}
	p := rec.preds[0]
	if p.Label != 1 || p.Probability != 0.8 || p.Customer != nil || p.Features != want {
		t.Errorf("persisted %+v", p)
	}
}

func TestPredict_LabelUsesStrictThreshold(t *testing.T) {
	t.Parallel()

	res := sampleResult()
	res.Churn.Probability = 0.5
	res.Churn.IsChurnRisk = false
	rec := &fakeRecorder{}
	h := newTestRouter(t, Deps{Analyzer: &fakeAnalyzer{result: res}, Persister: rec}, nil)

	resp := do(t, h, http.MethodPost, "/api/predict/", `{"features":`+validFeatures+`}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if rec.preds[0].Label != 0 {
		t.Errorf("label at p=0.5 = %d, want 0", rec.preds[0].Label)
	}
}

func TestPredict_RawDataPersisted(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	h := newTestRouter(t, Deps{Persister: rec}, nil)

	body := `{"features":` + validFeatures + `,"raw_data":{"name":"Dana Reyes","age":45,"gender":"Female",` +
		`"earnings":60000,"plan_type":"Standard","credit_score":700,"policy_start_date":"2024-03-01"}}`
	resp := do(t, h, http.MethodPost, "/api/predict", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	c := rec.preds[0].Customer
	if c == nil || c.Name != "Dana Reyes" || c.Age != 45 || c.PolicyStartDate != "2024-03-01" {
		t.Errorf("customer = %+v", c)
	}
}

func TestPredict_PersistenceFailureDoesNotChangeResponse(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{err: errors.New("persistence failed: history: disk full")}
	h := newTestRouter(t, Deps{Persister: rec}, nil)

	resp := do(t, h, http.MethodPost, "/api/predict/", `{"features":`+validFeatures+`}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if _, ok := decodeBody(t, resp)["churn_analysis"]; !ok {
		t.Error("response missing churn_analysis")
	}
}

func TestPredict_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		partial bool
	}{
		{"invalid json", `{"features": [1,2`, msgInvalidJSON, false},
		{"not an object", `[1,2,3]`, msgInvalidJSON, false},
		{"empty body", ``, msgInvalidJSON, false},
		{"missing features", `{"raw_data":{}}`, msgMissingFeatures, false},
		{"features string", `{"features":"45,1,60000"}`, msgFeaturesNotList, false},
		{"features object", `{"features":{"Age":45}}`, msgFeaturesNotList, false},
		{"features null", `{"features":null}`, msgFeaturesNotList, false},
		{"too many values", `{"features":[45,1,60000,2000,3000,1,0,10,1,0,0,2,7]}`, "expected 12 values, got 13", true},
		{"too few values", `{"features":[45,1]}`, "expected 12 values, got 2", true},
		{"bad plan type", `{"features":[45,1,60000,2000,3000,1,0,10,1,0,0,4]}`, "PlanType", true},
		{"bad flag", `{"features":[45,1,60000,2000,3000,1,0,10,2,0,0,2]}`, "AutoInsuranceFlag", true},
		{"non numeric", `{"features":["abc",1,60000,2000,3000,1,0,10,1,0,0,2]}`, "Age", true},
		{"invalid raw_data", `{"features":` + validFeatures + `,"raw_data":{"churn":"Maybe"}}`, "invalid raw_data", true},
		{"negative age raw_data", `{"features":` + validFeatures + `,"raw_data":{"age":-3}}`, "invalid raw_data", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			analyzer := &fakeAnalyzer{result: sampleResult()}
			rec := &fakeRecorder{}
			h := newTestRouter(t, Deps{Analyzer: analyzer, Persister: rec}, nil)

			resp := do(t, h, http.MethodPost, "/api/predict/", tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
			}
			msg := errorMessage(t, resp)
			if tt.partial && !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want substring %q", msg, tt.want)
			}
			if !tt.partial && msg != tt.want {
				t.Errorf("error = %q, want %q", msg, tt.want)
			}
			if len(analyzer.got) != 0 || len(rec.preds) != 0 {
				t.Error("rejected request reached the pipeline or persistence")
			}
		})
	}
}

func TestPredict_StageFailure(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{err: &predict.StageError{Stage: "churn", Err: errors.New("model exploded")}}
	rec := &fakeRecorder{}
	h := newTestRouter(t, Deps{Analyzer: analyzer, Persister: rec}, nil)

	resp := do(t, h, http.MethodPost, "/api/predict/", `{"features":`+validFeatures+`}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.Code)
	}
	msg := errorMessage(t, resp)
	if !strings.HasPrefix(msg, "prediction failed: ") || !strings.Contains(msg, "model exploded") {
		t.Errorf("error = %q", msg)
	}
	if len(rec.preds) != 0 {
		t.Error("failed prediction was persisted")
	}
}

func TestPredict_NoPersister(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, Deps{}, nil)
	resp := do(t, h, http.MethodPost, "/api/predict/", `{"features":`+validFeatures+`}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
}
