// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/persist"
	"github.com/tomtom215/insurepredict/internal/predict"
	"github.com/tomtom215/insurepredict/internal/validation"
)

// maxPredictBody bounds the request body of a prediction.
const maxPredictBody = 1 << 20

// Error messages returned by Predict. Clients match on these strings.
const (
	msgMissingFeatures = "Missing 'features' key in request"
	msgFeaturesNotList = "'features' should be a list"
	msgInvalidJSON     = "Invalid JSON format"
)

// Predict handles POST /api/predict/.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPredictBody))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	// Fields stay raw so that a missing key, a non-list and a bad element
	// can be told apart.
	var req map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil || req == nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	rawFeatures, ok := req["features"]
	if !ok {
		respondError(w, r, http.StatusBadRequest, msgMissingFeatures)
		return
	}

	var values []interface{}
	if len(rawFeatures) == 0 || rawFeatures[0] != '[' || json.Unmarshal(rawFeatures, &values) != nil {
		respondError(w, r, http.StatusBadRequest, msgFeaturesNotList)
		return
	}

	vec, err := features.Parse(values)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := decodeCustomer(req["raw_data"])
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), vec)
	if err != nil {
		var stageErr *predict.StageError
		if errors.As(err, &stageErr) {
			logging.Ctx(r.Context()).Error().Err(stageErr.Err).Str("stage", stageErr.Stage).Msg("Prediction failed")
		} else {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Prediction failed")
		}
		respondError(w, r, http.StatusInternalServerError, "prediction failed: "+err.Error())
		return
	}

	h.record(r, vec, &result, customer)
	respondJSON(w, r, http.StatusOK, &result)
}

// record persists a successful prediction. Failures were already logged,
// counted and queued by the persister and never reach the client.
func (h *Handler) record(r *http.Request, vec features.Vector, result *predict.AnalysisResult, customer *database.CustomerRecord) {
	if h.persister == nil {
		return
	}
	err := h.persister.Record(r.Context(), persist.Prediction{
		Features:    vec,
		Label:       predict.ChurnLabel(result.Churn.Probability),
		Probability: result.Churn.Probability,
		Customer:    customer,
	})
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Prediction served with deferred persistence")
	}
}

// decodeCustomer decodes and validates the optional raw_data object.
func decodeCustomer(raw json.RawMessage) (*database.CustomerRecord, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rec database.CustomerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("invalid raw_data: %w", err)
	}
	if verr := validation.ValidateStruct(&rec); verr != nil {
		return nil, fmt.Errorf("invalid raw_data: %s", verr.Error())
	}
	return &rec, nil
}
