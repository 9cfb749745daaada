// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/retrain"
)

// RetrainResponse is the body of a successful retrain.
type RetrainResponse struct {
	Message  string  `json:"message"`
	Accuracy float64 `json:"accuracy"`
}

// RetrainModel handles POST /api/retrain-model/. The request body is ignored.
// The retrain runs under its own timeout; a client that disconnects does not
// abort it.
func (h *Handler) RetrainModel(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		respondError(w, r, http.StatusServiceUnavailable, "retraining is not configured")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	res, err := h.trainer.Retrain(ctx, h.retrain.Dataset, h.retrain.Output)
	if err != nil {
		status := retrainStatus(err)
		if status >= http.StatusInternalServerError {
			logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Retrain request failed")
		}
		respondError(w, r, status, err.Error())
		return
	}

	respondJSON(w, r, http.StatusOK, RetrainResponse{
		Message:  "Model retrained and saved at: " + res.Path,
		Accuracy: res.Accuracy,
	})
}

// retrainStatus maps a retrain error onto an HTTP status.
func retrainStatus(err error) int {
	switch {
	case errors.Is(err, retrain.ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, retrain.ErrRetrainInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
