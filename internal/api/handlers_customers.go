// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/logging"
)

const (
	defaultCustomerLimit = 50
	maxCustomerLimit     = 500
)

// ListCustomers handles GET /api/customers/?limit=N.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	if !h.requireCustomers(w, r) {
		return
	}

	limit := defaultCustomerLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxCustomerLimit {
			respondError(w, r, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxCustomerLimit))
			return
		}
		limit = n
	}

	recs, err := h.customers.ListCustomers(r.Context(), limit)
	if err != nil {
		h.customerStoreError(w, r, err)
		return
	}
	if recs == nil {
		recs = []database.CustomerRecord{}
	}
	respondJSON(w, r, http.StatusOK, recs)
}

// GetCustomer handles GET /api/customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.requireCustomers(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := h.customers.GetCustomer(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		h.customerStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, rec)
}

// CustomerStats handles GET /api/customers/stats.
func (h *Handler) CustomerStats(w http.ResponseWriter, r *http.Request) {
	if !h.requireCustomers(w, r) {
		return
	}

	stats, err := h.customers.CustomerStats(r.Context())
	if err != nil {
		h.customerStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (h *Handler) requireCustomers(w http.ResponseWriter, r *http.Request) bool {
	if h.customers == nil {
		respondError(w, r, http.StatusServiceUnavailable, "customer database is disabled")
		return false
	}
	return true
}

func (h *Handler) customerStoreError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Msg("Customer store query failed")
	respondError(w, r, http.StatusInternalServerError, "customer store unavailable")
}
