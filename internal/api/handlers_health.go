// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status            string          `json:"status"`
	Variant           string          `json:"variant"`
	Artifacts         map[string]bool `json:"artifacts,omitempty"`
	DatabaseEnabled   bool            `json:"database_enabled"`
	DatabaseConnected bool            `json:"database_connected"`
	OutboxPending     int             `json:"outbox_pending"`
	Uptime            float64         `json:"uptime_seconds"`
	Timestamp         time.Time       `json:"timestamp"`
}

// Health handles GET /api/health. The service is "degraded" when the
// database is enabled but unreachable or when writes are waiting in the
// outbox; it always answers 200 because inference is unaffected.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	health := HealthStatus{
		Status:    "healthy",
		Variant:   string(h.analyzer.Variant()),
		Uptime:    time.Since(h.startTime).Seconds(),
		Timestamp: time.Now().UTC(),
	}

	if h.artifacts != nil {
		health.Artifacts = h.artifacts.Summary()
	}

	if h.customers != nil {
		health.DatabaseEnabled = true
		health.DatabaseConnected = h.customers.Ping(ctx) == nil
		if !health.DatabaseConnected {
			health.Status = "degraded"
		}
	}

	if h.outbox != nil {
		n, err := h.outbox.Len(ctx)
		if err != nil || n > 0 {
			health.Status = "degraded"
		}
		health.OutboxPending = n
	}

	respondJSON(w, r, http.StatusOK, &health)
}
