// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insurepredict_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "insurepredict_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_predictions_total",
			Help: "Completed predictions by variant and churn risk",
		},
		[]string{"variant", "risk"},
	)

	ChurnProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insurepredict_churn_probability",
			Help:    "Distribution of predicted churn probabilities",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
		},
	)

	PlanSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_plan_recommendations_total",
			Help: "Plan recommendations by the model that produced them",
		},
		[]string{"source"},
	)

	StageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_stage_fallbacks_total",
			Help: "Optional pipeline stages that returned a fallback result",
		},
		[]string{"stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_stage_failures_total",
			Help: "Critical pipeline stages that failed a request",
		},
		[]string{"stage"},
	)

	// Persistence Metrics
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_persistence_failures_total",
			Help: "Failed writes of history rows or customer records",
		},
		[]string{"target"},
	)

	OutboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "insurepredict_outbox_pending",
			Help: "Persistence writes waiting in the durable outbox",
		},
	)

	OutboxReplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_outbox_replayed_total",
			Help: "Outbox entries replayed by outcome",
		},
		[]string{"result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "insurepredict_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	// Retrain Metrics
	RetrainTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurepredict_retrain_total",
			Help: "Retraining runs by outcome",
		},
		[]string{"status"},
	)

	RetrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insurepredict_retrain_duration_seconds",
			Help:    "Duration of retraining runs",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	RetrainAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "insurepredict_retrain_holdout_accuracy",
			Help: "Held-out accuracy of the most recent successful retrain",
		},
	)

	// System Metrics
	HistoryRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "insurepredict_history_rows",
			Help: "Rows in the similarity snapshot loaded at startup",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPrediction records one completed analysis.
func RecordPrediction(variant string, atRisk bool, probability float64) {
	risk := "low"
	if atRisk {
		risk = "high"
	}
	PredictionsTotal.WithLabelValues(variant, risk).Inc()
	ChurnProbability.Observe(probability)
}

// RecordPlanSource records which plan model answered.
func RecordPlanSource(source string) {
	PlanSource.WithLabelValues(source).Inc()
}

// RecordStageFallback records an optional stage substituting its fallback.
func RecordStageFallback(stage string) {
	StageFallbacks.WithLabelValues(stage).Inc()
}

// RecordStageFailure records a critical stage failing the request.
func RecordStageFailure(stage string) {
	StageFailures.WithLabelValues(stage).Inc()
}

// RecordPersistenceFailure records a failed history or database write.
func RecordPersistenceFailure(target string) {
	PersistenceFailures.WithLabelValues(target).Inc()
}

// RecordRetrain records the outcome of a retraining run. accuracy is only
// published when status is "success".
func RecordRetrain(status string, duration time.Duration, accuracy float64) {
	RetrainTotal.WithLabelValues(status).Inc()
	RetrainDuration.Observe(duration.Seconds())
	if status == "success" {
		RetrainAccuracy.Set(accuracy)
	}
}
