// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/metrics"
	"github.com/tomtom215/insurepredict/internal/registry"
)

// FallbackValue substitutes for the value model when it is missing or fails.
const FallbackValue = 5000.0

type valueBucket struct {
	category string
	message  string
	actions  []string
}

var (
	highValue = valueBucket{
		category: "High Value",
		message:  "This is a high-value customer. Prioritize retention efforts.",
		actions: []string{
			"Offer exclusive loyalty rewards",
			"Assign a dedicated account manager",
			"Provide priority claims processing",
		},
	}
	mediumValue = valueBucket{
		category: "Medium Value",
		message:  "This is a medium-value customer with growth potential.",
		actions: []string{
			"Recommend plan upgrades with added benefits",
			"Offer bundled insurance discounts",
			"Schedule periodic policy reviews",
		},
	}
	lowValue = valueBucket{
		category: "Low Value",
		message:  "This customer has lower current value. Focus on engagement.",
		actions: []string{
			"Send engagement campaigns highlighting plan benefits",
			"Offer entry-level add-on coverage",
			"Share educational content on insurance value",
		},
	}
)

func bucketFor(value float64) valueBucket {
	switch {
	case value > 10000:
		return highValue
	case value > 5000:
		return mediumValue
	default:
		return lowValue
	}
}

var errNoValueModel = errors.New("value model not loaded")

// ValueEstimator estimates customer value. It never fails: a missing or
// failing model yields FallbackValue.
type ValueEstimator struct {
	scaler *registry.Scaler
	model  registry.Regressor
	logger zerolog.Logger
}

// NewValueEstimator binds the value model. It reuses the churn scaler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewValueEstimator(reg *registry.Registry, logger zerolog.Logger) *ValueEstimator {
	return &ValueEstimator{
		scaler: reg.Scalers().Churn,
		model:  reg.Models().Value,
		logger: logger.With().Str("stage", "value").Logger(),
	}
}

// Estimate returns the value analysis for v.
func (e *ValueEstimator) Estimate(ctx context.Context, v features.Vector) ValueResult {
	value, err := e.predict(v)
	fallback := err != nil
	if fallback {
		value = FallbackValue
		metrics.RecordStageFallback("value")
		e.logger.Warn().
			Err(err).
			Str("request_id", logging.RequestIDFromContext(ctx)).
			Float64("fallback_value", FallbackValue).
			Msg("Value model unavailable, using fallback value")
	}

	b := bucketFor(value)
	return ValueResult{
		Value:                value,
		Category:             b.category,
		Message:              b.message,
		Recommendations:      append([]string(nil), b.actions...),
		Segment:              segment(v),
		RevenuePotential:     revenuePotential(v),
		CrossSellOpportunity: crossSell(v),
		Fallback:             fallback,
	}
}

func (e *ValueEstimator) predict(v features.Vector) (value float64, err error) {
	if e.model == nil {
		return 0, errNoValueModel
	}
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: "value", Err: errors.New("value model panicked")}
		}
	}()
	x := e.scaler.Transform(v)
	value, err = e.model.Predict(x.Slice())
	if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		err = errors.New("value model returned a non-finite value")
	}
	return value, err
}

func segment(v features.Vector) string {
	if v[features.DaysPassed] < 1 {
		return "New Customer"
	}
	return "Existing Customer"
}

func revenuePotential(v features.Vector) string {
	switch earnings := v[features.Earnings]; {
	case earnings > 75000:
		return "High"
	case earnings > 40000:
		return "Medium"
	default:
		return "Low"
	}
}

func crossSell(v features.Vector) string {
	held := 0
	for _, f := range features.InsuranceFlags {
		if v.HasFlag(f) {
			held++
		}
	}
	if held < 2 {
		return "Yes"
	}
	return "Limited"
}
