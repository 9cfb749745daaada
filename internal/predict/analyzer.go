// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/history"
	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/metrics"
	"github.com/tomtom215/insurepredict/internal/registry"
)

type recommender interface {
	Recommend(ctx context.Context, v features.Vector) (RecommendationMap, error)
}

// Analyzer runs churn prediction, plan recommendation and the configured
// enrichment stage for one customer. It is safe for concurrent use.
type Analyzer struct {
	variant Variant
	churn   *ChurnPredictor
	plan    *PlanRecommender
	value   *ValueEstimator
	similar recommender
	logger  zerolog.Logger
}

// NewAnalyzer wires the pipeline over reg. table is only consulted by the
// similarity variant and may be nil otherwise.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAnalyzer(reg *registry.Registry, table *history.Table, variant Variant, logger zerolog.Logger) *Analyzer {
	logger = logger.With().Str("component", "predict").Str("variant", string(variant)).Logger()
	a := &Analyzer{
		variant: variant,
		churn:   NewChurnPredictor(reg),
		plan:    NewPlanRecommender(reg),
		logger:  logger,
	}
	switch variant {
	case VariantSimilarity:
		a.similar = NewSimilarityRecommender(table)
	default:
		a.variant = VariantValue
		a.value = NewValueEstimator(reg, logger)
	}
	return a
}

// Variant reports the active enrichment variant.
func (a *Analyzer) Variant() Variant { return a.variant }

// Analyze runs the pipeline. Churn and plan failures are returned as
// *StageError; the enrichment stage always produces a result.
func (a *Analyzer) Analyze(ctx context.Context, v features.Vector) (AnalysisResult, error) {
	var res AnalysisResult

	err := guard("churn", func() (err error) {
		res.Churn, err = a.churn.Predict(ctx, v)
		return err
	})
	if err != nil {
		metrics.RecordStageFailure("churn")
		return AnalysisResult{}, err
	}

	err = guard("plan", func() (err error) {
		res.Plan, err = a.plan.Recommend(ctx, v, res.Churn.IsChurnRisk)
		return err
	})
	if err != nil {
		metrics.RecordStageFailure("plan")
		return AnalysisResult{}, err
	}
	metrics.RecordPlanSource(string(res.Plan.Source))

	switch a.variant {
	case VariantSimilarity:
		res.Recommendations = a.recommend(ctx, v)
	default:
		vr := a.value.Estimate(ctx, v)
		res.Value = &vr
	}

	metrics.RecordPrediction(string(a.variant), res.Churn.IsChurnRisk, res.Churn.Probability)
	return res, nil
}

// recommend runs the similarity stage and substitutes a placeholder on
// failure so the request still succeeds.
func (a *Analyzer) recommend(ctx context.Context, v features.Vector) RecommendationMap {
	var recs RecommendationMap
	err := guard("similarity", func() (err error) {
		recs, err = a.similar.Recommend(ctx, v)
		return err
	})
	if err != nil {
		metrics.RecordStageFallback("similarity")
		a.logger.Warn().
			Err(err).
			Str("request_id", logging.RequestIDFromContext(ctx)).
			Msg("Similarity recommendations failed, returning placeholder")
		return RecommendationMap{CategoryGeneral: {msgUnavailable}}
	}
	return recs
}
