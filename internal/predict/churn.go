// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/registry"
)

const (
	highRiskMessage = "High churn risk! Consider offering personalized discounts or improved benefits."
	lowRiskMessage  = "Low churn risk. Maintain regular engagement and customer satisfaction measures."
)

// ChurnPredictor scores churn probability with the churn classifier.
type ChurnPredictor struct {
	scaler *registry.Scaler
	model  registry.Classifier
}

// NewChurnPredictor binds the churn model and optional churn scaler.
func NewChurnPredictor(reg *registry.Registry) *ChurnPredictor {
	return &ChurnPredictor{
		scaler: reg.Scalers().Churn,
		model:  reg.Models().Churn,
	}
}

// Predict returns the churn probability, risk flag and guidance for v.
// The model sees all 12 columns, with the scaled columns standardized when
// a churn scaler is configured.
func (p *ChurnPredictor) Predict(_ context.Context, v features.Vector) (ChurnResult, error) {
	x := p.scaler.Transform(v)

	prob, err := p.model.PredictProba(x.Slice())
	if err != nil {
		return ChurnResult{}, &StageError{Stage: "churn", Err: err}
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return ChurnResult{}, &StageError{Stage: "churn", Err: fmt.Errorf("probability %v outside [0, 1]", prob)}
	}

	res := ChurnResult{Probability: prob, IsChurnRisk: IsChurnRisk(prob)}
	if res.IsChurnRisk {
		res.Recommendation = highRiskMessage
	} else {
		res.Recommendation = lowRiskMessage
	}
	return res, nil
}
