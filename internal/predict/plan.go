// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"context"
	"fmt"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/registry"
)

var planNames = map[int]string{
	1: "Basic",
	2: "Standard",
	3: "Premium",
}

// PlanName returns the display name of a tier, or "Unknown".
func PlanName(tier int) string {
	if name, ok := planNames[tier]; ok {
		return name
	}
	return "Unknown"
}

// PlanRecommender picks a plan tier, preferring the churn-specific model
// for at-risk customers.
type PlanRecommender struct {
	scalers registry.ScalerSet
	base    registry.TierClassifier
	churn   registry.TierClassifier
}

// NewPlanRecommender binds the plan models and scalers.
func NewPlanRecommender(reg *registry.Registry) *PlanRecommender {
	m := reg.Models()
	return &PlanRecommender{
		scalers: reg.Scalers(),
		base:    m.Plan,
		churn:   m.PlanChurn,
	}
}

// Recommend predicts a tier for v. Without a usable scaler for the chosen
// model the current tier is echoed back and no model is called.
func (r *PlanRecommender) Recommend(_ context.Context, v features.Vector, isChurnRisk bool) (PlanResult, error) {
	current := v.Tier()
	recommended := current
	source := SourcePassthrough

	var scaler *registry.Scaler
	var model registry.TierClassifier
	switch {
	case isChurnRisk && r.scalers.PlanChurn != nil && r.churn != nil:
		scaler, model, source = r.scalers.PlanChurn, r.churn, SourceChurnModel
	case r.scalers.Plan != nil && r.base != nil:
		scaler, model, source = r.scalers.Plan, r.base, SourceBaseModel
	}

	if model != nil {
		x := scaler.Transform(v)
		tier, err := model.PredictClass(x.Without(features.PlanType))
		if err != nil {
			return PlanResult{}, &StageError{Stage: "plan", Err: err}
		}
		recommended = tier
	}

	res := PlanResult{
		CurrentPlan:         current,
		CurrentPlanName:     PlanName(current),
		RecommendedPlan:     recommended,
		RecommendedPlanName: PlanName(recommended),
		Source:              source,
	}
	if recommended == current {
		res.Message = fmt.Sprintf("Your current %s plan is already optimal for your profile.", res.CurrentPlanName)
	} else {
		res.Message = fmt.Sprintf("Consider upgrading from %s to %s plan for better coverage.",
			res.CurrentPlanName, res.RecommendedPlanName)
	}
	return res, nil
}
