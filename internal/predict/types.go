// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"errors"
	"fmt"
	"strings"
)

// ChurnThreshold is the probability above which a customer is at risk.
// Exactly 0.5 is not at risk.
const ChurnThreshold = 0.5

// IsChurnRisk applies the strict threshold. Every caller that derives a
// churn flag or label from a probability goes through here.
func IsChurnRisk(probability float64) bool {
	return probability > ChurnThreshold
}

// ChurnLabel returns the 0/1 label persisted alongside a prediction.
func ChurnLabel(probability float64) int {
	if IsChurnRisk(probability) {
		return 1
	}
	return 0
}

// Variant selects the enrichment stage that follows plan recommendation.
type Variant string

const (
	// VariantValue runs the value estimator.
	VariantValue Variant = "value"
	// VariantSimilarity runs the similarity recommender.
	VariantSimilarity Variant = "similarity"
)

// ParseVariant validates a configured variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantValue, VariantSimilarity:
		return v, nil
	case "":
		return VariantValue, nil
	default:
		return "", fmt.Errorf("unknown pipeline variant %q (want %q or %q)", s, VariantValue, VariantSimilarity)
	}
}

// ChurnResult is the output of the churn predictor.
type ChurnResult struct {
	Probability    float64 `json:"churn_probability"`
	IsChurnRisk    bool    `json:"is_churn_risk"`
	Recommendation string  `json:"recommendation"`
}

// PlanSource names the path that produced a plan recommendation.
type PlanSource string

const (
	SourceChurnModel  PlanSource = "churn_model"
	SourceBaseModel   PlanSource = "base_model"
	SourcePassthrough PlanSource = "passthrough"
)

// PlanResult is the output of the plan recommender.
type PlanResult struct {
	CurrentPlan         int        `json:"current_plan"`
	CurrentPlanName     string     `json:"current_plan_name"`
	RecommendedPlan     int        `json:"recommended_plan"`
	RecommendedPlanName string     `json:"recommended_plan_name"`
	Message             string     `json:"plan_message"`
	Source              PlanSource `json:"-"`
}

// ValueResult is the output of the value estimator.
type ValueResult struct {
	Value                float64  `json:"customer_value"`
	Category             string   `json:"value_category"`
	Message              string   `json:"value_message"`
	Recommendations      []string `json:"value_recommendations"`
	Segment              string   `json:"customer_segment"`
	RevenuePotential     string   `json:"revenue_potential"`
	CrossSellOpportunity string   `json:"cross_sell_opportunity"`

	// Fallback is set when Value is the fixed substitute rather than a
	// model output.
	Fallback bool `json:"-"`
}

// RecommendationMap maps a category such as "Insurance_Options" to its
// suggestion lines.
type RecommendationMap map[string][]string

// AnalysisResult is the full response for one customer. Exactly one of
// Value and Recommendations is set, depending on the variant.
type AnalysisResult struct {
	Churn           ChurnResult       `json:"churn_analysis"`
	Plan            PlanResult        `json:"plan_recommendation"`
	Value           *ValueResult      `json:"customer_analysis,omitempty"`
	Recommendations RecommendationMap `json:"customer_recommendations,omitempty"`
}

// ErrStage is wrapped by every *StageError.
var ErrStage = errors.New("prediction stage failed")

// StageError reports a failed pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrStage, e.Err}
}

// guard runs fn and converts a panic into a *StageError.
func guard(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn()
}
