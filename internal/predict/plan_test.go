// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/registry"
)

func TestPlanName(t *testing.T) {
	t.Parallel()

	tests := map[int]string{1: "Basic", 2: "Standard", 3: "Premium", 0: "Unknown", 4: "Unknown", -1: "Unknown"}
	for tier, want := range tests {
		if got := PlanName(tier); got != want {
			t.Errorf("PlanName(%d) = %q, want %q", tier, got, want)
		}
	}
}

func TestPlanRecommender_ModelSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		atRisk     bool
		scalers    registry.ScalerSet
		withChurn  bool
		wantSource PlanSource
		wantTier   int
	}{
		{
			name:       "no scalers passes through",
			atRisk:     true,
			withChurn:  true,
			wantSource: SourcePassthrough,
			wantTier:   2,
		},
		{
			name:       "base model when not at risk",
			scalers:    registry.ScalerSet{Plan: identityScaler(), PlanChurn: identityScaler()},
			withChurn:  true,
			wantSource: SourceBaseModel,
			wantTier:   1,
		},
		{
			name:       "churn model when at risk",
			atRisk:     true,
			scalers:    registry.ScalerSet{Plan: identityScaler(), PlanChurn: identityScaler()},
			withChurn:  true,
			wantSource: SourceChurnModel,
			wantTier:   3,
		},
		{
			name:       "at risk without churn scaler uses base",
			atRisk:     true,
			scalers:    registry.ScalerSet{Plan: identityScaler()},
			withChurn:  true,
			wantSource: SourceBaseModel,
			wantTier:   1,
		},
		{
			name:       "at risk without churn model uses base",
			atRisk:     true,
			scalers:    registry.ScalerSet{Plan: identityScaler(), PlanChurn: identityScaler()},
			wantSource: SourceBaseModel,
			wantTier:   1,
		},
		{
			name:       "only churn scaler and not at risk passes through",
			scalers:    registry.ScalerSet{PlanChurn: identityScaler()},
			withChurn:  true,
			wantSource: SourcePassthrough,
			wantTier:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := &fakeTier{tier: 1}
			churn := &fakeTier{tier: 3}
			models := registry.ModelSet{Churn: &fakeClassifier{}, Plan: base}
			if tt.withChurn {
				models.PlanChurn = churn
			}
			reg := newRegistry(t, models, tt.scalers)

			res, err := NewPlanRecommender(reg).Recommend(context.Background(), sampleVector(), tt.atRisk)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if res.Source != tt.wantSource {
				t.Errorf("Source = %s, want %s", res.Source, tt.wantSource)
			}
			if res.RecommendedPlan != tt.wantTier {
				t.Errorf("RecommendedPlan = %d, want %d", res.RecommendedPlan, tt.wantTier)
			}
			if res.CurrentPlan != 2 || res.CurrentPlanName != "Standard" {
				t.Errorf("current = %d/%s, want 2/Standard", res.CurrentPlan, res.CurrentPlanName)
			}
			if tt.wantSource == SourcePassthrough && (base.called() != 0 || churn.called() != 0) {
				t.Error("pass-through must not call any model")
			}
		})
	}
}

func TestPlanRecommender_Messages(t *testing.T) {
	t.Parallel()

	for tier := 0; tier <= 4; tier++ {
		reg := newRegistry(t, registry.ModelSet{Churn: &fakeClassifier{}, Plan: &fakeTier{tier: tier}},
			registry.ScalerSet{Plan: identityScaler()})

		res, err := NewPlanRecommender(reg).Recommend(context.Background(), sampleVector(), false)
		if err != nil {
			t.Fatal(err)
		}
		if res.RecommendedPlan == res.CurrentPlan {
			if !strings.Contains(res.Message, "already optimal") || !strings.Contains(res.Message, "Standard") {
				t.Errorf("tier %d: message %q", tier, res.Message)
			}
		} else if !strings.Contains(res.Message, "upgrading from Standard to "+PlanName(tier)) {
			t.Errorf("tier %d: message %q", tier, res.Message)
		}
	}
}

func TestPlanRecommender_ModelInput(t *testing.T) {
	t.Parallel()

	base := &fakeTier{tier: 2}
	reg := newRegistry(t, registry.ModelSet{Churn: &fakeClassifier{}, Plan: base},
		registry.ScalerSet{Plan: identityScaler()})

	if _, err := NewPlanRecommender(reg).Recommend(context.Background(), sampleVector(), false); err != nil {
		t.Fatal(err)
	}
	got := base.calls[0]
	if len(got) != features.Count-1 {
		t.Fatalf("model received %d columns, want 11", len(got))
	}
	if got[features.Age] != 1 || got[features.LifeInsuranceFlag] != 0 {
		t.Errorf("unexpected model input %v", got)
	}
}

func TestPlanRecommender_UnknownTier(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, registry.ModelSet{Churn: &fakeClassifier{}, Plan: &fakeTier{tier: 9}},
		registry.ScalerSet{Plan: identityScaler()})

	res, err := NewPlanRecommender(reg).Recommend(context.Background(), sampleVector(), false)
	if err != nil {
		t.Fatalf("unknown tier must not fail: %v", err)
	}
	if res.RecommendedPlanName != "Unknown" {
		t.Errorf("RecommendedPlanName = %q, want Unknown", res.RecommendedPlanName)
	}
}

func TestPlanRecommender_ModelError(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, registry.ModelSet{Churn: &fakeClassifier{}, Plan: &fakeTier{err: errors.New("x")}},
		registry.ScalerSet{Plan: identityScaler()})

	_, err := NewPlanRecommender(reg).Recommend(context.Background(), sampleVector(), false)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != "plan" {
		t.Errorf("expected plan StageError, got %v", err)
	}
}
