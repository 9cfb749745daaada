// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"sync"
	"testing"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/registry"
)

type fakeClassifier struct {
	mu    sync.Mutex
	prob  float64
	err   error
	calls [][]float64
}

func (f *fakeClassifier) PredictProba(x []float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]float64(nil), x...))
	return f.prob, f.err
}

type fakeTier struct {
	mu    sync.Mutex
	tier  int
	err   error
	calls [][]float64
}

func (f *fakeTier) PredictClass(x []float64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]float64(nil), x...))
	return f.tier, f.err
}

func (f *fakeTier) called() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRegressor struct {
	value float64
	err   error
	panic bool
}

func (f *fakeRegressor) Predict([]float64) (float64, error) {
	if f.panic {
		panic("boom")
	}
	return f.value, f.err
}

// sampleVector is the reference customer used across pipeline tests.
func sampleVector() features.Vector {
	return features.Vector{45, 1, 60000, 2000, 3000, 1, 0, 10, 1, 0, 0, 2}
}

func identityScaler() *registry.Scaler {
	return &registry.Scaler{
		Columns: features.ScaledColumns,
		Mean:    []float64{40, 50000, 1000, 2000},
		Scale:   []float64{5, 10000, 1000, 1000},
	}
}

//nolint:gocritic // test helper
func newRegistry(t *testing.T, models registry.ModelSet, scalers registry.ScalerSet) *registry.Registry {
	t.Helper()

	reg, err := registry.New(models, scalers)
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	return reg
}
