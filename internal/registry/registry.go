// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package registry holds the pre-trained models and feature scalers that the
// prediction pipeline reads.
//
// A Registry is built once at process start, either by Load from the models
// directory or by New from in-memory values in tests, and is never mutated
// afterwards. Components receive it by injection; there is no package-level
// model state. Retraining writes a new artifact to disk and the next process
// start picks it up.
//
// # Artifacts
//
// Models are gob-encoded gbdt.Model values, gzip-compressed and checksummed
// with SHA-256. Scalers are small JSON documents. Both are written through
// WriteFileAtomic so a failed write never leaves a torn file behind.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/insurepredict/internal/gbdt"
)

// ErrArtifactUnavailable is returned when a required model cannot be loaded.
// The server treats it as fatal.
var ErrArtifactUnavailable = errors.New("required model artifact unavailable")

// Classifier returns the probability of the positive class.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
}

// TierClassifier predicts an integer plan tier.
type TierClassifier interface {
	PredictClass(x []float64) (int, error)
}

// Regressor predicts a continuous value.
type Regressor interface {
	Predict(x []float64) (float64, error)
}

// ModelSet groups the served models. Churn and Plan are required.
type ModelSet struct {
	Churn     Classifier
	Plan      TierClassifier
	PlanChurn TierClassifier
	Value     Regressor
}

// ScalerSet groups the optional scalers. A nil entry means "do not scale".
type ScalerSet struct {
	Churn     *Scaler
	Plan      *Scaler
	PlanChurn *Scaler
}

// Paths locates every artifact on disk.
type Paths struct {
	ChurnModel      string
	PlanModel       string
	PlanChurnModel  string
	ValueModel      string
	ChurnScaler     string
	PlanScaler      string
	PlanChurnScaler string
}

// Registry is an immutable snapshot of models and scalers.
type Registry struct {
	models   ModelSet
	scalers  ScalerSet
	meta     map[string]Metadata
	loadedAt time.Time
}

// New builds a Registry from in-memory values.
//
//nolint:gocritic // sets are copied into the registry on purpose
func New(models ModelSet, scalers ScalerSet) (*Registry, error) {
	if models.Churn == nil {
		return nil, fmt.Errorf("%w: churn model", ErrArtifactUnavailable)
	}
	if models.Plan == nil {
		return nil, fmt.Errorf("%w: plan recommender", ErrArtifactUnavailable)
	}
	return &Registry{
		models:   models,
		scalers:  scalers,
		meta:     map[string]Metadata{},
		loadedAt: time.Now().UTC(),
	}, nil
}

// Models returns the model set.
func (r *Registry) Models() ModelSet { return r.models }

// Scalers returns the scaler set. Callers must treat the scalers as read-only.
func (r *Registry) Scalers() ScalerSet { return r.scalers }

// LoadedAt reports when the registry was built.
func (r *Registry) LoadedAt() time.Time { return r.loadedAt }

// Metadata returns the stored metadata for a loaded model artifact.
func (r *Registry) Metadata(name string) (Metadata, bool) {
	m, ok := r.meta[name]
	return m, ok
}

// Summary reports which optional artifacts are present.
func (r *Registry) Summary() map[string]bool {
	return map[string]bool{
		"plan_recommender_churn": r.models.PlanChurn != nil,
		"value_model":            r.models.Value != nil,
		"scaler_churn":           r.scalers.Churn != nil,
		"scaler_plan":            r.scalers.Plan != nil,
		"scaler_plan_churn":      r.scalers.PlanChurn != nil,
	}
}

// loaded is one artifact produced by a load goroutine.
type loaded struct {
	name   string
	path   string
	result interface{}
	meta   *Metadata
}

// Load reads all artifacts concurrently. A missing or unreadable required
// model returns ErrArtifactUnavailable; optional artifacts degrade to nil
// with a log entry.
//
//nolint:gocritic // paths is a small config value
func Load(ctx context.Context, paths Paths, logger zerolog.Logger) (*Registry, error) {
	logger = logger.With().Str("component", "registry").Logger()

	type job struct {
		name     string
		path     string
		required bool
		scaler   bool
		want     gbdt.Objective
	}
	jobs := []job{
		{name: "churn_model", path: paths.ChurnModel, required: true, want: gbdt.Binary},
		{name: "plan_recommender", path: paths.PlanModel, required: true, want: gbdt.Multiclass},
		{name: "plan_recommender_churn", path: paths.PlanChurnModel, want: gbdt.Multiclass},
		{name: "value_model", path: paths.ValueModel, want: gbdt.Regression},
		{name: "scaler_churn", path: paths.ChurnScaler, scaler: true},
		{name: "scaler_plan", path: paths.PlanScaler, scaler: true},
		{name: "scaler_plan_churn", path: paths.PlanChurnScaler, scaler: true},
	}

	results := make([]loaded, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := loaded{name: j.name, path: j.path}
			var err error
			switch {
			case j.path == "":
				err = fmt.Errorf("no path configured")
			case j.scaler:
				res.result, err = LoadScaler(j.path)
			default:
				var m *gbdt.Model
				m, res.meta, err = LoadModel(j.path)
				if err == nil && m.Objective != j.want {
					err = fmt.Errorf("objective %q, want %q", m.Objective, j.want)
				}
				res.result = m
			}

			if err != nil {
				if j.required {
					return fmt.Errorf("%w: %s (%s): %v", ErrArtifactUnavailable, j.name, j.path, err)
				}
				ev := logger.Warn()
				if !isNotExist(err) && j.path != "" {
					ev = logger.Error()
				}
				ev.Err(err).Str("artifact", j.name).Str("path", j.path).
					Msg("Optional artifact unavailable, continuing without it")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var models ModelSet
	var scalers ScalerSet
	meta := make(map[string]Metadata)
	for _, res := range results {
		if res.result == nil {
			continue
		}
		if res.meta != nil {
			meta[res.name] = *res.meta
		}
		switch res.name {
		case "churn_model":
			models.Churn = res.result.(Classifier)
		case "plan_recommender":
			models.Plan = res.result.(TierClassifier)
		case "plan_recommender_churn":
			models.PlanChurn = res.result.(TierClassifier)
		case "value_model":
			models.Value = res.result.(Regressor)
		case "scaler_churn":
			scalers.Churn = res.result.(*Scaler)
		case "scaler_plan":
			scalers.Plan = res.result.(*Scaler)
		case "scaler_plan_churn":
			scalers.PlanChurn = res.result.(*Scaler)
		}
		logger.Debug().Str("artifact", res.name).Str("path", res.path).Msg("Loaded artifact")
	}

	reg, err := New(models, scalers)
	if err != nil {
		return nil, err
	}
	reg.meta = meta

	ev := logger.Info()
	for name, present := range reg.Summary() {
		ev = ev.Bool(name, present)
	}
	ev.Msg("Model registry loaded")
	return reg, nil
}
