// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package retrain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/insurepredict/internal/gbdt"
	"github.com/tomtom215/insurepredict/internal/metrics"
	"github.com/tomtom215/insurepredict/internal/registry"
)

var (
	// ErrRetrainInProgress is returned when another run holds the trainer.
	ErrRetrainInProgress = errors.New("retraining already in progress")

	// ErrDatasetNotFound is returned when the dataset file does not exist.
	ErrDatasetNotFound = errors.New("training dataset not found")

	// ErrInvalidDataset is returned for unreadable or malformed datasets.
	ErrInvalidDataset = errors.New("invalid training dataset")
)

// Config controls a retraining run.
type Config struct {
	Seed         int64
	TestFraction float64
	Params       gbdt.Params
	Timeout      time.Duration

	// ScalerPath is the churn scaler the server applies before scoring.
	// When the file exists the same transform is applied to the training
	// rows. Empty or missing means the model is fit on raw values.
	ScalerPath string
}

// DefaultConfig returns seed 42, a 20% holdout, 100 trees of depth 5 at
// learning rate 0.1, and a five minute timeout.
func DefaultConfig() Config {
	return Config{
		Seed:         42,
		TestFraction: 0.2,
		Params:       gbdt.DefaultParams(),
		Timeout:      5 * time.Minute,
	}
}

// Result describes a completed run.
type Result struct {
	Path        string             `json:"path"`
	Accuracy    float64            `json:"accuracy"`
	TrainRows   int                `json:"train_rows"`
	HoldoutRows int                `json:"holdout_rows"`
	Duration    time.Duration      `json:"duration"`
	Metadata    *registry.Metadata `json:"metadata"`
}

// Trainer runs retraining jobs one at a time.
type Trainer struct {
	cfg    Config
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewTrainer creates a Trainer. Zero fields in cfg take their defaults.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTrainer(cfg Config, logger zerolog.Logger) *Trainer {
	def := DefaultConfig()
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = def.TestFraction
	}
	if cfg.Params.NumTrees == 0 {
		cfg.Params = def.Params
	}
	return &Trainer{
		cfg:    cfg,
		logger: logger.With().Str("component", "retrain").Logger(),
	}
}

// Retrain fits a new churn classifier on datasetPath and atomically replaces
// the artifact at outputPath.
func (t *Trainer) Retrain(ctx context.Context, datasetPath, outputPath string) (*Result, error) {
	if !t.mu.TryLock() {
		metrics.RecordRetrain("busy", 0, 0)
		return nil, ErrRetrainInProgress
	}
	defer t.mu.Unlock()

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := t.run(ctx, datasetPath, outputPath)
	elapsed := time.Since(start)
	if err != nil {
		status := "failure"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.RecordRetrain(status, elapsed, 0)
		t.logger.Error().Err(err).
			Str("dataset", datasetPath).
			Dur("duration", elapsed).
			Msg("Retraining failed, previous model left in place")
		return nil, err
	}

	res.Duration = elapsed
	metrics.RecordRetrain("success", elapsed, res.Accuracy)
	t.logger.Info().
		Str("path", res.Path).
		Float64("accuracy", res.Accuracy).
		Int("train_rows", res.TrainRows).
		Int("holdout_rows", res.HoldoutRows).
		Dur("duration", elapsed).
		Msg("Model retrained")
	return res, nil
}

func (t *Trainer) run(ctx context.Context, datasetPath, outputPath string) (*Result, error) {
	ds, err := LoadDataset(datasetPath)
	if err != nil {
		return nil, err
	}
	scaled, err := t.standardize(ds)
	if err != nil {
		return nil, err
	}
	train, test := ds.Split(t.cfg.Seed, t.cfg.TestFraction)
	if train.Len() == 0 {
		return nil, fmt.Errorf("%w: %d rows leave nothing to train on", ErrInvalidDataset, ds.Len())
	}

	t.logger.Debug().
		Int("rows", ds.Len()).
		Int("features", len(ds.Header)-1).
		Bool("scaled", scaled).
		Msg("Dataset loaded")

	model, err := gbdt.Fit(ctx, train.X, train.Y, gbdt.Binary, t.cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("fit churn model: %w", err)
	}
	acc, err := model.Accuracy(test.X, test.Y)
	if err != nil {
		return nil, fmt.Errorf("score holdout: %w", err)
	}

	// A deadline that fires after fitting still aborts before the artifact
	// is touched.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrain canceled before save: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return nil, fmt.Errorf("create models directory: %w", err)
	}
	meta, err := registry.SaveModel(outputPath, model, registry.Metadata{
		Name:            "churn",
		TrainRows:       train.Len(),
		HoldoutRows:     test.Len(),
		HoldoutAccuracy: acc,
		TrainedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("save churn model: %w", err)
	}

	return &Result{
		Path:        outputPath,
		Accuracy:    acc,
		TrainRows:   train.Len(),
		HoldoutRows: test.Len(),
		Metadata:    meta,
	}, nil
}

// standardize applies the configured churn scaler to every row of ds so the
// model is fit on the values it will see at inference time.
func (t *Trainer) standardize(ds *Dataset) (bool, error) {
	if t.cfg.ScalerPath == "" {
		return false, nil
	}
	scaler, err := registry.LoadScaler(t.cfg.ScalerPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load churn scaler %s: %w", t.cfg.ScalerPath, err)
	}
	for i, row := range ds.X {
		if err := scaler.TransformRow(row); err != nil {
			return false, fmt.Errorf("%w: row %d: %v", ErrInvalidDataset, i+2, err)
		}
	}
	return true, nil
}
