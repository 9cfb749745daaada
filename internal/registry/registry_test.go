// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package registry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/gbdt"
)

func trainTiny(t *testing.T, obj gbdt.Objective, width int) *gbdt.Model {
	t.Helper()

	x := make([][]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = make([]float64, width)
		x[i][0] = float64(i)
		switch obj {
		case gbdt.Binary:
			if i >= 20 {
				y[i] = 1
			}
		case gbdt.Multiclass:
			y[i] = float64(1 + i/14)
		default:
			y[i] = float64(i * 100)
		}
	}
	p := gbdt.DefaultParams()
	p.NumTrees = 5
	p.MaxDepth = 2
	m, err := gbdt.Fit(context.Background(), x, y, obj, p)
	if err != nil {
		t.Fatalf("Fit(%s) error = %v", obj, err)
	}
	return m
}

func TestSaveLoadModel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "churn_model.gbt")
	m := trainTiny(t, gbdt.Binary, features.Count)

	meta, err := SaveModel(path, m, Metadata{Name: "churn_model", TrainRows: 40})
	if err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}
	if meta.Checksum == "" || meta.Trees != 5 || meta.Objective != gbdt.Binary {
		t.Errorf("unexpected metadata %+v", meta)
	}

	loaded, lmeta, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if lmeta.TrainRows != 40 {
		t.Errorf("TrainRows = %d, want 40", lmeta.TrainRows)
	}

	x := make([]float64, features.Count)
	x[0] = 30
	want, _ := m.PredictProba(x)
	got, _ := loaded.PredictProba(x)
	if want != got {
		t.Errorf("loaded model predicts %v, original %v", got, want)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the artifact in the directory, found %d entries", len(entries))
	}
}

func TestLoadModel_Missing(t *testing.T) {
	t.Parallel()

	_, _, err := LoadModel(filepath.Join(t.TempDir(), "nope.gbt"))
	if !isNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadModel_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.gbt")
	if err := os.WriteFile(path, []byte("not a model"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadModel(path); err == nil {
		t.Error("expected error for corrupt artifact")
	}
}

func TestWriteFileAtomic_KeepsOldFileOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "artifact")
	if err := WriteFileAtomic(path, []byte("v1"), 0o600); err != nil {
		t.Fatal(err)
	}

	// A directory at the destination makes the final rename fail.
	blocked := filepath.Join(dir, "blocked")
	if err := os.MkdirAll(filepath.Join(blocked, "child"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(blocked, []byte("v2"), 0o600); err == nil {
		t.Fatal("expected rename over non-empty directory to fail")
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "v1" {
		t.Errorf("original artifact changed: %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestScaler_Transform(t *testing.T) {
	t.Parallel()

	s := &Scaler{
		Columns: features.ScaledColumns,
		Mean:    []float64{40, 50000, 1000, 2000},
		Scale:   []float64{10, 10000, 0, 500},
	}
	var v features.Vector
	v[features.Age] = 50
	v[features.Earnings] = 60000
	v[features.ClaimAmount] = 1500
	v[features.InsurancePlanAmount] = 3000
	v[features.CreditScore] = 700

	got := s.Transform(v)
	if got[features.Age] != 1 || got[features.Earnings] != 1 || got[features.InsurancePlanAmount] != 2 {
		t.Errorf("unexpected scaled values %v", got)
	}
	if got[features.ClaimAmount] != 500 {
		t.Errorf("zero scale should divide by 1, got %v", got[features.ClaimAmount])
	}
	if got[features.CreditScore] != 700 || v[features.Age] != 50 {
		t.Error("Transform must not touch other columns or the input")
	}

	var nilScaler *Scaler
	if nilScaler.Transform(v) != v {
		t.Error("nil scaler must be a no-op")
	}
}

func TestScaler_TransformRow(t *testing.T) {
	t.Parallel()

	s := &Scaler{Columns: []int{0, 2}, Mean: []float64{10, 100}, Scale: []float64{2, 50}}

	row := []float64{14, 7, 200}
	if err := s.TransformRow(row); err != nil {
		t.Fatalf("TransformRow() error = %v", err)
	}
	if row[0] != 2 || row[1] != 7 || row[2] != 2 {
		t.Errorf("row = %v, want [2 7 2]", row)
	}

	short := []float64{14, 7}
	if err := s.TransformRow(short); err == nil {
		t.Error("expected error for a row without column 2")
	}
	if short[0] != 14 {
		t.Errorf("failed transform must leave the row alone, got %v", short)
	}

	var nilScaler *Scaler
	if err := nilScaler.TransformRow(row); err != nil {
		t.Errorf("nil scaler TransformRow() error = %v", err)
	}
}

func TestScaler_SaveLoad(t *testing.T) {
	t.Parallel()

	rows := []features.Vector{{20, 0, 30000}, {40, 0, 50000}, {60, 0, 70000}}
	s := FitScaler(rows, []int{features.Age, features.Earnings})
	if s.Mean[0] != 40 || s.Mean[1] != 50000 {
		t.Fatalf("unexpected means %v", s.Mean)
	}

	path := filepath.Join(t.TempDir(), "scaler_churn.json")
	if err := SaveScaler(path, s); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadScaler(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scale[1] != s.Scale[1] {
		t.Errorf("scale = %v, want %v", loaded.Scale, s.Scale)
	}

	if err := (&Scaler{Columns: []int{0}, Mean: []float64{1}}).Validate(); err == nil {
		t.Error("expected shape error")
	}
}

func TestNew_RequiresCoreModels(t *testing.T) {
	t.Parallel()

	if _, err := New(ModelSet{}, ScalerSet{}); !errors.Is(err, ErrArtifactUnavailable) {
		t.Errorf("expected ErrArtifactUnavailable, got %v", err)
	}
	m := trainTiny(t, gbdt.Binary, features.Count)
	if _, err := New(ModelSet{Churn: m}, ScalerSet{}); !errors.Is(err, ErrArtifactUnavailable) {
		t.Errorf("expected ErrArtifactUnavailable without plan model, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := Paths{
		ChurnModel:      filepath.Join(dir, "churn_model.gbt"),
		PlanModel:       filepath.Join(dir, "plan_recommender.gbt"),
		PlanChurnModel:  filepath.Join(dir, "plan_recommender_churn.gbt"),
		ValueModel:      filepath.Join(dir, "value_model.gbt"),
		ChurnScaler:     filepath.Join(dir, "scaler_churn.json"),
		PlanScaler:      filepath.Join(dir, "scaler_plan.json"),
		PlanChurnScaler: filepath.Join(dir, "scaler_plan_churn.json"),
	}

	if _, err := SaveModel(paths.ChurnModel, trainTiny(t, gbdt.Binary, features.Count), Metadata{}); err != nil {
		t.Fatal(err)
	}
	if _, err := SaveModel(paths.PlanModel, trainTiny(t, gbdt.Multiclass, features.Count-1), Metadata{}); err != nil {
		t.Fatal(err)
	}
	// Wrong objective for an optional slot degrades to nil.
	if _, err := SaveModel(paths.ValueModel, trainTiny(t, gbdt.Binary, features.Count), Metadata{}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	reg, err := Load(context.Background(), paths, zerolog.New(zerolog.SyncWriter(&buf)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	models := reg.Models()
	if models.Churn == nil || models.Plan == nil {
		t.Fatal("required models missing")
	}
	if models.PlanChurn != nil || models.Value != nil {
		t.Error("optional models should be nil")
	}
	if s := reg.Scalers(); s.Churn != nil || s.Plan != nil || s.PlanChurn != nil {
		t.Error("scalers should be nil when files are absent")
	}
	if _, ok := reg.Metadata("churn_model"); !ok {
		t.Error("expected metadata for churn_model")
	}
	if !strings.Contains(buf.String(), "value_model") {
		t.Errorf("expected a log line about value_model, got: %s", buf.String())
	}

	if err := os.Remove(paths.PlanModel); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(context.Background(), paths, zerolog.Nop()); !errors.Is(err, ErrArtifactUnavailable) {
		t.Errorf("expected ErrArtifactUnavailable without plan model, got %v", err)
	}
}
