// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/insurepredict/internal/registry"
)

func TestRetrainCommand_WritesModel(t *testing.T) {
	dataset := writeHistory(t, 120)
	output := filepath.Join(t.TempDir(), "models", "churn_model.gbt")

	out, _, err := execute(t, "retrain", "--dataset", dataset, "--output", output, "--trees", "10", "--max-depth", "3")
	require.NoError(t, err)
	require.Contains(t, out, "Model retrained and saved at: "+output)
	require.Contains(t, out, "Holdout accuracy:")

	meta, err := registry.ReadMetadata(output)
	require.NoError(t, err)
	require.Equal(t, 10, meta.Trees)
	require.Equal(t, 12, meta.NumFeatures)
}

func TestRetrainCommand_JSONOutput(t *testing.T) {
	dataset := writeHistory(t, 60)
	output := filepath.Join(t.TempDir(), "churn_model.gbt")

	out, _, err := execute(t, "retrain", "--dataset", dataset, "--output", output, "--trees", "5", "-o", "json")
	require.NoError(t, err)

	var res struct {
		Path        string  `json:"path"`
		Accuracy    float64 `json:"accuracy"`
		TrainRows   int     `json:"train_rows"`
		HoldoutRows int     `json:"holdout_rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, output, res.Path)
	require.Equal(t, 60, res.TrainRows+res.HoldoutRows)
	require.GreaterOrEqual(t, res.Accuracy, 0.0)
	require.LessOrEqual(t, res.Accuracy, 1.0)
}

func TestRetrainCommand_Errors(t *testing.T) {
	corruptScaler := filepath.Join(t.TempDir(), "scaler_churn.json")
	require.NoError(t, os.WriteFile(corruptScaler, []byte("{"), 0o600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing required flags",
			args: []string{"retrain"},
			want: "required flag",
		},
		{
			name: "dataset not found",
			args: []string{"retrain", "--dataset", filepath.Join(t.TempDir(), "absent.csv"), "--output", filepath.Join(t.TempDir(), "m.gbt")},
			want: "training dataset not found",
		},
		{
			name: "corrupt scaler",
			args: []string{"retrain", "--dataset", writeHistory(t, 30), "--output", filepath.Join(t.TempDir(), "m.gbt"), "--scaler", corruptScaler},
			want: "load churn scaler",
		},
		{
			name: "bad test fraction",
			args: []string{"retrain", "--dataset", "x.csv", "--output", "m.gbt", "--test-fraction", "1.5"},
			want: "--test-fraction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
