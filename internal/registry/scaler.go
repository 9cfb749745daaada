// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package registry

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/insurepredict/internal/features"
)

// Scaler standardizes selected columns: x' = (x - mean) / scale.
type Scaler struct {
	Columns []int     `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// Validate checks the scaler's shape.
func (s *Scaler) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("scaler has no columns")
	}
	if len(s.Mean) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
		return fmt.Errorf("scaler has %d columns but %d means and %d scales",
			len(s.Columns), len(s.Mean), len(s.Scale))
	}
	for _, c := range s.Columns {
		if c < 0 || c >= features.Count {
			return fmt.Errorf("scaler column %d out of range", c)
		}
	}
	return nil
}

// Transform returns a copy of v with the scaler's columns standardized.
// A zero scale is treated as 1, matching how constant columns are fitted.
// A nil scaler returns v unchanged.
func (s *Scaler) Transform(v features.Vector) features.Vector {
	if s == nil {
		return v
	}
	_ = s.TransformRow(v[:]) //nolint:errcheck // a Vector always has every column
	return v
}

// TransformRow standardizes the scaler's columns of row in place. It fails
// without touching row when row is too short for a scaled column.
func (s *Scaler) TransformRow(row []float64) error {
	if s == nil {
		return nil
	}
	for _, c := range s.Columns {
		if c >= len(row) {
			return fmt.Errorf("scaler column %d out of range for %d values", c, len(row))
		}
	}
	for i, c := range s.Columns {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		row[c] = (row[c] - s.Mean[i]) / scale
	}
	return nil
}

// FitScaler computes mean and population standard deviation of columns
// over rows.
func FitScaler(rows []features.Vector, columns []int) *Scaler {
	s := &Scaler{
		Columns: append([]int(nil), columns...),
		Mean:    make([]float64, len(columns)),
		Scale:   make([]float64, len(columns)),
	}
	if len(rows) == 0 {
		for i := range s.Scale {
			s.Scale[i] = 1
		}
		return s
	}
	n := float64(len(rows))
	for i, c := range columns {
		var sum float64
		for _, r := range rows {
			sum += r[c]
		}
		mean := sum / n
		var ss float64
		for _, r := range rows {
			d := r[c] - mean
			ss += d * d
		}
		s.Mean[i] = mean
		s.Scale[i] = math.Sqrt(ss / n)
	}
	return s
}

// LoadScaler reads a JSON scaler from path.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveScaler writes s to path as JSON, atomically.
func SaveScaler(path string, s *Scaler) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scaler: %w", err)
	}
	return WriteFileAtomic(path, data, 0o640)
}
