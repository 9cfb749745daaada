// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package retrain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDataset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		rows    int
		wantErr bool
	}{
		{"valid", "a,b,Churn\n1,2,0\n3,4,1\n", 2, false},
		{"spaces trimmed", "a,Churn\n 1 , 1\n", 1, false},
		{"empty file", "", 0, true},
		{"header only", "a,Churn\n", 0, true},
		{"single column", "Churn\n1\n", 0, true},
		{"ragged row", "a,b,Churn\n1,2,0\n3,1\n", 0, true},
		{"non-numeric cell", "a,Churn\nx,0\n", 0, true},
		{"label out of range", "a,Churn\n1,2\n", 0, true},
		{"infinite cell", "a,Churn\nInf,0\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ds, err := ParseDataset(strings.NewReader(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDataset) {
					t.Fatalf("expected ErrInvalidDataset, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataset() error = %v", err)
			}
			if ds.Len() != tt.rows {
				t.Errorf("Len() = %d, want %d", ds.Len(), tt.rows)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	ds := &Dataset{}
	for i := 0; i < 11; i++ {
		ds.X = append(ds.X, []float64{float64(i)})
		ds.Y = append(ds.Y, float64(i%2))
	}

	train, test := ds.Split(42, 0.2)
	if test.Len() != 3 || train.Len() != 8 {
		t.Fatalf("split = %d/%d, want 8/3", train.Len(), test.Len())
	}

	seen := map[float64]bool{}
	for _, part := range []*Dataset{train, test} {
		for i, row := range part.X {
			if seen[row[0]] {
				t.Errorf("row %v appears twice", row[0])
			}
			seen[row[0]] = true
			if part.Y[i] != float64(int(row[0])%2) {
				t.Errorf("label detached from row %v", row[0])
			}
		}
	}

	again, _ := ds.Split(42, 0.2)
	for i := range again.X {
		if again.X[i][0] != train.X[i][0] {
			t.Fatal("split is not reproducible for the same seed")
		}
	}
}
