// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/history"
)

func peer() features.Vector {
	return features.Vector{45, 1, 60000, 2000, 3000, 700, 0, 10, 1, 0, 0, 2}
}

func newTable(t *testing.T, rows []features.Vector, labels []int) *history.Table {
	t.Helper()

	tbl, err := history.NewTable(rows, labels)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func repeat(v features.Vector, n int) []features.Vector {
	out := make([]features.Vector, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNearestNeighbors_CountAndOrder(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 3, 10, 25} {
		rows := make([]features.Vector, n)
		labels := make([]int, n)
		for i := range rows {
			rows[i] = peer()
			rows[i][features.Earnings] = float64(1000 * (i + 1))
		}
		s := NewSimilarityRecommender(newTable(t, rows, labels))

		got := s.NearestNeighbors(peer(), Neighbors)
		want := n
		if want > Neighbors {
			want = Neighbors
		}
		if len(got) != want {
			t.Errorf("n=%d: got %d neighbors, want %d", n, len(got), want)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Similarity > got[i-1].Similarity {
				t.Errorf("n=%d: neighbors not sorted descending at %d", n, i)
			}
		}
	}
}

func TestNearestNeighbors_StableOnTies(t *testing.T) {
	t.Parallel()

	s := NewSimilarityRecommender(newTable(t, repeat(peer(), 12), make([]int, 12)))
	got := s.NearestNeighbors(peer(), Neighbors)
	for i, nb := range got {
		if nb.Index != i {
			t.Fatalf("position %d holds row %d, want %d", i, nb.Index, i)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	a := features.Vector{1, 0}
	b := features.Vector{0, 1}
	if got := cosineSimilarity(a, b); got != 0 {
		t.Errorf("orthogonal = %v, want 0", got)
	}
	if got := cosineSimilarity(a, a); got < 0.999999 {
		t.Errorf("identical = %v, want 1", got)
	}
	if got := cosineSimilarity(features.Vector{}, a); got != 0 {
		t.Errorf("zero vector = %v, want 0", got)
	}
}

func TestRecommend_InsufficientData(t *testing.T) {
	t.Parallel()

	// The ten most similar rows all churned; the satisfied rows rank lower.
	rows := repeat(peer(), 10)
	labels := make([]int, 10)
	for i := range labels {
		labels[i] = 1
	}
	rows = append(rows, features.Vector{1}, features.Vector{1})
	labels = append(labels, 0, 0)

	tests := []struct {
		name string
		tbl  *history.Table
	}{
		{"all top neighbors churned", newTable(t, rows, labels)},
		{"empty table", newTable(t, nil, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recs, err := NewSimilarityRecommender(tt.tbl).Recommend(context.Background(), peer())
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 1 || len(recs[CategoryGeneral]) != 1 || recs[CategoryGeneral][0] != msgInsufficientData {
				t.Errorf("expected only General insufficient-data message, got %v", recs)
			}
		})
	}
}

func TestRecommend_Rules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		peers      func() []features.Vector
		target     func(*features.Vector)
		wantKeys   []string
		wantSubstr map[string]string
	}{
		{
			name:     "identical peers yield general optimal",
			peers:    func() []features.Vector { return repeat(peer(), 4) },
			target:   func(*features.Vector) {},
			wantKeys: []string{CategoryGeneral},
			wantSubstr: map[string]string{
				CategoryGeneral: "appears optimal",
			},
		},
		{
			name: "majority health coverage suggests health",
			peers: func() []features.Vector {
				rows := repeat(peer(), 4)
				for i := 0; i < 3; i++ {
					rows[i][features.HealthInsuranceFlag] = 1
				}
				return rows
			},
			target:     func(*features.Vector) {},
			wantKeys:   []string{CategoryInsuranceOptions},
			wantSubstr: map[string]string{CategoryInsuranceOptions: "Health"},
		},
		{
			name: "exactly half adoption does not fire",
			peers: func() []features.Vector {
				rows := repeat(peer(), 4)
				rows[0][features.LifeInsuranceFlag] = 1
				rows[1][features.LifeInsuranceFlag] = 1
				return rows
			},
			target:   func(*features.Vector) {},
			wantKeys: []string{CategoryGeneral},
		},
		{
			name:       "claim below band",
			peers:      func() []features.Vector { return repeat(peer(), 3) },
			target:     func(v *features.Vector) { v[features.ClaimAmount] = 1999.4 },
			wantKeys:   []string{CategoryClaimOptimization},
			wantSubstr: map[string]string{CategoryClaimOptimization: "under-utilizing"},
		},
		{
			name:       "claim above band",
			peers:      func() []features.Vector { return repeat(peer(), 3) },
			target:     func(v *features.Vector) { v[features.ClaimAmount] = 2000.6 },
			wantKeys:   []string{CategoryClaimOptimization},
			wantSubstr: map[string]string{CategoryClaimOptimization: "premium plan"},
		},
		{
			name:     "claim inside band",
			peers:    func() []features.Vector { return repeat(peer(), 3) },
			target:   func(v *features.Vector) { v[features.ClaimAmount] = 2000.4 },
			wantKeys: []string{CategoryGeneral},
		},
		{
			name:     "credit slightly low",
			peers:    func() []features.Vector { return repeat(peer(), 3) },
			target:   func(v *features.Vector) { v[features.CreditScore] = 699.85 },
			wantKeys: []string{CategoryCreditImprovement},
		},
		{
			name:     "credit within margin",
			peers:    func() []features.Vector { return repeat(peer(), 3) },
			target:   func(v *features.Vector) { v[features.CreditScore] = 699.95 },
			wantKeys: []string{CategoryGeneral},
		},
		{
			name:     "young",
			peers:    func() []features.Vector { return repeat(peer(), 3) },
			target:   func(v *features.Vector) { v[features.Age] = 29 },
			wantKeys: []string{CategoryYoungCustomer},
		},
		{
			name:     "senior",
			peers:    func() []features.Vector { return repeat(peer(), 3) },
			target:   func(v *features.Vector) { v[features.Age] = 56 },
			wantKeys: []string{CategorySeniorCustomer},
		},
		{
			name:     "age boundaries fire nothing",
			peers:    func() []features.Vector { return repeat(peer(), 3) },
			target:   func(v *features.Vector) { v[features.Age] = 30 },
			wantKeys: []string{CategoryGeneral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rows := tt.peers()
			tbl := newTable(t, rows, make([]int, len(rows)))
			target := peer()
			tt.target(&target)

			recs, err := NewSimilarityRecommender(tbl).Recommend(context.Background(), target)
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != len(tt.wantKeys) {
				t.Fatalf("got categories %v, want %v", recs, tt.wantKeys)
			}
			for _, k := range tt.wantKeys {
				if len(recs[k]) == 0 {
					t.Errorf("missing category %s in %v", k, recs)
				}
			}
			for k, sub := range tt.wantSubstr {
				if !strings.Contains(strings.Join(recs[k], " "), sub) {
					t.Errorf("%s = %v, want substring %q", k, recs[k], sub)
				}
			}
		})
	}
}

func TestRecommend_AgeCombinesWithOtherRules(t *testing.T) {
	t.Parallel()

	rows := repeat(peer(), 3)
	target := peer()
	target[features.Age] = 25
	target[features.ClaimAmount] = 100

	recs, err := NewSimilarityRecommender(newTable(t, rows, make([]int, 3))).Recommend(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := recs[CategoryYoungCustomer]; !ok {
		t.Error("expected Young_Customer")
	}
	if _, ok := recs[CategoryClaimOptimization]; !ok {
		t.Error("expected Claim_Optimization")
	}
	if _, ok := recs[CategoryGeneral]; ok {
		t.Error("General must not appear when another rule fired")
	}
}
