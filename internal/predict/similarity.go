// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package predict

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/history"
)

// Neighbors is how many similar customers the recommender inspects.
const Neighbors = 10

// Rule thresholds. These are business rules, not learned values.
const (
	adoptionRate   = 0.5
	claimTolerance = 0.5
	creditMargin   = 0.1
	youngAge       = 30
	seniorAge      = 55
)

// Recommendation categories.
const (
	CategoryGeneral           = "General"
	CategoryInsuranceOptions  = "Insurance_Options"
	CategoryClaimOptimization = "Claim_Optimization"
	CategoryCreditImprovement = "Credit_Improvement"
	CategoryYoungCustomer     = "Young_Customer"
	CategorySeniorCustomer    = "Senior_Customer"
)

const (
	msgInsufficientData = "Insufficient data from similar satisfied customers to generate recommendations."
	msgPlanOptimal      = "Your current plan appears optimal based on similar customers."
	msgUnavailable      = "Recommendations are temporarily unavailable."
)

var coverageNames = map[int]string{
	features.AutoInsuranceFlag:   "Auto",
	features.HealthInsuranceFlag: "Health",
	features.LifeInsuranceFlag:   "Life",
}

// Neighbor is one ranked row of the history table.
type Neighbor struct {
	Index      int
	Similarity float64
}

// SimilarityRecommender derives recommendations from the customers in the
// history snapshot that most resemble the target and did not churn.
type SimilarityRecommender struct {
	table *history.Table
}

// NewSimilarityRecommender binds a history snapshot. A nil table is treated
// as empty.
func NewSimilarityRecommender(table *history.Table) *SimilarityRecommender {
	if table == nil {
		table, _ = history.NewTable(nil, nil)
	}
	return &SimilarityRecommender{table: table}
}

// NearestNeighbors returns the min(n, rows) most similar rows in descending
// order of cosine similarity. Equal similarities keep table order.
func (s *SimilarityRecommender) NearestNeighbors(v features.Vector, n int) []Neighbor {
	ranked := make([]Neighbor, s.table.Len())
	for i := range ranked {
		ranked[i] = Neighbor{Index: i, Similarity: cosineSimilarity(v, s.table.Row(i))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Recommend returns rule-based suggestions for v.
func (s *SimilarityRecommender) Recommend(_ context.Context, v features.Vector) (RecommendationMap, error) {
	var peers []features.Vector
	for _, nb := range s.NearestNeighbors(v, Neighbors) {
		if s.table.Label(nb.Index) == 0 {
			peers = append(peers, s.table.Row(nb.Index))
		}
	}
	if len(peers) == 0 {
		return RecommendationMap{CategoryGeneral: {msgInsufficientData}}, nil
	}

	recs := RecommendationMap{}

	for _, f := range features.InsuranceFlags {
		if v.HasFlag(f) {
			continue
		}
		if mean(peers, f) > adoptionRate {
			recs[CategoryInsuranceOptions] = append(recs[CategoryInsuranceOptions],
				fmt.Sprintf("Consider adding %s insurance; most similar satisfied customers have it.", coverageNames[f]))
		}
	}

	avgClaim := mean(peers, features.ClaimAmount)
	switch claim := v[features.ClaimAmount]; {
	case claim < avgClaim-claimTolerance:
		recs[CategoryClaimOptimization] = []string{
			"Your claim amount is lower than similar satisfied customers; you may be under-utilizing your benefits.",
		}
	case claim > avgClaim+claimTolerance:
		recs[CategoryClaimOptimization] = []string{
			"Your claim amount differs from similar satisfied customers; consider a premium plan with higher coverage.",
		}
	}

	if v[features.CreditScore] < mean(peers, features.CreditScore)-creditMargin {
		recs[CategoryCreditImprovement] = []string{
			"Improving your credit score could qualify you for better premiums enjoyed by similar customers.",
		}
	}

	switch age := v[features.Age]; {
	case age < youngAge:
		recs[CategoryYoungCustomer] = []string{
			"Lock in long-term life insurance while premiums are low.",
			"Bundle auto and health coverage for young-professional discounts.",
		}
	case age > seniorAge:
		recs[CategorySeniorCustomer] = []string{
			"Consider enhanced health coverage suited to senior needs.",
			"Review life insurance and retirement-focused plan options.",
		}
	}

	if len(recs) == 0 {
		recs[CategoryGeneral] = []string{msgPlanOptimal}
	}
	return recs, nil
}

func mean(rows []features.Vector, col int) float64 {
	var sum float64
	for _, r := range rows {
		sum += r[col]
	}
	return sum / float64(len(rows))
}

// cosineSimilarity returns 0 when either vector has zero norm.
func cosineSimilarity(a, b features.Vector) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
