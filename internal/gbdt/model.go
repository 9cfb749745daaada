// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package gbdt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Objective selects the loss a Model is trained with.
type Objective string

const (
	// Binary is logistic loss over labels {0,1}.
	Binary Objective = "binary:logistic"
	// Regression is squared error.
	Regression Objective = "reg:squarederror"
	// Multiclass is softmax loss over arbitrary integer class labels.
	Multiclass Objective = "multi:softmax"
)

var (
	// ErrFeatureMismatch is returned when an input row has the wrong width.
	ErrFeatureMismatch = errors.New("feature count mismatch")

	// ErrWrongObjective is returned when a prediction method does not match
	// the objective the model was trained with.
	ErrWrongObjective = errors.New("prediction not supported for objective")

	// ErrEmptyDataset is returned by Fit when there are no rows.
	ErrEmptyDataset = errors.New("empty training set")
)

// Params are the boosting hyperparameters.
type Params struct {
	NumTrees       int     `json:"num_trees"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	Lambda         float64 `json:"lambda"`
	MinChildWeight float64 `json:"min_child_weight"`
}

// DefaultParams returns 100 trees of depth 5 at learning rate 0.1.
func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		MaxDepth:       5,
		LearningRate:   0.1,
		Lambda:         1.0,
		MinChildWeight: 1.0,
	}
}

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	if p.NumTrees <= 0 {
		return fmt.Errorf("num_trees must be positive, got %d", p.NumTrees)
	}
	if p.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", p.MaxDepth)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %g", p.LearningRate)
	}
	if p.Lambda < 0 || p.MinChildWeight < 0 {
		return fmt.Errorf("lambda and min_child_weight must be non-negative")
	}
	return nil
}

// Model is a trained ensemble. Trees[round][class] holds one tree per class
// per boosting round; binary and regression models have a single class slot.
type Model struct {
	Objective   Objective
	NumFeatures int
	Classes     []int
	BaseScore   []float64
	Trees       [][]Tree
	Params      Params
}

// Fit trains a model on rows x with targets y. For Binary, y must be 0 or 1.
// For Multiclass, y holds integer class labels. The context is checked
// between boosting rounds.
func Fit(ctx context.Context, x [][]float64, y []float64, obj Objective, params Params) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d rows but %d targets", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d: %w: expected %d, got %d", i, ErrFeatureMismatch, width, len(row))
		}
	}

	m := &Model{Objective: obj, NumFeatures: width, Params: params}
	targets, err := m.init(y)
	if err != nil {
		return nil, err
	}

	k := len(m.BaseScore)
	n := len(x)
	raw := make([][]float64, n)
	for i := range raw {
		raw[i] = append([]float64(nil), m.BaseScore...)
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	b := &builder{x: x, grad: grad, hess: hess, params: params}

	m.Trees = make([][]Tree, 0, params.NumTrees)
	for round := 0; round < params.NumTrees; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training interrupted after %d trees: %w", round, err)
		}

		var probs [][]float64
		if obj == Multiclass {
			probs = make([][]float64, n)
			for i := range raw {
				probs[i] = softmax(raw[i])
			}
		}

		trees := make([]Tree, k)
		for c := 0; c < k; c++ {
			for i := 0; i < n; i++ {
				grad[i], hess[i] = m.gradient(raw[i], probs, i, c, targets[i])
			}
			trees[c] = b.build(rows)
		}
		for i := 0; i < n; i++ {
			for c := 0; c < k; c++ {
				raw[i][c] += trees[c].predict(x[i])
			}
		}
		m.Trees = append(m.Trees, trees)
	}
	return m, nil
}

// init sets Classes and BaseScore and returns per-row encoded targets.
func (m *Model) init(y []float64) ([]float64, error) {
	switch m.Objective {
	case Binary:
		var pos float64
		for i, v := range y {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("row %d: binary label must be 0 or 1, got %g", i, v)
			}
			pos += v
		}
		p := clamp(pos/float64(len(y)), 1e-6, 1-1e-6)
		m.Classes = []int{0, 1}
		m.BaseScore = []float64{math.Log(p / (1 - p))}
		return y, nil

	case Regression:
		var sum float64
		for _, v := range y {
			sum += v
		}
		m.BaseScore = []float64{sum / float64(len(y))}
		return y, nil

	case Multiclass:
		seen := map[int]int{}
		for i, v := range y {
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("row %d: class label must be an integer, got %g", i, v)
			}
			seen[int(v)]++
		}
		if len(seen) < 2 {
			return nil, fmt.Errorf("multiclass needs at least 2 classes, got %d", len(seen))
		}
		m.Classes = make([]int, 0, len(seen))
		for c := range seen {
			m.Classes = append(m.Classes, c)
		}
		sort.Ints(m.Classes)

		pos := make(map[int]int, len(m.Classes))
		m.BaseScore = make([]float64, len(m.Classes))
		for i, c := range m.Classes {
			pos[c] = i
			m.BaseScore[i] = math.Log(float64(seen[c]) / float64(len(y)))
		}
		encoded := make([]float64, len(y))
		for i, v := range y {
			encoded[i] = float64(pos[int(v)])
		}
		return encoded, nil

	default:
		return nil, fmt.Errorf("unknown objective %q", m.Objective)
	}
}

func (m *Model) gradient(raw []float64, probs [][]float64, row, class int, target float64) (g, h float64) {
	switch m.Objective {
	case Binary:
		p := sigmoid(raw[0])
		return p - target, math.Max(p*(1-p), 1e-16)
	case Multiclass:
		p := probs[row][class]
		var t float64
		if int(target) == class {
			t = 1
		}
		return p - t, math.Max(p*(1-p), 1e-16)
	default:
		return raw[0] - target, 1
	}
}

// Validate checks structural integrity after deserialization.
func (m *Model) Validate() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("num_features must be positive")
	}
	want := 1
	switch m.Objective {
	case Binary, Regression:
	case Multiclass:
		if len(m.Classes) < 2 {
			return fmt.Errorf("multiclass model has %d classes", len(m.Classes))
		}
		want = len(m.Classes)
	default:
		return fmt.Errorf("unknown objective %q", m.Objective)
	}
	if len(m.BaseScore) != want {
		return fmt.Errorf("base score has %d entries, want %d", len(m.BaseScore), want)
	}
	for r, round := range m.Trees {
		if len(round) != want {
			return fmt.Errorf("round %d has %d trees, want %d", r, len(round), want)
		}
		for c := range round {
			if err := round[c].validate(m.NumFeatures); err != nil {
				return fmt.Errorf("round %d class %d: %w", r, c, err)
			}
		}
	}
	return nil
}

// raw returns the untransformed ensemble output per class.
func (m *Model) raw(x []float64) ([]float64, error) {
	if len(x) != m.NumFeatures {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrFeatureMismatch, m.NumFeatures, len(x))
	}
	out := append([]float64(nil), m.BaseScore...)
	for _, round := range m.Trees {
		for c := range round {
			out[c] += round[c].predict(x)
		}
	}
	return out, nil
}

// PredictProba returns the positive-class probability of a Binary model.
func (m *Model) PredictProba(x []float64) (float64, error) {
	if m.Objective != Binary {
		return 0, fmt.Errorf("%w %q", ErrWrongObjective, m.Objective)
	}
	r, err := m.raw(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(r[0]), nil
}

// Predict returns the output of a Regression model.
func (m *Model) Predict(x []float64) (float64, error) {
	if m.Objective != Regression {
		return 0, fmt.Errorf("%w %q", ErrWrongObjective, m.Objective)
	}
	r, err := m.raw(x)
	if err != nil {
		return 0, err
	}
	return r[0], nil
}

// PredictClass returns the most probable class label of a Multiclass model.
// Ties resolve to the lowest label.
func (m *Model) PredictClass(x []float64) (int, error) {
	if m.Objective != Multiclass {
		return 0, fmt.Errorf("%w %q", ErrWrongObjective, m.Objective)
	}
	r, err := m.raw(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(r); c++ {
		if r[c] > r[best] {
			best = c
		}
	}
	return m.Classes[best], nil
}

// Accuracy scores a Binary model on labelled rows at the strict p > 0.5 cut.
func (m *Model) Accuracy(x [][]float64, y []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyDataset
	}
	correct := 0
	for i := range x {
		p, err := m.PredictProba(x[i])
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
		var label float64
		if p > 0.5 {
			label = 1
		}
		if label == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x)), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(z []float64) []float64 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
