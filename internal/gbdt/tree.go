// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package gbdt

import (
	"fmt"
	"sort"
)

// Node is one node of a Tree. Leaves carry Value; internal nodes route
// x[Feature] < Threshold to Left and everything else to Right.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Leaf      bool
	Value     float64
}

// Tree is a flat array of nodes rooted at index 0.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t *Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// Children always follow their parent, which also rules out cycles.
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// builder grows one tree from per-row gradients and hessians.
type builder struct {
	x      [][]float64
	grad   []float64
	hess   []float64
	params Params
	nodes  []Node
}

func (b *builder) build(rows []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(rows, 0)
	nodes := make([]Node, len(b.nodes))
	copy(nodes, b.nodes)
	return Tree{Nodes: nodes}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func (b *builder) grow(rows []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{})

	g, h := b.sums(rows)
	if depth >= b.params.MaxDepth || len(rows) < 2 {
		b.nodes[idx] = b.leaf(g, h)
		return idx
	}

	best, ok := b.bestSplit(rows, g, h)
	if !ok {
		b.nodes[idx] = b.leaf(g, h)
		return idx
	}

	left := b.grow(best.left, depth+1)
	right := b.grow(best.right, depth+1)
	b.nodes[idx] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      left,
		Right:     right,
	}
	return idx
}

func (b *builder) sums(rows []int) (g, h float64) {
	for _, r := range rows {
		g += b.grad[r]
		h += b.hess[r]
	}
	return g, h
}

func (b *builder) leaf(g, h float64) Node {
	return Node{Leaf: true, Value: -g / (h + b.params.Lambda) * b.params.LearningRate}
}

func (b *builder) score(g, h float64) float64 {
	return g * g / (h + b.params.Lambda)
}

// bestSplit scans features in index order and thresholds in ascending order,
// replacing the incumbent only on a strictly larger gain. That ordering is
// what makes training deterministic.
func (b *builder) bestSplit(rows []int, g, h float64) (split, bool) {
	var best split
	found := false
	parent := b.score(g, h)

	sorted := make([]int, len(rows))
	numFeatures := len(b.x[rows[0]])

	for f := 0; f < numFeatures; f++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		var gl, hl float64
		for i := 0; i < len(sorted)-1; i++ {
			r := sorted[i]
			gl += b.grad[r]
			hl += b.hess[r]

			cur, next := b.x[r][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}
			gain := b.score(gl, hl) + b.score(gr, hr) - parent
			if gain > minGain && (!found || gain > best.gain) {
				found = true
				best = split{feature: f, threshold: (cur + next) / 2, gain: gain}
			}
		}
	}
	if !found {
		return best, false
	}

	for _, r := range rows {
		if b.x[r][best.feature] < best.threshold {
			best.left = append(best.left, r)
		} else {
			best.right = append(best.right, r)
		}
	}
	return best, true
}

const minGain = 1e-12
