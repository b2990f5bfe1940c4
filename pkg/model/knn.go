package model

import (
	"context"
	"errors"
	"sort"
)

// KNN predicts from the K nearest training rows: the majority class for
// classification, the mean target for regression.
type KNN struct {
	K          int
	Regression bool

	X [][]float64
	y []float64
}

// NewKNN creates and returns a new KNN model.
func NewKNN(k int, regression bool) *KNN {
	return &KNN{K: k, Regression: regression}
}

// Fit stores the training data; all work happens at prediction time.
func (m *KNN) Fit(_ context.Context, X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return errors.New("knn: the number of feature vectors must match the number of labels")
	}
	if m.K < 1 {
		return errors.New("knn: K must be at least 1")
	}
	m.X = X
	m.y = y
	return nil
}

// Predict answers every row of X, spread across CPU cores.
func (m *KNN) Predict(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	out := make([]float64, len(X))
	parallelRows(len(X), func(s, e int) {
		for i := s; i < e; i++ {
			out[i] = m.predictSingle(X[i])
		}
	})
	return out
}

type neighbor struct {
	d float64
	v float64
}

// predictSingle keeps a small sorted slice of the K nearest rows seen so far.
func (m *KNN) predictSingle(xi []float64) float64 {
	nbrs := make([]neighbor, 0, m.K+1)
	for j, xj := range m.X {
		d := euclidSquared(xi, xj)
		if len(nbrs) < m.K {
			nbrs = append(nbrs, neighbor{d: d, v: m.y[j]})
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		} else if d < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = neighbor{d: d, v: m.y[j]}
			sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		}
	}
	if len(nbrs) == 0 {
		return 0
	}

	if m.Regression {
		sum := 0.0
		for _, p := range nbrs {
			sum += p.v
		}
		return sum / float64(len(nbrs))
	}

	// Majority vote; ties go to the smaller label.
	votes := make(map[float64]int)
	for _, p := range nbrs {
		votes[p.v]++
	}
	best, bestCount := 0.0, -1
	for label, c := range votes {
		if c > bestCount || (c == bestCount && label < best) {
			best, bestCount = label, c
		}
	}
	return best
}

// euclidSquared avoids the square root since only the ordering matters.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
