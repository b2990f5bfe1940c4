package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"

	"tabbench/pkg/data"
	"tabbench/pkg/nn"
	"tabbench/pkg/optim"
)

// LogisticRegression (binary) with sigmoid, trained with mini-batch SGD on
// the binary cross-entropy. Targets are 0/1.
type LogisticRegression struct {
	W         []float64 // weights
	B         float64   // bias
	Lr        float64
	Epochs    int
	BatchSize int

	rng *rand.Rand
}

// NewLogisticRegression initializes a new Logistic Regression model.
func NewLogisticRegression(nFeatures int, lr float64, epochs int, batchSize int, seed int64) *LogisticRegression {
	rng := rand.New(rand.NewSource(seed))
	w := initWeights(nFeatures, rng)
	return &LogisticRegression{W: w, Lr: lr, Epochs: epochs, BatchSize: batchSize, rng: rng}
}

// PredictProba returns p(y=1) for each row in X.
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	out := make([]float64, len(X))
	parallelRows(len(X), func(s, e int) {
		for i := s; i < e; i++ {
			out[i] = nn.Sigmoid(m.B + dot(m.W, X[i]))
		}
	})
	return out
}

// Predict thresholds PredictProba at 0.5.
func (m *LogisticRegression) Predict(X [][]float64) []float64 {
	proba := m.PredictProba(X)
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func (m *LogisticRegression) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("logistic: X and y must be non-empty and of equal length")
	}
	if len(m.W) == 0 {
		m.W = initWeights(len(X[0]), m.rng)
	}
	if len(m.W) != len(X[0]) {
		return errors.New("logistic: feature count mismatch between model and data")
	}
	opt := optim.NewSGD(m.Lr)

	for ep := 0; ep < m.Epochs; ep++ {
		for batch := range data.Batcher(ctx, X, y, m.BatchSize, m.rng) {
			p := m.PredictProba(batch.X)
			_, dy := nn.BCE(batch.Y, p)
			gW, gb := linearGrads(batch.X, dy, len(m.W))
			opt.Step(m.W, gW)
			opt.StepScalar(&m.B, gb)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !finite(m.W) || math.IsNaN(m.B) || math.IsInf(m.B, 0) {
			return ErrDiverged
		}
	}
	return nil
}

// OneVsRest turns binary logistic regressions into a multiclass classifier.
// With two classes a single model is trained.
type OneVsRest struct {
	New func() *LogisticRegression

	Classes []float64
	models  []*LogisticRegression
}

func (o *OneVsRest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	o.Classes = uniqueSorted(y)
	if len(o.Classes) < 2 {
		return errors.New("logistic: need at least two classes")
	}
	positives := o.Classes
	if len(o.Classes) == 2 {
		positives = o.Classes[1:]
	}
	o.models = make([]*LogisticRegression, len(positives))
	for k, cls := range positives {
		target := make([]float64, len(y))
		for i, v := range y {
			if v == cls {
				target[i] = 1
			}
		}
		m := o.New()
		if err := m.Fit(ctx, X, target); err != nil {
			return err
		}
		o.models[k] = m
	}
	return nil
}

func (o *OneVsRest) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(o.models) == 1 {
		for i, p := range o.models[0].PredictProba(X) {
			out[i] = o.Classes[0]
			if p >= 0.5 {
				out[i] = o.Classes[1]
			}
		}
		return out
	}
	best := make([]float64, len(X))
	for k, m := range o.models {
		for i, p := range m.PredictProba(X) {
			if k == 0 || p > best[i] {
				best[i] = p
				out[i] = o.Classes[k]
			}
		}
	}
	return out
}

func uniqueSorted(y []float64) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
