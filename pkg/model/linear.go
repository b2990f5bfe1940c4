package model

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"tabbench/pkg/data"
	"tabbench/pkg/nn"
	"tabbench/pkg/optim"
)

// ErrDiverged is returned when gradient descent produces non-finite weights.
var ErrDiverged = errors.New("model: training diverged")

// LinearRegression via mini-batch gradient descent.
type LinearRegression struct {
	W         []float64 // weights
	B         float64   // bias
	Lr        float64
	Epochs    int
	BatchSize int

	rng *rand.Rand
}

// NewLinearRegression initializes a new Linear Regression model with the specified parameters.
func NewLinearRegression(nFeatures int, lr float64, epochs int, batchSize int, seed int64) *LinearRegression {
	rng := rand.New(rand.NewSource(seed))
	w := initWeights(nFeatures, rng)
	return &LinearRegression{W: w, Lr: lr, Epochs: epochs, BatchSize: batchSize, rng: rng}
}

// Predict returns predictions for rows in X, spread across CPU cores.
func (m *LinearRegression) Predict(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	pred := make([]float64, len(X))
	parallelRows(len(X), func(s, e int) {
		for i := s; i < e; i++ {
			pred[i] = m.B + dot(m.W, X[i])
		}
	})
	return pred
}

// Fit trains the model with mini-batch SGD on the MSE loss. Each epoch draws
// a fresh shuffled pass of batches.
func (m *LinearRegression) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("linear: X and y must be non-empty and of equal length")
	}
	if len(m.W) == 0 {
		m.W = initWeights(len(X[0]), m.rng)
	}
	if len(m.W) != len(X[0]) {
		return errors.New("linear: feature count mismatch between model and data")
	}
	opt := optim.NewSGD(m.Lr)

	for ep := 0; ep < m.Epochs; ep++ {
		for batch := range data.Batcher(ctx, X, y, m.BatchSize, m.rng) {
			yhat := m.Predict(batch.X)
			_, dy := nn.MSE(batch.Y, yhat)
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

// linearGrads back-propagates per-row output gradients dy to the weights and bias.
func linearGrads(X [][]float64, dy []float64, nFeatures int) ([]float64, float64) {
	gW := make([]float64, nFeatures)
	gb := 0.0
	for i, row := range X {
		d := dy[i]
		for j, xij := range row {
			gW[j] += d * xij
		}
		gb += d
	}
	return gW, gb
}

func dot(w, x []float64) float64 {
	s := 0.0
	for j, v := range x {
		s += w[j] * v
	}
	return s
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// initWeights draws small random weights; nFeatures 0 defers sizing to Fit.
func initWeights(nFeatures int, rng *rand.Rand) []float64 {
	w := make([]float64, nFeatures)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.01
	}
	return w
}
