package model

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns two well separated 2-D clusters labelled 0 and 1.
func blobs(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		c := float64(i % 2)
		X = append(X, []float64{c*4 + rng.NormFloat64()*0.3, c*4 + rng.NormFloat64()*0.3})
		y = append(y, c)
	}
	return X, y
}

func TestLinearRegressionFit(t *testing.T) {
	X := make([][]float64, 100)
	y := make([]float64, 100)
	for i := range X {
		x := float64(i) / 100
		X[i] = []float64{x}
		y[i] = 2*x + 1
	}
	m := NewLinearRegression(0, 0.1, 300, 10, 1)
	require.NoError(t, m.Fit(context.Background(), X, y))
	assert.InDelta(t, 2.0, m.W[0], 0.1)
	assert.InDelta(t, 1.0, m.B, 0.1)
	assert.Less(t, MSE(y, m.Predict(X)), 1e-2)
}

func TestLinearRegressionDiverges(t *testing.T) {
	X := [][]float64{{1e6}, {2e6}, {3e6}}
	y := []float64{1, 2, 3}
	m := NewLinearRegression(1, 10, 50, 0, 1)
	assert.ErrorIs(t, m.Fit(context.Background(), X, y), ErrDiverged)
}

func TestFitStopsOnCancelledContext(t *testing.T) {
	X, y := blobs(50, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewLogisticRegression(2, 0.1, 1000, 8, 1).Fit(ctx, X, y), context.Canceled)
	assert.ErrorIs(t, NewDecisionTreeClassifier().Fit(ctx, X, y), context.Canceled)
	assert.ErrorIs(t, NewRandomForest(WithNEstimators(4)).Fit(ctx, X, y), context.Canceled)
}

func TestLogisticRegressionSeparable(t *testing.T) {
	X, y := blobs(200, 2)
	m := NewLogisticRegression(2, 0.5, 100, 16, 1)
	require.NoError(t, m.Fit(context.Background(), X, y))
	assert.GreaterOrEqual(t, Accuracy(y, m.Predict(X)), 0.98)
}

func TestOneVsRest(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	centers := [][]float64{{0, 0}, {5, 0}, {0, 5}}
	var X [][]float64
	var y []float64
	for i := 0; i < 300; i++ {
		c := i % 3
		X = append(X, []float64{centers[c][0] + rng.NormFloat64()*0.4, centers[c][1] + rng.NormFloat64()*0.4})
		y = append(y, float64(c+1))
	}
	o := &OneVsRest{New: func() *LogisticRegression { return NewLogisticRegression(0, 0.5, 100, 16, 1) }}
	require.NoError(t, o.Fit(context.Background(), X, y))
	assert.Equal(t, []float64{1, 2, 3}, o.Classes)
	assert.GreaterOrEqual(t, Accuracy(y, o.Predict(X)), 0.95)

	t.Run("binary labels keep their values", func(t *testing.T) {
		Xb, yb := blobs(100, 4)
		for i := range yb {
			yb[i] = yb[i]*5 + 2 // {2, 7}
		}
		o := &OneVsRest{New: func() *LogisticRegression { return NewLogisticRegression(0, 0.5, 100, 16, 1) }}
		require.NoError(t, o.Fit(context.Background(), Xb, yb))
		assert.ElementsMatch(t, []float64{2, 7}, uniqueSorted(o.Predict(Xb)))
	})

	t.Run("single class", func(t *testing.T) {
		o := &OneVsRest{New: func() *LogisticRegression { return NewLogisticRegression(0, 0.5, 1, 1, 1) }}
		assert.Error(t, o.Fit(context.Background(), [][]float64{{1}, {2}}, []float64{1, 1}))
	})
}

func TestKNN(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {10}, {11}, {12}}
	t.Run("classification", func(t *testing.T) {
		m := NewKNN(3, false)
		require.NoError(t, m.Fit(context.Background(), X, []float64{0, 0, 0, 1, 1, 1}))
		assert.Equal(t, []float64{0, 1}, m.Predict([][]float64{{0.5}, {11.5}}))
	})
	t.Run("regression", func(t *testing.T) {
		m := NewKNN(2, true)
		require.NoError(t, m.Fit(context.Background(), X, []float64{1, 3, 5, 7, 9, 11}))
		assert.InDelta(t, 2.0, m.Predict([][]float64{{0.4}})[0], 1e-12)
	})
	t.Run("invalid", func(t *testing.T) {
		assert.Error(t, NewKNN(0, false).Fit(context.Background(), X, make([]float64, 6)))
		assert.Error(t, NewKNN(1, false).Fit(context.Background(), X, make([]float64, 2)))
	})
}

func TestDecisionTree(t *testing.T) {
	X := [][]float64{{1, 0}, {2, 0}, {3, 1}, {4, 1}, {5, 0}, {6, 1}}
	y := []float64{0, 0, 0, 1, 1, 1}
	tree := NewDecisionTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.Fit(context.Background(), X, y))
	assert.Equal(t, y, tree.Predict(X))
	assert.Equal(t, []int{0, 1}, tree.Classes())

	t.Run("missing values follow the larger branch", func(t *testing.T) {
		pred := tree.Predict([][]float64{{math.NaN(), 0}})
		assert.Len(t, pred, 1)
	})

	t.Run("max depth", func(t *testing.T) {
		stump := NewDecisionTreeClassifier(WithMaxDepth(1), WithRandomState(1))
		require.NoError(t, stump.Fit(context.Background(), X, y))
		for _, p := range stump.PredictProba(X) {
			assert.InDelta(t, 1.0, p[0]+p[1], 1e-12)
		}
	})

	t.Run("missing values in training rows", func(t *testing.T) {
		Xn := [][]float64{{1}, {2}, {math.NaN()}, {math.NaN()}, {8}, {9}}
		yn := []float64{0, 0, 1, 1, 1, 1}
		tree := NewDecisionTreeClassifier(WithRandomState(1))
		require.NoError(t, tree.Fit(context.Background(), Xn, yn))
		assert.Equal(t, yn, tree.Predict(Xn))
		assert.Equal(t, []float64{0, 1}, tree.Predict([][]float64{{4}, {6}}))
	})

	t.Run("non integral labels", func(t *testing.T) {
		assert.Error(t, NewDecisionTreeClassifier().Fit(context.Background(), X, []float64{0, 0.5, 1, 1, 1, 1}))
	})
}

// noisyRows returns n rows of uniform features with random binary labels, so
// trees grow until every leaf is pure.
func noisyRows(n, p int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		X[i] = make([]float64, p)
		for j := range X[i] {
			X[i][j] = rng.Float64()
		}
		y[i] = float64(rng.Intn(2))
	}
	return X, y
}

func TestTreeFitStopsAtDeadline(t *testing.T) {
	X, y := noisyRows(20000, 3, 3)
	const deadline = 200 * time.Millisecond

	tests := []struct {
		name string
		est  Estimator
	}{
		{"tree", NewDecisionTreeClassifier(WithRandomState(1))},
		{"forest", NewRandomForest(WithNEstimators(8), WithForestSeed(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), deadline)
			defer cancel()

			start := time.Now()
			err := tt.est.Fit(ctx, X, y)
			elapsed := time.Since(start)
			if err != nil {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			}
			assert.Less(t, elapsed, 2*deadline, "fit ran %s past a %s deadline", elapsed, deadline)
		})
	}
}

func TestDecisionTreeBinaryRoundTrip(t *testing.T) {
	X, y := blobs(60, 5)
	tree := NewDecisionTreeClassifier(WithCriterion("entropy"), WithRandomState(2))
	require.NoError(t, tree.Fit(context.Background(), X, y))

	raw, err := tree.MarshalBinary()
	require.NoError(t, err)

	var restored DecisionTreeClassifier
	require.NoError(t, restored.UnmarshalBinary(raw))
	assert.Equal(t, tree.Predict(X), restored.Predict(X))
	assert.Equal(t, "entropy", restored.Criterion)

	_, err = NewDecisionTreeClassifier().MarshalBinary()
	assert.Error(t, err)
}

func TestRandomForest(t *testing.T) {
	X, y := blobs(120, 6)
	rf := NewRandomForest(WithNEstimators(15), WithForestSeed(7))
	require.NoError(t, rf.Fit(context.Background(), X, y))
	assert.Len(t, rf.Trees, 15)
	assert.GreaterOrEqual(t, Accuracy(y, rf.Predict(X)), 0.97)

	again := NewRandomForest(WithNEstimators(15), WithForestSeed(7))
	require.NoError(t, again.Fit(context.Background(), X, y))
	assert.Equal(t, rf.Predict(X), again.Predict(X), "same seed, same forest")

	assert.Error(t, NewRandomForest(WithNEstimators(0)).Fit(context.Background(), X, y))
}

func TestPCA(t *testing.T) {
	// points on the line y = x with a little noise on the orthogonal axis
	rng := rand.New(rand.NewSource(8))
	X := make([][]float64, 200)
	for i := range X {
		s := rng.NormFloat64() * 3
		e := rng.NormFloat64() * 0.05
		X[i] = []float64{s + e, s - e}
	}
	pca := NewPCA(5, 100, 1)
	require.NoError(t, pca.Fit(X))
	require.Len(t, pca.Components, 2, "k capped at the feature count")
	assert.InDelta(t, 1/math.Sqrt2, math.Abs(pca.Components[0][0]), 1e-2)
	assert.Greater(t, pca.Explained[0], pca.Explained[1])

	out, err := pca.Transform(X[:3])
	require.NoError(t, err)
	assert.Len(t, out[0], 2)

	_, err = pca.Transform([][]float64{{1, 2, 3}})
	assert.Error(t, err)
	_, err = NewPCA(1, 10, 1).Transform(X)
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	yTrue := []float64{1, 0, 1, 1, 0}
	yPred := []float64{1, 0, 0, 1, 1}
	assert.InDelta(t, 0.6, Accuracy(yTrue, yPred), 1e-12)
	prec, rec, f1 := PrecisionRecallF1(yTrue, yPred)
	assert.InDelta(t, 2.0/3, prec, 1e-12)
	assert.InDelta(t, 2.0/3, rec, 1e-12)
	assert.InDelta(t, 2.0/3, f1, 1e-12)

	reg := []float64{1, 2, 3}
	assert.InDelta(t, 1.0, MSE(reg, []float64{2, 3, 4}), 1e-12)
	assert.InDelta(t, 1.0, MAE(reg, []float64{0, 3, 2}), 1e-12)
	assert.InDelta(t, 1.0, R2(reg, reg), 1e-12)
	assert.Equal(t, 0.0, R2([]float64{2, 2}, []float64{1, 3}))
}

func TestMetricCatalog(t *testing.T) {
	acc, err := LookupMetric("accuracy")
	require.NoError(t, err)
	assert.True(t, acc.Maximize)
	assert.Equal(t, -0.8, acc.Loss(0.8))
	assert.Equal(t, 0.8, acc.Score(0.8))

	mse, err := LookupMetric("mse")
	require.NoError(t, err)
	assert.False(t, mse.Maximize)
	assert.Equal(t, 0.25, mse.Loss(0.25))
	assert.Equal(t, -0.25, mse.Score(0.25))

	_, err = LookupMetric("auc")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}
