package model

import (
	"errors"
	"math"
	"math/rand"
)

// PCA via power iteration with deflation for the top-K components.
type PCA struct {
	K          int
	MaxIters   int
	Seed       int64
	Means      []float64
	Components [][]float64 // K x p, each a unit vector
	Explained  []float64   // approx eigenvalues
}

// NewPCA creates a PCA keeping k components.
func NewPCA(k int, maxIters int, seed int64) *PCA {
	return &PCA{K: k, MaxIters: maxIters, Seed: seed}
}

// Fit computes the top components. K larger than the feature count is capped.
func (pca *PCA) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("pca: empty X")
	}
	if pca.K < 1 {
		return errors.New("pca: k must be >= 1")
	}
	n, d := len(X), len(X[0])
	k := min(pca.K, d)

	pca.Means = make([]float64, d)
	for i := range X {
		if len(X[i]) != d {
			return errors.New("pca: inconsistent number of features in X rows")
		}
		for j, v := range X[i] {
			pca.Means[j] += v
		}
	}
	for j := range pca.Means {
		pca.Means[j] /= float64(n)
	}
	Z := pca.center(X)

	rnd := rand.New(rand.NewSource(pca.Seed))
	pca.Components = make([][]float64, 0, k)
	pca.Explained = make([]float64, 0, k)
	Zv := make([]float64, n)
	for comp := 0; comp < k; comp++ {
		v := make([]float64, d)
		for j := range v {
			v[j] = rnd.Float64()
		}
		v = normalize(v)

		for t := 0; t < pca.MaxIters; t++ {
			// w = Z^T (Z v)
			parallelRows(n, func(start, end int) {
				for i := start; i < end; i++ {
					Zv[i] = dot(Z[i], v)
				}
			})
			w := make([]float64, d)
			for i := 0; i < n; i++ {
				for j := 0; j < d; j++ {
					w[j] += Z[i][j] * Zv[i]
				}
			}
			v = normalize(w)
		}

		lam := 0.0
		for i := 0; i < n; i++ {
			s := dot(Z[i], v)
			lam += s * s
		}
		if n > 1 {
			lam /= float64(n - 1)
		}
		pca.Explained = append(pca.Explained, lam)
		pca.Components = append(pca.Components, v)

		// Z = Z - (Z v) v^T
		parallelRows(n, func(start, end int) {
			for i := start; i < end; i++ {
				s := dot(Z[i], v)
				for j := 0; j < d; j++ {
					Z[i][j] -= s * v[j]
				}
			}
		})
	}
	return nil
}

// Transform projects X onto the fitted components.
func (pca *PCA) Transform(X [][]float64) ([][]float64, error) {
	if len(pca.Components) == 0 {
		return nil, errors.New("pca: not fitted")
	}
	for i := range X {
		if len(X[i]) != len(pca.Means) {
			return nil, errors.New("pca: feature count mismatch between input and training data")
		}
	}
	Z := pca.center(X)
	out := make([][]float64, len(X))
	parallelRows(len(X), func(start, end int) {
		for i := start; i < end; i++ {
			row := make([]float64, len(pca.Components))
			for c, comp := range pca.Components {
				row[c] = dot(comp, Z[i])
			}
			out[i] = row
		}
	})
	return out, nil
}

func (pca *PCA) center(X [][]float64) [][]float64 {
	Z := make([][]float64, len(X))
	for i := range X {
		z := make([]float64, len(pca.Means))
		for j := range z {
			z[j] = X[i][j] - pca.Means[j]
		}
		Z[i] = z
	}
	return Z
}

// normalize returns v scaled to unit length; the zero vector is returned as is.
func normalize(v []float64) []float64 {
	sumSquared := 0.0
	for _, val := range v {
		sumSquared += val * val
	}
	norm := math.Sqrt(sumSquared)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, val := range v {
		out[i] = val / norm
	}
	return out
}
