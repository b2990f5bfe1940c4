package dataprep

import (
	"errors"
	"math"

	"tabbench/pkg/stats"
)

// MeanImputer replaces NaN entries with the column mean seen during Fit.
// Columns that were entirely missing are filled with 0.
type MeanImputer struct {
	Means []float64
}

func (m *MeanImputer) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("imputer: empty X")
	}
	c := len(X[0])
	m.Means = make([]float64, c)
	col := make([]float64, len(X))
	for j := 0; j < c; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		m.Means[j] = stats.NaNMean(col)
	}
	return nil
}

// Transform returns a copy of X with missing values filled.
func (m *MeanImputer) Transform(X [][]float64) ([][]float64, error) {
	if m.Means == nil {
		return nil, errors.New("imputer: not fitted")
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		if len(x) != len(m.Means) {
			return nil, errors.New("imputer: feature count mismatch")
		}
		row := make([]float64, len(x))
		for j, v := range x {
			if math.IsNaN(v) {
				v = m.Means[j]
			}
			row[j] = v
		}
		out[i] = row
	}
	return out, nil
}
