package dataprep

// Polynomial appends all degree-2 products of the input features when Degree
// is 2. Degree 1 leaves rows untouched.
type Polynomial struct {
	Degree int
}

func (p *Polynomial) Fit([][]float64) error { return nil }

func (p *Polynomial) Transform(X [][]float64) ([][]float64, error) {
	if p.Degree < 2 {
		return X, nil
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		cols := len(x)
		features := make([]float64, cols+cols*(cols+1)/2)
		copy(features, x)
		idx := cols
		for j := 0; j < cols; j++ {
			for k := j; k < cols; k++ {
				features[idx] = x[j] * x[k]
				idx++
			}
		}
		out[i] = features
	}
	return out, nil
}
