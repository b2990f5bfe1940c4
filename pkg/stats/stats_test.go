package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStd(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.InDelta(t, 2.0, Std([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.InDelta(t, 2.0, NaNMean([]float64{1, math.NaN(), 3}), 1e-12)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
}

func TestRank(t *testing.T) {
	tests := []struct {
		name       string
		in         []float64
		descending bool
		want       []float64
	}{
		{"ascending", []float64{10, 30, 20}, false, []float64{1, 3, 2}},
		{"descending", []float64{10, 30, 20}, true, []float64{3, 1, 2}},
		{"ties average", []float64{0.9, 0.8, 0.9, 0.7}, true, []float64{1.5, 3, 1.5, 4}},
		{"all equal", []float64{1, 1, 1}, true, []float64{2, 2, 2}},
		{"empty", nil, true, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.in, tt.descending))
		})
	}
}

func TestStandardScaler(t *testing.T) {
	s := NewStandardScaler()
	_, err := s.Transform([][]float64{{1}})
	require.Error(t, err)

	require.NoError(t, s.Fit([][]float64{{1, 5}, {3, 5}}))
	out, err := s.Transform([][]float64{{1, 5}, {3, 7}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 0}, out[0], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 2}, out[1], 1e-12)

	_, err = s.Transform([][]float64{{1}})
	assert.Error(t, err)
}
