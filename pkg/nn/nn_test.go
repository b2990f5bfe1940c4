package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1, Sigmoid(50), 1e-9)
}

func TestMSEGradient(t *testing.T) {
	loss, grad := MSE([]float64{1, 2}, []float64{2, 2})
	assert.InDelta(t, 0.5, loss, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, grad, 1e-12)
}

func TestBCEClipsProbabilities(t *testing.T) {
	loss, grad := BCE([]float64{1, 0}, []float64{1, 0})
	assert.InDelta(t, 0, loss, 1e-9)
	assert.Len(t, grad, 2)
}
