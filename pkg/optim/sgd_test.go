package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSGDStep(t *testing.T) {
	o := NewSGD(0.5)
	w := []float64{1, 2}
	o.Step(w, []float64{2, -2})
	assert.Equal(t, []float64{0, 3}, w)

	b := 1.0
	o.StepScalar(&b, 4)
	assert.Equal(t, -1.0, b)
}
