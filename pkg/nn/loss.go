package nn

import "math"

// MSE returns the mean squared error of yPred against yTrue and its gradient
// with respect to each prediction.
func MSE(yTrue, yPred []float64) (float64, []float64) {
	n := float64(len(yTrue))
	s := 0.0
	grad := make([]float64, len(yTrue))
	for i := range yTrue {
		e := yPred[i] - yTrue[i]
		s += e * e
		grad[i] = 2 * e / n
	}
	return s / n, grad
}

// BCE returns the binary cross-entropy of probabilities yPred against 0/1
// targets and its gradient with respect to the logits.
func BCE(yTrue, yPred []float64) (float64, []float64) {
	n := float64(len(yTrue))
	s := 0.0
	grad := make([]float64, len(yTrue))
	for i := range yTrue {
		p := math.Min(math.Max(yPred[i], 1e-12), 1-1e-12)
		y := yTrue[i]
		s += -(y*math.Log(p) + (1-y)*math.Log(1-p))
		grad[i] = (p - y) / n
	}
	return s / n, grad
}
