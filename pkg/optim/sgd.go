package optim

import "gonum.org/v1/gonum/floats"

// SGD is plain stochastic gradient descent with a fixed learning rate.
type SGD struct{ LearningRate float64 }

func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

// Step updates weights in place: w -= lr * g.
func (o *SGD) Step(weights, grads []float64) {
	floats.AddScaled(weights, -o.LearningRate, grads)
}

// StepScalar is Step for a single parameter such as a bias.
func (o *SGD) StepScalar(w *float64, grad float64) {
	*w -= o.LearningRate * grad
}
