package nn

import "math"

// Sigmoid squashes x into (0, 1).
func Sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }
