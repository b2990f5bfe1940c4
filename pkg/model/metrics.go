package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrUnknownMetric is returned by LookupMetric for names outside the catalog.
var ErrUnknownMetric = errors.New("unknown metric")

func MSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	d := make([]float64, len(yTrue))
	floats.SubTo(d, yPred, yTrue)
	return floats.Dot(d, d) / float64(len(d))
}

func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	return floats.Distance(yTrue, yPred, 1) / float64(len(yTrue))
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

// R2 is the coefficient of determination; a constant target yields 0.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	m := stat.Mean(yTrue, nil)
	ssTot, ssRes := 0.0, 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// PrecisionRecallF1 treats label 1 as the positive class.
func PrecisionRecallF1(yTrue, yPred []float64) (prec, rec, f1 float64) {
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1:
			fp++
		case yTrue[i] == 1:
			fn++
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

func F1(yTrue, yPred []float64) float64 {
	_, _, f1 := PrecisionRecallF1(yTrue, yPred)
	return f1
}

// Metric names a scoring function and its optimization direction.
type Metric struct {
	Name     string
	Maximize bool
	Fn       func(yTrue, yPred []float64) float64
}

// Loss maps a metric value onto a quantity where lower is better.
func (m Metric) Loss(v float64) float64 {
	if m.Maximize {
		return -v
	}
	return v
}

// Score is the negated loss, so higher is always better.
func (m Metric) Score(v float64) float64 { return -m.Loss(v) }

var metrics = map[string]Metric{
	"accuracy": {Name: "accuracy", Maximize: true, Fn: Accuracy},
	"f1":       {Name: "f1", Maximize: true, Fn: F1},
	"r2":       {Name: "r2", Maximize: true, Fn: R2},
	"mse":      {Name: "mse", Fn: MSE},
	"mae":      {Name: "mae", Fn: MAE},
	"rmse":     {Name: "rmse", Fn: RMSE},
}

func LookupMetric(name string) (Metric, error) {
	m, ok := metrics[name]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}
