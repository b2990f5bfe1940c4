package pipeline

import (
	"context"
	"errors"
	"fmt"

	"tabbench/pkg/model"
)

// Pipeline chains transformers in front of a final estimator. Transformers
// are fit on the training rows only and replayed on every Predict.
type Pipeline struct {
	steps []model.Transformer
	final model.Estimator
}

func NewPipeline(final model.Estimator, steps ...model.Transformer) *Pipeline {
	return &Pipeline{steps: steps, final: final}
}

// Final returns the wrapped estimator.
func (p *Pipeline) Final() model.Estimator { return p.final }

func (p *Pipeline) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if p.final == nil {
		return errors.New("pipeline: no final estimator")
	}
	for i, step := range p.steps {
		if err := step.Fit(X); err != nil {
			return fmt.Errorf("pipeline: fit step %d: %w", i, err)
		}
		var err error
		if X, err = step.Transform(X); err != nil {
			return fmt.Errorf("pipeline: transform step %d: %w", i, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return p.final.Fit(ctx, X, y)
}

// Transform applies the fitted steps to X.
func (p *Pipeline) Transform(X [][]float64) ([][]float64, error) {
	for i, step := range p.steps {
		var err error
		if X, err = step.Transform(X); err != nil {
			return nil, fmt.Errorf("pipeline: transform step %d: %w", i, err)
		}
	}
	return X, nil
}

// Predict transforms X and predicts with the final estimator. Estimator has
// no error return, so a failing transform panics; the steps only fail on
// shape mismatches between train and test.
func (p *Pipeline) Predict(X [][]float64) []float64 {
	Xt, err := p.Transform(X)
	if err != nil {
		panic(err)
	}
	return p.final.Predict(Xt)
}
