package model

import (
	"context"
	"runtime"
	"sync"
)

// Estimator is a supervised model trained on rows of features. Class labels
// are carried as integral float64 values.
//
// Fit should return promptly once ctx is done; the partially trained model is
// then discarded by the caller.
type Estimator interface {
	Fit(ctx context.Context, X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

// Transformer is a preprocessing step, fit on train and applied to both splits.
type Transformer interface {
	Fit(X [][]float64) error
	Transform(X [][]float64) ([][]float64, error)
}

// parallelRows runs fn over row ranges of n rows using GOMAXPROCS workers.
func parallelRows(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
