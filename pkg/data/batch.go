package data

import (
	"context"
	"math/rand"
)

// Batch is a mini-batch of feature rows and their targets.
type Batch struct {
	X [][]float64
	Y []float64
}

// Batcher emits one pass over (X, Y) as mini-batches of batchSize rows, in the
// order given by rng (nil keeps row order). The channel is closed after the last,
// possibly smaller, batch or as soon as ctx is done.
func Batcher(ctx context.Context, X [][]float64, Y []float64, batchSize int, rng *rand.Rand) <-chan Batch {
	out := make(chan Batch)
	if batchSize <= 0 {
		batchSize = len(X)
	}

	go func() {
		defer close(out)

		order := make([]int, len(X))
		for i := range order {
			order[i] = i
		}
		if rng != nil {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		for start := 0; start < len(order); start += batchSize {
			end := min(start+batchSize, len(order))
			b := Batch{X: make([][]float64, 0, end-start), Y: make([]float64, 0, end-start)}
			for _, i := range order[start:end] {
				b.X = append(b.X, X[i])
				b.Y = append(b.Y, Y[i])
			}
			select {
			case <-ctx.Done():
				return
			case out <- b:
			}
		}
	}()
	return out
}
