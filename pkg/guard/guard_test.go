package guard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsResult(t *testing.T) {
	assert.NoError(t, Run(context.Background(), time.Second, func(context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, Run(context.Background(), time.Second, func(context.Context) error { return boom }), boom)
}

func TestRunTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := Run(context.Background(), 50*time.Millisecond, func(context.Context) error {
		<-release // ignores ctx on purpose
		return nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second, "returns without waiting for fn")
}

func TestRunCooperativeTimeout(t *testing.T) {
	err := Run(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunNoLimit(t *testing.T) {
	err := Run(context.Background(), 0, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return nil
	})
	assert.NoError(t, err)
}

func TestRunParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRunOutOfMemory(t *testing.T) {
	t.Run("makeslice panic", func(t *testing.T) {
		err := Run(context.Background(), time.Second, func(context.Context) error {
			n := -1
			_ = make([]float64, n)
			return nil
		})
		assert.ErrorIs(t, err, ErrOutOfMemory)
	})
	t.Run("wrapped error", func(t *testing.T) {
		err := Run(context.Background(), time.Second, func(context.Context) error {
			return fmt.Errorf("allocating distance matrix: %w", ErrOutOfMemory)
		})
		assert.ErrorIs(t, err, ErrOutOfMemory)
	})
	t.Run("panic with error value", func(t *testing.T) {
		err := Run(context.Background(), time.Second, func(context.Context) error {
			panic(fmt.Errorf("buffer: %w", ErrOutOfMemory))
		})
		assert.ErrorIs(t, err, ErrOutOfMemory)
	})
}

func TestRunOtherPanic(t *testing.T) {
	err := Run(context.Background(), time.Second, func(context.Context) error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.NotErrorIs(t, err, ErrOutOfMemory)
	assert.NotEmpty(t, pe.Stack)
}
