// Package guard runs a unit of work under a wall-clock ceiling and turns
// allocation failures into a recoverable error.
package guard

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

var (
	ErrTimeout     = errors.New("time limit exceeded")
	ErrOutOfMemory = errors.New("out of memory")
)

// PanicError carries a panic recovered from the guarded function.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

var oomMarkers = []string{
	"out of memory",
	"makeslice: len out of range",
	"makeslice: cap out of range",
	"makemap: size out of range",
	"growslice: len out of range",
}

// Run calls fn with a context that expires after limit (limit <= 0 means no
// ceiling). When the ceiling is hit Run returns ErrTimeout at once and the
// goroutine running fn is abandoned; fn should watch ctx and return soon.
// Allocation panics, and errors wrapping ErrOutOfMemory, yield ErrOutOfMemory.
// Any other panic is returned as a *PanicError.
func Run(ctx context.Context, limit time.Duration, fn func(ctx context.Context) error) error {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if limit > 0 {
		runCtx, cancel = context.WithTimeoutCause(ctx, limit, ErrTimeout)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- classifyPanic(r)
			}
		}()
		done <- fn(runCtx)
	}()

	select {
	case err := <-done:
		if err != nil && context.Cause(runCtx) == ErrTimeout && ctx.Err() == nil {
			return ErrTimeout
		}
		return err
	case <-runCtx.Done():
		if context.Cause(runCtx) == ErrTimeout && ctx.Err() == nil {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

func classifyPanic(r any) error {
	msg := fmt.Sprint(r)
	if err, ok := r.(error); ok {
		if errors.Is(err, ErrOutOfMemory) {
			return err
		}
		msg = err.Error()
	}
	for _, m := range oomMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %s", ErrOutOfMemory, msg)
		}
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}
