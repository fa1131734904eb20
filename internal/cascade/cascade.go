// Package cascade runs an ordered list of alternative data sources until one succeeds.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrEmptyResult can be returned by an attempt that reached its upstream but got
// nothing usable back. The cascade treats it like any other failure.
var ErrEmptyResult = errors.New("source returned no usable data")

// Source describes one candidate in a cascade. Index order in the slice passed to
// Resolve is the priority order.
type Source[T any] struct {
	Name    string
	Attempt func(ctx context.Context) (T, error)

	// Timeout bounds a single attempt. Zero means the attempt is bounded only by
	// the parent context.
	Timeout time.Duration
}

// Result is the accepted value together with the name of the source that produced it.
type Result[T any] struct {
	Value      T
	UsedSource string
}

type outcome[T any] struct {
	value T
	err   error
}

// Resolve tries sources strictly in order and returns the first success. Later
// sources are never invoked once one succeeds. When every source fails, or ctx is
// cancelled, it returns false; exhaustion is not an error.
func Resolve[T any](ctx context.Context, logger *slog.Logger, sources []Source[T]) (Result[T], bool) {
	if logger == nil {
		logger = slog.Default()
	}

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			logger.Info("cascade: cancelled before source", "source", src.Name, "tier", i+1, "error", err)
			return Result[T]{}, false
		}

		start := time.Now()
		value, err := attempt(ctx, src)
		if err != nil {
			logger.Warn("cascade: source failed",
				"source", src.Name,
				"tier", i+1,
				"duration", time.Since(start),
				"error", err,
			)
			continue
		}

		logger.Debug("cascade: source succeeded", "source", src.Name, "tier", i+1, "duration", time.Since(start))
		return Result[T]{Value: value, UsedSource: src.Name}, true
	}

	if len(sources) > 0 {
		logger.Warn("cascade: all sources exhausted", "sources", len(sources))
	}
	return Result[T]{}, false
}

// attempt runs a single source under its own deadline. The attempt runs in its own
// goroutine so a source that ignores its context still cannot hold the cascade past
// the timeout; a late result is dropped.
func attempt[T any](ctx context.Context, src Source[T]) (T, error) {
	var zero T
	if src.Attempt == nil {
		return zero, fmt.Errorf("source %q has no attempt function", src.Name)
	}

	attemptCtx := ctx
	cancel := func() {}
	if src.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, src.Timeout)
	}
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: fmt.Errorf("source %q panicked: %v", src.Name, r)}
			}
		}()
		v, err := src.Attempt(attemptCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		return zero, fmt.Errorf("source %q: %w", src.Name, attemptCtx.Err())
	}
}
