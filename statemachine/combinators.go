package statemachine

import (
	"context"
	"fmt"
	"time"
)

// Sequence runs handlers in order and returns the condition of the last one.
// The first error stops the sequence.
func Sequence(handlers ...Handler) Handler {
	return func(ctx context.Context, wf *Context) (any, error) {
		var condition any

		for i, handler := range handlers {
			var err error

			condition, err = handler(ctx, wf)
			if err != nil {
				return nil, fmt.Errorf("sequence step %d failed: %w", i+1, err)
			}
		}

		return condition, nil
	}
}

// Retry calls handler up to attempts times, waiting backoff*n after the n-th
// failure. It gives up early when ctx is done. A single attempt returns
// handler unchanged.
func Retry(handler Handler, attempts int, backoff time.Duration) Handler {
	if attempts <= 1 {
		return handler
	}

	return func(ctx context.Context, wf *Context) (any, error) {
		var lastErr error

		for i := range attempts {
			condition, err := handler(ctx, wf)
			if err == nil {
				return condition, nil
			}

			lastErr = err

			if i == attempts-1 {
				break
			}

			if backoff > 0 {
				timer := time.NewTimer(backoff * time.Duration(i+1))

				select {
				case <-ctx.Done():
					timer.Stop()

					return nil, fmt.Errorf("retry interrupted: %w", ctx.Err())
				case <-timer.C:
				}
			}
		}

		return nil, fmt.Errorf("retry exhausted after %d attempts: %w", attempts, lastErr)
	}
}

// Fallback calls fallback when primary fails. The primary error is lost if
// the fallback succeeds.
func Fallback(primary, fallback Handler) Handler {
	return func(ctx context.Context, wf *Context) (any, error) {
		condition, err := primary(ctx, wf)
		if err == nil {
			return condition, nil
		}

		condition, fallbackErr := fallback(ctx, wf)
		if fallbackErr != nil {
			return nil, fmt.Errorf("fallback failed: %w (primary: %w)", fallbackErr, err)
		}

		return condition, nil
	}
}

// Timeout bounds a handler by d. The handler must observe ctx for the bound
// to take effect.
func Timeout(handler Handler, d time.Duration) Handler {
	return func(ctx context.Context, wf *Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, wf)
	}
}
