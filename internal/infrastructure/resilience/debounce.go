package resilience

import (
	"context"
	"time"
)

// Quiet blocks for d or until ctx is done, whichever comes first. It returns
// ctx.Err() when the wait was cut short.
func Quiet(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Debounced wraps fn so that every invocation first waits out a quiet period
// of d. The wait is per call: two overlapping calls each wait d and neither
// cancels the other. A call whose context is cancelled during the wait never
// reaches fn, which is how superseded requests are kept off the network.
func Debounced[T any](d time.Duration, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		if err := Quiet(ctx, d); err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx)
	}
}
