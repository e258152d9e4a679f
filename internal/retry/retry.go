package retry

import (
	"context"
	"errors"
	"time"
)

// Options configures one Execute call.
type Options struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// OnRetry is called synchronously before each backoff wait with the
	// classified error, the 1-based retry ordinal and the delay about to be
	// waited.
	OnRetry func(err *Error, retry int, delay time.Duration)
}

// Op is a remote call that may be retried.
type Op[T any] func(ctx context.Context) (T, error)

// Execute calls op until it succeeds, fails with a non-retryable error, or
// MaxRetries retries have been made. At most MaxRetries+1 attempts are made.
//
// The terminal error is the *Error for the last failure; it unwraps to the
// failure returned by op. A non-retryable failure returns immediately
// without waiting and without calling OnRetry.
//
// Cancelling ctx stops the loop at the next backoff wait; an attempt already
// in flight is left to op.
func Execute[T any](ctx context.Context, op Op[T], opts Options) (T, error) {
	var zero T
	attempt := 0

	for {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		rerr := Classify(err).withAttempt(attempt + 1)
		attempt = rerr.Attempt

		if !rerr.Retryable || attempt > opts.MaxRetries {
			return zero, rerr
		}
		if ctx.Err() != nil {
			return zero, errors.Join(rerr, ctx.Err())
		}

		delay := Delay(attempt-1, opts.BaseDelay, opts.MaxDelay)
		if rerr.RetryAfter > delay {
			delay = rerr.RetryAfter
			if opts.MaxDelay > 0 && delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}

		if opts.OnRetry != nil {
			opts.OnRetry(rerr, attempt, delay)
		}

		if err := wait(ctx, delay); err != nil {
			return zero, errors.Join(rerr, err)
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
