package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrier re-runs an operation with backoff while it fails with a
// retryable error, up to a fixed number of attempts.
type Retrier struct {
	maxAttempts int
	newBackOff  func() backoff.BackOff
	retryable   func(error) bool
	notify      func(err error, attempt int, next time.Duration)
}

// NewFixedRetrier waits the same delay between attempts.
func NewFixedRetrier(maxAttempts int, delay time.Duration, retryable func(error) bool) *Retrier {
	return &Retrier{
		maxAttempts: maxAttempts,
		newBackOff: func() backoff.BackOff {
			return backoff.NewConstantBackOff(delay)
		},
		retryable: retryable,
	}
}

// NewExponentialRetrier doubles the wait between attempts, with jitter,
// from initial up to max.
func NewExponentialRetrier(maxAttempts int, initial, max time.Duration, retryable func(error) bool) *Retrier {
	return &Retrier{
		maxAttempts: maxAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = max
			b.MaxElapsedTime = 0
			return b
		},
		retryable: retryable,
	}
}

// OnRetry registers fn to be called before each wait.
func (r *Retrier) OnRetry(fn func(err error, attempt int, next time.Duration)) *Retrier {
	r.notify = fn
	return r
}

// Retry executes operation until it succeeds, fails permanently, the
// attempt budget is spent or ctx is done. It returns the number of
// attempts made together with the last error.
func (r *Retrier) Retry(ctx context.Context, operation func(ctx context.Context) error) (int, error) {
	maxAttempts := r.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(maxAttempts-1)), ctx)

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++

		err := operation(ctx)
		if err == nil {
			return nil
		}

		if r.retryable == nil || !r.retryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}, b, func(err error, next time.Duration) {
		if r.notify != nil {
			r.notify(err, attempts, next)
		}
	})

	return attempts, err
}
