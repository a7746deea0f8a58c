// Package retry implements bounded exponential-backoff retry for network
// operations. It is generic over the wrapped call and knows nothing about the
// adapters using it.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Defaults give three attempts at 0.4s, 1.2s and 3.6s spacing plus jitter.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 400 * time.Millisecond

	backoffMultiplier = 3
	jitterFraction    = 0.1
)

// retryable is implemented by errors that may succeed on a later attempt.
// fetch.TransportError and fetch.StatusError both satisfy it.
type retryable interface {
	Retryable() bool
}

type options struct {
	maxAttempts int
	baseDelay   time.Duration
	isRetryable func(error) bool
}

// Option customizes retry behavior.
type Option func(*options)

// WithMaxAttempts bounds the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry; later retries grow by
// the backoff multiplier.
func WithBaseDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.baseDelay = d
		}
	}
}

// WithRetryIf replaces the default retryable-error predicate.
func WithRetryIf(pred func(error) bool) Option {
	return func(o *options) {
		if pred != nil {
			o.isRetryable = pred
		}
	}
}

// IsRetryable reports whether an error is worth retrying. Only errors that
// declare themselves retryable qualify; everything else fails fast.
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r) && r.Retryable()
}

// Do executes op, retrying on retryable errors with exponential backoff and
// up to 10% random jitter. Non-retryable errors fail immediately; after the
// attempt budget is exhausted the last error is returned. Context
// cancellation aborts the backoff sleep.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		isRetryable: IsRetryable,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !o.isRetryable(err) {
			return zero, err
		}
		if attempt == o.maxAttempts-1 {
			break
		}

		delay := backoffDelay(o.baseDelay, attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := float64(base) * math.Pow(backoffMultiplier, float64(attempt))
	jitter := rand.Float64() * jitterFraction * delay
	return time.Duration(delay + jitter)
}
