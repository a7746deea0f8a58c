package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transientError struct{ msg string }

func (e *transientError) Error() string   { return e.msg }
func (e *transientError) Retryable() bool { return true }

type permanentError struct{ msg string }

func (e *permanentError) Error() string   { return e.msg }
func (e *permanentError) Retryable() bool { return false }

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func(_ context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func(_ context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, &transientError{msg: "try again"}
		}
		return 42, nil
	}, WithBaseDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestDo_FailsFastOnNonRetryableError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("bad input")
	}, WithBaseDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_FailsFastWhenErrorDeclaresNotRetryable(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(_ context.Context) (int, error) {
		calls++
		return 0, &permanentError{msg: "nope"}
	}, WithBaseDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorAfterExhaustion(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(_ context.Context) (int, error) {
		calls++
		return 0, &transientError{msg: "still down"}
	}, WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "still down")
}

func TestDo_HonorsCustomPredicate(t *testing.T) {
	calls := 0
	sentinel := errors.New("special")
	result, err := Do(context.Background(), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", sentinel
		}
		return "recovered", nil
	},
		WithBaseDelay(time.Millisecond),
		WithRetryIf(func(err error) bool { return errors.Is(err, sentinel) }),
	)

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancellationAbortsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, &transientError{msg: "down"}
	}, WithBaseDelay(time.Hour))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&transientError{msg: "x"}))
	assert.False(t, IsRetryable(&permanentError{msg: "x"}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestBackoffDelay_GrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond

	for attempt := 0; attempt < 3; attempt++ {
		delay := backoffDelay(base, attempt)
		floor := time.Duration(float64(base) * 1)
		for i := 0; i < attempt; i++ {
			floor *= backoffMultiplier
		}
		ceiling := floor + time.Duration(float64(floor)*jitterFraction)

		assert.GreaterOrEqual(t, delay, floor, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, ceiling, "attempt %d", attempt)
	}
}
