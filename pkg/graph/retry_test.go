package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsRetryableWriteError(t *testing.T) {
	require.True(t, isRetryableWriteError(errors.New("dial tcp: connection refused")))
	require.True(t, isRetryableWriteError(errors.New("context deadline exceeded")))
	require.False(t, isRetryableWriteError(errors.New("constraint already exists with a different name")))
	require.False(t, isRetryableWriteError(nil))
}

func TestComputeBackoffWithJitter_StaysWithinBounds(t *testing.T) {
	base := 50 * time.Millisecond
	for attempt := 0; attempt < 6; attempt++ {
		d := computeBackoffWithJitter(base, attempt, 2, time.Second)
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, time.Second+time.Second/5)
	}
}

func TestWithRetry_StopsAfterNonRetryableError(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}, func() error {
		attempts++
		return errors.New("syntax error in query")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestWithRetry_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestCypherIdent_PanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() { cypherIdent("Function; DROP") })
	require.NotPanics(t, func() { cypherIdent("Function") })
}
