package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/t3rntools/bridge-cycler/logging"
	"github.com/t3rntools/bridge-cycler/utils"
)

var errBoom = errors.New("boom")

func TestRetrySucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	policy := utils.RetryPolicy{MaxAttempts: 3, BackoffFactor: 2, InitialWait: time.Millisecond}
	calls := 0
	err := policy.Retry(context.Background(), logging.New(), "test call", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	policy := utils.RetryPolicy{MaxAttempts: 4, BackoffFactor: 2, InitialWait: time.Millisecond}
	calls := 0
	err := policy.Retry(context.Background(), logging.New(), "test call", func(ctx context.Context) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 4, calls)
}

func TestRetryStopsOnCancel(t *testing.T) {
	t.Parallel()

	policy := utils.RetryPolicy{MaxAttempts: 100, BackoffFactor: 1, InitialWait: 10 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()
	st := time.Now()
	err := policy.Retry(ctx, logging.New(), "test call", func(ctx context.Context) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(st), time.Second)
	require.Greater(t, calls, 0)
}
