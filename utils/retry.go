package utils

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy retries failing external calls with exponential backoff and a
// small random jitter. Waits are interruptible through the passed context.
type RetryPolicy struct {
	MaxAttempts   int
	BackoffFactor float64
	InitialWait   time.Duration
}

func (p RetryPolicy) Retry(ctx context.Context, logger logrus.FieldLogger, name string, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		wait := p.waitFor(attempt)
		logger.WithError(lastErr).WithField("attempt", attempt).
			Warnf("%s failed, retrying in %s", name, wait.Round(time.Millisecond))
		if ContextSleep(ctx, wait) == nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, maxAttempts, lastErr)
}

func (p RetryPolicy) waitFor(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 2
	}
	wait := float64(p.InitialWait) * math.Pow(factor, float64(attempt-1))
	// +/-10% jitter to avoid synchronized retries across workers
	wait *= 1 + (rand.Float64()-0.5)/5
	return time.Duration(wait)
}
