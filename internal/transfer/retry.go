package transfer

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy bounds the attempts of one pipeline stage. Attempts is the
// total number of tries, not the number of retries after the first.
type RetryPolicy struct {
	Attempts int
	Factor   time.Duration
}

// DefaultRetryPolicy returns the batch defaults: a single attempt with a 5s
// backoff factor (the factor only matters once attempts are raised).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 1, Factor: 5 * time.Second}
}

// Delay computes the linear backoff before the attempt following attempt:
// factor * attempt. Linear, not exponential.
func Delay(attempt int, factor time.Duration) time.Duration {
	return time.Duration(attempt) * factor
}

// retry runs op up to policy.Attempts times, sleeping Delay(n, factor) after
// failed attempt n. retryable short-circuits terminal errors. The backoff
// sleep honors ctx; cancellation during the wait ends the stage with ctx's
// error.
func retry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, stage Stage, op func(attempt int) error, retryable func(error) bool) error {
	var err error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if err = op(attempt); err == nil {
			return nil
		}
		if !retryable(err) || attempt == policy.Attempts {
			break
		}

		delay := Delay(attempt, policy.Factor)
		logger.Info("waiting before retry", "stage", stage, "attempt", attempt, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
