package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		factor  time.Duration
		want    time.Duration
	}{
		{"first attempt", 1, 5 * time.Second, 5 * time.Second},
		{"second attempt", 2, 5 * time.Second, 10 * time.Second},
		{"third attempt", 3, 5 * time.Second, 15 * time.Second},
		{"zero factor", 4, 0, 0},
		{"sub-second factor", 3, 200 * time.Millisecond, 600 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Delay(tt.attempt, tt.factor); got != tt.want {
				t.Errorf("Delay(%d, %v) = %v, want %v", tt.attempt, tt.factor, got, tt.want)
			}
		})
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Factor: time.Millisecond}
	wantErr := errors.New("still broken")

	calls := 0
	err := retry(context.Background(), policy, discardLogger(), StageDownload, func(int) error {
		calls++
		return wantErr
	}, func(error) bool { return true })

	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("retry returned %v, want %v", err, wantErr)
	}
}

func TestRetryBacksOffBetweenAttempts(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Factor: 20 * time.Millisecond}

	start := time.Now()
	_ = retry(context.Background(), policy, discardLogger(), StageDownload, func(int) error {
		return errors.New("nope")
	}, func(error) bool { return true })
	elapsed := time.Since(start)

	// Delays of 20ms and 40ms separate the three attempts.
	if elapsed < 60*time.Millisecond {
		t.Errorf("retry finished after %v, want at least 60ms of backoff", elapsed)
	}
}

func TestRetryStopsOnTerminalError(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, Factor: time.Millisecond}
	terminal := errors.New("no credentials")

	calls := 0
	err := retry(context.Background(), policy, discardLogger(), StageUpload, func(int) error {
		calls++
		return terminal
	}, func(error) bool { return false })

	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if !errors.Is(err, terminal) {
		t.Errorf("retry returned %v, want %v", err, terminal)
	}
}

func TestRetrySucceedsAfterFailure(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Factor: time.Millisecond}

	calls := 0
	err := retry(context.Background(), policy, discardLogger(), StageDownload, func(int) error {
		calls++
		if calls == 1 {
			return errors.New("flaky")
		}
		return nil
	}, func(error) bool { return true })

	if err != nil {
		t.Fatalf("retry returned %v, want nil", err)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
}

func TestRetryPassesAttemptNumber(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Factor: 0}

	var seen []int
	_ = retry(context.Background(), policy, discardLogger(), StageDownload, func(attempt int) error {
		seen = append(seen, attempt)
		return errors.New("nope")
	}, func(error) bool { return true })

	want := []int{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("op saw attempts %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("op saw attempts %v, want %v", seen, want)
		}
	}
}

func TestRetryCanceledDuringBackoff(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Factor: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	err := retry(ctx, policy, discardLogger(), StageDownload, func(int) error {
		calls++
		return errors.New("nope")
	}, func(error) bool { return true })

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("retry returned %v, want context.DeadlineExceeded", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", policy.Attempts)
	}
	if policy.Factor != 5*time.Second {
		t.Errorf("Factor = %v, want 5s", policy.Factor)
	}
}
