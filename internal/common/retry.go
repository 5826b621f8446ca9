package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/service"
)

// ErrMaxRetries indicates that every attempt failed with a retryable error.
var ErrMaxRetries = errors.New("max retries exceeded")

var defaultRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
}

// WithRetry runs operation until it succeeds, fails with an error that
// IsRetryable rejects, or uses up opts.MaxAttempts. Non-retryable errors are
// returned unchanged. Zero fields of opts fall back to defaults.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = retryDefaults(opts)
	delay := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		slog.WarnContext(ctx, "Database busy, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
	}
}

func retryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultRetry.MaxAttempts
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = defaultRetry.InitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultRetry.MaxDelay
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = defaultRetry.Multiplier
	}
	return opts
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
