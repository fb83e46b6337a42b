// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs fallible calls against the remote generation service
// with bounded exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInitialDelay is used when a Policy carries no positive delay.
const DefaultInitialDelay = 4 * time.Second

// Policy controls how an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// runs the operation exactly once; negative values count as zero.
	MaxRetries int

	// InitialDelay is the wait before the first retry. It doubles after
	// every further failure: 4s, 8s, 16s with the default.
	InitialDelay time.Duration

	// Retryable reports whether a failure may be retried. A nil Retryable
	// retries every failure.
	Retryable func(error) bool

	// Logger receives one record per failed attempt. Nil uses slog.Default.
	Logger *slog.Logger
}

// wait blocks for d or until ctx is done. Tests replace it to avoid real sleeps.
var wait = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do invokes op until it succeeds, the retry budget is spent, or the
// failure is not retryable. Every attempt calls op. The last failure is
// returned unchanged so callers can match it with errors.Is and errors.As.
// If ctx is cancelled during a backoff wait, Do returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	retries := max(p.MaxRetries, 0)
	delay := p.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		logger.Warn("attempt failed",
			"attempt", attempt+1,
			"max_attempts", retries+1,
			"error", err)

		if attempt >= retries || (p.Retryable != nil && !p.Retryable(err)) {
			return v, err
		}

		logger.Info("retrying", "wait", delay)
		if werr := wait(ctx, delay); werr != nil {
			var zero T
			return zero, werr
		}
		delay *= 2
	}
}

// MaxWait returns the longest total time Do can spend waiting under p.
func (p Policy) MaxWait() time.Duration {
	delay := p.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	var total time.Duration
	for i := 0; i < max(p.MaxRetries, 0); i++ {
		total += delay
		delay *= 2
	}
	return total
}
