// Package retry provides a flat-interval retry policy.
//
// The policy is deliberately free of side effects: it knows nothing
// about screens or logs. Callers that need to paint a progress marker
// or a failure code per attempt do so from the OnRetry callback. The
// device has no other useful work while its connections are down, so
// the interval is flat rather than exponential.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded or unbounded flat-interval retry loop.
type Policy struct {
	// MaxAttempts limits the number of attempts. Zero or negative
	// means retry forever.
	MaxAttempts int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// Run invokes attempt until it returns nil, attempts are exhausted,
// or ctx is cancelled. onRetry, if non-nil, is called after each
// failed attempt that will be retried — this is where the caller
// layer renders per-attempt feedback.
func (p Policy) Run(ctx context.Context, attempt func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := attempt(ctx)
		if err == nil {
			return nil
		}

		if p.MaxAttempts > 0 && n >= p.MaxAttempts {
			return fmt.Errorf("after %d attempts: %w", n, err)
		}

		if onRetry != nil {
			onRetry(n, err)
		}

		if !Sleep(ctx, p.Delay) {
			return ctx.Err()
		}
	}
}

// Sleep waits for d or until ctx is cancelled. Returns false if
// cancelled first.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
