package exchange

import (
	"context"
	"time"

	"github.com/jpillora/backoff"

	"binance-momentum-bot-go/internal/models"
)

// withRetry runs fn up to attempts times with jittered exponential backoff.
// Exhaustion wraps the last error in a TransientIOError so the caller can
// feed it to the circuit breaker. The retry loop is bounded: transient
// failures escalate, they are never retried indefinitely.
func withRetry(ctx context.Context, op string, attempts int, initialDelay time.Duration, fn func() error) error {
	b := &backoff.Backoff{
		Min:    initialDelay,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return &models.TransientIOError{Op: op, Err: err}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return &models.TransientIOError{Op: op, Err: ctx.Err()}
			}
		}
	}
	return &models.TransientIOError{Op: op, Err: lastErr}
}
