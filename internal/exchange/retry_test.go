package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binance-momentum-bot-go/internal/models"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "klines", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustionIsTransient(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "klines", 3, time.Millisecond, func() error {
		calls++
		return errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "the retry loop is bounded")
	assert.True(t, models.IsTransient(err))
	assert.Contains(t, err.Error(), "klines")
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, "order", 5, time.Millisecond, func() error {
		calls++
		return errors.New("unreachable")
	})

	require.Error(t, err)
	assert.Zero(t, calls)
	assert.True(t, models.IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)
}
