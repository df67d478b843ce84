package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecuteWithRetry(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), quietLogger(), "op", policy, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection reset")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when retries run out", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), quietLogger(), "op", policy, func(context.Context) error {
			calls++
			return errors.New("still down")
		})
		assert.EqualError(t, err, "still down")
		assert.Equal(t, policy.MaxRetries+1, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 1}

		calls := 0
		err := ExecuteWithRetry(ctx, quietLogger(), "op", slow, func(context.Context) error {
			calls++
			cancel()
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestDatabaseRetryPolicy(t *testing.T) {
	p := DatabaseRetryPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.LessOrEqual(t, p.InitialDelay, p.MaxDelay)
}
