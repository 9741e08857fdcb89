package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, IsRetryable(errors.New("context deadline exceeded")))
	assert.False(t, IsRetryable(errors.New("permission denied")))
}

func TestBackoff(t *testing.T) {
	r := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, Backoff(r, 0))
	assert.Equal(t, 4*time.Second, Backoff(r, 2))
	assert.Equal(t, 5*time.Second, Backoff(r, 3))
	assert.Equal(t, 5*time.Second, Backoff(r, 70))
}

func TestWithRetry(t *testing.T) {
	r := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	attempts := 0
	err := WithRetry(context.Background(), r, logger.NewTestLogger(t), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = WithRetry(context.Background(), r, nil, "op", func(context.Context) error {
		attempts++
		return errors.New("permission denied")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	attempts = 0
	err = WithRetry(context.Background(), r, nil, "op", func(context.Context) error {
		attempts++
		return errors.New("unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, 4, attempts)
}
