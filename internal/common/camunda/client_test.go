// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	cerrors "careeragent-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryTestClient() *Client {
	return &Client{
		config: &ClientConfig{
			RetryConfig: &RetryConfig{
				MaxRetries: 3,
				BaseDelay:  time.Millisecond,
				MaxDelay:   5 * time.Millisecond,
			},
		},
	}
}

func TestExecuteWithRetry_RecoversFromTransientErrors(t *testing.T) {
	c := retryTestClient()

	attempts := 0
	result, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("rpc error: connection refused")
		}
		return "ok", nil
	}, "complete-job")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	c := retryTestClient()

	attempts := 0
	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errors.New("INVALID_ARGUMENT: element not found")
	}, "complete-job")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var stdErr *cerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cerrors.ErrorCode("EXTERNAL_SERVICE_ERROR"), stdErr.Code)
}

func TestExecuteWithRetry_TimeoutMapsToTimeoutError(t *testing.T) {
	c := retryTestClient()

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("context deadline exceeded")
	}, "topology")

	require.Error(t, err)
	var stdErr *cerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, cerrors.ErrorCode("TIMEOUT_ERROR"), stdErr.Code)
}

func TestExecuteWithRetry_CancelledContextStopsRetrying(t *testing.T) {
	c := retryTestClient()
	c.config.RetryConfig.BaseDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("unavailable: broker unreachable")
	}, "topology")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("connection reset by peer")))
	assert.True(t, isRetryableZeebeError(errors.New("UNAVAILABLE: gateway down")))
	assert.False(t, isRetryableZeebeError(errors.New("NOT_FOUND: no such process")))
}
