package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalyx/raidbot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	errTemporary = errors.New("temporary error")
	errFatal     = errors.New("unknown application")
)

func testRetryOptions() utils.RetryOptions {
	return utils.RetryOptions{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		failures      int
		failWith      error
		expectedCalls int
		expectedErr   error
	}{
		{
			name:          "succeeds first try",
			expectedCalls: 1,
		},
		{
			name:          "succeeds after retries",
			failures:      2,
			failWith:      errTemporary,
			expectedCalls: 3,
		},
		{
			name:          "fails all retries",
			failures:      10,
			failWith:      errTemporary,
			expectedCalls: 4, // Initial + 3 retries
			expectedErr:   errTemporary,
		},
		{
			name:          "permanent error stops immediately",
			failures:      10,
			failWith:      utils.Permanent(errFatal),
			expectedCalls: 1,
			expectedErr:   errFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			result, err := utils.WithRetry(t.Context(), func() (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, tt.failWith
				}
				return calls, nil
			}, testRetryOptions(), zaptest.NewLogger(t))

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedCalls, result)
		})
	}
}

func TestWithRetryCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	calls := 0
	_, err := utils.WithRetry(ctx, func() (struct{}, error) {
		calls++
		return struct{}{}, errTemporary
	}, testRetryOptions(), nil)

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}
