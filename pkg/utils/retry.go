package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryOptions contains configuration for retry behavior.
type RetryOptions struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
}

// GetCommandRetryOptions returns retry options for registering slash commands
// while the gateway is starting up.
func GetCommandRetryOptions() RetryOptions {
	return RetryOptions{
		MaxElapsedTime:  60 * time.Second,
		InitialInterval: 2 * time.Second,
		MaxInterval:     15 * time.Second,
		MaxRetries:      5,
	}
}

// Permanent marks err so that WithRetry returns it without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// WithRetry executes the given operation with exponential backoff using
// provided options. Failed attempts are logged at warn level when logger is
// not nil.
func WithRetry[T any](
	ctx context.Context, operation func() (T, error), opts RetryOptions, logger *zap.Logger,
) (T, error) {
	var result T

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(opts.MaxElapsedTime),
		backoff.WithInitialInterval(opts.InitialInterval),
		backoff.WithMaxInterval(opts.MaxInterval),
	), opts.MaxRetries)

	backoffOperation := func() error {
		var err error
		result, err = operation()
		return err
	}

	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.Warn("Operation failed, retrying",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		}
	}

	err := backoff.RetryNotify(backoffOperation, backoff.WithContext(b, ctx), notify)
	return result, err
}
