// Package retry wraps whole operations in the fixed-delay retry policy the
// jobs share: a small number of attempts, a constant pause between them, no
// backoff and no jitter. Bounded total runtime matters more here than
// spreading load, since each job is a single client of its origin.
package retry

import (
	"context"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	"yieldwatch/pkg/logging"
)

// Config holds the outer retry policy.
type Config struct {
	// Attempts is the total number of tries, including the first.
	Attempts uint

	// Delay is the fixed pause between tries.
	Delay time.Duration
}

// DefaultConfig returns the shared job policy.
func DefaultConfig() Config {
	return Config{
		Attempts: 3,
		Delay:    2 * time.Second,
	}
}

// Do executes op under the retry policy, surfacing the last error once
// attempts are exhausted.
func Do(ctx context.Context, name string, cfg Config, op func(ctx context.Context) error) error {
	_, err := DoWithData(ctx, name, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoWithData executes op under the retry policy and returns its result.
func DoWithData[T any](ctx context.Context, name string, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	if cfg.Attempts == 0 {
		cfg = DefaultConfig()
	}

	logger := logging.NewLogger("retry")

	return retrygo.DoWithData(
		func() (T, error) {
			return op(ctx)
		},
		retrygo.Context(ctx),
		retrygo.Attempts(cfg.Attempts),
		retrygo.Delay(cfg.Delay),
		retrygo.DelayType(retrygo.FixedDelay),
		retrygo.LastErrorOnly(true),
		retrygo.OnRetry(func(attempt uint, err error) {
			logger.Warn().
				Err(err).
				Str("operation", name).
				Uint("attempt", attempt+1).
				Uint("max_attempts", cfg.Attempts).
				Msg("Attempt failed, retrying after fixed delay")
		}),
	)
}
