// Package retry wraps transient operations in an explicit
// invoke-with-policy call built on exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted marks a terminal failure after the attempt budget is spent.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy fixes the retry budget for one operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultPolicy matches the harvester's remote-call defaults.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2.0}
}

// Permanent marks an error as non-retryable; Do surfaces it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do invokes op until it succeeds, the policy's attempts are exhausted or
// ctx is done. The delay before attempt n is BaseDelay * Multiplier^(n-2).
// On exhaustion the last error is wrapped with ErrExhausted.
func Do[T any](ctx context.Context, logger *slog.Logger, policy Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		return zero, fmt.Errorf("retry %s: max attempts must be positive, got %d", name, policy.MaxAttempts)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.BaseDelay
	expo.Multiplier = policy.Multiplier
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0 // bounded by attempts, not wall clock

	var result T
	attempt := 0
	operation := func() error {
		attempt++
		value, err := op(ctx)
		if err != nil {
			logger.Warn("attempt failed", "op", name, "attempt", attempt, "max_attempts", policy.MaxAttempts, "error", err)
			return err
		}
		result = value
		return nil
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(expo, ctx), uint64(policy.MaxAttempts-1)))
	if err != nil {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return zero, permanent.Err
		}
		return zero, fmt.Errorf("%s: %w after %d attempts: %w", name, ErrExhausted, attempt, err)
	}
	return result, nil
}
