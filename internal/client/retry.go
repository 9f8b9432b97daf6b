package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ganot/parley/internal/apperr"
)

// readAttempts bounds retries of idempotent reads. Writes are never retried.
const readAttempts = 3

// retryRead runs op until it succeeds, fails with a non-transport error or
// runs out of attempts.
func retryRead[T any](ctx context.Context, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 400 * time.Millisecond

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !apperr.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(readAttempts))
}
