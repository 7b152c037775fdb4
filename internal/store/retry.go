package store

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Busy-retry schedule. A watch process and a one-shot ingest can contend for
// the write lock; ten seconds covers a large ingest batch.
const (
	retryInitialInterval = 50 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
	retryMaxElapsed      = 10 * time.Second
)

func newRetryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsed
	b.RandomizationFactor = 0.1
	return backoff.WithContext(b, ctx)
}

// RetryWithBackoff runs operation until it succeeds, returns a non-busy error,
// the retry budget is spent or ctx is done. Only SQLite lock contention is
// retried.
func RetryWithBackoff(ctx context.Context, operation func() error) error {
	return backoff.Retry(func() error {
		err := operation()
		switch {
		case err == nil:
			return nil
		case isRetryableError(err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}, newRetryPolicy(ctx))
}

// isRetryableError matches modernc.org/sqlite busy errors by message; the
// driver does not export typed errors for them.
func isRetryableError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
