// Package retry wraps collaborator calls that get a single second attempt.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Once runs fn and, if it fails, runs it one more time after delay. Errors
// marked with Permanent are returned immediately without a retry. notify, when
// non-nil, is called with the first error before the retry waits.
func Once(ctx context.Context, delay time.Duration, fn func() error, notify func(err error, wait time.Duration)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), 1), ctx)
	if notify == nil {
		return backoff.Retry(fn, policy)
	}
	return backoff.RetryNotify(fn, policy, notify)
}

// Permanent marks err as not worth retrying. The original error is what Once
// returns, so errors.Is keeps working on it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
