package mongo

import (
	"context"
	"errors"
	"fmt"
	apperrors "meshwar/pkg/errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"

	codeWriteConflict = 112
)

var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// RetryPolicy retries a whole unit of work while it fails with transient errors.
// Each attempt gets its own Timeout; waits between attempts grow exponentially from
// InitialBackoff up to MaxBackoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

// RetryNotify is called before sleeping between attempts.
type RetryNotify func(err error, attempt int, wait time.Duration)

func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error, notify RetryNotify) error {
	maxAttempts := max(p.MaxAttempts, 1)

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialBackoff
	expo.MaxInterval = p.MaxBackoff
	expo.MaxElapsedTime = 0
	expo.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxAttempts-1)), ctx)

	attempt := 0
	var lastErr error
	err := backoff.RetryNotify(func() error {
		attempt++
		attemptCtx, cancel := p.attemptContext(ctx)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		lastErr = err
		return err
	}, policy, func(err error, wait time.Duration) {
		if notify != nil {
			notify(err, attempt, wait)
		}
	})

	if err == nil {
		return nil
	}
	if lastErr != nil && (IsTransient(err) || errors.Is(err, ctx.Err())) {
		return fmt.Errorf("%w after %d attempt(s): %w", ErrRetriesExhausted, attempt, lastErr)
	}
	return err
}

func (p RetryPolicy) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

// IsUnknownCommitResult reports whether err leaves open if the transaction committed.
func IsUnknownCommitResult(err error) bool {
	var labeled mongo.LabeledError
	return errors.As(err, &labeled) && labeled.HasErrorLabel(labelUnknownCommitResult)
}

// IsTransient reports whether err is a conflict, timeout or connectivity failure after
// which repeating the same operation may succeed. Domain errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRetriesExhausted) {
		return true
	}
	if apperrors.IsAppError(err) {
		return apperrors.HasCode(err, apperrors.CodeTransient)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		if labeled.HasErrorLabel(labelTransientTransaction) || labeled.HasErrorLabel(labelUnknownCommitResult) {
			return true
		}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeWriteConflict {
		return true
	}
	return false
}
