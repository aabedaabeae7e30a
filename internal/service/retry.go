package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"asteritime/internal/repository"
)

const (
	// MaxWriteAttempts bounds the read-merge-validate-write sequence,
	// counting the first try.
	MaxWriteAttempts = 3
	// RetryDelay is the pause between two attempts.
	RetryDelay = 100 * time.Millisecond
)

// retrier re-runs an optimistic write sequence on version conflicts.
type retrier struct {
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

func newRetrier(logger *zap.Logger) retrier {
	return retrier{attempts: MaxWriteAttempts, delay: RetryDelay, logger: logger}
}

// run calls fn until it succeeds, fails with something other than
// repository.ErrStaleVersion, or the attempts are used up. Every call of fn
// must start from a fresh read. Cancellation during the wait is reported as
// ErrInternal wrapping ctx.Err().
func (r retrier) run(ctx context.Context, entity string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = fn(ctx)
		if !errors.Is(err, repository.ErrStaleVersion) {
			return err
		}
		if attempt == r.attempts {
			break
		}
		optimisticRetries.WithLabelValues(entity).Inc()
		r.logger.Debug("version conflict, retrying",
			zap.String("entity", entity),
			zap.Int("attempt", attempt),
		)
		if r.delay > 0 {
			timer := time.NewTimer(r.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s write: %w: %w", entity, ErrInternal, ctx.Err())
			case <-timer.C:
			}
		}
	}
	optimisticConflicts.WithLabelValues(entity).Inc()
	r.logger.Warn("version conflict persisted",
		zap.String("entity", entity),
		zap.Int("attempts", r.attempts),
	)
	return err
}
