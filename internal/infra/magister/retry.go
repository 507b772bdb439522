package magister

import (
	"context"
	"errors"
	"time"

	dm "magister_monitor/internal/domain/magister"
)

// RetryPolicy is the single retry policy applied at the fetch boundary. Only
// transient failures are retried; auth failures surface immediately so the
// token-refresh hook can run.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy keeps retries conservative to avoid hammering the portal.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond, Multiplier: 2.0}
}

// Do runs op, retrying transient failures with exponential backoff until the
// attempt budget is spent or the context is cancelled.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	delay := p.Delay
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var transient *dm.TransientError
		if !errors.As(lastErr, &transient) || attempt >= p.MaxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
}
