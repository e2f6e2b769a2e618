package resilience

import (
	"context"
	"time"
)

// Policy describes a bounded retry with exponential backoff. It is applied
// explicitly at call sites rather than woven in as a decorator, so each
// operation names the policy it runs under.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy matches the service-wide retry contract: 3 attempts,
// exponential backoff starting at 1s and capped at 60s.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxDelay:    60 * time.Second,
}

// Do runs op until it succeeds, the attempt budget is exhausted, or the
// context is done. retryable decides whether an error is worth another
// attempt; a nil retryable retries every error. The last error is returned.
func (p Policy) Do(ctx context.Context, op func() error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(p.delay(attempt)):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}

// delay computes the backoff before the next attempt, doubling per attempt
// and capping at MaxDelay.
func (p Policy) delay(attempt int) time.Duration {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
