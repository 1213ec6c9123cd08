package retry

import (
	"context"
	"time"
)

// Policy computes backoff delays and retry eligibility. Attempts are
// numbered from 0; a policy permits MaxRetries+1 total attempts.
type Policy struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay"`
}

// DefaultPolicy returns a default retry policy
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
	}
}

// Delay returns min(BaseDelay * 2^attempt, MaxDelay)
func (p Policy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	return delay
}

// Attempts returns the total number of attempts the policy permits
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// Do runs fn up to MaxRetries+1 times, sleeping Delay(attempt) after every
// failed attempt except the last. The final attempt's error is what the
// caller sees. The sleep is cooperative: it blocks only this call and aborts
// on context cancellation.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxRetries {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
