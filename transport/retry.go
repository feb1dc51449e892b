package transport

import (
	"context"
	"math"
	"time"
)

// Backoff maps the zero-based index of a failed attempt to the time to
// wait before the next one.
type Backoff func(attempt int) time.Duration

const (
	defaultRetries     = 5
	defaultBackoffBase = 50 * time.Millisecond
	defaultBackoffCap  = 10 * time.Second
)

// ExponentialBackoff returns a Backoff computing e^attempt * base, capped
// at limit. The result is deterministic and non-decreasing in attempt.
func ExponentialBackoff(base, limit time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		d := math.Exp(float64(attempt)) * float64(base)
		if d >= float64(limit) {
			return limit
		}
		return time.Duration(d)
	}
}

// RetryConfig controls how many times a request is retried after a
// transport level failure, and how long to wait in between.
//
// Retries is the number of additional attempts: a value of 0 means the
// request is attempted exactly once.
type RetryConfig struct {
	Retries int
	Backoff Backoff
}

// DefaultRetry returns the default retry policy: 5 retries with
// ExponentialBackoff(50ms, 10s).
func DefaultRetry() RetryConfig {
	return RetryConfig{
		Retries: defaultRetries,
		Backoff: ExponentialBackoff(defaultBackoffBase, defaultBackoffCap),
	}
}

// NoRetry returns a policy that attempts each request exactly once.
func NoRetry() RetryConfig {
	return RetryConfig{}
}

func (rc RetryConfig) attempts() int {
	return 1 + max(0, rc.Retries)
}

func (rc RetryConfig) wait(attempt int) time.Duration {
	if rc.Backoff == nil {
		return 0
	}
	return rc.Backoff(attempt)
}

// sleep blocks for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
