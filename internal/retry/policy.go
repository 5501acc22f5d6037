// Package retry decides whether a failed attempt is retried and how long to
// wait before the next one.
package retry

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"github.com/teracrafts/huefy-go/internal/core"
)

// Config is the retry policy shared read-only by every operation of a client.
type Config struct {
	// Enabled indicates whether retries are enabled.
	Enabled bool

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BackoffFactor is the delay before the first retry; it doubles per retry.
	BackoffFactor time.Duration

	// MaxDelay caps the exponential delay.
	MaxDelay time.Duration

	// Jitter adds up to 10% random delay on top of the computed backoff.
	Jitter bool
}

// Decision is computed fresh for every failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// ShouldRetry decides what to do after the zero-based attempt failed with err.
func ShouldRetry(attempt int, err *core.Error, cfg Config) Decision {
	if !cfg.Enabled || attempt >= cfg.MaxRetries || err == nil || !err.Retryable() {
		return Decision{}
	}

	delay := Backoff(attempt, cfg)

	// The service's Retry-After is a floor, even above MaxDelay.
	if ra := err.RetryAfterDuration(); ra > delay {
		delay = ra
	}

	return Decision{Retry: true, Delay: delay}
}

// Backoff returns min(MaxDelay, BackoffFactor * 2^attempt), plus jitter when
// enabled.
func Backoff(attempt int, cfg Config) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	raw := float64(cfg.BackoffFactor) * math.Pow(2, float64(attempt))

	var delay time.Duration
	if cfg.MaxDelay > 0 && raw > float64(cfg.MaxDelay) {
		delay = cfg.MaxDelay
	} else if raw >= math.MaxInt64 {
		delay = time.Duration(math.MaxInt64)
	} else {
		delay = time.Duration(raw)
	}

	if cfg.Jitter {
		delay += jitter(delay)
	}

	return delay
}

// jitter returns up to 10% of delay using cryptographically secure random.
func jitter(delay time.Duration) time.Duration {
	maxJitter := int64(float64(delay) * 0.1)
	if maxJitter <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}

// Sleep waits for d or until ctx is done, whichever comes first. It parks
// only the calling goroutine.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
