package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/slackrag/internal/logger"
	"github.com/custodia-labs/slackrag/internal/metrics"
)

const (
	// BaseBackoff is the first backoff step.
	BaseBackoff = 5 * time.Second

	// MaxBackoff caps every sleep.
	MaxBackoff = 60 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier retries rate limited calls with capped exponential backoff.
type Retrier struct {
	sleep SleepFunc
}

// NewRetrier creates a retrier. A nil sleep uses a timer that honours
// context cancellation.
func NewRetrier(sleep SleepFunc) *Retrier {
	if sleep == nil {
		sleep = sleepContext
	}
	return &Retrier{sleep: sleep}
}

// Do calls fn until it returns nil or a non rate limit error. Rate limited
// calls are retried indefinitely; only ctx cancellation ends the loop early.
func (r *Retrier) Do(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", method, ctx.Err())
		default:
		}

		err := fn(ctx)
		if err == nil {
			metrics.SlackRequests.WithLabelValues(method, metrics.ResultOK).Inc()
			return nil
		}

		hint, limited := rateLimitHint(err)
		if !limited {
			metrics.SlackRequests.WithLabelValues(method, metrics.ResultError).Inc()
			return err
		}

		wait := Backoff(attempt, hint)
		metrics.SlackRateLimitWaits.WithLabelValues(method).Inc()
		logger.Warn("Slack rate limited on %s, waiting %s (attempt %d)", method, wait, attempt+1)

		if err := r.sleep(ctx, wait); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
	}
}

// Backoff returns min(max(hint, BaseBackoff*2^attempt), MaxBackoff).
func Backoff(attempt int, hint time.Duration) time.Duration {
	step := MaxBackoff
	if attempt >= 0 && attempt < 4 {
		step = BaseBackoff << attempt
	}
	wait := max(hint, step)
	return min(wait, MaxBackoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
