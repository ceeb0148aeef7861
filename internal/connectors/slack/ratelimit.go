package slack

import (
	"context"

	"golang.org/x/time/rate"
)

const (
	// ProactiveRate is the proactive throttle rate. Tier 3 methods allow
	// about 50 requests per minute.
	ProactiveRate = 1.0

	// ProactiveBurst is the token bucket size.
	ProactiveBurst = 3
)

// RateLimiter throttles outbound Web API calls with a token bucket.
type RateLimiter struct {
	bucket *rate.Limiter
}

// NewRateLimiter creates a rate limiter. Non-positive values use the defaults.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = ProactiveRate
	}
	if burst <= 0 {
		burst = ProactiveBurst
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Unlimited returns a rate limiter that never waits.
func Unlimited() *RateLimiter {
	return &RateLimiter{bucket: rate.NewLimiter(rate.Inf, 1)}
}

// Wait blocks until a request may be sent or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.bucket.Wait(ctx)
}
