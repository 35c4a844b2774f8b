package infra

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter.
// Thread-safe and suitable for concurrent API calls.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter.
// maxRequests: maximum burst size
// perSecond: refill rate (requests per second)
func NewRateLimiter(maxRequests int, perSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     float64(maxRequests),
		maxTokens:  float64(maxRequests),
		refillRate: perSecond,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		nextToken := time.Duration(float64(time.Second) / r.refillRate)
		if !Wait(ctx, nextToken) {
			return ctx.Err()
		}
	}
}

// TryAcquire attempts to acquire a token without blocking.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// refill adds tokens based on elapsed time.
// Must be called with mutex held.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate

	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	r.lastRefill = now
}

// Roxom rate limiters, shared across all callers of the REST surface.
// Conservative limits: the venue bans aggressively on bursts.
var (
	roxomOrderLimiter   *RateLimiter
	roxomAccountLimiter *RateLimiter
	rateLimiterOnce     sync.Once
)

// GetRoxomOrderLimiter returns the limiter for place/cancel endpoints.
func GetRoxomOrderLimiter() *RateLimiter {
	rateLimiterOnce.Do(initRoxomLimiters)
	return roxomOrderLimiter
}

// GetRoxomAccountLimiter returns the limiter for order/position listings.
func GetRoxomAccountLimiter() *RateLimiter {
	rateLimiterOnce.Do(initRoxomLimiters)
	return roxomAccountLimiter
}

func initRoxomLimiters() {
	roxomOrderLimiter = NewRateLimiter(10, 20)  // 20 req/s, burst 10
	roxomAccountLimiter = NewRateLimiter(5, 10) // 10 req/s, burst 5
}
