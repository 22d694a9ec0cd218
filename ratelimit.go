package kisan

import (
	"context"
	"sync"
	"time"
)

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Sustained rate, default 60
	BurstSize         int // Bucket capacity, default RequestsPerMinute
}

// RateLimiter is a token bucket shared by every provider call.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	perSecond  float64
	lastRefill time.Time
	now        func() time.Time
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := float64(cfg.RequestsPerMinute)
	if rpm <= 0 {
		rpm = 60
	}
	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = rpm
	}

	r := &RateLimiter{
		tokens:    burst,
		capacity:  burst,
		perSecond: rpm / 60.0,
		now:       time.Now,
	}
	r.lastRefill = r.now()
	return r
}

// Wait blocks until a token is taken or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a token if one is available.
func (r *RateLimiter) TryAcquire() bool {
	_, ok := r.reserve()
	return ok
}

// reserve takes a token, or reports how long until one accrues.
func (r *RateLimiter) reserve() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()
	if r.tokens >= 1 {
		r.tokens--
		return 0, true
	}

	missing := 1 - r.tokens
	return time.Duration(missing / r.perSecond * float64(time.Second)), false
}

func (r *RateLimiter) refillLocked() {
	now := r.now()
	r.tokens += now.Sub(r.lastRefill).Seconds() * r.perSecond
	if r.tokens > r.capacity {
		r.tokens = r.capacity
	}
	r.lastRefill = now
}

// Available returns the current number of tokens.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refillLocked()
	return r.tokens
}

// RateLimitedProvider wraps a Provider with a RateLimiter.
type RateLimitedProvider struct {
	provider Provider
	limiter  *RateLimiter
}

// NewRateLimitedProvider creates a rate-limited provider.
func NewRateLimitedProvider(provider Provider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
	}
}

// Generate implements Provider.
func (p *RateLimitedProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Message: "rate limit wait cancelled", Cause: err}
	}
	return p.provider.Generate(ctx, req)
}

// Limiter returns the underlying rate limiter.
func (p *RateLimitedProvider) Limiter() *RateLimiter {
	return p.limiter
}
