package kisan

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Attempts after the first one
	BaseDelay  time.Duration // Delay before the first retry, doubled each time
	MaxDelay   time.Duration // Upper bound for a single delay
	Logger     zerolog.Logger
}

// DefaultRetryConfig returns two retries starting at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Logger:     zerolog.Nop(),
	}
}

// delay returns the backoff before retry number attempt (zero based).
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.BaseDelay << attempt
	if d <= 0 || (c.MaxDelay > 0 && d > c.MaxDelay) {
		d = c.MaxDelay
	}
	return d
}

// WithRetry calls fn until it succeeds, fails with a non-retryable error,
// or runs out of attempts.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == cfg.MaxRetries {
			break
		}

		wait := cfg.delay(attempt)
		cfg.Logger.Debug().Err(err).Int("attempt", attempt+1).Dur("wait", wait).Msg("retrying provider call")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// IsRetryable reports whether err is a ProviderError marked retryable.
// Context cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}

// RetryProvider wraps a Provider with exponential backoff.
type RetryProvider struct {
	provider Provider
	config   RetryConfig
}

// NewRetryProvider creates a provider that retries transient failures.
func NewRetryProvider(provider Provider, cfg RetryConfig) *RetryProvider {
	return &RetryProvider{provider: provider, config: cfg}
}

// Generate implements Provider.
func (p *RetryProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return WithRetry(ctx, p.config, func() (string, error) {
		return p.provider.Generate(ctx, req)
	})
}
