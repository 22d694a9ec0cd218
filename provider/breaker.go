package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aayush997726/kisan"
)

// BreakerConfig configures a BreakerProvider.
type BreakerConfig struct {
	Name             string        // Breaker name in logs and errors
	FailureThreshold uint32        // Consecutive failures that open the breaker, default 5
	OpenTimeout      time.Duration // Time spent open before probing, default 30s
	HalfOpenRequests uint32        // Probes allowed while half-open, default 1
}

// BreakerProvider stops calling a failing provider for a while so an outage
// costs one fast fallback per text instead of one slow timeout.
type BreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps provider with a circuit breaker.
func NewBreakerProvider(provider Provider, cfg BreakerConfig) *BreakerProvider {
	if cfg.Name == "" {
		cfg.Name = "provider"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	threshold := cfg.FailureThreshold
	return &BreakerProvider{
		provider: provider,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.HalfOpenRequests,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// A missing key or cancelled caller says nothing about the backend.
			IsSuccessful: func(err error) bool {
				var configErr *kisan.ConfigError
				return err == nil ||
					errors.As(err, &configErr) ||
					errors.Is(err, context.Canceled)
			},
		}),
	}
}

// Generate implements Provider.
func (p *BreakerProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.provider.Generate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &kisan.ProviderError{Message: "circuit " + p.cb.Name() + " open", Cause: err}
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State returns the breaker state: "closed", "half-open" or "open".
func (p *BreakerProvider) State() string {
	return p.cb.State().String()
}

var _ Provider = (*BreakerProvider)(nil)
