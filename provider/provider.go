// Package provider implements kisan.Provider for the supported generative
// language backends.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aayush997726/kisan"
)

// Provider is an alias to the main package interface for convenience.
type Provider = kisan.Provider

// GenerateRequest is an alias to the main package type.
type GenerateRequest = kisan.GenerateRequest

// Names accepted by New.
const (
	NameGemini = "gemini"
	NameOpenAI = "openai"
	NameMock   = "mock"
)

// Config selects and configures a provider.
type Config struct {
	Name       string // "gemini" (default), "openai" or "mock"
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// New builds the provider named by cfg.Name.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "", NameGemini:
		p, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case NameOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
		}), nil
	case NameMock:
		return NewMockProvider(), nil
	default:
		return nil, &kisan.ConfigError{Message: fmt.Sprintf("unknown provider %q", cfg.Name)}
	}
}

func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"resource_exhausted",
		"unavailable",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
