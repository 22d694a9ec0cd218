package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/aayush997726/kisan"
)

// DefaultOpenAIModel is used when OpenAIConfig.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements Provider using an OpenAI-compatible chat API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	configured  bool
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
	HTTPClient  *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		configured:  cfg.APIKey != "",
	}
}

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if !p.configured {
		return "", &kisan.ConfigError{Message: "OpenAI API key not found, set OPENAI_API_KEY"}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: p.temperature,
		TopP:        1,
		MaxTokens:   req.MaxOutputTokens,
	})
	if err != nil {
		return "", &kisan.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return "", &kisan.ProtocolError{Message: "no choices in OpenAI response"}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
