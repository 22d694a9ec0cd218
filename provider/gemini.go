package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"github.com/aayush997726/kisan"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey      string  // Gemini API key; empty leaves the provider unconfigured
	Model       string  // Default "gemini-2.0-flash"
	BaseURL     string  // Custom endpoint (optional)
	Temperature float32 // Default 0.3
	HTTPClient  *http.Client
}

// GeminiProvider implements Provider using the Gemini generateContent API.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiProvider creates a Gemini provider. Without an API key the
// provider is still returned, and every Generate call fails with a
// ConfigError before any network traffic.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	p := &GeminiProvider{
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	if p.model == "" {
		p.model = DefaultGeminiModel
	}
	if p.temperature == 0 {
		p.temperature = 0.3
	}

	if cfg.APIKey == "" {
		return p, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, &kisan.ConfigError{Message: "invalid Gemini base URL " + cfg.BaseURL}
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &kisan.ConfigError{Message: "create Gemini client: " + err.Error()}
	}
	p.client = client
	return p, nil
}

// Generate implements Provider.
func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if p.client == nil {
		return "", &kisan.ConfigError{Message: "Gemini API key not found, set GEMINI_API_KEY"}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.temperature),
		TopK:            genai.Ptr[float32](1),
		TopP:            genai.Ptr[float32](1),
		MaxOutputTokens: int32(req.MaxOutputTokens),
	})
	if err != nil {
		return "", &kisan.ProviderError{
			Message:   "Gemini API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	text, ok := firstCandidateText(resp)
	if !ok {
		return "", &kisan.ProtocolError{Message: "invalid response from Gemini"}
	}
	return strings.TrimSpace(text), nil
}

// Model returns the model name.
func (p *GeminiProvider) Model() string {
	return p.model
}

// firstCandidateText returns candidates[0].content.parts[0].text.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil {
		return "", false
	}
	return c.Content.Parts[0].Text, true
}

var _ Provider = (*GeminiProvider)(nil)
