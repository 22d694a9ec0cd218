package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aayush997726/kisan"
)

// MockProvider answers from a fixed dictionary without network access.
// It understands the single and batch prompt shapes built by kisan.
type MockProvider struct {
	Translations map[string]string // Source text to translation
	Response     string            // When set, returned verbatim for every call
	Err          error             // When set, returned for every call

	mu          sync.Mutex
	calls       int
	lastRequest *GenerateRequest
}

// NewMockProvider creates a mock provider with a small farming vocabulary.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Cotton":        "कपास",
			"Wheat":         "गेहूं",
			"Soybean":       "सोयाबीन",
			"Onion":         "प्याज",
			"Weather":       "मौसम",
			"Irrigation":    "सिंचाई",
			"Soil Moisture": "मृदा नमी",
			"Market Prices": "बाजार भाव",
			"Hello":         "नमस्ते",
		},
	}
}

// Generate implements Provider.
func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastRequest = &req
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}

	body := req.Prompt
	if i := strings.Index(body, "\n\n"); i >= 0 {
		body = body[i+2:]
	}

	texts := []string{body}
	if req.Count > 1 {
		texts = strings.Split(body, kisan.BatchDelimiter)
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		if translation, ok := m.Translations[text]; ok {
			out[i] = translation
		} else {
			out[i] = fmt.Sprintf("[%s]", text)
		}
	}
	return strings.Join(out, kisan.BatchDelimiter), nil
}

// CallCount returns the number of Generate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.lastRequest = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
