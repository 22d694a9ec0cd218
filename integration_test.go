package kisan_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aayush997726/kisan"
	"github.com/aayush997726/kisan/cache"
	"github.com/aayush997726/kisan/catalog"
	"github.com/aayush997726/kisan/processor"
	"github.com/aayush997726/kisan/provider"
)

// Integration tests using all real components

func newIntegrationTranslator(p kisan.Provider, store kisan.Store) *kisan.Translator {
	return kisan.NewTranslator(p,
		kisan.WithStore(store),
		kisan.WithProcessor(processor.NewHTMLProcessor()),
	)
}

func TestIntegration_BasicTranslation(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, cache.NewMemoryStore(0))

	html := `<div><p>Hello</p></div>`
	result, err := translator.TranslateHTML(context.Background(), html, kisan.LangHindi)

	if err != nil {
		t.Fatalf("TranslateHTML failed: %v", err)
	}

	if !strings.Contains(result.Content, "नमस्ते") {
		t.Errorf("expected translated content, got: %s", result.Content)
	}

	if result.TotalNodes != 1 || result.TranslatedCount != 1 {
		t.Errorf("unexpected counts: %+v", result)
	}
}

func TestIntegration_CacheHit(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, cache.NewMemoryStore(0))

	html := `<p>Cotton</p><p>Wheat</p>`
	ctx := context.Background()

	if _, err := translator.TranslateHTML(ctx, html, kisan.LangHindi); err != nil {
		t.Fatal(err)
	}
	if p.CallCount() != 1 {
		t.Fatalf("expected one batch request, got %d", p.CallCount())
	}

	result, err := translator.TranslateHTML(ctx, html, kisan.LangHindi)
	if err != nil {
		t.Fatal(err)
	}

	if result.CachedCount != 2 || result.TranslatedCount != 0 {
		t.Errorf("second pass should be fully cached: %+v", result)
	}
	if p.CallCount() != 1 {
		t.Errorf("cached pass should not call the provider, got %d calls", p.CallCount())
	}
}

func TestIntegration_PersistAcrossRestart(t *testing.T) {
	store := cache.NewMemoryStore(0)
	p := provider.NewMockProvider()
	ctx := context.Background()

	first := newIntegrationTranslator(p, store)
	first.TranslateBatch(ctx, []string{"Cotton", "Onion"}, kisan.LangHindi)

	second := newIntegrationTranslator(p, store)
	if v, ok := second.Get("Onion", kisan.LangHindi); !ok || v != "प्याज" {
		t.Errorf("Get() after restart = %q, %v", v, ok)
	}

	got := second.TranslateOne(ctx, "Cotton", kisan.LangHindi)
	if got != "कपास" || p.CallCount() != 1 {
		t.Errorf("restored entry should be served from cache: %q after %d calls", got, p.CallCount())
	}
}

func TestIntegration_ExpiredSnapshotIgnored(t *testing.T) {
	store := cache.NewMemoryStore(0)
	p := provider.NewMockProvider()
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := start

	first := kisan.NewTranslator(p, kisan.WithStore(store), kisan.WithClock(func() time.Time { return now }))
	first.TranslateOne(context.Background(), "Wheat", kisan.LangHindi)

	now = start.Add(kisan.DefaultExpiry)
	second := kisan.NewTranslator(p, kisan.WithStore(store), kisan.WithClock(func() time.Time { return now }))
	if second.Len() != 0 {
		t.Errorf("expired snapshot should load empty, got %d entries", second.Len())
	}
}

func TestIntegration_IgnoredTags(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, nil)

	html := `<div><p>Hello</p><script>var x = "Hello";</script><code>Hello</code></div>`
	result, err := translator.TranslateHTML(context.Background(), html, kisan.LangHindi)

	if err != nil {
		t.Fatalf("TranslateHTML failed: %v", err)
	}

	if !strings.Contains(result.Content, `var x = "Hello"`) {
		t.Error("script content should not be translated")
	}
	if !strings.Contains(result.Content, "<code>Hello</code>") {
		t.Error("code content should not be translated")
	}
	if result.TotalNodes != 1 {
		t.Errorf("expected 1 node, got %d", result.TotalNodes)
	}
}

func TestIntegration_DataNoTranslate(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, nil)

	html := `<div><p>Weather</p><p data-no-translate>Weather</p></div>`
	result, err := translator.TranslateHTML(context.Background(), html, kisan.LangHindi)

	if err != nil {
		t.Fatalf("TranslateHTML failed: %v", err)
	}

	if !strings.Contains(result.Content, "<p>मौसम</p>") {
		t.Errorf("first paragraph should be translated: %s", result.Content)
	}
	if !strings.Contains(result.Content, "<p data-no-translate=\"\">Weather</p>") {
		t.Errorf("data-no-translate paragraph should be kept: %s", result.Content)
	}
}

func TestIntegration_Deduplication(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, nil)

	html := `<p>Irrigation</p><span>Irrigation</span><p>Irrigation</p>`
	result, err := translator.TranslateHTML(context.Background(), html, kisan.LangHindi)

	if err != nil {
		t.Fatal(err)
	}

	if n := strings.Count(result.Content, "सिंचाई"); n != 3 {
		t.Errorf("expected 3 translated occurrences, got %d in %s", n, result.Content)
	}
	if req := p.LastRequest(); req == nil || req.Count != 1 {
		t.Errorf("duplicate text should be requested once, got %+v", req)
	}
}

func TestIntegration_SourceEqualsTarget(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, nil)

	html := `<p>Hello</p>`
	result, err := translator.TranslateHTML(context.Background(), html, kisan.LangEnglish)

	if err != nil {
		t.Fatal(err)
	}
	if result.Content != html {
		t.Errorf("source language should pass through unchanged, got %s", result.Content)
	}
	if p.CallCount() != 0 {
		t.Errorf("expected no provider calls, got %d", p.CallCount())
	}
}

func TestIntegration_EmptyContent(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, nil)

	result, err := translator.TranslateHTML(context.Background(), "<div>   </div>", kisan.LangHindi)

	if err != nil {
		t.Fatal(err)
	}
	if result.TotalNodes != 0 || p.CallCount() != 0 {
		t.Errorf("whitespace-only content should not be translated: %+v", result)
	}
}

func TestIntegration_WhitespacePreserved(t *testing.T) {
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, nil)

	result, err := translator.TranslateHTML(context.Background(), "<p>  Hello  </p>", kisan.LangHindi)

	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content, "<p>  नमस्ते  </p>") {
		t.Errorf("surrounding whitespace should be preserved, got %s", result.Content)
	}
}

// flakyProvider fails with a retryable error a fixed number of times.
type flakyProvider struct {
	mu       sync.Mutex
	failures int
	calls    int
	next     kisan.Provider
}

func (p *flakyProvider) Generate(ctx context.Context, req kisan.GenerateRequest) (string, error) {
	p.mu.Lock()
	p.calls++
	fail := p.calls <= p.failures
	p.mu.Unlock()

	if fail {
		return "", &kisan.ProviderError{Message: "503 unavailable", Retryable: true}
	}
	return p.next.Generate(ctx, req)
}

func TestIntegration_RetryProvider(t *testing.T) {
	flaky := &flakyProvider{failures: 2, next: provider.NewMockProvider()}

	cfg := kisan.DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond
	translator := kisan.NewTranslator(kisan.NewRetryProvider(flaky, cfg))

	got := translator.TranslateOne(context.Background(), "Soybean", kisan.LangHindi)

	if got != "सोयाबीन" {
		t.Errorf("TranslateOne() = %q after retries", got)
	}
	if flaky.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", flaky.calls)
	}
}

func TestIntegration_BreakerFallsBack(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Err = &kisan.ProviderError{Message: "503 unavailable", Retryable: true}

	p := provider.NewBreakerProvider(mock, provider.BreakerConfig{Name: "gemini", FailureThreshold: 2, OpenTimeout: time.Hour})
	translator := kisan.NewTranslator(p)
	ctx := context.Background()

	for _, text := range []string{"Cotton", "Wheat", "Onion", "Weather"} {
		if got := translator.TranslateOne(ctx, text, kisan.LangHindi); got != text {
			t.Errorf("failed translation should fall back to %q, got %q", text, got)
		}
	}

	if mock.CallCount() != 2 {
		t.Errorf("open breaker should stop provider calls, got %d", mock.CallCount())
	}
	if p.State() != "open" {
		t.Errorf("breaker state = %s, want open", p.State())
	}
}

func TestIntegration_FallbackEvents(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Err = errors.New("connection refused")
	translator := kisan.NewTranslator(mock)

	var events []kisan.Event
	var mu sync.Mutex
	cancel := translator.Subscribe(func(ev kisan.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer cancel()

	translator.TranslateBatch(context.Background(), []string{"Cotton", "Wheat"}, kisan.LangHindi)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, ev := range events {
		if !ev.Fallback() || ev.Translated != ev.Key.Text {
			t.Errorf("expected fallback event, got %+v", ev)
		}
	}
	if translator.Len() != 0 {
		t.Errorf("fallbacks should not be cached, got %d entries", translator.Len())
	}
}

func TestIntegration_Localizer(t *testing.T) {
	store := cache.NewMemoryStore(0)
	p := provider.NewMockProvider()
	translator := newIntegrationTranslator(p, store)
	prefs := kisan.NewPreferences(store, zerolog.Nop())

	loc := kisan.NewLocalizer(translator, prefs, catalog.Default())
	ctx := context.Background()

	if got := loc.T("app.title", "Crop Advisor"); got != "Crop Advisor" {
		t.Errorf("English T() = %q", got)
	}

	if got := loc.Toggle(ctx); got != kisan.LangHindi {
		t.Fatalf("Toggle() = %s", got)
	}
	if got := loc.T("app.title", "Crop Advisor"); got != "क्रॉप एडवाइजर" {
		t.Errorf("catalog T() = %q", got)
	}

	if got := loc.T("market.onion", "Onion"); got != "Onion" {
		t.Errorf("first dynamic lookup should return the fallback, got %q", got)
	}
	loc.Wait()
	if got := loc.T("market.onion", "Onion"); got != "प्याज" {
		t.Errorf("dynamic T() after resolve = %q", got)
	}

	reloaded := kisan.NewLocalizer(translator, kisan.NewPreferences(store, zerolog.Nop()), catalog.Default())
	if reloaded.Language() != kisan.LangHindi {
		t.Errorf("language preference should persist, got %s", reloaded.Language())
	}
}
