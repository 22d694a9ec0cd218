package kisan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Provider is the interface for generative translation backends.
// It is handed a complete prompt and returns the raw model text.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest contains the parameters for one provider round trip.
type GenerateRequest struct {
	Prompt          string
	MaxOutputTokens int
	Count           int // Number of texts carried by Prompt
}

// ContentProcessor is the interface for content processing.
type ContentProcessor interface {
	Extract(content string) (interface{}, []TextNode, error)
	Apply(parsed interface{}, nodes []TextNode, translations map[string]string) (string, error)
	ContentType() string
}

// Event reports the outcome of one dispatched translation.
type Event struct {
	Key        Key
	Translated string // Equals Key.Text when the translation fell back
	Err        error  // Why the translation fell back, nil on success
}

// Fallback reports whether the source text was returned untranslated.
func (e Event) Fallback() bool {
	return e.Err != nil
}

// Translator is the translation cache and dispatcher.
//
// Lookups are answered from memory; misses are sent to the provider, stored,
// and written through to the Store. Provider failures never reach the
// caller: the source text is returned instead.
type Translator struct {
	provider     Provider
	store        Store
	persister    *Persister
	expiry       time.Duration
	sourceLang   Language
	logger       zerolog.Logger
	now          func() time.Time
	singleFlight bool
	group        singleflight.Group
	processors   map[string]ContentProcessor

	mu        sync.Mutex
	entries   map[string]string
	inflight  map[string]int
	observers map[int]func(Event)
	nextObs   int

	saveMu sync.Mutex
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithStore sets the durable store for the cache snapshot.
func WithStore(store Store) TranslatorOption {
	return func(t *Translator) {
		t.store = store
	}
}

// WithExpiry sets how long a persisted snapshot stays valid.
func WithExpiry(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.expiry = d
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithSourceLang sets the source language (default "en").
func WithSourceLang(lang Language) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithSingleFlight makes concurrent requests for the same key share one
// provider call. Without it each concurrent caller dispatches its own.
func WithSingleFlight() TranslatorOption {
	return func(t *Translator) {
		t.singleFlight = true
	}
}

// WithProcessor registers a content processor.
func WithProcessor(processor ContentProcessor) TranslatorOption {
	return func(t *Translator) {
		t.processors[processor.ContentType()] = processor
	}
}

// WithClock overrides the time source used for snapshot timestamps.
func WithClock(now func() time.Time) TranslatorOption {
	return func(t *Translator) {
		t.now = now
	}
}

// NewTranslator creates a Translator and loads any valid persisted snapshot.
func NewTranslator(provider Provider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		provider:   provider,
		sourceLang: LangEnglish,
		logger:     zerolog.Nop(),
		now:        time.Now,
		processors: make(map[string]ContentProcessor),
		entries:    make(map[string]string),
		inflight:   make(map[string]int),
		observers:  make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.persister = NewPersister(t.store, t.expiry, t.logger)
	t.persister.now = t.now
	t.entries = t.persister.Load(context.Background())

	return t
}

// Reload replaces the in-memory cache with the persisted snapshot.
func (t *Translator) Reload(ctx context.Context) {
	entries := t.persister.Load(ctx)
	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
}

// Get returns the cached translation of text, if any.
func (t *Translator) Get(text string, lang Language) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(Key{Text: text, Lang: lang})
}

func (t *Translator) lookupLocked(key Key) (string, bool) {
	v, ok := t.entries[key.String()]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// TranslateOne translates text into lang. It always returns a displayable
// string: the cached or freshly translated text, or text itself on failure.
func (t *Translator) TranslateOne(ctx context.Context, text string, lang Language) string {
	out, _ := t.translate(ctx, text, lang)
	return out
}

// translate is TranslateOne that also reports why a fallback happened.
func (t *Translator) translate(ctx context.Context, text string, lang Language) (string, error) {
	if t.skip(text, lang) {
		return text, nil
	}

	key := Key{Text: text, Lang: lang}
	if v, ok := t.Get(text, lang); ok {
		CacheHits.Inc()
		return v, nil
	}
	CacheMisses.Inc()

	if !t.singleFlight {
		return t.dispatchOne(ctx, key)
	}

	// The flight outlives any single caller; each caller stops waiting
	// when its own context ends.
	flightCtx := context.WithoutCancel(ctx)
	ch := t.group.DoChan(key.String(), func() (interface{}, error) {
		// An earlier flight for this key may have landed between our
		// lookup and joining the group.
		if v, ok := t.Get(text, lang); ok {
			return v, nil
		}
		return t.dispatchOne(flightCtx, key)
	})

	select {
	case res := <-ch:
		return res.Val.(string), res.Err
	case <-ctx.Done():
		return text, ctx.Err()
	}
}

func (t *Translator) dispatchOne(ctx context.Context, key Key) (string, error) {
	t.begin(key)
	defer t.end(key)

	t.logger.Debug().Str("text", key.Text).Str("lang", string(key.Lang)).Msg("dispatching translation")

	translated, err := t.generate(ctx, "single", GenerateRequest{
		Prompt:          BuildSinglePrompt(key.Text, key.Lang),
		MaxOutputTokens: singleMaxTokens,
		Count:           1,
	})
	if err == nil && translated == "" {
		err = &ProtocolError{Message: "empty translation"}
	}
	if err != nil {
		t.fallback(err, 1)
		t.logger.Warn().Err(err).Str("text", key.Text).Msg("translation failed, using source text")
		t.notify(Event{Key: key, Translated: key.Text, Err: err})
		return key.Text, err
	}

	t.mu.Lock()
	t.entries[key.String()] = translated
	t.mu.Unlock()
	t.persist(ctx)

	t.notify(Event{Key: key, Translated: translated})
	return translated, nil
}

// batchStats summarizes how a batch was answered.
type batchStats struct {
	Cached     int
	Translated int
	Fallback   int
}

// TranslateBatch translates texts into lang with at most one provider call.
// The result has the same length and order as texts.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, lang Language) []string {
	results, _ := t.translateBatch(ctx, texts, lang)
	return results
}

func (t *Translator) translateBatch(ctx context.Context, texts []string, lang Language) ([]string, batchStats) {
	var stats batchStats
	results := make([]string, len(texts))

	if sameLanguage(lang, t.sourceLang) {
		copy(results, texts)
		return results, stats
	}

	type pending struct {
		key     Key
		indices []int
	}
	var uncached []*pending
	byText := make(map[string]*pending)

	t.mu.Lock()
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = text
			continue
		}
		key := Key{Text: text, Lang: lang}
		if v, ok := t.lookupLocked(key); ok {
			results[i] = v
			stats.Cached++
			continue
		}
		// Deduplicate cache misses
		if p, ok := byText[text]; ok {
			p.indices = append(p.indices, i)
			continue
		}
		p := &pending{key: key, indices: []int{i}}
		byText[text] = p
		uncached = append(uncached, p)
	}
	t.mu.Unlock()

	CacheHits.Add(float64(stats.Cached))
	if len(uncached) == 0 {
		return results, stats
	}
	CacheMisses.Add(float64(len(uncached)))

	keys := make([]Key, len(uncached))
	sources := make([]string, len(uncached))
	for i, p := range uncached {
		keys[i] = p.key
		sources[i] = p.key.Text
	}

	t.begin(keys...)
	defer t.end(keys...)

	t.logger.Debug().Int("texts", len(sources)).Str("lang", string(lang)).Msg("dispatching batch translation")

	content, err := t.generate(ctx, "batch", GenerateRequest{
		Prompt:          BuildBatchPrompt(sources, lang),
		MaxOutputTokens: batchMaxTokens,
		Count:           len(sources),
	})
	if err == nil && content == "" {
		err = &ProtocolError{Message: "empty batch translation"}
	}
	if err != nil {
		t.fallback(err, len(uncached))
		t.logger.Warn().Err(err).Int("texts", len(uncached)).Msg("batch translation failed, using source texts")
		for _, p := range uncached {
			for _, idx := range p.indices {
				results[idx] = p.key.Text
			}
			stats.Fallback += len(p.indices)
			t.notify(Event{Key: p.key, Translated: p.key.Text, Err: err})
		}
		return results, stats
	}

	segments := SplitBatchResponse(content)
	var mismatch error
	if len(segments) != len(uncached) {
		mismatch = &CountMismatchError{Expected: len(uncached), Got: len(segments)}
		t.logger.Warn().Err(mismatch).Msg("batch response segment count differs from request")
	}

	events := make([]Event, 0, len(uncached))
	stored := 0
	t.mu.Lock()
	for i, p := range uncached {
		ev := Event{Key: p.key, Translated: p.key.Text}
		if i < len(segments) && segments[i] != "" {
			ev.Translated = segments[i]
			t.entries[p.key.String()] = segments[i]
			stats.Translated += len(p.indices)
			stored++
		} else {
			ev.Err = mismatch
			if ev.Err == nil {
				ev.Err = &ProtocolError{Message: "empty batch segment"}
			}
			stats.Fallback += len(p.indices)
		}
		for _, idx := range p.indices {
			results[idx] = ev.Translated
		}
		events = append(events, ev)
	}
	t.mu.Unlock()

	if missing := len(uncached) - stored; missing > 0 {
		Fallbacks.WithLabelValues("count_mismatch").Add(float64(missing))
	}
	if stored > 0 {
		t.persist(ctx)
	}
	for _, ev := range events {
		t.notify(ev)
	}

	return results, stats
}

// Process translates every text node of content using the processor
// registered for contentType.
func (t *Translator) Process(ctx context.Context, content, contentType string, lang Language) (*ProcessedContent, error) {
	if sameLanguage(lang, t.sourceLang) {
		return &ProcessedContent{Content: content}, nil
	}

	processor, ok := t.processors[contentType]
	if !ok {
		return nil, &ProcessorError{
			Message:     "no processor registered for content type",
			ContentType: contentType,
		}
	}

	parsed, nodes, err := processor.Extract(content)
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return &ProcessedContent{Content: content}, nil
	}

	texts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Text
	}

	results, stats := t.translateBatch(ctx, texts, lang)

	translations := make(map[string]string, len(nodes))
	for i, node := range nodes {
		translations[node.Text] = results[i]
	}

	result, err := processor.Apply(parsed, nodes, translations)
	if err != nil {
		return nil, err
	}

	if contentType == "html" {
		result = setHTMLAttributes(result, lang)
	}

	return &ProcessedContent{
		Content:         result,
		TranslatedCount: stats.Translated,
		CachedCount:     stats.Cached,
		FallbackCount:   stats.Fallback,
		TotalNodes:      len(nodes),
	}, nil
}

// TranslateHTML is a convenience method for processing HTML content.
func (t *Translator) TranslateHTML(ctx context.Context, html string, lang Language) (*ProcessedContent, error) {
	return t.Process(ctx, html, "html", lang)
}

// Subscribe registers fn to be called after every dispatched translation
// resolves. The returned function removes the subscription.
func (t *Translator) Subscribe(fn func(Event)) (cancel func()) {
	t.mu.Lock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.observers, id)
		t.mu.Unlock()
	}
}

// InFlight reports whether a provider call for text is pending.
func (t *Translator) InFlight(text string, lang Language) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight[Key{Text: text, Lang: lang}.String()] > 0
}

// Pending returns the number of keys awaiting a provider response.
func (t *Translator) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// Entries returns a copy of the cache contents keyed by Key.String().
func (t *Translator) Entries() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of cached translations.
func (t *Translator) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Set stores a translation under a raw storage key without persisting it.
// Call Flush afterwards to write the snapshot.
func (t *Translator) Set(key, value string) error {
	if _, ok := ParseKey(key); !ok {
		return &CacheError{Message: "invalid cache key " + key}
	}
	if value == "" {
		return &CacheError{Message: "empty translation for " + key}
	}
	t.mu.Lock()
	t.entries[key] = value
	t.mu.Unlock()
	return nil
}

// Flush writes the current cache to the store.
func (t *Translator) Flush(ctx context.Context) {
	t.persist(ctx)
}

// Clear empties the in-memory cache and removes the persisted snapshot.
func (t *Translator) Clear(ctx context.Context) {
	t.mu.Lock()
	t.entries = make(map[string]string)
	t.mu.Unlock()
	t.persister.Clear(ctx)
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() Language {
	return t.sourceLang
}

// IsSourceLang reports whether lang needs no translation.
func (t *Translator) IsSourceLang(lang Language) bool {
	return sameLanguage(lang, t.sourceLang)
}

func (t *Translator) skip(text string, lang Language) bool {
	return strings.TrimSpace(text) == "" || sameLanguage(lang, t.sourceLang)
}

func (t *Translator) generate(ctx context.Context, kind string, req GenerateRequest) (string, error) {
	if t.provider == nil {
		ProviderRequests.WithLabelValues(kind, "error").Inc()
		return "", &ConfigError{Message: "no translation provider configured"}
	}

	out, err := t.provider.Generate(ctx, req)
	if err != nil {
		ProviderRequests.WithLabelValues(kind, "error").Inc()
		return "", err
	}
	ProviderRequests.WithLabelValues(kind, "ok").Inc()
	return strings.TrimSpace(out), nil
}

// persist snapshots the cache and saves it. saveMu keeps a slower, older
// snapshot from overwriting a newer one.
func (t *Translator) persist(ctx context.Context) {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()
	t.persister.Save(ctx, t.Entries())
}

func (t *Translator) begin(keys ...Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		s := k.String()
		if t.inflight[s] == 0 {
			InFlight.Inc()
		}
		t.inflight[s]++
	}
}

func (t *Translator) end(keys ...Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		s := k.String()
		t.inflight[s]--
		if t.inflight[s] <= 0 {
			delete(t.inflight, s)
			InFlight.Dec()
		}
	}
}

func (t *Translator) notify(ev Event) {
	t.mu.Lock()
	fns := make([]func(Event), 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (t *Translator) fallback(err error, n int) {
	Fallbacks.WithLabelValues(fallbackReason(err)).Add(float64(n))
}

func fallbackReason(err error) string {
	var configErr *ConfigError
	var protocolErr *ProtocolError
	var mismatchErr *CountMismatchError
	switch {
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &mismatchErr):
		return "count_mismatch"
	default:
		return "provider"
	}
}

// setHTMLAttributes sets lang and dir attributes on the <html> tag.
func setHTMLAttributes(html string, lang Language) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	htmlTag := doc.Find("html")
	if htmlTag.Length() > 0 {
		htmlTag.SetAttr("lang", string(lang))
		htmlTag.SetAttr("dir", GetDirection(lang))
	}

	result, err := doc.Html()
	if err != nil {
		return html
	}

	return result
}
