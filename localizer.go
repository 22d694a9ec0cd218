package kisan

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aayush997726/kisan/catalog"
)

// Update reports that a dynamically translated UI key has resolved.
type Update struct {
	Key  string
	Lang Language
	Text string
	Err  error
}

// Localizer resolves UI keys for the current language. Keys are answered
// from the static catalog first, then from earlier runtime translations;
// anything else is translated in the background while the English text is
// shown.
type Localizer struct {
	translator *Translator
	prefs      *Preferences
	catalog    *catalog.Catalog
	logger     zerolog.Logger
	ctx        context.Context

	mu        sync.Mutex
	lang      Language
	dynamic   map[Language]map[string]string
	queue     map[Key]struct{}
	observers map[int]func(Update)
	nextObs   int
	wg        sync.WaitGroup
}

// LocalizerOption configures a Localizer.
type LocalizerOption func(*Localizer)

// WithLocalizerLogger sets the logger.
func WithLocalizerLogger(logger zerolog.Logger) LocalizerOption {
	return func(l *Localizer) {
		l.logger = logger
	}
}

// WithBaseContext sets the context for background translations.
func WithBaseContext(ctx context.Context) LocalizerOption {
	return func(l *Localizer) {
		l.ctx = ctx
	}
}

// NewLocalizer creates a Localizer starting in the saved language.
func NewLocalizer(t *Translator, prefs *Preferences, cat *catalog.Catalog, opts ...LocalizerOption) *Localizer {
	l := &Localizer{
		translator: t,
		prefs:      prefs,
		catalog:    cat,
		logger:     zerolog.Nop(),
		ctx:        context.Background(),
		dynamic:    make(map[Language]map[string]string),
		queue:      make(map[Key]struct{}),
		observers:  make(map[int]func(Update)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lang = prefs.Load(l.ctx)
	return l
}

// Language returns the current UI language.
func (l *Localizer) Language() Language {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lang
}

// SetLanguage switches the UI language and saves the preference.
func (l *Localizer) SetLanguage(ctx context.Context, lang Language) error {
	if !IsUILanguage(lang) {
		return &ConfigError{Message: "unsupported UI language " + string(lang)}
	}
	l.mu.Lock()
	l.lang = lang
	l.mu.Unlock()
	return l.prefs.Save(ctx, lang)
}

// Toggle switches between English and Hindi and returns the new language.
func (l *Localizer) Toggle(ctx context.Context) Language {
	l.mu.Lock()
	next := LangHindi
	if l.lang == LangHindi {
		next = LangEnglish
	}
	l.lang = next
	l.mu.Unlock()

	if err := l.prefs.Save(ctx, next); err != nil {
		l.logger.Warn().Err(err).Msg("failed to save language preference")
	}
	return next
}

// T returns the display string for key. fallback is the English text; when
// empty the key itself is used.
func (l *Localizer) T(key, fallback string) string {
	text := fallback
	if text == "" {
		text = key
	}

	lang := l.Language()
	if lang == LangEnglish {
		return text
	}
	if v, ok := l.catalog.Lookup(string(lang), key); ok {
		return v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.dynamic[lang][key]; ok {
		return v
	}

	qk := Key{Text: key, Lang: lang}
	if _, queued := l.queue[qk]; !queued {
		l.queue[qk] = struct{}{}
		l.wg.Add(1)
		go l.resolve(key, text, lang)
	}
	return text
}

func (l *Localizer) resolve(key, text string, lang Language) {
	defer l.wg.Done()

	translated, err := l.translator.translate(l.ctx, text, lang)

	l.mu.Lock()
	delete(l.queue, Key{Text: key, Lang: lang})
	if err == nil {
		if l.dynamic[lang] == nil {
			l.dynamic[lang] = make(map[string]string)
		}
		l.dynamic[lang][key] = translated
	}
	fns := make([]func(Update), 0, len(l.observers))
	for _, fn := range l.observers {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug().Err(err).Str("key", key).Msg("ui key left untranslated")
	}

	u := Update{Key: key, Lang: lang, Text: translated, Err: err}
	for _, fn := range fns {
		fn(u)
	}
}

// TranslateText translates free text into the current language.
func (l *Localizer) TranslateText(ctx context.Context, text string) string {
	lang := l.Language()
	if lang == LangEnglish {
		return text
	}
	return l.translator.TranslateOne(ctx, text, lang)
}

// TranslateBatch translates texts into the current language.
func (l *Localizer) TranslateBatch(ctx context.Context, texts []string) []string {
	lang := l.Language()
	if lang == LangEnglish {
		out := make([]string, len(texts))
		copy(out, texts)
		return out
	}
	return l.translator.TranslateBatch(ctx, texts, lang)
}

// IsTranslating reports whether any UI key is being translated.
func (l *Localizer) IsTranslating() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) > 0
}

// Wait blocks until every queued UI key has resolved.
func (l *Localizer) Wait() {
	l.wg.Wait()
}

// Subscribe registers fn for resolved UI keys. The returned function
// removes the subscription.
func (l *Localizer) Subscribe(fn func(Update)) (cancel func()) {
	l.mu.Lock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}
}
