package kisan

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Preferences persists the user's chosen UI language.
type Preferences struct {
	store  Store
	key    string
	logger zerolog.Logger
}

// NewPreferences creates Preferences over store. A nil store keeps nothing.
func NewPreferences(store Store, logger zerolog.Logger) *Preferences {
	return &Preferences{store: store, key: PreferenceKey, logger: logger}
}

// Load returns the saved language, or LangEnglish when nothing valid is saved.
func (p *Preferences) Load(ctx context.Context) Language {
	if p == nil || p.store == nil {
		return LangEnglish
	}

	raw, err := p.store.Get(ctx, p.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn().Err(err).Msg("failed to read language preference")
		}
		return LangEnglish
	}

	lang := Language(strings.TrimSpace(string(raw)))
	if !IsUILanguage(lang) {
		p.logger.Debug().Str("value", string(raw)).Msg("ignoring unsupported language preference")
		return LangEnglish
	}
	return lang
}

// Save stores lang. Only UI languages are accepted.
func (p *Preferences) Save(ctx context.Context, lang Language) error {
	if !IsUILanguage(lang) {
		return &ConfigError{Message: "unsupported UI language " + string(lang)}
	}
	if p == nil || p.store == nil {
		return nil
	}
	if err := p.store.Put(ctx, p.key, []byte(lang)); err != nil {
		return &CacheError{Message: "save language preference", Cause: err}
	}
	return nil
}
