// Package app assembles a Translator and Localizer from a config.Config.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aayush997726/kisan"
	"github.com/aayush997726/kisan/cache"
	"github.com/aayush997726/kisan/catalog"
	"github.com/aayush997726/kisan/internal/config"
	"github.com/aayush997726/kisan/internal/logging"
	"github.com/aayush997726/kisan/processor"
	"github.com/aayush997726/kisan/provider"
)

// App owns the wired components and the resources behind them.
type App struct {
	Config     config.Config
	Logger     zerolog.Logger
	Store      kisan.Store
	Provider   kisan.Provider
	Translator *kisan.Translator
	Localizer  *kisan.Localizer

	closer io.Closer
}

// New validates cfg and builds every component. Logs go to logOut.
func New(ctx context.Context, cfg config.Config, logOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &kisan.ConfigError{Message: err.Error()}
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: logOut,
	})

	store, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p, err := BuildProvider(ctx, cfg, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	opts := []kisan.TranslatorOption{
		kisan.WithStore(store),
		kisan.WithExpiry(cfg.CacheExpiry),
		kisan.WithLogger(logging.Component(logger, "translator")),
		kisan.WithProcessor(processor.NewHTMLProcessor()),
	}
	if cfg.SingleFlight {
		opts = append(opts, kisan.WithSingleFlight())
	}
	t := kisan.NewTranslator(p, opts...)

	prefs := kisan.NewPreferences(store, logging.Component(logger, "preferences"))
	loc := kisan.NewLocalizer(t, prefs, catalog.Default(),
		kisan.WithLocalizerLogger(logging.Component(logger, "localizer")),
		kisan.WithBaseContext(ctx),
	)

	logger.Debug().
		Str("provider", cfg.Provider).
		Str("store", cfg.Store).
		Int("entries", t.Len()).
		Msg("kisan ready")

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Provider:   p,
		Translator: t,
		Localizer:  loc,
		closer:     closer,
	}, nil
}

// Close waits for background lookups, then releases the store.
func (a *App) Close() error {
	a.Localizer.Wait()
	return a.closer.Close()
}

// OpenStore opens the backend named by cfg.Store.
func OpenStore(ctx context.Context, cfg config.Config) (kisan.Store, io.Closer, error) {
	switch cfg.Store {
	case config.StoreMemory:
		s := cache.NewMemoryStore(0)
		return s, s, nil
	case config.StoreBolt:
		path := strings.TrimSpace(cfg.StorePath)
		if path == "" {
			path = cache.DefaultBoltPath()
		}
		s, err := cache.OpenBoltStore(path, cache.BoltOptions{})
		if err != nil {
			return nil, nil, &kisan.CacheError{Message: "open bolt store", Cause: err}
		}
		return s, s, nil
	case config.StoreRedis:
		s, err := cache.NewRedisStore(ctx, cache.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, nil, &kisan.CacheError{Message: "open redis store", Cause: err}
		}
		return s, s, nil
	default:
		return nil, nil, &kisan.ConfigError{Message: fmt.Sprintf("unknown store %q", cfg.Store)}
	}
}

// BuildProvider creates the configured provider and wraps it, innermost
// first, with rate limiting, the circuit breaker and retries.
func BuildProvider(ctx context.Context, cfg config.Config, logger zerolog.Logger) (kisan.Provider, error) {
	p, err := provider.New(ctx, cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}

	if cfg.APIKey() == "" && !strings.EqualFold(cfg.Provider, provider.NameMock) {
		logger.Warn().Str("provider", cfg.Provider).Msg("no API key configured, texts will stay in English")
	}

	if cfg.RPM > 0 {
		p = kisan.NewRateLimitedProvider(p, kisan.RateLimitConfig{RequestsPerMinute: cfg.RPM})
	}
	if cfg.Breaker {
		p = provider.NewBreakerProvider(p, provider.BreakerConfig{Name: cfg.Provider})
	}
	if cfg.Retries > 0 {
		rc := kisan.DefaultRetryConfig()
		rc.MaxRetries = cfg.Retries
		rc.Logger = logging.Component(logger, "retry")
		p = kisan.NewRetryProvider(p, rc)
	}
	return p, nil
}
