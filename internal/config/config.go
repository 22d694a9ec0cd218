// Package config loads kisan settings from the environment, an optional
// YAML file and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"

	"github.com/aayush997726/kisan/provider"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
)

// Config holds every runtime setting.
type Config struct {
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	Provider     string        `env:"KISAN_PROVIDER"      envDefault:"gemini"`
	Model        string        `env:"KISAN_MODEL"`
	BaseURL      string        `env:"KISAN_BASE_URL"`
	Store        string        `env:"KISAN_STORE"         envDefault:"bolt"`
	StorePath    string        `env:"KISAN_STORE_PATH"`
	RedisURL     string        `env:"KISAN_REDIS_URL"     envDefault:"redis://localhost:6379/0"`
	CacheExpiry  time.Duration `env:"KISAN_CACHE_EXPIRY"  envDefault:"24h"`
	LogLevel     string        `env:"KISAN_LOG_LEVEL"     envDefault:"warn"`
	LogPretty    bool          `env:"KISAN_LOG_PRETTY"`
	SingleFlight bool          `env:"KISAN_SINGLE_FLIGHT"`
	Retries      int           `env:"KISAN_RETRIES"`
	RPM          int           `env:"KISAN_RPM"`
	Breaker      bool          `env:"KISAN_BREAKER"`
}

// FromEnv loads configuration from the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// FromMap loads configuration from the given variables only.
func FromMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Overlay copies every key set in v (config file or changed flag) over cfg.
// Keys use snake_case, e.g. "store_path".
func (c *Config) Overlay(v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	boolean := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	integer := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	str("provider", &c.Provider)
	str("model", &c.Model)
	str("base_url", &c.BaseURL)
	str("store", &c.Store)
	str("store_path", &c.StorePath)
	str("redis_url", &c.RedisURL)
	str("log_level", &c.LogLevel)
	boolean("log_pretty", &c.LogPretty)
	boolean("single_flight", &c.SingleFlight)
	boolean("breaker", &c.Breaker)
	integer("retries", &c.Retries)
	integer("rpm", &c.RPM)
	if v.IsSet("cache_expiry") {
		c.CacheExpiry = v.GetDuration("cache_expiry")
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case provider.NameGemini, provider.NameOpenAI, provider.NameMock:
	default:
		return fmt.Errorf("unknown provider %q (want gemini, openai or mock)", c.Provider)
	}
	switch c.Store {
	case StoreMemory, StoreBolt, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want memory, bolt or redis)", c.Store)
	}
	if c.CacheExpiry <= 0 {
		return fmt.Errorf("cache expiry must be positive, got %s", c.CacheExpiry)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if c.RPM < 0 {
		return fmt.Errorf("rpm must not be negative, got %d", c.RPM)
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c Config) APIKey() string {
	if strings.EqualFold(c.Provider, provider.NameOpenAI) {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// ProviderConfig returns the settings for provider.New.
func (c Config) ProviderConfig() provider.Config {
	return provider.Config{
		Name:    c.Provider,
		APIKey:  c.APIKey(),
		Model:   c.Model,
		BaseURL: c.BaseURL,
	}
}
