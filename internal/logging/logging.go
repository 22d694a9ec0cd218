// Package logging configures the zerolog logger used across kisan.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at warn level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Output: os.Stderr,
	}
}

// Setup builds a logger from cfg.
func Setup(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().Timestamp().
		Logger()
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map
// to warn.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
