// Package config loads server configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config aggregates all configuration sections. Fields are populated
// from environment variables; nested sections use env prefixes.
type Config struct {
	// Env names the deployment environment (e.g. prod, dev).
	Env string `env:"ENV" envDefault:"prod"`

	HTTP HTTP   `envPrefix:"HTTP_"`
	Log  Logger `envPrefix:"LOG_"`
	DB   DB     `envPrefix:"DB_"`
}

// HTTP configures the REST server.
type HTTP struct {
	// Port is the TCP port the server binds to.
	Port uint16 `env:"PORT" envDefault:"8080"`

	// RateLimit is the sustained per-client request rate; RateBurst the
	// allowed burst above it.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"20"`
	RateBurst int     `env:"RATE_BURST" envDefault:"40"`
}

// Logger configures the structured logger. Level is one of debug, info,
// warn, error; Format is text or json.
type Logger struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// DB configures the SQLite store. Use ":memory:" for an in-memory
// database.
type DB struct {
	Path string `env:"PATH" envDefault:"billing.db"`
}

// Load reads configuration from environment variables, applying the
// declared defaults where unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SlogLevel converts the textual level into a slog.Level. Unknown
// levels default to info.
func (c Logger) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger from the section's level and
// format.
func (c Logger) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	var handler slog.Handler
	if strings.ToLower(c.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
