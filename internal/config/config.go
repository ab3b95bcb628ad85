// Package config loads gateway configuration from the environment.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all gateway configuration.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// RedisAddr enables the Redis pub/sub broadcast sink when set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// EncryptionKey seals stored session credentials (32 bytes: raw,
	// hex, or base64). Empty stores them in plain text.
	EncryptionKey string `env:"CREDENTIAL_ENCRYPTION_KEY"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`

	// Session lifecycle tunables. Defaults match the reference
	// deployment; tests shrink them.
	ConnectTimeout         time.Duration `env:"CONNECT_TIMEOUT" envDefault:"60s"`
	ReconnectDelay         time.Duration `env:"RECONNECT_DELAY" envDefault:"2s"`
	WatchdogReconnectDelay time.Duration `env:"WATCHDOG_RECONNECT_DELAY" envDefault:"3s"`
	MaxPairingRetries      int           `env:"MAX_PAIRING_RETRIES" envDefault:"3"`
	StartConcurrency       int           `env:"START_CONCURRENCY" envDefault:"8"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
