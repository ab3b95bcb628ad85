package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/wagate_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ConnectTimeout != 60*time.Second {
		t.Errorf("ConnectTimeout = %v", cfg.ConnectTimeout)
	}
	if cfg.ReconnectDelay != 2*time.Second {
		t.Errorf("ReconnectDelay = %v", cfg.ReconnectDelay)
	}
	if cfg.WatchdogReconnectDelay != 3*time.Second {
		t.Errorf("WatchdogReconnectDelay = %v", cfg.WatchdogReconnectDelay)
	}
	if cfg.MaxPairingRetries != 3 {
		t.Errorf("MaxPairingRetries = %d", cfg.MaxPairingRetries)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("default level = %v", cfg.SlogLevel())
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "placeholder") // register restore
	os.Unsetenv("POSTGRES_DSN")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without POSTGRES_DSN")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		c := Config{LogLevel: in}
		if got := c.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
