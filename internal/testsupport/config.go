package testsupport

import (
	"path/filepath"
	"testing"

	"warden/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "watched")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithCheckers replaces the configured checker list.
func WithCheckers(checkers ...config.Checker) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Checkers = checkers
	}
}

// WithQuietPeriod overrides the debounce quiet period in milliseconds.
func WithQuietPeriod(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watch.QuietPeriodMS = ms
	}
}
