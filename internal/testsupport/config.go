package testsupport

import (
	"path/filepath"
	"testing"

	"pressline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The API bind uses an ephemeral port and the recompute schedule is cleared
// so tests never spawn background work.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Learning.RecomputeSchedule = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.APIToken = token
	}
}

// WithSubstages overrides the default manufacturing substep sequence.
func WithSubstages(names ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.DefaultSubstages = names
	}
}
