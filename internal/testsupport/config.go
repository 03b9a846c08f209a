package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.AssetDir = filepath.Join(base, "assets")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Render.EdgeFadeSeconds = 0.25
	cfg.Render.KeepStems = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithKeepStems enables stem persistence on the test config.
func WithKeepStems() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Render.KeepStems = true
	}
}

// WithSampleRate overrides the project sample rate on the test config.
func WithSampleRate(rate int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Render.SampleRate = rate
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
