package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	AssetDir  string `toml:"asset_dir"`
	StateDir  string `toml:"state_dir"`
}

// Render contains engine-wide rendering parameters.
type Render struct {
	// SampleRate is the project rate every stem is rendered and mixed at.
	SampleRate int `toml:"sample_rate"`
	// EdgeFadeSeconds shapes the binaural bed start/end to avoid clicks.
	EdgeFadeSeconds float64 `toml:"edge_fade_seconds"`
	// GapPolicy decides how uncovered schedule gaps are handled: "error" or "hold".
	GapPolicy string `toml:"gap_policy"`
	// KeepStems persists intermediate stem WAVs in the work directory for
	// failure diagnosis and partial re-runs.
	KeepStems bool `toml:"keep_stems"`
	// AssetRetries bounds re-reads of a sampled-cue asset before surfacing
	// an asset error.
	AssetRetries int `toml:"asset_retries"`
	// AssetTimeoutSeconds bounds a single asset read.
	AssetTimeoutSeconds int `toml:"asset_timeout_seconds"`
}

// Ducking contains default sidechain ducking parameters; a manifest may
// override them per session.
type Ducking struct {
	Enabled     bool    `toml:"enabled"`
	DepthDB     float64 `toml:"depth_db"`
	AttackMs    float64 `toml:"attack_ms"`
	ReleaseMs   float64 `toml:"release_ms"`
	WindowMs    float64 `toml:"window_ms"`
	ThresholdDB float64 `toml:"threshold_db"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the rendering engine.
//
// Configuration sections by subsystem:
//   - Paths: output, work, log, asset, and state directories
//   - Render: project sample rate, edge fades, gap policy, asset retry bounds
//   - Ducking: default sidechain parameters applied when a manifest enables
//     ducking without overriding them
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Render  Render  `toml:"render"`
	Ducking Ducking `toml:"ducking"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dreamweave/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err = os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dreamweave.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a render needs before any stage
// runs. AssetDir is created best-effort; a session without sampled cues never
// touches it.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.AssetDir) != "" {
		_ = os.MkdirAll(c.Paths.AssetDir, 0o755)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
