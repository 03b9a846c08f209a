package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("DREAMWEAVE_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = value
	}
	if value, ok := os.LookupEnv("DREAMWEAVE_ASSET_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.AssetDir = value
	}

	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	if c.Render.SampleRate == 0 {
		c.Render.SampleRate = defaultSampleRate
	}
	if c.Render.EdgeFadeSeconds == 0 {
		c.Render.EdgeFadeSeconds = defaultEdgeFadeSeconds
	}
	c.Render.GapPolicy = strings.ToLower(strings.TrimSpace(c.Render.GapPolicy))
	if c.Render.GapPolicy == "" {
		c.Render.GapPolicy = defaultGapPolicy
	}
	if c.Render.AssetRetries == 0 {
		c.Render.AssetRetries = defaultAssetRetries
	}
	if c.Render.AssetTimeoutSeconds == 0 {
		c.Render.AssetTimeoutSeconds = defaultAssetTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
