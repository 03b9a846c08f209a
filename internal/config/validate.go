package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	return c.validateDucking()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.SampleRate < 8000 || c.Render.SampleRate > 192000 {
		return fmt.Errorf("render.sample_rate must be between 8000 and 192000, got %d", c.Render.SampleRate)
	}
	if c.Render.EdgeFadeSeconds < 0 {
		return errors.New("render.edge_fade_seconds must not be negative")
	}
	switch c.Render.GapPolicy {
	case "error", "hold":
	default:
		return fmt.Errorf("render.gap_policy must be \"error\" or \"hold\", got %q", c.Render.GapPolicy)
	}
	if c.Render.AssetRetries < 1 || c.Render.AssetRetries > 10 {
		return fmt.Errorf("render.asset_retries must be between 1 and 10, got %d", c.Render.AssetRetries)
	}
	if c.Render.AssetTimeoutSeconds < 1 {
		return errors.New("render.asset_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDucking() error {
	if !c.Ducking.Enabled {
		return nil
	}
	if c.Ducking.DepthDB > 0 {
		return errors.New("ducking.depth_db must be zero or negative")
	}
	if c.Ducking.AttackMs <= 0 || c.Ducking.ReleaseMs <= 0 {
		return errors.New("ducking attack and release must be positive")
	}
	if c.Ducking.WindowMs <= 0 {
		return errors.New("ducking.window_ms must be positive")
	}
	return nil
}
