// Package config loads, normalizes, and validates the engine's TOML
// configuration.
//
// Load resolves the config path (explicit flag, then
// ~/.config/dreamweave/config.toml, then ./dreamweave.toml), decodes over
// repository defaults, expands ~ paths to absolute ones, applies environment
// overrides (DREAMWEAVE_OUTPUT_DIR, DREAMWEAVE_ASSET_DIR), and rejects
// unusable values before anything else runs.
package config
