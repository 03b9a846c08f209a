package config

const (
	defaultOutputDir = "~/.local/share/dreamweave/output"
	defaultWorkDir   = "~/.local/share/dreamweave/work"
	defaultLogDir    = "~/.local/share/dreamweave/logs"
	defaultAssetDir  = "~/.local/share/dreamweave/assets"
	defaultStateDir  = "~/.local/share/dreamweave/state"

	defaultSampleRate          = 48000
	defaultEdgeFadeSeconds     = 4.0
	defaultGapPolicy           = "error"
	defaultAssetRetries        = 3
	defaultAssetTimeoutSeconds = 30

	defaultDuckDepthDB     = -10.0
	defaultDuckAttackMs    = 80.0
	defaultDuckReleaseMs   = 400.0
	defaultDuckWindowMs    = 50.0
	defaultDuckThresholdDB = -45.0

	defaultLogFormat = "text"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			AssetDir:  defaultAssetDir,
			StateDir:  defaultStateDir,
		},
		Render: Render{
			SampleRate:          defaultSampleRate,
			EdgeFadeSeconds:     defaultEdgeFadeSeconds,
			GapPolicy:           defaultGapPolicy,
			KeepStems:           true,
			AssetRetries:        defaultAssetRetries,
			AssetTimeoutSeconds: defaultAssetTimeoutSeconds,
		},
		Ducking: Ducking{
			Enabled:     true,
			DepthDB:     defaultDuckDepthDB,
			AttackMs:    defaultDuckAttackMs,
			ReleaseMs:   defaultDuckReleaseMs,
			WindowMs:    defaultDuckWindowMs,
			ThresholdDB: defaultDuckThresholdDB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
