package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Transition names how a frequency section moves from its start offset to its
// end offset.
type Transition string

const (
	TransitionHold   Transition = "hold"
	TransitionLinear Transition = "linear"
	TransitionSmooth Transition = "smooth"
)

// Role identifies an independently-gained audio layer.
type Role string

const (
	RoleVoice    Role = "voice"
	RoleBinaural Role = "binaural"
	RoleEffects  Role = "effects"
	RoleAmbient  Role = "ambient"
)

// EventKind identifies how an effect event is produced.
type EventKind string

const (
	EventTonalBurst EventKind = "tonal_burst"
	EventSampledCue EventKind = "sampled_cue"
)

// Modulation superimposes a slow sinusoid on a section's base offset so long
// sections do not read as a static drone.
type Modulation struct {
	DepthHz float64 `toml:"depth_hz" yaml:"depth_hz"`
	RateHz  float64 `toml:"rate_hz" yaml:"rate_hz"`
}

// FrequencySection is one timed span of the entrainment schedule.
type FrequencySection struct {
	StartS      float64     `toml:"start_s" yaml:"start_s"`
	EndS        float64     `toml:"end_s" yaml:"end_s"`
	OffsetHz    float64     `toml:"offset_hz" yaml:"offset_hz"`
	OffsetHzEnd *float64    `toml:"offset_hz_end,omitempty" yaml:"offset_hz_end,omitempty"`
	Transition  Transition  `toml:"transition" yaml:"transition"`
	Modulation  *Modulation `toml:"modulation,omitempty" yaml:"modulation,omitempty"`
}

// EndOffset returns the offset the section arrives at. Sections without an
// explicit end offset hold their start value.
func (s FrequencySection) EndOffset() float64 {
	if s.OffsetHzEnd != nil {
		return *s.OffsetHzEnd
	}
	return s.OffsetHz
}

// Carrier describes the base tone both ears share.
type Carrier struct {
	BaseHz float64 `toml:"base_hz" yaml:"base_hz"`
}

// EffectEvent is one discrete timed effect. Sampled cues name an asset from
// the effect library; tonal bursts are synthesized. A marker string requests
// alignment to a point in the narration script instead of an absolute time.
type EffectEvent struct {
	Kind      EventKind `toml:"kind" yaml:"kind"`
	TimeS     float64   `toml:"time_s" yaml:"time_s"`
	DurationS float64   `toml:"duration_s" yaml:"duration_s"`
	FreqHz    float64   `toml:"freq_hz,omitempty" yaml:"freq_hz,omitempty"`
	Asset     string    `toml:"asset,omitempty" yaml:"asset,omitempty"`
	Marker    string    `toml:"marker,omitempty" yaml:"marker,omitempty"`
	FadeInS   float64   `toml:"fade_in_s" yaml:"fade_in_s"`
	FadeOutS  float64   `toml:"fade_out_s" yaml:"fade_out_s"`
	GainDB    float64   `toml:"gain_db" yaml:"gain_db"`
}

// Voice points at the finished narration buffer supplied by the TTS
// collaborator, plus the script used for marker alignment.
type Voice struct {
	Path       string `toml:"path,omitempty" yaml:"path,omitempty"`
	ScriptPath string `toml:"script_path,omitempty" yaml:"script_path,omitempty"`
}

// Stems is the per-layer gain table. Ducking flags mark layers attenuated
// while the voice is active.
type Stems struct {
	VoiceDB      float64 `toml:"voice_db" yaml:"voice_db"`
	BinauralDB   float64 `toml:"binaural_db" yaml:"binaural_db"`
	EffectsDB    float64 `toml:"effects_db" yaml:"effects_db"`
	AmbientDB    float64 `toml:"ambient_db" yaml:"ambient_db"`
	AmbientAsset string  `toml:"ambient_asset,omitempty" yaml:"ambient_asset,omitempty"`
	DuckEffects  bool    `toml:"duck_effects" yaml:"duck_effects"`
	DuckAmbient  bool    `toml:"duck_ambient" yaml:"duck_ambient"`
}

// EQBand is one fixed shaping filter applied during mastering.
type EQBand struct {
	Type   string  `toml:"type" yaml:"type"`
	FreqHz float64 `toml:"freq_hz" yaml:"freq_hz"`
	GainDB float64 `toml:"gain_db" yaml:"gain_db"`
	Q      float64 `toml:"q" yaml:"q"`
}

// Limiter holds the brick-wall limiter envelope times.
type Limiter struct {
	AttackMs  float64 `toml:"attack_ms" yaml:"attack_ms"`
	ReleaseMs float64 `toml:"release_ms" yaml:"release_ms"`
}

// Mastering is the loudness target and shaping chain for the final buffer.
type Mastering struct {
	TargetLUFS          float64  `toml:"target_lufs" yaml:"target_lufs"`
	TruePeakCeilingDBTP float64  `toml:"true_peak_ceiling_dbtp" yaml:"true_peak_ceiling_dbtp"`
	ToleranceLU         float64  `toml:"tolerance_lu" yaml:"tolerance_lu"`
	EQ                  []EQBand `toml:"eq,omitempty" yaml:"eq,omitempty"`
	Limiter             Limiter  `toml:"limiter" yaml:"limiter"`
}

// Manifest is the declarative description of one session, parsed once at
// pipeline entry and immutable afterwards.
type Manifest struct {
	Title      string             `toml:"title" yaml:"title"`
	DurationS  float64            `toml:"duration_s" yaml:"duration_s"`
	SampleRate int                `toml:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	GapPolicy  string             `toml:"gap_policy,omitempty" yaml:"gap_policy,omitempty"`
	Carrier    Carrier            `toml:"carrier" yaml:"carrier"`
	Schedule   []FrequencySection `toml:"schedule" yaml:"schedule"`
	Events     []EffectEvent      `toml:"events,omitempty" yaml:"events,omitempty"`
	Voice      Voice              `toml:"voice,omitempty" yaml:"voice,omitempty"`
	Stems      Stems              `toml:"stems" yaml:"stems"`
	Mastering  Mastering          `toml:"mastering" yaml:"mastering"`
}

// Load parses a manifest file. The format follows the file extension: .toml,
// .yaml, or .yml.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse toml manifest: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse yaml manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (want .toml, .yaml, or .yml)", ext)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Mastering.ToleranceLU == 0 {
		m.Mastering.ToleranceLU = 1.0
	}
	if m.Mastering.Limiter.AttackMs == 0 {
		m.Mastering.Limiter.AttackMs = 5
	}
	if m.Mastering.Limiter.ReleaseMs == 0 {
		m.Mastering.Limiter.ReleaseMs = 50
	}
	for i := range m.Schedule {
		if m.Schedule[i].Transition == "" {
			m.Schedule[i].Transition = TransitionHold
		}
	}
	m.GapPolicy = strings.ToLower(strings.TrimSpace(m.GapPolicy))
}
