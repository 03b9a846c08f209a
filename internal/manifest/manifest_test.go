package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

const tomlManifest = `
title = "deep voyage"
duration_s = 1800.0
sample_rate = 48000

[carrier]
base_hz = 200.0

[[schedule]]
start_s = 0.0
end_s = 150.0
offset_hz = 0.5

[[schedule]]
start_s = 150.0
end_s = 540.0
offset_hz = 10.0
offset_hz_end = 6.0
transition = "linear"

[[schedule]]
start_s = 540.0
end_s = 1800.0
offset_hz = 6.0
transition = "smooth"
offset_hz_end = 4.0

  [schedule.modulation]
  depth_hz = 0.3
  rate_hz = 0.05

[[events]]
kind = "tonal_burst"
time_s = 300.0
duration_s = 2.0
freq_hz = 528.0
fade_in_s = 0.2
fade_out_s = 0.5
gain_db = -12.0

[[events]]
kind = "sampled_cue"
marker = "a chime sounds here"
asset = "chime"
duration_s = 3.0
gain_db = -6.0

[voice]
path = "narration.wav"
script_path = "script.txt"

[stems]
voice_db = -6.0
binaural_db = -6.0
effects_db = 0.0
ambient_db = -12.0
duck_effects = true
duck_ambient = true

[mastering]
target_lufs = -16.0
true_peak_ceiling_dbtp = -1.5

  [[mastering.eq]]
  type = "low_shelf"
  freq_hz = 120.0
  gain_db = 1.5
  q = 0.707
`

const yamlManifest = `
title: deep voyage
duration_s: 600
carrier:
  base_hz: 180
schedule:
  - start_s: 0
    end_s: 600
    offset_hz: 4
stems:
  voice_db: -6
  binaural_db: -6
  effects_db: 0
  ambient_db: -12
mastering:
  target_lufs: -14
  true_peak_ceiling_dbtp: -1
`

func writeManifest(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadTOML(t *testing.T) {
	m, err := manifest.Load(writeManifest(t, "session.toml", tomlManifest))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Title != "deep voyage" {
		t.Errorf("title: %q", m.Title)
	}
	if len(m.Schedule) != 3 {
		t.Fatalf("schedule sections: %d", len(m.Schedule))
	}
	if m.Schedule[0].Transition != manifest.TransitionHold {
		t.Errorf("missing transition should default to hold, got %q", m.Schedule[0].Transition)
	}
	if m.Schedule[1].EndOffset() != 6.0 {
		t.Errorf("linear end offset: %v", m.Schedule[1].EndOffset())
	}
	if m.Schedule[2].Modulation == nil || m.Schedule[2].Modulation.RateHz != 0.05 {
		t.Errorf("modulation not parsed: %+v", m.Schedule[2].Modulation)
	}
	if len(m.Events) != 2 || m.Events[1].Marker == "" {
		t.Errorf("events not parsed: %+v", m.Events)
	}
	if m.Mastering.ToleranceLU != 1.0 {
		t.Errorf("tolerance default: %v", m.Mastering.ToleranceLU)
	}
	if m.Mastering.Limiter.AttackMs != 5 || m.Mastering.Limiter.ReleaseMs != 50 {
		t.Errorf("limiter defaults: %+v", m.Mastering.Limiter)
	}
}

func TestLoadYAML(t *testing.T) {
	m, err := manifest.Load(writeManifest(t, "session.yaml", yamlManifest))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.DurationS != 600 {
		t.Errorf("duration: %v", m.DurationS)
	}
	if m.Carrier.BaseHz != 180 {
		t.Errorf("carrier: %v", m.Carrier.BaseHz)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := manifest.Load(writeManifest(t, "session.json", "{}")); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() manifest.Manifest {
		end := 4.0
		return manifest.Manifest{
			DurationS:  600,
			Carrier:    manifest.Carrier{BaseHz: 200},
			GapPolicy:  "error",
			Schedule:   []manifest.FrequencySection{{StartS: 0, EndS: 600, OffsetHz: 6, OffsetHzEnd: &end, Transition: manifest.TransitionLinear}},
			Mastering:  manifest.Mastering{TargetLUFS: -16, TruePeakCeilingDBTP: -1, ToleranceLU: 1, Limiter: manifest.Limiter{AttackMs: 5, ReleaseMs: 50}},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*manifest.Manifest)
		message string
	}{
		{"zero duration", func(m *manifest.Manifest) { m.DurationS = 0 }, "duration_s"},
		{"zero carrier", func(m *manifest.Manifest) { m.Carrier.BaseHz = 0 }, "base_hz"},
		{"empty schedule", func(m *manifest.Manifest) { m.Schedule = nil }, "schedule"},
		{"inverted section", func(m *manifest.Manifest) { m.Schedule[0].EndS = 0 }, "end_s"},
		{"unknown transition", func(m *manifest.Manifest) { m.Schedule[0].Transition = "bounce" }, "transition"},
		{"hold with end offset", func(m *manifest.Manifest) {
			m.Schedule[0].Transition = manifest.TransitionHold
		}, "hold"},
		{"burst without freq", func(m *manifest.Manifest) {
			m.Events = []manifest.EffectEvent{{Kind: manifest.EventTonalBurst, TimeS: 1, DurationS: 1}}
		}, "freq_hz"},
		{"cue without asset", func(m *manifest.Manifest) {
			m.Events = []manifest.EffectEvent{{Kind: manifest.EventSampledCue, TimeS: 1, DurationS: 1}}
		}, "asset"},
		{"event past end", func(m *manifest.Manifest) {
			m.Events = []manifest.EffectEvent{{Kind: manifest.EventTonalBurst, FreqHz: 440, TimeS: 599, DurationS: 2}}
		}, "past session end"},
		{"marker without voice", func(m *manifest.Manifest) {
			m.Events = []manifest.EffectEvent{{Kind: manifest.EventTonalBurst, FreqHz: 440, Marker: "a chime sounds here", DurationS: 1}}
		}, "voice.script_path"},
		{"marker without script", func(m *manifest.Manifest) {
			m.Voice = manifest.Voice{Path: "narration.wav"}
			m.Events = []manifest.EffectEvent{{Kind: manifest.EventTonalBurst, FreqHz: 440, Marker: "a chime sounds here", DurationS: 1}}
		}, "voice.script_path"},
		{"positive lufs", func(m *manifest.Manifest) { m.Mastering.TargetLUFS = 3 }, "target_lufs"},
		{"positive ceiling", func(m *manifest.Manifest) { m.Mastering.TruePeakCeilingDBTP = 1 }, "true_peak"},
		{"bad eq type", func(m *manifest.Manifest) {
			m.Mastering.EQ = []manifest.EQBand{{Type: "notch", FreqHz: 100}}
		}, "eq"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := base()
			tc.mutate(&m)
			err := m.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("message %q missing %q", err.Error(), tc.message)
			}
		})
	}
}

func TestMarkerEventSkipsAbsoluteBoundsCheck(t *testing.T) {
	end := 4.0
	m := manifest.Manifest{
		DurationS: 600,
		Carrier:   manifest.Carrier{BaseHz: 200},
		Schedule:  []manifest.FrequencySection{{StartS: 0, EndS: 600, OffsetHz: 6, OffsetHzEnd: &end, Transition: manifest.TransitionLinear}},
		Voice:     manifest.Voice{Path: "narration.wav", ScriptPath: "script.txt"},
		Events: []manifest.EffectEvent{
			{Kind: manifest.EventSampledCue, Asset: "chime", Marker: "a chime sounds here", DurationS: 3},
		},
		Mastering: manifest.Mastering{TargetLUFS: -16, TruePeakCeilingDBTP: -1, ToleranceLU: 1, Limiter: manifest.Limiter{AttackMs: 5, ReleaseMs: 50}},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("marker event should defer bounds check to alignment: %v", err)
	}
}
