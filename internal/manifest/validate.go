package manifest

import (
	"fmt"
	"strings"

	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// Validate performs the structural checks that do not depend on engine
// configuration: positive duration and carrier, known enum values, events
// inside the session window, and a sane mastering spec. Schedule coverage and
// ordering are the resolver's responsibility.
func (m *Manifest) Validate() error {
	if m.DurationS <= 0 {
		return fail("duration_s must be positive, got %v", m.DurationS)
	}
	if m.Carrier.BaseHz <= 0 {
		return fail("carrier.base_hz must be positive, got %v", m.Carrier.BaseHz)
	}
	if m.SampleRate < 0 {
		return fail("sample_rate must not be negative, got %d", m.SampleRate)
	}
	switch m.GapPolicy {
	case "", "error", "hold":
	default:
		return fail("gap_policy must be \"error\" or \"hold\", got %q", m.GapPolicy)
	}
	if len(m.Schedule) == 0 {
		return fail("schedule must contain at least one section")
	}

	for i, section := range m.Schedule {
		if err := validateSection(i, section); err != nil {
			return err
		}
	}
	for i, event := range m.Events {
		if err := m.validateEvent(i, event); err != nil {
			return err
		}
	}
	return m.validateMastering()
}

func validateSection(i int, s FrequencySection) error {
	if s.EndS <= s.StartS {
		return fail("schedule[%d]: end_s %v must be after start_s %v", i, s.EndS, s.StartS)
	}
	if s.OffsetHz < 0 || s.EndOffset() < 0 {
		return fail("schedule[%d]: offsets must not be negative", i)
	}
	switch s.Transition {
	case TransitionHold, TransitionLinear, TransitionSmooth:
	default:
		return fail("schedule[%d]: unknown transition %q", i, s.Transition)
	}
	if s.Transition == TransitionHold && s.OffsetHzEnd != nil && *s.OffsetHzEnd != s.OffsetHz {
		return fail("schedule[%d]: hold sections cannot change offset; use linear or smooth", i)
	}
	if s.Modulation != nil {
		if s.Modulation.DepthHz < 0 || s.Modulation.RateHz <= 0 {
			return fail("schedule[%d]: modulation needs depth_hz >= 0 and rate_hz > 0", i)
		}
	}
	return nil
}

func (m *Manifest) validateEvent(i int, e EffectEvent) error {
	switch e.Kind {
	case EventTonalBurst:
		if e.FreqHz <= 0 {
			return fail("events[%d]: tonal_burst needs freq_hz > 0", i)
		}
	case EventSampledCue:
		if strings.TrimSpace(e.Asset) == "" {
			return fail("events[%d]: sampled_cue needs an asset reference", i)
		}
	default:
		return fail("events[%d]: unknown kind %q", i, e.Kind)
	}
	if e.DurationS <= 0 {
		return fail("events[%d]: duration_s must be positive", i)
	}
	// Marker-timed events get their final time after script alignment; only
	// absolutely-timed events can be bounds-checked here.
	if e.Marker != "" {
		if strings.TrimSpace(m.Voice.Path) == "" || strings.TrimSpace(m.Voice.ScriptPath) == "" {
			return fail("events[%d]: marker %q needs voice.path and voice.script_path for alignment", i, e.Marker)
		}
	}
	if e.Marker == "" {
		if e.TimeS < 0 {
			return fail("events[%d]: time_s must not be negative", i)
		}
		if e.TimeS+e.DurationS > m.DurationS {
			return fail("events[%d]: extends past session end (%v + %v > %v)", i, e.TimeS, e.DurationS, m.DurationS)
		}
	}
	if e.FadeInS < 0 || e.FadeOutS < 0 {
		return fail("events[%d]: fades must not be negative", i)
	}
	return nil
}

func (m *Manifest) validateMastering() error {
	spec := m.Mastering
	if spec.TargetLUFS > 0 || spec.TargetLUFS < -70 {
		return fail("mastering.target_lufs must be in [-70, 0], got %v", spec.TargetLUFS)
	}
	if spec.TruePeakCeilingDBTP > 0 {
		return fail("mastering.true_peak_ceiling_dbtp must not be positive, got %v", spec.TruePeakCeilingDBTP)
	}
	if spec.ToleranceLU <= 0 {
		return fail("mastering.tolerance_lu must be positive, got %v", spec.ToleranceLU)
	}
	if spec.Limiter.AttackMs <= 0 || spec.Limiter.ReleaseMs <= 0 {
		return fail("mastering.limiter attack and release must be positive")
	}
	for i, band := range spec.EQ {
		switch band.Type {
		case "low_shelf", "high_shelf", "peak":
		default:
			return fail("mastering.eq[%d]: unknown type %q", i, band.Type)
		}
		if band.FreqHz <= 0 {
			return fail("mastering.eq[%d]: freq_hz must be positive", i)
		}
		if band.Q < 0 {
			return fail("mastering.eq[%d]: q must not be negative", i)
		}
	}
	return nil
}

func fail(format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "manifest", "validate", fmt.Sprintf(format, args...), nil)
}
