package mix

import (
	"math"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
)

// DuckConfig controls sidechain attenuation of background stems while the
// voice is active.
type DuckConfig struct {
	Enabled     bool
	DepthDB     float64
	AttackMs    float64
	ReleaseMs   float64
	WindowMs    float64
	ThresholdDB float64
}

// duckKneeDB is the range above the threshold over which attenuation ramps
// from none to the full configured depth.
const duckKneeDB = 20.0

// voiceGainCurve produces a per-frame linear gain for ducked stems. A
// sliding RMS over the voice drives a target reduction, proportional to how
// far the envelope sits above the threshold, which is then smoothed with
// separate attack and release time constants. Frames past the end of the
// voice stem carry unity gain reached through the release.
func voiceGainCurve(voice *audio.Buffer, frames, rate int, cfg DuckConfig) []float64 {
	env := rmsEnvelope(voice, cfg.WindowMs)
	attack := smoothingCoeff(cfg.AttackMs, rate)
	release := smoothingCoeff(cfg.ReleaseMs, rate)

	curve := make([]float64, frames)
	gain := 1.0
	for i := range curve {
		target := 1.0
		if i < len(env) {
			envDB := audio.LinearToDB(env[i])
			over := (envDB - cfg.ThresholdDB) / duckKneeDB
			if over > 0 {
				if over > 1 {
					over = 1
				}
				target = audio.DBToLinear(over * cfg.DepthDB)
			}
		}
		if target < gain {
			gain = target + (gain-target)*attack
		} else {
			gain = target + (gain-target)*release
		}
		curve[i] = gain
	}
	return curve
}

// rmsEnvelope computes a sliding root-mean-square of the voice, channels
// averaged, using a running sum of squares over the window.
func rmsEnvelope(voice *audio.Buffer, windowMs float64) []float64 {
	frames := voice.Frames()
	channels := voice.Channels()
	if frames == 0 || channels == 0 {
		return nil
	}

	window := int(windowMs / 1000.0 * float64(voice.SampleRate))
	if window < 1 {
		window = 1
	}

	mono := make([]float64, frames)
	for _, data := range voice.Samples {
		for i, v := range data {
			mono[i] += v
		}
	}
	scale := 1.0 / float64(channels)
	for i := range mono {
		mono[i] *= scale
	}

	env := make([]float64, frames)
	sum := 0.0
	for i := range mono {
		sum += mono[i] * mono[i]
		if i >= window {
			sum -= mono[i-window] * mono[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		if sum < 0 {
			sum = 0
		}
		env[i] = math.Sqrt(sum / float64(n))
	}
	return env
}

// smoothingCoeff derives a one-pole coefficient so the smoother covers most
// of a step within the given time.
func smoothingCoeff(ms float64, rate int) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (ms / 1000.0 * float64(rate)))
}
