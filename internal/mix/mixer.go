package mix

import (
	"fmt"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// Stem is one independently-gained layer entering the mix.
type Stem struct {
	Role        manifest.Role
	Buffer      *audio.Buffer
	GainDB      float64
	DuckByVoice bool
}

// Metrics reports what the summed mix measured. A peak above full scale is
// recorded here, never silently clipped; the caller decides whether to
// re-gain or rely on the limiter.
type Metrics struct {
	PeakLinear     float64 `json:"peak_linear"`
	PeakDB         float64 `json:"peak_db"`
	ClippedSamples int     `json:"clipped_samples"`
	StemCount      int     `json:"stem_count"`
	DuckingApplied bool    `json:"ducking_applied"`
}

// Mix converts per-stem dB gains to linear, sums sample-wise, and measures
// the result. Stems must agree on sample rate and channel count; lengths may
// differ and the mix spans the longest stem. When duck.Enabled and a voice
// stem is present, stems flagged DuckByVoice are attenuated by the voice
// envelope.
func Mix(stems []Stem, duck DuckConfig) (*audio.Buffer, Metrics, error) {
	var metrics Metrics
	if len(stems) == 0 {
		return nil, metrics, services.Wrap(services.ErrValidation, "mix", "sum stems", "no stems to mix", nil)
	}

	rate := stems[0].Buffer.SampleRate
	channels := stems[0].Buffer.Channels()
	frames := 0
	for i, stem := range stems {
		if stem.Buffer == nil {
			return nil, metrics, services.Wrap(services.ErrValidation, "mix", "sum stems",
				fmt.Sprintf("stem %q has no buffer", stem.Role), nil)
		}
		if stem.Buffer.SampleRate != rate {
			return nil, metrics, services.Wrap(services.ErrSampleRateMismatch, "mix", "sum stems",
				fmt.Sprintf("stem %q at %d Hz, stem %q at %d Hz",
					stems[0].Role, rate, stem.Role, stem.Buffer.SampleRate), nil)
		}
		if stem.Buffer.Channels() != channels {
			return nil, metrics, services.Wrap(services.ErrSampleRateMismatch, "mix", "sum stems",
				fmt.Sprintf("stem %d (%q) has %d channels, want %d", i, stem.Role, stem.Buffer.Channels(), channels), nil)
		}
		if f := stem.Buffer.Frames(); f > frames {
			frames = f
		}
	}

	var duckCurve []float64
	if duck.Enabled {
		if voice := findVoice(stems); voice != nil {
			duckCurve = voiceGainCurve(voice, frames, rate, duck)
			metrics.DuckingApplied = true
		}
	}

	out := audio.NewBuffer(rate, channels, frames)
	for _, stem := range stems {
		gain := audio.DBToLinear(stem.GainDB)
		ducked := stem.DuckByVoice && duckCurve != nil
		for ch := 0; ch < channels; ch++ {
			src := stem.Buffer.Samples[ch]
			dst := out.Samples[ch]
			if ducked {
				for i, v := range src {
					dst[i] += v * gain * duckCurve[i]
				}
			} else {
				for i, v := range src {
					dst[i] += v * gain
				}
			}
		}
	}

	metrics.StemCount = len(stems)
	metrics.PeakLinear = out.Peak()
	metrics.PeakDB = audio.LinearToDB(metrics.PeakLinear)
	for _, data := range out.Samples {
		for _, v := range data {
			if v > 1.0 || v < -1.0 {
				metrics.ClippedSamples++
			}
		}
	}

	return out, metrics, nil
}

func findVoice(stems []Stem) *audio.Buffer {
	for _, stem := range stems {
		if stem.Role == manifest.RoleVoice {
			return stem.Buffer
		}
	}
	return nil
}
