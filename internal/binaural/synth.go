package binaural

import (
	"context"
	"fmt"
	"math"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/schedule"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// amplitude leaves headroom below full scale so the bed never clips pre-mix.
const amplitude = 0.92

// blockSamples bounds per-iteration work so cancellation is observed promptly
// even on hour-long sessions.
const blockSamples = 1 << 16

// Carrier describes the tone both ears share.
type Carrier struct {
	BaseHz     float64
	SampleRate int
	DurationS  float64
}

func (c Carrier) validate() error {
	if c.BaseHz <= 0 {
		return fmt.Errorf("carrier base frequency must be positive, got %v", c.BaseHz)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.DurationS)
	}
	if nyquist := float64(c.SampleRate) / 2; c.BaseHz >= nyquist {
		return fmt.Errorf("carrier %v Hz at or above Nyquist for %d Hz", c.BaseHz, c.SampleRate)
	}
	return nil
}

// Synthesize renders the stereo entrainment bed. The left channel runs at the
// carrier frequency; the right channel's phase is the running integral of
// carrier plus offset, accumulated per sample, so frequency changes never
// produce a phase discontinuity. fadeSeconds shapes both buffer edges.
func Synthesize(ctx context.Context, carrier Carrier, offset schedule.OffsetFunc, fadeSeconds float64) (*audio.Buffer, error) {
	if err := carrier.validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "binaural", "synthesize", err.Error(), nil)
	}
	if offset == nil {
		return nil, services.Wrap(services.ErrValidation, "binaural", "synthesize", "offset function is required", nil)
	}

	rate := float64(carrier.SampleRate)
	frames := int(math.Round(carrier.DurationS * rate))
	buf := audio.NewBuffer(carrier.SampleRate, 2, frames)
	left, right := buf.Samples[0], buf.Samples[1]

	nyquist := rate / 2
	phaseL, phaseR := 0.0, 0.0
	stepL := 2 * math.Pi * carrier.BaseHz / rate

	for start := 0; start < frames; start += blockSamples {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrCancelled, "binaural", "synthesize", "cancelled mid-render", err)
		}
		end := start + blockSamples
		if end > frames {
			end = frames
		}
		for i := start; i < end; i++ {
			t := float64(i) / rate
			freqR := carrier.BaseHz + offset(t)
			if freqR <= 0 || freqR >= nyquist {
				return nil, services.Wrap(services.ErrValidation, "binaural", "synthesize",
					fmt.Sprintf("instantaneous right-channel frequency %v Hz out of range at t=%.3fs", freqR, t), nil)
			}

			left[i] = amplitude * math.Sin(phaseL)
			right[i] = amplitude * math.Sin(phaseR)

			phaseL += stepL
			phaseR += 2 * math.Pi * freqR / rate
			if phaseL > 2*math.Pi {
				phaseL -= 2 * math.Pi
			}
			if phaseR > 2*math.Pi {
				phaseR -= 2 * math.Pi
			}
		}
	}

	audio.ApplyFade(buf, fadeSeconds, fadeSeconds)
	return buf, nil
}
