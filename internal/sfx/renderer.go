package sfx

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/randysalars/dreamweaving-sub000/internal/assets"
	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// burstAmplitude is the pre-gain level of a synthesized tonal burst.
const burstAmplitude = 0.8

// Renderer places discrete timed events into an effect buffer spanning the
// whole session. Events are summed additively; overlap control is the
// manifest author's responsibility.
type Renderer struct {
	library *assets.Library
	logger  *slog.Logger
}

// NewRenderer builds a renderer that resolves sampled cues through library.
func NewRenderer(library *assets.Library, logger *slog.Logger) *Renderer {
	return &Renderer{library: library, logger: logging.WithComponent(logger, "sfx")}
}

// Render produces the effects stem. Every event must already carry an
// absolute time; marker-timed events are aligned by the pipeline before this
// runs.
func (r *Renderer) Render(ctx context.Context, events []manifest.EffectEvent, durationS float64, sampleRate int, cache assets.Cache) (*audio.Buffer, error) {
	if durationS <= 0 || sampleRate <= 0 {
		return nil, services.Wrap(services.ErrValidation, "sfx", "render",
			fmt.Sprintf("invalid span: duration %v, rate %d", durationS, sampleRate), nil)
	}

	frames := int(math.Round(durationS * float64(sampleRate)))
	out := audio.NewBuffer(sampleRate, 2, frames)

	for i, event := range events {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrCancelled, "sfx", "render", "cancelled mid-render", err)
		}
		if event.TimeS < 0 || event.TimeS+event.DurationS > durationS+1e-9 {
			return nil, services.Wrap(services.ErrValidation, "sfx", "render",
				fmt.Sprintf("event %d outside session: [%v, %v) against %v", i, event.TimeS, event.TimeS+event.DurationS, durationS), nil)
		}

		var clip *audio.Buffer
		var err error
		switch event.Kind {
		case manifest.EventTonalBurst:
			clip = renderBurst(event, sampleRate)
		case manifest.EventSampledCue:
			clip, err = r.renderCue(ctx, event, sampleRate, cache)
		default:
			err = services.Wrap(services.ErrValidation, "sfx", "render",
				fmt.Sprintf("event %d: unknown kind %q", i, event.Kind), nil)
		}
		if err != nil {
			return nil, err
		}

		placeAt(out, clip, int(math.Round(event.TimeS*float64(sampleRate))))
	}

	return out, nil
}

func renderBurst(event manifest.EffectEvent, sampleRate int) *audio.Buffer {
	frames := int(math.Round(event.DurationS * float64(sampleRate)))
	clip := audio.NewBuffer(sampleRate, 2, frames)
	gain := burstAmplitude * audio.DBToLinear(event.GainDB)
	step := 2 * math.Pi * event.FreqHz / float64(sampleRate)
	phase := 0.0
	for i := 0; i < frames; i++ {
		v := gain * math.Sin(phase)
		clip.Samples[0][i] = v
		clip.Samples[1][i] = v
		phase += step
		if phase > 2*math.Pi {
			phase -= 2 * math.Pi
		}
	}
	audio.ApplyFade(clip, event.FadeInS, event.FadeOutS)
	return clip
}

func (r *Renderer) renderCue(ctx context.Context, event manifest.EffectEvent, sampleRate int, cache assets.Cache) (*audio.Buffer, error) {
	decoded, err := r.library.Resolve(ctx, event.Asset, sampleRate, cache)
	if err != nil {
		return nil, err
	}

	// Cached buffers are shared across events; shape a private copy.
	clip := decoded.Clone()
	maxFrames := int(math.Round(event.DurationS * float64(sampleRate)))
	if clip.Frames() > maxFrames {
		for ch := range clip.Samples {
			clip.Samples[ch] = clip.Samples[ch][:maxFrames]
		}
	}
	clip.Scale(audio.DBToLinear(event.GainDB))
	audio.ApplyFade(clip, event.FadeInS, event.FadeOutS)
	return clip, nil
}

// placeAt sums clip into out starting at frame offset, truncating anything
// that would run past the session end.
func placeAt(out, clip *audio.Buffer, offset int) {
	frames := out.Frames()
	for ch := 0; ch < out.Channels(); ch++ {
		src := clip.Samples[ch%clip.Channels()]
		for i, v := range src {
			pos := offset + i
			if pos < 0 {
				continue
			}
			if pos >= frames {
				break
			}
			out.Samples[ch][pos] += v
		}
	}
}
