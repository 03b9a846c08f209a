package audio

import "math"

// ApplyFade shapes the buffer edges with raised-cosine ramps of the given
// durations. Fades longer than half the buffer are clamped so the two ramps
// never overlap.
func ApplyFade(b *Buffer, fadeIn, fadeOut float64) {
	frames := b.Frames()
	if frames == 0 {
		return
	}
	inSamples := clampFadeSamples(fadeIn, b.SampleRate, frames)
	outSamples := clampFadeSamples(fadeOut, b.SampleRate, frames)

	for _, data := range b.Samples {
		for i := 0; i < inSamples; i++ {
			data[i] *= raisedCosine(float64(i) / float64(inSamples))
		}
		for i := 0; i < outSamples; i++ {
			data[frames-1-i] *= raisedCosine(float64(i) / float64(outSamples))
		}
	}
}

func clampFadeSamples(seconds float64, sampleRate, frames int) int {
	if seconds <= 0 {
		return 0
	}
	n := int(seconds * float64(sampleRate))
	if max := frames / 2; n > max {
		n = max
	}
	return n
}

// raisedCosine maps u in [0,1] to a smooth 0..1 gain ramp.
func raisedCosine(u float64) float64 {
	return 0.5 - 0.5*math.Cos(math.Pi*u)
}
