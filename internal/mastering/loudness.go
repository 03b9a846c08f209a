package mastering

import (
	"math"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// ITU-R BS.1770-4 gating parameters.
const (
	gatingBlockSeconds = 0.400
	gatingOverlap      = 0.75
	absoluteGateLUFS   = -70.0
	relativeGateLU     = -10.0
	loudnessOffset     = -0.691
)

// kWeighting returns the two-stage K-weighting filter for the given sample
// rate: a high shelf modelling the acoustic effect of the head, then a
// high-pass (RLB) curve. Coefficients follow the BS.1770 parameterization so
// rates other than 48 kHz measure correctly.
func kWeighting(sampleRate int) []biquad {
	fs := float64(sampleRate)

	// Stage 1: spherical-head high shelf.
	const (
		shelfGainDB = 3.999843853973347
		shelfFreq   = 1681.974450955533
		shelfQ      = 0.7071752369554196
	)
	k := math.Tan(math.Pi * shelfFreq / fs)
	vh := math.Pow(10, shelfGainDB/20)
	vb := math.Pow(vh, 0.4996667741545416)
	a0 := 1 + k/shelfQ + k*k
	shelf := biquad{
		b0: (vh + vb*k/shelfQ + k*k) / a0,
		b1: 2 * (k*k - vh) / a0,
		b2: (vh - vb*k/shelfQ + k*k) / a0,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/shelfQ + k*k) / a0,
	}

	// Stage 2: RLB high-pass.
	const (
		hpFreq = 38.13547087602444
		hpQ    = 0.5003270373238773
	)
	k = math.Tan(math.Pi * hpFreq / fs)
	a0 = 1 + k/hpQ + k*k
	highpass := biquad{
		b0: 1,
		b1: -2,
		b2: 1,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/hpQ + k*k) / a0,
	}

	return []biquad{shelf, highpass}
}

// IntegratedLoudness measures gated loudness in LUFS per BS.1770-4: K-weight
// each channel, slice into 400 ms blocks at 75% overlap, drop blocks below
// the -70 LUFS absolute gate, then drop blocks more than 10 LU below the
// mean of the survivors. Material with no gated blocks (silence, or shorter
// than one block) yields ErrLoudness rather than NaN.
func IntegratedLoudness(buf *audio.Buffer) (float64, error) {
	blockFrames := int(gatingBlockSeconds * float64(buf.SampleRate))
	hop := int(float64(blockFrames) * (1 - gatingOverlap))
	if buf.Frames() < blockFrames || hop < 1 {
		return 0, services.Wrap(services.ErrLoudness, "mastering", "measure loudness",
			"program shorter than one gating block", nil)
	}

	weighted := make([][]float64, buf.Channels())
	for ch, data := range buf.Samples {
		filters := kWeighting(buf.SampleRate)
		out := make([]float64, len(data))
		copy(out, data)
		for i := range filters {
			filters[i].processInPlace(out)
		}
		weighted[ch] = out
	}

	// Mean-square energy per block, summed over channels with unit weights
	// (stereo carries no surround channels).
	var blocks []float64
	for start := 0; start+blockFrames <= buf.Frames(); start += hop {
		var energy float64
		for _, data := range weighted {
			var sum float64
			for _, v := range data[start : start+blockFrames] {
				sum += v * v
			}
			energy += sum / float64(blockFrames)
		}
		blocks = append(blocks, energy)
	}

	blockLoudness := func(energy float64) float64 {
		return loudnessOffset + 10*math.Log10(energy)
	}

	// Absolute gate.
	var absGated []float64
	for _, energy := range blocks {
		if energy > 0 && blockLoudness(energy) > absoluteGateLUFS {
			absGated = append(absGated, energy)
		}
	}
	if len(absGated) == 0 {
		return 0, services.Wrap(services.ErrLoudness, "mastering", "measure loudness",
			"no blocks above the absolute gate; program is effectively silent", nil)
	}

	// Relative gate against the mean of the surviving blocks.
	var mean float64
	for _, energy := range absGated {
		mean += energy
	}
	mean /= float64(len(absGated))
	threshold := blockLoudness(mean) + relativeGateLU

	var sum float64
	var count int
	for _, energy := range absGated {
		if blockLoudness(energy) > threshold {
			sum += energy
			count++
		}
	}
	if count == 0 {
		return 0, services.Wrap(services.ErrLoudness, "mastering", "measure loudness",
			"no blocks above the relative gate", nil)
	}

	return blockLoudness(sum / float64(count)), nil
}
