package mastering

import (
	"math"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
)

// limit applies a lookahead brick-wall limiter in place. The gain envelope
// follows the peak over the next attack window, so reduction ramps in before
// a peak arrives and recovers with the release time constant. Samples never
// exceed the ceiling: the envelope is clamped against the instantaneous
// requirement. Returns the deepest gain reduction applied, in dB (zero when
// nothing limited).
func limit(buf *audio.Buffer, ceilingDB, attackMs, releaseMs float64) float64 {
	frames := buf.Frames()
	if frames == 0 {
		return 0
	}
	ceiling := audio.DBToLinear(ceilingDB)
	lookahead := int(attackMs / 1000.0 * float64(buf.SampleRate))
	if lookahead < 1 {
		lookahead = 1
	}
	attack := math.Exp(-1.0 / float64(lookahead))
	release := math.Exp(-1.0 / (releaseMs / 1000.0 * float64(buf.SampleRate)))

	// Peak across channels per frame.
	peaks := make([]float64, frames)
	for _, data := range buf.Samples {
		for i, v := range data {
			if a := math.Abs(v); a > peaks[i] {
				peaks[i] = a
			}
		}
	}

	// Target gain per frame from a sliding maximum over the next lookahead
	// frames, via a monotonic deque so the pass stays linear.
	target := make([]float64, frames)
	deque := make([]int, 0, lookahead)
	for i := frames - 1; i >= 0; i-- {
		for len(deque) > 0 && peaks[deque[len(deque)-1]] <= peaks[i] {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if deque[0] >= i+lookahead {
			deque = deque[1:]
		}
		target[i] = 1.0
		if windowPeak := peaks[deque[0]]; windowPeak > ceiling {
			target[i] = ceiling / windowPeak
		}
	}

	maxReduction := 1.0
	gain := 1.0
	for i := 0; i < frames; i++ {
		if target[i] < gain {
			gain = target[i] + (gain-target[i])*attack
		} else {
			gain = target[i] + (gain-target[i])*release
		}
		// Brick wall: the smoothed envelope must still satisfy the frame
		// it is applied to.
		if peaks[i] > ceiling {
			if need := ceiling / peaks[i]; gain > need {
				gain = need
			}
		}
		if gain < maxReduction {
			maxReduction = gain
		}
		for _, data := range buf.Samples {
			data[i] *= gain
		}
	}

	if maxReduction >= 1.0 {
		return 0
	}
	return -audio.LinearToDB(maxReduction)
}
