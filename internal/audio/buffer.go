package audio

import (
	"fmt"
	"math"
	"time"
)

// Buffer holds PCM samples as non-interleaved float64 channels. All channel
// slices have identical length. Samples are nominally in [-1, 1]; stages that
// can overshoot record the overshoot in metrics instead of clipping.
type Buffer struct {
	SampleRate int
	Samples    [][]float64
}

// NewBuffer allocates a silent buffer with the given channel count and frame length.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	samples := make([][]float64, channels)
	for ch := range samples {
		samples[ch] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Samples: samples}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the buffer length as wall-clock time.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := NewBuffer(b.SampleRate, b.Channels(), b.Frames())
	for ch := range b.Samples {
		copy(out.Samples[ch], b.Samples[ch])
	}
	return out
}

// Validate confirms the buffer is structurally sound: positive sample rate, at
// least one channel, equal channel lengths, and no NaN or Inf samples.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("buffer is nil")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", b.SampleRate)
	}
	if len(b.Samples) == 0 {
		return fmt.Errorf("buffer has no channels")
	}
	frames := len(b.Samples[0])
	for ch, data := range b.Samples {
		if len(data) != frames {
			return fmt.Errorf("channel %d has %d frames, channel 0 has %d", ch, len(data), frames)
		}
		for i, v := range data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("channel %d sample %d is not finite", ch, i)
			}
		}
	}
	return nil
}

// Peak returns the largest absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, data := range b.Samples {
		for _, v := range data {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// RMS returns the root-mean-square level across all channels.
func (b *Buffer) RMS() float64 {
	total := 0
	sum := 0.0
	for _, data := range b.Samples {
		for _, v := range data {
			sum += v * v
		}
		total += len(data)
	}
	if total == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(total))
}

// Scale multiplies every sample by gain in place.
func (b *Buffer) Scale(gain float64) {
	for _, data := range b.Samples {
		for i := range data {
			data[i] *= gain
		}
	}
}

// ToStereo returns a two-channel view of the buffer. Mono input is duplicated
// into both channels; stereo input is returned unchanged.
func (b *Buffer) ToStereo() (*Buffer, error) {
	switch b.Channels() {
	case 1:
		out := &Buffer{SampleRate: b.SampleRate, Samples: make([][]float64, 2)}
		out.Samples[0] = b.Samples[0]
		out.Samples[1] = append([]float64(nil), b.Samples[0]...)
		return out, nil
	case 2:
		return b, nil
	default:
		return nil, fmt.Errorf("cannot widen %d-channel buffer to stereo", b.Channels())
	}
}
