package audio

import (
	"fmt"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// wavPrecision is the encoded sample depth in bytes (16-bit PCM).
const wavPrecision = 2

// streamer adapts a Buffer to the beep.Streamer contract. Mono buffers are
// presented on both channels.
type streamer struct {
	buf *Buffer
	pos int
}

func (s *streamer) Stream(samples [][2]float64) (int, bool) {
	frames := s.buf.Frames()
	if s.pos >= frames {
		return 0, false
	}
	n := 0
	for i := range samples {
		if s.pos >= frames {
			break
		}
		left := s.buf.Samples[0][s.pos]
		right := left
		if s.buf.Channels() > 1 {
			right = s.buf.Samples[1][s.pos]
		}
		samples[i][0] = left
		samples[i][1] = right
		s.pos++
		n++
	}
	return n, true
}

func (s *streamer) Err() error { return nil }

// Streamer exposes the buffer as a beep.Streamer along with its format.
func Streamer(b *Buffer) (beep.Streamer, beep.Format) {
	channels := b.Channels()
	if channels > 2 {
		channels = 2
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(b.SampleRate),
		NumChannels: channels,
		Precision:   wavPrecision,
	}
	return &streamer{buf: b}, format
}

// WriteWAV writes the buffer to path as 16-bit PCM, atomically: the encode
// goes to a temporary sibling file which is renamed into place only on
// success.
func WriteWAV(path string, b *Buffer) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return WriteFileAtomic(path, func(f *os.File) error {
		s, format := Streamer(b)
		return wav.Encode(f, s, format)
	})
}

// ReadWAV decodes a WAV file into a Buffer at the file's native sample rate.
func ReadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	defer decoded.Close()

	return collect(decoded, format)
}

// Resample converts the buffer to the target sample rate using beep's
// windowed-sinc resampler. The buffer is returned unchanged when the rates
// already match.
func Resample(b *Buffer, targetRate int) (*Buffer, error) {
	if b.SampleRate == targetRate {
		return b, nil
	}
	if targetRate <= 0 {
		return nil, fmt.Errorf("resample: target rate must be positive, got %d", targetRate)
	}
	src, format := Streamer(b)
	resampled := beep.Resample(4, beep.SampleRate(b.SampleRate), beep.SampleRate(targetRate), src)
	format.SampleRate = beep.SampleRate(targetRate)
	return collect(resampled, format)
}

// collect drains a streamer into a Buffer. Mono formats keep a single channel.
func collect(s beep.Streamer, format beep.Format) (*Buffer, error) {
	channels := format.NumChannels
	if channels != 1 {
		channels = 2
	}
	out := &Buffer{
		SampleRate: int(format.SampleRate),
		Samples:    make([][]float64, channels),
	}

	block := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(block)
		for i := 0; i < n; i++ {
			out.Samples[0] = append(out.Samples[0], block[i][0])
			if channels == 2 {
				out.Samples[1] = append(out.Samples[1], block[i][1])
			}
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("stream samples: %w", err)
	}
	return out, nil
}
