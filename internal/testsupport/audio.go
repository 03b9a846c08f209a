package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
)

// WriteSineWAV renders a stereo sine fixture to the target path.
func WriteSineWAV(t testing.TB, path string, sampleRate int, freqHz, amplitude, seconds float64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	frames := int(seconds * float64(sampleRate))
	buf := audio.NewBuffer(sampleRate, 2, frames)
	step := 2 * math.Pi * freqHz / float64(sampleRate)
	for i := 0; i < frames; i++ {
		v := amplitude * math.Sin(step*float64(i))
		buf.Samples[0][i] = v
		buf.Samples[1][i] = v
	}
	if err := audio.WriteWAV(path, buf); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}
