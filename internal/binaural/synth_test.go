package binaural_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/binaural"
	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/schedule"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// goertzelPower measures spectral energy at freq over the given samples.
func goertzelPower(samples []float64, freq float64, sampleRate int) float64 {
	omega := 2 * math.Pi * freq / float64(sampleRate)
	coeff := 2 * math.Cos(omega)
	var s0, s1, s2 float64
	for _, x := range samples {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	return s1*s1 + s2*s2 - coeff*s1*s2
}

// zeroCrossingFreq estimates frequency from positive-going zero crossings.
func zeroCrossingFreq(samples []float64, sampleRate int) float64 {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if samples[i-1] < 0 && samples[i] >= 0 {
			crossings++
		}
	}
	seconds := float64(len(samples)) / float64(sampleRate)
	return float64(crossings) / seconds
}

func constOffset(hz float64) schedule.OffsetFunc {
	return func(float64) float64 { return hz }
}

func TestSynthesizeConstantOffsetSpectralPeak(t *testing.T) {
	carrier := binaural.Carrier{BaseHz: 200, SampleRate: 8000, DurationS: 3}
	buf, err := binaural.Synthesize(context.Background(), carrier, constOffset(10), 0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if buf.Channels() != 2 || buf.Frames() != 24000 {
		t.Fatalf("unexpected shape: %d channels, %d frames", buf.Channels(), buf.Frames())
	}

	// Middle second, clear of edges.
	window := buf.Samples[1][8000:16000]
	at := goertzelPower(window, 210, 8000)
	below := goertzelPower(window, 200, 8000)
	above := goertzelPower(window, 220, 8000)
	if at < 50*below || at < 50*above {
		t.Errorf("right channel energy not concentrated at 210 Hz: at=%v below=%v above=%v", at, below, above)
	}

	left := goertzelPower(buf.Samples[0][8000:16000], 200, 8000)
	leftOff := goertzelPower(buf.Samples[0][8000:16000], 210, 8000)
	if left < 50*leftOff {
		t.Errorf("left channel should sit at the carrier: at=%v off=%v", left, leftOff)
	}
}

func TestSynthesizeRampTracksSchedule(t *testing.T) {
	sections := []manifest.FrequencySection{
		{StartS: 0, EndS: 10, OffsetHz: 10, OffsetHzEnd: ptr(50.0), Transition: manifest.TransitionLinear},
	}
	offset, err := schedule.Resolve(sections, 10, schedule.GapError)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	carrier := binaural.Carrier{BaseHz: 200, SampleRate: 8000, DurationS: 10}
	buf, err := binaural.Synthesize(context.Background(), carrier, offset, 0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	// At t=5s the offset is 30 Hz, so the right channel runs near 230 Hz.
	window := buf.Samples[1][36000:44000]
	got := zeroCrossingFreq(window, 8000)
	if math.Abs(got-230) > 5 {
		t.Errorf("instantaneous frequency at t=5s: got %v Hz, want ~230", got)
	}

	if lf := zeroCrossingFreq(buf.Samples[0][36000:44000], 8000); math.Abs(lf-200) > 3 {
		t.Errorf("left channel drifted: %v Hz", lf)
	}
}

func TestSynthesizePhaseContinuityAtSectionBoundary(t *testing.T) {
	sections := []manifest.FrequencySection{
		{StartS: 0, EndS: 1, OffsetHz: 4, Transition: manifest.TransitionHold},
		{StartS: 1, EndS: 2, OffsetHz: 40, Transition: manifest.TransitionHold},
	}
	offset, err := schedule.Resolve(sections, 2, schedule.GapError)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	carrier := binaural.Carrier{BaseHz: 100, SampleRate: 8000, DurationS: 2}
	buf, err := binaural.Synthesize(context.Background(), carrier, offset, 0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	// The largest sample-to-sample step of a continuous-phase sine is bounded
	// by its angular increment; a phase jump at the boundary would exceed it.
	maxStep := 2 * math.Pi * 141.0 / 8000.0
	right := buf.Samples[1]
	for i := 1; i < len(right); i++ {
		if diff := math.Abs(right[i] - right[i-1]); diff > maxStep {
			t.Fatalf("phase discontinuity at sample %d: step %v exceeds bound %v", i, diff, maxStep)
		}
	}
}

func TestSynthesizeZeroOffsetDegeneratesToCoherentPad(t *testing.T) {
	carrier := binaural.Carrier{BaseHz: 150, SampleRate: 8000, DurationS: 1}
	buf, err := binaural.Synthesize(context.Background(), carrier, constOffset(0), 0.1)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	for i := range buf.Samples[0] {
		if math.Abs(buf.Samples[0][i]-buf.Samples[1][i]) > 1e-9 {
			t.Fatalf("channels diverge at sample %d with zero offset", i)
		}
	}
}

func TestSynthesizeAppliesEdgeFades(t *testing.T) {
	carrier := binaural.Carrier{BaseHz: 200, SampleRate: 8000, DurationS: 2}
	buf, err := binaural.Synthesize(context.Background(), carrier, constOffset(5), 0.5)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if math.Abs(buf.Samples[0][0]) > 1e-12 {
		t.Errorf("first sample should be silent, got %v", buf.Samples[0][0])
	}
	lastFrame := buf.Frames() - 1
	if math.Abs(buf.Samples[0][lastFrame]) > 1e-3 {
		t.Errorf("final sample should be faded out, got %v", buf.Samples[0][lastFrame])
	}
}

func TestSynthesizeValidation(t *testing.T) {
	cases := []struct {
		name    string
		carrier binaural.Carrier
	}{
		{"zero base", binaural.Carrier{BaseHz: 0, SampleRate: 8000, DurationS: 1}},
		{"zero rate", binaural.Carrier{BaseHz: 100, SampleRate: 0, DurationS: 1}},
		{"zero duration", binaural.Carrier{BaseHz: 100, SampleRate: 8000, DurationS: 0}},
		{"above nyquist", binaural.Carrier{BaseHz: 5000, SampleRate: 8000, DurationS: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := binaural.Synthesize(context.Background(), tc.carrier, constOffset(1), 0)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSynthesizeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	carrier := binaural.Carrier{BaseHz: 200, SampleRate: 8000, DurationS: 1}
	_, err := binaural.Synthesize(ctx, carrier, constOffset(5), 0)
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

// Full-scale render of the reference session: 30 minutes at 48 kHz.
func TestSynthesizeFullSession(t *testing.T) {
	if testing.Short() {
		t.Skip("full-length session render")
	}
	sections := []manifest.FrequencySection{
		{StartS: 0, EndS: 150, OffsetHz: 0.5, Transition: manifest.TransitionHold},
		{StartS: 150, EndS: 540, OffsetHz: 10, OffsetHzEnd: ptr(6.0), Transition: manifest.TransitionLinear},
		{StartS: 540, EndS: 1800, OffsetHz: 6, Transition: manifest.TransitionHold},
	}
	offset, err := schedule.Resolve(sections, 1800, schedule.GapError)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	carrier := binaural.Carrier{BaseHz: 200, SampleRate: 48000, DurationS: 1800}
	buf, err := binaural.Synthesize(context.Background(), carrier, offset, 4)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if buf.Frames() != 1800*48000 {
		t.Fatalf("frames: got %d want %d", buf.Frames(), 1800*48000)
	}
	if err := buf.Validate(); err != nil {
		t.Fatalf("buffer not finite: %v", err)
	}
	if peak := buf.Peak(); peak > 1.0 {
		t.Fatalf("peak above full scale: %v", peak)
	}
}

func ptr(f float64) *float64 { return &f }

func BenchmarkSynthesizeMinute(b *testing.B) {
	carrier := binaural.Carrier{BaseHz: 200, SampleRate: 48000, DurationS: 60}
	for i := 0; i < b.N; i++ {
		buf, err := binaural.Synthesize(context.Background(), carrier, constOffset(6), 4)
		if err != nil {
			b.Fatal(err)
		}
		_ = buf
	}
}
