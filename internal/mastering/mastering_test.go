package mastering_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/mastering"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// stereoSine fills both channels with the same sine.
func stereoSine(rate int, freq, amplitude, seconds float64) *audio.Buffer {
	frames := int(seconds * float64(rate))
	buf := audio.NewBuffer(rate, 2, frames)
	step := 2 * math.Pi * freq / float64(rate)
	for i := 0; i < frames; i++ {
		v := amplitude * math.Sin(step*float64(i))
		buf.Samples[0][i] = v
		buf.Samples[1][i] = v
	}
	return buf
}

func defaultSpec() manifest.Mastering {
	return manifest.Mastering{
		TargetLUFS:          -23,
		TruePeakCeilingDBTP: -1,
		ToleranceLU:         1.0,
		Limiter:             manifest.Limiter{AttackMs: 5, ReleaseMs: 50},
	}
}

func TestIntegratedLoudnessReferenceTone(t *testing.T) {
	// A 997 Hz stereo sine measures approximately 20*log10(amplitude)
	// LUFS: the -0.691 offset cancels the K-weighting gain at 997 Hz and
	// the two channels sum to twice the per-channel mean square.
	tests := []struct {
		amplitude float64
		want      float64
	}{
		{1.0, 0.0},
		{0.1, -20.0},
		{math.Pow(10, -23.0/20), -23.0},
	}
	for _, tt := range tests {
		buf := stereoSine(48000, 997, tt.amplitude, 5)
		got, err := mastering.IntegratedLoudness(buf)
		if err != nil {
			t.Fatalf("IntegratedLoudness(amp=%v): %v", tt.amplitude, err)
		}
		if math.Abs(got-tt.want) > 0.3 {
			t.Errorf("IntegratedLoudness(amp=%v) = %.2f LUFS, want %.2f +/- 0.3", tt.amplitude, got, tt.want)
		}
	}
}

func TestIntegratedLoudnessSilence(t *testing.T) {
	buf := audio.NewBuffer(48000, 2, 48000*10)
	_, err := mastering.IntegratedLoudness(buf)
	if !errors.Is(err, services.ErrLoudness) {
		t.Fatalf("err = %v, want ErrLoudness", err)
	}
}

func TestIntegratedLoudnessTooShort(t *testing.T) {
	buf := stereoSine(48000, 440, 0.5, 0.2)
	_, err := mastering.IntegratedLoudness(buf)
	if !errors.Is(err, services.ErrLoudness) {
		t.Fatalf("err = %v, want ErrLoudness", err)
	}
}

func TestIntegratedLoudnessGatesSilentTail(t *testing.T) {
	// Two seconds of tone followed by eight of silence. Gating should keep
	// the measurement near the tone's own loudness instead of averaging
	// the silence in.
	rate := 48000
	tone := stereoSine(rate, 997, 0.1, 2)
	buf := audio.NewBuffer(rate, 2, rate*10)
	for ch := range buf.Samples {
		copy(buf.Samples[ch], tone.Samples[ch])
	}

	got, err := mastering.IntegratedLoudness(buf)
	if err != nil {
		t.Fatalf("IntegratedLoudness: %v", err)
	}
	if math.Abs(got-(-20.0)) > 1.0 {
		t.Fatalf("gated loudness = %.2f LUFS, want -20 +/- 1", got)
	}
}

func TestMasterReachesTarget(t *testing.T) {
	buf := stereoSine(48000, 997, 0.1, 5)
	spec := defaultSpec()

	out, report, err := mastering.NewEngine(logging.NewNop()).Master(context.Background(), buf, spec)
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if math.Abs(report.OutputLUFS-spec.TargetLUFS) > spec.ToleranceLU {
		t.Fatalf("OutputLUFS = %.2f, want within %.1f of %.1f", report.OutputLUFS, spec.ToleranceLU, spec.TargetLUFS)
	}
	if math.Abs(report.GainAppliedDB-(-3.0)) > 0.5 {
		t.Fatalf("GainAppliedDB = %.2f, want about -3", report.GainAppliedDB)
	}
	if out.Peak() > audio.DBToLinear(spec.TruePeakCeilingDBTP) {
		t.Fatalf("sample peak %.4f above ceiling", out.Peak())
	}
	// Input is untouched.
	if math.Abs(buf.Peak()-0.1) > 1e-9 {
		t.Fatalf("input buffer mutated, peak = %v", buf.Peak())
	}
}

func TestMasterAtTargetIsNearIdentity(t *testing.T) {
	buf := stereoSine(48000, 997, math.Pow(10, -23.0/20), 5)
	out, report, err := mastering.NewEngine(logging.NewNop()).Master(context.Background(), buf, defaultSpec())
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if math.Abs(report.GainAppliedDB) > 0.3 {
		t.Fatalf("GainAppliedDB = %.2f, want about 0", report.GainAppliedDB)
	}
	if math.Abs(out.Peak()-buf.Peak()) > 0.01 {
		t.Fatalf("peak changed from %v to %v", buf.Peak(), out.Peak())
	}
}

func TestMasterEnforcesTruePeakCeiling(t *testing.T) {
	// Bed at the target loudness with short full-scale transients: the
	// limiter catches them, and the reported true peak must end up at or
	// under the configured ceiling, not merely near it.
	buf := stereoSine(48000, 997, math.Pow(10, -23.0/20), 5)
	for i := 4800; i < buf.Frames(); i += 4800 {
		buf.Samples[0][i] = 1.0
		buf.Samples[1][i] = 1.0
	}

	spec := defaultSpec()
	_, report, err := mastering.NewEngine(logging.NewNop()).Master(context.Background(), buf, spec)
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if report.TruePeakDBTP > spec.TruePeakCeilingDBTP+1e-6 {
		t.Fatalf("TruePeakDBTP = %.3f dBTP, ceiling %.3f", report.TruePeakDBTP, spec.TruePeakCeilingDBTP)
	}
	if report.SamplePeakDB > spec.TruePeakCeilingDBTP+1e-6 {
		t.Fatalf("SamplePeakDB = %.3f dB over the ceiling", report.SamplePeakDB)
	}
}

func TestMasterSilenceFails(t *testing.T) {
	buf := audio.NewBuffer(48000, 2, 48000*10)
	_, _, err := mastering.NewEngine(logging.NewNop()).Master(context.Background(), buf, defaultSpec())
	if !errors.Is(err, services.ErrLoudness) {
		t.Fatalf("err = %v, want ErrLoudness", err)
	}
}

func TestMasterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf := stereoSine(48000, 997, 0.1, 5)
	_, _, err := mastering.NewEngine(logging.NewNop()).Master(ctx, buf, defaultSpec())
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestMasterReportsLoudnessMeasurement(t *testing.T) {
	// A hot limiter squashing the program below target must fail loudly
	// with both readings attached.
	buf := stereoSine(48000, 997, 0.9, 5)
	spec := defaultSpec()
	spec.TargetLUFS = -2
	spec.TruePeakCeilingDBTP = -15
	spec.ToleranceLU = 0.5

	_, _, err := mastering.NewEngine(logging.NewNop()).Master(context.Background(), buf, spec)
	if !errors.Is(err, services.ErrLoudness) {
		t.Fatalf("err = %v, want ErrLoudness", err)
	}
	details := services.Details(err)
	if !details.HasValues {
		t.Fatal("expected measured/expected values on the error")
	}
	if details.Expected != spec.TargetLUFS {
		t.Fatalf("Expected = %v, want %v", details.Expected, spec.TargetLUFS)
	}
}
