package mastering

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

// truePeakMarginDB is how far under the true-peak ceiling the limiter's
// sample-peak target sits, absorbing most inter-sample overshoot up front.
const truePeakMarginDB = 0.3

// Report captures what the mastering chain measured and did. It lands in
// the session metrics for the render report.
type Report struct {
	InputLUFS          float64 `json:"input_lufs"`
	OutputLUFS         float64 `json:"output_lufs"`
	TargetLUFS         float64 `json:"target_lufs"`
	GainAppliedDB      float64 `json:"gain_applied_db"`
	LimiterReductionDB float64 `json:"limiter_reduction_db"`
	TruePeakDBTP       float64 `json:"true_peak_dbtp"`
	SamplePeakDB       float64 `json:"sample_peak_db"`
}

// Engine normalizes a mixed program to a loudness target and enforces a
// true-peak ceiling.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logging.WithComponent(logger, "mastering")}
}

// Master measures integrated loudness, applies a static gain toward the
// target, runs the EQ chain, limits to the true-peak ceiling, and
// re-measures. The output must land within the configured tolerance of the
// target or the render fails with ErrLoudness; heavy limiting is the usual
// culprit, and the report carries both readings for diagnosis.
func (e *Engine) Master(ctx context.Context, buf *audio.Buffer, spec manifest.Mastering) (*audio.Buffer, Report, error) {
	var report Report
	report.TargetLUFS = spec.TargetLUFS

	if err := ctx.Err(); err != nil {
		return nil, report, services.Wrap(services.ErrCancelled, "mastering", "master", "cancelled before start", err)
	}

	input, err := IntegratedLoudness(buf)
	if err != nil {
		return nil, report, err
	}
	report.InputLUFS = input
	report.GainAppliedDB = spec.TargetLUFS - input

	out := buf.Clone()
	out.Scale(audio.DBToLinear(report.GainAppliedDB))

	if err := applyEQ(out, spec.EQ); err != nil {
		return nil, report, err
	}

	if err := ctx.Err(); err != nil {
		return nil, report, services.Wrap(services.ErrCancelled, "mastering", "master", "cancelled before limiting", err)
	}

	// The limiter ceiling is set slightly under the true-peak ceiling:
	// oversampled inter-sample peaks can exceed the sample peak the
	// limiter controls.
	report.LimiterReductionDB = limit(out, spec.TruePeakCeilingDBTP-truePeakMarginDB, spec.Limiter.AttackMs, spec.Limiter.ReleaseMs)

	truePeak, err := TruePeak(out)
	if err != nil {
		return nil, report, services.Wrap(services.ErrTransient, "mastering", "measure true peak", "oversampling failed", err)
	}
	if truePeak > spec.TruePeakCeilingDBTP {
		// Inter-sample overshoot past the margin. A static trim by the
		// overage brings the whole program under the ceiling; the loudness
		// verification below still has to pass afterwards.
		out.Scale(audio.DBToLinear(spec.TruePeakCeilingDBTP - truePeak))
		truePeak, err = TruePeak(out)
		if err != nil {
			return nil, report, services.Wrap(services.ErrTransient, "mastering", "measure true peak", "oversampling failed", err)
		}
	}
	report.TruePeakDBTP = truePeak
	report.SamplePeakDB = audio.LinearToDB(out.Peak())

	output, err := IntegratedLoudness(out)
	if err != nil {
		return nil, report, err
	}
	report.OutputLUFS = output

	if math.Abs(output-spec.TargetLUFS) > spec.ToleranceLU {
		return nil, report, services.WrapMeasured(services.ErrLoudness, "mastering", "verify loudness",
			fmt.Sprintf("output loudness off target by more than %.1f LU (limiter reduced %.1f dB)",
				spec.ToleranceLU, report.LimiterReductionDB),
			output, spec.TargetLUFS)
	}

	e.logger.Info("mastering complete",
		logging.Float64("input_lufs", report.InputLUFS),
		logging.Float64("output_lufs", report.OutputLUFS),
		logging.Float64("gain_db", report.GainAppliedDB),
		logging.Float64("true_peak_dbtp", report.TruePeakDBTP),
	)

	return out, report, nil
}
