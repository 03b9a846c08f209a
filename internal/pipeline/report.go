package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// Report is the JSON artifact written next to the mastered program. It holds
// everything a later inspection of the render needs without replaying it.
type Report struct {
	RenderID   string        `json:"render_id"`
	SessionID  string        `json:"session_id,omitempty"`
	Title      string        `json:"title"`
	DurationS  float64       `json:"duration_s"`
	SampleRate int           `json:"sample_rate"`
	OutputPath string        `json:"output_path"`
	StemPaths  []string      `json:"stem_paths,omitempty"`
	Mix        mixReport     `json:"mix"`
	Mastering  masterReport  `json:"mastering"`
	Stages     []stageReport `json:"stages"`
	CreatedAt  string        `json:"created_at"`
}

type mixReport struct {
	PeakDB         float64 `json:"peak_db"`
	ClippedSamples int     `json:"clipped_samples"`
	StemCount      int     `json:"stem_count"`
	DuckingApplied bool    `json:"ducking_applied"`
}

type masterReport struct {
	InputLUFS          float64 `json:"input_lufs"`
	OutputLUFS         float64 `json:"output_lufs"`
	TargetLUFS         float64 `json:"target_lufs"`
	GainAppliedDB      float64 `json:"gain_applied_db"`
	LimiterReductionDB float64 `json:"limiter_reduction_db"`
	TruePeakDBTP       float64 `json:"true_peak_dbtp"`
}

type stageReport struct {
	Name      string  `json:"name"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

func reportJSON(result *Result, render *renderState) ([]byte, error) {
	report := Report{
		RenderID:   result.RenderID,
		SessionID:  result.SessionID,
		Title:      render.manifest.Title,
		DurationS:  render.manifest.DurationS,
		SampleRate: render.sampleRate,
		OutputPath: result.OutputPath,
		StemPaths:  result.StemPaths,
		Mix: mixReport{
			PeakDB:         result.Mix.PeakDB,
			ClippedSamples: result.Mix.ClippedSamples,
			StemCount:      result.Mix.StemCount,
			DuckingApplied: result.Mix.DuckingApplied,
		},
		Mastering: masterReport{
			InputLUFS:          result.Mastering.InputLUFS,
			OutputLUFS:         result.Mastering.OutputLUFS,
			TargetLUFS:         result.Mastering.TargetLUFS,
			GainAppliedDB:      result.Mastering.GainAppliedDB,
			LimiterReductionDB: result.Mastering.LimiterReductionDB,
			TruePeakDBTP:       result.Mastering.TruePeakDBTP,
		},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, st := range result.Stages {
		report.Stages = append(report.Stages, stageReport{
			Name:      st.Name,
			ElapsedMs: float64(st.Elapsed) / float64(time.Millisecond),
		})
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal render report: %w", err)
	}
	return append(payload, '\n'), nil
}
