package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/randysalars/dreamweaving-sub000/internal/assets"
	"github.com/randysalars/dreamweaving-sub000/internal/audio"
	"github.com/randysalars/dreamweaving-sub000/internal/binaural"
	"github.com/randysalars/dreamweaving-sub000/internal/config"
	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
	"github.com/randysalars/dreamweaving-sub000/internal/mastering"
	"github.com/randysalars/dreamweaving-sub000/internal/mix"
	"github.com/randysalars/dreamweaving-sub000/internal/schedule"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
	"github.com/randysalars/dreamweaving-sub000/internal/sessionstore"
	"github.com/randysalars/dreamweaving-sub000/internal/sfx"
)

// clipPeakToleranceDB is how far above full scale a summed mix may peak
// before the render fails instead of deferring to the mastering limiter.
const clipPeakToleranceDB = 3.0

// Pipeline renders one manifest end to end: schedule resolution, binaural
// synthesis, effect rendering, stem mixing, mastering, and artifact output.
// Stages run sequentially; a failing stage aborts the render and the session
// record keeps the failure.
type Pipeline struct {
	cfg     *config.Config
	store   *sessionstore.Store
	library *assets.Library
	master  *mastering.Engine
	logger  *slog.Logger
}

// Result summarizes a completed render.
type Result struct {
	SessionID  string
	RenderID   string
	OutputPath string
	ReportPath string
	StemPaths  []string
	Mix        mix.Metrics
	Mastering  mastering.Report
	Stages     []StageTiming
	Elapsed    time.Duration
}

// StageTiming records how long one stage ran.
type StageTiming struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
}

// New wires a pipeline against the configured asset library and session
// store. The store may be nil when history tracking is not wanted.
func New(cfg *config.Config, store *sessionstore.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	library := assets.NewLibrary(cfg.Paths.AssetDir, cfg.Render.AssetRetries, logger)
	library.SetTimeout(time.Duration(cfg.Render.AssetTimeoutSeconds) * time.Second)
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		library: library,
		master:  mastering.NewEngine(logger),
		logger:  logging.WithComponent(logger, "pipeline"),
	}
}

// Render executes the full chain for one manifest file and writes the
// mastered program plus a JSON render report to the output directory.
func (p *Pipeline) Render(ctx context.Context, manifestPath string) (*Result, error) {
	started := time.Now()

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	sampleRate := m.SampleRate
	if sampleRate <= 0 {
		sampleRate = p.cfg.Render.SampleRate
	}

	result := &Result{RenderID: uuid.NewString()}
	ctx = services.WithRenderID(ctx, result.RenderID)

	if p.store != nil {
		session, err := p.store.Create(ctx, sessionTitle(m, manifestPath), manifestPath)
		if err != nil {
			return nil, fmt.Errorf("record session: %w", err)
		}
		result.SessionID = session.ID
		ctx = services.WithSessionID(ctx, session.ID)
	}

	render := &renderState{
		manifest:   m,
		sampleRate: sampleRate,
		cache:      assets.NewCache(),
	}

	runErr := p.runStages(ctx, result, render)
	if runErr != nil {
		if p.store != nil && result.SessionID != "" {
			message := services.Details(runErr).Message
			if message == "" {
				message = runErr.Error()
			}
			if err := p.store.MarkFailed(context.WithoutCancel(ctx), result.SessionID, message); err != nil {
				p.logger.Error("failed to persist session failure", logging.Error(err))
			}
		}
		return nil, runErr
	}

	result.Elapsed = time.Since(started)
	if p.store != nil && result.SessionID != "" {
		metricsJSON, err := reportJSON(result, render)
		if err != nil {
			return nil, err
		}
		if err := p.store.MarkCompleted(ctx, result.SessionID, result.OutputPath, string(metricsJSON)); err != nil {
			return nil, fmt.Errorf("record completion: %w", err)
		}
	}

	p.logger.Info("render complete",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", result.OutputPath),
		logging.Duration("elapsed", result.Elapsed),
		logging.Float64("output_lufs", result.Mastering.OutputLUFS),
	)
	return result, nil
}

// renderState is the mutable data threaded between stages.
type renderState struct {
	manifest   *manifest.Manifest
	sampleRate int
	cache      assets.Cache

	offset   schedule.OffsetFunc
	binaural *audio.Buffer
	voice    *audio.Buffer
	effects  *audio.Buffer
	ambient  *audio.Buffer
	mixed    *audio.Buffer
	mastered *audio.Buffer
}

func (p *Pipeline) runStages(ctx context.Context, result *Result, render *renderState) error {
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"schedule", func(ctx context.Context) error { return p.resolveSchedule(render) }},
		{"synthesize", func(ctx context.Context) error { return p.synthesize(ctx, render) }},
		{"voice", func(ctx context.Context) error { return p.loadVoice(ctx, render) }},
		{"effects", func(ctx context.Context) error { return p.renderEffects(ctx, render) }},
		{"ambient", func(ctx context.Context) error { return p.loadAmbient(ctx, render) }},
		{"mix", func(ctx context.Context) error { return p.mixStems(ctx, result, render) }},
		{"master", func(ctx context.Context) error { return p.masterMix(ctx, result, render) }},
		{"write", func(ctx context.Context) error { return p.writeArtifacts(result, render) }},
	}

	for _, st := range stages {
		if err := p.runStage(ctx, result, st.name, st.run); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, result *Result, name string, run func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrCancelled, name, "run stage", "render cancelled", err)
	}

	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)

	if p.store != nil && result.SessionID != "" {
		if err := p.store.SetStage(stageCtx, result.SessionID, name); err != nil {
			return fmt.Errorf("persist stage transition: %w", err)
		}
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	start := time.Now()

	if err := run(stageCtx); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_message", services.Details(err).Message),
			logging.Error(err),
		)
		return err
	}

	elapsed := time.Since(start)
	result.Stages = append(result.Stages, StageTiming{Name: name, Elapsed: elapsed})
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func (p *Pipeline) resolveSchedule(render *renderState) error {
	spelled := render.manifest.GapPolicy
	if spelled == "" {
		spelled = p.cfg.Render.GapPolicy
	}
	policy, err := schedule.GapPolicyFromString(spelled)
	if err != nil {
		return err
	}
	offset, err := schedule.Resolve(render.manifest.Schedule, render.manifest.DurationS, policy)
	if err != nil {
		return err
	}
	render.offset = offset
	return nil
}

func (p *Pipeline) synthesize(ctx context.Context, render *renderState) error {
	carrier := binaural.Carrier{
		BaseHz:     render.manifest.Carrier.BaseHz,
		SampleRate: render.sampleRate,
		DurationS:  render.manifest.DurationS,
	}
	buf, err := binaural.Synthesize(ctx, carrier, render.offset, p.cfg.Render.EdgeFadeSeconds)
	if err != nil {
		return err
	}
	render.binaural = buf
	return nil
}

func (p *Pipeline) loadVoice(ctx context.Context, render *renderState) error {
	path := strings.TrimSpace(render.manifest.Voice.Path)
	if path == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrCancelled, "voice", "load voice", "render cancelled", err)
	}

	buf, err := audio.ReadWAV(path)
	if err != nil {
		return services.Wrap(services.ErrAsset, "voice", "load voice",
			fmt.Sprintf("narration %q unreadable", path), err)
	}
	if buf.SampleRate != render.sampleRate {
		buf, err = audio.Resample(buf, render.sampleRate)
		if err != nil {
			return services.Wrap(services.ErrAsset, "voice", "resample voice", "resampling failed", err)
		}
	}
	buf, err = buf.ToStereo()
	if err != nil {
		return services.Wrap(services.ErrAsset, "voice", "widen voice", "unsupported channel layout", err)
	}
	render.voice = buf
	return nil
}

func (p *Pipeline) renderEffects(ctx context.Context, render *renderState) error {
	events := render.manifest.Events
	if len(events) == 0 {
		return nil
	}

	if script := strings.TrimSpace(render.manifest.Voice.ScriptPath); script != "" && render.voice != nil {
		text, err := os.ReadFile(script)
		if err != nil {
			return services.Wrap(services.ErrAsset, "effects", "read script",
				fmt.Sprintf("narration script %q unreadable", script), err)
		}
		events, err = sfx.AlignEvents(events, string(text),
			render.voice.Duration().Seconds(), render.manifest.DurationS)
		if err != nil {
			return err
		}
	}

	renderer := sfx.NewRenderer(p.library, p.logger)
	buf, err := renderer.Render(ctx, events, render.manifest.DurationS, render.sampleRate, render.cache)
	if err != nil {
		return err
	}
	render.effects = buf
	return nil
}

func (p *Pipeline) loadAmbient(ctx context.Context, render *renderState) error {
	ref := strings.TrimSpace(render.manifest.Stems.AmbientAsset)
	if ref == "" {
		return nil
	}
	buf, err := p.library.Resolve(ctx, ref, render.sampleRate, render.cache)
	if err != nil {
		return err
	}
	frames := int(render.manifest.DurationS * float64(render.sampleRate))
	bed := loopToLength(buf, frames)
	audio.ApplyFade(bed, p.cfg.Render.EdgeFadeSeconds, p.cfg.Render.EdgeFadeSeconds)
	render.ambient = bed
	return nil
}

func (p *Pipeline) mixStems(ctx context.Context, result *Result, render *renderState) error {
	stems := []mix.Stem{
		{Role: manifest.RoleBinaural, Buffer: render.binaural, GainDB: render.manifest.Stems.BinauralDB},
	}
	if render.voice != nil {
		stems = append(stems, mix.Stem{
			Role: manifest.RoleVoice, Buffer: render.voice, GainDB: render.manifest.Stems.VoiceDB,
		})
	}
	if render.effects != nil {
		stems = append(stems, mix.Stem{
			Role: manifest.RoleEffects, Buffer: render.effects,
			GainDB: render.manifest.Stems.EffectsDB, DuckByVoice: render.manifest.Stems.DuckEffects,
		})
	}
	if render.ambient != nil {
		stems = append(stems, mix.Stem{
			Role: manifest.RoleAmbient, Buffer: render.ambient,
			GainDB: render.manifest.Stems.AmbientDB, DuckByVoice: render.manifest.Stems.DuckAmbient,
		})
	}

	if p.cfg.Render.KeepStems {
		paths, err := p.persistStems(result.RenderID, stems)
		if err != nil {
			return err
		}
		result.StemPaths = paths
	}

	duck := mix.DuckConfig{
		Enabled:     p.cfg.Ducking.Enabled,
		DepthDB:     p.cfg.Ducking.DepthDB,
		AttackMs:    p.cfg.Ducking.AttackMs,
		ReleaseMs:   p.cfg.Ducking.ReleaseMs,
		WindowMs:    p.cfg.Ducking.WindowMs,
		ThresholdDB: p.cfg.Ducking.ThresholdDB,
	}
	mixed, metrics, err := mix.Mix(stems, duck)
	if err != nil {
		return err
	}
	if metrics.PeakDB > clipPeakToleranceDB {
		return services.WrapMeasured(services.ErrClipping, "mix", "verify headroom",
			"mix peak leaves the limiter no usable headroom",
			metrics.PeakDB, clipPeakToleranceDB)
	}
	if metrics.ClippedSamples > 0 {
		logging.WithContext(ctx, p.logger).Warn("mix exceeds full scale",
			logging.Int("clipped_samples", metrics.ClippedSamples),
			logging.Float64("peak_db", metrics.PeakDB),
		)
	}
	render.mixed = mixed
	result.Mix = metrics
	return nil
}

func (p *Pipeline) masterMix(ctx context.Context, result *Result, render *renderState) error {
	mastered, report, err := p.master.Master(ctx, render.mixed, render.manifest.Mastering)
	if err != nil {
		return err
	}
	render.mastered = mastered
	result.Mastering = report
	return nil
}

func (p *Pipeline) writeArtifacts(result *Result, render *renderState) error {
	base := artifactName(render.manifest.Title)
	outputPath := filepath.Join(p.cfg.Paths.OutputDir, base+".wav")
	if err := audio.WriteWAV(outputPath, render.mastered); err != nil {
		return services.Wrap(services.ErrTransient, "write", "write program",
			fmt.Sprintf("writing %q failed", outputPath), err)
	}
	result.OutputPath = outputPath

	reportPath := filepath.Join(p.cfg.Paths.OutputDir, base+".json")
	payload, err := reportJSON(result, render)
	if err != nil {
		return err
	}
	if err := audio.WriteFileAtomic(reportPath, func(f *os.File) error {
		_, err := f.Write(payload)
		return err
	}); err != nil {
		return services.Wrap(services.ErrTransient, "write", "write report",
			fmt.Sprintf("writing %q failed", reportPath), err)
	}
	result.ReportPath = reportPath
	return nil
}

func (p *Pipeline) persistStems(renderID string, stems []mix.Stem) ([]string, error) {
	dir := filepath.Join(p.cfg.Paths.WorkDir, renderID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create stem directory: %w", err)
	}
	paths := make([]string, 0, len(stems))
	for _, stem := range stems {
		path := filepath.Join(dir, string(stem.Role)+".wav")
		if err := audio.WriteWAV(path, stem.Buffer); err != nil {
			return nil, services.Wrap(services.ErrTransient, "mix", "persist stem",
				fmt.Sprintf("writing stem %q failed", path), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// loopToLength repeats the source until it covers the requested frame count,
// truncating the final repetition.
func loopToLength(src *audio.Buffer, frames int) *audio.Buffer {
	out := audio.NewBuffer(src.SampleRate, src.Channels(), frames)
	srcFrames := src.Frames()
	if srcFrames == 0 {
		return out
	}
	for ch := range out.Samples {
		for written := 0; written < frames; written += srcFrames {
			copy(out.Samples[ch][written:], src.Samples[ch])
		}
	}
	return out
}

// sessionTitle prefers the manifest title and otherwise derives a
// presentable one from the manifest filename.
func sessionTitle(m *manifest.Manifest, manifestPath string) string {
	if title := strings.TrimSpace(m.Title); title != "" {
		return title
	}
	base := filepath.Base(manifestPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Session"
	}
	return cases.Title(language.Und).String(title)
}

// artifactName turns a session title into a filesystem-safe base name.
func artifactName(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "session"
	}
	return name
}
