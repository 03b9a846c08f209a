package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/randysalars/dreamweaving-sub000/internal/config"
	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/pipeline"
	"github.com/randysalars/dreamweaving-sub000/internal/sessionstore"
)

func newRenderCommand(cmdCtx *commandContext) *cobra.Command {
	var keepStems bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "render <manifest>",
		Short: "Render a session manifest to a mastered WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if keepStems {
				cfg.Render.KeepStems = true
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			lock := sessionstore.NewRenderLock(cfg.Paths.StateDir)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			var store *sessionstore.Store
			if !noHistory {
				store, err = sessionstore.Open(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
			}

			result, err := pipeline.New(cfg, store, logger).Render(ctx, args[0])
			if err != nil {
				return err
			}

			printRenderSummary(cmd, cfg, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepStems, "keep-stems", false, "Write per-layer stems to the work directory")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the render in the session database")
	return cmd
}

func printRenderSummary(cmd *cobra.Command, cfg *config.Config, result *pipeline.Result) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Output", result.OutputPath},
		{"Report", result.ReportPath},
		{"Input loudness", formatLUFS(result.Mastering.InputLUFS)},
		{"Output loudness", formatLUFS(result.Mastering.OutputLUFS)},
		{"True peak", fmt.Sprintf("%.2f dBTP", result.Mastering.TruePeakDBTP)},
		{"Mix peak", fmt.Sprintf("%.2f dB", result.Mix.PeakDB)},
		{"Stems mixed", strconv.Itoa(result.Mix.StemCount)},
		{"Elapsed", result.Elapsed.Round(time.Millisecond).String()},
	}
	if result.SessionID != "" {
		rows = append([][]string{{"Session", result.SessionID}}, rows...)
	}
	if len(result.StemPaths) > 0 {
		rows = append(rows, []string{"Stem directory", cfg.Paths.WorkDir + "/" + result.RenderID})
	}

	fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
}

func formatLUFS(value float64) string {
	return fmt.Sprintf("%.2f LUFS", value)
}
