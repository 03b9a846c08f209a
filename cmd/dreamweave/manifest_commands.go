package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randysalars/dreamweaving-sub000/internal/manifest"
)

func newManifestCommand(cmdCtx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:         "manifest",
		Short:       "Inspect session manifests",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	manifestCmd.AddCommand(newManifestValidateCommand())
	manifestCmd.AddCommand(newManifestShowCommand())

	return manifestCmd
}

func newManifestValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Check a manifest without rendering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest valid: %s (%.0f s, %d schedule sections, %d events)\n",
				args[0], m.DurationS, len(m.Schedule), len(m.Events))
			return nil
		},
	}
}

func newManifestShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <manifest>",
		Short: "Print the schedule and events of a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", summaryLine(m))

			scheduleRows := make([][]string, 0, len(m.Schedule))
			for _, s := range m.Schedule {
				offset := fmt.Sprintf("%.2f Hz", s.OffsetHz)
				if s.EndOffset() != s.OffsetHz {
					offset = fmt.Sprintf("%.2f -> %.2f Hz", s.OffsetHz, s.EndOffset())
				}
				modulation := ""
				if s.Modulation != nil {
					modulation = fmt.Sprintf("+/- %.2f Hz @ %.2f Hz", s.Modulation.DepthHz, s.Modulation.RateHz)
				}
				scheduleRows = append(scheduleRows, []string{
					fmt.Sprintf("%.0f - %.0f s", s.StartS, s.EndS),
					string(s.Transition),
					offset,
					modulation,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Window", "Transition", "Beat offset", "Modulation"},
				scheduleRows, nil))

			if len(m.Events) == 0 {
				return nil
			}
			eventRows := make([][]string, 0, len(m.Events))
			for _, e := range m.Events {
				when := fmt.Sprintf("%.1f s", e.TimeS)
				if e.Marker != "" {
					when = "marker " + strconv.Quote(truncate(e.Marker, 24))
				}
				what := string(e.Kind)
				if e.Kind == manifest.EventTonalBurst {
					what = fmt.Sprintf("%s %.0f Hz", e.Kind, e.FreqHz)
				} else if e.Asset != "" {
					what = fmt.Sprintf("%s %s", e.Kind, e.Asset)
				}
				eventRows = append(eventRows, []string{
					when,
					what,
					fmt.Sprintf("%.1f s", e.DurationS),
					fmt.Sprintf("%.1f dB", e.GainDB),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"When", "Event", "Duration", "Gain"},
				eventRows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
			return nil
		},
	}
}

func summaryLine(m *manifest.Manifest) string {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s: %.0f s, carrier %.1f Hz, target %.1f LUFS",
		title, m.DurationS, m.Carrier.BaseHz, m.Mastering.TargetLUFS)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
