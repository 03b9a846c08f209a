package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randysalars/dreamweaving-sub000/internal/config"
	"github.com/randysalars/dreamweaving-sub000/internal/sessionstore"
)

func newSessionsCommand(cmdCtx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect render history",
	}

	sessionsCmd.AddCommand(newSessionsListCommand(cmdCtx))
	sessionsCmd.AddCommand(newSessionsShowCommand(cmdCtx))
	sessionsCmd.AddCommand(newSessionsClearCommand(cmdCtx))
	sessionsCmd.AddCommand(newSessionsRemoveCommand(cmdCtx))

	return sessionsCmd
}

func newSessionsListCommand(cmdCtx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(_ *config.Config, store *sessionstore.Store) error {
				var statuses []sessionstore.Status
				if strings.TrimSpace(statusFilter) != "" {
					status, ok := sessionstore.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					statuses = append(statuses, status)
				}

				sessions, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions recorded")
					return nil
				}

				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					detail := s.Stage
					if s.Status == sessionstore.StatusFailed {
						detail = truncate(s.ErrorMessage, 48)
					}
					rows = append(rows, []string{
						shortID(s.ID),
						s.Title,
						string(s.Status),
						detail,
						s.CreatedAt,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Title", "Status", "Detail", "Created"},
					rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show sessions with this status")
	return cmd
}

func newSessionsShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(_ *config.Config, store *sessionstore.Store) error {
				session, err := findSession(cmd, store, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"ID", session.ID},
					{"Title", session.Title},
					{"Manifest", session.ManifestPath},
					{"Status", string(session.Status)},
					{"Stage", session.Stage},
					{"Output", session.OutputPath},
					{"Error", session.ErrorMessage},
					{"Created", session.CreatedAt},
					{"Updated", session.UpdatedAt},
				}
				fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
				if session.MetricsJSON != "" {
					fmt.Fprintln(out, session.MetricsJSON)
				}
				return nil
			})
		},
	}
}

func newSessionsClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete completed sessions from the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(_ *config.Config, store *sessionstore.Store) error {
				removed, err := store.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed session(s)\n", removed)
				return nil
			})
		},
	}
}

func newSessionsRemoveCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one session regardless of status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(_ *config.Config, store *sessionstore.Store) error {
				session, err := findSession(cmd, store, args[0])
				if err != nil {
					return err
				}
				ok, err := store.Remove(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("session %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", session.ID)
				return nil
			})
		},
	}
}

// findSession resolves a full or prefix session id.
func findSession(cmd *cobra.Command, store *sessionstore.Store, id string) (*sessionstore.Session, error) {
	session, err := store.GetByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	sessions, err := store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	var match *sessionstore.Session
	for _, s := range sessions {
		if strings.HasPrefix(s.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("session id %q is ambiguous", id)
			}
			match = s
		}
	}
	if match == nil {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
