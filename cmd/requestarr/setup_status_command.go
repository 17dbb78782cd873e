package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"requestarr/internal/journal"
)

type runSummary struct {
	RunID           string         `json:"run_id"`
	Step            string         `json:"step"`
	MediaServerType string         `json:"media_server_type"`
	Committed       bool           `json:"committed"`
	LastError       string         `json:"last_error,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Events          []eventSummary `json:"events,omitempty"`
}

type eventSummary struct {
	Name      string    `json:"name"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Committed bool      `json:"committed"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

func newSetupStatusCommand(ctx *commandContext) *cobra.Command {
	var showEvents bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show progress of the last setup run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg, logger)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			run, err := store.LastRun(cmd.Context())
			if err != nil {
				return fmt.Errorf("load last run: %w", err)
			}
			out := cmd.OutOrStdout()
			if run == nil {
				if asJSON {
					return writeJSON(cmd, nil)
				}
				fmt.Fprintln(out, "No setup runs recorded")
				return nil
			}

			var events []journal.Event
			if showEvents || asJSON {
				if events, err = store.Events(cmd.Context(), run.ID); err != nil {
					return fmt.Errorf("load events: %w", err)
				}
			}
			if asJSON {
				return writeJSON(cmd, summarizeRun(run, events))
			}

			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Setup "+run.ID, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderIndicators(run.State(), colorize))
			fmt.Fprintln(out, renderStatusLine("Media server", statusInfo, run.MediaServerType.String(), colorize))
			fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.DateTime), colorize))
			switch {
			case run.Committed:
				fmt.Fprintln(out, renderStatusLine("Finalized", statusOK, yesNo(true), colorize))
			case run.LastError != "":
				fmt.Fprintln(out, renderStatusLine("Last error", statusError, run.LastError, colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("Finalized", statusWarn, yesNo(false), colorize))
			}

			if showEvents {
				rows := make([][]string, 0, len(events))
				for _, ev := range events {
					rows = append(rows, []string{
						ev.CreatedAt.Local().Format(time.TimeOnly),
						ev.Name,
						ev.From.String(),
						ev.To.String(),
						string(ev.Outcome),
						ev.Error,
					})
				}
				fmt.Fprintln(out, renderTable(eventColumns, rows))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showEvents, "events", false, "List recorded transitions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSetupResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove all recorded setup runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg, nil)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d setup run(s)\n", removed)
			return nil
		},
	}
}

func summarizeRun(run *journal.Run, events []journal.Event) runSummary {
	summary := runSummary{
		RunID:           run.ID,
		Step:            run.Step.String(),
		MediaServerType: run.MediaServerType.String(),
		Committed:       run.Committed,
		LastError:       run.LastError,
		StartedAt:       run.StartedAt,
		UpdatedAt:       run.UpdatedAt,
	}
	for _, ev := range events {
		summary.Events = append(summary.Events, eventSummary{
			Name:      ev.Name,
			From:      ev.From.String(),
			To:        ev.To.String(),
			Committed: ev.Committed,
			Outcome:   string(ev.Outcome),
			Error:     ev.Error,
			At:        ev.CreatedAt,
		})
	}
	return summary
}
