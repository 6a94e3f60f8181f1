package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"untethered/internal/history"
	"untethered/internal/services"
)

type historyEntry struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Device    string    `json:"device"`
	Zone      int       `json:"zone"`
	Chart     string    `json:"chart"`
	Episode   string    `json:"episode"`
	Patch     *int      `json:"patch,omitempty"`
	Target    *int      `json:"target_position,omitempty"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	Duration  int64     `json:"duration_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded play and patch events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "history", "open", "", err)
			}
			defer store.Close()

			var events []history.Event
			if run := strings.TrimSpace(runID); run != "" {
				events, err = store.ByRun(cmd.Context(), run)
			} else {
				events, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			if asJSON {
				entries := make([]historyEntry, 0, len(events))
				for _, event := range events {
					entries = append(entries, toHistoryEntry(event))
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events recorded")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, event := range events {
				rows = append(rows, historyRow(event))
			}
			fmt.Fprintln(out, renderTable(historyColumns, rows, shouldColorize(out)))

			stats, err := store.Stats(cmd.Context())
			if err == nil {
				fmt.Fprintf(out, "Total: %d ok, %d failed\n", stats[history.OutcomeOK], stats[history.OutcomeFailed])
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent events to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show only events from this run id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete events older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return services.Wrap(services.ErrValidation, "history", "prune", "--older-than must be positive", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "history", "open", "", err)
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("prune history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d event(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove events recorded before this age")
	return cmd
}

func toHistoryEntry(event history.Event) historyEntry {
	entry := historyEntry{
		ID:        event.ID,
		RunID:     event.RunID,
		Kind:      string(event.Kind),
		Device:    event.Device,
		Zone:      event.Zone,
		Chart:     event.Chart,
		Episode:   event.Episode,
		Outcome:   string(event.Outcome),
		Error:     event.ErrorMessage,
		Duration:  event.Duration.Milliseconds(),
		CreatedAt: event.CreatedAt,
	}
	if event.Kind == history.KindPatch {
		patch, target := event.PatchIndex, event.TargetPosition
		entry.Patch = &patch
		entry.Target = &target
	}
	return entry
}

func historyRow(event history.Event) []string {
	patch := "-"
	if event.Kind == history.KindPatch {
		patch = strconv.Itoa(event.PatchIndex)
	}
	outcome := string(event.Outcome)
	if event.ErrorMessage != "" {
		outcome += ": " + event.ErrorMessage
	}
	return []string{
		strconv.FormatInt(event.ID, 10),
		event.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		shortRunID(event.RunID),
		event.Device,
		strconv.Itoa(event.Zone),
		string(event.Kind),
		patch,
		outcome,
		event.Duration.Round(time.Millisecond).String(),
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
