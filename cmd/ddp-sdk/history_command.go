package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ddpsdk/internal/ddp"
	"ddpsdk/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded engine invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "History is disabled")
				return nil
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, historyJSON(runs))
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No invocations recorded")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderHistoryTable(runs, time.Now()))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of invocations to show")

	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded invocations older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "History is disabled")
				return nil
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d invocations\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold")
	return cmd
}

func renderHistoryTable(runs []ddp.RunRecord, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		result := "ok"
		if run.Error != "" {
			result = firstLine(run.Error)
		}
		target := run.Output
		if target == "" {
			target = run.Destination
		}
		rows = append(rows, []string{
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.Mode.String(),
			run.Input,
			target,
			strconv.Itoa(run.ExitCode),
			strconv.Itoa(run.TrackCount),
			run.Duration.Round(time.Millisecond).String(),
			result,
		})
	}
	return renderTable([]column{
		{title: "Started"},
		{title: "Mode"},
		{title: "Input"},
		{title: "Output"},
		{title: "Exit", numeric: true},
		{title: "Tracks", numeric: true},
		{title: "Duration", numeric: true},
		{title: "Result"},
	}, rows)
}

func historyJSON(runs []ddp.RunRecord) []map[string]any {
	out := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		out = append(out, map[string]any{
			"id":          run.ID,
			"mode":        run.Mode.String(),
			"binary":      run.Binary,
			"input":       run.Input,
			"output":      run.Output,
			"destination": run.Destination,
			"exit_code":   run.ExitCode,
			"tracks":      run.TrackCount,
			"error":       run.Error,
			"started_at":  run.StartedAt.Format(time.RFC3339),
			"duration_ms": run.Duration.Milliseconds(),
		})
	}
	return out
}
