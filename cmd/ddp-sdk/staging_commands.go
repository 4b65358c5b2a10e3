package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ddpsdk/internal/services"
	"ddpsdk/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect ddp-in-* staging directories left by interrupted runs",
	}
	stagingCmd.AddCommand(newStagingListCommand(ctx), newStagingCleanCommand(ctx))
	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := staging.Root(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(root)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			var total int64
			for _, d := range dirs {
				total += d.Size
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, struct {
					Root        string            `json:"staging_root"`
					Directories []staging.DirInfo `json:"directories"`
					TotalBytes  int64             `json:"total_size_bytes"`
				}{root, append([]staging.DirInfo{}, dirs...), total})
			}
			printStagingList(cmd.OutOrStdout(), root, dirs, total, time.Now())
			return nil
		},
	}
}

func printStagingList(out io.Writer, root string, dirs []staging.DirInfo, total int64, now time.Time) {
	if len(dirs) == 0 {
		fmt.Fprintf(out, "No staging directories under %s\n", root)
		return
	}
	rows := make([][]string, len(dirs))
	for i, d := range dirs {
		rows[i] = []string{
			d.Name,
			humanize.RelTime(d.ModTime, now, "ago", "from now"),
			strconv.Itoa(d.Files),
			humanize.IBytes(uint64(d.Size)), //nolint:gosec
		}
	}
	fmt.Fprintf(out, "Staging root: %s\n\n", root)
	fmt.Fprint(out, renderTable([]column{
		{title: "Directory"},
		{title: "Modified", numeric: true},
		{title: "Files", numeric: true},
		{title: "Size", numeric: true},
	}, rows))
	fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.IBytes(uint64(total))) //nolint:gosec
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staging directories older than --max-age",
		Long: `Remove ddp-in-* directories under the staging root that are older than
--max-age. Staging directories are always removed when a call returns, so any
that remain belong to a process that was killed. Idle output lock files under
ddp-locks are pruned as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxAge < staging.MinMaxAge {
				return services.Wrap(services.ErrValidation, "", "staging clean",
					fmt.Sprintf("--max-age must be at least %s", staging.MinMaxAge), nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			result := staging.CleanStale(cmd.Context(), staging.Root(cfg.Paths.StagingDir), maxAge, logger)

			failures := make([]string, len(result.Errors))
			for i, e := range result.Errors {
				failures[i] = fmt.Sprintf("%s: %v", e.Path, e.Error)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"removed":       result.Removed,
					"locks_removed": result.LocksRemoved,
					"errors":        failures,
				})
			}

			out := cmd.OutOrStdout()
			switch {
			case len(result.Removed) == 0 && len(failures) == 0:
				fmt.Fprintln(out, "No stale staging directories to clean")
			case len(failures) == 0:
				fmt.Fprintf(out, "Removed %d staging directories\n", len(result.Removed))
			default:
				fmt.Fprintf(out, "Removed %d staging directories, %d errors\n", len(result.Removed), len(failures))
				for _, f := range failures {
					fmt.Fprintf(out, "  Error: %s\n", f)
				}
			}
			if n := len(result.LocksRemoved); n > 0 {
				fmt.Fprintf(out, "Pruned %d idle output locks\n", n)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", staging.DefaultMaxAge, "Only remove directories older than this")
	return cmd
}
