package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ddpsdk/internal/logging"
	"ddpsdk/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow     bool
		lines      int
		invocation string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the ddp-sdk log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)

			offset := int64(-1)
			if lines <= 0 {
				offset = 0
			}
			opts := logs.TailOptions{Offset: offset, Limit: lines, Match: invocation}
			printed := false
			out := cmd.OutOrStdout()

			for {
				result, err := logs.Tail(cmd.Context(), path, opts)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("tail logs: %w", err)
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
					printed = true
				}
				if !follow {
					if !printed {
						fmt.Fprintln(out, "No log entries available")
					}
					return nil
				}
				opts = logs.TailOptions{Offset: result.Offset, Match: invocation, Wait: time.Second}
				if cmd.Context().Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&invocation, "invocation", "", "Only show lines for this invocation ID")
	return cmd
}
