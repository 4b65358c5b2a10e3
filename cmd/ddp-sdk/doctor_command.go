package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ddpsdk/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the engine, licence key, and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{"config": ctx.configPath, "checks": results}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				color := useColor(out)
				fmt.Fprintln(out, "DDP SDK doctor")
				configDetail := ctx.configPath
				configState := checkNote
				if !ctx.configSeen {
					configDetail += " (not found, using defaults)"
					configState = checkWarn
				}
				fmt.Fprintln(out, formatCheck("Config", configState, configDetail, color))
				for _, r := range results {
					state := checkPass
					if !r.Passed {
						state = checkFail
					}
					fmt.Fprintln(out, formatCheck(r.Name, state, r.Detail, color))
				}
			}

			if !preflight.Passed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
