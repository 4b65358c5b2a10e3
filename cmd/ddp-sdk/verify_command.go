package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ddpsdk/internal/ddp"
	"ddpsdk/internal/services"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <output>",
		Short: "Check a process output directory against its metadata.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := filepath.Clean(args[0])
			metadataPath := filepath.Join(output, ddp.MetadataFileName)
			doc, err := ddp.ReadDocument(metadataPath)
			if errors.Is(err, os.ErrNotExist) {
				return services.Wrap(services.ErrNotFound, ddp.ModeProcess.String(), "verify",
					fmt.Sprintf("no %s in %s", ddp.MetadataFileName, output), err)
			}
			if err != nil {
				return &ddp.ContractError{Mode: ddp.ModeProcess, Path: metadataPath, Err: err}
			}
			files, verifyErr := ddp.VerifyOutput(output, doc)

			if ctx.JSONMode() {
				rows := make([]map[string]any, 0, len(files))
				for _, f := range files {
					row := map[string]any{"track": f.Number, "path": f.Path, "size_bytes": f.Size, "ok": f.OK()}
					if f.Err != nil {
						row["error"] = f.Err.Error()
					}
					rows = append(rows, row)
				}
				if err := writeJSON(cmd, map[string]any{"output": output, "tracks": rows, "ok": verifyErr == nil}); err != nil {
					return err
				}
				return verifyErr
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderVerifyTable(files))
			fmt.Fprintln(out)
			if verifyErr == nil {
				fmt.Fprintf(out, "All %d tracks verified\n", len(files))
			}
			return verifyErr
		},
	}
}
