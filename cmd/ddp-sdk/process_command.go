package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ddpsdk/internal/ddp"
	"ddpsdk/internal/services"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var licenseKey string
	var verify bool

	cmd := &cobra.Command{
		Use:   "process <input> <output>",
		Short: "Decode a DDP directory or ZIP into metadata.json and WAV tracks",
		Long: `Run full processing on a DDP fileset.

<input> is a DDP directory or archive and is passed to the engine untouched.
<output> receives metadata.json and one track_NN.wav per track.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := ctx.licenseKey(licenseKey)
			if err != nil {
				return err
			}
			client, closeFn, err := ctx.newClient(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			doc, err := client.Process(cmd.Context(), args[0], args[1], key)
			if err != nil {
				return err
			}
			return reportProcessed(cmd, ctx, args[1], doc, verify)
		},
	}

	cmd.Flags().StringVar(&licenseKey, "license-key", "", "Licence key (defaults to the configured key)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check every track file after processing")
	return cmd
}

func newPartsCommand(ctx *commandContext) *cobra.Command {
	var licenseKey string
	var verify bool

	cmd := &cobra.Command{
		Use:   "parts <dir> <output>",
		Short: "Load DDP parts from a directory into memory and process them",
		Long: `Read the DDP part files (DDPID, PQDESCR, SD.SD, ...) found in <dir>, stage
them into a private temporary directory, and run full processing. Names are
matched case-insensitively and unrelated files are ignored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts, err := ddp.LoadPartSet(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, ddp.ModeProcess.String(), "load parts", "", err)
			}
			key, err := ctx.licenseKey(licenseKey)
			if err != nil {
				return err
			}
			client, closeFn, err := ctx.newClient(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			doc, err := client.ProcessParts(cmd.Context(), parts, args[1], key)
			if err != nil {
				return err
			}
			return reportProcessed(cmd, ctx, args[1], doc, verify)
		},
	}

	cmd.Flags().StringVar(&licenseKey, "license-key", "", "Licence key (defaults to the configured key)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check every track file after processing")
	return cmd
}

func reportProcessed(cmd *cobra.Command, ctx *commandContext, output string, doc *ddp.Document, verify bool) error {
	var (
		files     []ddp.TrackFile
		verifyErr error
	)
	if verify {
		files, verifyErr = ddp.VerifyOutput(filepath.Clean(output), doc)
	}

	if ctx.JSONMode() {
		payload := map[string]any{
			"output":   output,
			"metadata": doc,
		}
		if verify {
			payload["verified"] = verifyErr == nil
		}
		if err := writeJSON(cmd, payload); err != nil {
			return err
		}
		return verifyErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderTrackTable(doc))
	fmt.Fprintf(out, "\nWrote %d tracks to %s\n", doc.TrackCount(), output)
	if verify {
		fmt.Fprint(out, renderVerifyTable(files))
		fmt.Fprintln(out)
	}
	return verifyErr
}
