package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJSONCommand(ctx *commandContext) *cobra.Command {
	var licenseKey string
	var destination string
	var raw bool

	cmd := &cobra.Command{
		Use:   "json <input>",
		Short: "Extract the metadata document without decoding audio",
		Args:  cobra.ExactArgs(1),
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

			doc, err := client.ExtractMetadata(cmd.Context(), args[0], key, destination)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case raw:
				data := doc.RawJSON()
				if _, err := out.Write(data); err != nil {
					return err
				}
				if len(data) > 0 && data[len(data)-1] != '\n' {
					fmt.Fprintln(out)
				}
				return nil
			case ctx.JSONMode():
				return writeJSON(cmd, doc)
			}
			fmt.Fprint(out, renderTrackTable(doc))
			fmt.Fprintln(out)
			if destination != "" {
				fmt.Fprintf(out, "Wrote metadata for %d tracks to %s\n", doc.TrackCount(), destination)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&licenseKey, "license-key", "", "Licence key (defaults to the configured key)")
	cmd.Flags().StringVarP(&destination, "output", "o", "", "Have the engine write the document to this file")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the document exactly as the engine produced it")
	return cmd
}
