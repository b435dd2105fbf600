package main

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *options) *cobra.Command {
	var copyJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [document]",
		Short: "List the markers in a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := opts.loadState(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			bg := state.Background()
			fmt.Fprintf(out, "Document: %s\n", args[0])
			fmt.Fprintf(out, "Image: %dx%d %s\n", bg.Width(), bg.Height(), bg.Mime)
			fmt.Fprintf(out, "Markers: %d\n\n", state.Store.Len())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tX\tY\tANGLE")
			for _, m := range state.Store.Markers() {
				angle := "-"
				if deg, ok := m.FacingAngle(); ok {
					angle = fmt.Sprintf("%.1f", deg)
				}
				fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%s\n", m.ID, m.KindID, m.Position.X, m.Position.Y, angle)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if copyJSON {
				var buf bytes.Buffer
				if err := state.ExportDocument(&buf); err != nil {
					return err
				}
				if err := clipboard.WriteAll(buf.String()); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				fmt.Fprintln(out, "\nDocument JSON copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyJSON, "copy", false, "copy the document JSON to the clipboard")
	return cmd
}
