package main

import (
	"fmt"

	"floorplan-annotator/pkg/geometry"

	"github.com/spf13/cobra"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		output       string
		displayWidth float64
	)

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Flatten a document into a PNG or JPEG",
		Long: `Render the background with every marker and view cone at the image's
native resolution. Icon and cone sizes are given in on-screen pixels;
--display-width is the width the image was shown at, so that markers keep
their on-screen proportions. By default the image is treated as shown at
native size. Without -o the image is written to export.dir, or next to the
document when that is unset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			state, err := opts.loadState(input)
			if err != nil {
				return err
			}
			if output == "" {
				output = opts.cfg.Export.OutputPath(input)
			}

			bg := state.Background()
			display := bg.Size()
			if displayWidth > 0 {
				display = geometry.NewSize(displayWidth, displayWidth*display.Height/display.Width)
			}

			var renderErr error
			if err := state.ExportRasterFile(output, display, func(err error) { renderErr = err }); err != nil {
				return err
			}
			state.WaitExports()
			if renderErr != nil {
				return renderErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d markers to %s\n", state.Store.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output image (.png or .jpg)")
	cmd.Flags().Float64Var(&displayWidth, "display-width", 0, "on-screen width the markers were placed at")
	return cmd
}
