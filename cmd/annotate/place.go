package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"floorplan-annotator/pkg/geometry"

	"github.com/spf13/cobra"
)

func newPlaceCmd(opts *options) *cobra.Command {
	var (
		kind   string
		x, y   float64
		angle  float64
		output string
	)

	cmd := &cobra.Command{
		Use:   "place [document]",
		Short: "Add a marker to a document",
		Long: `Add a marker at normalized coordinates (0,0 is the top-left corner of
the image, 1,1 the bottom-right). Directional kinds face up unless --angle
is given, in degrees clockwise from up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			state, err := opts.loadState(input)
			if err != nil {
				return err
			}

			m, err := state.Store.Add(kind, geometry.NewPoint2D(x, y))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("angle") {
				if err := state.Store.UpdateAngle(m.ID, angle); err != nil {
					return err
				}
			}

			if output == "" {
				if !strings.EqualFold(filepath.Ext(input), ".json") {
					return fmt.Errorf("%s is not a document; pass -o", input)
				}
				output = input
			}
			if err := state.SaveDocument(output); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "marker kind (camera, projector, speaker, doorlock, door, tv, rack)")
	cmd.Flags().Float64Var(&x, "x", 0, "normalized x in [0,1]")
	cmd.Flags().Float64Var(&y, "y", 0, "normalized y in [0,1]")
	cmd.Flags().Float64Var(&angle, "angle", 0, "facing angle in degrees, directional kinds only")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output document (default: overwrite input)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}
