package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newImportCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "import [image|document]",
		Short: "Wrap an image into a new document, or rewrite an existing one",
		Long: `Import an image or an annotation document and write it back out as a
document. An image becomes a document with no markers; a document is
validated and rewritten in the current format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".json"
				if output == input {
					return fmt.Errorf("refusing to overwrite %s; pass -o", input)
				}
			}

			state, err := opts.loadState(input)
			if err != nil {
				return err
			}
			if err := state.SaveDocument(output); err != nil {
				return err
			}
			bg := state.Background()
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d %s, %d markers)\n",
				output, bg.Width(), bg.Height(), bg.Mime, state.Store.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output document (default: input name with .json)")
	return cmd
}
