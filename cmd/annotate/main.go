// Command annotate edits and renders floorplan documents without the GUI.
package main

import (
	"fmt"
	"io"
	"os"

	"floorplan-annotator/internal/app"
	"floorplan-annotator/internal/config"
	"floorplan-annotator/internal/logging"
	"floorplan-annotator/internal/version"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configDir string
	logLevel  string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "annotate",
		Short: "Inspect, edit and render floorplan annotation documents",
		Long: `annotate works on the JSON documents saved by the Floorplan Annotator.
It can wrap a plain image into a new document, list and place markers, and
flatten a document into a PNG or JPEG with its markers and view cones.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configDir)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			opts.cfg = cfg
			opts.log = logging.Setup(cfg.Log.Level, stderr)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config", config.DefaultDir(), "directory holding annotator.json")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newImportCmd(opts),
		newInspectCmd(opts),
		newRenderCmd(opts),
		newPlaceCmd(opts),
	)
	return rootCmd
}

// loadState opens a document or image into a fresh application state.
func (o *options) loadState(path string) (*app.State, error) {
	state := app.NewState(o.cfg, o.log)
	if err := state.ImportFile(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return state, nil
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
