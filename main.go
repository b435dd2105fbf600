// Package main provides the entry point for the Floorplan Annotator
// application.
package main

import (
	"flag"
	"os"

	"floorplan-annotator/internal/app"
	"floorplan-annotator/internal/config"
	"floorplan-annotator/internal/logging"
	"floorplan-annotator/internal/version"
	"floorplan-annotator/ui/mainwindow"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "com.floorplan.annotator"

func main() {
	configDir := flag.String("config", config.DefaultDir(), "directory holding annotator.json")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		logging.Setup("info", os.Stderr).Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.Setup(cfg.Log.Level, os.Stderr)
	log.Info().Str("version", version.String()).Str("config", *configDir).Msg("starting")

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.AnnotatorTheme{})

	state := app.NewState(cfg, log)
	win := mainwindow.New(a, state, log)

	// Handle command line arguments
	if flag.NArg() > 0 {
		win.OpenPath(flag.Arg(0))
	} else {
		win.RestoreLastDocument()
	}

	win.ShowAndRun()
	state.WaitExports()
}
