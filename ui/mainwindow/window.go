// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"strings"

	"floorplan-annotator/internal/app"
	"floorplan-annotator/internal/gesture"
	"floorplan-annotator/internal/version"
	"floorplan-annotator/ui/canvas"
	"floorplan-annotator/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

const appTitle = "Floorplan Annotator"

const (
	prefKeyLastDir      = "lastDirectory"
	prefKeyLastDocument = "lastDocument"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	stage     *canvas.Stage
	palette   *panels.Palette
	statusBar *widget.Label
	zoomLabel *widget.Label
	watcher   *app.DocumentWatcher
	log       zerolog.Logger
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, log zerolog.Logger) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		log:    log.With().Str("component", "window").Logger(),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupWatcher()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.stage = canvas.NewStage(mw.state, mw.log)
	mw.palette = panels.NewPalette(mw.state)

	mw.statusBar = widget.NewLabel("Open a floorplan image to begin")
	mw.zoomLabel = widget.NewLabel("100%")

	mw.stage.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})
	mw.stage.OnResult(mw.onGesture)

	toolbar := mw.createToolbar()

	// Stage area with toolbar on top
	stageArea := container.NewBorder(
		toolbar,  // top
		nil,      // bottom
		nil,      // left
		nil,      // right
		mw.stage, // center
	)

	split := container.NewHSplit(
		mw.palette.Container(),
		stageArea,
	)
	split.SetOffset(0.18)

	statusArea := container.NewBorder(nil, nil, nil, mw.zoomLabel, mw.statusBar)

	// Main container with status bar at bottom
	content := container.NewBorder(
		nil,                             // top
		container.NewPadded(statusArea), // bottom
		nil,                             // left
		nil,                             // right
		split,                           // center
	)

	mw.SetContent(content)
	mw.Canvas().SetOnTypedKey(mw.onKey)
	mw.Resize(fyne.NewSize(1200, 800))
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", func() {
		mw.stage.ZoomOut()
	})
	zoomInBtn := widget.NewButton("+", func() {
		mw.stage.ZoomIn()
	})
	fitBtn := widget.NewButton("Fit", func() {
		mw.stage.ResetView()
	})

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open...", mw.onOpen),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", mw.onSave),
		fyne.NewMenuItem("Save As...", mw.onSaveAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Image...", mw.onExportImage),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Clear Selection", mw.onClearSelection),
		fyne.NewMenuItem("Remove All Markers", mw.onClearMarkers),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.stage.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.stage.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.stage.ResetView),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events. Raster exports
// finish on their own goroutine.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDocumentLoaded, func(data interface{}) {
		if name, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + name)
			mw.updateStatus(fmt.Sprintf("Loaded %s: %d markers", name, mw.state.Store.Len()))
		}
		mw.stage.Refresh()
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.SetTitle(appTitle + " - Untitled")
		mw.stage.ResetView()
		mw.updateStatus("Image loaded")
	})

	mw.state.On(app.EventDocumentSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Saved " + path)
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if !strings.HasSuffix(title, "*") {
				mw.SetTitle(title + " *")
			}
		}
	})

	mw.state.On(app.EventMarkersChanged, func(data interface{}) {
		mw.stage.Refresh()
	})

	mw.state.On(app.EventKindSelected, func(data interface{}) {
		if kind, ok := data.(string); ok {
			mw.palette.Highlight(kind)
		}
	})

	mw.state.On(app.EventRasterExported, func(data interface{}) {
		mw.updateStatus(fmt.Sprintf("Exported %v", data))
	})

	mw.state.On(app.EventExportFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			dialog.ShowError(err, mw.Window)
		}
	})
}

// setupWatcher offers to reload the document when another program
// rewrites it.
func (mw *MainWindow) setupWatcher() {
	w, err := app.NewDocumentWatcher(mw.log)
	if err != nil {
		mw.log.Warn().Err(err).Msg("document watching unavailable")
		return
	}
	mw.watcher = w
	w.OnChange(func(path string) {
		dialog.ShowConfirm("Document Changed",
			filepath.Base(path)+" was changed outside the annotator. Reload it?",
			func(ok bool) {
				if ok {
					mw.OpenPath(path)
				}
			}, mw.Window)
	})
	mw.SetOnClosed(func() {
		_ = w.Close()
	})
}

func (mw *MainWindow) watch(path string) {
	if mw.watcher == nil {
		return
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return
	}
	if err := mw.watcher.Watch(path); err != nil {
		mw.log.Warn().Err(err).Str("path", path).Msg("failed to watch document")
	}
}

func (mw *MainWindow) onGesture(res gesture.Result) {
	switch res.Action {
	case gesture.ActionPlaced:
		mw.updateStatus(fmt.Sprintf("Placed marker (%d total)", mw.state.Store.Len()))
	case gesture.ActionDeleted:
		mw.updateStatus(fmt.Sprintf("Deleted marker (%d total)", mw.state.Store.Len()))
	case gesture.ActionHandleToggled, gesture.ActionSelected:
		if m, ok := mw.state.Store.Get(res.MarkerID); ok {
			if deg, ok := m.FacingAngle(); ok {
				mw.updateStatus(fmt.Sprintf("%s facing %.0f°", m.KindID, deg))
			} else {
				mw.updateStatus(m.KindID)
			}
		}
	case gesture.ActionRotated:
		if m, ok := mw.state.Store.Get(res.MarkerID); ok {
			deg, _ := m.FacingAngle()
			mw.updateStatus(fmt.Sprintf("%s facing %.0f°", m.KindID, deg))
		}
	}
}

func (mw *MainWindow) onKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape {
		mw.onClearSelection()
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// RestoreLastDocument reopens the document saved or opened last time.
func (mw *MainWindow) RestoreLastDocument() {
	path := mw.app.Preferences().String(prefKeyLastDocument)
	if path == "" {
		return
	}
	if err := mw.state.ImportFile(path); err != nil {
		mw.log.Warn().Err(err).Str("path", path).Msg("failed to restore last document")
		mw.app.Preferences().RemoveValue(prefKeyLastDocument)
		return
	}
	mw.watch(path)
}

// OpenPath imports a file given on the command line.
func (mw *MainWindow) OpenPath(path string) {
	if err := mw.state.ImportFile(path); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.rememberDocument(path)
	mw.watch(path)
}

func (mw *MainWindow) rememberDocument(path string) {
	mw.saveLastDir(path)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		mw.app.Preferences().SetString(prefKeyLastDocument, path)
	}
}

// Menu action handlers

func (mw *MainWindow) onOpen() {
	mw.confirmDiscard(func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			reader.Close()
			mw.OpenPath(reader.URI().Path())
		}, mw.Window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{
			".json", ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp",
		}))
		if loc := mw.getLastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

// confirmDiscard runs next straight away, or after the user agrees to
// drop unsaved changes.
func (mw *MainWindow) confirmDiscard(next func()) {
	if !mw.state.IsModified() {
		next()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"The current document has unsaved changes. Discard them?",
		func(ok bool) {
			if ok {
				next()
			}
		}, mw.Window)
}

func (mw *MainWindow) onSave() {
	path := mw.state.DocumentPath
	if path == "" || !strings.EqualFold(filepath.Ext(path), ".json") {
		mw.onSaveAs()
		return
	}
	mw.save(path)
}

func (mw *MainWindow) onSaveAs() {
	if mw.state.Background() == nil {
		dialog.ShowError(app.ErrNoBackground, mw.Window)
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if !strings.EqualFold(filepath.Ext(path), ".json") {
			path += ".json"
		}
		mw.save(path)
	}, mw.Window)
	fd.SetFileName("floorplan.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) save(path string) {
	write := func() error { return mw.state.SaveDocument(path) }
	var err error
	if mw.watcher != nil && mw.watcher.Path() != "" {
		err = mw.watcher.Quiet(write)
	} else {
		err = write()
	}
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.rememberDocument(path)
	mw.watch(path)
}

func (mw *MainWindow) onExportImage() {
	if mw.state.Background() == nil {
		dialog.ShowError(app.ErrNoBackground, mw.Window)
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			path += "." + mw.state.Config.Export.Format
		}
		mw.saveLastDir(path)
		mw.updateStatus("Exporting " + filepath.Base(path) + "...")
		if err := mw.state.ExportRasterFile(path, mw.stage.DisplaySize(), nil); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("floorplan." + mw.state.Config.Export.Format)
	if loc := mw.exportDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// exportDir is the configured export directory, falling back to the last
// used one.
func (mw *MainWindow) exportDir() fyne.ListableURI {
	if dir := mw.state.Config.Export.Dir; dir != "" {
		if listable, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			return listable
		}
		mw.log.Warn().Str("dir", dir).Msg("export directory not usable")
	}
	return mw.getLastDir()
}

func (mw *MainWindow) onClearSelection() {
	mw.state.Router.Reset()
	mw.stage.Refresh()
}

func (mw *MainWindow) onClearMarkers() {
	if mw.state.Store.Len() == 0 {
		return
	}
	dialog.ShowConfirm("Remove All Markers", "Remove every marker from the floorplan?", func(ok bool) {
		if ok {
			mw.state.Router.Reset()
			mw.state.Store.Clear()
		}
	}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Place device markers on a floorplan image.\n"+
			"Tap a camera, projector or speaker to rotate it;\n"+
			"double-click any marker to delete it.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
