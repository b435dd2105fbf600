// Package app ties the document, marker store and gesture router together
// and orchestrates import and export.
package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"floorplan-annotator/internal/config"
	"floorplan-annotator/internal/document"
	"floorplan-annotator/internal/gesture"
	"floorplan-annotator/internal/image"
	"floorplan-annotator/internal/marker"
	"floorplan-annotator/pkg/geometry"

	"github.com/rs/zerolog"
)

// ErrNoBackground is returned by exports before any image is loaded.
var ErrNoBackground = errors.New("no background image loaded")

// State holds the open document and the interaction machinery around it.
type State struct {
	mu sync.RWMutex

	// Document
	DocumentPath string
	Modified     bool
	background   *image.Background

	Catalog    *marker.Catalog
	Store      *marker.Store
	Router     *gesture.Router
	Rasterizer *image.Rasterizer
	Config     config.Config

	log     zerolog.Logger
	now     func() time.Time
	exports sync.WaitGroup

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventDocumentLoaded EventType = iota
	EventDocumentSaved
	EventImageLoaded
	EventMarkersChanged
	EventModified
	EventKindSelected
	EventRasterExported
	EventExportFailed
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates application state from configuration.
func NewState(cfg config.Config, log zerolog.Logger) *State {
	catalog := marker.DefaultCatalog()
	store := marker.NewStore(catalog)
	store.SetHitSize(cfg.Marker.HitSize)

	icons := image.NewIconSet()
	if cfg.Marker.IconDir != "" {
		if n, err := icons.LoadDir(cfg.Marker.IconDir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.Marker.IconDir).Int("loaded", n).Msg("some icons failed to load")
		} else {
			log.Debug().Int("loaded", n).Msg("icons loaded")
		}
	}

	r := image.NewRasterizer(catalog, icons)
	r.IconSize = cfg.Marker.IconSize
	r.Cone = cfg.ConeSpec()
	if cfg.Cone.Segments > 0 {
		r.Segments = cfg.Cone.Segments
	}
	if p, err := cfg.ConePalette(); err == nil {
		r.Colors = p
	}

	s := &State{
		Catalog:    catalog,
		Store:      store,
		Router:     gesture.NewRouter(store, cfg.GestureOptions(), log),
		Rasterizer: r,
		Config:     cfg,
		log:        log.With().Str("component", "app").Logger(),
		now:        time.Now,
		listeners:  make(map[EventType][]EventListener),
	}

	store.On(func(c marker.Change) {
		s.Emit(EventMarkersChanged, c)
		s.SetModified(true)
	})
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the document as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// IsModified reports whether the document has unsaved changes.
func (s *State) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Modified
}

// Background returns the current background, or nil.
func (s *State) Background() *image.Background {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// SelectKind sets the palette kind used for placement.
func (s *State) SelectKind(kindID string) error {
	if err := s.Router.SelectKind(kindID); err != nil {
		return err
	}
	s.Emit(EventKindSelected, kindID)
	return nil
}

// ImportFile reads and imports a document or image file.
func (s *State) ImportFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := s.Import(filepath.Base(path), data); err != nil {
		return err
	}

	s.mu.Lock()
	s.DocumentPath = path
	s.mu.Unlock()
	return nil
}

// Import replaces the document with a JSON document or a raw image. Every
// part is parsed and validated before anything changes, so a failed import
// leaves the previous document intact. A raw image clears all markers.
func (s *State) Import(name string, data []byte) error {
	kind, _, err := document.Classify(name, data)
	if err != nil {
		s.log.Error().Err(err).Str("file", name).Msg("import rejected")
		return err
	}

	var (
		bg      *image.Background
		markers []marker.Marker
	)
	switch kind {
	case document.KindImage:
		bg, err = image.Decode(name, data)
		if err != nil {
			s.log.Error().Err(err).Str("file", name).Msg("import rejected")
			return err
		}

	case document.KindDocument:
		bg, markers, err = s.parseDocument(name, data)
		if err != nil {
			s.log.Error().Err(err).Str("file", name).Msg("import rejected")
			return err
		}
	}

	s.apply(bg, markers)

	if kind == document.KindImage {
		s.log.Info().Str("file", name).Int("width", bg.Width()).Int("height", bg.Height()).Msg("image loaded")
		s.Emit(EventImageLoaded, bg)
	} else {
		s.log.Info().Str("file", name).Int("markers", len(markers)).Msg("document loaded")
		s.Emit(EventDocumentLoaded, name)
	}
	return nil
}

func (s *State) parseDocument(name string, data []byte) (*image.Background, []marker.Marker, error) {
	f, err := document.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	mime, imgData, err := f.Image()
	if err != nil {
		return nil, nil, err
	}
	if !document.IsImageType(mime) {
		return nil, nil, fmt.Errorf("%w: embedded %s", document.ErrUnsupportedFileType, mime)
	}
	bg, err := image.Decode(name, imgData)
	if err != nil {
		return nil, nil, err
	}
	markers := f.ToMarkers()
	if err := s.Store.Validate(markers); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", document.ErrMalformedDocument, err)
	}
	return bg, markers, nil
}

// apply swaps in a validated background and marker list together.
func (s *State) apply(bg *image.Background, markers []marker.Marker) {
	// Any in-flight gesture refers to the old document
	s.Router.Reset()

	s.mu.Lock()
	s.background = bg
	s.mu.Unlock()

	if markers == nil {
		s.Store.Clear()
	} else if err := s.Store.ReplaceAll(markers); err != nil {
		// Validated in parseDocument; the catalog is fixed
		s.log.Error().Err(err).Msg("marker replace failed after validation")
	}
	s.SetModified(false)
}

// BuildDocument assembles the current document for export.
func (s *State) BuildDocument() (document.File, error) {
	bg := s.Background()
	if bg == nil {
		return document.File{}, ErrNoBackground
	}
	return document.Build(bg.Mime, bg.Data, s.Store.Markers(), s.now()), nil
}

// ExportDocument writes the current document as JSON.
func (s *State) ExportDocument(w io.Writer) error {
	f, err := s.BuildDocument()
	if err != nil {
		return err
	}
	return document.Encode(w, f)
}

// SaveDocument writes the current document to path and clears the
// modified flag.
func (s *State) SaveDocument(path string) error {
	var buf bytes.Buffer
	if err := s.ExportDocument(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	s.mu.Lock()
	s.DocumentPath = path
	s.mu.Unlock()
	s.SetModified(false)

	s.log.Info().Str("path", path).Int("markers", s.Store.Len()).Msg("document saved")
	s.Emit(EventDocumentSaved, path)
	return nil
}

// Snapshot freezes the stage for a raster export. display is the
// on-screen size of the stage; an empty size renders icons at native scale.
func (s *State) Snapshot(display geometry.Size) (image.Snapshot, error) {
	bg := s.Background()
	if bg == nil {
		return image.Snapshot{}, ErrNoBackground
	}
	return image.Snapshot{
		Background: bg.Image,
		Markers:    s.Store.Markers(),
		Display:    display,
	}, nil
}

// ExportRaster snapshots the stage now and renders it on a goroutine.
// Later edits never affect an export already started. done is called from
// that goroutine with the result.
func (s *State) ExportRaster(display geometry.Size, format image.Format, w io.Writer, done func(error)) error {
	snap, err := s.Snapshot(display)
	if err != nil {
		return err
	}

	s.exports.Add(1)
	go func() {
		defer s.exports.Done()
		err := s.renderTo(snap, format, w)
		if err != nil {
			s.log.Error().Err(err).Msg("raster export failed")
			s.Emit(EventExportFailed, err)
		} else {
			s.log.Info().Int("markers", len(snap.Markers)).Str("format", string(format)).Msg("raster exported")
			s.Emit(EventRasterExported, format)
		}
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// ExportRasterFile is ExportRaster into a newly created file.
func (s *State) ExportRasterFile(path string, display geometry.Size, done func(error)) error {
	snap, err := s.Snapshot(display)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}

	s.exports.Add(1)
	go func() {
		defer s.exports.Done()
		err := s.renderTo(snap, image.FormatForPath(path), f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			s.log.Error().Err(err).Str("path", path).Msg("raster export failed")
			s.Emit(EventExportFailed, err)
		} else {
			s.log.Info().Str("path", path).Msg("raster exported")
			s.Emit(EventRasterExported, path)
		}
		if done != nil {
			done(err)
		}
	}()
	return nil
}

func (s *State) renderTo(snap image.Snapshot, format image.Format, w io.Writer) error {
	img, err := s.Rasterizer.Render(snap)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := image.Encode(w, img, format); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// WaitExports blocks until every started raster export has finished.
func (s *State) WaitExports() {
	s.exports.Wait()
}
