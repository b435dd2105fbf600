// Package document reads and writes portable annotation documents: the
// background image embedded as a data URI plus the marker list.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"floorplan-annotator/internal/marker"
	"floorplan-annotator/pkg/geometry"
)

// CurrentVersion is the document format version written by Encode.
const CurrentVersion = 1

var (
	// ErrMalformedDocument means required fields are missing or mistyped.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrUnsupportedFileType means the import is neither a document nor a
	// supported image.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrImageDecode means the background image could not be decoded.
	ErrImageDecode = errors.New("image decode failed")
)

// File is an exported annotation document.
type File struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exportedAt"`
	ImageData  string         `json:"imageData"`
	Markers    []MarkerRecord `json:"markers"`
}

// MarkerRecord is one marker as stored in a document. Rotation is present
// only for directional kinds.
type MarkerRecord struct {
	ID       string   `json:"id"`
	TypeID   string   `json:"typeId"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Build assembles a document from an encoded background image and the
// current markers.
func Build(mime string, image []byte, markers []marker.Marker, now time.Time) File {
	f := File{
		Version:    CurrentVersion,
		ExportedAt: now.UTC(),
		ImageData:  EncodeDataURI(mime, image),
		Markers:    make([]MarkerRecord, 0, len(markers)),
	}
	for _, m := range markers {
		rec := MarkerRecord{
			ID:     m.ID,
			TypeID: m.KindID,
			X:      m.Position.X,
			Y:      m.Position.Y,
		}
		if deg, ok := m.FacingAngle(); ok {
			rec.Rotation = marker.Angle(deg)
		}
		f.Markers = append(f.Markers, rec)
	}
	return f
}

// ToMarkers converts the records back into store markers. Validation
// against the catalog happens in marker.Store.ReplaceAll.
func (f File) ToMarkers() []marker.Marker {
	out := make([]marker.Marker, 0, len(f.Markers))
	for _, rec := range f.Markers {
		m := marker.Marker{
			ID:       rec.ID,
			KindID:   rec.TypeID,
			Position: geometry.NewPoint2D(rec.X, rec.Y),
		}
		if rec.Rotation != nil {
			m.Angle = marker.Angle(*rec.Rotation)
		}
		out = append(out, m)
	}
	return out
}

// Image decodes the embedded background into its mime type and bytes.
func (f File) Image() (string, []byte, error) {
	return DecodeDataURI(f.ImageData)
}

// Encode writes the document as indented JSON.
func Encode(w io.Writer, f File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Save writes the document to path.
func Save(path string, f File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Load reads and decodes a document file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Decode(data)
}

// rawFile mirrors File with every field optional so missing keys can be
// told apart from zero values.
type rawFile struct {
	Version    *int            `json:"version"`
	ExportedAt *time.Time      `json:"exportedAt"`
	ImageData  *string         `json:"imageData"`
	Markers    json.RawMessage `json:"markers"`
}

type rawMarker struct {
	ID       *string  `json:"id"`
	TypeID   *string  `json:"typeId"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Rotation *float64 `json:"rotation"`
}

// Decode parses a document, checking that every required field is present
// and well typed. Errors wrap ErrMalformedDocument.
func Decode(data []byte) (File, error) {
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	version := CurrentVersion
	if raw.Version != nil {
		version = *raw.Version
	}
	if version < 1 || version > CurrentVersion {
		return File{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedDocument, version)
	}
	if raw.ImageData == nil || *raw.ImageData == "" {
		return File{}, fmt.Errorf("%w: missing imageData", ErrMalformedDocument)
	}

	body := bytes.TrimSpace(raw.Markers)
	if len(body) == 0 {
		return File{}, fmt.Errorf("%w: missing markers", ErrMalformedDocument)
	}
	if body[0] != '[' {
		return File{}, fmt.Errorf("%w: markers is not a list", ErrMalformedDocument)
	}
	var items []rawMarker
	if err := json.Unmarshal(body, &items); err != nil {
		return File{}, fmt.Errorf("%w: markers: %v", ErrMalformedDocument, err)
	}

	f := File{
		Version:   version,
		ImageData: *raw.ImageData,
		Markers:   make([]MarkerRecord, 0, len(items)),
	}
	if raw.ExportedAt != nil {
		f.ExportedAt = *raw.ExportedAt
	}
	for i, it := range items {
		switch {
		case it.ID == nil || *it.ID == "":
			return File{}, fmt.Errorf("%w: marker %d: missing id", ErrMalformedDocument, i)
		case it.TypeID == nil || *it.TypeID == "":
			return File{}, fmt.Errorf("%w: marker %d: missing typeId", ErrMalformedDocument, i)
		case it.X == nil || it.Y == nil:
			return File{}, fmt.Errorf("%w: marker %d: missing position", ErrMalformedDocument, i)
		case math.IsInf(*it.X, 0) || math.IsInf(*it.Y, 0):
			return File{}, fmt.Errorf("%w: marker %d: position out of range", ErrMalformedDocument, i)
		}
		f.Markers = append(f.Markers, MarkerRecord{
			ID:       *it.ID,
			TypeID:   *it.TypeID,
			X:        *it.X,
			Y:        *it.Y,
			Rotation: it.Rotation,
		})
	}
	return f, nil
}
