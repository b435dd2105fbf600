package app

import (
	"bytes"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"floorplan-annotator/internal/config"
	"floorplan-annotator/internal/document"
	"floorplan-annotator/internal/gesture"
	"floorplan-annotator/internal/image"
	"floorplan-annotator/internal/marker"
	"floorplan-annotator/pkg/geometry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s := NewState(config.Default(), zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := goimage.NewNRGBA(goimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImportImageClearsMarkers(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Import("first.png", pngBytes(t, 20, 10)))

	_, err := s.Store.Add("camera", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)
	_, err = s.Store.Add("tv", geometry.NewPoint2D(0.2, 0.2))
	require.NoError(t, err)
	require.True(t, s.IsModified())

	require.NoError(t, s.Import("second.png", pngBytes(t, 30, 30)))
	assert.Equal(t, 0, s.Store.Len())
	assert.Equal(t, 30, s.Background().Width())
	assert.False(t, s.IsModified())
}

func TestImportRejectsAndKeepsState(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Import("plan.png", pngBytes(t, 20, 10)))
	m, err := s.Store.Add("camera", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)
	before := s.Background()

	goodImage := document.EncodeDataURI("image/png", pngBytes(t, 4, 4))
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"unsupported", "notes.txt", []byte("hello there"), document.ErrUnsupportedFileType},
		{"missing markers", "doc.json", []byte(`{"version":1,"imageData":"` + goodImage + `"}`), document.ErrMalformedDocument},
		{"bad embedded image", "doc.json", []byte(`{"imageData":"data:image/png;base64,AAAA","markers":[]}`), document.ErrImageDecode},
		{"unknown marker kind", "doc.json", []byte(`{"imageData":"` + goodImage + `","markers":[{"id":"a","typeId":"ufo","x":0.1,"y":0.1}]}`), document.ErrMalformedDocument},
		{"corrupt png", "broken.png", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...), document.ErrImageDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Import(tt.file, tt.data)
			assert.ErrorIs(t, err, tt.want)

			assert.Same(t, before, s.Background())
			got := s.Store.Markers()
			require.Len(t, got, 1)
			assert.Equal(t, m.ID, got[0].ID)
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Import("plan.png", pngBytes(t, 40, 20)))
	cam, _ := s.Store.Add("camera", geometry.NewPoint2D(0.25, 0.5))
	require.NoError(t, s.Store.UpdateAngle(cam.ID, 275))
	_, _ = s.Store.Add("doorlock", geometry.NewPoint2D(0.75, 0.5))
	before := s.Store.Markers()

	var buf bytes.Buffer
	require.NoError(t, s.ExportDocument(&buf))

	other := newTestState(t)
	require.NoError(t, other.Import("export.json", buf.Bytes()))

	assert.Equal(t, before, other.Store.Markers())
	assert.Equal(t, "image/png", other.Background().Mime)
	assert.Equal(t, 40, other.Background().Width())
}

func TestSaveDocument(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Import("plan.png", pngBytes(t, 10, 10)))
	_, _ = s.Store.Add("tv", geometry.NewPoint2D(0.5, 0.5))

	var saved []interface{}
	s.On(EventDocumentSaved, func(data interface{}) { saved = append(saved, data) })

	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, s.SaveDocument(path))
	assert.False(t, s.IsModified())
	assert.Equal(t, []interface{}{path}, saved)

	f, err := document.Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Markers, 1)
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(f.ExportedAt))

	reloaded := newTestState(t)
	require.NoError(t, reloaded.ImportFile(path))
	assert.Equal(t, path, reloaded.DocumentPath)
	assert.Equal(t, 1, reloaded.Store.Len())
}

func TestExportWithoutBackground(t *testing.T) {
	s := newTestState(t)
	assert.ErrorIs(t, s.ExportDocument(&bytes.Buffer{}), ErrNoBackground)
	assert.ErrorIs(t, s.ExportRaster(geometry.NewSize(10, 10), image.FormatPNG, &bytes.Buffer{}, nil), ErrNoBackground)
}

func TestExportRasterUsesSnapshot(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Import("plan.png", pngBytes(t, 64, 64)))
	_, _ = s.Store.Add("tv", geometry.NewPoint2D(0.5, 0.5))

	snap, err := s.Snapshot(geometry.NewSize(64, 64))
	require.NoError(t, err)
	require.Len(t, snap.Markers, 1)

	// Edits after the snapshot do not reach it
	s.Store.Clear()
	assert.Len(t, snap.Markers, 1)

	var mu sync.Mutex
	var buf bytes.Buffer
	var result error = os.ErrInvalid
	require.NoError(t, s.ExportRaster(geometry.NewSize(64, 64), image.FormatPNG, &buf, func(err error) {
		mu.Lock()
		result = err
		mu.Unlock()
	}))
	s.WaitExports()

	mu.Lock()
	defer mu.Unlock()
	require.NoError(t, result)
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, goimage.Rect(0, 0, 64, 64), img.Bounds())
}

func TestExportRasterFile(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Import("plan.png", pngBytes(t, 32, 16)))
	_, _ = s.Store.Add("speaker", geometry.NewPoint2D(0.5, 0.5))

	path := filepath.Join(t.TempDir(), "out.jpg")
	errs := make(chan error, 1)
	require.NoError(t, s.ExportRasterFile(path, geometry.NewSize(32, 16), func(err error) { errs <- err }))
	require.NoError(t, <-errs)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, format, err := goimage.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNewImageResetsGesture(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Import("plan.png", pngBytes(t, 100, 100)))
	_, _ = s.Store.Add("tv", geometry.NewPoint2D(0.5, 0.5))
	s.Router.SetStage(geometry.NewRect(0, 0, 100, 100))

	s.Router.Handle(gesture.Event{Kind: gesture.PointerDown, Pointer: 1, Pos: geometry.NewPoint2D(50, 50)})
	s.Router.Handle(gesture.Event{Kind: gesture.PointerMove, Pointer: 1, Pos: geometry.NewPoint2D(70, 50)})
	require.IsType(t, gesture.Dragging{}, s.Router.Session())

	require.NoError(t, s.Import("other.png", pngBytes(t, 10, 10)))
	assert.IsType(t, gesture.Idle{}, s.Router.Session())
	assert.Equal(t, 0, s.Store.Len())
}

func TestSelectKindAndEvents(t *testing.T) {
	s := newTestState(t)
	var kinds []interface{}
	var changes []marker.ChangeKind
	s.On(EventKindSelected, func(data interface{}) { kinds = append(kinds, data) })
	s.On(EventMarkersChanged, func(data interface{}) { changes = append(changes, data.(marker.Change).Kind) })

	require.NoError(t, s.SelectKind("projector"))
	assert.ErrorIs(t, s.SelectKind("ufo"), marker.ErrUnknownKind)
	assert.Equal(t, []interface{}{"projector"}, kinds)

	require.NoError(t, s.Import("plan.png", pngBytes(t, 10, 10)))
	s.Router.SetStage(geometry.NewRect(0, 0, 10, 10))
	res := s.Router.Handle(gesture.Event{Kind: gesture.PointerDown, Pointer: 1, Pos: geometry.NewPoint2D(5, 5)})
	assert.Equal(t, gesture.ActionPlaced, res.Action)
	assert.Equal(t, []marker.ChangeKind{marker.ChangeReplaced, marker.ChangeAdded}, changes)
	assert.True(t, s.IsModified())
}
