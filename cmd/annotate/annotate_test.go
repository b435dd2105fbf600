package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"floorplan-annotator/internal/document"
	"floorplan-annotator/internal/marker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stderr)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", t.TempDir(), "--log-level", "error"}, args...))
	err := root.Execute()
	return stdout.String(), err
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "plan.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func importDoc(t *testing.T) (dir, doc string) {
	t.Helper()
	dir = t.TempDir()
	src := writePNG(t, dir, 80, 40)
	out, err := run(t, "import", src)
	require.NoError(t, err)
	doc = filepath.Join(dir, "plan.json")
	assert.Contains(t, out, "Wrote "+doc)
	assert.Contains(t, out, "80x40 image/png, 0 markers")
	return dir, doc
}

func TestImportWrapsImage(t *testing.T) {
	_, doc := importDoc(t)

	f, err := document.Load(doc)
	require.NoError(t, err)
	assert.Equal(t, document.CurrentVersion, f.Version)
	assert.Empty(t, f.Markers)
	assert.True(t, strings.HasPrefix(f.ImageData, "data:image/png;base64,"))
}

func TestImportRejectsUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some notes"), 0644))

	_, err := run(t, "import", path, "-o", filepath.Join(t.TempDir(), "out.json"))
	assert.ErrorIs(t, err, document.ErrUnsupportedFileType)
}

func TestPlaceAndInspect(t *testing.T) {
	_, doc := importDoc(t)

	out, err := run(t, "place", doc, "--kind", "camera", "--x", "0.25", "--y", "0.75", "--angle", "-90")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = run(t, "place", doc, "--kind", "tv", "--x", "0.5", "--y", "0.5")
	require.NoError(t, err)

	out, err = run(t, "inspect", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Markers: 2")
	var camLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, id) {
			camLine = line
		}
	}
	require.NotEmpty(t, camLine)
	assert.Equal(t, []string{id, "camera", "0.2500", "0.7500", "270.0"}, strings.Fields(camLine))
	assert.Contains(t, out, "tv")
}

func TestPlaceRejections(t *testing.T) {
	dir, doc := importDoc(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"outside image", []string{"place", doc, "--kind", "door", "--x", "1.5", "--y", "0.5"}, marker.ErrOutOfBounds},
		{"unknown kind", []string{"place", doc, "--kind", "ufo", "--x", "0.5", "--y", "0.5"}, marker.ErrUnknownKind},
		{"angle on a tv", []string{"place", doc, "--kind", "tv", "--x", "0.5", "--y", "0.5", "--angle", "10"}, marker.ErrNotDirectional},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := run(t, "place", filepath.Join(dir, "plan.png"), "--kind", "door", "--x", "0.5", "--y", "0.5")
	assert.Error(t, err, "an image is never overwritten with JSON")

	f, err := document.Load(doc)
	require.NoError(t, err)
	assert.Empty(t, f.Markers, "failed placements leave the document alone")
}

func TestRender(t *testing.T) {
	dir, doc := importDoc(t)
	_, err := run(t, "place", doc, "--kind", "speaker", "--x", "0.5", "--y", "0.5")
	require.NoError(t, err)

	out := filepath.Join(dir, "out.png")
	stdout, err := run(t, "render", doc, "-o", out, "--display-width", "40")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rendered 1 markers")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 80, 40), img.Bounds())
}

func TestRenderDefaultsToExportDir(t *testing.T) {
	_, doc := importDoc(t)
	outDir := t.TempDir()
	configDir := t.TempDir()
	cfg := fmt.Sprintf(`{"export": {"dir": %q, "format": "jpeg"}}`, outDir)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "annotator.json"), []byte(cfg), 0644))

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stderr)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--config", configDir, "--log-level", "error", "render", doc})
	require.NoError(t, root.Execute())

	want := filepath.Join(outDir, "plan.jpeg")
	assert.Contains(t, stdout.String(), want)
	_, err := os.Stat(want)
	assert.NoError(t, err)
}
