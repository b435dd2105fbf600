// Package image loads floorplan backgrounds and flattens annotated stages
// into bitmaps.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"floorplan-annotator/internal/document"
	"floorplan-annotator/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Background is the floorplan image markers are placed on. The original
// file bytes are kept so exports embed exactly what was imported.
type Background struct {
	Name  string      // Source file name, if any
	Mime  string      // e.g. "image/png"
	Data  []byte      // Original encoded bytes
	Image image.Image // Decoded pixels
}

var formatMimes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// Decode decodes an encoded background. Errors wrap document.ErrImageDecode.
func Decode(name string, data []byte) (*Background, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", document.ErrImageDecode, name, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s: empty image", document.ErrImageDecode, name)
	}

	bg := &Background{
		Name:  name,
		Mime:  formatMimes[format],
		Data:  data,
		Image: img,
	}
	if bg.Mime == "" {
		bg.Mime = "image/" + format
	}
	return bg, nil
}

// Load reads and decodes a background image file.
func Load(path string) (*Background, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Decode(filepath.Base(path), data)
}

// Width returns the image width in pixels.
func (b *Background) Width() int {
	if b == nil || b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (b *Background) Height() int {
	if b == nil || b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dy()
}

// Size returns the native image dimensions.
func (b *Background) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(b.Width()),
		Height: float64(b.Height()),
	}
}

// SupportedFormats returns the file extensions accepted for backgrounds.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
