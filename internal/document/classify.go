package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is what an imported file turned out to be.
type Kind int

const (
	KindUnknown Kind = iota
	KindDocument
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// ImageTypes lists the background formats accepted on import.
var ImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

var extTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// Classify sniffs an imported file. For images the returned mime is the
// detected content type. The file name is only consulted when the content
// is inconclusive.
func Classify(name string, data []byte) (Kind, string, error) {
	mt := mimetype.Detect(data)

	if mt.Is("application/json") {
		return KindDocument, mt.String(), nil
	}
	for _, t := range ImageTypes {
		if mt.Is(t) {
			return KindImage, t, nil
		}
	}

	// Truncated or hand-edited JSON sniffs as plain text; let the decoder
	// report what is wrong with it.
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".json" && mt.Is("text/plain") {
		return KindDocument, "application/json", nil
	}
	if t, ok := extTypes[ext]; ok && mt.Is("application/octet-stream") {
		return KindUnknown, "", fmt.Errorf("%w: %s does not look like %s", ErrImageDecode, name, t)
	}

	return KindUnknown, "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFileType, name, mt.String())
}

// IsImageType reports whether mime is an accepted background format.
func IsImageType(mime string) bool {
	for _, t := range ImageTypes {
		if t == mime {
			return true
		}
	}
	return false
}
