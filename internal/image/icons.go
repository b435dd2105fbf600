package image

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"floorplan-annotator/internal/cone"
	"floorplan-annotator/internal/marker"
	"floorplan-annotator/pkg/colorutil"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

// IconSet maps icon references to decoded icon images.
type IconSet struct {
	mu    sync.RWMutex
	icons map[string]image.Image
}

// NewIconSet creates an empty icon set.
func NewIconSet() *IconSet {
	return &IconSet{icons: make(map[string]image.Image)}
}

// Add registers an icon under ref.
func (s *IconSet) Add(ref string, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.icons[ref] = img
}

// Icon returns the icon for ref.
func (s *IconSet) Icon(ref string) (image.Image, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.icons[ref]
	return img, ok
}

// Len returns the number of registered icons.
func (s *IconSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.icons)
}

// LoadDir registers every decodable image in dir under its base name
// without extension, so "computer_rack.png" becomes "computer_rack".
// Files that fail to decode are skipped and reported together.
func (s *IconSet) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read icon dir: %w", err)
	}

	loaded := 0
	var bad []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		bg, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			bad = append(bad, e.Name())
			continue
		}
		ref := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		s.Add(ref, bg.Image)
		loaded++
	}
	if len(bad) > 0 {
		return loaded, fmt.Errorf("failed to decode icons: %s", strings.Join(bad, ", "))
	}
	return loaded, nil
}

var (
	glyphFontOnce sync.Once
	glyphFont     *truetype.Font
	glyphFontErr  error
)

func loadGlyphFont() (*truetype.Font, error) {
	glyphFontOnce.Do(func() {
		glyphFont, glyphFontErr = truetype.Parse(gobold.TTF)
	})
	return glyphFont, glyphFontErr
}

// GlyphColor is the disc color used for a kind without an icon.
func GlyphColor(t marker.MarkerType) color.NRGBA {
	if t.Directional {
		c := cone.ColorFor(t.KindID)
		c.A = 255
		return c
	}
	return colorutil.Slate
}

// Glyph draws a stand-in icon: a colored disc with the label's initial.
func Glyph(t marker.MarkerType, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid glyph size %d", size)
	}
	s := float64(size)
	dc := gg.NewContext(size, size)

	dc.DrawCircle(s/2, s/2, s/2-1)
	dc.SetColor(GlyphColor(t))
	dc.FillPreserve()
	dc.SetColor(colorutil.White)
	dc.SetLineWidth(s / 16)
	dc.Stroke()

	f, err := loadGlyphFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    s * 0.55,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	dc.SetFontFace(face)
	dc.DrawStringAnchored(initial(t), s/2, s/2, 0.5, 0.35)
	return dc.Image(), nil
}

func initial(t marker.MarkerType) string {
	name := t.Label
	if name == "" {
		name = t.KindID
	}
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}
