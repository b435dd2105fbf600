package image

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"floorplan-annotator/internal/cone"
	"floorplan-annotator/internal/marker"
	"floorplan-annotator/pkg/geometry"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// DefaultIconSize is the on-screen icon side in display pixels.
const DefaultIconSize = 32.0

// Snapshot is a frozen copy of everything a raster export needs. Taking it
// is cheap; rendering it may run on another goroutine while the stage
// keeps changing.
type Snapshot struct {
	Background image.Image
	Markers    []marker.Marker
	// Display is the on-screen size the stage was laid out at. Icon and
	// cone sizes are given in display pixels and scaled up to native.
	Display geometry.Size
}

// Scale returns the native/display ratio used to size icons and cones.
func (s Snapshot) Scale() float64 {
	if s.Background == nil || s.Display.Empty() {
		return 1
	}
	return float64(s.Background.Bounds().Dx()) / s.Display.Width
}

// Rasterizer flattens a snapshot into a bitmap at the background's native
// resolution. Transient UI such as rotation handles is never drawn.
type Rasterizer struct {
	Catalog  *marker.Catalog
	Icons    *IconSet
	IconSize float64
	Cone     cone.Spec
	Colors   cone.Palette
	Segments int
}

// NewRasterizer creates a rasterizer with default sizes.
func NewRasterizer(catalog *marker.Catalog, icons *IconSet) *Rasterizer {
	return &Rasterizer{
		Catalog:  catalog,
		Icons:    icons,
		IconSize: DefaultIconSize,
		Cone:     cone.DefaultSpec(),
		Segments: cone.DefaultSegments,
	}
}

// Render draws the background, then each marker's cone and icon in
// z-order.
func (r *Rasterizer) Render(s Snapshot) (image.Image, error) {
	if s.Background == nil {
		return nil, fmt.Errorf("no background image")
	}
	bounds := s.Background.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scale := s.Scale()

	dc := gg.NewContext(w, h)
	dc.DrawImage(s.Background, -bounds.Min.X, -bounds.Min.Y)

	iconPx := int(math.Round(r.IconSize * scale))
	if iconPx < 1 {
		iconPx = 1
	}
	scaled := make(map[string]image.Image)

	for _, m := range s.Markers {
		t, ok := r.Catalog.Lookup(m.KindID)
		if !ok {
			continue
		}
		center := geometry.NewPoint2D(m.Position.X*float64(w), m.Position.Y*float64(h))

		if deg, ok := m.FacingAngle(); ok && t.Directional {
			r.drawCone(dc, center, deg, scale, m.KindID)
		}

		icon, ok := scaled[t.KindID]
		if !ok {
			var err error
			icon, err = r.icon(t, iconPx)
			if err != nil {
				return nil, err
			}
			scaled[t.KindID] = icon
		}
		dc.DrawImageAnchored(icon, int(math.Round(center.X)), int(math.Round(center.Y)), 0.5, 0.5)
	}

	return dc.Image(), nil
}

func (r *Rasterizer) drawCone(dc *gg.Context, center geometry.Point2D, deg, scale float64, kindID string) {
	pts := cone.Wedge(deg, r.Cone).Scale(scale).At(center).Polygon(r.Segments)
	if len(pts) < 3 {
		return
	}
	dc.NewSubPath()
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.SetColor(r.Colors.ColorFor(kindID))
	dc.Fill()
}

// icon returns the kind's icon fitted into a size x size square, or a
// generated glyph when the set has none.
func (r *Rasterizer) icon(t marker.MarkerType, size int) (image.Image, error) {
	src, ok := r.Icons.Icon(t.IconRef)
	if !ok {
		return Glyph(t, size)
	}
	return fitSquare(src, size), nil
}

// fitSquare scales src to fit a size x size square keeping its aspect
// ratio, centered on a transparent canvas.
func fitSquare(src image.Image, size int) image.Image {
	sb := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return dst
	}
	f := math.Min(float64(size)/float64(sb.Dx()), float64(size)/float64(sb.Dy()))
	dw := int(math.Round(float64(sb.Dx()) * f))
	dh := int(math.Round(float64(sb.Dy()) * f))
	x0 := (size - dw) / 2
	y0 := (size - dh) / 2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), src, sb, draw.Over, nil)
	return dst
}

// Format is a raster output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// FormatForPath picks the output format from a file extension, defaulting
// to PNG.
func FormatForPath(path string) Format {
	p := strings.ToLower(path)
	if strings.HasSuffix(p, ".jpg") || strings.HasSuffix(p, ".jpeg") {
		return FormatJPEG
	}
	return FormatPNG
}

// Encode writes img, usually straight from Render, in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 92})
	case FormatPNG, "":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported raster format %q", format)
	}
}

// Mime returns the content type for f.
func (f Format) Mime() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}
