package image

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"floorplan-annotator/internal/marker"
	"floorplan-annotator/pkg/colorutil"
	"floorplan-annotator/pkg/geometry"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// HandleDrawRadius is the visible radius of the rotation handle.
const HandleDrawRadius = 9.0

// Backdrop fills the area around the background on screen.
var Backdrop = color.NRGBA{R: 0xEC, G: 0xEF, B: 0xF1, A: 0xFF}

// View is the stage as it currently appears on screen. Unlike a Snapshot
// it includes transient UI: the selection ring and the rotation handle.
type View struct {
	Size       image.Point   // output size in pixels
	Stage      geometry.Rect // background box within the output
	Background image.Image
	Markers    []marker.Marker
	Zoom       float64 // icon and cone scale; 0 means 1
	Selected   string
	HandleFor  string           // marker whose rotation handle is shown
	Handle     geometry.Point2D // handle center in output pixels
}

// RenderView draws v for display.
func (r *Rasterizer) RenderView(v View) (*image.RGBA, error) {
	if v.Size.X <= 0 || v.Size.Y <= 0 {
		return nil, fmt.Errorf("invalid view size %v", v.Size)
	}
	dst := image.NewRGBA(image.Rect(0, 0, v.Size.X, v.Size.Y))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Backdrop), image.Point{}, draw.Src)

	if v.Background == nil || v.Stage.Empty() {
		return dst, nil
	}
	box := image.Rect(
		int(math.Round(v.Stage.X)),
		int(math.Round(v.Stage.Y)),
		int(math.Round(v.Stage.X+v.Stage.Width)),
		int(math.Round(v.Stage.Y+v.Stage.Height)),
	)
	draw.ApproxBiLinear.Scale(dst, box, v.Background, v.Background.Bounds(), draw.Over, nil)

	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	dc := gg.NewContextForRGBA(dst)

	iconPx := int(math.Round(r.IconSize * zoom))
	if iconPx < 1 {
		iconPx = 1
	}
	scaled := make(map[string]image.Image)

	for _, m := range v.Markers {
		t, ok := r.Catalog.Lookup(m.KindID)
		if !ok {
			continue
		}
		center, ok := geometry.ToViewport(m.Position, v.Stage)
		if !ok {
			continue
		}
		if deg, ok := m.FacingAngle(); ok && t.Directional {
			r.drawCone(dc, center, deg, zoom, m.KindID)
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

		if m.ID == v.Selected {
			dc.DrawCircle(center.X, center.Y, float64(iconPx)/2+3)
			dc.SetColor(colorutil.Blue)
			dc.SetLineWidth(2)
			dc.Stroke()
		}
		if v.HandleFor != "" && m.ID == v.HandleFor {
			drawHandle(dc, center, v.Handle)
		}
	}
	return dst, nil
}

// drawHandle draws the rotation handle and its tether to the marker.
func drawHandle(dc *gg.Context, center, at geometry.Point2D) {
	dc.DrawLine(center.X, center.Y, at.X, at.Y)
	dc.SetColor(colorutil.WithAlpha(colorutil.Blue, 0.5))
	dc.SetLineWidth(1.5)
	dc.Stroke()

	dc.DrawCircle(at.X, at.Y, HandleDrawRadius)
	dc.SetColor(colorutil.White)
	dc.FillPreserve()
	dc.SetColor(colorutil.Blue)
	dc.SetLineWidth(2)
	dc.Stroke()
}
