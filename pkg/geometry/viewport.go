package geometry

import "gonum.org/v1/gonum/spatial/r2"

const (
	// MinZoom and MaxZoom bound the viewer scale.
	MinZoom = 0.5
	MaxZoom = 5.0
)

// Viewport describes how the background image is placed on screen: the
// layout origin of the image container, the scroll offset of the
// surrounding scroller, and the zoom/pan transform applied by the viewer.
type Viewport struct {
	Origin Point2D // container top-left in viewport pixels
	Scroll Point2D // scroll offset subtracted from the origin
	Pan    Point2D // viewer translation in viewport pixels
	Zoom   float64 // viewer scale, 1 = display size
}

// NewViewport returns an untransformed viewport at the given origin.
func NewViewport(origin Point2D) Viewport {
	return Viewport{Origin: origin, Zoom: 1}
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

func vec(p Point2D) r2.Vec   { return r2.Vec{X: p.X, Y: p.Y} }
func point(v r2.Vec) Point2D { return Point2D{X: v.X, Y: v.Y} }

func (v Viewport) offset() r2.Vec {
	return r2.Add(r2.Sub(vec(v.Origin), vec(v.Scroll)), vec(v.Pan))
}

// StageBox returns the on-screen box of an image displayed at size.
func (v Viewport) StageBox(display Size) Rect {
	off := v.offset()
	z := v.zoom()
	return Rect{X: off.X, Y: off.Y, Width: display.Width * z, Height: display.Height * z}
}

// ZoomAt scales the viewer by factor keeping the viewport point anchor
// fixed on screen. The resulting zoom is clamped to [MinZoom, MaxZoom].
func (v Viewport) ZoomAt(factor float64, anchor Point2D) Viewport {
	z := v.zoom()
	nz := z * factor
	if nz < MinZoom {
		nz = MinZoom
	}
	if nz > MaxZoom {
		nz = MaxZoom
	}

	a := vec(anchor)
	local := r2.Scale(1/z, r2.Sub(a, v.offset()))
	newOff := r2.Sub(a, r2.Scale(nz, local))
	pan := r2.Add(r2.Sub(newOff, vec(v.Origin)), vec(v.Scroll))

	v.Zoom = nz
	v.Pan = point(pan)
	return v
}

// PanBy translates the viewer by a viewport-pixel delta.
func (v Viewport) PanBy(delta Point2D) Viewport {
	v.Pan = point(r2.Add(vec(v.Pan), vec(delta)))
	return v
}
