// Package cone computes the visibility wedge drawn for directional markers.
package cone

import (
	"image/color"
	"math"

	"floorplan-annotator/pkg/colorutil"
	"floorplan-annotator/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// DefaultSpan is the total field of view in degrees.
	DefaultSpan = 45.0
	// DefaultLength is the wedge radius in icon pixels.
	DefaultLength = 140.0
	// DefaultAlpha is the fill opacity shared by all cone colors.
	DefaultAlpha = 0.25
	// DefaultSegments is the number of arc segments used for polygons.
	DefaultSegments = 16
)

// Spec configures wedge geometry.
type Spec struct {
	Span   float64 // total field of view, degrees
	Length float64 // radius, pixels
}

// DefaultSpec returns the standard wedge configuration.
func DefaultSpec() Spec {
	return Spec{Span: DefaultSpan, Length: DefaultLength}
}

// Shape is a circular sector anchored at the marker center.
type Shape struct {
	Apex   geometry.Point2D
	Facing float64 // degrees clockwise from up
	Span   float64
	Length float64
}

// Wedge returns the cone for a marker centered at the origin facing deg.
func Wedge(deg float64, spec Spec) Shape {
	return Shape{
		Facing: geometry.NormalizeAngle(deg),
		Span:   spec.Span,
		Length: spec.Length,
	}
}

// At returns the shape moved to apex.
func (s Shape) At(apex geometry.Point2D) Shape {
	s.Apex = apex
	return s
}

// Scale returns the shape with its length multiplied by f. The apex is
// scaled too, so a shape in display pixels maps to native pixels.
func (s Shape) Scale(f float64) Shape {
	s.Apex = s.Apex.Scale(f)
	s.Length *= f
	return s
}

// Edges returns the start and end angles of the arc in degrees,
// clockwise from up.
func (s Shape) Edges() (start, end float64) {
	return s.Facing - s.Span/2, s.Facing + s.Span/2
}

// Polygon approximates the sector as the apex followed by segments+1
// points along the arc, from the counter-clockwise edge to the clockwise
// edge.
func (s Shape) Polygon(segments int) []geometry.Point2D {
	if segments < 1 {
		segments = 1
	}
	apex := r2.Vec{X: s.Apex.X, Y: s.Apex.Y}
	up := r2.Add(apex, r2.Vec{X: 0, Y: -s.Length})

	start, _ := s.Edges()
	step := s.Span / float64(segments)

	pts := make([]geometry.Point2D, 0, segments+2)
	pts = append(pts, s.Apex)
	for i := 0; i <= segments; i++ {
		// Positive rotation is clockwise on screen because y grows downward
		rad := (start + step*float64(i)) * math.Pi / 180
		p := r2.Rotate(up, rad, apex)
		pts = append(pts, geometry.Point2D{X: p.X, Y: p.Y})
	}
	return pts
}

// Contains reports whether p lies within the sector.
func (s Shape) Contains(p geometry.Point2D) bool {
	d := p.Sub(s.Apex)
	dist := math.Hypot(d.X, d.Y)
	if dist > s.Length {
		return false
	}
	if dist == 0 {
		return true
	}
	off := geometry.NormalizeAngle(geometry.AngleFromDelta(d.X, d.Y)-s.Facing+180) - 180
	return math.Abs(off) <= s.Span/2
}

// ColorFor returns the fill color for a marker kind's cone.
func ColorFor(kindID string) color.NRGBA {
	var base color.NRGBA
	switch kindID {
	case "camera":
		base = colorutil.Red
	case "projector":
		base = colorutil.Yellow
	case "speaker":
		base = colorutil.Orange
	default:
		base = colorutil.Green
	}
	return colorutil.WithAlpha(base, DefaultAlpha)
}

// Palette overrides cone colors per kind. Kinds missing from the palette
// use ColorFor.
type Palette map[string]color.NRGBA

// ColorFor returns the override for kindID, or the default cone color.
func (p Palette) ColorFor(kindID string) color.NRGBA {
	if c, ok := p[kindID]; ok {
		return c
	}
	return ColorFor(kindID)
}
