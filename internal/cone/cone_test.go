package cone

import (
	"image/color"
	"testing"

	"floorplan-annotator/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// convex reports whether the polygon's corners all turn the same way.
func convex(pts []geometry.Point2D) bool {
	sign := 0
	for i := range pts {
		o, a, b := pts[i], pts[(i+1)%len(pts)], pts[(i+2)%len(pts)]
		cross := (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
		switch {
		case cross > 0 && sign >= 0:
			sign = 1
		case cross < 0 && sign <= 0:
			sign = -1
		case cross != 0:
			return false
		}
	}
	return sign != 0
}

func TestWedgePolygonFacingUp(t *testing.T) {
	s := Wedge(0, DefaultSpec())
	pts := s.Polygon(2)
	require.Len(t, pts, 4)

	assert.Equal(t, geometry.Point2D{}, pts[0])
	// Middle arc point lies straight up at full length
	assert.InDelta(t, 0, pts[2].X, 1e-9)
	assert.InDelta(t, -DefaultLength, pts[2].Y, 1e-9)
	// Edges are symmetric about the facing direction
	assert.InDelta(t, -pts[1].X, pts[3].X, 1e-9)
	assert.InDelta(t, pts[1].Y, pts[3].Y, 1e-9)
	assert.Less(t, pts[1].X, 0.0)

	assert.True(t, convex(pts))
}

func TestWedgeFacingRight(t *testing.T) {
	s := Wedge(90, Spec{Span: 45, Length: 100}).At(geometry.NewPoint2D(10, 10))
	pts := s.Polygon(2)
	assert.InDelta(t, 110, pts[2].X, 1e-9)
	assert.InDelta(t, 10, pts[2].Y, 1e-9)

	start, end := s.Edges()
	assert.Equal(t, 67.5, start)
	assert.Equal(t, 112.5, end)
}

func TestWedgeContains(t *testing.T) {
	s := Wedge(180, DefaultSpec()).At(geometry.NewPoint2D(100, 100))

	assert.True(t, s.Contains(geometry.NewPoint2D(100, 200)))
	assert.True(t, s.Contains(geometry.NewPoint2D(120, 200)), "within 22.5 degrees")
	assert.False(t, s.Contains(geometry.NewPoint2D(200, 200)), "45 degrees off axis")
	assert.False(t, s.Contains(geometry.NewPoint2D(100, 0)), "behind the marker")
	assert.False(t, s.Contains(geometry.NewPoint2D(100, 260)), "beyond the length")
}

func TestWedgeContainsAcrossZero(t *testing.T) {
	s := Wedge(350, DefaultSpec())
	assert.True(t, s.Contains(geometry.NewPoint2D(5, -100)), "about 13 degrees off a 350 facing")
	assert.False(t, s.Contains(geometry.NewPoint2D(60, -100)))
}

func TestWedgeScale(t *testing.T) {
	s := Wedge(0, DefaultSpec()).At(geometry.NewPoint2D(50, 40)).Scale(2)
	assert.Equal(t, geometry.NewPoint2D(100, 80), s.Apex)
	assert.Equal(t, 2*DefaultLength, s.Length)
	assert.Equal(t, DefaultSpan, s.Span)
}

func TestColorFor(t *testing.T) {
	cam := ColorFor("camera")
	proj := ColorFor("projector")
	spk := ColorFor("speaker")
	other := ColorFor("door")

	assert.Greater(t, cam.R, cam.G, "camera is red-ish")
	assert.Greater(t, proj.G, proj.B, "projector is yellow-ish")
	assert.Greater(t, spk.R, spk.G, "speaker is orange-ish")
	assert.Greater(t, other.G, other.R, "default is green")

	for _, c := range []uint8{cam.A, proj.A, spk.A, other.A} {
		assert.Equal(t, uint8(64), c)
	}
}

func TestPaletteOverrides(t *testing.T) {
	blue := color.NRGBA{B: 255, A: 64}
	p := Palette{"camera": blue}
	assert.Equal(t, blue, p.ColorFor("camera"))
	assert.Equal(t, ColorFor("speaker"), p.ColorFor("speaker"))

	var none Palette
	assert.Equal(t, ColorFor("camera"), none.ColorFor("camera"))
}
