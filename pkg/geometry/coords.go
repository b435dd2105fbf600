package geometry

import "math"

// Marker positions live in normalized space: fractions of the background
// image's displayed width and height. Pixels are always derived from it
// against the stage box, the on-screen rectangle of the rendered image in
// viewport pixels.

// ToNormalized converts a viewport point into normalized stage coordinates.
// The result is not clamped; values outside [0,1] mean the point lies
// outside the image. ok is false when the stage box has not been laid out.
func ToNormalized(p Point2D, stage Rect) (n Point2D, ok bool) {
	if stage.Empty() {
		return Point2D{}, false
	}
	return Point2D{
		X: (p.X - stage.X) / stage.Width,
		Y: (p.Y - stage.Y) / stage.Height,
	}, true
}

// ToViewport converts normalized coordinates back into viewport pixels.
func ToViewport(n Point2D, stage Rect) (p Point2D, ok bool) {
	if stage.Empty() {
		return Point2D{}, false
	}
	return Point2D{
		X: stage.X + n.X*stage.Width,
		Y: stage.Y + n.Y*stage.Height,
	}, true
}

// InUnitSquare reports whether both coordinates are within [0,1].
func InUnitSquare(n Point2D) bool {
	return n.X >= 0 && n.X <= 1 && n.Y >= 0 && n.Y <= 1
}

// ClampUnit clips both coordinates into [0,1].
func ClampUnit(n Point2D) Point2D {
	return Point2D{X: clamp01(n.X), Y: clamp01(n.Y)}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeAngle wraps degrees into [0,360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// -tiny + 360 rounds to 360
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleFromDelta returns the facing angle for a pointer offset (dx, dy)
// from a marker, in degrees clockwise from screen up.
func AngleFromDelta(dx, dy float64) float64 {
	return NormalizeAngle(math.Atan2(dy, dx)*180/math.Pi + 90)
}

// AngleFromPointer returns the facing angle from center toward pointer.
func AngleFromPointer(center, pointer Point2D) float64 {
	return AngleFromDelta(pointer.X-center.X, pointer.Y-center.Y)
}

// Heading returns the unit vector for a facing angle in screen space
// (y grows downward), so 0 points up and 90 points right.
func Heading(deg float64) Point2D {
	rad := deg * math.Pi / 180
	return Point2D{X: math.Sin(rad), Y: -math.Cos(rad)}
}
