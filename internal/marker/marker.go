package marker

import (
	"errors"

	"floorplan-annotator/pkg/geometry"
)

// Store errors.
var (
	ErrOutOfBounds    = errors.New("position outside the image")
	ErrUnknownKind    = errors.New("unknown marker kind")
	ErrNotFound       = errors.New("marker not found")
	ErrNotDirectional = errors.New("marker kind has no facing angle")
	ErrInvalidMarker  = errors.New("invalid marker")
)

// Marker is a placed icon on the floorplan.
type Marker struct {
	ID       string           // Unique, never reused
	KindID   string           // Key into the catalog
	Position geometry.Point2D // Normalized, both axes in [0,1]
	Angle    *float64         // Degrees clockwise from up; nil for non-directional kinds
}

// FacingAngle returns the marker's angle, if it has one.
func (m Marker) FacingAngle() (float64, bool) {
	if m.Angle == nil {
		return 0, false
	}
	return *m.Angle, true
}

// clone returns a copy that shares no memory with m.
func (m Marker) clone() Marker {
	if m.Angle != nil {
		a := *m.Angle
		m.Angle = &a
	}
	return m
}

// Angle returns a pointer to a copy of deg, for building markers.
func Angle(deg float64) *float64 {
	return &deg
}

// ChangeKind identifies a store mutation.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeMoved
	ChangeRotated
	ChangeRemoved
	ChangeReplaced
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeMoved:
		return "moved"
	case ChangeRotated:
		return "rotated"
	case ChangeRemoved:
		return "removed"
	case ChangeReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Change describes a mutation. MarkerID is empty for ChangeReplaced.
type Change struct {
	Kind     ChangeKind
	MarkerID string
}

// Listener is called synchronously after every store mutation.
type Listener func(Change)
