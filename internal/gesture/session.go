// Package gesture routes a single stream of pointer events to marker
// placement, drag, rotation, handle toggling and deletion.
package gesture

import (
	"time"

	"floorplan-annotator/pkg/geometry"
)

// PointerID identifies one logical pointer (mouse, pen or touch contact).
type PointerID int

// EventKind is the type of a pointer event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerCancel
	// Click is the synthetic click most toolkits emit after a release.
	Click
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	case Click:
		return "click"
	default:
		return "unknown"
	}
}

// Event is a raw pointer event in viewport pixels.
type Event struct {
	Kind    EventKind
	Pointer PointerID
	Pos     geometry.Point2D
	Time    time.Time
}

// Session is the live state of the router. It is one of Idle, PendingTap,
// Dragging or Rotating.
type Session interface {
	isSession()
	String() string
}

// Idle means no gesture is in progress.
type Idle struct{}

// PendingTap is a press on a marker body that has not yet moved far
// enough to count as a drag.
type PendingTap struct {
	Pointer  PointerID
	MarkerID string
	Start    geometry.Point2D // viewport pixels at press
	Initial  geometry.Point2D // marker position at press, normalized
}

// Dragging moves a marker with the pointer.
type Dragging struct {
	Pointer  PointerID
	MarkerID string
	Start    geometry.Point2D
	Initial  geometry.Point2D
}

// Rotating sets a directional marker's facing angle from the pointer.
type Rotating struct {
	Pointer  PointerID
	MarkerID string
}

func (Idle) isSession()       {}
func (PendingTap) isSession() {}
func (Dragging) isSession()   {}
func (Rotating) isSession()   {}

func (Idle) String() string       { return "idle" }
func (PendingTap) String() string { return "pending-tap" }
func (Dragging) String() string   { return "dragging" }
func (Rotating) String() string   { return "rotating" }

// owner returns the pointer that owns an active session.
func owner(s Session) (PointerID, bool) {
	switch s := s.(type) {
	case PendingTap:
		return s.Pointer, true
	case Dragging:
		return s.Pointer, true
	case Rotating:
		return s.Pointer, true
	default:
		return 0, false
	}
}

// captures reports whether a session holds pointer capture.
func captures(s Session) bool {
	switch s.(type) {
	case Dragging, Rotating:
		return true
	default:
		return false
	}
}

// Action describes what a handled event did.
type Action int

const (
	ActionIgnored Action = iota
	ActionPending
	ActionPlaced
	ActionDragStarted
	ActionMoved
	ActionRotateStarted
	ActionRotated
	ActionHandleToggled
	ActionSelected
	ActionDeselected
	ActionDeleted
	ActionSuppressed
	ActionEnded
)

var actionNames = [...]string{
	ActionIgnored:       "ignored",
	ActionPending:       "pending",
	ActionPlaced:        "placed",
	ActionDragStarted:   "drag-started",
	ActionMoved:         "moved",
	ActionRotateStarted: "rotate-started",
	ActionRotated:       "rotated",
	ActionHandleToggled: "handle-toggled",
	ActionSelected:      "selected",
	ActionDeselected:    "deselected",
	ActionDeleted:       "deleted",
	ActionSuppressed:    "suppressed",
	ActionEnded:         "ended",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Result is returned for every handled event.
type Result struct {
	Action   Action
	MarkerID string
}

// Redraw reports whether the result changed anything visible.
func (r Result) Redraw() bool {
	switch r.Action {
	case ActionIgnored, ActionPending, ActionSuppressed:
		return false
	default:
		return true
	}
}
