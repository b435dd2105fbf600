package gesture

import (
	"fmt"
	"time"

	"floorplan-annotator/internal/marker"
	"floorplan-annotator/pkg/geometry"

	"github.com/rs/zerolog"
)

// PlacementTrigger selects which event places a marker on empty stage.
type PlacementTrigger int

const (
	// PlaceOnPointerDown places as soon as the pointer goes down.
	PlaceOnPointerDown PlacementTrigger = iota
	// PlaceOnClick places on the click that follows a release.
	PlaceOnClick
)

// ParsePlacementTrigger maps "pointerdown" or "click" to a trigger.
func ParsePlacementTrigger(s string) (PlacementTrigger, error) {
	switch s {
	case "", "pointerdown", "down":
		return PlaceOnPointerDown, nil
	case "click":
		return PlaceOnClick, nil
	default:
		return PlaceOnPointerDown, fmt.Errorf("unknown placement trigger %q", s)
	}
}

// Options tunes gesture recognition.
type Options struct {
	DragThreshold   float64       // pixels of travel before a press becomes a drag
	DoubleTapWindow time.Duration // max gap between taps that delete a marker
	HandleOffset    float64       // handle distance from marker center, pixels
	HandleRadius    float64       // handle hit radius, pixels
	PlaceOn         PlacementTrigger
}

// DefaultOptions returns the standard gesture tuning.
func DefaultOptions() Options {
	return Options{
		DragThreshold:   4,
		DoubleTapWindow: 300 * time.Millisecond,
		HandleOffset:    70,
		HandleRadius:    12,
		PlaceOn:         PlaceOnPointerDown,
	}
}

// Capturer grabs and releases pointer capture in the host toolkit so
// moves keep arriving after the pointer leaves the stage.
type Capturer interface {
	Capture(PointerID)
	Release(PointerID)
}

type noCapture struct{}

func (noCapture) Capture(PointerID) {}
func (noCapture) Release(PointerID) {}

// Router is the interaction state machine. It is not safe for concurrent
// use; feed it from the UI event loop.
type Router struct {
	store   *marker.Store
	opts    Options
	stage   geometry.Rect
	session Session
	ctx     Context
	capture Capturer
	log     zerolog.Logger
}

// NewRouter creates an idle router over store.
func NewRouter(store *marker.Store, opts Options, log zerolog.Logger) *Router {
	return &Router{
		store:   store,
		opts:    opts,
		session: Idle{},
		capture: noCapture{},
		log:     log.With().Str("component", "gesture").Logger(),
	}
}

// SetCapturer installs the host's pointer capture hooks.
func (r *Router) SetCapturer(c Capturer) {
	if c == nil {
		c = noCapture{}
	}
	r.capture = c
}

// SetStage updates the on-screen box of the background image.
func (r *Router) SetStage(box geometry.Rect) {
	r.stage = box
}

// Stage returns the current stage box.
func (r *Router) Stage() geometry.Rect {
	return r.stage
}

// Session returns the current session.
func (r *Router) Session() Session {
	return r.session
}

// Context returns a copy of the interaction context.
func (r *Router) Context() Context {
	return r.ctx
}

// Options returns the router's tuning.
func (r *Router) Options() Options {
	return r.opts
}

// SelectKind sets the palette kind used for placement. An empty kind
// clears the selection.
func (r *Router) SelectKind(kindID string) error {
	if kindID != "" {
		if _, ok := r.store.Catalog().Lookup(kindID); !ok {
			return fmt.Errorf("%w: %q", marker.ErrUnknownKind, kindID)
		}
	}
	r.ctx.SelectedKind = kindID
	return nil
}

// Reset abandons any gesture in progress, releasing pointer capture, and
// clears handle and selection state. Used for out-of-band cancellation
// and when the document is replaced.
func (r *Router) Reset() {
	r.enter(Idle{})
	kind := r.ctx.SelectedKind
	r.ctx = Context{SelectedKind: kind}
}

// Handle feeds one pointer event through the state machine.
func (r *Router) Handle(ev Event) Result {
	if p, active := owner(r.session); active && p != ev.Pointer {
		// One manipulation at a time
		return Result{Action: ActionIgnored}
	}

	var res Result
	switch s := r.session.(type) {
	case PendingTap:
		res = r.pending(s, ev)
	case Dragging:
		res = r.dragging(s, ev)
	case Rotating:
		res = r.rotating(s, ev)
	default:
		res = r.idle(ev)
	}

	if res.Action != ActionIgnored && ev.Kind != PointerMove {
		r.log.Debug().
			Stringer("event", ev.Kind).
			Stringer("action", res.Action).
			Str("marker", res.MarkerID).
			Stringer("session", r.session).
			Msg("gesture")
	}
	return res
}

// DoubleActivate deletes the marker under pos, whatever gesture is in
// progress. Hosts whose toolkit reports double clicks itself call this
// instead of relying on tap pairing. A double click whose taps already
// deleted a marker through Handle is ignored.
func (r *Router) DoubleActivate(pos geometry.Point2D) Result {
	if r.ctx.pairedDelete {
		r.ctx.pairedDelete = false
		return Result{Action: ActionIgnored}
	}
	m, ok := r.store.FindAt(pos, r.stage)
	if !ok {
		return Result{Action: ActionIgnored}
	}
	r.enter(Idle{})
	return r.deleteMarker(m.ID)
}

// HandleCenter returns where m's rotation handle sits in viewport pixels.
func (r *Router) HandleCenter(m marker.Marker) (geometry.Point2D, bool) {
	deg, ok := m.FacingAngle()
	if !ok {
		return geometry.Point2D{}, false
	}
	center, ok := geometry.ToViewport(m.Position, r.stage)
	if !ok {
		return geometry.Point2D{}, false
	}
	return center.Add(geometry.Heading(deg).Scale(r.opts.HandleOffset)), true
}

// enter switches sessions, acquiring or releasing capture on the way.
func (r *Router) enter(next Session) {
	prev := r.session
	if captures(prev) && !captures(next) {
		p, _ := owner(prev)
		r.capture.Release(p)
	}
	if captures(next) && !captures(prev) {
		p, _ := owner(next)
		r.capture.Capture(p)
	}
	r.session = next
}

func (r *Router) idle(ev Event) Result {
	switch ev.Kind {
	case PointerDown:
		// A new press starts a new tick; a stale suppression never
		// outlives the release that set it.
		r.ctx.suppressClick = false
		r.ctx.pairedDelete = false
		return r.press(ev)

	case Click:
		if r.ctx.suppressClick {
			r.ctx.suppressClick = false
			return Result{Action: ActionSuppressed}
		}
		if r.opts.PlaceOn != PlaceOnClick {
			return Result{Action: ActionIgnored}
		}
		if _, hit := r.store.FindAt(ev.Pos, r.stage); hit {
			return Result{Action: ActionIgnored}
		}
		return r.place(ev.Pos)
	}
	return Result{Action: ActionIgnored}
}

// press routes a pointer-down: rotation handle, then marker body, then
// empty stage.
func (r *Router) press(ev Event) Result {
	if id := r.ctx.ActiveHandle; id != "" {
		m, ok := r.store.Get(id)
		if !ok {
			r.ctx.ActiveHandle = ""
		} else if c, ok := r.HandleCenter(m); ok && c.Distance(ev.Pos) <= r.opts.HandleRadius {
			r.enter(Rotating{Pointer: ev.Pointer, MarkerID: id})
			return Result{Action: ActionRotateStarted, MarkerID: id}
		}
	}

	if m, ok := r.store.FindAt(ev.Pos, r.stage); ok {
		r.enter(PendingTap{
			Pointer:  ev.Pointer,
			MarkerID: m.ID,
			Start:    ev.Pos,
			Initial:  m.Position,
		})
		return Result{Action: ActionPending, MarkerID: m.ID}
	}

	cleared := r.ctx.ActiveHandle != "" || r.ctx.Selected != ""
	r.ctx.ActiveHandle = ""
	r.ctx.Selected = ""
	if r.opts.PlaceOn == PlaceOnPointerDown {
		if res := r.place(ev.Pos); res.Action == ActionPlaced {
			return res
		}
	}
	if cleared {
		return Result{Action: ActionDeselected}
	}
	return Result{Action: ActionIgnored}
}

// place adds a marker of the selected kind at a viewport point. Points
// outside the image are silently ignored.
func (r *Router) place(pos geometry.Point2D) Result {
	kind := r.ctx.SelectedKind
	if kind == "" {
		return Result{Action: ActionIgnored}
	}
	n, ok := geometry.ToNormalized(pos, r.stage)
	if !ok {
		r.log.Debug().Msg("placement skipped: stage not laid out")
		return Result{Action: ActionIgnored}
	}
	if !geometry.InUnitSquare(n) {
		r.log.Debug().Float64("x", n.X).Float64("y", n.Y).Msg("placement outside image ignored")
		return Result{Action: ActionIgnored}
	}
	m, err := r.store.Add(kind, n)
	if err != nil {
		r.log.Warn().Err(err).Str("kind", kind).Msg("placement failed")
		return Result{Action: ActionIgnored}
	}
	return Result{Action: ActionPlaced, MarkerID: m.ID}
}

func (r *Router) pending(s PendingTap, ev Event) Result {
	switch ev.Kind {
	case PointerMove:
		if ev.Pos.Distance(s.Start) < r.opts.DragThreshold {
			return Result{Action: ActionPending, MarkerID: s.MarkerID}
		}
		d := Dragging(s)
		r.enter(d)
		if res := r.drag(d, ev.Pos); res.Action == ActionEnded {
			return res
		}
		return Result{Action: ActionDragStarted, MarkerID: s.MarkerID}

	case PointerUp:
		r.enter(Idle{})
		r.ctx.suppressClick = true
		return r.tap(s.MarkerID, ev.Time)

	case PointerCancel:
		r.enter(Idle{})
		return Result{Action: ActionEnded, MarkerID: s.MarkerID}
	}
	return Result{Action: ActionIgnored}
}

// tap resolves a press that never became a drag.
func (r *Router) tap(id string, t time.Time) Result {
	m, ok := r.store.Get(id)
	if !ok {
		return Result{Action: ActionIgnored}
	}

	if r.ctx.isDoubleTap(id, t, r.opts.DoubleTapWindow) {
		res := r.deleteMarker(id)
		r.ctx.pairedDelete = res.Action == ActionDeleted
		return res
	}
	r.ctx.lastTap = tapRecord{markerID: id, at: t}
	r.ctx.Selected = id

	if _, directional := m.FacingAngle(); !directional {
		return Result{Action: ActionSelected, MarkerID: id}
	}
	if r.ctx.ActiveHandle == id {
		r.ctx.ActiveHandle = ""
	} else {
		r.ctx.ActiveHandle = id
	}
	return Result{Action: ActionHandleToggled, MarkerID: id}
}

func (r *Router) deleteMarker(id string) Result {
	if !r.store.Remove(id) {
		return Result{Action: ActionIgnored}
	}
	if r.ctx.ActiveHandle == id {
		r.ctx.ActiveHandle = ""
	}
	if r.ctx.Selected == id {
		r.ctx.Selected = ""
	}
	r.ctx.lastTap = tapRecord{}
	r.ctx.suppressClick = true
	return Result{Action: ActionDeleted, MarkerID: id}
}

func (r *Router) dragging(s Dragging, ev Event) Result {
	switch ev.Kind {
	case PointerMove:
		return r.drag(s, ev.Pos)
	case PointerUp, PointerCancel:
		if ev.Kind == PointerUp {
			r.drag(s, ev.Pos)
		}
		r.finish()
		return Result{Action: ActionEnded, MarkerID: s.MarkerID}
	}
	return Result{Action: ActionIgnored}
}

// drag writes initial + normalized pointer travel, clamped to the image.
func (r *Router) drag(s Dragging, pos geometry.Point2D) Result {
	if r.stage.Empty() {
		return Result{Action: ActionIgnored}
	}
	delta := pos.Sub(s.Start)
	next := s.Initial.Add(geometry.Point2D{
		X: delta.X / r.stage.Width,
		Y: delta.Y / r.stage.Height,
	})
	if err := r.store.UpdatePosition(s.MarkerID, next); err != nil {
		// Marker vanished underneath us (document replaced)
		r.log.Debug().Err(err).Msg("drag target gone")
		r.finish()
		return Result{Action: ActionEnded, MarkerID: s.MarkerID}
	}
	return Result{Action: ActionMoved, MarkerID: s.MarkerID}
}

func (r *Router) rotating(s Rotating, ev Event) Result {
	switch ev.Kind {
	case PointerMove:
		return r.rotate(s, ev.Pos)
	case PointerUp, PointerCancel:
		r.finish()
		return Result{Action: ActionEnded, MarkerID: s.MarkerID}
	}
	return Result{Action: ActionIgnored}
}

func (r *Router) rotate(s Rotating, pos geometry.Point2D) Result {
	m, ok := r.store.Get(s.MarkerID)
	if !ok {
		r.finish()
		return Result{Action: ActionEnded, MarkerID: s.MarkerID}
	}
	center, ok := geometry.ToViewport(m.Position, r.stage)
	if !ok || center.Distance(pos) < 1e-9 {
		return Result{Action: ActionIgnored}
	}
	if err := r.store.UpdateAngle(s.MarkerID, geometry.AngleFromPointer(center, pos)); err != nil {
		r.log.Debug().Err(err).Msg("rotate target rejected angle")
		r.finish()
		return Result{Action: ActionEnded, MarkerID: s.MarkerID}
	}
	return Result{Action: ActionRotated, MarkerID: s.MarkerID}
}

// finish ends a drag or rotate: back to idle, capture released, and the
// release's synthetic click swallowed.
func (r *Router) finish() {
	r.enter(Idle{})
	r.ctx.suppressClick = true
	r.ctx.lastTap = tapRecord{}
}
