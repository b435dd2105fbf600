package gesture

import "time"

// Context is the interaction state shared between gestures: the palette
// selection, which marker shows its rotation handle, and the bookkeeping
// that spans more than one session.
type Context struct {
	SelectedKind string // palette kind used for placement; empty = none
	ActiveHandle string // marker whose rotation handle is visible
	Selected     string // last tapped marker

	// suppressClick is set when a marker gesture ends and consumed by the
	// very next Click, so the release of a drag never places a marker.
	suppressClick bool

	// pairedDelete is set when two taps deleted a marker. A toolkit double
	// click reported for the same taps is then dropped by DoubleActivate.
	pairedDelete bool

	lastTap tapRecord
}

type tapRecord struct {
	markerID string
	at       time.Time
}

// ClickSuppressed reports whether the next click will be swallowed.
func (c Context) ClickSuppressed() bool {
	return c.suppressClick
}

// isDoubleTap reports whether a tap on id at t completes a double tap.
func (c Context) isDoubleTap(id string, t time.Time, window time.Duration) bool {
	if c.lastTap.markerID != id || t.IsZero() || c.lastTap.at.IsZero() {
		return false
	}
	d := t.Sub(c.lastTap.at)
	return d >= 0 && d <= window
}
