package marker

import (
	"fmt"
	"sync"

	"floorplan-annotator/pkg/geometry"

	"github.com/google/uuid"
)

// DefaultHitSize is the side of the square hit box around a marker's
// projected center, in viewport pixels. It matches the icon size.
const DefaultHitSize = 32.0

// Store holds the authoritative marker list. Slice order is insertion
// order and doubles as z-order: later markers draw on top.
type Store struct {
	mu sync.RWMutex

	catalog *Catalog

	// All markers indexed by ID
	markers map[string]*Marker
	order   []string

	hitSize   float64
	newID     func() string
	listeners []Listener
}

// NewStore creates an empty store backed by the given catalog.
func NewStore(catalog *Catalog) *Store {
	return &Store{
		catalog: catalog,
		markers: make(map[string]*Marker),
		order:   make([]string, 0),
		hitSize: DefaultHitSize,
		newID:   uuid.NewString,
	}
}

// Catalog returns the catalog used to validate kinds.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// SetHitSize changes the hit box side used by FindAt.
func (s *Store) SetHitSize(px float64) {
	if px <= 0 {
		return
	}
	s.mu.Lock()
	s.hitSize = px
	s.mu.Unlock()
}

// On registers a change listener.
func (s *Store) On(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Store) emit(c Change) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		l(c)
	}
}

// Add places a new marker. The position must already be inside the unit
// square; directional kinds start facing up.
func (s *Store) Add(kindID string, pos geometry.Point2D) (Marker, error) {
	kind, ok := s.catalog.Lookup(kindID)
	if !ok {
		return Marker{}, fmt.Errorf("%w: %q", ErrUnknownKind, kindID)
	}
	if !geometry.InUnitSquare(pos) {
		return Marker{}, fmt.Errorf("%w: (%.3f, %.3f)", ErrOutOfBounds, pos.X, pos.Y)
	}

	m := &Marker{ID: s.newID(), KindID: kindID, Position: pos}
	if kind.Directional {
		m.Angle = Angle(0)
	}

	s.mu.Lock()
	s.markers[m.ID] = m
	s.order = append(s.order, m.ID)
	out := m.clone()
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeAdded, MarkerID: m.ID})
	return out, nil
}

// Remove deletes a marker. Returns false if it did not exist.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	if _, ok := s.markers[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.markers, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeRemoved, MarkerID: id})
	return true
}

// UpdatePosition moves a marker, clipping the position to the image edges.
func (s *Store) UpdatePosition(id string, pos geometry.Point2D) error {
	s.mu.Lock()
	m, ok := s.markers[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.Position = geometry.ClampUnit(pos)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeMoved, MarkerID: id})
	return nil
}

// UpdateAngle sets a directional marker's facing angle, wrapped into [0,360).
func (s *Store) UpdateAngle(id string, deg float64) error {
	s.mu.Lock()
	m, ok := s.markers[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !s.catalog.IsDirectional(m.KindID) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotDirectional, m.KindID)
	}
	m.Angle = Angle(geometry.NormalizeAngle(deg))
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeRotated, MarkerID: id})
	return nil
}

// Get returns a copy of the marker with the given ID.
func (s *Store) Get(id string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markers[id]
	if !ok {
		return Marker{}, false
	}
	return m.clone(), true
}

// Markers returns copies of all markers in z-order.
func (s *Store) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Marker, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.markers[id].clone())
	}
	return out
}

// Len returns the number of markers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// FindAt returns the topmost marker whose hit box contains the viewport
// point p, given the current stage box.
func (s *Store) FindAt(p geometry.Point2D, stage geometry.Rect) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.markers[s.order[i]]
		center, ok := geometry.ToViewport(m.Position, stage)
		if !ok {
			return Marker{}, false
		}
		if geometry.RectAround(center, s.hitSize).Contains(p) {
			return m.clone(), true
		}
	}
	return Marker{}, false
}

// ReplaceAll swaps in a new marker list. The whole list is validated first;
// on error the store is unchanged. Positions are clamped and angles are
// normalized, defaulted or dropped to match each kind.
func (s *Store) ReplaceAll(markers []Marker) error {
	next, order, err := s.prepare(markers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.markers = next
	s.order = order
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReplaced})
	return nil
}

// Validate checks a marker list without applying it.
func (s *Store) Validate(markers []Marker) error {
	_, _, err := s.prepare(markers)
	return err
}

// Clear removes all markers.
func (s *Store) Clear() {
	s.mu.Lock()
	s.markers = make(map[string]*Marker)
	s.order = make([]string, 0)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeReplaced})
}

func (s *Store) prepare(markers []Marker) (map[string]*Marker, []string, error) {
	next := make(map[string]*Marker, len(markers))
	order := make([]string, 0, len(markers))

	for i, in := range markers {
		if in.ID == "" {
			return nil, nil, fmt.Errorf("%w: marker %d has no id", ErrInvalidMarker, i)
		}
		if _, dup := next[in.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidMarker, in.ID)
		}
		kind, ok := s.catalog.Lookup(in.KindID)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q (marker %s)", ErrUnknownKind, in.KindID, in.ID)
		}

		m := &Marker{
			ID:       in.ID,
			KindID:   in.KindID,
			Position: geometry.ClampUnit(in.Position),
		}
		if kind.Directional {
			deg, _ := in.FacingAngle()
			m.Angle = Angle(geometry.NormalizeAngle(deg))
		}

		next[m.ID] = m
		order = append(order, m.ID)
	}
	return next, order, nil
}
