// Package marker provides the marker type catalog and the marker store.
package marker

// MarkerType describes a kind of marker that can be placed on a floorplan.
type MarkerType struct {
	KindID      string // Stable identifier stored in documents (e.g., "camera")
	Label       string // User-facing name
	IconRef     string // Key into the icon set
	Directional bool   // Carries a facing angle and renders a cone
}

// Catalog is an immutable set of marker types, in palette order.
type Catalog struct {
	types []MarkerType
	byID  map[string]MarkerType
}

// NewCatalog creates a catalog from the given types. Later duplicates of a
// kind ID are ignored.
func NewCatalog(types ...MarkerType) *Catalog {
	c := &Catalog{byID: make(map[string]MarkerType, len(types))}
	for _, t := range types {
		if t.KindID == "" {
			continue
		}
		if _, dup := c.byID[t.KindID]; dup {
			continue
		}
		c.byID[t.KindID] = t
		c.types = append(c.types, t)
	}
	return c
}

// DefaultCatalog returns the built-in marker types.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		MarkerType{KindID: "camera", Label: "Camera", IconRef: "camera", Directional: true},
		MarkerType{KindID: "projector", Label: "Projector", IconRef: "projector", Directional: true},
		MarkerType{KindID: "speaker", Label: "Speaker", IconRef: "speaker", Directional: true},
		MarkerType{KindID: "doorlock", Label: "Door Lock", IconRef: "doorlock"},
		MarkerType{KindID: "door", Label: "Door", IconRef: "door"},
		MarkerType{KindID: "tv", Label: "TV", IconRef: "tv"},
		MarkerType{KindID: "rack", Label: "Computer Rack", IconRef: "computer_rack"},
	)
}

// Lookup returns the marker type for a kind ID.
func (c *Catalog) Lookup(kindID string) (MarkerType, bool) {
	t, ok := c.byID[kindID]
	return t, ok
}

// IsDirectional reports whether kindID names a directional kind.
func (c *Catalog) IsDirectional(kindID string) bool {
	return c.byID[kindID].Directional
}

// Types returns the marker types in palette order.
func (c *Catalog) Types() []MarkerType {
	out := make([]MarkerType, len(c.types))
	copy(out, c.types)
	return out
}
