package marker

import (
	"testing"

	"floorplan-annotator/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(DefaultCatalog())
	n := 0
	s.newID = func() string {
		n++
		return "m" + string(rune('0'+n))
	}
	return s
}

func TestStore_AddDirectionalDefault(t *testing.T) {
	s := newTestStore(t)

	cam, err := s.Add("camera", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)
	deg, ok := cam.FacingAngle()
	require.True(t, ok, "camera should carry a facing angle")
	assert.Equal(t, 0.0, deg)

	door, err := s.Add("door", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)
	_, ok = door.FacingAngle()
	assert.False(t, ok, "door should have no facing angle")

	assert.NotEqual(t, cam.ID, door.ID)
	assert.Equal(t, 2, s.Len())
}

func TestStore_AddRejects(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("camera", geometry.NewPoint2D(1.01, 0.5))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = s.Add("camera", geometry.NewPoint2D(0.5, -0.01))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = s.Add("submarine", geometry.NewPoint2D(0.5, 0.5))
	assert.ErrorIs(t, err, ErrUnknownKind)

	assert.Equal(t, 0, s.Len())
}

func TestStore_AddOnEdgesAccepted(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add("tv", geometry.NewPoint2D(0, 1))
	assert.NoError(t, err)
}

func TestStore_UpdatePositionClamps(t *testing.T) {
	s := newTestStore(t)
	m, err := s.Add("tv", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)

	require.NoError(t, s.UpdatePosition(m.ID, geometry.NewPoint2D(-0.5, 1.7)))

	got, ok := s.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, geometry.NewPoint2D(0, 1), got.Position)

	assert.ErrorIs(t, s.UpdatePosition("missing", geometry.Point2D{}), ErrNotFound)
}

func TestStore_UpdateAngleNormalizes(t *testing.T) {
	s := newTestStore(t)
	m, err := s.Add("camera", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)

	require.NoError(t, s.UpdateAngle(m.ID, 370))
	got, _ := s.Get(m.ID)
	deg, _ := got.FacingAngle()
	assert.InDelta(t, 10, deg, 1e-9)

	require.NoError(t, s.UpdateAngle(m.ID, -30))
	got, _ = s.Get(m.ID)
	deg, _ = got.FacingAngle()
	assert.InDelta(t, 330, deg, 1e-9)
}

func TestStore_UpdateAngleNonDirectional(t *testing.T) {
	s := newTestStore(t)
	m, err := s.Add("rack", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)

	assert.ErrorIs(t, s.UpdateAngle(m.ID, 90), ErrNotDirectional)
	got, _ := s.Get(m.ID)
	assert.Nil(t, got.Angle)
}

func TestStore_ReturnedMarkersAreCopies(t *testing.T) {
	s := newTestStore(t)
	m, err := s.Add("camera", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)

	*m.Angle = 123
	m.Position.X = 0.9

	got, _ := s.Get(m.ID)
	deg, _ := got.FacingAngle()
	assert.Equal(t, 0.0, deg)
	assert.Equal(t, 0.5, got.Position.X)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add("tv", geometry.NewPoint2D(0.1, 0.1))
	b, _ := s.Add("tv", geometry.NewPoint2D(0.2, 0.2))
	c, _ := s.Add("tv", geometry.NewPoint2D(0.3, 0.3))

	assert.True(t, s.Remove(b.ID))
	assert.False(t, s.Remove(b.ID))

	ids := []string{}
	for _, m := range s.Markers() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{a.ID, c.ID}, ids)
}

func TestStore_FindAtTopmost(t *testing.T) {
	s := newTestStore(t)
	stage := geometry.NewRect(100, 50, 1000, 500)

	bottom, _ := s.Add("tv", geometry.NewPoint2D(0.5, 0.5))
	top, _ := s.Add("door", geometry.NewPoint2D(0.51, 0.5))

	// (600,300) is bottom's center; top's center is at (610,300), both boxes cover it
	got, ok := s.FindAt(geometry.NewPoint2D(600, 300), stage)
	require.True(t, ok)
	assert.Equal(t, top.ID, got.ID)

	// Only bottom covers (586,300)
	got, ok = s.FindAt(geometry.NewPoint2D(586, 300), stage)
	require.True(t, ok)
	assert.Equal(t, bottom.ID, got.ID)

	_, ok = s.FindAt(geometry.NewPoint2D(700, 300), stage)
	assert.False(t, ok)

	_, ok = s.FindAt(geometry.NewPoint2D(600, 300), geometry.Rect{})
	assert.False(t, ok, "unlaid-out stage should never hit")
}

func TestStore_ReplaceAll(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.Add("tv", geometry.NewPoint2D(0.5, 0.5))

	err := s.ReplaceAll([]Marker{
		{ID: "a", KindID: "camera", Position: geometry.NewPoint2D(0.2, 0.3), Angle: Angle(450)},
		{ID: "b", KindID: "speaker", Position: geometry.NewPoint2D(1.2, -3)},
		{ID: "c", KindID: "door", Position: geometry.NewPoint2D(0.9, 0.9), Angle: Angle(45)},
	})
	require.NoError(t, err)

	got := s.Markers()
	require.Len(t, got, 3)
	assert.InDelta(t, 90, *got[0].Angle, 1e-9)
	assert.Equal(t, geometry.NewPoint2D(1, 0), got[1].Position)
	assert.Equal(t, 0.0, *got[1].Angle, "directional kind without rotation defaults to 0")
	assert.Nil(t, got[2].Angle, "non-directional angle is dropped")
}

func TestStore_ReplaceAllIsAtomic(t *testing.T) {
	s := newTestStore(t)
	existing, _ := s.Add("tv", geometry.NewPoint2D(0.5, 0.5))

	tests := []struct {
		name    string
		markers []Marker
		want    error
	}{
		{"duplicate id", []Marker{{ID: "x", KindID: "tv"}, {ID: "x", KindID: "tv"}}, ErrInvalidMarker},
		{"empty id", []Marker{{KindID: "tv"}}, ErrInvalidMarker},
		{"unknown kind", []Marker{{ID: "x", KindID: "tv"}, {ID: "y", KindID: "ufo"}}, ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.ReplaceAll(tt.markers), tt.want)
			got := s.Markers()
			require.Len(t, got, 1)
			assert.Equal(t, existing.ID, got[0].ID)
		})
	}
}

func TestStore_Listeners(t *testing.T) {
	s := newTestStore(t)
	var changes []Change
	s.On(func(c Change) { changes = append(changes, c) })

	m, _ := s.Add("camera", geometry.NewPoint2D(0.5, 0.5))
	_ = s.UpdatePosition(m.ID, geometry.NewPoint2D(0.6, 0.6))
	_ = s.UpdateAngle(m.ID, 15)
	s.Remove(m.ID)
	s.Clear()

	kinds := make([]ChangeKind, 0, len(changes))
	for _, c := range changes {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []ChangeKind{ChangeAdded, ChangeMoved, ChangeRotated, ChangeRemoved, ChangeReplaced}, kinds)
}
