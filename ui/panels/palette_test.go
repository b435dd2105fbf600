package panels

import (
	"testing"

	"floorplan-annotator/internal/app"
	"floorplan-annotator/internal/config"
	"floorplan-annotator/pkg/geometry"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaletteArmsAndDisarms(t *testing.T) {
	test.NewApp()
	state := app.NewState(config.Default(), zerolog.Nop())
	p := NewPalette(state)
	require.Len(t, p.buttons, len(state.Catalog.Types()))

	test.Tap(p.buttons["camera"])
	assert.Equal(t, "camera", state.Router.Context().SelectedKind)
	assert.Equal(t, "camera", p.Selected())
	assert.Equal(t, widget.HighImportance, p.buttons["camera"].Importance)

	test.Tap(p.buttons["tv"])
	assert.Equal(t, "tv", state.Router.Context().SelectedKind)
	assert.Equal(t, widget.MediumImportance, p.buttons["camera"].Importance)

	test.Tap(p.buttons["tv"])
	assert.Equal(t, "", state.Router.Context().SelectedKind)
	assert.Equal(t, widget.MediumImportance, p.buttons["tv"].Importance)
}

func TestPaletteCountsMarkers(t *testing.T) {
	test.NewApp()
	state := app.NewState(config.Default(), zerolog.Nop())
	p := NewPalette(state)
	assert.Equal(t, "0 markers placed", p.countLabel.Text)

	_, err := state.Store.Add("door", geometry.NewPoint2D(0.5, 0.5))
	require.NoError(t, err)
	assert.Equal(t, "1 marker placed", p.countLabel.Text)
}
