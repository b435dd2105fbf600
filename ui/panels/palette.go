// Package panels provides UI panels for the application.
package panels

import (
	"fmt"

	"floorplan-annotator/internal/app"
	"floorplan-annotator/internal/marker"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Palette lists the marker kinds. Pressing a kind arms it for placement;
// pressing it again disarms it.
type Palette struct {
	state     *app.State
	container fyne.CanvasObject

	buttons    map[string]*widget.Button
	countLabel *widget.Label
	selected   string
}

// NewPalette creates a palette for state's catalog.
func NewPalette(state *app.State) *Palette {
	p := &Palette{
		state:   state,
		buttons: make(map[string]*widget.Button),
	}

	items := []fyne.CanvasObject{widget.NewLabelWithStyle("Markers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})}
	for _, t := range state.Catalog.Types() {
		t := t
		label := t.Label
		if t.Directional {
			label += " ↻"
		}
		btn := widget.NewButton(label, func() { p.toggle(t) })
		btn.Alignment = widget.ButtonAlignLeading
		p.buttons[t.KindID] = btn
		items = append(items, btn)
	}

	p.countLabel = widget.NewLabel("")
	p.updateCount()
	items = append(items, widget.NewSeparator(), p.countLabel)

	state.On(app.EventMarkersChanged, func(interface{}) { p.updateCount() })

	p.container = container.NewVScroll(container.NewVBox(items...))
	return p
}

// Container returns the panel container.
func (p *Palette) Container() fyne.CanvasObject {
	return p.container
}

// Selected returns the armed kind, or "".
func (p *Palette) Selected() string {
	return p.selected
}

func (p *Palette) toggle(t marker.MarkerType) {
	next := t.KindID
	if p.selected == t.KindID {
		next = ""
	}
	if err := p.state.SelectKind(next); err != nil {
		return
	}
	// EventKindSelected normally highlights; an empty kind still has to
	// clear the buttons.
	p.Highlight(next)
}

// Highlight marks kindID as the armed kind.
func (p *Palette) Highlight(kindID string) {
	p.selected = kindID
	for id, btn := range p.buttons {
		if id == kindID {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

func (p *Palette) updateCount() {
	n := p.state.Store.Len()
	if n == 1 {
		p.countLabel.SetText("1 marker placed")
		return
	}
	p.countLabel.SetText(fmt.Sprintf("%d markers placed", n))
}
