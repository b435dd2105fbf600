// Package canvas provides the stage widget: the floorplan with its markers,
// driven by the gesture router.
package canvas

import (
	"image"
	"sync"
	"time"

	"floorplan-annotator/internal/app"
	"floorplan-annotator/internal/gesture"
	annoimage "floorplan-annotator/internal/image"
	"floorplan-annotator/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

const zoomStep = 1.25

// The desktop driver reports a single mouse.
const mousePointer gesture.PointerID = 1

// Stage displays the background and markers and turns mouse input into
// gesture events. Positions are widget-local, which is the viewport the
// router's stage box is expressed in.
type Stage struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster
	log    zerolog.Logger

	mu       sync.Mutex
	viewport geometry.Viewport
	display  geometry.Size // background size at zoom 1
	captured bool
	lastPos  geometry.Point2D

	// Callbacks
	onResult     func(gesture.Result)
	onZoomChange func(zoom float64)
}

var (
	_ fyne.Widget       = (*Stage)(nil)
	_ desktop.Mouseable = (*Stage)(nil)
	_ desktop.Hoverable = (*Stage)(nil)
	_ fyne.Draggable    = (*Stage)(nil)
	_ fyne.Tappable     = (*Stage)(nil)
	_ fyne.Scrollable   = (*Stage)(nil)
	_ gesture.Capturer  = (*Stage)(nil)
)

// NewStage creates a stage bound to state's router and store.
func NewStage(state *app.State, log zerolog.Logger) *Stage {
	s := &Stage{
		state:    state,
		log:      log.With().Str("component", "stage").Logger(),
		viewport: geometry.NewViewport(geometry.Point2D{}),
	}
	s.raster = fynecanvas.NewRaster(s.draw)
	s.ExtendBaseWidget(s)

	state.Router.SetCapturer(s)
	return s
}

// OnResult sets a callback invoked with every router result that changed
// something.
func (s *Stage) OnResult(callback func(gesture.Result)) {
	s.onResult = callback
}

// OnZoomChange sets a callback for zoom changes.
func (s *Stage) OnZoomChange(callback func(zoom float64)) {
	s.onZoomChange = callback
}

// Capture implements gesture.Capturer. The desktop driver already keeps
// delivering drag events to the widget that started the drag; while
// captured, hover moves are dropped so only drag moves reach the router.
func (s *Stage) Capture(gesture.PointerID) {
	s.mu.Lock()
	s.captured = true
	s.mu.Unlock()
}

// Release implements gesture.Capturer.
func (s *Stage) Release(gesture.PointerID) {
	s.mu.Lock()
	s.captured = false
	s.mu.Unlock()
}

// DisplaySize returns the background's on-screen size at zoom 1. Raster
// exports scale icons and cones by native size over this.
func (s *Stage) DisplaySize() geometry.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// Zoom returns the current viewer scale.
func (s *Stage) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport.Zoom
}

// ZoomIn zooms about the widget center.
func (s *Stage) ZoomIn() {
	s.zoomAt(zoomStep, s.center())
}

// ZoomOut zooms about the widget center.
func (s *Stage) ZoomOut() {
	s.zoomAt(1/zoomStep, s.center())
}

// ResetView restores zoom 1 with the background centered.
func (s *Stage) ResetView() {
	s.mu.Lock()
	s.viewport.Zoom = 1
	s.viewport.Pan = geometry.Point2D{}
	s.mu.Unlock()
	s.relayout()
	s.notifyZoom()
}

func (s *Stage) center() geometry.Point2D {
	size := s.Size()
	return geometry.NewPoint2D(float64(size.Width)/2, float64(size.Height)/2)
}

func (s *Stage) zoomAt(factor float64, anchor geometry.Point2D) {
	s.mu.Lock()
	s.viewport = s.viewport.ZoomAt(factor, anchor)
	s.mu.Unlock()
	s.relayout()
	s.notifyZoom()
}

func (s *Stage) notifyZoom() {
	if s.onZoomChange != nil {
		s.onZoomChange(s.Zoom())
	}
}

// Resize lays the background out again for the new size.
func (s *Stage) Resize(size fyne.Size) {
	s.BaseWidget.Resize(size)
	s.relayout()
}

// Refresh recomputes the stage box and redraws.
func (s *Stage) Refresh() {
	s.relayout()
	s.BaseWidget.Refresh()
}

// relayout fits the background into the widget, centers it, and pushes
// the resulting stage box to the router.
func (s *Stage) relayout() {
	size := s.Size()
	area := geometry.NewSize(float64(size.Width), float64(size.Height))

	var native geometry.Size
	if bg := s.state.Background(); bg != nil {
		native = bg.Size()
	}

	s.mu.Lock()
	s.display = FitDisplay(native, area)
	s.viewport.Origin = geometry.NewPoint2D(
		(area.Width-s.display.Width)/2,
		(area.Height-s.display.Height)/2,
	)
	stage := s.viewport.StageBox(s.display)
	s.mu.Unlock()

	s.state.Router.SetStage(stage)
	s.raster.Refresh()
}

// FitDisplay scales native to fit inside area keeping its aspect ratio.
func FitDisplay(native, area geometry.Size) geometry.Size {
	if native.Empty() || area.Empty() {
		return geometry.Size{}
	}
	f := area.Width / native.Width
	if fy := area.Height / native.Height; fy < f {
		f = fy
	}
	return geometry.NewSize(native.Width*f, native.Height*f)
}

// draw is the raster drawing function. w and h are device pixels; the
// router works in widget units, so the view is scaled between them.
func (s *Stage) draw(w, h int) image.Image {
	size := s.Size()
	f := 1.0
	if size.Width > 0 {
		f = float64(w) / float64(size.Width)
	}

	s.mu.Lock()
	zoom := s.viewport.Zoom
	s.mu.Unlock()

	router := s.state.Router
	stage := router.Stage()
	ctx := router.Context()

	v := annoimage.View{
		Size:     image.Pt(w, h),
		Stage:    geometry.NewRect(stage.X*f, stage.Y*f, stage.Width*f, stage.Height*f),
		Markers:  s.state.Store.Markers(),
		Zoom:     zoom * f,
		Selected: ctx.Selected,
	}
	if bg := s.state.Background(); bg != nil {
		v.Background = bg.Image
	}
	if ctx.ActiveHandle != "" {
		if m, ok := s.state.Store.Get(ctx.ActiveHandle); ok {
			if at, ok := router.HandleCenter(m); ok {
				v.HandleFor = m.ID
				v.Handle = at.Scale(f)
			}
		}
	}

	img, err := s.state.Rasterizer.RenderView(v)
	if err != nil {
		s.log.Error().Err(err).Msg("stage render failed")
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return img
}

func (s *Stage) feed(kind gesture.EventKind, pos fyne.Position) {
	p := geometry.NewPoint2D(float64(pos.X), float64(pos.Y))
	s.mu.Lock()
	s.lastPos = p
	s.mu.Unlock()

	res := s.state.Router.Handle(gesture.Event{
		Kind:    kind,
		Pointer: mousePointer,
		Pos:     p,
		Time:    time.Now(),
	})
	s.after(res)
}

func (s *Stage) after(res gesture.Result) {
	if !res.Redraw() {
		return
	}
	s.raster.Refresh()
	if s.onResult != nil {
		s.onResult(res)
	}
}

// MouseDown implements desktop.Mouseable.
func (s *Stage) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.feed(gesture.PointerDown, ev.Position)
}

// MouseUp implements desktop.Mouseable.
func (s *Stage) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.feed(gesture.PointerUp, ev.Position)
}

// MouseIn implements desktop.Hoverable.
func (s *Stage) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable.
func (s *Stage) MouseMoved(ev *desktop.MouseEvent) {
	s.mu.Lock()
	captured := s.captured
	s.mu.Unlock()
	if captured {
		return
	}
	s.feed(gesture.PointerMove, ev.Position)
}

// MouseOut implements desktop.Hoverable.
func (s *Stage) MouseOut() {}

// Dragged implements fyne.Draggable. Drag events keep arriving after the
// pointer leaves the widget.
func (s *Stage) Dragged(ev *fyne.DragEvent) {
	s.feed(gesture.PointerMove, ev.Position)
}

// DragEnd implements fyne.Draggable. The driver usually reports MouseUp
// first, in which case the router is already idle and ignores this.
func (s *Stage) DragEnd() {
	s.mu.Lock()
	last := s.lastPos
	s.mu.Unlock()
	s.feed(gesture.PointerUp, fyne.NewPos(float32(last.X), float32(last.Y)))
}

// Tapped implements fyne.Tappable as the synthetic click. Stage is not
// DoubleTappable: the router pairs taps from MouseDown and MouseUp itself,
// and fyne would otherwise delay every Tapped.
func (s *Stage) Tapped(ev *fyne.PointEvent) {
	s.feed(gesture.Click, ev.Position)
}

// Scrolled implements fyne.Scrollable: the wheel zooms about the pointer,
// horizontal scrolling pans.
func (s *Stage) Scrolled(ev *fyne.ScrollEvent) {
	anchor := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	switch {
	case ev.Scrolled.DY > 0:
		s.zoomAt(zoomStep, anchor)
	case ev.Scrolled.DY < 0:
		s.zoomAt(1/zoomStep, anchor)
	case ev.Scrolled.DX != 0:
		s.mu.Lock()
		s.viewport = s.viewport.PanBy(geometry.NewPoint2D(float64(ev.Scrolled.DX), 0))
		s.mu.Unlock()
		s.relayout()
	}
}

// CreateRenderer implements fyne.Widget.
func (s *Stage) CreateRenderer() fyne.WidgetRenderer {
	return &stageRenderer{stage: s}
}

type stageRenderer struct {
	stage *Stage
}

func (r *stageRenderer) Layout(size fyne.Size) {
	r.stage.raster.Resize(size)
}

func (r *stageRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

func (r *stageRenderer) Refresh() {
	r.stage.raster.Refresh()
}

func (r *stageRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.stage.raster}
}

func (r *stageRenderer) Destroy() {}
