package ui

import (
	"image"
	"image/color"
	"sync"

	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/logging"
	"DoodleBoard/internal/state"
	"DoodleBoard/internal/viewport"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"
)

var log = logging.For("ui")

// zoomStep is the scale factor applied per wheel notch.
const zoomStep = 1.1

// BoardWidget presents frames through a pan/zoom viewport. With a board
// attached, primary-button input draws on it; the secondary button pans
// and the wheel zooms. Without a board it only displays frames.
type BoardWidget struct {
	widget.BaseWidget

	board    *state.Board
	view     *viewport.Transform
	gestures *gesture.Dispatcher
	raster   *canvas.Raster
	bg       color.Color

	mu      sync.Mutex
	frame   image.Image
	rw, rh  int
	pw, ph  int
	pxScale float64

	panning bool
	panFrom fyne.Position
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

// NewBoardWidget creates a widget drawing on board. board may be nil for a
// display-only widget.
func NewBoardWidget(board *state.Board, bg color.Color) *BoardWidget {
	b := &BoardWidget{
		board:   board,
		view:    viewport.New(1, 1, 1, 1),
		bg:      bg,
		pxScale: 1,
	}
	if board != nil {
		b.gestures = gesture.NewDispatcher(b.view, board.Ready, board.Dispatch)
	}
	b.raster = canvas.NewRaster(b.generate)
	b.raster.ScaleMode = canvas.ImageScalePixels
	b.raster.SetMinSize(fyne.NewSize(300, 300))
	b.ExtendBaseWidget(b)
	return b
}

// SetFrame shows img on the next paint. It must run on the UI thread.
func (b *BoardWidget) SetFrame(img image.Image) {
	b.mu.Lock()
	b.frame = img
	b.mu.Unlock()
	b.raster.Refresh()
}

// ResetView returns to the best-fit zoom, centred.
func (b *BoardWidget) ResetView() {
	b.view.Reset()
	b.raster.Refresh()
}

// generate paints the current frame at the raster's pixel size and tells
// the board about size changes.
func (b *BoardWidget) generate(w, h int) image.Image {
	b.mu.Lock()
	resized := w != b.pw || h != b.ph
	b.pw, b.ph = w, h
	if size := b.Size(); size.Width > 0 {
		b.pxScale = float64(w) / float64(size.Width)
	}
	frame := b.frame
	if frame != nil {
		fb := frame.Bounds()
		if resized || fb.Dx() != b.rw || fb.Dy() != b.rh {
			b.rw, b.rh = fb.Dx(), fb.Dy()
			b.view.Resize(b.rw, b.rh, w, h)
		}
	}
	b.mu.Unlock()

	if resized && b.board != nil {
		b.board.SurfaceReady(w, h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if frame == nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(b.bg), image.Point{}, draw.Src)
		return dst
	}
	b.view.Present(dst, frame, b.bg)
	return dst
}

func (b *BoardWidget) toPixels(p fyne.Position) (float64, float64) {
	b.mu.Lock()
	s := b.pxScale
	b.mu.Unlock()
	return float64(p.X) * s, float64(p.Y) * s
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	switch e.Button {
	case desktop.MouseButtonPrimary:
		if b.gestures != nil {
			x, y := b.toPixels(e.Position)
			b.gestures.Down(0, x, y)
		}
	case desktop.MouseButtonSecondary:
		b.panning = true
		b.panFrom = e.Position
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	switch e.Button {
	case desktop.MouseButtonPrimary:
		if b.gestures != nil {
			x, y := b.toPixels(e.Position)
			b.gestures.Up(0, x, y)
		}
	case desktop.MouseButtonSecondary:
		b.panning = false
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if b.gestures == nil {
		// display-only widgets pan with either button
		x, y := b.toPixels(fyne.NewPos(e.Dragged.DX, e.Dragged.DY))
		b.view.Pan(x, y)
		b.raster.Refresh()
		return
	}
	x, y := b.toPixels(e.Position)
	b.gestures.Move(0, x, y)
}

func (b *BoardWidget) DragEnd() {}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	if !b.panning {
		return
	}
	d := e.Position.Subtract(b.panFrom)
	b.panFrom = e.Position
	x, y := b.toPixels(fyne.NewPos(d.X, d.Y))
	b.view.Pan(x, y)
	b.raster.Refresh()
}

func (b *BoardWidget) MouseOut() {
	b.panning = false
	if b.gestures != nil {
		b.gestures.CancelAll()
	}
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	factor := zoomStep
	if e.Scrolled.DY < 0 {
		factor = 1 / zoomStep
	} else if e.Scrolled.DY == 0 {
		return
	}
	x, y := b.toPixels(e.Position)
	b.view.ZoomAt(factor, x, y)
	log.Debug("zoom", "scale", b.view.Scale())
	b.raster.Refresh()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.raster)
}
