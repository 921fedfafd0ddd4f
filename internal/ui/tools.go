package ui

import (
	"image/color"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

var palette = []brush.Color{brush.Black, brush.Red, brush.Green, brush.Blue, brush.Yellow}

type colorSwatch struct {
	widget.BaseWidget
	Color    brush.Color
	OnTapped func(brush.Color)
}

func newColorSwatch(c brush.Color, tapped func(brush.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color.NRGBA())
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Toolbar edits the board's brush and drives undo and redo. Undo and redo
// buttons follow the board's buffer-changed notifications.
type Toolbar struct {
	board *state.Board
	undo  *widget.Button
	redo  *widget.Button
	kind  *widget.Label
}

// NewToolbar builds the toolbar for board and registers its buffer-changed
// listener.
func NewToolbar(board *state.Board) *Toolbar {
	t := &Toolbar{board: board}
	t.undo = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), board.Undo)
	t.redo = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), board.Redo)
	t.undo.Disable()
	t.redo.Disable()
	t.kind = widget.NewLabel(board.Brush().Kind().String())
	board.SetBufferChangedListener(t.SetHistory)
	return t
}

// SetHistory enables the undo and redo buttons. It runs on the UI thread.
func (t *Toolbar) SetHistory(canUndo, canRedo bool) {
	setEnabled(t.undo, canUndo)
	setEnabled(t.redo, canRedo)
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (t *Toolbar) setKind(k brush.Kind) {
	t.board.SetBrush(t.board.Brush().WithKind(k))
	t.kind.SetText(k.String())
}

// Object returns the toolbar's canvas object.
func (t *Toolbar) Object() fyne.CanvasObject {
	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { t.setKind(brush.Pen) }),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), func() { t.setKind(brush.Marker) }),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() { t.setKind(brush.Eraser) }),
	)

	onColorTapped := func(c brush.Color) {
		br := t.board.Brush()
		if br.Kind() == brush.Eraser {
			br = br.WithKind(brush.Pen)
			t.kind.SetText(brush.Pen.String())
		}
		t.board.SetBrush(br.WithColor(c))
	}
	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, onColorTapped))
	}

	cur := t.board.Brush()
	sizeSlider := widget.NewSlider(1, 50)
	sizeSlider.SetValue(float64(cur.Size()))
	sizeSlider.OnChangeEnded = func(val float64) {
		t.board.SetBrush(t.board.Brush().WithSize(float32(val)))
	}
	alphaSlider := widget.NewSlider(16, 255)
	alphaSlider.SetValue(float64(cur.Alpha()))
	alphaSlider.OnChangeEnded = func(val float64) {
		t.board.SetBrush(t.board.Brush().WithAlpha(uint8(val)))
	}
	sliders := layout.NewGridWrapLayout(fyne.NewSize(120, 35))

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tools,
		t.kind,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		container.New(sliders, sizeSlider),
		widget.NewLabel("Opacity:"),
		container.New(sliders, alphaSlider),
		layout.NewSpacer(),
		t.undo,
		t.redo,
	)
}
