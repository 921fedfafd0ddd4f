package brush

import (
	"fmt"

	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/logging"

	"github.com/gogpu/gg"
)

var log = logging.For("brush")

// StepKind tags the closed set of draw step variants. The first three
// values are the step type codes written to session files.
type StepKind int

const (
	StepEmpty StepKind = iota
	StepPoint
	StepScribble
	// StepFrame is a cached raster snapshot. Frames never appear in history
	// or session files.
	StepFrame
)

func (k StepKind) String() string {
	switch k {
	case StepEmpty:
		return "empty"
	case StepPoint:
		return "point"
	case StepScribble:
		return "scribble"
	case StepFrame:
		return "frame"
	}
	return fmt.Sprintf("step(%d)", int(k))
}

// Step is one recorded drawing action.
//
// Point and Scribble steps are open while their gesture is in progress and
// sealed once a Cancel arrives; only an open step can grow. Empty steps are
// placeholders marking a gesture boundary. Frame steps hold the raster state
// after steps [0..Index] and live only in the keyframe cache.
type Step struct {
	kind   StepKind
	brush  *Brush
	points []gesture.Point
	sealed bool

	index  int
	raster *gg.Pixmap
}

// NewEmpty returns an Empty step.
func NewEmpty() *Step {
	return &Step{kind: StepEmpty, sealed: true}
}

// NewRecorded rebuilds a sealed step from persisted data.
func NewRecorded(kind StepKind, b *Brush, points []gesture.Point) (*Step, error) {
	switch kind {
	case StepEmpty:
		return NewEmpty(), nil
	case StepPoint:
		if len(points) != 1 {
			return nil, fmt.Errorf("point step needs exactly one point, got %d", len(points))
		}
	case StepScribble:
		if len(points) == 0 {
			return nil, fmt.Errorf("scribble step needs at least one point")
		}
	default:
		return nil, fmt.Errorf("cannot record %s step", kind)
	}
	if b == nil {
		return nil, fmt.Errorf("%s step needs a brush", kind)
	}
	pts := make([]gesture.Point, len(points))
	copy(pts, points)
	return &Step{kind: kind, brush: b, points: pts, sealed: true}, nil
}

// NewFrame wraps a raster snapshot taken after step index.
func NewFrame(index int, raster *gg.Pixmap) *Step {
	return &Step{kind: StepFrame, index: index, raster: raster, sealed: true}
}

func (s *Step) Kind() StepKind { return s.kind }
func (s *Step) IsEmpty() bool  { return s.kind == StepEmpty }

// Brush returns the brush pinned when the step was created, nil for Empty
// and Frame steps.
func (s *Step) Brush() *Brush { return s.brush }

// Points returns the step geometry. The slice must not be modified.
func (s *Step) Points() []gesture.Point { return s.points }

func (s *Step) Sealed() bool { return s.sealed }

// Seal stops the step from accepting further continuation.
func (s *Step) Seal() { s.sealed = true }

// Index is the last history step included in a Frame.
func (s *Step) Index() int { return s.index }

// Raster is the snapshot held by a Frame.
func (s *Step) Raster() *gg.Pixmap { return s.raster }

// Reframe records that a Frame's raster now holds the state after index.
func (s *Step) Reframe(index int) {
	if s.kind != StepFrame {
		panic("brush: Reframe on " + s.kind.String() + " step")
	}
	s.index = index
}

// TryContinue offers the next action of a gesture to the step. gen is the
// generation of the brush currently selected. It reports whether the step
// absorbed the action.
func (s *Step) TryContinue(a gesture.Action, gen uint64) bool {
	switch s.kind {
	case StepEmpty:
		return a.Kind == gesture.Cancel
	case StepPoint, StepScribble:
		if s.sealed {
			return false
		}
		if a.Kind == gesture.Cancel {
			s.sealed = true
			return true
		}
		if s.kind != StepScribble || a.Kind != gesture.Scroll {
			return false
		}
		if s.brush.Generation() != gen || len(s.points) == 0 || s.points[0] != a.Start {
			return false
		}
		s.points = append(s.points, a.Historical...)
		s.points = append(s.points, a.Current)
		return true
	}
	return false
}

// Render draws the step onto dst.
func (s *Step) Render(dst *Surface) {
	switch s.kind {
	case StepEmpty:
	case StepFrame:
		dst.Blit(s.raster)
	case StepPoint, StepScribble:
		s.stroke(dst)
	}
}

func (s *Step) stroke(dst *Surface) {
	if len(s.points) == 0 || s.brush == nil {
		return
	}
	style, ok := Lookup(s.brush.kind)
	if !ok {
		style, _ = Lookup(Pen)
	}
	c := s.brush.color.withAlpha(s.brush.alpha)
	if style.Erase {
		c = dst.bg.gg()
	}
	dc := dst.context()
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	width := float64(s.brush.size)

	if len(s.points) == 1 {
		p := s.points[0]
		dc.DrawCircle(float64(p.X), float64(p.Y), width/2)
		if err := dc.Fill(); err != nil {
			log.Debug("fill failed", "kind", s.kind, "err", err)
		}
		return
	}

	dc.SetLineWidth(width)
	dc.SetLineCap(style.Cap)
	dc.SetLineJoin(style.Join)
	dc.MoveTo(float64(s.points[0].X), float64(s.points[0].Y))
	for _, p := range s.points[1:] {
		dc.LineTo(float64(p.X), float64(p.Y))
	}
	if err := dc.Stroke(); err != nil {
		log.Debug("stroke failed", "kind", s.kind, "points", len(s.points), "err", err)
	}
}
