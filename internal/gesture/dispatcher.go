package gesture

import (
	"math"

	"DoodleBoard/internal/logging"
)

var log = logging.For("gesture")

// State is the dispatcher's tracking state.
type State int

const (
	// Idle waits for a pointer to go down.
	Idle State = iota
	// Tracking follows a single drawing pointer.
	Tracking
	// Transforming routes a multi-pointer gesture to the viewport until
	// every pointer is released.
	Transforming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	case Transforming:
		return "transforming"
	}
	return "unknown"
}

// Viewport is the pan/zoom collaborator. Coordinates are screen coordinates.
type Viewport interface {
	ToRaster(x, y float64) (float64, float64)
	Pan(dx, dy float64)
	ZoomAt(factor, x, y float64)
}

// Dispatcher converts pointer events (screen coordinates) into gesture
// actions. It runs on the input thread and never blocks.
//
// Single-pointer gestures become Cancel / SinglePoint / Scroll actions on
// OnAction. Gestures with two or more pointers go to the Viewport and never
// reach OnAction.
type Dispatcher struct {
	OnAction func(Action)
	// Ready reports whether the canvas buffer can accept drawing. A pointer
	// going down while not ready is ignored for drawing.
	Ready    func() bool
	Viewport Viewport

	state    State
	active   int
	moved    bool
	start    Point
	pointers map[int]screenPoint

	// centroid and span of the multi-pointer gesture at the previous event.
	lastCenter screenPoint
	lastSpan   float64
}

type screenPoint struct{ x, y float64 }

// NewDispatcher creates a dispatcher delivering actions to onAction.
func NewDispatcher(vp Viewport, ready func() bool, onAction func(Action)) *Dispatcher {
	return &Dispatcher{
		OnAction: onAction,
		Ready:    ready,
		Viewport: vp,
		pointers: make(map[int]screenPoint),
	}
}

// State returns the current tracking state.
func (d *Dispatcher) State() State {
	return d.state
}

// Down reports pointer id going down at screen position (x, y).
func (d *Dispatcher) Down(id int, x, y float64) {
	if d.pointers == nil {
		d.pointers = make(map[int]screenPoint)
	}
	d.pointers[id] = screenPoint{x, y}

	if len(d.pointers) >= 2 {
		if d.state == Tracking {
			// A second finger turns the stroke into a canvas pan.
			d.emit(CancelAction())
			log.Debug("drawing gesture reinterpreted as transform", "pointers", len(d.pointers))
		}
		d.state = Transforming
		d.lastCenter, d.lastSpan = d.centroid()
		return
	}

	if d.state == Transforming {
		return
	}
	d.emit(CancelAction())
	if d.Ready != nil && !d.Ready() {
		d.state = Idle
		return
	}
	d.state = Tracking
	d.active = id
	d.moved = false
	d.start = d.toRaster(x, y)
}

// Move reports pointer id moving to (x, y). historical holds screen samples
// recorded between the previous Move and this one, oldest first; they are
// forwarded so fast swipes do not lose input.
func (d *Dispatcher) Move(id int, x, y float64, historical ...[2]float64) {
	if _, ok := d.pointers[id]; !ok {
		return
	}
	d.pointers[id] = screenPoint{x, y}

	switch d.state {
	case Tracking:
		if id != d.active {
			return
		}
		d.moved = true
		hist := make([]Point, 0, len(historical))
		for _, h := range historical {
			hist = append(hist, d.toRaster(h[0], h[1]))
		}
		d.emit(ScrollAction(d.start, d.toRaster(x, y), hist))
	case Transforming:
		d.transform()
	}
}

// Up reports pointer id released at (x, y).
func (d *Dispatcher) Up(id int, x, y float64) {
	if _, ok := d.pointers[id]; !ok {
		return
	}
	delete(d.pointers, id)

	switch d.state {
	case Tracking:
		if id != d.active {
			return
		}
		if !d.moved {
			d.emit(PointAction(d.toRaster(x, y)))
		}
		d.emit(CancelAction())
		d.state = Idle
	case Transforming:
		if len(d.pointers) == 0 {
			d.state = Idle
			return
		}
		d.lastCenter, d.lastSpan = d.centroid()
	}
}

// CancelAll aborts every pointer, e.g. when the platform steals the gesture.
func (d *Dispatcher) CancelAll() {
	if d.state == Tracking {
		d.emit(CancelAction())
	}
	for id := range d.pointers {
		delete(d.pointers, id)
	}
	d.state = Idle
}

func (d *Dispatcher) emit(a Action) {
	if d.OnAction != nil {
		d.OnAction(a)
	}
}

func (d *Dispatcher) toRaster(x, y float64) Point {
	if d.Viewport == nil {
		return Point{X: float32(x), Y: float32(y)}
	}
	rx, ry := d.Viewport.ToRaster(x, y)
	return Point{X: float32(rx), Y: float32(ry)}
}

func (d *Dispatcher) centroid() (screenPoint, float64) {
	var c screenPoint
	n := float64(len(d.pointers))
	if n == 0 {
		return c, 0
	}
	for _, p := range d.pointers {
		c.x += p.x
		c.y += p.y
	}
	c.x /= n
	c.y /= n
	var span float64
	for _, p := range d.pointers {
		span += math.Hypot(p.x-c.x, p.y-c.y)
	}
	return c, span / n
}

func (d *Dispatcher) transform() {
	c, span := d.centroid()
	if d.Viewport != nil {
		d.Viewport.Pan(c.x-d.lastCenter.x, c.y-d.lastCenter.y)
		if d.lastSpan > 0 && span > 0 {
			d.Viewport.ZoomAt(span/d.lastSpan, c.x, c.y)
		}
	}
	d.lastCenter, d.lastSpan = c, span
}
