// Package gesture turns raw pointer events into drawing gesture actions.
package gesture

import "fmt"

// Point is a position in raster coordinates.
type Point struct {
	X, Y float32
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Kind tags the Action variant.
type Kind int

const (
	// Cancel terminates the step group in progress.
	Cancel Kind = iota
	// SinglePoint is a tap without movement.
	SinglePoint
	// Scroll is a single-pointer move.
	Scroll
)

func (k Kind) String() string {
	switch k {
	case Cancel:
		return "cancel"
	case SinglePoint:
		return "point"
	case Scroll:
		return "scroll"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Action is an abstract gesture delivered to a canvas buffer. Actions are
// ephemeral and never persisted.
//
// For SinglePoint only Current is set. For Scroll, Start is where the gesture
// began, Current the latest position and Historical the samples delivered
// between the previous Scroll and this one, oldest first.
type Action struct {
	Kind       Kind
	Start      Point
	Current    Point
	Historical []Point
}

// CancelAction returns a Cancel action.
func CancelAction() Action {
	return Action{Kind: Cancel}
}

// PointAction returns a SinglePoint action at p.
func PointAction(p Point) Action {
	return Action{Kind: SinglePoint, Current: p}
}

// ScrollAction returns a Scroll action.
func ScrollAction(start, current Point, historical []Point) Action {
	return Action{Kind: Scroll, Start: start, Current: current, Historical: historical}
}
