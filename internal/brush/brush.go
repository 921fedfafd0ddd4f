// Package brush holds immutable brushes and the draw steps they produce.
package brush

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"DoodleBoard/internal/gesture"

	"github.com/gogpu/gg"
)

// Kind identifies a brush style. The numeric value is the brush type code
// written to session files.
type Kind int

const (
	Pen Kind = iota
	Marker
	Eraser
)

// Style describes how a brush kind strokes geometry.
type Style struct {
	Name string
	Cap  gg.LineCap
	Join gg.LineJoin
	// Erase paints with the surface background instead of the brush colour.
	Erase bool
}

var (
	stylesMu sync.RWMutex
	styles   = map[Kind]Style{
		Pen:    {Name: "pen", Cap: gg.LineCapRound, Join: gg.LineJoinRound},
		Marker: {Name: "marker", Cap: gg.LineCapSquare, Join: gg.LineJoinBevel},
		Eraser: {Name: "eraser", Cap: gg.LineCapRound, Join: gg.LineJoinRound, Erase: true},
	}
)

// Register adds or replaces the style for a brush kind.
func Register(k Kind, s Style) {
	stylesMu.Lock()
	defer stylesMu.Unlock()
	styles[k] = s
}

// Lookup returns the style registered for k.
func Lookup(k Kind) (Style, bool) {
	stylesMu.RLock()
	defer stylesMu.RUnlock()
	s, ok := styles[k]
	return s, ok
}

// Kinds lists registered kinds in ascending order.
func Kinds() []Kind {
	stylesMu.RLock()
	defer stylesMu.RUnlock()
	out := make([]Kind, 0, len(styles))
	for k := range styles {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (k Kind) String() string {
	if s, ok := Lookup(k); ok {
		return s.Name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var generations atomic.Uint64

// Brush is an immutable brush value. Every brush carries a generation that is
// unique per constructed value: two brushes with identical parameters are
// still different brushes, and a step only continues with the brush that
// created it.
type Brush struct {
	kind  Kind
	color Color
	size  float32
	alpha uint8
	gen   uint64
}

// New creates a brush. Size is the stroke width in raster pixels.
func New(kind Kind, c Color, size float32, alpha uint8) *Brush {
	if size <= 0 {
		size = 1
	}
	return &Brush{kind: kind, color: c, size: size, alpha: alpha, gen: generations.Add(1)}
}

// Default returns a black pen.
func Default() *Brush {
	return New(Pen, Black, 6, 0xFF)
}

func (b *Brush) Kind() Kind         { return b.kind }
func (b *Brush) Color() Color       { return b.color }
func (b *Brush) Size() float32      { return b.size }
func (b *Brush) Alpha() uint8       { return b.alpha }
func (b *Brush) Generation() uint64 { return b.gen }

// WithColor returns a new brush using c.
func (b *Brush) WithColor(c Color) *Brush {
	return New(b.kind, c, b.size, b.alpha)
}

// WithSize returns a new brush using size.
func (b *Brush) WithSize(size float32) *Brush {
	return New(b.kind, b.color, size, b.alpha)
}

// WithAlpha returns a new brush using alpha.
func (b *Brush) WithAlpha(alpha uint8) *Brush {
	return New(b.kind, b.color, b.size, alpha)
}

// WithKind returns a new brush of kind k.
func (b *Brush) WithKind(k Kind) *Brush {
	return New(k, b.color, b.size, b.alpha)
}

// SameValue reports whether b and o have identical parameters, regardless
// of generation.
func (b *Brush) SameValue(o *Brush) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.kind == o.kind && b.color == o.color && b.size == o.size && b.alpha == o.alpha
}

func (b *Brush) String() string {
	return fmt.Sprintf("%s #%08x size=%g alpha=%d", b.kind, uint32(b.color), b.size, b.alpha)
}

// CreateStep turns the first action of a step group into a draw step.
func (b *Brush) CreateStep(a gesture.Action) *Step {
	switch a.Kind {
	case gesture.SinglePoint:
		return &Step{kind: StepPoint, brush: b, points: []gesture.Point{a.Current}}
	case gesture.Scroll:
		pts := make([]gesture.Point, 0, len(a.Historical)+2)
		pts = append(pts, a.Start)
		pts = append(pts, a.Historical...)
		pts = append(pts, a.Current)
		return &Step{kind: StepScribble, brush: b, points: pts}
	}
	return NewEmpty()
}
