// Package session reads and writes drawing sessions: the forward and redo
// history of a canvas together with its size and background colour.
package session

import (
	"fmt"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
)

const (
	// Magic is the first line of every session file.
	Magic = "dd"
	// Version is the only format version this package reads and writes.
	Version = 1
)

// BrushRecord is the persisted form of a brush.
type BrushRecord struct {
	Kind  brush.Kind
	Color brush.Color
	Size  float32
	Alpha uint8
}

// Record is the persisted form of one draw step. Brush is nil for steps
// without a brush (Empty).
type Record struct {
	Type   brush.StepKind
	Points []gesture.Point
	Brush  *BrushRecord
}

// Session is a serialisable drawing history. Redo is ordered as a stack,
// its last record is redone first.
type Session struct {
	Version    int
	Width      int
	Height     int
	Background brush.Color
	Forward    []Record
	Redo       []Record
}

// New returns an empty session of the given canvas size.
func New(width, height int, bg brush.Color) *Session {
	return &Session{Version: Version, Width: width, Height: height, Background: bg}
}

// FromSteps records forward and redo history.
func FromSteps(width, height int, bg brush.Color, forward, redo []*brush.Step) *Session {
	s := New(width, height, bg)
	s.Forward = records(forward)
	s.Redo = records(redo)
	return s
}

func records(steps []*brush.Step) []Record {
	out := make([]Record, 0, len(steps))
	for _, st := range steps {
		if st.Kind() == brush.StepFrame {
			continue
		}
		r := Record{Type: st.Kind()}
		if pts := st.Points(); len(pts) > 0 {
			r.Points = append([]gesture.Point(nil), pts...)
		}
		if b := st.Brush(); b != nil {
			r.Brush = &BrushRecord{Kind: b.Kind(), Color: b.Color(), Size: b.Size(), Alpha: b.Alpha()}
		}
		out = append(out, r)
	}
	return out
}

// Steps rebuilds sealed draw steps. Records sharing identical brush values
// share one brush.
func (s *Session) Steps() (forward, redo []*brush.Step, err error) {
	brushes := make(map[BrushRecord]*brush.Brush)
	forward, err = steps(s.Forward, brushes)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}
	redo, err = steps(s.Redo, brushes)
	if err != nil {
		return nil, nil, fmt.Errorf("redo: %w", err)
	}
	return forward, redo, nil
}

func steps(recs []Record, brushes map[BrushRecord]*brush.Brush) ([]*brush.Step, error) {
	out := make([]*brush.Step, 0, len(recs))
	for i, r := range recs {
		var b *brush.Brush
		if r.Brush != nil {
			b = brushes[*r.Brush]
			if b == nil {
				b = brush.New(r.Brush.Kind, r.Brush.Color, r.Brush.Size, r.Brush.Alpha)
				brushes[*r.Brush] = b
			}
		}
		st, err := brush.NewRecorded(r.Type, b, r.Points)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// ForPlayback returns a session that starts from an empty canvas and whose
// redo stack replays the forward history in drawing order. The original redo
// records are dropped. With ignoreEmpty, Empty steps are skipped.
func (s *Session) ForPlayback(ignoreEmpty bool) *Session {
	p := New(s.Width, s.Height, s.Background)
	p.Redo = make([]Record, 0, len(s.Forward))
	for i := len(s.Forward) - 1; i >= 0; i-- {
		r := s.Forward[i]
		if ignoreEmpty && r.Type == brush.StepEmpty {
			continue
		}
		p.Redo = append(p.Redo, r)
	}
	return p
}
