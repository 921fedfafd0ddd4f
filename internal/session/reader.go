package session

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
)

// Line tokens of the session format.
const (
	tokStep       = "DS"
	tokRedoStep   = "DSR"
	tokEndOfStep  = "EOS"
	tokEndOfBrush = "EOB"
	tokEndOfData  = "EOD"
)

const maxLine = 1 << 20

type lineReader struct {
	sc      *bufio.Scanner
	line    int
	pending *string
}

func (r *lineReader) next() (string, error) {
	if r.pending != nil {
		s := *r.pending
		r.pending = nil
		r.line++
		return s, nil
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", fmt.Errorf("read session: %w", err)
		}
		return "", corrupt(r.line, "unexpected end of data")
	}
	r.line++
	return strings.TrimSpace(r.sc.Text()), nil
}

func (r *lineReader) unread(s string) {
	r.pending = &s
	r.line--
}

func (r *lineReader) int(what string) (int64, error) {
	s, err := r.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, corrupt(r.line, "bad %s %q", what, s)
	}
	return v, nil
}

func (r *lineReader) expect(tok string) error {
	s, err := r.next()
	if err != nil {
		return err
	}
	if s != tok {
		return corrupt(r.line, "expected %s, got %q", tok, s)
	}
	return nil
}

// Read parses a session. Errors match ErrCorrupt or ErrUnsupportedVersion.
func Read(in io.Reader) (*Session, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	r := &lineReader{sc: sc}

	magic, err := r.next()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, corrupt(r.line, "bad magic %q", magic)
	}
	version, err := r.int("version")
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, &FormatError{Line: r.line, Err: ErrUnsupportedVersion, Msg: fmt.Sprintf("version %d", version)}
	}

	width, err := r.int("width")
	if err != nil {
		return nil, err
	}
	height, err := r.int("height")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, corrupt(r.line, "bad canvas size %dx%d", width, height)
	}
	bg, err := r.int("background colour")
	if err != nil {
		return nil, err
	}

	s := New(int(width), int(height), brush.Color(uint32(bg)))
	for {
		tok, err := r.next()
		if err != nil {
			return nil, err
		}
		switch tok {
		case tokEndOfData:
			return s, nil
		case tokStep, tokRedoStep:
			rec, err := r.record()
			if err != nil {
				return nil, err
			}
			if tok == tokStep {
				s.Forward = append(s.Forward, rec)
			} else {
				s.Redo = append(s.Redo, rec)
			}
		default:
			return nil, corrupt(r.line, "unexpected %q", tok)
		}
	}
}

func (r *lineReader) record() (Record, error) {
	var rec Record
	t, err := r.int("step type")
	if err != nil {
		return rec, err
	}
	switch brush.StepKind(t) {
	case brush.StepEmpty, brush.StepPoint, brush.StepScribble:
		rec.Type = brush.StepKind(t)
	default:
		return rec, corrupt(r.line, "unknown step type %d", t)
	}

	var coords []float32
	for {
		s, err := r.next()
		if err != nil {
			return rec, err
		}
		if s == tokEndOfStep {
			break
		}
		for _, f := range strings.Split(s, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
			if err != nil {
				return rec, corrupt(r.line, "bad coordinate %q", f)
			}
			coords = append(coords, float32(v))
		}
	}
	if len(coords)%2 != 0 {
		return rec, corrupt(r.line, "odd coordinate count %d", len(coords))
	}
	for i := 0; i < len(coords); i += 2 {
		rec.Points = append(rec.Points, gesture.Point{X: coords[i], Y: coords[i+1]})
	}

	next, err := r.next()
	if err != nil {
		return rec, err
	}
	r.unread(next)
	if next != tokStep && next != tokRedoStep && next != tokEndOfData {
		if rec.Brush, err = r.brush(); err != nil {
			return rec, err
		}
	}

	switch rec.Type {
	case brush.StepEmpty:
		if len(rec.Points) != 0 {
			return rec, corrupt(r.line, "empty step with %d points", len(rec.Points))
		}
	case brush.StepPoint:
		if len(rec.Points) != 1 {
			return rec, corrupt(r.line, "point step with %d points", len(rec.Points))
		}
	case brush.StepScribble:
		if len(rec.Points) == 0 {
			return rec, corrupt(r.line, "scribble step without points")
		}
	}
	if rec.Type != brush.StepEmpty && rec.Brush == nil {
		return rec, corrupt(r.line, "%s step without brush", rec.Type)
	}
	return rec, nil
}

func (r *lineReader) brush() (*BrushRecord, error) {
	kind, err := r.int("brush type")
	if err != nil {
		return nil, err
	}
	if _, ok := brush.Lookup(brush.Kind(kind)); !ok {
		return nil, corrupt(r.line, "unknown brush type %d", kind)
	}
	c, err := r.int("brush colour")
	if err != nil {
		return nil, err
	}
	s, err := r.next()
	if err != nil {
		return nil, err
	}
	size, err := strconv.ParseFloat(s, 32)
	if err != nil || size <= 0 {
		return nil, corrupt(r.line, "bad brush size %q", s)
	}
	alpha, err := r.int("brush alpha")
	if err != nil {
		return nil, err
	}
	if alpha < 0 || alpha > 255 {
		return nil, corrupt(r.line, "brush alpha %d out of range", alpha)
	}
	if err := r.expect(tokEndOfBrush); err != nil {
		return nil, err
	}
	return &BrushRecord{
		Kind:  brush.Kind(kind),
		Color: brush.Color(uint32(c)),
		Size:  float32(size),
		Alpha: uint8(alpha),
	}, nil
}
