package state

import (
	"fmt"
	"image"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/logging"
	"DoodleBoard/internal/session"
)

var log = logging.For("state")

// CacheConfig sizes the keyframe cache of a buffer.
type CacheConfig struct {
	Capacity int
	Interval int
}

// DefaultCacheConfig holds 4 frames spaced 8 steps apart.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Capacity: DefaultKeyframeCapacity, Interval: DefaultKeyframeInterval}
}

// Buffer owns one raster surface, its history and its keyframe cache.
// A Buffer is not safe for concurrent use; Board confines each one to its
// draw queue.
type Buffer struct {
	gen     uint64
	surf    *brush.Surface
	history *History
	frames  *Keyframes

	replayed int
}

// NewBuffer creates an empty buffer of the given raster size.
func NewBuffer(width, height int, bg brush.Color, cfg CacheConfig) *Buffer {
	h, _ := NewHistory(nil, nil)
	return newBuffer(width, height, bg, h, cfg)
}

func newBuffer(width, height int, bg brush.Color, h *History, cfg CacheConfig) *Buffer {
	b := &Buffer{
		gen:     nextGeneration(),
		surf:    brush.NewSurface(width, height, bg),
		history: h,
		frames:  NewKeyframes(cfg.Capacity, cfg.Interval),
	}
	log.Debug("buffer created", "gen", b.gen, "width", width, "height", height, "steps", h.Len())
	return b
}

// NewBufferFromSession rebuilds a buffer from a loaded session. The cache
// starts empty and fills on the first Draw.
func NewBufferFromSession(s *session.Session, cfg CacheConfig) (*Buffer, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("session size %dx%d: %w", s.Width, s.Height, session.ErrCorrupt)
	}
	fwd, redo, err := s.Steps()
	if err != nil {
		return nil, fmt.Errorf("rebuild steps: %w", err)
	}
	h, err := NewHistory(fwd, redo)
	if err != nil {
		return nil, err
	}
	return newBuffer(s.Width, s.Height, s.Background, h, cfg), nil
}

// Generation identifies the buffer. Every buffer gets a new one.
func (b *Buffer) Generation() uint64 { return b.gen }

func (b *Buffer) Width() int              { return b.surf.Width() }
func (b *Buffer) Height() int             { return b.surf.Height() }
func (b *Buffer) Background() brush.Color { return b.surf.Background() }
func (b *Buffer) History() *History       { return b.history }
func (b *Buffer) Keyframes() *Keyframes   { return b.frames }
func (b *Buffer) Surface() *brush.Surface { return b.surf }
func (b *Buffer) CanUndo() bool           { return b.history.CanUndo() }
func (b *Buffer) CanRedo() bool           { return b.history.CanRedo() }
func (b *Buffer) Status() Status          { return Status{CanUndo: b.CanUndo(), CanRedo: b.CanRedo()} }

// Session records the forward and redo history.
func (b *Buffer) Session() *session.Session {
	return session.FromSteps(b.Width(), b.Height(), b.Background(), b.history.Forward(), b.history.RedoSteps())
}

// Replayed returns how many steps the last Draw rendered.
func (b *Buffer) Replayed() int { return b.replayed }

// Dispatch applies a gesture action drawn with br. It reports whether undo
// or redo availability may have changed.
func (b *Buffer) Dispatch(a gesture.Action, br *brush.Brush) bool {
	return b.history.Dispatch(a, br)
}

// Undo moves the last drawn step to the redo stack and drops frames that
// may cover the changed tail.
func (b *Buffer) Undo() bool {
	if !b.history.Undo() {
		return false
	}
	if n := b.frames.EvictFrom(b.history.Len() - 2); n > 0 {
		log.Debug("frames evicted", "gen", b.gen, "count", n, "steps", b.history.Len())
	}
	return true
}

func (b *Buffer) Redo() bool {
	return b.history.Redo()
}

// Draw renders the history onto the surface.
//
// Replay starts from the newest cached frame, or from a cleared raster when
// there is none. While replaying, a frame is added each time the distance to
// the newest frame reaches the cache interval, and the state after the
// second-to-last step is captured. The last step, which may still be
// growing, is always rendered on top and never cached.
func (b *Buffer) Draw() {
	steps := b.history.Forward()
	n := len(steps)
	b.replayed = 0

	from := 0
	if f := b.frames.Newest(); f != nil && n > 0 {
		f.Render(b.surf)
		from = f.Index() + 1
	} else {
		b.surf.Clear()
	}
	if n == 0 {
		b.verify()
		return
	}

	for i := from; i <= n-2; i++ {
		steps[i].Render(b.surf)
		b.replayed++
		switch {
		case i == n-2:
			b.frames.capture(b.surf, i)
		case i-b.frames.NewestIndex() >= b.frames.Interval():
			b.frames.add(b.surf, i)
		}
	}
	steps[n-1].Render(b.surf)
	b.replayed++
	b.verify()
}

func (b *Buffer) verify() {
	err := b.frames.check(b.history.Len())
	if err == nil {
		return
	}
	if assertInvariants {
		panic(err)
	}
	log.Error("keyframe invariant violated", "gen", b.gen, "err", err)
	b.frames.Reset()
}

// Snapshot returns a copy of the raster.
func (b *Buffer) Snapshot() *image.RGBA {
	return b.surf.Image()
}
