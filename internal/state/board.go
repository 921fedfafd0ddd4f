package state

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/session"

	"github.com/google/uuid"
)

// ErrNotReady is returned when the board has no live buffer.
var ErrNotReady = errors.New("board not ready")

// maxThrottle caps the pause applied to the input thread during fast
// strokes.
const maxThrottle = 8 * time.Millisecond

// Options configure a Board.
type Options struct {
	Background brush.Color
	Cache      CacheConfig
	Brush      *brush.Brush
	// Post delivers callbacks on the presentation thread. Direct when nil.
	Post Poster
}

// Board is the drawing surface seen by a front end. It owns at most one live
// Buffer and confines all work on it to a draw queue; session loads and
// saves run on a separate io queue. Callbacks are delivered through
// Options.Post.
type Board struct {
	ID string

	opts Options
	post Poster
	draw *Queue
	io   *Queue

	current  atomic.Pointer[Buffer]
	br       atomic.Pointer[brush.Brush]
	lastDraw atomic.Int64

	mu        sync.RWMutex
	viewW     int
	viewH     int
	aspectW   int
	aspectH   int
	onChanged BufferChangedFunc
	onFrame   FrameFunc
}

// NewBoard starts the board's queues. The board has no buffer until
// SurfaceReady or Load.
func NewBoard(opts Options) *Board {
	if opts.Post == nil {
		opts.Post = Direct
	}
	if opts.Brush == nil {
		opts.Brush = brush.Default()
	}
	if opts.Cache.Capacity < 1 || opts.Cache.Interval < 1 {
		opts.Cache = DefaultCacheConfig()
	}
	b := &Board{
		ID:   uuid.NewString(),
		opts: opts,
		post: opts.Post,
		draw: NewQueue("draw"),
		io:   NewQueue("io"),
	}
	b.br.Store(opts.Brush)
	log.Info("board created", "board", b.ID)
	return b
}

// SetBufferChangedListener registers cb for undo/redo availability changes.
func (b *Board) SetBufferChangedListener(cb BufferChangedFunc) {
	b.mu.Lock()
	b.onChanged = cb
	b.mu.Unlock()
}

// SetFrameListener registers cb for raster updates.
func (b *Board) SetFrameListener(cb FrameFunc) {
	b.mu.Lock()
	b.onFrame = cb
	b.mu.Unlock()
}

func (b *Board) listeners() (BufferChangedFunc, FrameFunc) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.onChanged, b.onFrame
}

// Ready reports whether a buffer is live.
func (b *Board) Ready() bool {
	return b.current.Load() != nil
}

func (b *Board) SetBrush(br *brush.Brush) {
	if br != nil {
		b.br.Store(br)
	}
}

func (b *Board) Brush() *brush.Brush {
	return b.br.Load()
}

// SurfaceReady records the presentation size. The first call creates an
// empty buffer fitted to the aspect ratio.
func (b *Board) SurfaceReady(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.mu.Lock()
	b.viewW, b.viewH = width, height
	rw, rh := fit(width, height, b.aspectW, b.aspectH)
	b.mu.Unlock()

	b.draw.Post(func() {
		if b.current.Load() != nil {
			return
		}
		b.install(NewBuffer(rw, rh, b.opts.Background, b.opts.Cache))
	})
}

// SurfaceDestroyed drops the live buffer. Queued work for it is discarded.
func (b *Board) SurfaceDestroyed() {
	b.mu.Lock()
	b.viewW, b.viewH = 0, 0
	b.mu.Unlock()
	b.draw.Post(func() {
		if old := b.current.Swap(nil); old != nil {
			log.Info("buffer released", "board", b.ID, "gen", old.Generation())
		}
	})
}

// SetAspectRatio replaces the live buffer with an empty one of the new
// aspect ratio. Zero values fit the raster to the surface.
func (b *Board) SetAspectRatio(w, h int) {
	b.mu.Lock()
	b.aspectW, b.aspectH = w, h
	vw, vh := b.viewW, b.viewH
	b.mu.Unlock()
	if vw <= 0 || vh <= 0 {
		return
	}
	rw, rh := fit(vw, vh, w, h)
	b.draw.Post(func() {
		b.install(NewBuffer(rw, rh, b.opts.Background, b.opts.Cache))
	})
}

// Clear replaces the live buffer with an empty one of the same size.
func (b *Board) Clear() {
	b.draw.Post(func() {
		cur := b.current.Load()
		if cur == nil {
			return
		}
		b.install(NewBuffer(cur.Width(), cur.Height(), cur.Background(), b.opts.Cache))
	})
}

// Dispatch applies a gesture action with the current brush.
func (b *Board) Dispatch(a gesture.Action) {
	buf := b.current.Load()
	if buf == nil {
		return
	}
	br := b.Brush()
	if a.Kind == gesture.Scroll {
		b.throttle()
	}
	b.draw.Post(func() {
		if !b.live(buf) {
			return
		}
		changed := buf.Dispatch(a, br)
		b.redraw(buf)
		if changed {
			b.notify(buf)
		}
	})
}

func (b *Board) Undo() {
	b.draw.Post(func() {
		buf := b.current.Load()
		if buf != nil && buf.Undo() {
			b.redraw(buf)
			b.notify(buf)
		}
	})
}

func (b *Board) Redo() {
	b.draw.Post(func() {
		buf := b.current.Load()
		if buf != nil && buf.Redo() {
			b.redraw(buf)
			b.notify(buf)
		}
	})
}

// RedoNow redoes one step and waits for it. It reports whether a step was
// redone and whether more remain. It must not be called on the
// presentation thread when callbacks are posted there.
func (b *Board) RedoNow() (redone, more bool) {
	type result struct{ redone, more bool }
	r, _ := Sync(b.draw, func() (result, error) {
		buf := b.current.Load()
		if buf == nil {
			return result{}, ErrNotReady
		}
		ok := buf.Redo()
		if ok {
			b.redraw(buf)
			b.notify(buf)
		}
		return result{ok, buf.CanRedo()}, nil
	})
	return r.redone, r.more
}

// CanUndo delivers the undo availability to cb.
func (b *Board) CanUndo(cb func(bool)) {
	b.draw.Post(func() {
		v := false
		if buf := b.current.Load(); buf != nil {
			v = buf.CanUndo()
		}
		b.post(func() { cb(v) })
	})
}

// CanRedo delivers the redo availability to cb.
func (b *Board) CanRedo(cb func(bool)) {
	b.draw.Post(func() {
		v := false
		if buf := b.current.Load(); buf != nil {
			v = buf.CanRedo()
		}
		b.post(func() { cb(v) })
	})
}

// Load replaces the live buffer with one rebuilt from s. done, when not
// nil, receives the outcome. A failed load leaves the board unchanged.
func (b *Board) Load(s *session.Session, done func(error)) {
	b.io.Post(func() {
		buf, err := NewBufferFromSession(s, b.opts.Cache)
		if err == nil {
			_, err = Sync(b.draw, func() (struct{}, error) {
				b.install(buf)
				return struct{}{}, nil
			})
		}
		if err != nil {
			log.Warn("session load failed", "board", b.ID, "err", err)
		} else {
			log.Info("session loaded", "board", b.ID, "gen", buf.Generation(),
				"forward", len(s.Forward), "redo", len(s.Redo))
		}
		if done != nil {
			b.post(func() { done(err) })
		}
	})
}

// Save records the live buffer and hands the session to cb.
func (b *Board) Save(cb func(*session.Session, error)) {
	b.io.Post(func() {
		s, err := Sync(b.draw, func() (*session.Session, error) {
			buf := b.current.Load()
			if buf == nil {
				return nil, ErrNotReady
			}
			return buf.Session(), nil
		})
		if err == nil {
			log.Info("session saved", "board", b.ID, "forward", len(s.Forward), "redo", len(s.Redo))
		}
		b.post(func() { cb(s, err) })
	})
}

// Snapshot waits for queued work and returns a copy of the raster.
func (b *Board) Snapshot() (*image.RGBA, error) {
	return Sync(b.draw, func() (*image.RGBA, error) {
		buf := b.current.Load()
		if buf == nil {
			return nil, ErrNotReady
		}
		return buf.Snapshot(), nil
	})
}

// Status waits for queued work and returns the undo/redo availability.
func (b *Board) Status() Status {
	st, _ := Sync(b.draw, func() (Status, error) {
		if buf := b.current.Load(); buf != nil {
			return buf.Status(), nil
		}
		return Status{}, nil
	})
	return st
}

// Flush waits for every queued load, save and draw task.
func (b *Board) Flush() {
	b.io.Flush()
	b.draw.Flush()
}

// Close stops both queues after draining them.
func (b *Board) Close() {
	b.io.Close()
	b.draw.Close()
	b.current.Store(nil)
	log.Info("board closed", "board", b.ID)
}

// install makes buf the live buffer. It runs on the draw queue.
func (b *Board) install(buf *Buffer) {
	old := b.current.Swap(buf)
	if old != nil {
		log.Info("buffer replaced", "board", b.ID, "old", old.Generation(), "gen", buf.Generation())
	} else {
		log.Info("buffer ready", "board", b.ID, "gen", buf.Generation(), "width", buf.Width(), "height", buf.Height())
	}
	b.redraw(buf)
	b.notify(buf)
}

func (b *Board) live(buf *Buffer) bool {
	cur := b.current.Load()
	if cur == nil || cur.Generation() != buf.Generation() {
		log.Warn("stale task dropped", "board", b.ID, "gen", buf.Generation())
		return false
	}
	return true
}

func (b *Board) redraw(buf *Buffer) {
	start := time.Now()
	buf.Draw()
	b.lastDraw.Store(int64(time.Since(start)))

	if _, onFrame := b.listeners(); onFrame != nil {
		img := buf.Snapshot()
		b.post(func() { onFrame(img) })
	}
}

func (b *Board) notify(buf *Buffer) {
	onChanged, _ := b.listeners()
	if onChanged == nil {
		return
	}
	st := buf.Status()
	b.post(func() { onChanged(st.CanUndo, st.CanRedo) })
}

// throttle slows the input thread while the draw queue is behind.
func (b *Board) throttle() {
	if b.draw.Pending() == 0 {
		return
	}
	d := time.Duration(b.lastDraw.Load()) / 2
	if d > maxThrottle {
		d = maxThrottle
	}
	if d > 0 {
		time.Sleep(d)
	}
}

// fit returns the largest raster of aspect aw:ah inside vw x vh.
func fit(vw, vh, aw, ah int) (int, int) {
	if aw <= 0 || ah <= 0 {
		return vw, vh
	}
	w, h := vw, vw*ah/aw
	if h > vh {
		w, h = vh*aw/ah, vh
	}
	return max(w, 1), max(h, 1)
}
