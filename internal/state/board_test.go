package state

import (
	"image"
	"sync"
	"testing"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/session"
)

type statusLog struct {
	mu  sync.Mutex
	got []Status
}

func (l *statusLog) record(canUndo, canRedo bool) {
	l.mu.Lock()
	l.got = append(l.got, Status{canUndo, canRedo})
	l.mu.Unlock()
}

func (l *statusLog) last() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.got) == 0 {
		return Status{}
	}
	return l.got[len(l.got)-1]
}

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b := NewBoard(Options{Background: brush.White})
	t.Cleanup(b.Close)
	b.SurfaceReady(100, 50)
	b.Flush()
	if !b.Ready() {
		t.Fatal("board not ready after SurfaceReady")
	}
	return b
}

func TestBoardDispatchUndoRedo(t *testing.T) {
	b := newTestBoard(t)
	var changes statusLog
	b.SetBufferChangedListener(changes.record)

	for _, a := range tap(10, 10) {
		b.Dispatch(a)
	}
	b.Flush()
	if got := changes.last(); got != (Status{CanUndo: true}) {
		t.Fatalf("after tap %v", got)
	}

	b.Undo()
	b.Flush()
	if got := changes.last(); got != (Status{CanRedo: true}) {
		t.Fatalf("after undo %v", got)
	}

	var canRedo bool
	b.CanRedo(func(v bool) { canRedo = v })
	b.Flush()
	if !canRedo {
		t.Fatal("CanRedo callback reported false")
	}

	redone, more := b.RedoNow()
	if !redone || more {
		t.Fatalf("RedoNow = %t, %t", redone, more)
	}
	if st := b.Status(); st != (Status{CanUndo: true}) {
		t.Fatalf("status %v", st)
	}
}

func TestBoardSaveLoad(t *testing.T) {
	b := newTestBoard(t)
	for _, a := range append(tap(5, 5), tap(20, 20)...) {
		b.Dispatch(a)
	}
	b.Undo()

	var saved *session.Session
	b.Save(func(s *session.Session, err error) {
		if err != nil {
			t.Errorf("save: %v", err)
		}
		saved = s
	})
	b.Flush()
	if saved == nil || len(saved.Forward) != 1 || len(saved.Redo) != 1 {
		t.Fatalf("saved = %+v", saved)
	}
	if saved.Width != 100 || saved.Height != 50 {
		t.Fatalf("saved size %dx%d", saved.Width, saved.Height)
	}

	other := newTestBoard(t)
	var loadErr error
	other.Load(saved, func(err error) { loadErr = err })
	other.Flush()
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	if st := other.Status(); st != (Status{CanUndo: true, CanRedo: true}) {
		t.Fatalf("loaded status %v", st)
	}
}

func TestBoardFailedLoadKeepsBuffer(t *testing.T) {
	b := newTestBoard(t)
	for _, a := range tap(5, 5) {
		b.Dispatch(a)
	}
	var loadErr error
	b.Load(session.New(-1, 5, brush.White), func(err error) { loadErr = err })
	b.Flush()
	if loadErr == nil {
		t.Fatal("load of invalid session succeeded")
	}
	if st := b.Status(); !st.CanUndo {
		t.Fatalf("buffer replaced by failed load: %v", st)
	}
}

func TestBoardAspectRatio(t *testing.T) {
	b := newTestBoard(t)
	b.SetAspectRatio(1, 1)
	img, err := b.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(50, 50) {
		t.Fatalf("raster size %v", got)
	}
}

func TestBoardDropsStaleTasks(t *testing.T) {
	b := newTestBoard(t)

	release := make(chan struct{})
	b.draw.Post(func() { <-release })
	b.Clear()
	// posted against the buffer that Clear replaces
	b.Dispatch(gesture.PointAction(pt(1, 1)))
	close(release)

	if st := b.Status(); st.CanUndo {
		t.Fatal("stale dispatch reached the new buffer")
	}
}

func TestBoardFrameListener(t *testing.T) {
	b := newTestBoard(t)
	frames := make(chan *image.RGBA, 16)
	b.SetFrameListener(func(img *image.RGBA) { frames <- img })
	b.Dispatch(gesture.PointAction(pt(10, 10)))
	b.Flush()

	select {
	case img := <-frames:
		if img.Bounds().Dx() != 100 {
			t.Fatalf("frame width %d", img.Bounds().Dx())
		}
	default:
		t.Fatal("no frame delivered")
	}
}

func TestBoardSurfaceDestroyed(t *testing.T) {
	b := newTestBoard(t)
	b.SurfaceDestroyed()
	b.Flush()
	if b.Ready() {
		t.Fatal("board ready after surface destroyed")
	}
	if _, err := b.Snapshot(); err != ErrNotReady {
		t.Fatalf("Snapshot err = %v", err)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		vw, vh, aw, ah int
		w, h           int
	}{
		{100, 50, 0, 0, 100, 50},
		{100, 50, 1, 1, 50, 50},
		{100, 50, 4, 1, 100, 25},
		{30, 90, 16, 9, 30, 16},
	}
	for _, tt := range tests {
		w, h := fit(tt.vw, tt.vh, tt.aw, tt.ah)
		if w != tt.w || h != tt.h {
			t.Errorf("fit(%d,%d,%d,%d) = %d,%d want %d,%d", tt.vw, tt.vh, tt.aw, tt.ah, w, h, tt.w, tt.h)
		}
	}
}
