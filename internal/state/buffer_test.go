package state

import (
	"bytes"
	"math/rand"
	"testing"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/session"
)

func newTestBuffer() *Buffer {
	return NewBuffer(64, 48, brush.White, DefaultCacheConfig())
}

func apply(b *Buffer, br *brush.Brush, actions []gesture.Action) {
	for _, a := range actions {
		b.Dispatch(a, br)
		b.Draw()
	}
}

func pixels(b *Buffer) []byte {
	return b.Snapshot().Pix
}

func TestBufferExample(t *testing.T) {
	b := newTestBuffer()
	pen := brush.Default()
	apply(b, pen, tap(10, 10))
	if !b.CanUndo() || b.History().Len() != 1 {
		t.Fatalf("canUndo=%t len=%d", b.CanUndo(), b.History().Len())
	}
	if !b.Undo() {
		t.Fatal("undo failed")
	}
	if b.CanUndo() || !b.CanRedo() {
		t.Fatalf("after undo %v", b.Status())
	}
	if !b.Redo() {
		t.Fatal("redo failed")
	}
	if !b.CanUndo() {
		t.Fatalf("after redo %v", b.Status())
	}
}

func TestBufferUndoRedoInverse(t *testing.T) {
	b := newTestBuffer()
	colors := []brush.Color{brush.Red, brush.Blue, brush.Green, brush.Black}
	for i := 0; i < 30; i++ {
		br := brush.New(brush.Kind(i%3), colors[i%len(colors)], float32(2+i%5), uint8(120+i*4))
		var seq []gesture.Action
		if i%4 == 0 {
			seq = tap(float32(i*2), float32(i))
		} else {
			seq = stroke(float32(i), float32(i%20), 4)
		}
		apply(b, br, seq)
	}
	before := pixels(b)

	undone := 0
	for b.CanUndo() {
		b.Undo()
		b.Draw()
		undone++
	}
	blank := NewBuffer(64, 48, brush.White, DefaultCacheConfig())
	blank.Draw()
	if !bytes.Equal(pixels(b), pixels(blank)) {
		t.Fatal("raster not blank after undoing everything")
	}
	for i := 0; i < undone; i++ {
		if !b.Redo() {
			t.Fatalf("redo %d failed", i)
		}
		b.Draw()
	}
	if !bytes.Equal(pixels(b), before) {
		t.Fatal("raster after redo differs from raster before undo")
	}
	if undone != 30 {
		t.Errorf("undid %d steps, want 30", undone)
	}
}

func TestBufferCacheBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := newTestBuffer()
	br := brush.Default()
	for i := 0; i < 600; i++ {
		switch r := rng.Intn(10); {
		case r < 5:
			br = br.WithColor(brush.Color(rng.Uint32()) | 0xff000000)
			apply(b, br, tap(float32(rng.Intn(64)), float32(rng.Intn(48))))
		case r < 7:
			apply(b, br, stroke(float32(rng.Intn(64)), float32(rng.Intn(48)), 1+rng.Intn(3)))
		case r < 9:
			b.Undo()
			b.Draw()
		default:
			b.Redo()
			b.Draw()
		}
		k := b.Keyframes()
		if err := k.check(b.History().Len()); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		if k.Len() > DefaultKeyframeCapacity {
			t.Fatalf("op %d: %d frames", i, k.Len())
		}
	}
}

func TestBufferReplayIsBounded(t *testing.T) {
	b := newTestBuffer()
	pen := brush.Default()
	limit := DefaultKeyframeInterval + 1
	for i := 0; i < 100; i++ {
		for _, a := range tap(float32(i%60), float32(i%40)) {
			b.Dispatch(a, pen)
			b.Draw()
			if b.Replayed() > limit {
				t.Fatalf("step %d replayed %d steps", i, b.Replayed())
			}
		}
	}
	if got := b.Keyframes().Len(); got != DefaultKeyframeCapacity {
		t.Errorf("cache holds %d frames", got)
	}
}

func TestBufferFromSessionRestores(t *testing.T) {
	src := newTestBuffer()
	pen := brush.New(brush.Marker, brush.Red, 3, 255)
	for i := 0; i < 50; i++ {
		apply(src, pen, tap(float32(i), float32(i%40)))
	}
	want := pixels(src)

	b, err := NewBufferFromSession(src.Session(), DefaultCacheConfig())
	if err != nil {
		t.Fatal(err)
	}
	b.Draw()
	if b.Replayed() != 50 {
		t.Fatalf("first draw replayed %d steps", b.Replayed())
	}
	if got := b.Keyframes().Indexes(); len(got) != 4 || got[3] != 48 {
		t.Fatalf("frames = %v", got)
	}
	if !bytes.Equal(pixels(b), want) {
		t.Fatal("restored raster differs")
	}

	b.Draw()
	if b.Replayed() != 1 {
		t.Fatalf("second draw replayed %d steps", b.Replayed())
	}
	if !bytes.Equal(pixels(b), want) {
		t.Fatal("cached redraw differs")
	}

	b.Undo()
	b.Draw()
	if b.Replayed() > DefaultKeyframeInterval+1 {
		t.Fatalf("draw after undo replayed %d steps", b.Replayed())
	}
}

func TestBufferFromSessionRejectsBadSize(t *testing.T) {
	_, err := NewBufferFromSession(session.New(0, 10, brush.White), DefaultCacheConfig())
	if session.Classify(err) != session.LoadCorrupt {
		t.Fatalf("err = %v", err)
	}
}

func TestBufferEraser(t *testing.T) {
	b := newTestBuffer()
	apply(b, brush.New(brush.Pen, brush.Black, 10, 255), stroke(10, 10, 5))
	if c := b.Snapshot().RGBAAt(16, 12); c.R > 50 {
		t.Fatalf("pen pixel = %v", c)
	}
	apply(b, brush.New(brush.Eraser, brush.Black, 20, 255), stroke(10, 10, 5))
	if c := b.Snapshot().RGBAAt(16, 12); c.R < 200 {
		t.Fatalf("erased pixel = %v", c)
	}
}
