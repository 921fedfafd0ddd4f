package gesture

import "testing"

type fakeViewport struct {
	panX, panY float64
	zooms      []float64
}

func (f *fakeViewport) ToRaster(x, y float64) (float64, float64) { return x / 2, y / 2 }
func (f *fakeViewport) Pan(dx, dy float64)                         { f.panX += dx; f.panY += dy }
func (f *fakeViewport) ZoomAt(factor, x, y float64)                { f.zooms = append(f.zooms, factor) }

type recorder struct {
	actions []Action
}

func (r *recorder) record(a Action) { r.actions = append(r.actions, a) }

func (r *recorder) kinds() []Kind {
	out := make([]Kind, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Kind
	}
	return out
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ready() bool { return true }

// TestTapEmitsPointThenCancel verifies a tap without movement
func TestTapEmitsPointThenCancel(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(&fakeViewport{}, ready, rec.record)

	d.Down(0, 20, 20)
	if d.State() != Tracking {
		t.Fatalf("state = %v, want tracking", d.State())
	}
	d.Up(0, 20, 20)

	want := []Kind{Cancel, SinglePoint, Cancel}
	if !equalKinds(rec.kinds(), want) {
		t.Fatalf("kinds = %v, want %v", rec.kinds(), want)
	}
	if got := rec.actions[1].Current; got != (Point{10, 10}) {
		t.Errorf("point = %v, want (10,10) in raster space", got)
	}
	if d.State() != Idle {
		t.Errorf("state = %v, want idle", d.State())
	}
}

// TestDragEmitsScrollWithHistory verifies scroll actions carry start and samples
func TestDragEmitsScrollWithHistory(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(&fakeViewport{}, ready, rec.record)

	d.Down(0, 0, 0)
	d.Move(0, 10, 10, [2]float64{2, 2}, [2]float64{6, 6})
	d.Move(0, 20, 20)
	d.Up(0, 20, 20)

	want := []Kind{Cancel, Scroll, Scroll, Cancel}
	if !equalKinds(rec.kinds(), want) {
		t.Fatalf("kinds = %v, want %v", rec.kinds(), want)
	}
	first := rec.actions[1]
	if first.Start != (Point{0, 0}) || first.Current != (Point{5, 5}) {
		t.Errorf("scroll = %+v", first)
	}
	if len(first.Historical) != 2 || first.Historical[1] != (Point{3, 3}) {
		t.Errorf("historical = %v", first.Historical)
	}
	if len(rec.actions[2].Historical) != 0 {
		t.Errorf("second scroll should have no history, got %v", rec.actions[2].Historical)
	}
}

// TestNotReadyDoesNotTrack verifies drawing is ignored before the buffer exists
func TestNotReadyDoesNotTrack(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(nil, func() bool { return false }, rec.record)

	d.Down(0, 1, 1)
	d.Move(0, 2, 2)
	d.Up(0, 2, 2)

	if !equalKinds(rec.kinds(), []Kind{Cancel}) {
		t.Fatalf("kinds = %v, want only the initial cancel", rec.kinds())
	}
}

// TestSecondPointerSwitchesToTransform verifies multi-pointer gestures never draw
func TestSecondPointerSwitchesToTransform(t *testing.T) {
	rec := &recorder{}
	vp := &fakeViewport{}
	d := NewDispatcher(vp, ready, rec.record)

	d.Down(0, 0, 0)
	d.Move(0, 4, 0)
	d.Down(1, 10, 0)
	if d.State() != Transforming {
		t.Fatalf("state = %v, want transforming", d.State())
	}
	n := len(rec.actions)
	if rec.actions[n-1].Kind != Cancel {
		t.Fatalf("last action = %v, want cancel", rec.actions[n-1].Kind)
	}

	// Move both pointers right by 10 and spread them apart.
	d.Move(0, 14, 0)
	d.Move(1, 30, 0)
	if len(rec.actions) != n {
		t.Fatalf("transform leaked %d actions", len(rec.actions)-n)
	}
	if vp.panX == 0 {
		t.Error("expected pan")
	}
	if len(vp.zooms) == 0 {
		t.Error("expected zoom")
	}

	// Releasing one pointer does not resume drawing.
	d.Up(1, 30, 0)
	d.Move(0, 50, 0)
	if len(rec.actions) != n {
		t.Fatal("single remaining pointer should not draw")
	}
	d.Up(0, 50, 0)
	if d.State() != Idle {
		t.Errorf("state = %v, want idle", d.State())
	}
}

// TestCancelAllEmitsCancel verifies pointer-cancel ends tracking
func TestCancelAllEmitsCancel(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(nil, ready, rec.record)

	d.Down(0, 1, 1)
	d.Move(0, 3, 3)
	d.CancelAll()

	want := []Kind{Cancel, Scroll, Cancel}
	if !equalKinds(rec.kinds(), want) {
		t.Fatalf("kinds = %v, want %v", rec.kinds(), want)
	}
	if d.State() != Idle {
		t.Errorf("state = %v", d.State())
	}
}
