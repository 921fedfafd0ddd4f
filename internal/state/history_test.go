package state

import (
	"testing"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
)

func pt(x, y float32) gesture.Point { return gesture.Point{X: x, Y: y} }

func tap(x, y float32) []gesture.Action {
	return []gesture.Action{gesture.PointAction(pt(x, y)), gesture.CancelAction()}
}

func stroke(x, y float32, n int) []gesture.Action {
	start := pt(x, y)
	var out []gesture.Action
	for i := 1; i <= n; i++ {
		out = append(out, gesture.ScrollAction(start, pt(x+float32(i)*3, y+float32(i)), nil))
	}
	return append(out, gesture.CancelAction())
}

func newHistory(t *testing.T) *History {
	t.Helper()
	h, err := NewHistory(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func kinds(steps []*brush.Step) []brush.StepKind {
	out := make([]brush.StepKind, len(steps))
	for i, s := range steps {
		out[i] = s.Kind()
	}
	return out
}

func TestHistoryTapThenUndoRedo(t *testing.T) {
	h := newHistory(t)
	pen := brush.Default()
	if !h.Dispatch(gesture.PointAction(pt(10, 10)), pen) {
		t.Error("first point should change undo availability")
	}
	h.Dispatch(gesture.CancelAction(), pen)
	if !h.CanUndo() || h.Len() != 1 {
		t.Fatalf("after tap: canUndo=%t len=%d", h.CanUndo(), h.Len())
	}
	if !h.Undo() {
		t.Fatal("undo failed")
	}
	if h.CanUndo() || !h.CanRedo() {
		t.Fatalf("after undo: canUndo=%t canRedo=%t", h.CanUndo(), h.CanRedo())
	}
	if !h.Redo() {
		t.Fatal("redo failed")
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Fatalf("after redo: canUndo=%t canRedo=%t", h.CanUndo(), h.CanRedo())
	}
}

func TestHistoryCancelsCollapse(t *testing.T) {
	h := newHistory(t)
	pen := brush.Default()
	for _, a := range tap(1, 1) {
		h.Dispatch(a, pen)
	}
	for i := 0; i < 5; i++ {
		h.Dispatch(gesture.CancelAction(), pen)
	}
	got := kinds(h.Forward())
	if len(got) != 2 || got[1] != brush.StepEmpty {
		t.Fatalf("forward = %v, want [point empty]", got)
	}
	if !h.CanUndo() {
		t.Fatal("point before trailing empty should be undoable")
	}

	// a new step overwrites the trailing empty
	h.Dispatch(gesture.PointAction(pt(2, 2)), pen)
	got = kinds(h.Forward())
	if len(got) != 2 || got[1] != brush.StepPoint {
		t.Fatalf("forward = %v, want [point point]", got)
	}
}

func TestHistoryCancelKeepsRedo(t *testing.T) {
	h := newHistory(t)
	pen := brush.Default()
	for _, a := range tap(1, 1) {
		h.Dispatch(a, pen)
	}
	h.Undo()
	h.Dispatch(gesture.CancelAction(), pen)
	h.Dispatch(gesture.CancelAction(), pen)
	if !h.CanRedo() {
		t.Fatal("cancel cleared redo")
	}
	if !h.Dispatch(gesture.PointAction(pt(3, 3)), pen) {
		t.Error("clearing redo should report a change")
	}
	if h.CanRedo() {
		t.Fatal("point did not clear redo")
	}
}

func TestHistoryBrushChangeStartsNewStep(t *testing.T) {
	h := newHistory(t)
	pen := brush.Default()
	start := pt(5, 5)
	h.Dispatch(gesture.ScrollAction(start, pt(6, 6), nil), pen)
	h.Dispatch(gesture.ScrollAction(start, pt(7, 7), []gesture.Point{pt(6.5, 6.5)}), pen)
	if h.Len() != 1 || len(h.Forward()[0].Points()) != 4 {
		t.Fatalf("continuation: len=%d points=%v", h.Len(), h.Forward()[0].Points())
	}

	same := pen.WithSize(pen.Size())
	h.Dispatch(gesture.ScrollAction(start, pt(8, 8), nil), same)
	if h.Len() != 2 {
		t.Fatalf("identical-valued brush merged into previous step: len=%d", h.Len())
	}
	if !h.Forward()[0].Sealed() {
		t.Error("replaced step left open")
	}
}

func TestHistoryRedoBeforeTrailingEmpty(t *testing.T) {
	h := newHistory(t)
	pen := brush.Default()
	for _, a := range append(tap(1, 1), tap(2, 2)...) {
		h.Dispatch(a, pen)
	}
	h.Dispatch(gesture.CancelAction(), pen)
	if got := kinds(h.Forward()); len(got) != 3 || got[2] != brush.StepEmpty {
		t.Fatalf("forward = %v", got)
	}
	h.Undo()
	if got := kinds(h.Forward()); len(got) != 2 || got[1] != brush.StepEmpty {
		t.Fatalf("after undo forward = %v", got)
	}
	h.Redo()
	got := kinds(h.Forward())
	if len(got) != 3 || got[1] != brush.StepPoint || got[2] != brush.StepEmpty {
		t.Fatalf("after redo forward = %v", got)
	}
	if h.Forward()[1].Points()[0] != pt(2, 2) {
		t.Errorf("redone step = %v", h.Forward()[1].Points())
	}
}

func TestHistoryUndoEmptyOnly(t *testing.T) {
	h := newHistory(t)
	h.Dispatch(gesture.CancelAction(), brush.Default())
	if h.CanUndo() || h.Undo() {
		t.Fatal("lone empty step must not be undoable")
	}
}

func TestNewHistoryRejectsFrames(t *testing.T) {
	f := brush.NewFrame(0, nil)
	if _, err := NewHistory([]*brush.Step{f}, nil); err == nil {
		t.Error("frame accepted in forward history")
	}
	if _, err := NewHistory(nil, []*brush.Step{f}); err == nil {
		t.Error("frame accepted in redo history")
	}
}
