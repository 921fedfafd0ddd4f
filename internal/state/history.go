package state

import (
	"fmt"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
)

// History is the forward list of draw steps plus the redo stack.
//
// forward holds at most one trailing Empty step. Neither list ever holds
// Frame steps; frames live in the keyframe cache.
type History struct {
	forward []*brush.Step
	redo    []*brush.Step
}

// NewHistory builds a history from recorded steps. redo is ordered as a
// stack: its last element is redone first.
func NewHistory(forward, redo []*brush.Step) (*History, error) {
	for i, s := range forward {
		if s == nil || s.Kind() == brush.StepFrame {
			return nil, fmt.Errorf("forward step %d: invalid %v", i, s)
		}
	}
	for i, s := range redo {
		if s == nil || s.Kind() == brush.StepFrame {
			return nil, fmt.Errorf("redo step %d: invalid %v", i, s)
		}
	}
	h := &History{
		forward: append([]*brush.Step(nil), forward...),
		redo:    append([]*brush.Step(nil), redo...),
	}
	return h, nil
}

// Forward returns the forward steps. The slice must not be modified.
func (h *History) Forward() []*brush.Step { return h.forward }

// RedoSteps returns the redo stack, bottom first. The slice must not be modified.
func (h *History) RedoSteps() []*brush.Step { return h.redo }

func (h *History) Len() int { return len(h.forward) }

func (h *History) last() *brush.Step {
	if len(h.forward) == 0 {
		return nil
	}
	return h.forward[len(h.forward)-1]
}

func (h *History) trailingEmpty() bool {
	l := h.last()
	return l != nil && l.IsEmpty()
}

// Dispatch applies a gesture action drawn with b. It reports whether undo or
// redo availability may have changed.
func (h *History) Dispatch(a gesture.Action, b *brush.Brush) bool {
	changed := false
	if a.Kind != gesture.Cancel && len(h.redo) > 0 {
		h.redo = nil
		changed = true
	}

	if len(h.forward) == 0 {
		s := b.CreateStep(a)
		h.forward = append(h.forward, s)
		return changed || !s.IsEmpty()
	}

	last := h.last()
	if last.TryContinue(a, b.Generation()) {
		return changed
	}

	s := b.CreateStep(a)
	if last.IsEmpty() {
		h.forward[len(h.forward)-1] = s
		return changed || !s.IsEmpty()
	}
	last.Seal()
	h.forward = append(h.forward, s)
	return changed
}

// CanUndo reports whether a non-empty step can be undone.
func (h *History) CanUndo() bool {
	if h.trailingEmpty() {
		return len(h.forward) > 1
	}
	return len(h.forward) > 0
}

func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Undo moves the last drawn step (the one before a trailing Empty, if any)
// onto the redo stack.
func (h *History) Undo() bool {
	if !h.CanUndo() {
		return false
	}
	i := len(h.forward) - 1
	if h.trailingEmpty() {
		i--
	}
	s := h.forward[i]
	s.Seal()
	h.forward = append(h.forward[:i], h.forward[i+1:]...)
	h.redo = append(h.redo, s)
	return true
}

// Redo pops the redo stack back into forward history, before a trailing
// Empty step if there is one.
func (h *History) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	s := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	if h.trailingEmpty() {
		n := len(h.forward)
		h.forward = append(h.forward, h.forward[n-1])
		h.forward[n-1] = s
		return true
	}
	h.forward = append(h.forward, s)
	return true
}
