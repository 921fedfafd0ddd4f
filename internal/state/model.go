package state

import (
	"fmt"
	"image"
)

// Status is the undo/redo availability of a buffer.
type Status struct {
	CanUndo bool
	CanRedo bool
}

func (s Status) String() string {
	return fmt.Sprintf("undo=%t redo=%t", s.CanUndo, s.CanRedo)
}

// BufferChangedFunc receives the undo/redo availability whenever it may
// have changed.
type BufferChangedFunc func(canUndo, canRedo bool)

// FrameFunc receives a copy of the raster after each redraw.
type FrameFunc func(img *image.RGBA)

// Poster runs fn on the presentation thread.
type Poster func(fn func())

// Direct runs fn on the calling goroutine.
func Direct(fn func()) { fn() }
