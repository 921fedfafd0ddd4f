package state

import "sync/atomic"

// generation numbers buffers so queued work can tell whether the buffer it
// was posted for is still the current one.
var generation atomic.Uint64

func nextGeneration() uint64 {
	return generation.Add(1)
}
