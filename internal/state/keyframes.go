package state

import (
	"fmt"

	"DoodleBoard/internal/brush"
)

// Defaults for the keyframe cache.
const (
	DefaultKeyframeCapacity = 4
	DefaultKeyframeInterval = 8
)

// Keyframes is a bounded FIFO of Frame steps ordered by strictly increasing
// step index. The newest frame never covers the last history step, which may
// still be changing.
type Keyframes struct {
	frames   []*brush.Step
	capacity int
	interval int
}

// NewKeyframes creates a cache holding at most capacity frames, spaced
// interval steps apart.
func NewKeyframes(capacity, interval int) *Keyframes {
	if capacity < 1 {
		capacity = DefaultKeyframeCapacity
	}
	if interval < 1 {
		interval = DefaultKeyframeInterval
	}
	return &Keyframes{capacity: capacity, interval: interval}
}

func (k *Keyframes) Len() int      { return len(k.frames) }
func (k *Keyframes) Capacity() int { return k.capacity }
func (k *Keyframes) Interval() int { return k.interval }

// Indexes lists the step index of every cached frame, oldest first.
func (k *Keyframes) Indexes() []int {
	out := make([]int, len(k.frames))
	for i, f := range k.frames {
		out[i] = f.Index()
	}
	return out
}

// Newest returns the most recent frame or nil.
func (k *Keyframes) Newest() *brush.Step {
	if len(k.frames) == 0 {
		return nil
	}
	return k.frames[len(k.frames)-1]
}

// NewestIndex returns the newest frame's step index, -1 when empty.
func (k *Keyframes) NewestIndex() int {
	if f := k.Newest(); f != nil {
		return f.Index()
	}
	return -1
}

func (k *Keyframes) second() *brush.Step {
	if len(k.frames) < 2 {
		return nil
	}
	return k.frames[len(k.frames)-2]
}

// Reset drops every frame.
func (k *Keyframes) Reset() {
	k.frames = nil
}

// EvictFrom drops every frame whose index is >= index.
func (k *Keyframes) EvictFrom(index int) int {
	n := len(k.frames)
	for n > 0 && k.frames[n-1].Index() >= index {
		n--
	}
	dropped := len(k.frames) - n
	for i := n; i < len(k.frames); i++ {
		k.frames[i] = nil
	}
	k.frames = k.frames[:n]
	return dropped
}

// add appends a snapshot of surf taken after step index, evicting the oldest
// frame when full. The evicted frame's raster is reused.
func (k *Keyframes) add(surf *brush.Surface, index int) {
	if len(k.frames) >= k.capacity {
		oldest := k.frames[0]
		copy(k.frames, k.frames[1:])
		k.frames = k.frames[:len(k.frames)-1]
		surf.CopyTo(oldest.Raster())
		oldest.Reframe(index)
		k.frames = append(k.frames, oldest)
		return
	}
	k.frames = append(k.frames, brush.NewFrame(index, surf.CopyTo(nil)))
}

// capture stores the state after step index. When the newest frame sits
// closer than one interval to its predecessor (or to the start of history
// when it has none) its raster is overwritten in place; otherwise a new
// frame is added.
func (k *Keyframes) capture(surf *brush.Surface, index int) {
	newest := k.Newest()
	if newest != nil && newest.Index() >= index {
		return
	}
	if newest != nil {
		reuse := false
		if prev := k.second(); prev == nil {
			reuse = newest.Index() < k.interval
		} else {
			reuse = newest.Index()-prev.Index() < k.interval
		}
		if reuse {
			surf.CopyTo(newest.Raster())
			newest.Reframe(index)
			return
		}
	}
	k.add(surf, index)
}

// check verifies ordering and bounds against a history of length n.
func (k *Keyframes) check(n int) error {
	if len(k.frames) > k.capacity {
		return fmt.Errorf("keyframes: %d frames exceed capacity %d", len(k.frames), k.capacity)
	}
	for i := 1; i < len(k.frames); i++ {
		if k.frames[i].Index() <= k.frames[i-1].Index() {
			return fmt.Errorf("keyframes: indexes not increasing: %v", k.Indexes())
		}
	}
	if f := k.Newest(); f != nil && f.Index() > n-2 {
		return fmt.Errorf("keyframes: newest frame %d covers last step of %d", f.Index(), n)
	}
	return nil
}
