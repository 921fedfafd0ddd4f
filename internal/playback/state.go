// Package playback replays a stored session onto a board one step at a
// time.
package playback

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition reports a state change the playback machine does not
// allow. It indicates a caller bug.
var ErrInvalidTransition = errors.New("invalid playback transition")

// State of a Player.
type State int

const (
	Idle State = iota
	Preparing
	Prepared
	Playing
	Paused
	Complete
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Prepared:
		return "prepared"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Complete:
		return "complete"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// allowed lists the states each target may be entered from. Idle and Error
// are reachable from anywhere.
var allowed = map[State][]State{
	Preparing: {Idle},
	Prepared:  {Preparing},
	Playing:   {Prepared, Paused},
	Paused:    {Prepared, Playing},
	Complete:  {Playing},
}

// CanTransition reports whether from -> to is a legal change.
func CanTransition(from, to State) bool {
	if to == Idle || to == Error {
		return true
	}
	for _, s := range allowed[to] {
		if s == from {
			return true
		}
	}
	return false
}
