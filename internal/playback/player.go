package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DoodleBoard/internal/logging"
	"DoodleBoard/internal/session"

	"github.com/google/uuid"
)

var log = logging.For("playback")

// DefaultDelay is the pause between two replayed steps.
const DefaultDelay = 50 * time.Millisecond

// readyPoll is how often a tick re-checks a board that has no buffer yet.
const readyPoll = 10 * time.Millisecond

// Board is the drawing surface a Player drives.
type Board interface {
	Ready() bool
	Load(s *session.Session, done func(error))
	RedoNow() (redone, more bool)
}

// Player replays the forward history of a session by redoing one step per
// tick. Each Start creates a controller identified by a token; ticks of a
// controller that is no longer active do nothing.
type Player struct {
	board  Board
	loader session.Loader

	mu      sync.Mutex
	state   State
	delay   time.Duration
	active  string
	timer   *time.Timer
	name    string
	onState func(State)
}

func NewPlayer(board Board, loader session.Loader) *Player {
	return &Player{board: board, loader: loader, delay: DefaultDelay}
}

// SetStateListener registers cb for state changes. cb runs on the goroutine
// that caused the change.
func (p *Player) SetStateListener(cb func(State)) {
	p.mu.Lock()
	p.onState = cb
	p.mu.Unlock()
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) IsPlaying() bool {
	return p.State() == Playing
}

// SetSpeedDelay sets the pause between steps. It applies from the next tick.
func (p *Player) SetSpeedDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	p.mu.Lock()
	p.delay = d
	p.mu.Unlock()
}

// SetDoodleData loads the named session and prepares it for playback from
// an empty canvas. With ignoreEmptyStep, Empty steps are skipped; with
// autoPlay, playback starts once the board holds the session.
func (p *Player) SetDoodleData(ctx context.Context, name string, ignoreEmptyStep, autoPlay bool) error {
	if err := p.transition(Preparing); err != nil {
		return err
	}
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()

	s, err := p.loader.Load(ctx, name)
	if err != nil {
		log.Warn("session load failed", "name", name, "status", session.Classify(err), "err", err)
		p.transition(Error)
		return err
	}
	playable := s.ForPlayback(ignoreEmptyStep)
	log.Info("session prepared", "name", name, "steps", len(playable.Redo))

	p.board.Load(playable, func(err error) {
		if err != nil {
			log.Warn("board rejected session", "name", name, "err", err)
			p.transition(Error)
			return
		}
		if p.transition(Prepared) != nil {
			return
		}
		if autoPlay {
			p.Start()
		}
	})
	return nil
}

// Start begins or resumes playback.
func (p *Player) Start() error {
	if err := p.transition(Playing); err != nil {
		return err
	}
	token := uuid.NewString()
	p.mu.Lock()
	p.active = token
	p.stopTimer()
	p.timer = time.AfterFunc(0, func() { p.tick(token) })
	p.mu.Unlock()
	log.Debug("controller started", "token", token)
	return nil
}

// Pause halts playback; Start resumes it.
func (p *Player) Pause() error {
	if err := p.transition(Paused); err != nil {
		return err
	}
	p.release()
	return nil
}

// Stop halts playback and returns to Idle.
func (p *Player) Stop() {
	p.release()
	p.transition(Idle)
}

func (p *Player) release() {
	p.mu.Lock()
	p.active = ""
	p.stopTimer()
	p.mu.Unlock()
}

func (p *Player) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Player) isActive(token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active == token && p.state == Playing
}

func (p *Player) schedule(token string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != token {
		return
	}
	p.timer = time.AfterFunc(d, func() { p.tick(token) })
}

func (p *Player) tick(token string) {
	if !p.isActive(token) {
		return
	}
	if !p.board.Ready() {
		p.schedule(token, readyPoll)
		return
	}
	redone, more := p.board.RedoNow()
	if !p.isActive(token) {
		return
	}
	if !redone || !more {
		p.mu.Lock()
		if p.active == token {
			p.active = ""
		}
		p.mu.Unlock()
		p.transition(Complete)
		return
	}
	p.mu.Lock()
	d := p.delay
	p.mu.Unlock()
	p.schedule(token, d)
}

func (p *Player) transition(to State) error {
	p.mu.Lock()
	from := p.state
	if !CanTransition(from, to) {
		name := p.name
		p.mu.Unlock()
		log.Error("invalid playback transition", "from", from, "to", to, "session", name)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	p.state = to
	cb := p.onState
	p.mu.Unlock()

	if from != to {
		log.Info("playback state", "from", from, "to", to)
	}
	if cb != nil {
		cb(to)
	}
	return nil
}
