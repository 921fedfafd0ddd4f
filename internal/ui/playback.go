package ui

import (
	"context"
	"fmt"
	"image"
	"time"

	"DoodleBoard/internal/config"
	"DoodleBoard/internal/playback"
	"DoodleBoard/internal/session"
	"DoodleBoard/internal/state"
	"DoodleBoard/internal/storage"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// PlayWindow replays a stored drawing step by step on its own board.
type PlayWindow struct {
	cfg    *config.Config
	window fyne.Window
	board  *state.Board
	canvas *BoardWidget
	player *playback.Player
	name   string
	state  *widget.Label
	play   *widget.Button
	pause  *widget.Button
}

// RunPlayback opens a playback window for the named session and blocks
// until it closes.
func RunPlayback(cfg *config.Config, store storage.Store, name string) error {
	fa := newFyneApp()
	pw := newPlayWindow(fa, cfg, storage.Sessions{Store: store})
	if err := pw.prepare(name); err != nil {
		return err
	}
	pw.window.ShowAndRun()
	return nil
}

func (a *App) playDialog() {
	a.pickSession("Play", func(name string) {
		pw := newPlayWindow(a.fyne, a.cfg, a.sessions)
		if err := pw.prepare(name); err != nil {
			pw.window.Close()
			a.loadFailed(name, err)
			return
		}
		pw.window.Show()
	})
}

func newPlayWindow(fa fyne.App, cfg *config.Config, loader session.Loader) *PlayWindow {
	bg := cfg.Canvas.BackgroundColor()
	board := state.NewBoard(state.Options{
		Background: bg,
		Cache:      state.CacheConfig{Capacity: cfg.Canvas.KeyframeCapacity, Interval: cfg.Canvas.KeyframeInterval},
		Post:       fyne.Do,
	})
	pw := &PlayWindow{
		cfg:    cfg,
		window: fa.NewWindow("DoodleBoard Playback"),
		board:  board,
		canvas: NewBoardWidget(nil, bg),
		player: playback.NewPlayer(board, loader),
		state:  widget.NewLabel(playback.Idle.String()),
	}
	board.SetFrameListener(func(img *image.RGBA) { pw.canvas.SetFrame(img) })
	pw.player.SetSpeedDelay(cfg.Playback.Delay.Duration())
	pw.player.SetStateListener(func(s playback.State) {
		fyne.Do(func() { pw.showState(s) })
	})

	pw.play = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), pw.onPlay)
	pw.pause = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), func() {
		if err := pw.player.Pause(); err != nil {
			log.Debug("pause ignored", "state", pw.player.State(), "err", err)
		}
	})
	stop := widget.NewButtonWithIcon("", theme.MediaStopIcon(), func() {
		pw.player.Stop()
	})

	speed := widget.NewSlider(0, 500)
	speed.Step = 10
	speed.SetValue(float64(cfg.Playback.Delay.Duration() / time.Millisecond))
	speed.OnChangeEnded = func(ms float64) {
		pw.player.SetSpeedDelay(time.Duration(ms) * time.Millisecond)
	}

	controls := container.NewHBox(
		pw.play, pw.pause, stop,
		widget.NewLabel("Delay (ms):"),
		container.New(layout.NewGridWrapLayout(fyne.NewSize(160, 35)), speed),
		layout.NewSpacer(),
		pw.state,
	)
	pw.showState(playback.Idle)
	pw.window.SetContent(container.NewBorder(nil, controls, nil, nil, pw.canvas))
	pw.window.Resize(fyne.NewSize(800, 600))
	pw.window.SetOnClosed(func() {
		pw.player.Stop()
		board.Close()
	})
	return pw
}

// prepare loads name onto the window's board. The raster keeps the
// session's size; the display-only canvas scales it to the window.
func (pw *PlayWindow) prepare(name string) error {
	pw.name = name
	pw.window.SetTitle(fmt.Sprintf("DoodleBoard Playback - %s", name))
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return pw.player.SetDoodleData(ctx, name, pw.cfg.Playback.IgnoreEmptySteps, pw.cfg.Playback.AutoPlay)
}

// onPlay starts or resumes playback, or replays from the beginning once
// playback completed or was stopped.
func (pw *PlayWindow) onPlay() {
	st := pw.player.State()
	if playback.CanTransition(st, playback.Playing) {
		if err := pw.player.Start(); err != nil {
			log.Debug("start ignored", "state", st, "err", err)
		}
		return
	}
	if st != playback.Complete && st != playback.Idle {
		return
	}
	pw.player.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := pw.player.SetDoodleData(ctx, pw.name, pw.cfg.Playback.IgnoreEmptySteps, true); err != nil {
		dialog.ShowError(err, pw.window)
	}
}

func (pw *PlayWindow) showState(s playback.State) {
	pw.state.SetText(s.String())
	setEnabled(pw.play, s != playback.Playing && s != playback.Preparing && s != playback.Error)
	setEnabled(pw.pause, playback.CanTransition(s, playback.Paused))
}
