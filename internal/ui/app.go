// Package ui is the fyne front end: the drawing window, the playback
// window and the spectator viewer.
package ui

import (
	"context"
	"fmt"
	"image"
	"time"

	"DoodleBoard/internal/config"
	share "DoodleBoard/internal/net"
	"DoodleBoard/internal/state"
	"DoodleBoard/internal/storage"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/hashicorp/mdns"
)

const appID = "io.doodleboard.app"

// App is the drawing window and everything it owns.
type App struct {
	cfg      *config.Config
	fyne     fyne.App
	window   fyne.Window
	board    *state.Board
	canvas   *BoardWidget
	toolbar  *Toolbar
	status   *widget.Label
	store    storage.Store
	sessions storage.Sessions

	server *share.Server
	mdns   *mdns.Server
}

// newFyneApp creates the fyne application shared by every window.
func newFyneApp() fyne.App {
	return app.NewWithID(appID)
}

// Run opens the drawing window and blocks until it closes.
func Run(cfg *config.Config, store storage.Store) error {
	a, err := newApp(newFyneApp(), cfg, store)
	if err != nil {
		return err
	}
	a.window.ShowAndRun()
	return nil
}

func newApp(fa fyne.App, cfg *config.Config, store storage.Store) (*App, error) {
	br, err := cfg.Brush.New()
	if err != nil {
		return nil, err
	}
	bg := cfg.Canvas.BackgroundColor()
	board := state.NewBoard(state.Options{
		Background: bg,
		Cache:      state.CacheConfig{Capacity: cfg.Canvas.KeyframeCapacity, Interval: cfg.Canvas.KeyframeInterval},
		Brush:      br,
		Post:       fyne.Do,
	})
	board.SetAspectRatio(cfg.Canvas.Width, cfg.Canvas.Height)

	a := &App{
		cfg:      cfg,
		fyne:     fa,
		window:   fa.NewWindow("DoodleBoard"),
		board:    board,
		canvas:   NewBoardWidget(board, bg),
		toolbar:  NewToolbar(board),
		status:   widget.NewLabel("Ready"),
		store:    store,
		sessions: storage.Sessions{Store: store},
	}
	a.window.Resize(fyne.NewSize(1024, 768))

	var publish func(image.Image)
	if cfg.Share.Enabled {
		if err := a.startShare(); err != nil {
			log.Warn("share stream unavailable", "err", err)
			a.SetStatus(fmt.Sprintf("Sharing failed: %v", err))
		} else {
			publish = a.server.Stream.Publish
		}
	}
	board.SetFrameListener(func(img *image.RGBA) {
		a.canvas.SetFrame(img)
		if publish != nil {
			publish(img)
		}
	})

	a.window.SetMainMenu(a.menu())
	a.shortcuts()
	a.window.SetContent(container.NewBorder(a.toolbar.Object(), a.status, nil, nil, a.canvas))
	a.window.SetOnClosed(a.close)
	return a, nil
}

// SetStatus shows text in the status bar. It runs on the UI thread.
func (a *App) SetStatus(text string) {
	a.status.SetText(text)
}

func (a *App) menu() *fyne.MainMenu {
	file := fyne.NewMenu("File",
		fyne.NewMenuItem("New", a.newDrawing),
		fyne.NewMenuItem("Open...", a.openDialog),
		fyne.NewMenuItem("Save...", a.saveDialog),
		fyne.NewMenuItem("Export...", a.exportDialog),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Play...", a.playDialog),
		fyne.NewMenuItem("Watch...", a.watchDialog),
	)
	edit := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", a.board.Undo),
		fyne.NewMenuItem("Redo", a.board.Redo),
	)
	view := fyne.NewMenu("View",
		fyne.NewMenuItem("Reset Zoom", a.canvas.ResetView),
	)
	return fyne.NewMainMenu(file, edit, view)
}

func (a *App) shortcuts() {
	c := a.window.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { a.board.Undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { a.board.Redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { a.saveDialog() })
}

func (a *App) newDrawing() {
	a.board.Clear()
	a.SetStatus("New drawing")
}

// startShare serves the board read-only and announces it on the network.
func (a *App) startShare() error {
	name := a.cfg.Share.Name
	stream := share.NewStream(a.board.ID, name)
	srv, err := share.Listen(a.cfg.Share.Addr, stream)
	if err != nil {
		stream.Close()
		return err
	}
	a.server = srv
	link := share.ShareLink(srv.Port())
	if a.cfg.Share.Advertise {
		m, err := share.Advertise(name, srv.Port(), "board="+a.board.ID)
		if err != nil {
			log.Warn("mDNS advertise failed", "err", err)
		} else {
			a.mdns = m
		}
	}
	a.SetStatus("Sharing at " + link)
	return nil
}

func (a *App) close() {
	if a.mdns != nil {
		if err := a.mdns.Shutdown(); err != nil {
			log.Warn("mDNS shutdown failed", "err", err)
		}
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.server.Close(ctx); err != nil {
			log.Warn("share server shutdown failed", "err", err)
		}
	}
	a.board.Close()
}
