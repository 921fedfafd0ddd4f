package ui

import (
	"context"
	"errors"
	"fmt"
	"image"

	"DoodleBoard/internal/config"
	share "DoodleBoard/internal/net"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// WatchWindow shows a board shared by another DoodleBoard. It cannot draw.
type WatchWindow struct {
	window fyne.Window
	canvas *BoardWidget
	status *widget.Label
	cancel context.CancelFunc
}

// RunWatch opens a viewer for the stream at addr, or for the first stream
// found on the network when addr is empty, and blocks until it closes.
func RunWatch(cfg *config.Config, addr string) error {
	ww := newWatchWindow(newFyneApp(), cfg)
	ww.start(cfg, addr)
	ww.window.ShowAndRun()
	return nil
}

func (a *App) watchDialog() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("host:port (empty to search)")
	items := []*widget.FormItem{widget.NewFormItem("Address", entry)}
	dialog.ShowForm("Watch", "Connect", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		ww := newWatchWindow(a.fyne, a.cfg)
		ww.start(a.cfg, entry.Text)
		ww.window.Show()
	}, a.window)
}

func newWatchWindow(fa fyne.App, cfg *config.Config) *WatchWindow {
	ww := &WatchWindow{
		window: fa.NewWindow("DoodleBoard Viewer"),
		canvas: NewBoardWidget(nil, cfg.Canvas.BackgroundColor()),
		status: widget.NewLabel("Connecting..."),
	}
	ww.window.SetContent(container.NewBorder(nil, ww.status, nil, nil, ww.canvas))
	ww.window.Resize(fyne.NewSize(800, 600))
	ww.window.SetOnClosed(func() {
		if ww.cancel != nil {
			ww.cancel()
		}
	})
	return ww
}

// start connects in the background. Frames and status changes are posted
// to the UI thread.
func (ww *WatchWindow) start(cfg *config.Config, addr string) {
	ctx, cancel := context.WithCancel(context.Background())
	ww.cancel = cancel
	setStatus := func(text string) {
		fyne.Do(func() { ww.status.SetText(text) })
	}

	go func() {
		if addr == "" {
			setStatus("Searching the network...")
			found, err := share.Discover(ctx, cfg.Share.Discovery.Duration())
			if err != nil {
				log.Warn("discovery failed", "err", err)
				setStatus(fmt.Sprintf("No shared board found: %v", err))
				return
			}
			addr = found.Addr
			log.Info("discovered share stream", "instance", found.Instance, "addr", found.Addr)
		}

		setStatus("Connecting to " + addr + "...")
		err := share.Watch(ctx, addr,
			func(h share.Hello) {
				title := h.Name
				if title == "" {
					title = addr
				}
				fyne.Do(func() {
					ww.window.SetTitle("DoodleBoard Viewer - " + title)
					ww.status.SetText("Watching " + addr)
				})
			},
			func(img image.Image) {
				fyne.Do(func() { ww.canvas.SetFrame(img) })
			})
		switch {
		case errors.Is(err, context.Canceled):
		case err != nil:
			log.Warn("watch ended", "addr", addr, "err", err)
			setStatus(fmt.Sprintf("Disconnected: %v", err))
		default:
			setStatus("The shared board was closed")
		}
	}()
}
