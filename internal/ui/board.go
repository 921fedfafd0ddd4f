package ui

import (
	"context"
	"fmt"
	"time"

	"DoodleBoard/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const storeTimeout = 10 * time.Second

// storeNames lists stored sessions by name.
func (a *App) storeNames() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	entries, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// pickSession asks for a stored session name and calls picked with it.
func (a *App) pickSession(title string, picked func(name string)) {
	names, err := a.storeNames()
	if err != nil {
		dialog.ShowError(fmt.Errorf("list sessions: %w", err), a.window)
		return
	}
	if len(names) == 0 {
		dialog.ShowInformation(title, "No saved drawings yet.", a.window)
		return
	}
	sel := widget.NewSelect(names, nil)
	sel.SetSelectedIndex(0)
	items := []*widget.FormItem{widget.NewFormItem("Drawing", sel)}
	dialog.ShowForm(title, "OK", "Cancel", items, func(ok bool) {
		if ok && sel.Selected != "" {
			picked(sel.Selected)
		}
	}, a.window)
}

func (a *App) openDialog() {
	a.pickSession("Open", a.open)
}

// open loads a stored session into the board.
func (a *App) open(name string) {
	a.SetStatus("Loading " + name + "...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		s, err := a.sessions.Load(ctx, name)
		if err != nil {
			fyne.Do(func() { a.loadFailed(name, err) })
			return
		}
		a.board.Load(s, func(err error) {
			if err != nil {
				a.loadFailed(name, err)
				return
			}
			a.canvas.ResetView()
			a.SetStatus(fmt.Sprintf("Loaded %s (%d steps)", name, len(s.Forward)))
		})
	}()
}

func (a *App) loadFailed(name string, err error) {
	var msg string
	switch session.Classify(err) {
	case session.LoadNotFound:
		msg = "Drawing not found"
	case session.LoadUnsupportedVersion:
		msg = "Drawing was saved by a newer version"
	case session.LoadCorrupt:
		msg = "Drawing file is damaged"
	default:
		msg = "Could not open drawing"
	}
	log.Warn("open failed", "name", name, "err", err)
	a.SetStatus(msg)
	dialog.ShowError(fmt.Errorf("%s: %w", msg, err), a.window)
}

func (a *App) saveDialog() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("my drawing")
	items := []*widget.FormItem{widget.NewFormItem("Name", entry)}
	dialog.ShowForm("Save", "Save", "Cancel", items, func(ok bool) {
		if ok {
			a.save(entry.Text)
		}
	}, a.window)
}

// save records the board and stores it under name.
func (a *App) save(name string) {
	a.board.Save(func(s *session.Session, err error) {
		if err != nil {
			dialog.ShowError(fmt.Errorf("save: %w", err), a.window)
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			err := a.sessions.Save(ctx, name, s)
			fyne.Do(func() {
				if err != nil {
					log.Warn("save failed", "name", name, "err", err)
					dialog.ShowError(fmt.Errorf("save %s: %w", name, err), a.window)
					return
				}
				a.SetStatus(fmt.Sprintf("Saved %s (%d steps)", name, len(s.Forward)))
			})
		}()
	})
}
