package ui

import (
	"fmt"
	"strings"

	"DoodleBoard/internal/export"
	"DoodleBoard/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// exportDialog writes the current drawing as a PDF or PNG file chosen by
// the user. The extension picks the format; PDF is the default.
func (a *App) exportDialog() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if w == nil {
			return
		}
		a.board.Save(func(s *session.Session, err error) {
			if err != nil {
				w.Close()
				dialog.ShowError(fmt.Errorf("export: %w", err), a.window)
				return
			}
			a.writeExport(w, s)
		})
	}, a.window)
	d.SetFileName("drawing.pdf")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".png"}))
	d.Show()
}

func (a *App) writeExport(w fyne.URIWriteCloser, s *session.Session) {
	defer func() {
		if err := w.Close(); err != nil {
			log.Warn("closing export failed", "uri", w.URI().String(), "err", err)
		}
	}()
	var err error
	switch strings.ToLower(w.URI().Extension()) {
	case ".png":
		err = export.PNG(w, s)
	default:
		err = export.PDF(w, s)
	}
	if err != nil {
		log.Warn("export failed", "uri", w.URI().String(), "err", err)
		dialog.ShowError(fmt.Errorf("export: %w", err), a.window)
		return
	}
	a.SetStatus("Exported " + w.URI().Name())
}
