package export

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"DoodleBoard/internal/session"
	"DoodleBoard/internal/state"
)

// render replays the forward history onto a fresh buffer. Redo steps are
// not part of the picture.
func render(s *session.Session) (*state.Buffer, error) {
	visible := *s
	visible.Redo = nil
	buf, err := state.NewBufferFromSession(&visible, state.DefaultCacheConfig())
	if err != nil {
		return nil, err
	}
	buf.Draw()
	return buf, nil
}

// PNG writes the rendered raster.
func PNG(w io.Writer, s *session.Session) error {
	buf, err := render(s)
	if err != nil {
		return err
	}
	if err := png.Encode(w, buf.Snapshot()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// File exports s to path, choosing PDF or PNG by extension.
func File(path string, s *session.Session) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		buf, err := render(s)
		if err != nil {
			return err
		}
		if err := buf.Surface().Pixmap().SavePNG(path); err != nil {
			return fmt.Errorf("save png: %w", err)
		}
		return nil
	case ".pdf":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := PDF(f, s); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return fmt.Errorf("unsupported export format %q", filepath.Ext(path))
}
