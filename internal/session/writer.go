package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Write serialises s. Frames are never part of a session; a record without
// a brush is written without a brush block.
func Write(out io.Writer, s *Session) error {
	w := bufio.NewWriter(out)
	line := func(v string) {
		w.WriteString(v)
		w.WriteByte('\n')
	}

	line(Magic)
	line(strconv.Itoa(Version))
	line(strconv.Itoa(s.Width))
	line(strconv.Itoa(s.Height))
	line(strconv.FormatInt(int64(s.Background.Int32()), 10))

	for _, group := range []struct {
		tok  string
		recs []Record
	}{
		{tokStep, s.Forward},
		{tokRedoStep, s.Redo},
	} {
		for _, r := range group.recs {
			line(group.tok)
			line(strconv.Itoa(int(r.Type)))
			for _, p := range r.Points {
				line(formatFloat(p.X) + "," + formatFloat(p.Y))
			}
			line(tokEndOfStep)
			if b := r.Brush; b != nil {
				line(strconv.Itoa(int(b.Kind)))
				line(strconv.FormatInt(int64(b.Color.Int32()), 10))
				line(formatFloat(b.Size))
				line(strconv.Itoa(int(b.Alpha)))
				line(tokEndOfBrush)
			}
		}
	}
	line(tokEndOfData)
	return w.Flush()
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// WriteFile writes s to path through a temporary file in the same directory
// so a failed save never truncates an existing session.
func WriteFile(path string, s *Session) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, s); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

// ReadFile reads the session at path. A missing file yields an error
// classified as LoadNotFound.
func ReadFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer f.Close()
	return Read(f)
}
