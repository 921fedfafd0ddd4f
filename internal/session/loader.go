package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Extension is appended to session names stored as files.
const Extension = ".dd"

// Loader resolves a session by name.
type Loader interface {
	Load(ctx context.Context, name string) (*Session, error)
}

// Saver persists a session under a name.
type Saver interface {
	Save(ctx context.Context, name string, s *Session) error
}

// FileLoader loads and saves sessions as files below Dir. Absolute names
// are used as-is.
type FileLoader struct {
	Dir string
}

func (l FileLoader) path(name string) string {
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	if filepath.IsAbs(name) || l.Dir == "" {
		return name
	}
	return filepath.Join(l.Dir, name)
}

func (l FileLoader) Load(ctx context.Context, name string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := ReadFile(l.path(name))
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return s, nil
}

func (l FileLoader) Save(ctx context.Context, name string, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteFile(l.path(name), s)
}
