// Package storage keeps serialised sessions by name, either as files in a
// directory or as rows in a SQLite database.
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"DoodleBoard/internal/logging"
)

var log = logging.For("storage")

// ErrNotFound is returned for names with no stored session. It matches
// fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("session not stored: %w", fs.ErrNotExist)

// Entry describes one stored session.
type Entry struct {
	Name    string
	Size    int64
	Updated time.Time
}

// Store persists session bytes by name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Store kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the store of the given kind rooted at path.
func Open(kind, path string) (Store, error) {
	switch kind {
	case KindFile, "":
		return OpenDir(path)
	case KindSQLite:
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unknown storage type %q", kind)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("session name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid session name %q", name)
	}
	return name, nil
}
