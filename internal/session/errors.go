package session

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error classes reported to callers. Every load failure matches exactly one
// of them through errors.Is (via Classify).
var (
	ErrNotFound           = errors.New("session not found")
	ErrUnsupportedVersion = errors.New("unsupported session version")
	ErrCorrupt            = errors.New("corrupt session")
)

// FormatError describes a malformed or unsupported session file.
type FormatError struct {
	Line int
	Err  error // ErrCorrupt or ErrUnsupportedVersion
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d: %s", e.Err, e.Line, e.Msg)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

func corrupt(line int, format string, args ...any) error {
	return &FormatError{Line: line, Err: ErrCorrupt, Msg: fmt.Sprintf(format, args...)}
}

// LoadStatus is the user-visible outcome of loading a session.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	LoadNotFound
	LoadUnsupportedVersion
	LoadCorrupt
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadNotFound:
		return "not found"
	case LoadUnsupportedVersion:
		return "unsupported version"
	case LoadCorrupt:
		return "corrupt"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Classify maps a load error onto its status. Errors that are neither
// missing-file nor version errors count as corrupt.
func Classify(err error) LoadStatus {
	switch {
	case err == nil:
		return LoadOK
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return LoadNotFound
	case errors.Is(err, ErrUnsupportedVersion):
		return LoadUnsupportedVersion
	}
	return LoadCorrupt
}
