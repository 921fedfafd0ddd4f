package storage

import (
	"bytes"
	"context"
	"fmt"

	"DoodleBoard/internal/session"
)

// Sessions reads and writes sessions through a Store.
type Sessions struct {
	Store Store
}

func (s Sessions) Load(ctx context.Context, name string) (*session.Session, error) {
	data, err := s.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	sess, err := session.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return sess, nil
}

func (s Sessions) Save(ctx context.Context, name string, sess *session.Session) error {
	var buf bytes.Buffer
	if err := session.Write(&buf, sess); err != nil {
		return fmt.Errorf("encode %q: %w", name, err)
	}
	return s.Store.Put(ctx, name, buf.Bytes())
}

var (
	_ session.Loader = Sessions{}
	_ session.Saver  = Sessions{}
)
