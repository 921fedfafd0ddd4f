package storage

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"DoodleBoard/internal/brush"
	"DoodleBoard/internal/gesture"
	"DoodleBoard/internal/session"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir, err := Open(KindFile, filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	db, err := Open(KindSQLite, filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		dir.Close()
		db.Close()
	})
	return map[string]Store{"dir": dir, "sqlite": db}
}

func TestStorePutGetListDelete(t *testing.T) {
	ctx := context.Background()
	for kind, st := range stores(t) {
		t.Run(kind, func(t *testing.T) {
			if err := st.Put(ctx, "b", []byte("second")); err != nil {
				t.Fatal(err)
			}
			if err := st.Put(ctx, "a", []byte("first")); err != nil {
				t.Fatal(err)
			}
			if err := st.Put(ctx, "a", []byte("replaced")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			got, err := st.Get(ctx, "a")
			if err != nil || string(got) != "replaced" {
				t.Fatalf("Get(a) = %q, %v", got, err)
			}

			list, err := st.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" || list[0].Size != 8 {
				t.Fatalf("List = %+v", list)
			}

			if err := st.Delete(ctx, "a"); err != nil {
				t.Fatal(err)
			}
			if _, err := st.Get(ctx, "a"); !errors.Is(err, ErrNotFound) || !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("Get after delete = %v", err)
			}
			if err := st.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("second delete = %v", err)
			}
		})
	}
}

func TestStoreRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	for kind, st := range stores(t) {
		for _, name := range []string{"", "  ", "../x", `a\b`} {
			if err := st.Put(ctx, name, []byte("x")); err == nil {
				t.Errorf("%s: Put(%q) accepted", kind, name)
			}
		}
	}
}

func TestSessionsAdapter(t *testing.T) {
	ctx := context.Background()
	for kind, st := range stores(t) {
		t.Run(kind, func(t *testing.T) {
			sessions := Sessions{Store: st}
			s := session.New(32, 16, brush.White)
			s.Forward = []session.Record{{
				Type:   brush.StepPoint,
				Points: []gesture.Point{{X: 3, Y: 4}},
				Brush:  &session.BrushRecord{Kind: brush.Pen, Color: brush.Blue, Size: 2, Alpha: 255},
			}}
			if err := sessions.Save(ctx, "doodle", s); err != nil {
				t.Fatal(err)
			}
			got, err := sessions.Load(ctx, "doodle")
			if err != nil {
				t.Fatal(err)
			}
			if got.Width != 32 || len(got.Forward) != 1 || got.Forward[0].Points[0] != (gesture.Point{X: 3, Y: 4}) {
				t.Fatalf("loaded %+v", got)
			}

			_, err = sessions.Load(ctx, "nothing")
			if session.Classify(err) != session.LoadNotFound {
				t.Fatalf("Classify(%v) = %v", err, session.Classify(err))
			}

			if err := st.Put(ctx, "junk", []byte("not a session")); err != nil {
				t.Fatal(err)
			}
			_, err = sessions.Load(ctx, "junk")
			if session.Classify(err) != session.LoadCorrupt {
				t.Fatalf("Classify(%v) = %v", err, session.Classify(err))
			}
		})
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open("s3", t.TempDir()); err == nil {
		t.Fatal("unknown kind accepted")
	}
}
