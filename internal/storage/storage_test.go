package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/history"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "autosave.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sample() document.Document {
	doc := document.New()
	txt := element.NewText(10, 20, "hello")
	txt.ZIndex = 1
	doc.Elements = []element.Element{txt}
	return doc
}

func TestPragmas(t *testing.T) {
	s := openTemp(t)
	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q", mode)
	}
	var timeout int
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatal(err)
	}
	if timeout != DefaultBusyTimeout {
		t.Fatalf("busy_timeout = %d", timeout)
	}
}

func TestSaveLoadReplace(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	doc := sample()
	if err := s.Save(ctx, "draft", doc, history.OpAddElement); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "draft")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Elements) != 1 || got.Elements[0].(*element.Text).Content != "hello" {
		t.Fatalf("loaded %+v", got.Elements)
	}
	doc.Elements = nil
	if err := s.Save(ctx, "draft", doc, history.OpDeleteElement); err != nil {
		t.Fatal(err)
	}
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Elements != 0 || entries[0].LastOp != history.OpDeleteElement {
		t.Fatalf("entries %+v", entries)
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrderAndDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	at := time.Unix(1700000000, 0)
	s.now = func() time.Time {
		at = at.Add(time.Second)
		return at
	}
	for _, n := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, n, sample(), history.OpInit); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Name != "c" {
		t.Fatalf("entries %+v", entries)
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	entries, _ = s.List(ctx)
	if len(entries) != 2 {
		t.Fatalf("after delete %+v", entries)
	}
	if err := s.Save(ctx, "", sample(), history.OpInit); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestAutosaveHook(t *testing.T) {
	s := openTemp(t)
	eng := history.NewEngine(document.New(), 0)
	hook := s.Autosave("session", nil)
	st := eng.Commit(history.OpAddElement, sample().Elements, nil)
	hook(st)
	got, err := s.Load(context.Background(), "session")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Elements) != 1 {
		t.Fatalf("autosaved %d elements", len(got.Elements))
	}
}
