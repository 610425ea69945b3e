package element

import (
	"errors"
	"image/color"
	"testing"
)

func TestInsertAssignsIncreasingZIndex(t *testing.T) {
	s := NewStore()
	a := NewText(0, 0, "a")
	b := NewText(0, 0, "b")
	if err := s.Insert(a); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := s.Insert(b); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if a.ZIndex != 1 || b.ZIndex != 2 {
		t.Fatalf("unexpected z order %d %d", a.ZIndex, b.ZIndex)
	}
	if _, err := s.Remove(b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c := NewText(0, 0, "c")
	if err := s.Insert(c); err != nil {
		t.Fatalf("insert c: %v", err)
	}
	if c.ZIndex != 3 {
		t.Fatalf("zIndex was reused: got %d", c.ZIndex)
	}
}

func TestReplaceKeepsHighWaterMark(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		if err := s.Insert(NewText(0, 0, "x")); err != nil {
			t.Fatal(err)
		}
	}
	s.Replace(nil)
	e := NewText(0, 0, "y")
	if err := s.Insert(e); err != nil {
		t.Fatal(err)
	}
	if e.ZIndex != 4 {
		t.Fatalf("expected zIndex 4 after replace, got %d", e.ZIndex)
	}
}

func TestInsertDuplicateID(t *testing.T) {
	s := NewStore()
	a := NewText(0, 0, "a")
	if err := s.Insert(a); err != nil {
		t.Fatal(err)
	}
	dup := NewText(0, 0, "b")
	dup.ID = a.ID
	if err := s.Insert(dup); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestOrderedBreaksTiesByPosition(t *testing.T) {
	a := NewText(0, 0, "a")
	b := NewText(0, 0, "b")
	c := NewText(0, 0, "c")
	a.ZIndex, b.ZIndex, c.ZIndex = 2, 1, 2
	s := NewStore(a, b, c)
	got := s.Ordered()
	if got[0] != b || got[1] != a || got[2] != c {
		t.Fatalf("unexpected paint order")
	}
}

func TestReorder(t *testing.T) {
	s := NewStore()
	a, b := NewText(0, 0, "a"), NewText(0, 0, "b")
	_ = s.Insert(a)
	_ = s.Insert(b)
	changed, err := s.Reorder(a.ID, 1)
	if err != nil || !changed {
		t.Fatalf("reorder: %v %v", changed, err)
	}
	if o := s.Ordered(); o[1] != a {
		t.Fatalf("expected a on top")
	}
	if changed, _ := s.Reorder(a.ID, 1); changed {
		t.Fatalf("top element cannot move further forward")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewStore()
	a, b := NewText(0, 0, "a"), NewText(0, 0, "b")
	_ = s.Insert(a)
	_ = s.Insert(b)
	g, err := NewGroup(s, "g", []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	_ = s.Insert(g)

	snap := s.Snapshot()
	a.X = 99
	g.Children[0] = "changed"
	for _, e := range snap {
		switch v := e.(type) {
		case *Text:
			if v.ID == a.ID && v.X == 99 {
				t.Errorf("snapshot shares text frame")
			}
		case *Group:
			if v.Children[0] == "changed" {
				t.Errorf("snapshot shares group children")
			}
		}
	}
}

func TestRemoveDetachesFromGroup(t *testing.T) {
	s := NewStore()
	a, b, c := NewText(0, 0, "a"), NewText(0, 0, "b"), NewText(0, 0, "c")
	_ = s.Insert(a)
	_ = s.Insert(b)
	_ = s.Insert(c)
	g, err := NewGroup(s, "g", []string{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Insert(g)
	if _, err := s.Remove(b.ID); err != nil {
		t.Fatal(err)
	}
	if len(g.Children) != 2 {
		t.Fatalf("expected 2 children, got %v", g.Children)
	}
	if _, err := NewGroup(s, "bad", []string{a.ID, "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dangling child, got %v", err)
	}
}

func TestAsFramed(t *testing.T) {
	if _, ok := AsFramed(&Group{}); ok {
		t.Error("group must not be framed")
	}
	for _, e := range []Element{&Text{}, &Label{}, &Signature{}, &Media{}} {
		if _, ok := AsFramed(e); !ok {
			t.Errorf("%s should be framed", e.Kind())
		}
	}
}

func TestNewLabelDefaults(t *testing.T) {
	l := NewLabel(0, 0, "name", "Name")
	if l.VerticalAlign != VAlignMiddle || l.MinFontSize != DefaultMinFontSize {
		t.Fatalf("label defaults not applied: %+v", l)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF0000")
	if err != nil || c != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("hex: %v %v", c, err)
	}
	c, err = ParseColor("navy")
	if err != nil || c != (color.RGBA{0, 0, 128, 255}) {
		t.Fatalf("name: %v %v", c, err)
	}
	if c, err := ParseColor("transparent"); err != nil || c.A != 0 {
		t.Fatalf("transparent: %v %v", c, err)
	}
	if _, err := ParseColor("bogus"); err == nil {
		t.Fatal("expected error")
	}
	if got := FormatColor(color.RGBA{0x11, 0x22, 0x33, 255}); got != "#112233" {
		t.Fatalf("format: %s", got)
	}
}

func TestSnapshotOfEmptyStoreIsNotNil(t *testing.T) {
	s := NewStore(NewText(0, 0, "a"))
	s.Replace(nil)
	if got := s.Snapshot(); got == nil || len(got) != 0 {
		t.Fatalf("snapshot = %#v", got)
	}
	if got := NewStore().Snapshot(); got == nil {
		t.Fatal("new store snapshot is nil")
	}
}
