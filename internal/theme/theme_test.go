package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseKnownAndUnknownKeys(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: Mine\n# comment\nselection: red\nBogus: #123456\nBackground: #10203040\n"))
	if err != nil {
		t.Fatal(err)
	}
	if th.Name != "Mine" {
		t.Errorf("name %q", th.Name)
	}
	if th.Selection != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("selection %+v", th.Selection)
	}
	if th.Background.A != 0x40 {
		t.Errorf("background alpha %+v", th.Background)
	}
	if th.Foreground != Default().Foreground {
		t.Errorf("unset field lost its default: %+v", th.Foreground)
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("Selection: #zz")); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbeddedThemesLoad(t *testing.T) {
	names := Names()
	if len(names) < 3 {
		t.Fatalf("names %v", names)
	}
	l := &Loader{ConfigDir: t.TempDir(), SystemDir: t.TempDir()}
	for _, n := range names {
		if _, err := l.Load(n); err != nil {
			t.Errorf("load %s: %v", n, err)
		}
	}
	dark, _ := l.Load("dark")
	if dark.Name != "Dark" {
		t.Errorf("dark name %q", dark.Name)
	}
}

func TestLoaderSearchOrder(t *testing.T) {
	dir := t.TempDir()
	l := &Loader{ConfigDir: dir, SystemDir: t.TempDir()}
	if err := os.WriteFile(filepath.Join(dir, "mine.theme"), []byte("Name: From Config\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	th, err := l.Load("mine")
	if err != nil || th.Name != "From Config" {
		t.Fatalf("got %+v, %v", th, err)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
	if th, _ := l.Load(""); th.Name != "Default" {
		t.Fatalf("empty name gave %q", th.Name)
	}
}

func TestFieldsOrder(t *testing.T) {
	f := Fields(Default())
	if len(f) != 8 || f[0].Name != "Background" || f[len(f)-1].Name != "CheckerDark" {
		t.Fatalf("fields %+v", f)
	}
}
