package main

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/labelcanvas/internal/config"
)

func testRoot(t *testing.T) *root {
	t.Helper()
	cfg := config.New()
	// Longest allowed delay, so typing stays pending while a test inspects it.
	cfg.History.DebounceMS = 1000
	return &root{program: "labelcanvas", config: cfg, dbPath: filepath.Join(t.TempDir(), "autosave.db")}
}

const sampleTemplate = `{"version":2,"elements":[
 {"type":"text","id":"title","zIndex":0,"x":40,"y":40,"width":200,"height":50,"content":"Hello"},
 {"type":"label","id":"sku","zIndex":1,"x":40,"y":120,"width":200,"height":50,"jsonKey":"sku","placeholder":"SKU"}
]}`

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "label.json")
	if err := os.WriteFile(path, []byte(sampleTemplate), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestParseExportErrors(t *testing.T) {
	r := testRoot(t)
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"a.json", "b.json"}, "export takes one template"},
		{[]string{"-autosave", "x", "a.json"}, "export takes one template"},
		{[]string{"-scale", "0", "a.json"}, "invalid -scale"},
		{[]string{"-clipboard", "-o", "out.png", "a.json"}, "-clipboard cannot be combined with -o"},
	}
	for _, tc := range cases {
		_, err := parseExportCmd(tc.args, r)
		if err == nil {
			t.Fatalf("%v: expected error", tc.args)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: expected error to mention %q, got %v", tc.args, tc.want, err)
		}
	}
}

func TestParseExportWithoutTemplateShowsUsage(t *testing.T) {
	_, err := parseExportCmd(nil, testRoot(t))
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(uerr.Error(), "labelcanvas export") {
		t.Fatalf("expected rendered help, got %q", uerr.Error())
	}
}

func TestExportRunMissingTemplate(t *testing.T) {
	cmd, err := parseExportCmd([]string{filepath.Join(t.TempDir(), "missing.json")}, testRoot(t))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	cmd.stdout = &strings.Builder{}
	if err := cmd.Run(); err == nil {
		t.Fatalf("expected error")
	} else {
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected wrapped not-exist error, got %v", err)
		}
		if want := "failed to load template"; !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to contain %q, got %v", want, err)
		}
	}
}

func TestExportClipboardError(t *testing.T) {
	original := writeClipboardFn
	sentinel := errors.New("no display")
	writeClipboardFn = func(image.Image) error { return sentinel }
	t.Cleanup(func() { writeClipboardFn = original })

	cmd, err := parseExportCmd([]string{"-clipboard", writeTemplate(t)}, testRoot(t))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	cmd.stdout = &strings.Builder{}
	if err := cmd.Run(); !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped clipboard error, got %v", err)
	}
}

func TestParseAutosaveErrors(t *testing.T) {
	r := testRoot(t)
	if _, err := parseAutosaveCmd([]string{"show"}, r); err == nil || !strings.Contains(err.Error(), "requires a document name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
	if _, err := parseAutosaveCmd([]string{"restore", "doc"}, r); err == nil || !strings.Contains(err.Error(), "requires -o") {
		t.Fatalf("expected missing -o error, got %v", err)
	}
	var uerr *UsageError
	if _, err := parseAutosaveCmd([]string{"bogus"}, r); !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestParseBackgroundErrors(t *testing.T) {
	r := testRoot(t)
	if _, err := parseBackgroundCmd([]string{"run"}, r); err == nil || !strings.Contains(err.Error(), "requires a command") {
		t.Fatalf("expected missing command error, got %v", err)
	}
	if _, err := parseBackgroundCmd([]string{"serve"}, r); err == nil || !strings.Contains(err.Error(), "requires a session name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
	var uerr *UsageError
	if _, err := parseBackgroundCmd([]string{"list", "dir", "extra"}, r); !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	b, err := parseBackgroundCmd([]string{"start", "main", "/tmp/socks"}, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.name != "main" || b.dir != "/tmp/socks" {
		t.Fatalf("positional arguments not applied: %+v", b)
	}
}

func TestRootUnknownCommandShowsUsage(t *testing.T) {
	configPathOverride = filepath.Join(t.TempDir(), "config.rc")
	t.Cleanup(func() { configPathOverride = "" })
	err := newRoot().Run([]string{"bogus"})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
