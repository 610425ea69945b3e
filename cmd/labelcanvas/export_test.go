package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/history"
	"github.com/example/labelcanvas/internal/storage"
)

func TestExportRunWritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "label.png")
	cmd, err := parseExportCmd([]string{"-o", out, "-scale", "0.5", writeTemplate(t)}, testRoot(t))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	var stdout bytes.Buffer
	cmd.stdout = &stdout
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != out {
		t.Fatalf("expected output path %q, got %q", out, got)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(400, 300) {
		t.Fatalf("expected 400x300 export, got %v", got)
	}
}

func TestExportClipboardCopiesImage(t *testing.T) {
	original := writeClipboardFn
	var copied image.Image
	writeClipboardFn = func(img image.Image) error { copied = img; return nil }
	t.Cleanup(func() { writeClipboardFn = original })

	cmd, err := parseExportCmd([]string{"-clipboard", writeTemplate(t)}, testRoot(t))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	var stdout bytes.Buffer
	cmd.stdout = &stdout
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if copied == nil || copied.Bounds().Dx() != 800 {
		t.Fatalf("expected an 800 wide image on the clipboard, got %v", copied)
	}
	if !strings.Contains(stdout.String(), "copied to clipboard") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestExportFromAutosave(t *testing.T) {
	r := testRoot(t)
	store, err := storage.Open(r.dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	doc, err := document.DecodeBytes([]byte(sampleTemplate), document.FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := store.Save(context.Background(), "draft", doc, history.OpInit); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Close()

	out := filepath.Join(t.TempDir(), "draft.png")
	cmd, err := parseExportCmd([]string{"-autosave", "draft", "-o", out}, r)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	cmd.stdout = &bytes.Buffer{}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected export file: %v", err)
	}
}

func TestAutosaveCommands(t *testing.T) {
	r := testRoot(t)
	store, err := storage.Open(r.dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	doc, err := document.DecodeBytes([]byte(sampleTemplate), document.FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, "draft", doc, history.OpMoveElement); err != nil {
		t.Fatalf("save: %v", err)
	}

	run := func(args ...string) string {
		t.Helper()
		a, err := parseAutosaveCmd(args, r)
		if err != nil {
			t.Fatalf("%v: parse: %v", args, err)
		}
		var out bytes.Buffer
		a.stdout = &out
		if err := a.run(ctx, store); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if got := run("list"); !strings.Contains(got, "draft\t2 element(s)\tmove_element") {
		t.Fatalf("unexpected list output %q", got)
	}
	if got := run("show", "draft"); !strings.Contains(got, `"jsonKey": "sku"`) && !strings.Contains(got, `"jsonKey":"sku"`) {
		t.Fatalf("unexpected show output %q", got)
	}

	target := filepath.Join(t.TempDir(), "restored.yaml")
	if got := run("restore", "-o", target, "draft"); !strings.Contains(got, "restored draft") {
		t.Fatalf("unexpected restore output %q", got)
	}
	restored, err := readDocument(target)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if len(restored.Elements) != 2 {
		t.Fatalf("expected 2 restored elements, got %d", len(restored.Elements))
	}

	a, err := parseAutosaveCmd([]string{"restore", "-o", target, "draft"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a.stdout = &bytes.Buffer{}
	if err := a.run(ctx, store); err == nil || !strings.Contains(err.Error(), "use -f") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	run("delete", "draft")
	if got := run("list"); !strings.Contains(got, "no autosaved documents") {
		t.Fatalf("expected empty list after delete, got %q", got)
	}
}
