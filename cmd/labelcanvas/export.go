package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/example/labelcanvas/internal/clipboard"
	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/render"
)

// writeClipboardFn is swapped out by tests.
var writeClipboardFn = clipboard.WriteImage

type exportCmd struct {
	*root
	fs *flag.FlagSet

	input     string
	output    string
	dataPath  string
	autosave  string
	scale     float64
	grid      bool
	shadow    bool
	toClip    bool
	baseWidth float64

	stdout io.Writer
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfg := r.cfg()
	e := &exportCmd{root: r, fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.output, "o", "", "output PNG file (default: template name in the export directory)")
	fs.StringVar(&e.dataPath, "data", cfg.SampleData, "JSON sample data used to fill labels")
	fs.StringVar(&e.autosave, "autosave", "", "export an autosaved document instead of a template file")
	fs.Float64Var(&e.scale, "scale", 1, "output pixels per canvas unit")
	fs.BoolVar(&e.grid, "grid", false, "include the editing grid")
	fs.BoolVar(&e.shadow, "shadow", false, "add a drop shadow around the label")
	fs.BoolVar(&e.toClip, "clipboard", false, "copy the PNG to the clipboard instead of writing a file")
	fs.Float64Var(&e.baseWidth, "width", cfg.Canvas.BaseWidth, "canvas width in canvas units")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch rest := fs.Args(); {
	case len(rest) == 1 && e.autosave == "":
		e.input = rest[0]
	case len(rest) == 0 && e.autosave != "":
	case len(rest) == 0:
		return nil, &UsageError{of: e}
	default:
		return nil, errors.New("export takes one template, or -autosave without a template")
	}
	if e.scale <= 0 {
		return nil, fmt.Errorf("invalid -scale %v", e.scale)
	}
	if e.toClip && e.output != "" {
		return nil, errors.New("-clipboard cannot be combined with -o")
	}
	return e, nil
}

func (e *exportCmd) Program() string {
	return e.root.Program() + " export"
}

func (e *exportCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func (e *exportCmd) load() (document.Document, error) {
	if e.autosave == "" {
		return readDocument(e.input)
	}
	store, err := e.root.openStore()
	if err != nil {
		return document.Document{}, err
	}
	defer closeWithLog("autosave", store)
	return store.Load(context.Background(), e.autosave)
}

func (e *exportCmd) render() (*image.RGBA, error) {
	doc, err := e.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	data, err := readData(e.dataPath)
	if err != nil {
		return nil, err
	}
	baseDir := ""
	if e.input != "" {
		baseDir = filepath.Dir(e.input)
	}
	img, err := render.Render(doc, render.Options{
		BaseWidth: e.baseWidth,
		Scale:     e.scale,
		HideGrid:  !e.grid,
		Data:      data,
		BaseDir:   baseDir,
	})
	if img == nil {
		return nil, fmt.Errorf("failed to render: %w", err)
	}
	if err != nil {
		log.Printf("export: %v", err)
	}
	if e.shadow {
		img, _ = render.DefaultShadow().Apply(img)
	}
	return img, nil
}

func (e *exportCmd) Run() error {
	img, err := e.render()
	if err != nil {
		return err
	}
	if e.toClip {
		if err := writeClipboardFn(img); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		e.root.notifyCopy("label image")
		return writeln(e.stdout, "copied to clipboard")
	}
	out := e.output
	if out == "" {
		name := e.input
		if name == "" {
			name = e.autosave
		}
		out = exportPath(e.root.cfg().ExportDir, name)
	}
	if err := writePNG(out, img); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	e.root.notifyExport(out, img)
	return writeln(e.stdout, out)
}
