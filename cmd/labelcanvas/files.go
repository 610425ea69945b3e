package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/render"
	"github.com/example/labelcanvas/internal/storage"
)

func readDocument(path string) (document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return document.Document{}, err
	}
	defer closeWithLog(path, f)
	doc, err := document.Decode(f, document.FormatFromPath(path))
	if err != nil {
		return document.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func writeDocument(path string, doc document.Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := document.EncodeBytes(doc, document.FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readData(path string) (render.Data, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sample data: %w", err)
	}
	d, err := render.ParseData(b)
	if err != nil {
		return nil, fmt.Errorf("sample data %s: %w", path, err)
	}
	return d, nil
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// exportPath names the PNG for a template: next to the configured export
// directory when set, otherwise beside the template.
func exportPath(exportDir, template string) string {
	base := "label"
	dir := "."
	if template != "" {
		base = strings.TrimSuffix(filepath.Base(template), filepath.Ext(template))
		dir = filepath.Dir(template)
	}
	if exportDir != "" {
		dir = exportDir
	}
	return filepath.Join(dir, base+".png")
}

// sessionName derives the autosave key for a template path.
func sessionName(template string) string {
	if template == "" {
		return "untitled"
	}
	if abs, err := filepath.Abs(template); err == nil {
		return abs
	}
	return template
}

func (r *root) openStore() (*storage.Store, error) {
	path := r.dbPath
	if path == "" {
		path = r.cfg().AutosaveDB
	}
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return storage.Open(path)
}

// newDocument is an empty document with the configured canvas defaults.
func (r *root) newDocument() document.Document {
	doc := document.New()
	doc.Settings = r.cfg().DocumentSettings()
	return doc
}

// mediaFromFile builds a media element for an image file. SVG files become
// vector media; anything the decoders understand becomes raster media.
func mediaFromFile(path string, x, y, w, h float64) (*element.Media, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		if w <= 0 || h <= 0 {
			w, h = 100, 100
		}
		return element.NewMedia(x, y, w, h, element.MediaVector, string(b), name), nil
	}
	m, err := rasterMedia(b, name, x, y, w, h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// rasterMedia embeds encoded image bytes as a data URL. A zero size takes
// the image's own pixel size.
func rasterMedia(b []byte, name string, x, y, w, h float64) (*element.Media, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		w, h = float64(cfg.Width), float64(cfg.Height)
	}
	if w <= 0 || h <= 0 {
		return nil, errors.New("empty image")
	}
	return element.NewMedia(x, y, w, h, element.MediaRaster, render.EncodeDataURL("image/"+format, b), name), nil
}
