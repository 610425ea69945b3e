package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/editor"
	"github.com/example/labelcanvas/internal/storage"
	"github.com/example/labelcanvas/internal/viewer"
)

type viewCmd struct {
	*root
	fs *flag.FlagSet

	input    string
	dataPath string
	session  string
	restore  bool
	noSave   bool
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	v := &viewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(v)
	fs.StringVar(&v.dataPath, "data", r.cfg().SampleData, "JSON sample data used to fill labels")
	fs.StringVar(&v.session, "session", "", "autosave name (default: the template path)")
	fs.BoolVar(&v.restore, "restore", false, "start from the autosaved copy instead of the template file")
	fs.BoolVar(&v.noSave, "no-autosave", false, "do not autosave changes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		v.input = rest[0]
	default:
		return nil, &UsageError{of: v}
	}
	if v.session == "" {
		v.session = sessionName(v.input)
	}
	return v, nil
}

func (v *viewCmd) Program() string {
	return v.root.Program() + " view"
}

func (v *viewCmd) FlagSet() *flag.FlagSet {
	return v.fs
}

// initialDocument picks the starting document: the autosave when asked to
// restore, the template when it exists, otherwise a new canvas.
func (v *viewCmd) initialDocument(store *storage.Store) (document.Document, error) {
	if v.restore {
		if store == nil {
			return document.Document{}, errors.New("-restore needs autosave enabled")
		}
		return store.Load(context.Background(), v.session)
	}
	if v.input == "" {
		return v.root.newDocument(), nil
	}
	doc, err := readDocument(v.input)
	if errors.Is(err, os.ErrNotExist) {
		return v.root.newDocument(), nil
	}
	return doc, err
}

func (v *viewCmd) Run() error {
	var store *storage.Store
	if !v.noSave {
		var err error
		store, err = v.root.openStore()
		if err != nil {
			log.Printf("autosave disabled: %v", err)
			store = nil
		} else {
			defer closeWithLog("autosave", store)
		}
	}
	doc, err := v.initialDocument(store)
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	data, err := readData(v.dataPath)
	if err != nil {
		return err
	}

	opts := v.root.editorOptions()
	if store != nil {
		opts.OnCommit = store.Autosave(v.session, v.root.logger)
	}
	ed := editor.New(doc, opts)

	target := v.input
	if target == "" {
		target = "untitled.json"
	}
	cfg := v.root.cfg()
	title := "LabelCanvas"
	if v.input != "" {
		title = filepath.Base(v.input) + " - LabelCanvas"
	}
	baseDir := ""
	if v.input != "" {
		baseDir = filepath.Dir(v.input)
	}
	view := viewer.New(ed, viewer.Options{
		Title:      title,
		Theme:      v.root.activeTheme,
		BaseWidth:  cfg.Canvas.BaseWidth,
		HandleSize: cfg.Interaction.HandleSize,
		Data:       data,
		BaseDir:    baseDir,
		Notifier:   v.root.notifier,
		Logger:     v.root.logger,
		OnSave: func() (string, error) {
			if err := writeDocument(target, ed.Snapshot()); err != nil {
				return "", err
			}
			return target, nil
		},
		OnExport: func(img *image.RGBA) (string, error) {
			out := exportPath(cfg.ExportDir, target)
			return out, writePNG(out, img)
		},
	})
	view.Run()
	// Debounced edits still waiting on their timer are committed, and so
	// autosaved, before the store closes.
	ed.Flush()
	return nil
}
