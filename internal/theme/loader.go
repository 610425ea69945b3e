package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader finds themes by name or path.
type Loader struct {
	ConfigDir string
	SystemDir string
}

// NewLoader searches ~/.config/labelcanvas/themes and the system share dir.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "labelcanvas", "themes"),
		SystemDir: "/usr/share/labelcanvas/themes",
	}
}

// Load resolves name as a file path first, then as a built-in theme, then
// from the config and system directories. An empty name or "default" is the
// built-in default palette.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" || strings.EqualFold(name, "default") {
		return Default(), nil
	}
	if _, err := os.Stat(name); err == nil {
		return parseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name), name)
	}
	file := name
	if !strings.HasSuffix(file, ".theme") {
		file += ".theme"
	}
	sources := []struct {
		fsys  fs.FS
		path  string
		label string
	}{
		{EmbeddedThemes, "defaults/" + file, "built-in " + file},
		{dirFS(l.ConfigDir), file, filepath.Join(l.ConfigDir, file)},
		{dirFS(l.SystemDir), file, filepath.Join(l.SystemDir, file)},
	}
	for _, src := range sources {
		if src.fsys == nil {
			continue
		}
		t, err := parseFile(src.fsys, src.path, src.label)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return t, err
	}
	return nil, fmt.Errorf("theme '%s' not found", name)
}

func dirFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	return os.DirFS(dir)
}

func parseFile(fsys fs.FS, path, label string) (*Theme, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", label, err)
	}
	return t, nil
}
