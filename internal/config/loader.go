package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LABELCANVAS_"

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set at compile time if needed
	// Getenv reads environment overrides. Nil means os.Getenv.
	Getenv func(string) string
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load reads the config file, if any, then applies environment overrides.
func (l *Loader) Load() (*Config, error) {
	cfg := New()
	if path := l.GetConfigPath(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = Parse(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Variable override path
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	// 2. Local run directory (dev mode)
	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, ".labelcanvasrc")
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	// 3. XDG Config Path
	home, _ := os.UserHomeDir()
	xdgPath := filepath.Join(home, ".config", "labelcanvas", "config.rc")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	// Fallback names
	xdgPath = filepath.Join(home, ".config", "labelcanvas", "labelcanvas.rc")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	return ""
}

// ApplyEnv overlays LABELCANVAS_* variables onto c.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"THEME":            &c.Theme,
		"EXPORT_DIR":       &c.ExportDir,
		"SAMPLE_DATA":      &c.SampleData,
		"AUTOSAVE_DB":      &c.AutosaveDB,
		"MESH_COLOR":       &c.Canvas.MeshColor,
		"BACKGROUND_COLOR": &c.Canvas.BackgroundColor,
		"ASPECT_RATIO":     &c.Canvas.AspectRatio,
	}
	for k, p := range str {
		if v := strings.TrimSpace(getenv(EnvPrefix + k)); v != "" {
			*p = v
		}
	}
	ints := map[string]func(string) error{
		"HISTORY_LIMIT": func(v string) error { return setHistoryField(&c.History, "limit", v) },
		"DEBOUNCE_MS":   func(v string) error { return setHistoryField(&c.History, "debounce_ms", v) },
		"GRID":          func(v string) error { return setCanvasField(&c.Canvas, "grid", v) },
		"MIN_ZOOM":      func(v string) error { return setInteractionField(&c.Interaction, "min_zoom", v) },
		"MAX_ZOOM":      func(v string) error { return setInteractionField(&c.Interaction, "max_zoom", v) },
	}
	for k, set := range ints {
		v := strings.TrimSpace(getenv(EnvPrefix + k))
		if v == "" {
			continue
		}
		if err := set(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
		}
	}
	return nil
}

// Bool reads a boolean environment override, reporting whether it was set.
func Bool(getenv func(string) string, name string) (bool, bool) {
	v := strings.TrimSpace(getenv(EnvPrefix + name))
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}
