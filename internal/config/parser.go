package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	// Context for parsing
	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Handle Sections
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Parse Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		// Remove quotes if present
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.SetField(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "history":
			err = setHistoryField(&cfg.History, key, value)
		case currentSection == "interaction":
			err = setInteractionField(&cfg.Interaction, key, value)
		case currentSection == "canvas":
			err = setCanvasField(&cfg.Canvas, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "export_dir":
		cfg.ExportDir = value
	case "sample_data":
		cfg.SampleData = value
	case "autosave_db":
		cfg.AutosaveDB = value
	}
	return nil
}

func setHistoryField(h *History, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid non-negative integer for key %s: %q", key, value)
	}
	switch strings.ToLower(key) {
	case "limit":
		h.Limit = n
	case "debounce_ms":
		h.DebounceMS = n
	}
	return nil
}

func setInteractionField(in *Interaction, key, value string) error {
	f, err := parsePositive(key, value)
	if err != nil {
		return err
	}
	switch strings.ToLower(key) {
	case "min_size":
		in.MinSize = f
	case "min_zoom":
		in.MinZoom = f
	case "max_zoom":
		in.MaxZoom = f
	case "handle_size":
		in.HandleSize = f
	}
	return nil
}

func setCanvasField(c *Canvas, key, value string) error {
	switch strings.ToLower(key) {
	case "mesh_color":
		c.MeshColor = value
	case "background_color":
		c.BackgroundColor = value
	case "aspect_ratio":
		if _, err := document.ParseAspectRatio(value); err != nil {
			return err
		}
		c.AspectRatio = value
	case "grid":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		c.Grid = b
	case "base_width":
		f, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		c.BaseWidth = f
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "export":
		n.Export = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func parsePositive(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || !(f > 0) {
		return 0, fmt.Errorf("invalid positive number for key %s: %q", key, value)
	}
	return f, nil
}
