package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Export bool
	Save   bool
	Copy   bool
}

// History holds undo settings.
type History struct {
	Limit      int
	DebounceMS int
}

// Interaction holds gesture and zoom settings.
type Interaction struct {
	MinSize    float64
	MinZoom    float64
	MaxZoom    float64
	HandleSize float64
}

// Canvas holds defaults for new documents.
type Canvas struct {
	MeshColor       string
	BackgroundColor string
	AspectRatio     string
	Grid            bool
	BaseWidth       float64
}

// Config holds the application configuration.
type Config struct {
	Theme       string
	ExportDir   string
	SampleData  string
	AutosaveDB  string
	History     History
	Interaction Interaction
	Canvas      Canvas
	Notify      Notify
	Themes      map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	d := document.DefaultSettings()
	return &Config{
		Theme: "", // Default to empty to allow fallback to Env/Default
		History: History{
			Limit:      100,
			DebounceMS: 750,
		},
		Interaction: Interaction{
			MinSize:    20,
			MinZoom:    0.1,
			MaxZoom:    10,
			HandleSize: 8,
		},
		Canvas: Canvas{
			MeshColor:       d.MeshColor,
			BackgroundColor: d.BackgroundColor,
			AspectRatio:     d.AspectRatio.String(),
			Grid:            d.ShowGrid,
			BaseWidth:       800,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// DocumentSettings returns canvas settings for a new document.
func (c *Config) DocumentSettings() document.Settings {
	s := document.DefaultSettings()
	if c.Canvas.MeshColor != "" {
		s.MeshColor = c.Canvas.MeshColor
	}
	if c.Canvas.BackgroundColor != "" {
		s.BackgroundColor = c.Canvas.BackgroundColor
	}
	if ar, err := document.ParseAspectRatio(c.Canvas.AspectRatio); err == nil {
		s.AspectRatio = ar
	}
	s.ShowGrid = c.Canvas.Grid
	return s
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.ExportDir != "" {
		fmt.Fprintf(&sb, "export_dir = %s\n", c.ExportDir)
	}
	if c.SampleData != "" {
		fmt.Fprintf(&sb, "sample_data = %s\n", c.SampleData)
	}
	if c.AutosaveDB != "" {
		fmt.Fprintf(&sb, "autosave_db = %s\n", c.AutosaveDB)
	}
	sb.WriteString("\n")

	sb.WriteString("[history]\n")
	fmt.Fprintf(&sb, "limit = %d\n", c.History.Limit)
	fmt.Fprintf(&sb, "debounce_ms = %d\n", c.History.DebounceMS)
	sb.WriteString("\n")

	sb.WriteString("[interaction]\n")
	fmt.Fprintf(&sb, "min_size = %s\n", formatFloat(c.Interaction.MinSize))
	fmt.Fprintf(&sb, "min_zoom = %s\n", formatFloat(c.Interaction.MinZoom))
	fmt.Fprintf(&sb, "max_zoom = %s\n", formatFloat(c.Interaction.MaxZoom))
	fmt.Fprintf(&sb, "handle_size = %s\n", formatFloat(c.Interaction.HandleSize))
	sb.WriteString("\n")

	sb.WriteString("[canvas]\n")
	fmt.Fprintf(&sb, "mesh_color = %s\n", c.Canvas.MeshColor)
	fmt.Fprintf(&sb, "background_color = %s\n", c.Canvas.BackgroundColor)
	fmt.Fprintf(&sb, "aspect_ratio = %s\n", c.Canvas.AspectRatio)
	fmt.Fprintf(&sb, "grid = %v\n", c.Canvas.Grid)
	fmt.Fprintf(&sb, "base_width = %s\n", formatFloat(c.Canvas.BaseWidth))
	sb.WriteString("\n")

	// Notify section
	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, element.FormatColor(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
