// Package document holds the unit that is snapshotted by history and
// serialised to templates: the element collection plus canvas settings.
package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/labelcanvas/internal/element"
)

// AspectRatio is the canvas shape as a width:height pair.
type AspectRatio struct {
	Width  float64
	Height float64
}

// ParseAspectRatio accepts "W:H" or "WxH".
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, ":x")
	if sep <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(s[:sep]), 64)
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(s[sep+1:]), 64)
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q: sides must be positive", s)
	}
	return AspectRatio{Width: w, Height: h}, nil
}

func (a AspectRatio) String() string {
	return strconv.FormatFloat(a.Width, 'f', -1, 64) + ":" + strconv.FormatFloat(a.Height, 'f', -1, 64)
}

// Size returns the canvas size for a given base width.
func (a AspectRatio) Size(baseWidth float64) (float64, float64) {
	if a.Width <= 0 || a.Height <= 0 {
		a = DefaultAspectRatio
	}
	return baseWidth, baseWidth * a.Height / a.Width
}

// ImageFit controls how a background image covers the canvas.
type ImageFit string

const (
	FitCover   ImageFit = "cover"
	FitContain ImageFit = "contain"
	FitStretch ImageFit = "stretch"
)

// BackgroundImage is an optional picture drawn below every element.
type BackgroundImage struct {
	Source  string // data URL or file path
	Opacity float64
	Fit     ImageFit
}

// Settings is the canvas-wide state captured alongside the elements.
type Settings struct {
	MeshColor       string
	BackgroundColor string
	AspectRatio     AspectRatio
	ShowGrid        bool
	BackgroundImage BackgroundImage
}

// DefaultAspectRatio is a 4:3 label.
var DefaultAspectRatio = AspectRatio{Width: 4, Height: 3}

// DefaultSettings returns the settings a new document starts with.
func DefaultSettings() Settings {
	return Settings{
		MeshColor:       "#E0E0E0",
		BackgroundColor: "#FFFFFF",
		AspectRatio:     DefaultAspectRatio,
		ShowGrid:        true,
		BackgroundImage: BackgroundImage{Opacity: 1, Fit: FitCover},
	}
}

// Document is an element collection with its canvas settings.
type Document struct {
	Elements []element.Element
	Settings Settings
}

// New returns an empty document with default settings.
func New() Document {
	return Document{Settings: DefaultSettings()}
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	return Document{Elements: element.CloneAll(d.Elements), Settings: d.Settings}
}
