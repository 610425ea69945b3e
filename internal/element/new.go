package element

import (
	"fmt"

	"github.com/google/uuid"
)

// Default sizes for newly placed elements, in canvas units.
const (
	DefaultTextWidth   = 200
	DefaultTextHeight  = 50
	DefaultFontSize    = 24
	DefaultMinFontSize = 8
	DefaultFontFamily  = "sans"
	DefaultColor       = "#000000"
)

// NewID returns a fresh, time-ordered element id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewText creates a visible text element at (x, y).
func NewText(x, y float64, content string) *Text {
	return &Text{
		Common:     Common{ID: NewID(), Visible: true},
		Frame:      Frame{X: x, Y: y, Width: DefaultTextWidth, Height: DefaultTextHeight},
		Content:    content,
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		Color:      DefaultColor,
		Background: "transparent",
		Align:      AlignLeft,
	}
}

// NewLabel creates a data-bound label at (x, y).
func NewLabel(x, y float64, key, placeholder string) *Label {
	l := &Label{
		Common:      Common{ID: NewID(), Visible: true},
		Frame:       Frame{X: x, Y: y, Width: DefaultTextWidth, Height: DefaultTextHeight},
		JSONKey:     key,
		Placeholder: placeholder,
		FontSize:    DefaultFontSize,
		FontFamily:  DefaultFontFamily,
		Color:       DefaultColor,
		Background:  "transparent",
		Align:       AlignLeft,
	}
	ApplyLabelDefaults(l)
	return l
}

// ApplyLabelDefaults fills the label fields older templates did not carry.
func ApplyLabelDefaults(l *Label) {
	if l.VerticalAlign == "" {
		l.VerticalAlign = VAlignMiddle
	}
	if l.MinFontSize <= 0 {
		l.MinFontSize = DefaultMinFontSize
	}
	if l.FontSize <= 0 {
		l.FontSize = DefaultFontSize
	}
	if l.MinFontSize > l.FontSize {
		l.MinFontSize = l.FontSize
	}
}

// NewMedia creates a media element for the given content.
func NewMedia(x, y, w, h float64, kind MediaKind, content, fileName string) *Media {
	return &Media{
		Common:    Common{ID: NewID(), Visible: true, Name: fileName},
		Frame:     Frame{X: x, Y: y, Width: w, Height: h},
		MediaKind: kind,
		Content:   content,
		Original:  content,
		FileName:  fileName,
	}
}

// NewSignature creates a signature element from vector markup and an
// optional raster fallback.
func NewSignature(x, y, w, h float64, svg, raster string) *Signature {
	return &Signature{
		Common:         Common{ID: NewID(), Visible: true, Name: "Signature"},
		Frame:          Frame{X: x, Y: y, Width: w, Height: h},
		SVG:            svg,
		Raster:         raster,
		OriginalRaster: raster,
		StrokeColor:    DefaultColor,
	}
}

// NewGroup creates a group over children. Every child must exist in s.
func NewGroup(s *Store, name string, children []string) (*Group, error) {
	if len(children) < 2 {
		return nil, fmt.Errorf("group needs at least two elements, got %d", len(children))
	}
	for _, id := range children {
		c := s.Get(id)
		if c == nil {
			return nil, fmt.Errorf("group child %s: %w", id, ErrNotFound)
		}
		if c.Kind() == KindGroup {
			return nil, fmt.Errorf("group child %s is itself a group", id)
		}
	}
	return &Group{
		Common:   Common{ID: NewID(), Visible: true, Name: name},
		Children: append([]string(nil), children...),
	}, nil
}
