// Package element defines the canvas element kinds and the ordered working
// store the editor mutates during gestures.
package element

import (
	"fmt"

	"github.com/example/labelcanvas/internal/geom"
)

// Kind names an element variant. The string form is the template "type".
type Kind string

const (
	KindText      Kind = "text"
	KindLabel     Kind = "label"
	KindGroup     Kind = "group"
	KindSignature Kind = "signature"
	KindMedia     Kind = "media"
)

// Kinds lists every element kind.
var Kinds = []Kind{KindText, KindLabel, KindGroup, KindSignature, KindMedia}

// Common holds the fields every element carries.
type Common struct {
	ID      string
	ZIndex  int
	Visible bool
	Name    string
	GroupID string
}

// Element is implemented only by the variants in this package.
type Element interface {
	Kind() Kind
	Base() *Common
	Clone() Element
	sealed()
}

// Framed is implemented by every variant carrying position, size and
// rotation. Group is the only element that is not framed.
type Framed interface {
	Element
	Geometry() *Frame
}

// Frame is the geometry of a drawable element. Rotation is in degrees and
// kept in [0, 360).
type Frame struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64
}

// Rect returns the unrotated box of the frame.
func (f Frame) Rect() geom.Rect {
	return geom.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
}

// SetRect copies position and size from r, leaving rotation alone.
func (f *Frame) SetRect(r geom.Rect) {
	f.X, f.Y, f.Width, f.Height = r.X, r.Y, r.Width, r.Height
}

// HAlign is horizontal text alignment.
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign is vertical text alignment inside a label box.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// MediaKind distinguishes raster images from vector markup.
type MediaKind string

const (
	MediaRaster MediaKind = "raster"
	MediaVector MediaKind = "vector"
)

// Text is free-form literal text.
type Text struct {
	Common
	Frame
	Content    string
	FontSize   float64
	FontFamily string
	Color      string
	Background string
	Align      HAlign
}

// Label text is resolved at render time by looking up JSONKey in the sample
// data, falling back to Placeholder.
type Label struct {
	Common
	Frame
	JSONKey       string
	Placeholder   string
	FontSize      float64 // upper bound when AutoSizeText is set
	MinFontSize   float64
	AutoSizeText  bool
	FontFamily    string
	Color         string
	Background    string
	Align         HAlign
	VerticalAlign VAlign
}

// Group aggregates child ids for selection and visibility. It has no
// geometry and is never dragged, resized or rotated itself.
type Group struct {
	Common
	Children []string
}

// Signature renders SVG first and falls back to Raster. StrokeColor recolours
// the vector form.
type Signature struct {
	Common
	Frame
	SVG            string
	Raster         string
	OriginalRaster string
	StrokeColor    string
}

// Media is an uploaded image. Original keeps the pre-edit content so
// recolouring stays non-destructive.
type Media struct {
	Common
	Frame
	MediaKind   MediaKind
	Content     string
	Original    string
	FileName    string
	StrokeColor string
	FillColor   string
}

func (e *Text) Kind() Kind      { return KindText }
func (e *Label) Kind() Kind     { return KindLabel }
func (e *Group) Kind() Kind     { return KindGroup }
func (e *Signature) Kind() Kind { return KindSignature }
func (e *Media) Kind() Kind     { return KindMedia }

func (e *Text) Base() *Common      { return &e.Common }
func (e *Label) Base() *Common     { return &e.Common }
func (e *Group) Base() *Common     { return &e.Common }
func (e *Signature) Base() *Common { return &e.Common }
func (e *Media) Base() *Common     { return &e.Common }

func (e *Text) Geometry() *Frame      { return &e.Frame }
func (e *Label) Geometry() *Frame     { return &e.Frame }
func (e *Signature) Geometry() *Frame { return &e.Frame }
func (e *Media) Geometry() *Frame     { return &e.Frame }

func (e *Text) Clone() Element {
	c := *e
	return &c
}

func (e *Label) Clone() Element {
	c := *e
	return &c
}

func (e *Group) Clone() Element {
	c := *e
	c.Children = append([]string(nil), e.Children...)
	return &c
}

func (e *Signature) Clone() Element {
	c := *e
	return &c
}

func (e *Media) Clone() Element {
	c := *e
	return &c
}

func (*Text) sealed()      {}
func (*Label) sealed()     {}
func (*Group) sealed()     {}
func (*Signature) sealed() {}
func (*Media) sealed()     {}

// AsFramed returns the framed view of e, or false for groups.
func AsFramed(e Element) (Framed, bool) {
	switch v := e.(type) {
	case *Text:
		return v, true
	case *Label:
		return v, true
	case *Signature:
		return v, true
	case *Media:
		return v, true
	case *Group:
		return nil, false
	default:
		panic(fmt.Sprintf("element: unhandled kind %T", e))
	}
}

// DisplayName is the layer name, falling back to kind and id.
func DisplayName(e Element) string {
	if n := e.Base().Name; n != "" {
		return n
	}
	return fmt.Sprintf("%s %s", e.Kind(), shortID(e.Base().ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

// CloneAll deep-copies a slice of elements.
func CloneAll(els []Element) []Element {
	if els == nil {
		return nil
	}
	out := make([]Element, len(els))
	for i, e := range els {
		out[i] = e.Clone()
	}
	return out
}
