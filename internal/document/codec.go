package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/geom"
)

// Version is the template schema written by Encode.
const Version = 2

var (
	// ErrUnsupportedVersion is returned for templates newer than Version.
	ErrUnsupportedVersion = errors.New("unsupported template version")
	// ErrMalformed wraps every decode failure caused by the input itself.
	ErrMalformed = errors.New("malformed template")
)

// Format selects the template encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks a format by file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type wireDoc struct {
	Version  int           `json:"version"`
	Elements []wireElement `json:"elements"`
	Settings *wireSettings `json:"canvasSettings,omitempty"`
}

type wireSettings struct {
	MeshColor       string         `json:"meshColor,omitempty"`
	BackgroundColor string         `json:"backgroundColor,omitempty"`
	AspectRatio     *wireAspect    `json:"aspectRatio,omitempty"`
	ShowGrid        *bool          `json:"showGrid,omitempty"`
	BackgroundImage *wireBackImage `json:"backgroundImage,omitempty"`
}

type wireAspect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wireBackImage struct {
	Source  string   `json:"src,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Fit     string   `json:"fit,omitempty"`
}

type wireElement struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	ZIndex  int    `json:"zIndex"`
	Visible *bool  `json:"visible,omitempty"`
	Name    string `json:"name,omitempty"`
	GroupID string `json:"groupId,omitempty"`

	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`

	Content         string  `json:"content,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	MinFontSize     float64 `json:"minFontSize,omitempty"`
	AutoSizeText    bool    `json:"autoSizeText,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"`
	VerticalAlign   string  `json:"verticalAlign,omitempty"`
	JSONKey         string  `json:"jsonKey,omitempty"`
	Placeholder     string  `json:"placeholder,omitempty"`

	Children []string `json:"children,omitempty"`

	SVGData           string `json:"svgData,omitempty"`
	ImageData         string `json:"imageData,omitempty"`
	OriginalImageData string `json:"originalImageData,omitempty"`
	StrokeColor       string `json:"strokeColor,omitempty"`

	MediaType       string `json:"mediaType,omitempty"`
	OriginalContent string `json:"originalContent,omitempty"`
	FileName        string `json:"fileName,omitempty"`
	FillColor       string `json:"fillColor,omitempty"`
}

// upgrades[v] lifts a version v template to v+1.
var upgrades = map[int]func(*wireDoc){
	1: func(d *wireDoc) {
		// Version 1 labels predate vertical alignment and font bounds.
		for i := range d.Elements {
			we := &d.Elements[i]
			if we.Type != string(element.KindLabel) {
				continue
			}
			l := &element.Label{
				FontSize:      we.FontSize,
				MinFontSize:   we.MinFontSize,
				VerticalAlign: element.VAlign(we.VerticalAlign),
			}
			element.ApplyLabelDefaults(l)
			we.FontSize, we.MinFontSize, we.VerticalAlign = l.FontSize, l.MinFontSize, string(l.VerticalAlign)
		}
	},
}

// Decode reads a template. Missing optional fields get defaults; input that
// cannot be parsed yields an error wrapping ErrMalformed.
func Decode(r io.Reader, f Format) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read template: %w", err)
	}
	if f == FormatYAML {
		data, err = yamlToJSON(data)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return decodeJSON(data)
}

// DecodeBytes is Decode over an in-memory template.
func DecodeBytes(data []byte, f Format) (Document, error) {
	return Decode(bytes.NewReader(data), f)
}

func decodeJSON(data []byte) (Document, error) {
	var wd wireDoc
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if trimmed[0] == '[' {
		// Bare element arrays were the earliest autosave form.
		if err := json.Unmarshal(trimmed, &wd.Elements); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		wd.Version = 1
	} else if err := json.Unmarshal(trimmed, &wd); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if wd.Version == 0 {
		wd.Version = 1
	}
	if wd.Version > Version {
		return Document{}, fmt.Errorf("template version %d: %w", wd.Version, ErrUnsupportedVersion)
	}
	for v := wd.Version; v < Version; v++ {
		if up := upgrades[v]; up != nil {
			up(&wd)
		}
	}
	return fromWire(wd)
}

func fromWire(wd wireDoc) (Document, error) {
	doc := Document{Settings: settingsFromWire(wd.Settings)}
	seen := make(map[string]bool, len(wd.Elements))
	for i, we := range wd.Elements {
		e, err := elementFromWire(we)
		if err != nil {
			return Document{}, fmt.Errorf("%w: element %d: %v", ErrMalformed, i, err)
		}
		id := e.Base().ID
		if seen[id] {
			return Document{}, fmt.Errorf("%w: element %d: duplicate id %s", ErrMalformed, i, id)
		}
		seen[id] = true
		doc.Elements = append(doc.Elements, e)
	}
	// Dangling group references are dropped rather than carried forward.
	for _, e := range doc.Elements {
		switch v := e.(type) {
		case *element.Group:
			kept := v.Children[:0]
			for _, c := range v.Children {
				if seen[c] {
					kept = append(kept, c)
				}
			}
			v.Children = kept
		default:
			if b := e.Base(); b.GroupID != "" && !seen[b.GroupID] {
				b.GroupID = ""
			}
		}
	}
	return doc, nil
}

func settingsFromWire(ws *wireSettings) Settings {
	s := DefaultSettings()
	if ws == nil {
		return s
	}
	if ws.MeshColor != "" {
		s.MeshColor = ws.MeshColor
	}
	if ws.BackgroundColor != "" {
		s.BackgroundColor = ws.BackgroundColor
	}
	if ws.AspectRatio != nil && ws.AspectRatio.Width > 0 && ws.AspectRatio.Height > 0 {
		s.AspectRatio = AspectRatio{Width: ws.AspectRatio.Width, Height: ws.AspectRatio.Height}
	}
	if ws.ShowGrid != nil {
		s.ShowGrid = *ws.ShowGrid
	}
	if bi := ws.BackgroundImage; bi != nil {
		s.BackgroundImage.Source = bi.Source
		if bi.Opacity != nil {
			s.BackgroundImage.Opacity = *bi.Opacity
		}
		if bi.Fit != "" {
			s.BackgroundImage.Fit = ImageFit(bi.Fit)
		}
	}
	return s
}

func elementFromWire(we wireElement) (element.Element, error) {
	common := element.Common{
		ID:      we.ID,
		ZIndex:  we.ZIndex,
		Visible: we.Visible == nil || *we.Visible,
		Name:    we.Name,
		GroupID: we.GroupID,
	}
	if common.ID == "" {
		common.ID = element.NewID()
	}
	frame := element.Frame{
		X: we.X, Y: we.Y, Width: we.Width, Height: we.Height,
		Rotation: geom.Normalize360(we.Rotation),
	}
	switch element.Kind(we.Type) {
	case element.KindText:
		return &element.Text{
			Common:     common,
			Frame:      frame,
			Content:    we.Content,
			FontSize:   orFloat(we.FontSize, element.DefaultFontSize),
			FontFamily: orString(we.FontFamily, element.DefaultFontFamily),
			Color:      orString(we.Color, element.DefaultColor),
			Background: orString(we.BackgroundColor, "transparent"),
			Align:      element.HAlign(orString(we.TextAlign, string(element.AlignLeft))),
		}, nil
	case element.KindLabel:
		l := &element.Label{
			Common:        common,
			Frame:         frame,
			JSONKey:       we.JSONKey,
			Placeholder:   we.Placeholder,
			FontSize:      we.FontSize,
			MinFontSize:   we.MinFontSize,
			AutoSizeText:  we.AutoSizeText,
			FontFamily:    orString(we.FontFamily, element.DefaultFontFamily),
			Color:         orString(we.Color, element.DefaultColor),
			Background:    orString(we.BackgroundColor, "transparent"),
			Align:         element.HAlign(orString(we.TextAlign, string(element.AlignLeft))),
			VerticalAlign: element.VAlign(we.VerticalAlign),
		}
		element.ApplyLabelDefaults(l)
		return l, nil
	case element.KindGroup:
		return &element.Group{Common: common, Children: append([]string(nil), we.Children...)}, nil
	case element.KindSignature:
		return &element.Signature{
			Common:         common,
			Frame:          frame,
			SVG:            we.SVGData,
			Raster:         we.ImageData,
			OriginalRaster: we.OriginalImageData,
			StrokeColor:    orString(we.StrokeColor, element.DefaultColor),
		}, nil
	case element.KindMedia:
		kind := element.MediaKind(orString(we.MediaType, string(element.MediaRaster)))
		if kind != element.MediaRaster && kind != element.MediaVector {
			return nil, fmt.Errorf("unknown media type %q", we.MediaType)
		}
		return &element.Media{
			Common:      common,
			Frame:       frame,
			MediaKind:   kind,
			Content:     we.Content,
			Original:    orString(we.OriginalContent, we.Content),
			FileName:    we.FileName,
			StrokeColor: we.StrokeColor,
			FillColor:   we.FillColor,
		}, nil
	default:
		return nil, fmt.Errorf("unknown element type %q", we.Type)
	}
}

// Encode writes doc as a current-version template.
func Encode(w io.Writer, doc Document, f Format) error {
	data, err := json.MarshalIndent(toWire(doc), "", "  ")
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	if f == FormatYAML {
		data, err = jsonToYAML(data)
		if err != nil {
			return fmt.Errorf("encode template: %w", err)
		}
	} else {
		data = append(data, '\n')
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

// EncodeBytes is Encode into memory.
func EncodeBytes(doc Document, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toWire(doc Document) wireDoc {
	s := doc.Settings
	grid := s.ShowGrid
	opacity := s.BackgroundImage.Opacity
	wd := wireDoc{
		Version:  Version,
		Elements: make([]wireElement, 0, len(doc.Elements)),
		Settings: &wireSettings{
			MeshColor:       s.MeshColor,
			BackgroundColor: s.BackgroundColor,
			AspectRatio:     &wireAspect{Width: s.AspectRatio.Width, Height: s.AspectRatio.Height},
			ShowGrid:        &grid,
			BackgroundImage: &wireBackImage{Source: s.BackgroundImage.Source, Opacity: &opacity, Fit: string(s.BackgroundImage.Fit)},
		},
	}
	for _, e := range doc.Elements {
		wd.Elements = append(wd.Elements, elementToWire(e))
	}
	return wd
}

func elementToWire(e element.Element) wireElement {
	b := e.Base()
	visible := b.Visible
	we := wireElement{
		Type:    string(e.Kind()),
		ID:      b.ID,
		ZIndex:  b.ZIndex,
		Visible: &visible,
		Name:    b.Name,
		GroupID: b.GroupID,
	}
	if f, ok := element.AsFramed(e); ok {
		g := f.Geometry()
		we.X, we.Y, we.Width, we.Height, we.Rotation = g.X, g.Y, g.Width, g.Height, g.Rotation
	}
	switch v := e.(type) {
	case *element.Text:
		we.Content = v.Content
		we.FontSize = v.FontSize
		we.FontFamily = v.FontFamily
		we.Color = v.Color
		we.BackgroundColor = v.Background
		we.TextAlign = string(v.Align)
	case *element.Label:
		we.JSONKey = v.JSONKey
		we.Placeholder = v.Placeholder
		we.FontSize = v.FontSize
		we.MinFontSize = v.MinFontSize
		we.AutoSizeText = v.AutoSizeText
		we.FontFamily = v.FontFamily
		we.Color = v.Color
		we.BackgroundColor = v.Background
		we.TextAlign = string(v.Align)
		we.VerticalAlign = string(v.VerticalAlign)
	case *element.Group:
		we.Children = append([]string(nil), v.Children...)
	case *element.Signature:
		we.SVGData = v.SVG
		we.ImageData = v.Raster
		we.OriginalImageData = v.OriginalRaster
		we.StrokeColor = v.StrokeColor
	case *element.Media:
		we.MediaType = string(v.MediaKind)
		we.Content = v.Content
		if v.Original != v.Content {
			we.OriginalContent = v.Original
		}
		we.FileName = v.FileName
		we.StrokeColor = v.StrokeColor
		we.FillColor = v.FillColor
	default:
		panic(fmt.Sprintf("document: unhandled kind %T", e))
	}
	return we
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("empty input")
	}
	return json.Marshal(v)
}

// jsonToYAML keeps key order by going through a yaml.Node: JSON is valid
// flow-style YAML, so only the styles need resetting.
func jsonToYAML(data []byte) ([]byte, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	resetStyle(&n)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
