package render

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/example/labelcanvas/internal/element"
)

// LineSpacing is the line height as a multiple of the font size.
const LineSpacing = 1.2

var fontData = map[string][]byte{
	"sans":      goregular.TTF,
	"serif":     goregular.TTF,
	"mono":      gomono.TTF,
	"monospace": gomono.TTF,
	"bold":      gobold.TTF,
}

type faceKey struct {
	family string
	size   float64
}

var fonts = struct {
	sync.Mutex
	parsed map[string]*truetype.Font
	faces  map[faceKey]font.Face
}{parsed: map[string]*truetype.Font{}, faces: map[faceKey]font.Face{}}

// FontFamilies lists the families the renderer knows. Anything else falls
// back to sans.
func FontFamilies() []string {
	return []string{"sans", "serif", "mono", "bold"}
}

func familyName(family string) string {
	f := strings.ToLower(strings.TrimSpace(family))
	if _, ok := fontData[f]; ok {
		return f
	}
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		return "mono"
	case strings.Contains(f, "bold"):
		return "bold"
	}
	return "sans"
}

// Face returns a cached face for family at size points.
func Face(family string, size float64) (font.Face, error) {
	if size <= 0 || math.IsNaN(size) {
		size = element.DefaultFontSize
	}
	name := familyName(family)
	k := faceKey{family: name, size: size}
	fonts.Lock()
	defer fonts.Unlock()
	if f, ok := fonts.faces[k]; ok {
		return f, nil
	}
	tt, ok := fonts.parsed[name]
	if !ok {
		var err error
		tt, err = truetype.Parse(fontData[name])
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
		fonts.parsed[name] = tt
	}
	f := truetype.NewFace(tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	fonts.faces[k] = f
	return f, nil
}

// Data is sample data used to resolve label keys.
type Data map[string]interface{}

// ParseData decodes a JSON object of sample data.
func ParseData(b []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("sample data: %w", err)
	}
	return d, nil
}

// Resolve looks up a dotted key such as "customer.address.0.city". Missing
// or null values resolve to placeholder.
func (d Data) Resolve(key, placeholder string) string {
	key = strings.TrimSpace(key)
	if d == nil || key == "" {
		return placeholder
	}
	var cur interface{} = map[string]interface{}(d)
	for _, part := range strings.Split(key, ".") {
		switch v := cur.(type) {
		case map[string]interface{}:
			next, ok := v[part]
			if !ok {
				return placeholder
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return placeholder
			}
			cur = v[i]
		default:
			return placeholder
		}
	}
	switch v := cur.(type) {
	case nil:
		return placeholder
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return placeholder
		}
		return string(b)
	}
}

// measure is a scratch context for text layout.
func measure(family string, size float64) (*gg.Context, error) {
	face, err := Face(family, size)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	return dc, nil
}

// wrap splits s into lines no wider than width.
func wrap(dc *gg.Context, s string, width float64) []string {
	if s == "" {
		return nil
	}
	return dc.WordWrap(s, width)
}

// fits reports whether s, wrapped to width, fits the box at size.
func fits(s, family string, size, width, height float64) bool {
	dc, err := measure(family, size)
	if err != nil {
		return false
	}
	lines := wrap(dc, s, width)
	if float64(len(lines))*size*LineSpacing > height {
		return false
	}
	for _, l := range lines {
		if w, _ := dc.MeasureString(l); w > width {
			return false
		}
	}
	return true
}

// fitFontSize returns the largest whole size between min and max at which s
// fits the box, or min when nothing does.
func fitFontSize(s, family string, max, min, width, height float64) float64 {
	if min <= 0 {
		min = element.DefaultMinFontSize
	}
	if max < min {
		max = min
	}
	for size := math.Floor(max); size > min; size-- {
		if fits(s, family, size, width, height) {
			return size
		}
	}
	return min
}

// FitFontSize exposes the autosize search for callers laying out labels.
func FitFontSize(s, family string, max, min, width, height float64) float64 {
	return fitFontSize(s, family, max, min, width, height)
}

func (r *renderer) text(f element.Frame, s, family string, size float64, col string, align element.HAlign, valign element.VAlign) {
	if strings.TrimSpace(s) == "" {
		return
	}
	face, err := Face(family, size)
	if err != nil {
		return
	}
	r.dc.Push()
	defer r.dc.Pop()
	r.dc.DrawRectangle(f.X, f.Y, f.Width, f.Height)
	r.dc.Clip()
	r.dc.SetFontFace(face)
	r.dc.SetColor(element.ColorOr(col, color.RGBA{A: 255}))

	lines := wrap(r.dc, s, f.Width)
	lh := size * LineSpacing
	total := float64(len(lines)) * lh
	y := f.Y
	switch valign {
	case element.VAlignMiddle:
		y += (f.Height - total) / 2
	case element.VAlignBottom:
		y += f.Height - total
	}
	x, ax := f.X, 0.0
	switch align {
	case element.AlignCenter:
		x, ax = f.X+f.Width/2, 0.5
	case element.AlignRight:
		x, ax = f.X+f.Width, 1
	}
	for i, l := range lines {
		r.dc.DrawStringAnchored(l, x, y+float64(i)*lh+(lh-size)/2, ax, 1)
	}
}
