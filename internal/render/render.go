// Package render rasterises documents for export and for the viewer. It only
// reads documents; nothing here feeds back into editing history.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
)

// DefaultBaseWidth is the canvas width in canvas units.
const DefaultBaseWidth = 800

// GridSpacing is the distance between mesh lines in canvas units.
const GridSpacing = 20

// Options controls a render pass.
type Options struct {
	// BaseWidth is the canvas width in canvas units. Height follows the
	// document's aspect ratio.
	BaseWidth float64
	// Scale is output pixels per canvas unit.
	Scale float64
	// Origin offsets the canvas inside the output, in pixels.
	Origin r2.Vec
	// Size overrides the output size. Zero sizes the output to the canvas.
	Size image.Point
	// Backdrop fills the output outside the canvas.
	Backdrop color.Color
	// HideGrid suppresses the mesh even when the document shows it.
	HideGrid bool
	// Data resolves label keys.
	Data Data
	// BaseDir resolves relative image paths.
	BaseDir string
}

func (o *Options) fill() {
	if o.BaseWidth <= 0 {
		o.BaseWidth = DefaultBaseWidth
	}
	if o.Scale <= 0 || math.IsNaN(o.Scale) {
		o.Scale = 1
	}
}

// CanvasSize returns the canvas extent in canvas units.
func CanvasSize(s document.Settings, baseWidth float64) (float64, float64) {
	if baseWidth <= 0 {
		baseWidth = DefaultBaseWidth
	}
	return s.AspectRatio.Size(baseWidth)
}

// Render draws doc into a new image.
func Render(doc document.Document, opts Options) (*image.RGBA, error) {
	opts.fill()
	cw, ch := CanvasSize(doc.Settings, opts.BaseWidth)
	size := opts.Size
	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(int(math.Ceil(cw*opts.Scale)), int(math.Ceil(ch*opts.Scale)))
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("render: empty output %v", size)
	}
	dc := gg.NewContext(size.X, size.Y)
	if opts.Backdrop != nil {
		dc.SetColor(opts.Backdrop)
		dc.Clear()
	}
	dc.Translate(opts.Origin.X, opts.Origin.Y)
	dc.Scale(opts.Scale, opts.Scale)

	r := &renderer{dc: dc, opts: opts, cw: cw, ch: ch}
	r.background(doc.Settings)
	if doc.Settings.ShowGrid && !opts.HideGrid {
		r.grid(doc.Settings)
	}
	var firstErr error
	for _, e := range element.NewStore(doc.Elements...).Ordered() {
		if !e.Base().Visible {
			continue
		}
		if err := r.element(e); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("render %s %s: %w", e.Kind(), e.Base().ID, err)
		}
	}
	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("render: unexpected image type %T", dc.Image())
	}
	return img, firstErr
}

type renderer struct {
	dc     *gg.Context
	opts   Options
	cw, ch float64
}

func (r *renderer) background(s document.Settings) {
	r.dc.DrawRectangle(0, 0, r.cw, r.ch)
	r.dc.SetColor(element.ColorOr(s.BackgroundColor, color.RGBA{255, 255, 255, 255}))
	r.dc.Fill()
	if s.BackgroundImage.Source == "" {
		return
	}
	img, err := loadImage(s.BackgroundImage.Source, r.opts.BaseDir)
	if err != nil {
		return
	}
	img = withOpacity(img, s.BackgroundImage.Opacity)
	b := img.Bounds()
	sx, sy := fitScale(float64(b.Dx()), float64(b.Dy()), r.cw, r.ch, s.BackgroundImage.Fit)
	w, h := float64(b.Dx())*sx, float64(b.Dy())*sy
	r.dc.Push()
	r.dc.DrawRectangle(0, 0, r.cw, r.ch)
	r.dc.Clip()
	r.dc.Translate((r.cw-w)/2, (r.ch-h)/2)
	r.dc.Scale(sx, sy)
	r.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	r.dc.Pop()
}

func fitScale(iw, ih, cw, ch float64, fit document.ImageFit) (float64, float64) {
	if iw <= 0 || ih <= 0 {
		return 1, 1
	}
	sx, sy := cw/iw, ch/ih
	switch fit {
	case document.FitStretch:
		return sx, sy
	case document.FitContain:
		s := math.Min(sx, sy)
		return s, s
	default:
		s := math.Max(sx, sy)
		return s, s
	}
}

func (r *renderer) grid(s document.Settings) {
	r.dc.Push()
	r.dc.SetColor(element.ColorOr(s.MeshColor, color.RGBA{224, 224, 224, 255}))
	r.dc.SetLineWidth(1 / r.opts.Scale)
	for x := float64(GridSpacing); x < r.cw; x += GridSpacing {
		r.dc.DrawLine(x, 0, x, r.ch)
	}
	for y := float64(GridSpacing); y < r.ch; y += GridSpacing {
		r.dc.DrawLine(0, y, r.cw, y)
	}
	r.dc.Stroke()
	r.dc.Pop()
}

func (r *renderer) element(e element.Element) error {
	f, ok := element.AsFramed(e)
	if !ok {
		return nil
	}
	g := f.Geometry()
	if g.Width <= 0 || g.Height <= 0 {
		return nil
	}
	c := g.Rect().Center()
	r.dc.Push()
	defer r.dc.Pop()
	if g.Rotation != 0 {
		r.dc.RotateAbout(gg.Radians(g.Rotation), c.X, c.Y)
	}
	switch v := e.(type) {
	case *element.Text:
		r.fillBox(v.Frame, v.Background)
		r.text(v.Frame, v.Content, v.FontFamily, v.FontSize, v.Color, v.Align, element.VAlignTop)
		return nil
	case *element.Label:
		r.fillBox(v.Frame, v.Background)
		text := r.opts.Data.Resolve(v.JSONKey, v.Placeholder)
		size := v.FontSize
		if v.AutoSizeText {
			size = fitFontSize(text, v.FontFamily, v.FontSize, v.MinFontSize, v.Width, v.Height)
		}
		r.text(v.Frame, text, v.FontFamily, size, v.Color, v.Align, v.VerticalAlign)
		return nil
	case *element.Signature:
		if v.SVG != "" {
			return r.vector(v.Frame, Recolor(v.SVG, v.StrokeColor, ""))
		}
		return r.raster(v.Frame, v.Raster)
	case *element.Media:
		if v.MediaKind == element.MediaVector {
			src := v.Original
			if src == "" {
				src = v.Content
			}
			return r.vector(v.Frame, Recolor(src, v.StrokeColor, v.FillColor))
		}
		return r.raster(v.Frame, v.Content)
	default:
		panic(fmt.Sprintf("render: unhandled kind %T", e))
	}
}

func (r *renderer) fillBox(f element.Frame, bg string) {
	c, err := element.ParseColor(bg)
	if err != nil || c.A == 0 {
		return
	}
	r.dc.DrawRectangle(f.X, f.Y, f.Width, f.Height)
	r.dc.SetColor(c)
	r.dc.Fill()
}

// pixels returns the device size of a canvas extent.
func (r *renderer) pixels(w, h float64) (int, int) {
	return int(math.Ceil(w * r.opts.Scale)), int(math.Ceil(h * r.opts.Scale))
}

func (r *renderer) vector(f element.Frame, svg string) error {
	pw, ph := r.pixels(f.Width, f.Height)
	img, err := RasterizeSVG(svg, pw, ph)
	if err != nil {
		return err
	}
	r.place(f, img)
	return nil
}

func (r *renderer) raster(f element.Frame, src string) error {
	if src == "" {
		return nil
	}
	img, err := loadImage(src, r.opts.BaseDir)
	if err != nil {
		return err
	}
	r.place(f, img)
	return nil
}

// place stretches img over the frame.
func (r *renderer) place(f element.Frame, img image.Image) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	r.dc.Push()
	r.dc.Translate(f.X, f.Y)
	r.dc.Scale(f.Width/float64(b.Dx()), f.Height/float64(b.Dy()))
	r.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	r.dc.Pop()
}
