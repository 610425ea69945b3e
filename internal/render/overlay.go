package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/geom"
)

// Overlay describes selection chrome drawn in screen space.
type Overlay struct {
	Viewport     geom.Viewport
	Selected     []element.Framed
	HandleSize   float64
	RotateOffset float64
	Color        color.Color
}

// DrawOverlay outlines every selected element. A single selection also gets
// resize handles and a rotation grip.
func DrawOverlay(dst *image.RGBA, o Overlay) {
	if len(o.Selected) == 0 {
		return
	}
	if o.Color == nil {
		o.Color = color.RGBA{0x21, 0x96, 0xf3, 0xff}
	}
	if o.Viewport.Scale <= 0 {
		o.Viewport.Scale = 1
	}
	if o.HandleSize <= 0 {
		o.HandleSize = 8
	}
	if o.RotateOffset <= 0 {
		o.RotateOffset = 24
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(o.Color)
	dc.SetLineWidth(1.5)
	for _, f := range o.Selected {
		corners := screenCorners(o.Viewport, f.Geometry())
		for i, c := range corners {
			if i == 0 {
				dc.MoveTo(c.X, c.Y)
			} else {
				dc.LineTo(c.X, c.Y)
			}
		}
		dc.ClosePath()
		dc.Stroke()
	}
	if len(o.Selected) != 1 {
		return
	}
	g := o.Selected[0].Geometry()
	r := g.Rect()
	center := r.Center()
	half := o.HandleSize / 2
	for h := geom.HandleNW; h <= geom.HandleW; h++ {
		p := o.Viewport.ToScreen(geom.RotateAbout(h.Anchor(r), center, g.Rotation))
		dc.DrawRectangle(p.X-half, p.Y-half, o.HandleSize, o.HandleSize)
		dc.SetColor(color.White)
		dc.FillPreserve()
		dc.SetColor(o.Color)
		dc.Stroke()
	}
	top := o.Viewport.ToScreen(geom.RotateAbout(geom.HandleN.Anchor(r), center, g.Rotation))
	grip := o.Viewport.ToScreen(geom.RotateAbout(geom.RotationAnchor(r, o.RotateOffset/o.Viewport.Scale), center, g.Rotation))
	dc.DrawLine(top.X, top.Y, grip.X, grip.Y)
	dc.Stroke()
	dc.DrawCircle(grip.X, grip.Y, half)
	dc.SetColor(color.White)
	dc.FillPreserve()
	dc.SetColor(o.Color)
	dc.Stroke()
}

func screenCorners(vp geom.Viewport, f *element.Frame) [4]r2.Vec {
	r := f.Rect()
	c := r.Center()
	pts := [4]r2.Vec{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
	for i, p := range pts {
		pts[i] = vp.ToScreen(geom.RotateAbout(p, c, f.Rotation))
	}
	return pts
}
