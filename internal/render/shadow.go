package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Shadow is a soft drop shadow cast by a rendered label, used for previews
// and for exports that sit the label on a backdrop.
type Shadow struct {
	// Blur is the box radius of each blur pass in pixels.
	Blur int
	// Offset moves the shadow relative to the label.
	Offset image.Point
	// Opacity of the darkest part of the shadow, 0 to 1.
	Opacity float64
	Color   color.RGBA
}

// shadowPasses approximates a gaussian with repeated box blurs.
const shadowPasses = 3

// DefaultShadow is a subtle shadow below and to the right.
func DefaultShadow() Shadow {
	return Shadow{Blur: 6, Offset: image.Pt(8, 8), Opacity: 0.4, Color: color.RGBA{A: 255}}
}

// Apply returns img on a canvas enlarged to hold the shadow, and where img's
// top-left corner landed in it. A zero-opacity shadow returns img unchanged.
func (s Shadow) Apply(img *image.RGBA) (*image.RGBA, image.Point) {
	if img == nil || img.Bounds().Empty() || s.Opacity <= 0 {
		return img, image.Point{}
	}
	if s.Opacity > 1 {
		s.Opacity = 1
	}
	if s.Blur < 0 {
		s.Blur = 0
	}
	src := img.Bounds()
	spread := s.Blur * shadowPasses
	cast := src.Inset(-spread).Add(s.Offset)
	all := src.Union(cast)

	mask := image.NewAlpha(cast.Sub(cast.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			mask.SetAlpha(x-src.Min.X+spread, y-src.Min.Y+spread, color.Alpha{A: img.RGBAAt(x, y).A})
		}
	}
	for i := 0; i < shadowPasses; i++ {
		boxBlur(mask, s.Blur)
	}

	out := image.NewRGBA(all.Sub(all.Min))
	tint := s.Color
	tint.A = uint8(float64(tint.A)*s.Opacity + 0.5)
	draw.DrawMask(out, cast.Sub(all.Min), image.NewUniform(tint), image.Point{}, mask, image.Point{}, draw.Over)
	at := src.Min.Sub(all.Min)
	draw.Draw(out, src.Sub(all.Min), img, src.Min, draw.Over)
	return out, at
}

// boxBlur blurs m in place with a sliding window of radius r, rows then
// columns. Pixels outside m count as transparent.
func boxBlur(m *image.Alpha, r int) {
	if r <= 0 {
		return
	}
	w, h := m.Bounds().Dx(), m.Bounds().Dy()
	n := 2*r + 1
	line := make([]uint8, max(w, h))
	slide := func(get func(int) uint8, set func(int, uint8), size int) {
		for i := 0; i < size; i++ {
			line[i] = get(i)
		}
		sum := 0
		for i := 0; i < r && i < size; i++ {
			sum += int(line[i])
		}
		for i := 0; i < size; i++ {
			if j := i + r; j < size {
				sum += int(line[j])
			}
			if j := i - r - 1; j >= 0 {
				sum -= int(line[j])
			}
			set(i, uint8(sum/n))
		}
	}
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride:]
		slide(func(i int) uint8 { return row[i] }, func(i int, v uint8) { row[i] = v }, w)
	}
	for x := 0; x < w; x++ {
		slide(func(i int) uint8 { return m.Pix[i*m.Stride+x] }, func(i int, v uint8) { m.Pix[i*m.Stride+x] = v }, h)
	}
}
