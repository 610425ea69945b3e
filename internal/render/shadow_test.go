package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestShadowEnlargesCanvas(t *testing.T) {
	img := solid(10, 10, color.RGBA{R: 255, A: 255})
	s := Shadow{Blur: 2, Offset: image.Pt(8, 6), Opacity: 0.5, Color: color.RGBA{A: 255}}
	out, at := s.Apply(img)
	if want := image.Rect(0, 0, 24, 22); !out.Bounds().Eq(want) {
		t.Fatalf("bounds %v, want %v", out.Bounds(), want)
	}
	if at != (image.Point{}) {
		t.Fatalf("label moved to %v", at)
	}
	if got := out.RGBAAt(14, 12); got.A == 0 {
		t.Fatal("no shadow under the offset label")
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("label pixel %+v", got)
	}
}

func TestShadowNegativeOffsetShiftsLabel(t *testing.T) {
	img := solid(4, 4, color.RGBA{G: 255, A: 255})
	out, at := Shadow{Offset: image.Pt(-3, -2), Opacity: 1, Color: color.RGBA{A: 255}}.Apply(img)
	if at != image.Pt(3, 2) {
		t.Fatalf("offset %v", at)
	}
	if got := out.RGBAAt(at.X, at.Y); got.G != 255 {
		t.Fatalf("label not at reported offset: %+v", got)
	}
}

func TestShadowZeroOpacityIsIdentity(t *testing.T) {
	img := solid(4, 4, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	out, _ := Shadow{Blur: 12, Offset: image.Pt(20, 10)}.Apply(img)
	if out != img {
		t.Fatal("expected the input image back")
	}
}

func TestShadowBlurFadesAtEdges(t *testing.T) {
	img := solid(20, 20, color.RGBA{A: 255})
	s := Shadow{Blur: 3, Offset: image.Pt(0, 0), Opacity: 1, Color: color.RGBA{A: 255}}
	out, at := s.Apply(img)
	edge := out.RGBAAt(3, at.Y+10).A
	inner := out.RGBAAt(at.X-1, at.Y+10).A
	if edge == 0 || edge >= inner {
		t.Fatalf("edge alpha %d, inner alpha %d", edge, inner)
	}
}
