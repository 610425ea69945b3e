package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/geom"
)

const redSquare = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect x="0" y="0" width="10" height="10" fill="#ff0000"/></svg>`

func isWhite(c color.RGBA) bool { return c.R == 255 && c.G == 255 && c.B == 255 && c.A == 255 }

func darkPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c := img.RGBAAt(x, y); c.A > 0 && c.R < 128 && c.G < 128 && c.B < 128 {
				n++
			}
		}
	}
	return n
}

func TestRenderCanvasSize(t *testing.T) {
	img, err := Render(document.New(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 800, 600) {
		t.Fatalf("bounds %v", got)
	}
	img, err = Render(document.New(), Options{Scale: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 400, 300) {
		t.Fatalf("scaled bounds %v", got)
	}
}

func TestRenderGridToggle(t *testing.T) {
	doc := document.New()
	doc.Settings.MeshColor = "#000000"
	img, err := Render(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if isWhite(img.RGBAAt(19, 5)) && isWhite(img.RGBAAt(20, 5)) {
		t.Fatal("grid line missing")
	}
	img, err = Render(doc, Options{HideGrid: true})
	if err != nil {
		t.Fatal(err)
	}
	if !isWhite(img.RGBAAt(20, 5)) || !isWhite(img.RGBAAt(19, 5)) {
		t.Fatalf("grid drawn while hidden: %+v", img.RGBAAt(20, 5))
	}
}

func TestRenderTextAndVisibility(t *testing.T) {
	doc := document.New()
	doc.Settings.ShowGrid = false
	txt := element.NewText(100, 100, "HELLO")
	txt.ZIndex = 1
	doc.Elements = []element.Element{txt}
	img, err := Render(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	box := image.Rect(100, 100, 300, 150)
	if darkPixels(img, box) == 0 {
		t.Fatal("text not drawn")
	}
	if darkPixels(img, image.Rect(0, 0, 100, 100)) != 0 {
		t.Fatal("text drawn outside its box")
	}
	txt.Visible = false
	img, err = Render(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if darkPixels(img, box) != 0 {
		t.Fatal("hidden element drawn")
	}
}

func TestRenderLabelUsesData(t *testing.T) {
	doc := document.New()
	doc.Settings.ShowGrid = false
	l := element.NewLabel(0, 0, "name", "")
	l.ZIndex = 1
	doc.Elements = []element.Element{l}
	img, err := Render(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if darkPixels(img, image.Rect(0, 0, 200, 50)) != 0 {
		t.Fatal("empty label drew text")
	}
	img, err = Render(doc, Options{Data: Data{"name": "Ada"}})
	if err != nil {
		t.Fatal(err)
	}
	if darkPixels(img, image.Rect(0, 0, 200, 50)) == 0 {
		t.Fatal("resolved label not drawn")
	}
}

func TestRenderRasterMedia(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		if i%4 == 0 || i%4 == 3 {
			src.Pix[i] = 255
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	doc := document.New()
	doc.Settings.ShowGrid = false
	doc.Elements = []element.Element{&element.Media{
		Common:    element.Common{ID: "m", ZIndex: 1, Visible: true},
		Frame:     element.Frame{X: 0, Y: 0, Width: 100, Height: 100},
		MediaKind: element.MediaRaster,
		Content:   EncodeDataURL("image/png", buf.Bytes()),
	}}
	img, err := Render(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c := img.RGBAAt(50, 50); c.R < 200 || c.G > 50 {
		t.Fatalf("media pixel %+v", c)
	}
}

func TestRenderReportsBrokenMedia(t *testing.T) {
	doc := document.New()
	doc.Elements = []element.Element{&element.Media{
		Common:    element.Common{ID: "bad", ZIndex: 1, Visible: true},
		Frame:     element.Frame{Width: 10, Height: 10},
		MediaKind: element.MediaRaster,
		Content:   "data:image/png;base64,AAAA",
	}}
	img, err := Render(doc, Options{})
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error naming the element, got %v", err)
	}
	if img == nil {
		t.Fatal("partial image not returned")
	}
}

func TestRasterizeAndRecolor(t *testing.T) {
	img, err := RasterizeSVG(redSquare, 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.RGBAAt(10, 10); c.R != 255 || c.G != 0 {
		t.Fatalf("pixel %+v", c)
	}
	img, err = RasterizeSVG(Recolor(redSquare, "", "#00ff00"), 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.RGBAAt(10, 10); c.G != 255 || c.R != 0 {
		t.Fatalf("recoloured pixel %+v", c)
	}
	if _, err := RasterizeSVG("  ", 10, 10); err != ErrEmptySVG {
		t.Fatalf("expected ErrEmptySVG, got %v", err)
	}
}

func TestRecolorKeepsNone(t *testing.T) {
	in := `<path fill="none" stroke="#000" style="fill:none;stroke:#111"/>`
	out := Recolor(in, "#ff0000", "#00ff00")
	want := `<path fill="none" stroke="#ff0000" style="fill:none;stroke:#ff0000"/>`
	if out != want {
		t.Fatalf("got %s", out)
	}
}

func TestDataResolve(t *testing.T) {
	d, err := ParseData([]byte(`{"name":"Ada","age":36,"vip":true,"tags":["a","b"],"addr":{"city":"London","zip":null}}`))
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]string{
		"name":      "Ada",
		"age":       "36",
		"vip":       "true",
		"tags.1":    "b",
		"tags.9":    "-",
		"addr.city": "London",
		"addr.zip":  "-",
		"missing":   "-",
		"name.x":    "-",
		"":          "-",
	}
	for key, want := range cases {
		if got := d.Resolve(key, "-"); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", key, got, want)
		}
	}
	if got := Data(nil).Resolve("name", "ph"); got != "ph" {
		t.Errorf("nil data resolved to %q", got)
	}
}

func TestFitFontSize(t *testing.T) {
	if got := FitFontSize("Hi", "sans", 24, 8, 200, 50); got != 24 {
		t.Fatalf("short text shrank to %v", got)
	}
	long := strings.Repeat("wide words ", 20)
	got := FitFontSize(long, "sans", 24, 8, 200, 50)
	if got >= 24 || got < 8 {
		t.Fatalf("long text size %v", got)
	}
	if got := FitFontSize(strings.Repeat("x", 500), "sans", 24, 8, 20, 20); got != 8 {
		t.Fatalf("impossible fit returned %v", got)
	}
}

func TestFitScale(t *testing.T) {
	sx, sy := fitScale(100, 50, 200, 200, document.FitCover)
	if sx != 4 || sy != 4 {
		t.Fatalf("cover %v,%v", sx, sy)
	}
	sx, sy = fitScale(100, 50, 200, 200, document.FitContain)
	if sx != 2 || sy != 2 {
		t.Fatalf("contain %v,%v", sx, sy)
	}
	sx, sy = fitScale(100, 50, 200, 200, document.FitStretch)
	if sx != 2 || sy != 4 {
		t.Fatalf("stretch %v,%v", sx, sy)
	}
}

func TestDataURL(t *testing.T) {
	mt, b, err := DecodeDataURL(EncodeDataURL("image/png", []byte{1, 2, 3}))
	if err != nil || mt != "image/png" || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatalf("got %q %v %v", mt, b, err)
	}
	mt, b, err = DecodeDataURL("data:image/svg+xml,%3Csvg%2F%3E")
	if err != nil || mt != "image/svg+xml" || string(b) != "<svg/>" {
		t.Fatalf("got %q %q %v", mt, b, err)
	}
	if _, _, err := DecodeDataURL("http://example.com/a.png"); err != ErrUnsupportedSource {
		t.Fatalf("expected ErrUnsupportedSource, got %v", err)
	}
}

func TestDrawOverlay(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	txt := element.NewText(50, 60, "")
	txt.Width, txt.Height = 100, 80
	DrawOverlay(img, Overlay{Viewport: geom.DefaultViewport(), Selected: []element.Framed{txt}})
	if img.RGBAAt(150, 140).A == 0 {
		t.Fatal("se handle not drawn")
	}
	if img.RGBAAt(100, 36).A == 0 {
		t.Fatal("rotation grip not drawn")
	}
	if img.RGBAAt(100, 100).A != 0 {
		t.Fatal("overlay filled the element")
	}
}
