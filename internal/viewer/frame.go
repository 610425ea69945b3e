package viewer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"strings"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/geom"
	"github.com/example/labelcanvas/internal/interaction"
	"github.com/example/labelcanvas/internal/render"
	"github.com/example/labelcanvas/internal/theme"
)

const (
	statusHeight = 20
	canvasMargin = 24
	checkerSize  = 8
)

var messageFace = basicfont.Face7x13

// frame is everything one paint needs, captured on the event goroutine so
// drawing never touches the editor.
type frame struct {
	width, height int

	doc      document.Document
	vp       geom.Viewport
	selected []element.Framed

	tool     interaction.Tool
	mode     interaction.Mode
	canUndo  bool
	canRedo  bool
	editing  bool
	selCount int

	message      string
	messageUntil time.Time
}

func (v *Viewer) snapshot() frame {
	els := v.ed.Elements()
	store := element.NewStore(els...)
	ids := v.ed.Selection()
	var selected []element.Framed
	for _, id := range ids {
		e := store.Get(id)
		if e == nil {
			continue
		}
		if g, ok := e.(*element.Group); ok {
			for _, c := range g.Children {
				if f, ok := store.Framed(c); ok {
					selected = append(selected, f)
				}
			}
			continue
		}
		if f, ok := element.AsFramed(e); ok {
			selected = append(selected, f)
		}
	}
	return frame{
		width:        v.width,
		height:       v.height,
		doc:          document.Document{Elements: els, Settings: v.ed.Settings()},
		vp:           v.ed.Viewport(),
		selected:     selected,
		tool:         v.ed.Tool(),
		mode:         v.ed.Mode(),
		canUndo:      v.ed.CanUndo(),
		canRedo:      v.ed.CanRedo(),
		editing:      v.editing != "",
		selCount:     len(ids),
		message:      v.message,
		messageUntil: v.messageUntil,
	}
}

func (v *Viewer) drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st frame) {
	if st.width <= 0 || st.height <= 0 {
		return
	}
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	if err := v.compose(ctx, b.RGBA(), st); err != nil {
		if ctx.Err() != nil {
			return
		}
		v.logf("paint: %v", err)
	}
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// compose paints st into dst. Render errors are returned after the rest of
// the frame is drawn so one broken element never blanks the window.
func (v *Viewer) compose(ctx context.Context, dst *image.RGBA, st frame) error {
	th := v.opts.Theme
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(th.Background), image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	cw, ch := render.CanvasSize(st.doc.Settings, v.opts.BaseWidth)
	canvas := canvasRect(st.vp, cw, ch)
	view := image.Rect(0, 0, st.width, st.height-statusHeight).Intersect(b)

	if sh, at := v.shadow.get(canvas.Size(), th.Shadow); sh != nil {
		off := canvas.Min.Sub(at)
		r := sh.Bounds().Add(off).Intersect(view)
		draw.Draw(dst, r, sh, r.Min.Sub(off), draw.Over)
	}
	drawCheckerboard(dst, canvas.Intersect(view), checkerSize, th.CheckerLight, th.CheckerDark)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	img, renderErr := render.Render(st.doc, render.Options{
		BaseWidth: v.opts.BaseWidth,
		Scale:     st.vp.Scale,
		Origin:    st.vp.Origin,
		Size:      view.Size(),
		Data:      v.opts.Data,
		BaseDir:   v.opts.BaseDir,
	})
	if img != nil {
		draw.Draw(dst, canvas.Intersect(view), img, canvas.Intersect(view).Min, draw.Over)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	overlay := image.NewRGBA(view)
	render.DrawOverlay(overlay, render.Overlay{
		Viewport:   st.vp,
		Selected:   st.selected,
		HandleSize: v.opts.HandleSize,
		Color:      th.Selection,
	})
	draw.Draw(dst, view, overlay, view.Min, draw.Over)

	drawStatus(dst, th, st)
	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, st.width, st.height-statusHeight, st.message)
	}
	return renderErr
}

// canvasRect is the screen rectangle covered by the canvas.
func canvasRect(vp geom.Viewport, cw, ch float64) image.Rectangle {
	lo := vp.ToScreen(r2.Vec{})
	hi := vp.ToScreen(r2.Vec{X: cw, Y: ch})
	return image.Rect(int(lo.X), int(lo.Y), int(hi.X+0.5), int(hi.Y+0.5))
}

// fitViewport scales a cw x ch canvas to fit a w x h area with a margin and
// centres it.
func fitViewport(cw, ch float64, w, h int) geom.Viewport {
	if cw <= 0 || ch <= 0 || w <= 0 || h <= 0 {
		return geom.DefaultViewport()
	}
	availW := float64(w - 2*canvasMargin)
	availH := float64(h - 2*canvasMargin)
	if availW <= 0 || availH <= 0 {
		availW, availH = float64(w), float64(h)
	}
	scale := availW / cw
	if zy := availH / ch; zy < scale {
		scale = zy
	}
	scale = geom.ClampScale(scale)
	return geom.Viewport{
		Origin: r2.Vec{X: (float64(w) - cw*scale) / 2, Y: (float64(h) - ch*scale) / 2},
		Scale:  scale,
	}
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.SetRGBA(x, y, light)
			} else {
				dst.SetRGBA(x, y, dark)
			}
		}
	}
}

func statusText(st frame) string {
	parts := []string{
		"tool: " + st.tool.String(),
		fmt.Sprintf("zoom: %d%%", int(st.vp.Scale*100+0.5)),
	}
	if st.selCount > 0 {
		parts = append(parts, fmt.Sprintf("selected: %d", st.selCount))
	}
	if st.mode != interaction.ModeIdle {
		parts = append(parts, st.mode.String())
	}
	if st.editing {
		parts = append(parts, "typing")
	}
	var hist []string
	if st.canUndo {
		hist = append(hist, "^Z undo")
	}
	if st.canRedo {
		hist = append(hist, "^Y redo")
	}
	if len(hist) > 0 {
		parts = append(parts, strings.Join(hist, " "))
	}
	return strings.Join(parts, "  |  ")
}

func drawStatus(dst *image.RGBA, th *theme.Theme, st frame) {
	r := image.Rect(0, st.height-statusHeight, st.width, st.height).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(th.StatusBackground), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
	ascent := messageFace.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(r.Min.X+6, r.Min.Y+(statusHeight-ascent)/2+ascent)
	d.DrawString(statusText(st))
}

func drawMessage(dst *image.RGBA, width, height int, msg string) {
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: messageFace}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := (width - wmsg) / 2
	py := (height-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
	drawRect(dst, rect, color.Black, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

func drawRect(dst *image.RGBA, r image.Rectangle, c color.Color, w int) {
	u := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

// shadowCache keeps the blurred canvas shadow between frames; it only
// changes when the canvas size or colour does.
type shadowCache struct {
	size  image.Point
	color color.RGBA
	img   *image.RGBA
	at    image.Point
}

func (c *shadowCache) get(size image.Point, col color.RGBA) (*image.RGBA, image.Point) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, image.Point{}
	}
	if c.img != nil && c.size == size && c.color == col {
		return c.img, c.at
	}
	solid := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(solid, solid.Bounds(), image.Opaque, image.Point{}, draw.Src)
	sh := render.Shadow{Blur: 4, Offset: image.Pt(4, 4), Opacity: 0.35, Color: col}
	c.img, c.at = sh.Apply(solid)
	c.size, c.color = size, col
	return c.img, c.at
}
