package interaction

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/geom"
)

// HitKind says what a pointer press landed on.
type HitKind int

const (
	HitNone HitKind = iota
	HitElement
	HitResize
	HitRotate
)

// Hit is the result of a hit test.
type Hit struct {
	Kind   HitKind
	ID     string
	Handle geom.Handle
}

// HitOptions sizes the handle affordances in canvas units.
type HitOptions struct {
	HandleSize   float64
	RotateOffset float64
}

// DefaultHandleSize matches the on-screen handle squares.
const DefaultHandleSize = 8

// DefaultHitOptions returns handle sizes for an unzoomed canvas.
func DefaultHitOptions() HitOptions {
	return HitOptions{HandleSize: DefaultHandleSize, RotateOffset: 24}
}

// Scaled converts on-screen handle sizes to canvas units at zoom scale.
func (o HitOptions) Scaled(scale float64) HitOptions {
	if scale <= 0 {
		return o
	}
	return HitOptions{HandleSize: o.HandleSize / scale, RotateOffset: o.RotateOffset / scale}
}

// Local maps a canvas point into f's unrotated frame.
func Local(f element.Framed, p r2.Vec) r2.Vec {
	g := f.Geometry()
	if g.Rotation == 0 {
		return p
	}
	return geom.RotateAbout(p, g.Rect().Center(), -g.Rotation)
}

// HandleRects returns the eight handle squares around r in the same order
// as geom.Handles.
func HandleRects(r geom.Rect, size float64) [8]geom.Rect {
	hs := size / 2
	var out [8]geom.Rect
	for i, h := range geom.Handles {
		a := h.Anchor(r)
		out[i] = geom.Rect{X: a.X - hs, Y: a.Y - hs, Width: size, Height: size}
	}
	return out
}

// HitTest finds what canvas point p touches. Handles of the selected element
// are only offered when exactly one element is selected; elements are
// searched top-most first. Hidden elements and groups are never hit.
func HitTest(store *element.Store, selected []string, p r2.Vec, opts HitOptions) Hit {
	if len(selected) == 1 {
		if f, ok := store.Framed(selected[0]); ok && f.Base().Visible {
			if h, ok := handleHit(f, p, opts); ok {
				return h
			}
		}
	}
	ordered := store.Ordered()
	for i := len(ordered) - 1; i >= 0; i-- {
		e := ordered[i]
		if !e.Base().Visible {
			continue
		}
		f, ok := element.AsFramed(e)
		if !ok {
			continue
		}
		if f.Geometry().Rect().Contains(Local(f, p)) {
			return Hit{Kind: HitElement, ID: e.Base().ID}
		}
	}
	return Hit{}
}

func handleHit(f element.Framed, p r2.Vec, opts HitOptions) (Hit, bool) {
	local := Local(f, p)
	r := f.Geometry().Rect()
	id := f.Base().ID
	if opts.RotateOffset > 0 {
		if geom.Distance(local, geom.RotationAnchor(r, opts.RotateOffset)) <= opts.HandleSize {
			return Hit{Kind: HitRotate, ID: id}, true
		}
	}
	for i, hr := range HandleRects(r, opts.HandleSize) {
		if hr.Contains(local) {
			return Hit{Kind: HitResize, ID: id, Handle: geom.Handles[i]}, true
		}
	}
	return Hit{}, false
}
