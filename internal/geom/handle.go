package geom

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// MinDimension is the smallest width or height an interactive resize may
// produce.
const MinDimension = 20

// Handle identifies one of the eight resize affordances around a box.
type Handle int

const (
	HandleNW Handle = iota
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

// Handles lists every resize handle in clockwise order from the top-left.
var Handles = [...]Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

var handleNames = [...]string{"nw", "n", "ne", "e", "se", "s", "sw", "w"}

func (h Handle) String() string {
	if h < 0 || int(h) >= len(handleNames) {
		return fmt.Sprintf("Handle(%d)", int(h))
	}
	return handleNames[h]
}

// Valid reports whether h is one of the eight known handles.
func (h Handle) Valid() bool { return h >= HandleNW && h <= HandleW }

// ParseHandle accepts the compass names used in templates and the CLI.
func ParseHandle(s string) (Handle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range handleNames {
		if n == s {
			return Handle(i), nil
		}
	}
	return 0, fmt.Errorf("unknown handle %q", s)
}

// resizeFunc computes a new box from the box captured at gesture start and
// the pointer delta since then. The edge or corner opposite the handle stays
// fixed.
type resizeFunc func(start Rect, d r2.Vec, minSize float64) Rect

func growRight(r *Rect, start Rect, dx, minSize float64) {
	r.Width = math.Max(minSize, start.Width+dx)
}

func growLeft(r *Rect, start Rect, dx, minSize float64) {
	r.Width = math.Max(minSize, start.Width-dx)
	r.X = start.X + (start.Width - r.Width)
}

func growDown(r *Rect, start Rect, dy, minSize float64) {
	r.Height = math.Max(minSize, start.Height+dy)
}

func growUp(r *Rect, start Rect, dy, minSize float64) {
	r.Height = math.Max(minSize, start.Height-dy)
	r.Y = start.Y + (start.Height - r.Height)
}

var resizers = [...]resizeFunc{
	HandleNW: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growLeft(&r, s, d.X, m)
		growUp(&r, s, d.Y, m)
		return r
	},
	HandleN: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growUp(&r, s, d.Y, m)
		return r
	},
	HandleNE: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growRight(&r, s, d.X, m)
		growUp(&r, s, d.Y, m)
		return r
	},
	HandleE: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growRight(&r, s, d.X, m)
		return r
	},
	HandleSE: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growRight(&r, s, d.X, m)
		growDown(&r, s, d.Y, m)
		return r
	},
	HandleS: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growDown(&r, s, d.Y, m)
		return r
	},
	HandleSW: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growLeft(&r, s, d.X, m)
		growDown(&r, s, d.Y, m)
		return r
	},
	HandleW: func(s Rect, d r2.Vec, m float64) Rect {
		r := s
		growLeft(&r, s, d.X, m)
		return r
	},
}

// Resize applies handle h to start with pointer delta d. Width and height
// never drop below minSize; a non-positive minSize uses MinDimension.
func Resize(h Handle, start Rect, d r2.Vec, minSize float64) Rect {
	if !h.Valid() {
		return start
	}
	if minSize <= 0 {
		minSize = MinDimension
	}
	return resizers[h](start, d, minSize)
}

// Anchor returns the position of handle h on r, before rotation.
func (h Handle) Anchor(r Rect) r2.Vec {
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.Width, r.Y+r.Height
	switch h {
	case HandleNW:
		return r2.Vec{X: x0, Y: y0}
	case HandleN:
		return r2.Vec{X: cx, Y: y0}
	case HandleNE:
		return r2.Vec{X: x1, Y: y0}
	case HandleE:
		return r2.Vec{X: x1, Y: cy}
	case HandleSE:
		return r2.Vec{X: x1, Y: y1}
	case HandleS:
		return r2.Vec{X: cx, Y: y1}
	case HandleSW:
		return r2.Vec{X: x0, Y: y1}
	case HandleW:
		return r2.Vec{X: x0, Y: cy}
	default:
		return r.Center()
	}
}

// RotationAnchor is where the rotation grip sits: offset above the top edge
// centre, before rotation.
func RotationAnchor(r Rect, offset float64) r2.Vec {
	return r2.Vec{X: r.X + r.Width/2, Y: r.Y - offset}
}
