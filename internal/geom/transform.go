// Package geom holds the coordinate and geometry helpers shared by the
// interaction state machine, hit testing and rendering.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MinScale and MaxScale bound the zoom factor applied to the canvas.
	MinScale = 0.1
	MaxScale = 4.0
)

// ToCanvasSpace converts a pointer position in screen space into canvas
// space given the screen position of the canvas origin and the zoom scale.
func ToCanvasSpace(pointer, origin r2.Vec, scale float64) r2.Vec {
	if scale == 0 {
		scale = 1
	}
	return r2.Scale(1/scale, r2.Sub(pointer, origin))
}

// ToScreenSpace is the inverse of ToCanvasSpace.
func ToScreenSpace(p, origin r2.Vec, scale float64) r2.Vec {
	return r2.Add(origin, r2.Scale(scale, p))
}

// ClampScale limits scale to [MinScale, MaxScale].
func ClampScale(scale float64) float64 {
	return ClampScaleTo(scale, MinScale, MaxScale)
}

// ClampScaleTo limits scale to [lo, hi]. NaN collapses to 1.
func ClampScaleTo(scale, lo, hi float64) float64 {
	if math.IsNaN(scale) {
		return 1
	}
	if scale < lo {
		return lo
	}
	if scale > hi {
		return hi
	}
	return scale
}

// Viewport describes where the canvas is drawn on screen. Origin is the
// screen position of canvas (0,0) and already includes any scroll offset.
type Viewport struct {
	Origin r2.Vec
	Scale  float64
}

// DefaultViewport draws the canvas at the screen origin with no zoom.
func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

// ToCanvas converts a screen point into canvas space.
func (v Viewport) ToCanvas(p r2.Vec) r2.Vec {
	return ToCanvasSpace(p, v.Origin, v.Scale)
}

// ToScreen converts a canvas point into screen space.
func (v Viewport) ToScreen(p r2.Vec) r2.Vec {
	return ToScreenSpace(p, v.Origin, v.Scale)
}

// ZoomAbout changes the scale keeping the canvas point under the screen
// position anchor fixed on screen.
func (v Viewport) ZoomAbout(anchor r2.Vec, scale, lo, hi float64) Viewport {
	scale = ClampScaleTo(scale, lo, hi)
	fixed := v.ToCanvas(anchor)
	return Viewport{
		Origin: r2.Sub(anchor, r2.Scale(scale, fixed)),
		Scale:  scale,
	}
}

// Pan shifts the viewport by a screen-space delta.
func (v Viewport) Pan(delta r2.Vec) Viewport {
	v.Origin = r2.Add(v.Origin, delta)
	return v
}
