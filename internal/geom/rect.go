package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned box in canvas units. X and Y are the top-left
// corner before rotation is applied.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Min returns the top-left corner.
func (r Rect) Min() r2.Vec { return r2.Vec{X: r.X, Y: r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() r2.Vec { return r2.Vec{X: r.X + r.Width, Y: r.Y + r.Height} }

// Center returns the geometric centre of the box.
func (r Rect) Center() r2.Vec {
	return r2.Vec{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p r2.Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Translate returns r moved by d.
func (r Rect) Translate(d r2.Vec) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Normalize360 maps an angle in degrees into [0, 360).
func Normalize360(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	// Mod of tiny negatives can round back up to 360.
	if r >= 360 {
		r = 0
	}
	return r
}

// AngleDeg is the angle of p around center in degrees, as atan2(dy, dx).
func AngleDeg(center, p r2.Vec) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X) * 180 / math.Pi
}

// RotateAbout rotates p around center by deg degrees (clockwise on a
// y-down screen).
func RotateAbout(p, center r2.Vec, deg float64) r2.Vec {
	if deg == 0 {
		return p
	}
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	d := r2.Sub(p, center)
	return r2.Add(center, r2.Vec{
		X: d.X*cos - d.Y*sin,
		Y: d.X*sin + d.Y*cos,
	})
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
