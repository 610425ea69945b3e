package interaction

import (
	"golang.org/x/mobile/event/touch"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/geom"
)

// Pinch turns two-finger touch sequences into zoom changes. It works on the
// viewport only and never touches elements or history.
type Pinch struct {
	points    map[touch.Sequence]r2.Vec
	startDist float64
	start     geom.Viewport
}

// Active reports whether two or more touches are down.
func (p *Pinch) Active() bool { return len(p.points) >= 2 }

// Handle feeds a touch event. When a pinch is in progress it returns the
// zoomed viewport, anchored at the midpoint between the first two touches
// and clamped to [lo, hi].
func (p *Pinch) Handle(e touch.Event, vp geom.Viewport, lo, hi float64) (geom.Viewport, bool) {
	if p.points == nil {
		p.points = map[touch.Sequence]r2.Vec{}
	}
	pt := r2.Vec{X: float64(e.X), Y: float64(e.Y)}
	switch e.Type {
	case touch.TypeBegin:
		p.points[e.Sequence] = pt
		if len(p.points) == 2 {
			a, b := p.pair()
			p.startDist = geom.Distance(a, b)
			p.start = vp
		}
		return vp, false
	case touch.TypeMove:
		if _, ok := p.points[e.Sequence]; !ok {
			return vp, false
		}
		p.points[e.Sequence] = pt
		if len(p.points) < 2 || p.startDist <= 0 {
			return vp, false
		}
		a, b := p.pair()
		ratio := geom.Distance(a, b) / p.startDist
		mid := r2.Scale(0.5, r2.Add(a, b))
		return p.start.ZoomAbout(mid, p.start.Scale*ratio, lo, hi), true
	case touch.TypeEnd:
		delete(p.points, e.Sequence)
		if len(p.points) < 2 {
			p.startDist = 0
		}
		return vp, false
	}
	return vp, false
}

// pair returns the two touches with the lowest sequence numbers so the
// choice is stable across events.
func (p *Pinch) pair() (r2.Vec, r2.Vec) {
	var seqs [2]touch.Sequence
	n := 0
	for s := range p.points {
		switch {
		case n < 2:
			seqs[n] = s
			n++
			if n == 2 && seqs[1] < seqs[0] {
				seqs[0], seqs[1] = seqs[1], seqs[0]
			}
		case s < seqs[0]:
			seqs[1], seqs[0] = seqs[0], s
		case s < seqs[1]:
			seqs[1] = s
		}
	}
	return p.points[seqs[0]], p.points[seqs[1]]
}
