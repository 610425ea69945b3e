// Package interaction turns pointer gestures into element geometry edits.
package interaction

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/geom"
	"github.com/example/labelcanvas/internal/history"
)

// Mode is the state of the current pointer session.
type Mode int

const (
	ModeIdle Mode = iota
	ModePendingDrag
	ModeDragging
	ModeResizing
	ModeRotating
)

var modeNames = [...]string{"idle", "pending-drag", "dragging", "resizing", "rotating"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Machine is a single-pointer gesture session over a working store. It
// writes geometry straight into the store while a gesture runs; Release
// tells the caller which history entry the finished gesture deserves.
type Machine struct {
	store   *element.Store
	minSize float64

	mode   Mode
	target string
	lost   bool
	moved  bool

	// drag
	grab r2.Vec
	// resize
	handle    geom.Handle
	start     r2.Vec
	startRect geom.Rect
	// rotate
	center        r2.Vec
	startAngle    float64
	startRotation float64
}

// NewMachine returns an idle machine editing store. A non-positive minSize
// uses geom.MinDimension.
func NewMachine(store *element.Store, minSize float64) *Machine {
	if minSize <= 0 {
		minSize = geom.MinDimension
	}
	return &Machine{store: store, minSize: minSize}
}

// Mode reports the current state.
func (m *Machine) Mode() Mode { return m.mode }

// Target is the element the active gesture edits, empty when idle.
func (m *Machine) Target() string { return m.target }

// Handle is the resize handle held while resizing.
func (m *Machine) Handle() geom.Handle { return m.handle }

// Active reports whether a gesture is in progress.
func (m *Machine) Active() bool { return m.mode != ModeIdle }

// MinSize is the resize floor in canvas units.
func (m *Machine) MinSize() float64 { return m.minSize }

// BeginDrag arms a drag of id grabbed at canvas point p. Geometry only
// changes once the pointer moves.
func (m *Machine) BeginDrag(id string, p r2.Vec) bool {
	f, ok := m.store.Framed(id)
	if !ok {
		return false
	}
	g := f.Geometry()
	m.reset()
	m.mode = ModePendingDrag
	m.target = id
	m.grab = r2.Vec{X: p.X - g.X, Y: p.Y - g.Y}
	return true
}

// BeginResize starts resizing id from handle h with the pointer at p.
func (m *Machine) BeginResize(id string, h geom.Handle, p r2.Vec) bool {
	if !h.Valid() {
		return false
	}
	f, ok := m.store.Framed(id)
	if !ok {
		return false
	}
	m.reset()
	m.mode = ModeResizing
	m.target = id
	m.handle = h
	m.start = p
	m.startRect = f.Geometry().Rect()
	return true
}

// BeginRotate starts rotating id about its centre with the pointer at p.
func (m *Machine) BeginRotate(id string, p r2.Vec) bool {
	f, ok := m.store.Framed(id)
	if !ok {
		return false
	}
	g := f.Geometry()
	m.reset()
	m.mode = ModeRotating
	m.target = id
	m.center = g.Rect().Center()
	m.startAngle = geom.AngleDeg(m.center, p)
	m.startRotation = g.Rotation
	return true
}

// Move feeds a canvas-space pointer position. It reports whether the target
// geometry changed. A target that left the store turns the rest of the
// gesture into no-ops.
func (m *Machine) Move(p r2.Vec) bool {
	if m.mode == ModeIdle || m.lost {
		return false
	}
	f, ok := m.store.Framed(m.target)
	if !ok {
		m.lost = true
		return false
	}
	g := f.Geometry()
	switch m.mode {
	case ModePendingDrag:
		m.mode = ModeDragging
		fallthrough
	case ModeDragging:
		g.X = p.X - m.grab.X
		g.Y = p.Y - m.grab.Y
	case ModeResizing:
		d := r2.Sub(p, m.start)
		g.SetRect(geom.Resize(m.handle, m.startRect, d, m.minSize))
	case ModeRotating:
		cur := geom.AngleDeg(m.center, p)
		g.Rotation = geom.Normalize360(m.startRotation + (cur - m.startAngle))
	default:
		panic(fmt.Sprintf("interaction: unhandled mode %v", m.mode))
	}
	m.moved = true
	return true
}

// Release ends the gesture on pointer-up or pointer-leave. It returns the
// history op for a completed drag, resize or rotate, and false for a press
// that never moved or a target that vanished.
func (m *Machine) Release() (history.Op, bool) {
	mode, lost, moved, id := m.mode, m.lost, m.moved, m.target
	m.reset()
	if lost || !moved || m.store.Get(id) == nil {
		return "", false
	}
	switch mode {
	case ModeDragging:
		return history.OpMoveElement, true
	case ModeResizing:
		return history.OpResizeElement, true
	case ModeRotating:
		return history.OpRotateElement, true
	default:
		return "", false
	}
}

func (m *Machine) reset() {
	*m = Machine{store: m.store, minSize: m.minSize}
}
