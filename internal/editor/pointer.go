package editor

import (
	"fmt"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/history"
	"github.com/example/labelcanvas/internal/interaction"
)

// wheelStep is the zoom factor of one wheel notch.
const wheelStep = 1.1

// Apply feeds a mouse event in screen coordinates. It reports whether the
// canvas needs repainting.
func (e *Editor) Apply(ev mouse.Event) bool {
	p := r2.Vec{X: float64(ev.X), Y: float64(ev.Y)}
	switch ev.Direction {
	case mouse.DirStep:
		switch ev.Button {
		case mouse.ButtonWheelUp:
			e.zoomStep(p, wheelStep)
			return true
		case mouse.ButtonWheelDown:
			e.zoomStep(p, 1/wheelStep)
			return true
		}
		return false
	case mouse.DirPress:
		if ev.Button != mouse.ButtonLeft {
			return false
		}
		return e.Press(p, ev.Modifiers&key.ModShift != 0)
	case mouse.DirRelease:
		if ev.Button != mouse.ButtonLeft {
			return false
		}
		return e.Release()
	case mouse.DirNone:
		return e.Move(p)
	}
	return false
}

func (e *Editor) zoomStep(anchor r2.Vec, factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vp = e.vp.ZoomAbout(anchor, e.vp.Scale*factor, e.opts.MinZoom, e.opts.MaxZoom)
}

// Press handles a primary pointer press at screen point p. Pending typing
// is committed first so it never lands inside the gesture's entry.
func (e *Editor) Press(p r2.Vec, additive bool) bool {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked()
	cp := e.vp.ToCanvas(p)
	switch e.tool {
	case interaction.ToolPan:
		e.panning = true
		e.panStart = p
		e.panOrigin = e.vp.Origin
		return false
	case interaction.ToolText:
		t := element.NewText(cp.X, cp.Y, "Text")
		e.placeLocked(t)
		return true
	case interaction.ToolLabel:
		e.labelCount++
		l := element.NewLabel(cp.X, cp.Y, fmt.Sprintf("field%d", e.labelCount), "Label")
		e.placeLocked(l)
		return true
	case interaction.ToolCursor:
		return e.pressCursorLocked(cp, additive)
	default:
		return false
	}
}

func (e *Editor) placeLocked(el element.Element) {
	if err := e.store.Insert(el); err != nil {
		e.logf("place %s: %v", el.Kind(), err)
		return
	}
	e.sel.Select(el.Base().ID, false)
	e.commitLocked(history.OpAddElement)
}

func (e *Editor) pressCursorLocked(cp r2.Vec, additive bool) bool {
	hit := interaction.HitTest(e.store, e.sel.Current(), cp, e.opts.Hit.Scaled(e.vp.Scale))
	switch hit.Kind {
	case interaction.HitRotate:
		e.machine.BeginRotate(hit.ID, cp)
		e.logf("rotate %s", hit.ID)
		return true
	case interaction.HitResize:
		e.machine.BeginResize(hit.ID, hit.Handle, cp)
		e.logf("resize %s from %s", hit.ID, hit.Handle)
		return true
	case interaction.HitElement:
		if additive {
			e.sel.Select(hit.ID, true)
			return true
		}
		if !e.sel.Contains(hit.ID) {
			e.sel.Select(hit.ID, false)
		}
		e.machine.BeginDrag(hit.ID, cp)
		return true
	case interaction.HitNone:
		if additive || e.sel.Len() == 0 {
			return false
		}
		e.sel.Clear()
		return true
	default:
		return false
	}
}

// Move handles pointer motion at screen point p.
func (e *Editor) Move(p r2.Vec) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panning {
		e.vp.Origin = r2.Add(e.panOrigin, r2.Sub(p, e.panStart))
		return true
	}
	return e.machine.Move(e.vp.ToCanvas(p))
}

// Release handles pointer-up. A finished drag, resize or rotate becomes
// exactly one history entry.
func (e *Editor) Release() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	wasPanning := e.panning
	return e.finishLocked() || wasPanning
}

// Leave handles the pointer leaving the canvas. It finalises the gesture
// the same way Release does.
func (e *Editor) Leave() bool {
	return e.Release()
}

// Touch feeds a touch event. Two fingers pinch-zoom the viewport without
// involving the gesture machine; a single finger acts like the mouse.
func (e *Editor) Touch(ev touch.Event) bool {
	e.mu.Lock()
	wasPinching := e.pinch.Active()
	vp, zoomed := e.pinch.Handle(ev, e.vp, e.opts.MinZoom, e.opts.MaxZoom)
	if zoomed {
		e.vp = vp
	}
	pinching := e.pinch.Active()
	if pinching && !wasPinching && e.touching {
		// A second finger landed mid-gesture: keep what was done so far.
		e.finishLocked()
		e.touching = false
	}
	if pinching || wasPinching {
		e.mu.Unlock()
		return zoomed
	}
	e.mu.Unlock()

	p := r2.Vec{X: float64(ev.X), Y: float64(ev.Y)}
	switch ev.Type {
	case touch.TypeBegin:
		e.mu.Lock()
		e.touching, e.touchSeq = true, ev.Sequence
		e.mu.Unlock()
		return e.Press(p, false)
	case touch.TypeMove:
		if !e.ownsTouch(ev.Sequence) {
			return false
		}
		return e.Move(p)
	case touch.TypeEnd:
		if !e.ownsTouch(ev.Sequence) {
			return false
		}
		e.mu.Lock()
		e.touching = false
		e.mu.Unlock()
		return e.Release()
	}
	return false
}

func (e *Editor) ownsTouch(seq touch.Sequence) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.touching && e.touchSeq == seq
}
