// Package history keeps the linear undo/redo log of committed document
// snapshots and the debounce policy that coalesces bursts of edits into a
// single commit.
package history

import (
	"time"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
)

// DefaultLimit bounds the number of undo steps kept.
const DefaultLimit = 100

// Op tags a committed state with what produced it.
type Op string

const (
	OpInit             Op = "init"
	OpMoveElement      Op = "move_element"
	OpResizeElement    Op = "resize_element"
	OpRotateElement    Op = "rotate_element"
	OpAddElement       Op = "add_element"
	OpDeleteElement    Op = "delete_element"
	OpUpdateElement    Op = "update_element"
	OpUpdateText       Op = "update_text"
	OpRenameLayer      Op = "rename_layer"
	OpToggleVisibility Op = "toggle_visibility"
	OpReorderLayer     Op = "reorder_layer"
	OpGroup            Op = "group"
	OpUngroup          Op = "ungroup"
	OpUpdateCanvas     Op = "update_canvas"
	OpLoadTemplate     Op = "load_template"
	OpNudge            Op = "nudge"
)

// State is an immutable snapshot. Its fields are never handed out without
// copying.
type State struct {
	elements []element.Element
	settings document.Settings
	at       time.Time
	op       Op
}

func newState(op Op, els []element.Element, s document.Settings, at time.Time) State {
	return State{elements: element.CloneAll(els), settings: s, at: at, op: op}
}

// Op returns the tag of the operation that produced the state.
func (s State) Op() Op { return s.op }

// Time returns when the state was committed.
func (s State) Time() time.Time { return s.at }

// Elements returns a deep copy of the snapshotted elements.
func (s State) Elements() []element.Element { return element.CloneAll(s.elements) }

// Settings returns the snapshotted canvas settings.
func (s State) Settings() document.Settings { return s.settings }

// Document returns the state as a standalone document.
func (s State) Document() document.Document {
	return document.Document{Elements: s.Elements(), Settings: s.settings}
}

// Engine is a linear undo stack. Committing clears the redo side.
type Engine struct {
	past    []State // oldest first
	present State
	future  []State // nearest first
	limit   int
	now     func() time.Time
}

// NewEngine starts a history whose present is initial. A non-positive limit
// uses DefaultLimit.
func NewEngine(initial document.Document, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	e := &Engine{limit: limit, now: time.Now}
	e.present = newState(OpInit, initial.Elements, initial.Settings, e.now())
	return e
}

// Commit pushes the present onto the past and installs a new present built
// from els and settings. A nil argument keeps the present's value. Every call
// pushes; deciding whether an edit is worth a step is up to the caller.
func (e *Engine) Commit(op Op, els []element.Element, settings *document.Settings) State {
	if els == nil {
		els = e.present.elements
	}
	s := e.present.settings
	if settings != nil {
		s = *settings
	}
	e.past = append(e.past, e.present)
	if over := len(e.past) - e.limit; over > 0 {
		e.past = append(e.past[:0:0], e.past[over:]...)
	}
	e.present = newState(op, els, s, e.now())
	e.future = nil
	return e.present
}

// Undo steps back one state. It reports false when there is nothing to undo.
func (e *Engine) Undo() (State, bool) {
	if len(e.past) == 0 {
		return e.present, false
	}
	prev := e.past[len(e.past)-1]
	e.past = e.past[:len(e.past)-1]
	e.future = append([]State{e.present}, e.future...)
	e.present = prev
	return e.present, true
}

// Redo re-applies the nearest undone state. It reports false when there is
// nothing to redo.
func (e *Engine) Redo() (State, bool) {
	if len(e.future) == 0 {
		return e.present, false
	}
	next := e.future[0]
	e.future = e.future[1:]
	e.past = append(e.past, e.present)
	e.present = next
	return e.present, true
}

// Reset discards all history and makes doc the present.
func (e *Engine) Reset(op Op, doc document.Document) {
	e.past, e.future = nil, nil
	e.present = newState(op, doc.Elements, doc.Settings, e.now())
}

// Present returns the current state.
func (e *Engine) Present() State { return e.present }

// CanUndo reports whether Undo would change anything.
func (e *Engine) CanUndo() bool { return len(e.past) > 0 }

// CanRedo reports whether Redo would change anything.
func (e *Engine) CanRedo() bool { return len(e.future) > 0 }

// PastLen is the number of undo steps available.
func (e *Engine) PastLen() int { return len(e.past) }

// FutureLen is the number of redo steps available.
func (e *Engine) FutureLen() int { return len(e.future) }

// Limit is the maximum PastLen.
func (e *Engine) Limit() int { return e.limit }

// Entry describes one step for listings.
type Entry struct {
	Op      Op
	At      time.Time
	Current bool
}

// Entries lists past, present and future in chronological order.
func (e *Engine) Entries() []Entry {
	out := make([]Entry, 0, len(e.past)+1+len(e.future))
	for _, s := range e.past {
		out = append(out, Entry{Op: s.op, At: s.at})
	}
	out = append(out, Entry{Op: e.present.op, At: e.present.at, Current: true})
	for _, s := range e.future {
		out = append(out, Entry{Op: s.op, At: s.at})
	}
	return out
}
