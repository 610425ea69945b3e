// Package editor wires the element store, selection, gesture machine and
// history together behind one lock. UI events, scripted commands and
// debounce timers all go through it.
package editor

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/mobile/event/touch"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/document"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/geom"
	"github.com/example/labelcanvas/internal/history"
	"github.com/example/labelcanvas/internal/interaction"
	"github.com/example/labelcanvas/internal/selection"
)

// ErrNoSelection is returned by operations that act on the selection when
// nothing suitable is selected.
var ErrNoSelection = errors.New("nothing selected")

// Options configures an Editor. The zero value is usable.
type Options struct {
	HistoryLimit int
	Debounce     time.Duration
	Clock        history.Clock
	MinSize      float64
	MinZoom      float64
	MaxZoom      float64
	Hit          interaction.HitOptions
	// Logger receives gesture and commit traces. Nil disables them.
	Logger *log.Logger
	// OnCommit runs after every history change, with the editor locked. It
	// must not call back into the Editor.
	OnCommit func(history.State)
}

func (o *Options) fill() {
	if o.MinZoom <= 0 {
		o.MinZoom = geom.MinScale
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = geom.MaxScale
	}
	if o.MaxZoom < o.MinZoom {
		o.MinZoom, o.MaxZoom = o.MaxZoom, o.MinZoom
	}
	if o.Hit.HandleSize <= 0 {
		o.Hit = interaction.DefaultHitOptions()
	}
}

// Editor is one open document.
type Editor struct {
	mu sync.Mutex

	opts     Options
	store    *element.Store
	settings document.Settings
	sel      selection.Set
	machine  *interaction.Machine
	hist     *history.Engine
	coal     *history.Coalescer

	vp    geom.Viewport
	tool  interaction.Tool
	pinch interaction.Pinch

	panning   bool
	panStart  r2.Vec
	panOrigin r2.Vec
	touchSeq  touch.Sequence
	touching  bool

	labelCount int
	keys       keymap
}

// New opens doc for editing. The document is copied.
func New(doc document.Document, opts Options) *Editor {
	opts.fill()
	doc = doc.Clone()
	store := element.NewStore(doc.Elements...)
	e := &Editor{
		opts:     opts,
		store:    store,
		settings: doc.Settings,
		machine:  interaction.NewMachine(store, opts.MinSize),
		hist:     history.NewEngine(doc, opts.HistoryLimit),
		coal:     history.NewCoalescer(opts.Clock, opts.Debounce),
		vp:       geom.DefaultViewport(),
	}
	e.registerDefaults()
	return e
}

func (e *Editor) logf(format string, args ...interface{}) {
	if e.opts.Logger != nil {
		e.opts.Logger.Printf(format, args...)
	}
}

func (e *Editor) commitLocked(op history.Op) history.State {
	s := e.hist.Commit(op, e.store.Snapshot(), &e.settings)
	e.logf("commit %s (past=%d)", op, e.hist.PastLen())
	if e.opts.OnCommit != nil {
		e.opts.OnCommit(s)
	}
	return s
}

// finishLocked ends any running gesture as if the pointer was released.
func (e *Editor) finishLocked() bool {
	e.panning = false
	if op, ok := e.machine.Release(); ok {
		e.commitLocked(op)
		return true
	}
	return false
}

// Flush commits every pending debounced edit now. It reports how many
// commits were made.
func (e *Editor) Flush() int {
	return e.coal.Flush()
}

// Pending reports whether debounced edits are waiting to be committed.
func (e *Editor) Pending() bool {
	return e.coal.Len() > 0
}

// Commit replaces the live elements and settings with the given values,
// either of which may be nil to keep the current one, and records the result.
func (e *Editor) Commit(op history.Op, els []element.Element, settings *document.Settings) {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	if els != nil {
		e.store.Replace(element.CloneAll(els))
	}
	if settings != nil {
		e.settings = *settings
	}
	e.commitLocked(op)
}

// Undo steps back one history entry. The selection is left as it is.
func (e *Editor) Undo() bool {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked()
	s, ok := e.hist.Undo()
	if !ok {
		return false
	}
	e.applyLocked(s)
	e.logf("undo -> %s", s.Op())
	return true
}

// Redo re-applies the most recently undone entry.
func (e *Editor) Redo() bool {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked()
	s, ok := e.hist.Redo()
	if !ok {
		return false
	}
	e.applyLocked(s)
	e.logf("redo -> %s", s.Op())
	return true
}

func (e *Editor) applyLocked(s history.State) {
	e.store.Replace(s.Elements())
	e.settings = s.Settings()
	if e.opts.OnCommit != nil {
		e.opts.OnCommit(s)
	}
}

// CanUndo reports whether Undo would do anything.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanRedo()
}

// History lists the undo log.
func (e *Editor) History() []history.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Entries()
}

// Snapshot returns a copy of the live document after flushing pending
// edits. Export and save read through here and never feed history.
func (e *Editor) Snapshot() document.Document {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	return document.Document{Elements: e.store.Snapshot(), Settings: e.settings}
}

// Load replaces the document as one undoable step and clears the selection.
func (e *Editor) Load(doc document.Document) {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Release()
	e.panning = false
	doc = doc.Clone()
	e.store.Replace(doc.Elements)
	e.settings = doc.Settings
	e.sel.Clear()
	e.commitLocked(history.OpLoadTemplate)
}

// Settings returns the live canvas settings.
func (e *Editor) Settings() document.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetSettings changes the canvas settings as one history step.
func (e *Editor) SetSettings(s document.Settings) {
	e.coal.Flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
	e.commitLocked(history.OpUpdateCanvas)
}

// Element returns a copy of the element with id.
func (e *Editor) Element(id string) (element.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.store.Get(id)
	if el == nil {
		return nil, false
	}
	return el.Clone(), true
}

// Elements returns copies of every element in paint order.
func (e *Editor) Elements() []element.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return element.CloneAll(e.store.Ordered())
}

// Select changes the selection. See selection.Set.Select.
func (e *Editor) Select(id string, additive bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != "" && e.store.Get(id) == nil {
		return fmt.Errorf("select %s: %w", id, element.ErrNotFound)
	}
	e.sel.Select(id, additive)
	return nil
}

// Selection returns the selected ids in selection order.
func (e *Editor) Selection() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.Current()
}

// Mode reports the gesture state.
func (e *Editor) Mode() interaction.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Mode()
}

// Tool returns the active tool.
func (e *Editor) Tool() interaction.Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

// SetTool switches tools, finishing any gesture in progress.
func (e *Editor) SetTool(t interaction.Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked()
	e.tool = t
}

// Viewport returns the screen placement of the canvas.
func (e *Editor) Viewport() geom.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp
}

// SetViewport replaces the viewport, clamping its scale.
func (e *Editor) SetViewport(vp geom.Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	vp.Scale = geom.ClampScaleTo(vp.Scale, e.opts.MinZoom, e.opts.MaxZoom)
	e.vp = vp
}

// ZoomAbout zooms keeping the screen point anchor fixed.
func (e *Editor) ZoomAbout(anchor r2.Vec, scale float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vp = e.vp.ZoomAbout(anchor, scale, e.opts.MinZoom, e.opts.MaxZoom)
}
