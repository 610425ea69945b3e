// Package viewer is the interactive window around an editor: it paints the
// rendered canvas with selection chrome and feeds pointer, touch and key
// events back to the editor.
package viewer

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/labelcanvas/internal/editor"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/notify"
	"github.com/example/labelcanvas/internal/render"
	"github.com/example/labelcanvas/internal/theme"
)

// messageDuration is how long a status message stays up.
const messageDuration = 2 * time.Second

// frameDropThreshold caps how many in-flight frames a newer paint may cancel
// before one is allowed to finish.
const frameDropThreshold = 3

// Options configures a Viewer.
type Options struct {
	Title string
	Theme *theme.Theme
	// BaseWidth is the canvas width in canvas units.
	BaseWidth float64
	// HandleSize is the on-screen size of resize handles in pixels.
	HandleSize float64
	Data       render.Data
	BaseDir    string
	// OnSave persists the document and returns a description of where it
	// went. Nil disables the save shortcut.
	OnSave func() (string, error)
	// OnExport writes a rendered image and returns its path. Nil disables
	// the export shortcut.
	OnExport func(img *image.RGBA) (string, error)
	Notifier *notify.Notifier
	Logger   *log.Logger
}

// Viewer owns the window state. Everything except NotifyChanged must be
// called from the event loop goroutine.
type Viewer struct {
	ed   *editor.Editor
	opts Options

	updateCh chan struct{}

	width, height int
	fitted        bool

	message      string
	messageUntil time.Time

	// editing is the id of the text element receiving typed characters.
	editing string
	draft   string

	shadow shadowCache
}

// New creates a viewer for ed and registers its window actions.
func New(ed *editor.Editor, opts Options) *Viewer {
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.BaseWidth <= 0 {
		opts.BaseWidth = render.DefaultBaseWidth
	}
	if opts.Title == "" {
		opts.Title = "LabelCanvas"
	}
	v := &Viewer{ed: ed, opts: opts, updateCh: make(chan struct{}, 1)}
	v.registerActions()
	return v
}

func (v *Viewer) logf(format string, args ...interface{}) {
	if v.opts.Logger != nil {
		v.opts.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (v *Viewer) say(msg string) {
	v.message = msg
	v.messageUntil = time.Now().Add(messageDuration)
	v.logf("%s", msg)
}

// NotifyChanged asks the window to repaint. It is safe to call from any
// goroutine, for example after a scripted command changed the document.
func (v *Viewer) NotifyChanged() {
	select {
	case v.updateCh <- struct{}{}:
	default:
	}
}

// Run executes the UI loop using shiny's driver.
func (v *Viewer) Run() { driver.Main(v.Main) }

// Main runs the window until it is closed.
func (v *Viewer) Main(s screen.Screen) {
	doc := v.ed.Snapshot()
	cw, ch := render.CanvasSize(doc.Settings, v.opts.BaseWidth)
	v.width = int(cw) + 2*canvasMargin
	v.height = int(ch) + 2*canvasMargin + statusHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: v.width, Height: v.height, Title: v.opts.Title})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-v.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan frame, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			v.drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff && v.ed.Leave() {
				w.Send(paint.Event{})
			}
		case size.Event:
			v.width, v.height = e.WidthPx, e.HeightPx
			if !v.fitted {
				v.fit()
			}
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := v.snapshot()
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case mouse.Event:
			if v.handleMouse(e) {
				w.Send(paint.Event{})
			}
		case touch.Event:
			if v.ed.Touch(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if v.handleKey(e) {
				w.Send(paint.Event{})
			}
		case error:
			v.logf("window: %v", e)
		}
	}
}

// fit zooms the canvas into the window and centres it.
func (v *Viewer) fit() {
	settings := v.ed.Settings()
	cw, ch := render.CanvasSize(settings, v.opts.BaseWidth)
	v.ed.SetViewport(fitViewport(cw, ch, v.width, v.height-statusHeight))
	v.fitted = true
}

func (v *Viewer) handleMouse(e mouse.Event) bool {
	if v.message != "" && time.Now().Before(v.messageUntil) && e.Direction == mouse.DirPress {
		v.messageUntil = time.Time{}
	}
	if int(e.Y) >= v.height-statusHeight && e.Direction != mouse.DirRelease {
		// The status bar is not part of the canvas; treat it as leaving.
		return v.ed.Leave()
	}
	if e.Direction == mouse.DirPress && v.editing != "" {
		v.endTextEdit(true)
	}
	return v.ed.Apply(e)
}

func (v *Viewer) handleKey(e key.Event) bool {
	if e.Direction != key.DirPress && e.Direction != key.DirNone {
		return false
	}
	if v.editing == "" {
		return v.ed.Key(e)
	}
	switch e.Code {
	case key.CodeReturnEnter:
		if e.Modifiers&key.ModShift == 0 {
			v.endTextEdit(true)
			return true
		}
		v.draft += "\n"
	case key.CodeEscape:
		v.endTextEdit(false)
		return true
	case key.CodeDeleteBackspace:
		if len(v.draft) == 0 {
			return false
		}
		r := []rune(v.draft)
		v.draft = string(r[:len(r)-1])
	default:
		if e.Rune <= 0 || e.Modifiers&(key.ModControl|key.ModMeta) != 0 {
			return v.ed.Key(e)
		}
		v.draft += string(e.Rune)
	}
	if err := v.ed.SetText(v.editing, v.draft); err != nil {
		v.logf("text: %v", err)
		v.editing = ""
	}
	return true
}

// beginTextEdit starts typing into the single selected text element.
func (v *Viewer) beginTextEdit() bool {
	sel := v.ed.Selection()
	if len(sel) != 1 {
		return false
	}
	el, ok := v.ed.Element(sel[0])
	if !ok {
		return false
	}
	t, ok := el.(*element.Text)
	if !ok {
		return false
	}
	v.editing = t.ID
	v.draft = t.Content
	v.say("editing text: enter to finish, esc to stop")
	return true
}

// endTextEdit leaves text input. Typed characters are already in the
// document; commit flushes the debounced edit into history immediately.
func (v *Viewer) endTextEdit(commit bool) {
	if commit {
		v.ed.Flush()
	}
	v.editing = ""
	v.draft = ""
}
