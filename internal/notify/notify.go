// Package notify turns editor events into desktop notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/example/labelcanvas/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventExport fires when a rendered label is written out.
	EventExport Event = "export"
	// EventSave fires when a template document is persisted.
	EventSave Event = "save"
	// EventCopy fires when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// Events lists every notification trigger.
var Events = []Event{EventExport, EventSave, EventCopy}

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "LabelCanvas",
		Events: map[Event]EventPreference{
			EventExport: {Template: "Exported %s"},
			EventSave:   {Template: "Saved template %s"},
			EventCopy:   {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences reads LABELCANVAS_NOTIFY_* overrides through getenv.
func LoadPreferences(getenv func(string) string) Preferences {
	if getenv == nil {
		getenv = os.Getenv
	}
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("LABELCANVAS_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, event := range Events {
		key := "LABELCANVAS_NOTIFY_" + strings.ToUpper(string(event)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			p := prefs.Events[event]
			p.Template = v
			prefs.Events[event] = p
		}
	}
	return prefs
}

// Sender delivers a notification. platform.Notify is the default.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    Sender
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify}
}

// WithSender replaces the delivery function, mainly for tests.
func (n *Notifier) WithSender(s Sender) *Notifier {
	n.send = s
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Export announces a written export, with a thumbnail when img is set.
func (n *Notifier) Export(path string, img image.Image) {
	if !n.enabledFor(EventExport) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		if preview, cleanup, err := createPreview(img); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = preview
		}
	}
	n.dispatch(EventExport, absolute(path), opts)
}

// Save announces a saved template.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	n.dispatch(EventSave, absolute(path), platform.Options{})
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "label"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func absolute(path string) string {
	detail := strings.TrimSpace(path)
	if abs, err := filepath.Abs(detail); err == nil && detail != "" {
		return abs
	}
	return detail
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil || n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.template(event))
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" || n.send == nil {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func (n *Notifier) template(event Event) string {
	if pref, ok := n.prefs.Events[event]; ok {
		return pref.Template
	}
	return ""
}

// previewSize bounds the longer side of the thumbnail shown with an export.
const previewSize = 256

func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= previewSize && h <= previewSize {
		return img
	}
	if w >= h {
		w, h = previewSize, max(1, h*previewSize/w)
	} else {
		w, h = max(1, w*previewSize/h), previewSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// createPreview writes a thumbnail of img to a temp file for the
// notification icon. cleanup removes it.
func createPreview(img image.Image) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "labelcanvas-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path = f.Name()
	cleanup = func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	err = png.Encode(f, thumbnail(img))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
