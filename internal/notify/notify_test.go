package notify

import (
	"image"
	"os"
	"strings"
	"testing"

	"github.com/example/labelcanvas/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
	iconExisted bool
}

func recorder(out *[]sent) Sender {
	return func(title, body string, opts platform.Options) error {
		s := sent{title: title, body: body, opts: opts}
		if opts.IconPath != "" {
			_, err := os.Stat(opts.IconPath)
			s.iconExisted = err == nil
		}
		*out = append(*out, s)
		return nil
	}
}

func TestDisabledEventsAreSilent(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences()).WithSender(recorder(&got))
	n.Export("a.png", nil)
	n.Save("a.json")
	n.Copy("")
	if len(got) != 0 {
		t.Fatalf("sent %+v", got)
	}
	var nilNotifier *Notifier
	nilNotifier.Copy("x")
}

func TestExportAttachesPreview(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences()).WithSender(recorder(&got))
	n.Enable(EventExport, true)
	n.Export("out.png", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if len(got) != 1 {
		t.Fatalf("sent %+v", got)
	}
	if !got[0].iconExisted {
		t.Fatal("preview icon missing while notifying")
	}
	if _, err := os.Stat(got[0].opts.IconPath); !os.IsNotExist(err) {
		t.Fatal("preview not cleaned up")
	}
	if !strings.HasPrefix(got[0].body, "Exported ") || !strings.HasSuffix(got[0].body, "out.png") {
		t.Fatalf("body %q", got[0].body)
	}
}

func TestPreferencesFromEnv(t *testing.T) {
	env := map[string]string{
		"LABELCANVAS_NOTIFY_TITLE":     "Labels",
		"LABELCANVAS_NOTIFY_COPY_TEXT": "On the clipboard: %s",
	}
	var got []sent
	n := New(LoadPreferences(func(k string) string { return env[k] })).WithSender(recorder(&got))
	n.Enable(EventCopy, true)
	n.Copy("")
	if len(got) != 1 || got[0].title != "Labels" || got[0].body != "On the clipboard: label" {
		t.Fatalf("sent %+v", got)
	}
}

func TestThumbnailKeepsAspect(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	if thumbnail(small) != image.Image(small) {
		t.Fatal("small images should be used as is")
	}
	got := thumbnail(image.NewRGBA(image.Rect(0, 0, 1600, 400))).Bounds().Size()
	if got != image.Pt(256, 64) {
		t.Fatalf("thumbnail size %v", got)
	}
	got = thumbnail(image.NewRGBA(image.Rect(0, 0, 300, 1200))).Bounds().Size()
	if got != image.Pt(64, 256) {
		t.Fatalf("thumbnail size %v", got)
	}
}
