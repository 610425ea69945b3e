package viewer

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"golang.org/x/mobile/event/key"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/example/labelcanvas/internal/clipboard"
	"github.com/example/labelcanvas/internal/editor"
	"github.com/example/labelcanvas/internal/element"
	"github.com/example/labelcanvas/internal/render"
)

// zoomStep is the factor applied by the keyboard zoom shortcuts.
const zoomStep = 1.25

// pasteFraction limits a pasted image to this share of the canvas.
const pasteFraction = 0.5

func (v *Viewer) registerActions() {
	v.ed.Register("edit-text", editor.ShortcutList{{Code: key.CodeReturnEnter}}, v.beginTextEdit)
	v.ed.Register("fit", editor.ShortcutList{{Rune: '0', Modifiers: key.ModControl}}, func() bool {
		v.fit()
		return true
	})
	v.ed.Register("zoom-in", editor.ShortcutList{
		{Rune: '=', Modifiers: key.ModControl},
		{Rune: '+', Modifiers: key.ModControl},
	}, func() bool { return v.zoom(zoomStep) })
	v.ed.Register("zoom-out", editor.ShortcutList{{Rune: '-', Modifiers: key.ModControl}}, func() bool {
		return v.zoom(1 / zoomStep)
	})
	v.ed.Register("copy", editor.ShortcutList{{Rune: 'c', Modifiers: key.ModControl}}, func() bool {
		if err := v.copyImage(); err != nil {
			v.say("copy failed: " + err.Error())
		}
		return true
	})
	v.ed.Register("paste", editor.ShortcutList{{Rune: 'v', Modifiers: key.ModControl}}, func() bool {
		if err := v.paste(); err != nil {
			v.say("paste failed: " + err.Error())
			return true
		}
		v.say("image pasted")
		return true
	})
	if v.opts.OnSave != nil {
		v.ed.Register("save", editor.ShortcutList{{Rune: 's', Modifiers: key.ModControl}}, func() bool {
			where, err := v.opts.OnSave()
			if err != nil {
				v.say("save failed: " + err.Error())
				return true
			}
			v.say("saved " + where)
			if v.opts.Notifier != nil {
				v.opts.Notifier.Save(where)
			}
			return true
		})
	}
	if v.opts.OnExport != nil {
		v.ed.Register("export", editor.ShortcutList{{Rune: 'e', Modifiers: key.ModControl}}, func() bool {
			img, err := v.exportImage()
			if err != nil {
				v.say("export: " + err.Error())
				if img == nil {
					return true
				}
			}
			path, err := v.opts.OnExport(img)
			if err != nil {
				v.say("export failed: " + err.Error())
				return true
			}
			v.say("exported " + path)
			if v.opts.Notifier != nil {
				v.opts.Notifier.Export(path, img)
			}
			return true
		})
	}
}

func (v *Viewer) zoom(factor float64) bool {
	vp := v.ed.Viewport()
	centre := r2.Vec{X: float64(v.width) / 2, Y: float64(v.height-statusHeight) / 2}
	v.ed.ZoomAbout(centre, vp.Scale*factor)
	return true
}

// exportImage renders the document at full size without the editing grid.
// A partial image is returned alongside any render error.
func (v *Viewer) exportImage() (*image.RGBA, error) {
	return render.Render(v.ed.Snapshot(), render.Options{
		BaseWidth: v.opts.BaseWidth,
		HideGrid:  true,
		Data:      v.opts.Data,
		BaseDir:   v.opts.BaseDir,
	})
}

func (v *Viewer) copyImage() error {
	img, err := v.exportImage()
	if img == nil {
		return err
	}
	if err != nil {
		v.logf("copy: %v", err)
	}
	if err := clipboard.WriteImage(img); err != nil {
		return err
	}
	v.say("image copied to clipboard")
	if v.opts.Notifier != nil {
		v.opts.Notifier.Copy("label")
	}
	return nil
}

// paste adds the clipboard image as a media element centred on the canvas.
func (v *Viewer) paste() error {
	b, err := clipboard.ReadPNG()
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return clipboard.ErrEmpty
	}
	el, err := v.pastedMedia(b)
	if err != nil {
		return err
	}
	if err := v.ed.Add(el); err != nil {
		return err
	}
	return v.ed.Select(el.ID, false)
}

// pastedMedia builds a media element for PNG bytes, scaled down to fit
// within pasteFraction of the canvas and centred.
func (v *Viewer) pastedMedia(b []byte) (*element.Media, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("empty image")
	}
	cw, ch := render.CanvasSize(v.ed.Settings(), v.opts.BaseWidth)
	w, h := float64(cfg.Width), float64(cfg.Height)
	scale := 1.0
	if s := cw * pasteFraction / w; s < scale {
		scale = s
	}
	if s := ch * pasteFraction / h; s < scale {
		scale = s
	}
	w, h = w*scale, h*scale
	return element.NewMedia((cw-w)/2, (ch-h)/2, w, h, element.MediaRaster,
		render.EncodeDataURL("image/png", b), "clipboard.png"), nil
}
