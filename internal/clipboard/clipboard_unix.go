//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce     sync.Once
	initErr      error
	errNoDisplay = errors.New("clipboard needs DISPLAY or WAYLAND_DISPLAY")
)

// ensureInit starts the clipboard once. Without a display the library
// would abort the process, so that case fails early instead.
func ensureInit() error {
	initOnce.Do(func() {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

func write(f clipboard.Format, data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	clipboard.Write(f, data)
	return nil
}

func read(f clipboard.Format) ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data := clipboard.Read(f)
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// WriteImage publishes img to the clipboard as PNG.
func WriteImage(img image.Image) error {
	data, err := encodePNG(img)
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return write(clipboard.FmtImage, data)
}

// ReadPNG returns the PNG bytes on the clipboard.
func ReadPNG() ([]byte, error) {
	return read(clipboard.FmtImage)
}

// WriteText puts UTF-8 text, such as a template document, on the clipboard.
func WriteText(text string) error {
	return write(clipboard.FmtText, []byte(text))
}

// ReadText returns the UTF-8 text on the clipboard.
func ReadText() (string, error) {
	data, err := read(clipboard.FmtText)
	return string(data), err
}
