// Package clipboard moves rendered labels and template documents through the
// system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/png"
)

// ErrEmpty reports that the clipboard holds nothing in the requested format.
var ErrEmpty = errors.New("clipboard: no data in requested format")

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
