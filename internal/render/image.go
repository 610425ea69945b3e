package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedSource is returned for image sources that are neither data
// URLs nor local files.
var ErrUnsupportedSource = errors.New("render: unsupported image source")

// DecodeDataURL splits a data URL into its media type and payload.
func DecodeDataURL(src string) (string, []byte, error) {
	if !strings.HasPrefix(src, "data:") {
		return "", nil, ErrUnsupportedSource
	}
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("data url: missing payload")
	}
	meta, payload := src[len("data:"):comma], src[comma+1:]
	mediaType := meta
	b64 := false
	if i := strings.Index(meta, ";"); i >= 0 {
		mediaType = meta[:i]
		b64 = strings.HasSuffix(meta, ";base64")
	}
	if b64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("data url: %w", err)
		}
		return mediaType, b, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data url: %w", err)
	}
	return mediaType, []byte(s), nil
}

// EncodeDataURL wraps b in a base64 data URL.
func EncodeDataURL(mediaType string, b []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// loadImage decodes a data URL or a file path relative to baseDir. SVG data
// URLs are rasterised at their natural size.
func loadImage(src, baseDir string) (image.Image, error) {
	var b []byte
	switch {
	case strings.HasPrefix(src, "data:"):
		mt, payload, err := DecodeDataURL(src)
		if err != nil {
			return nil, err
		}
		if mt == "image/svg+xml" {
			return RasterizeSVG(string(payload), 512, 512)
		}
		b = payload
	case strings.Contains(src, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, src)
	default:
		p := src
		if !filepath.IsAbs(p) && baseDir != "" {
			p = filepath.Join(baseDir, p)
		}
		var err error
		if b, err = os.ReadFile(p); err != nil {
			return nil, err
		}
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// withOpacity scales the alpha of img. Opacity at or above one returns img.
func withOpacity(img image.Image, opacity float64) image.Image {
	if opacity >= 1 {
		return img
	}
	if opacity < 0 {
		opacity = 0
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(out, b, img, b.Min, mask, image.Point{}, draw.Over)
	return out
}
