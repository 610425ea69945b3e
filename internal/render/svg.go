package render

import (
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// ErrEmptySVG is returned when there is no markup to rasterise.
var ErrEmptySVG = errors.New("render: empty svg")

// RasterizeSVG draws markup stretched to a w by h image.
func RasterizeSVG(markup string, w, h int) (*image.RGBA, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, ErrEmptySVG
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("rasterize svg: invalid size %dx%d", w, h)
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(markup), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("rasterize svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}

var (
	strokeAttr  = regexp.MustCompile(`(\sstroke\s*=\s*)(["'])([^"']*)(["'])`)
	fillAttr    = regexp.MustCompile(`(\sfill\s*=\s*)(["'])([^"']*)(["'])`)
	strokeStyle = regexp.MustCompile(`(stroke\s*:\s*)([^;"']+)`)
	fillStyle   = regexp.MustCompile(`(fill\s*:\s*)([^;"']+)`)
)

// Recolor rewrites stroke and fill colours in markup. Empty colours leave
// that paint alone and "none" values are never replaced, so transparent
// areas stay transparent.
func Recolor(markup, stroke, fill string) string {
	if stroke != "" {
		markup = replacePaint(markup, strokeAttr, strokeStyle, stroke)
	}
	if fill != "" {
		markup = replacePaint(markup, fillAttr, fillStyle, fill)
	}
	return markup
}

func replacePaint(markup string, attr, style *regexp.Regexp, col string) string {
	markup = attr.ReplaceAllStringFunc(markup, func(m string) string {
		sub := attr.FindStringSubmatch(m)
		if isNone(sub[3]) {
			return m
		}
		return sub[1] + sub[2] + col + sub[4]
	})
	return style.ReplaceAllStringFunc(markup, func(m string) string {
		sub := style.FindStringSubmatch(m)
		if isNone(sub[2]) {
			return m
		}
		return sub[1] + col
	})
}

func isNone(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "none" || v == "transparent"
}
