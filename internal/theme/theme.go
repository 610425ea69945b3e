// Package theme holds the colour palettes used by the interactive viewer.
package theme

import (
	"image/color"
)

// Theme defines the colours of the viewer chrome around the canvas.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // Behind the canvas
	Foreground color.RGBA // Status text

	StatusBackground color.RGBA

	// Selection chrome
	Selection  color.RGBA
	HandleFill color.RGBA

	// Canvas
	Shadow       color.RGBA // Drop shadow under the canvas
	CheckerLight color.RGBA // Shown through a transparent canvas background
	CheckerDark  color.RGBA
}

// Default returns the hardcoded light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:             "Default",
		Background:       color.RGBA{220, 220, 220, 255},
		Foreground:       color.RGBA{0, 0, 0, 255},
		StatusBackground: color.RGBA{200, 200, 200, 255},
		Selection:        color.RGBA{0x21, 0x96, 0xf3, 255},
		HandleFill:       color.RGBA{255, 255, 255, 255},
		Shadow:           color.RGBA{0, 0, 0, 255},
		CheckerLight:     color.RGBA{220, 220, 220, 255},
		CheckerDark:      color.RGBA{192, 192, 192, 255},
	}
}
