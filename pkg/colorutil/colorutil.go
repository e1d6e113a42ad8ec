// Package colorutil provides shared color utilities for the annotation editor.
package colorutil

import (
	"fmt"
	"image/color"
)

// Common colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Fallback is used for annotations whose class no longer exists.
var Fallback = color.RGBA{R: 160, G: 160, B: 160, A: 255}

// Palette provides highly saturated default colors for project classes.
var Palette = []color.RGBA{
	{255, 0, 0, 255},   // Red
	{0, 255, 0, 255},   // Green
	{0, 0, 255, 255},   // Blue
	{255, 255, 0, 255}, // Yellow
	{255, 0, 255, 255}, // Magenta
	{0, 255, 255, 255}, // Cyan
	{255, 128, 0, 255}, // Orange
	{128, 0, 255, 255}, // Purple
	{0, 255, 128, 255}, // Spring Green
	{255, 0, 128, 255}, // Rose
	{128, 255, 0, 255}, // Lime
	{0, 128, 255, 255}, // Sky Blue
}

// NextColor returns the next palette color for the nth class.
func NextColor(n int) color.RGBA {
	return Palette[n%len(Palette)]
}

// ParseHex parses a "#RRGGBB" string. Invalid input yields the fallback
// color and ok=false; class colors come from user data and must not crash
// the renderer.
func ParseHex(s string) (color.RGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return Fallback, false
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return Fallback, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}

// FormatHex renders a color as a "#RRGGBB" string.
func FormatHex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// WithAlpha returns the color with the given alpha channel.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: a}
}
