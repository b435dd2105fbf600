// Package colorutil provides shared color utilities for the annotator.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Common colors used throughout the application.
var (
	Black  = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Red    = color.NRGBA{R: 239, G: 68, B: 68, A: 255}
	Yellow = color.NRGBA{R: 234, G: 179, B: 8, A: 255}
	Orange = color.NRGBA{R: 249, G: 115, B: 22, A: 255}
	Green  = color.NRGBA{R: 34, G: 197, B: 94, A: 255}
	Blue   = color.NRGBA{R: 25, G: 118, B: 210, A: 255}
	Slate  = color.NRGBA{R: 71, G: 85, B: 105, A: 255}
)

// WithAlpha returns c with its alpha replaced by a (0.0 - 1.0).
func WithAlpha(c color.NRGBA, a float64) color.NRGBA {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	c.A = uint8(math.Round(a * 255))
	return c
}

// ParseHex parses "#rrggbb" or "#rrggbbaa" (leading # optional).
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// Hex formats c as "#rrggbbaa".
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
