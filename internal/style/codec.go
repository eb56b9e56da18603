// Package style converts fills, strokes and hex colors between the host's
// native paint types and the stored snapshot form.
package style

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
)

type RGB struct {
	R, G, B uint8
}

var hexPattern = regexp.MustCompile(`(?i)^#?([a-f\d]{2})([a-f\d]{2})([a-f\d]{2})$`)

// ParseHex parses #RRGGBB (the # is optional, case-insensitive). ok is false
// when s does not match and the result is the zero color.
func ParseHex(s string) (rgb RGB, ok bool) {
	m := hexPattern.FindStringSubmatch(s)
	if m == nil {
		return RGB{}, false
	}
	ch := func(h string) uint8 {
		v, _ := strconv.ParseUint(h, 16, 8)
		return uint8(v)
	}
	return RGB{R: ch(m[1]), G: ch(m[2]), B: ch(m[3])}, true
}

// HexToRGB is the lenient form of ParseHex: malformed input yields black.
func HexToRGB(s string) RGB {
	rgb, _ := ParseHex(s)
	return rgb
}

// Hex formats c as lowercase #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// FromColor rounds the host channels of c to bytes; alpha is dropped.
func FromColor(c document.Color) RGB {
	ch := func(v float64) uint8 {
		if v != v || v <= 0 {
			return 0
		}
		if v >= 255 {
			return 255
		}
		return uint8(math.Round(v))
	}
	return RGB{R: ch(c.R), G: ch(c.G), B: ch(c.B)}
}

func (c RGB) RGBA(alpha float64) *snapshot.RGBA {
	return &snapshot.RGBA{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: alpha}
}

// HexFill builds a stored fill from a hex color.
func HexFill(hex string, alpha float64) *snapshot.Fill {
	return &snapshot.Fill{Color: HexToRGB(hex).RGBA(alpha)}
}

func EncodeFill(f *document.ColorFill) *snapshot.Fill {
	if f == nil {
		return nil
	}
	return &snapshot.Fill{Color: encodeColor(f.Color)}
}

// DecodeFill returns nil when the fill has no color or the host rejects it.
func DecodeFill(f *snapshot.Fill) *document.ColorFill {
	if f == nil {
		return nil
	}
	c, ok := decodeColor(f.Color)
	if !ok {
		return nil
	}
	return &document.ColorFill{Color: c}
}

func EncodeStroke(s *document.Stroke) *snapshot.Stroke {
	if s == nil {
		return nil
	}
	return &snapshot.Stroke{Color: encodeColor(s.Color), Width: strokeWidth(s.Width)}
}

func DecodeStroke(s *snapshot.Stroke) *document.Stroke {
	if s == nil {
		return nil
	}
	c, ok := decodeColor(s.Color)
	if !ok {
		return nil
	}
	return &document.Stroke{Color: c, Width: strokeWidth(s.Width)}
}

func encodeColor(c document.Color) *snapshot.RGBA {
	return &snapshot.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func decodeColor(c *snapshot.RGBA) (document.Color, bool) {
	if c == nil {
		return document.Color{}, false
	}
	out, err := document.MakeColor(c.R, c.G, c.B, c.A)
	if err != nil {
		return document.Color{}, false
	}
	return out, true
}

func strokeWidth(w float64) float64 {
	if w <= 0 || w != w {
		return snapshot.DefaultStrokeWidth
	}
	return w
}
