package core

import (
	"fmt"
	"math"
)

// Size is a width/height pair in pixels.
type Size struct {
	W int
	H int
}

func NewSize(w, h int) Size { return Size{W: w, H: h} }

func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Pixels is W*H, zero for empty sizes.
func (s Size) Pixels() int {
	if s.Empty() {
		return 0
	}
	return s.W * s.H
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// FitInto scales inner so it fits inside outer keeping its aspect ratio.
// Without allowUpscale the result is never larger than inner.
func FitInto(outer, inner Size, allowUpscale bool) Size {
	if inner.Empty() || outer.Empty() {
		return Size{}
	}
	scale := math.Min(float64(outer.W)/float64(inner.W), float64(outer.H)/float64(inner.H))
	if !allowUpscale {
		scale = math.Min(scale, 1)
	}
	w := int(math.Round(float64(inner.W) * scale))
	h := int(math.Round(float64(inner.H) * scale))
	return Size{W: max(w, 1), H: max(h, 1)}
}
