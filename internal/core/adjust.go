// In-place colour operations used by modifiers working on their own copy
package core

import (
	"github.com/chewxy/math32"
	"github.com/disintegration/gift"
)

// ClampChannel clamps v to [0,255] and rounds half up.
func ClampChannel(v float32) uint8 {
	switch {
	case v != v:
		return 0
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math32.Floor(v + 0.5))
}

// MapRGB rewrites the colour channels of every pixel. Alpha is kept.
func (r *RasterImage) MapRGB(fn func(red, green, blue float32) (float32, float32, float32)) {
	p := r.pixels
	w := p.Rect.Dx() * 4
	for y := 0; y < p.Rect.Dy(); y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+w]
		for i := 0; i < len(row); i += 4 {
			nr, ng, nb := fn(float32(row[i]), float32(row[i+1]), float32(row[i+2]))
			row[i+0] = ClampChannel(nr)
			row[i+1] = ClampChannel(ng)
			row[i+2] = ClampChannel(nb)
		}
	}
	r.invalidate()
}

// Brighten adds delta to every colour channel.
func (r *RasterImage) Brighten(delta int) {
	if delta == 0 {
		return
	}
	d := float32(delta)
	r.MapRGB(func(red, green, blue float32) (float32, float32, float32) {
		return red + d, green + d, blue + d
	})
}

// AdjustContrast stretches channels around mid-gray. Positive values increase
// contrast, negative values flatten it; 0 is a no-op.
func (r *RasterImage) AdjustContrast(contrast float32) {
	if contrast == 0 {
		return
	}
	k := (100 + contrast) / 100
	k *= k
	stretch := func(v float32) float32 {
		return ((v/255-0.5)*k + 0.5) * 255
	}
	r.MapRGB(func(red, green, blue float32) (float32, float32, float32) {
		return stretch(red), stretch(green), stretch(blue)
	})
}

// HueRotate shifts the hue by degrees. Any multiple of 360 is a no-op.
func (r *RasterImage) HueRotate(degrees float32) {
	shift := math32.Mod(degrees, 360)
	if shift > 180 {
		shift -= 360
	} else if shift <= -180 {
		shift += 360
	}
	if shift == 0 {
		return
	}
	r.replace(r.filtered(gift.Hue(shift)))
}

// Blur applies a Gaussian blur with the given sigma in pixels.
func (r *RasterImage) Blur(sigma float32) {
	if sigma <= 0 {
		return
	}
	r.replace(r.filtered(gift.GaussianBlur(sigma)))
}
