// Core raster image: an owned RGBA8 buffer with a lazily built display handle
package core

import (
	"image"
	"image/color"
	"image/draw"
)

// RasterImage owns a straight-alpha RGBA8 pixel buffer anchored at (0,0).
// The display handle, when present, always reflects the current pixels.
type RasterImage struct {
	pixels  *image.NRGBA
	display *DisplayHandle
}

// NewRasterImage allocates a transparent image of the given size.
func NewRasterImage(width, height int) *RasterImage {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &RasterImage{pixels: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// FromImage copies any image.Image into a new RasterImage.
func FromImage(img image.Image) *RasterImage {
	return &RasterImage{pixels: toNRGBA(img)}
}

// NewUniform returns an image filled with a single colour.
func NewUniform(width, height int, c color.NRGBA) *RasterImage {
	img := NewRasterImage(width, height)
	pix := img.pixels.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
	return img
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func (r *RasterImage) Width() int  { return r.pixels.Rect.Dx() }
func (r *RasterImage) Height() int { return r.pixels.Rect.Dy() }

// Size returns the pixel dimensions.
func (r *RasterImage) Size() Size {
	return Size{W: r.Width(), H: r.Height()}
}

// RawSize is the byte length of the pixel buffer.
func (r *RasterImage) RawSize() uint64 {
	return uint64(len(r.pixels.Pix))
}

// NRGBA exposes the pixel buffer for reading. Callers must not write to it;
// use the mutating methods so the display handle is invalidated.
func (r *RasterImage) NRGBA() *image.NRGBA {
	return r.pixels
}

// At returns the colour of one pixel.
func (r *RasterImage) At(x, y int) color.NRGBA {
	return r.pixels.NRGBAAt(x, y)
}

// Set writes one pixel.
func (r *RasterImage) Set(x, y int, c color.NRGBA) {
	r.pixels.SetNRGBA(x, y, c)
	r.invalidate()
}

// Clone deep-copies the pixel buffer. The display handle is not carried over.
func (r *RasterImage) Clone() *RasterImage {
	pix := make([]uint8, len(r.pixels.Pix))
	copy(pix, r.pixels.Pix)
	return &RasterImage{pixels: &image.NRGBA{
		Pix:    pix,
		Stride: r.pixels.Stride,
		Rect:   r.pixels.Rect,
	}}
}

// Equal reports whether both images have the same size and pixels.
func (r *RasterImage) Equal(other *RasterImage) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil || r.Size() != other.Size() {
		return false
	}
	w := r.Width() * 4
	for y := 0; y < r.Height(); y++ {
		a := r.pixels.Pix[y*r.pixels.Stride : y*r.pixels.Stride+w]
		b := other.pixels.Pix[y*other.pixels.Stride : y*other.pixels.Stride+w]
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// replace swaps the pixel buffer for one produced by a filter.
func (r *RasterImage) replace(pixels *image.NRGBA) {
	r.pixels = pixels
	r.invalidate()
}

func (r *RasterImage) invalidate() {
	r.display = nil
}
