// Resampling filters and resize operations
package core

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/gift"
	"github.com/nfnt/resize"
)

// FilterKind selects the resampling kernel used when resizing.
type FilterKind int

const (
	FilterNearest FilterKind = iota
	FilterBox
	FilterLinear
	FilterCubic
	FilterLanczos
)

var filterNames = map[FilterKind]string{
	FilterNearest: "nearest",
	FilterBox:     "box",
	FilterLinear:  "linear",
	FilterCubic:   "cubic",
	FilterLanczos: "lanczos",
}

func (f FilterKind) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("filter(%d)", int(f))
}

// ParseFilter maps a config name to a FilterKind.
func ParseFilter(name string) (FilterKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range filterNames {
		if n == name {
			return kind, nil
		}
	}
	return FilterNearest, fmt.Errorf("unknown resize filter: %q", name)
}

func (f FilterKind) resampling() gift.Resampling {
	switch f {
	case FilterBox:
		return gift.BoxResampling
	case FilterLinear:
		return gift.LinearResampling
	case FilterCubic:
		return gift.CubicResampling
	case FilterLanczos:
		return gift.LanczosResampling
	default:
		return gift.NearestNeighborResampling
	}
}

// Resize returns a new image fitted into target with the aspect ratio kept.
// It never enlarges beyond the current size; see ResizeUpscale.
func (r *RasterImage) Resize(target Size, filter FilterKind) *RasterImage {
	return r.resizeTo(FitInto(target, r.Size(), false), filter)
}

// ResizeUpscale is Resize that is allowed to enlarge the image.
func (r *RasterImage) ResizeUpscale(target Size, filter FilterKind) *RasterImage {
	return r.resizeTo(FitInto(target, r.Size(), true), filter)
}

func (r *RasterImage) resizeTo(size Size, filter FilterKind) *RasterImage {
	if size.Empty() || size == r.Size() {
		return r.Clone()
	}
	return &RasterImage{pixels: r.filtered(gift.Resize(size.W, size.H, filter.resampling()))}
}

// Thumbnail downscales into a maxWidth x maxHeight box keeping the aspect
// ratio. Images already inside the box are copied unchanged.
func (r *RasterImage) Thumbnail(maxWidth, maxHeight int) *RasterImage {
	if maxWidth <= 0 || maxHeight <= 0 {
		return r.Clone()
	}
	thumb := resize.Thumbnail(uint(maxWidth), uint(maxHeight), r.pixels, resize.Bilinear)
	return FromImage(thumb)
}

func (r *RasterImage) filtered(filters ...gift.Filter) *image.NRGBA {
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(r.pixels.Bounds()))
	g.Draw(dst, r.pixels)
	return dst
}
