package core

import (
	"fyne.io/fyne/v2/canvas"
	"github.com/google/uuid"
)

// DisplayHandle is the renderer-facing view of a RasterImage. It is owned by
// the image that built it and dropped whenever that image's pixels change.
type DisplayHandle struct {
	ID    uuid.UUID
	Image *canvas.Image
}

// Display returns the cached handle, building it on first use.
func (r *RasterImage) Display() *DisplayHandle {
	if r.display == nil {
		img := canvas.NewImageFromImage(r.pixels)
		img.FillMode = canvas.ImageFillContain
		img.ScaleMode = canvas.ImageScalePixels
		r.display = &DisplayHandle{ID: uuid.New(), Image: img}
	}
	return r.display
}

// HasDisplay reports whether a handle is currently cached.
func (r *RasterImage) HasDisplay() bool {
	return r.display != nil
}
