// Preview viewport: shows the current render and reports its pixel size
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"

	"image-modifier-studio/internal/core"
)

// sizeReportingLayout stretches every object over the available space and
// reports size changes to onResize.
type sizeReportingLayout struct {
	last     fyne.Size
	onResize func(fyne.Size)
}

func (l *sizeReportingLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if size != l.last {
		l.last = size
		if l.onResize != nil {
			l.onResize(size)
		}
	}
}

func (l *sizeReportingLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(64, 64)
}

// Viewport displays a RasterImage through its cached display handle.
type Viewport struct {
	layout    *sizeReportingLayout
	container *fyne.Container
	shown     *core.RasterImage
}

// NewViewport calls onResize on the UI goroutine, outside of layout, with the
// viewport size in device pixels.
func NewViewport(onResize func(core.Size)) *Viewport {
	v := &Viewport{}
	v.layout = &sizeReportingLayout{}
	placeholder := canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
	v.container = container.New(v.layout, placeholder)

	v.layout.onResize = func(size fyne.Size) {
		px := v.pixelSize(size)
		fyne.Do(func() { onResize(px) })
	}
	return v
}

func (v *Viewport) pixelSize(size fyne.Size) core.Size {
	scale := float32(1)
	if c := fyne.CurrentApp().Driver().CanvasForObject(v.container); c != nil {
		scale = c.Scale()
	}
	return core.NewSize(int(size.Width*scale), int(size.Height*scale))
}

// PixelSize is the last laid out size in device pixels.
func (v *Viewport) PixelSize() core.Size {
	return v.pixelSize(v.layout.last)
}

// Show swaps in img. Showing the image already on screen is a no-op.
func (v *Viewport) Show(img *core.RasterImage) {
	if img == nil || img == v.shown {
		return
	}
	v.shown = img
	v.container.Objects = []fyne.CanvasObject{img.Display().Image}
	v.container.Refresh()
}

func (v *Viewport) GetContainer() fyne.CanvasObject {
	return v.container
}
