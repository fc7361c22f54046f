package core

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *RasterImage {
	img := NewRasterImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 90, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	src := gradientImage(32, 16)
	img, err := Decode(encodePNG(t, src.NRGBA()))
	require.NoError(t, err)
	assert.Equal(t, Size{W: 32, H: 16}, img.Size())
	assert.True(t, img.Equal(src))
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeNamed("photo.jpg", []byte("not an image"))
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "photo.jpg", decodeErr.Source)
	assert.Contains(t, err.Error(), "photo.jpg")

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestCloneIsDeepAndDropsDisplay(t *testing.T) {
	img := NewUniform(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Display()
	require.True(t, img.HasDisplay())

	clone := img.Clone()
	assert.False(t, clone.HasDisplay())
	assert.True(t, clone.Equal(img))

	clone.Set(0, 0, color.NRGBA{A: 255})
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, img.At(0, 0))
}

func TestDisplayHandleRebuiltOnceAfterMutation(t *testing.T) {
	img := NewUniform(8, 8, color.NRGBA{R: 100, G: 100, B: 100, A: 255})

	first := img.Display()
	assert.Same(t, first, img.Display())

	img.Brighten(10)
	assert.False(t, img.HasDisplay())

	second := img.Display()
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Same(t, second, img.Display())
}

func TestResizeNeverUpscales(t *testing.T) {
	img := gradientImage(100, 50)

	down := img.Resize(Size{W: 40, H: 40}, FilterNearest)
	assert.Equal(t, Size{W: 40, H: 20}, down.Size())

	same := img.Resize(Size{W: 400, H: 400}, FilterLinear)
	assert.Equal(t, img.Size(), same.Size())
	assert.NotSame(t, img, same)

	up := img.ResizeUpscale(Size{W: 400, H: 400}, FilterLinear)
	assert.Equal(t, Size{W: 400, H: 200}, up.Size())

	assert.Equal(t, Size{W: 100, H: 50}, img.Size(), "source must be untouched")
}

func TestThumbnail(t *testing.T) {
	img := gradientImage(200, 100)
	thumb := img.Thumbnail(50, 50)
	assert.Equal(t, Size{W: 50, H: 25}, thumb.Size())

	small := gradientImage(10, 10)
	copyThumb := small.Thumbnail(50, 50)
	assert.Equal(t, small.Size(), copyThumb.Size())
	assert.NotSame(t, small.NRGBA(), copyThumb.NRGBA())
}

func TestFitInto(t *testing.T) {
	assert.Equal(t, Size{W: 100, H: 50}, FitInto(Size{W: 100, H: 100}, Size{W: 200, H: 100}, false))
	assert.Equal(t, Size{W: 200, H: 100}, FitInto(Size{W: 1000, H: 1000}, Size{W: 200, H: 100}, false))
	assert.Equal(t, Size{W: 1000, H: 500}, FitInto(Size{W: 1000, H: 1000}, Size{W: 200, H: 100}, true))
	assert.Equal(t, Size{}, FitInto(Size{}, Size{W: 2, H: 2}, true))
}

func TestBrightenClamps(t *testing.T) {
	img := NewUniform(2, 2, color.NRGBA{R: 250, G: 5, B: 128, A: 200})
	img.Brighten(10)
	assert.Equal(t, color.NRGBA{R: 255, G: 15, B: 138, A: 200}, img.At(1, 1))
	img.Brighten(-20)
	assert.Equal(t, color.NRGBA{R: 235, G: 0, B: 118, A: 200}, img.At(0, 0))
}

func TestAdjustContrast(t *testing.T) {
	img := NewUniform(1, 1, color.NRGBA{R: 64, G: 128, B: 192, A: 255})
	img.AdjustContrast(0)
	assert.Equal(t, color.NRGBA{R: 64, G: 128, B: 192, A: 255}, img.At(0, 0))

	// k = 4: (64/255-0.5)*4+0.5 < 0, (192/255-0.5)*4+0.5 > 1
	img.AdjustContrast(100)
	px := img.At(0, 0)
	assert.Equal(t, uint8(0), px.R)
	assert.Equal(t, uint8(255), px.B)
}

func TestHueRotateFullTurnIsNoop(t *testing.T) {
	img := gradientImage(8, 8)
	before := img.Clone()
	img.HueRotate(360)
	assert.True(t, img.Equal(before))

	img.HueRotate(120)
	assert.False(t, img.Equal(before))
}

func TestBlurKeepsUniformImage(t *testing.T) {
	img := NewUniform(16, 16, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
	img.Blur(2)
	px := img.At(8, 8)
	assert.InDelta(t, 40, int(px.R), 1)
	assert.InDelta(t, 80, int(px.G), 1)
	assert.InDelta(t, 120, int(px.B), 1)
}

func TestClampChannel(t *testing.T) {
	assert.Equal(t, uint8(0), ClampChannel(-3))
	assert.Equal(t, uint8(255), ClampChannel(300))
	assert.Equal(t, uint8(120), ClampChannel(119.88))
	assert.Equal(t, uint8(64), ClampChannel(64.25))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" Lanczos ")
	require.NoError(t, err)
	assert.Equal(t, FilterLanczos, f)
	assert.Equal(t, "lanczos", f.String())

	_, err = ParseFilter("bogus")
	assert.Error(t, err)
}
