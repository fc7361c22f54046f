package io

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-modifier-studio/internal/core"
)

func testLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func sample() *core.RasterImage {
	img := core.NewUniform(6, 4, color.NRGBA{R: 200, G: 40, B: 10, A: 255})
	img.Set(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	return img
}

func TestSaveAndLoadLossless(t *testing.T) {
	dir := t.TempDir()
	saver := NewSaver(testLogger())
	loader := NewLoader(testLogger())

	for _, name := range []string{"out.png", "out.bmp", "out.tiff"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, saver.Save(sample(), path))

			file, err := loader.Load(path)
			require.NoError(t, err)
			assert.Equal(t, path, file.Path)
			assert.Equal(t, name, file.Name)
			assert.True(t, file.Image.Equal(sample()))
			assert.NotZero(t, file.Bytes)
		})
	}
}

func TestSaveJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, NewSaver(testLogger()).Save(sample(), path))

	file, err := NewLoader(testLogger()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", file.Format)
	assert.Equal(t, core.NewSize(6, 4), file.Image.Size())
}

func TestJPEGQualityOption(t *testing.T) {
	noisy := core.NewRasterImage(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			noisy.Set(x, y, color.NRGBA{R: uint8(x * 37 % 256), G: uint8(y * 53 % 256), B: uint8((x ^ y) * 8), A: 255})
		}
	}

	var low, high bytes.Buffer
	require.NoError(t, NewSaver(testLogger(), WithJPEGQuality(10)).Encode(&low, noisy, "jpeg"))
	require.NoError(t, NewSaver(testLogger(), WithJPEGQuality(100)).Encode(&high, noisy, "jpeg"))
	assert.Less(t, low.Len(), high.Len())

	assert.Equal(t, DefaultJPEGQuality, NewSaver(testLogger(), WithJPEGQuality(0)).jpegQuality)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := NewLoader(testLogger()).Load(path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadBytesCorrupt(t *testing.T) {
	_, err := NewLoader(testLogger()).LoadBytes("broken.png", []byte("not a png at all"))
	require.Error(t, err)

	var decodeErr *core.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "broken.png", decodeErr.Source)
	assert.Equal(t, "png", decodeErr.Format)
}

func TestEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewSaver(testLogger()).Encode(&buf, sample(), "gif")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = FormatForPath("x.webp")
	assert.Error(t, err)
}

func TestInfoLine(t *testing.T) {
	img := core.NewRasterImage(1000, 500)
	file := &MediaFile{Name: "photo.png", Format: "png", Bytes: 1_500_000, Image: img}

	line := InfoLine(file, img, core.NewRasterImage(100, 50))
	assert.Equal(t, "photo.png  |  original 1000x500 (2.0 MB)  |  preview 100x50 (20 kB)", line)
	assert.Equal(t, "photo.png (PNG, 1000x500, 1.5 MB)", file.Summary())
	assert.True(t, IsSupported("A.JPEG"))
	assert.False(t, IsSupported("a.psd"))
}
