package core

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxDimension bounds decoded images to keep memory in check.
const MaxDimension = 16384

var (
	ErrEmptyInput    = errors.New("empty input")
	ErrImageTooLarge = errors.New("image too large")
)

// DecodeError reports a byte stream that could not be turned into an image.
type DecodeError struct {
	Source string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	source := e.Source
	if source == "" {
		source = "<memory>"
	}
	if e.Format != "" {
		return fmt.Sprintf("decode %s (%s): %v", source, e.Format, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses an encoded image (PNG, JPEG, GIF, BMP, TIFF, WebP).
func Decode(data []byte) (*RasterImage, error) {
	return DecodeNamed("", data)
}

// DecodeNamed is Decode with the source identity attached to any error.
func DecodeNamed(source string, data []byte) (*RasterImage, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Source: source, Err: ErrEmptyInput}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Source: source, Err: errors.Wrap(err, "image decoding failed")}
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Source: source, Format: format,
			Err: errors.Errorf("invalid dimensions: %dx%d", b.Dx(), b.Dy())}
	}
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		return nil, &DecodeError{Source: source, Format: format,
			Err: errors.Wrapf(ErrImageTooLarge, "%dx%d (max: %d)", b.Dx(), b.Dy(), MaxDimension)}
	}

	return FromImage(img), nil
}
