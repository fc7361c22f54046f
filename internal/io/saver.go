// Image encoding by file extension
package io

import (
	"fmt"
	stdio "io"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"image-modifier-studio/internal/core"
)

// Saver writes images in the format named by the destination extension.
type Saver struct {
	logger      logrus.FieldLogger
	jpegQuality int
}

// DefaultJPEGQuality is used unless WithJPEGQuality says otherwise.
const DefaultJPEGQuality = 92

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithJPEGQuality sets the JPEG encoder quality. Values outside 1..100 are
// ignored.
func WithJPEGQuality(quality int) SaverOption {
	return func(s *Saver) {
		if quality >= 1 && quality <= 100 {
			s.jpegQuality = quality
		}
	}
}

func NewSaver(logger logrus.FieldLogger, opts ...SaverOption) *Saver {
	s := &Saver{
		logger:      logger,
		jpegQuality: DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FormatForPath maps an extension to an encoder name.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".bmp":
		return "bmp", nil
	case ".tif", ".tiff":
		return "tiff", nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "cannot encode %s", path)
	}
}

// Save encodes img to path.
func (s *Saver) Save(img *core.RasterImage, path string) error {
	s.logger.WithField("path", path).Debug("SAVER: saving image")

	if img == nil || img.Size().Empty() {
		return fmt.Errorf("cannot save empty image")
	}
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := s.Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if info, err := os.Stat(path); err == nil {
		s.logger.WithFields(logrus.Fields{
			"path":  path,
			"size":  img.Size().String(),
			"bytes": humanize.Bytes(uint64(info.Size())),
		}).Info("SAVER: image saved")
	}
	return nil
}

// Encode writes img to w using the named format.
func (s *Saver) Encode(w stdio.Writer, img *core.RasterImage, format string) error {
	var err error
	switch format {
	case "png":
		err = png.Encode(w, img.NRGBA())
	case "jpeg":
		err = jpeg.Encode(w, img.NRGBA(), &jpeg.Options{Quality: s.jpegQuality})
	case "bmp":
		err = bmp.Encode(w, img.NRGBA())
	case "tiff":
		err = tiff.Encode(w, img.NRGBA(), &tiff.Options{Compression: tiff.Deflate})
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}
