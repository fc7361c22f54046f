// Image file loading, format detection and media metadata
package io

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/core"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// MediaFile is a decoded image together with where it came from.
type MediaFile struct {
	Path   string
	Name   string
	Format string
	Bytes  uint64
	Image  *core.RasterImage
}

func (m *MediaFile) String() string {
	return fmt.Sprintf("%s:\n    format: %s\n", m.Path, m.Format)
}

// Summary is the one-line description shown next to the file name.
func (m *MediaFile) Summary() string {
	return fmt.Sprintf("%s (%s, %s, %s)", m.Name, strings.ToUpper(m.Format), m.Image.Size(), humanize.Bytes(m.Bytes))
}

// Loader reads image files from disk or from in-memory payloads.
type Loader struct {
	logger logrus.FieldLogger
}

func NewLoader(logger logrus.FieldLogger) *Loader {
	return &Loader{
		logger: logger,
	}
}

// Load reads and decodes the file at path.
func (l *Loader) Load(path string) (*MediaFile, error) {
	l.logger.WithField("path", path).Debug("LOADER: loading image")

	if !IsSupported(path) {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	file, err := l.LoadBytes(path, data)
	if err != nil {
		return nil, err
	}
	file.Path = path
	return file, nil
}

// LoadBytes decodes data that was read from source (a path or URI).
func (l *Loader) LoadBytes(source string, data []byte) (*MediaFile, error) {
	img, err := core.DecodeNamed(source, data)
	if err != nil {
		var decodeErr *core.DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Format == "" {
			decodeErr.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(source)), ".")
		}
		l.logger.WithError(err).WithField("source", source).Error("LOADER: decode failed")
		return nil, err
	}

	file := &MediaFile{
		Path:   source,
		Name:   filepath.Base(source),
		Format: detectFormat(data),
		Bytes:  uint64(len(data)),
		Image:  img,
	}

	l.logger.WithFields(logrus.Fields{
		"source": source,
		"format": file.Format,
		"size":   img.Size().String(),
		"bytes":  humanize.Bytes(file.Bytes),
	}).Info("LOADER: image loaded")
	return file, nil
}

func detectFormat(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "unknown"
	}
	return format
}

// IsSupported reports whether path has an extension the loader accepts.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range supportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// SupportedExtensions lists the accepted extensions, dot included.
func SupportedExtensions() []string {
	result := make([]string, len(supportedExtensions))
	copy(result, supportedExtensions)
	return result
}

// InfoLine describes the loaded file and both image sizes with their raw
// pixel buffer sizes.
func InfoLine(file *MediaFile, original, current *core.RasterImage) string {
	return fmt.Sprintf("%s  |  original %s (%s)  |  preview %s (%s)",
		file.Name,
		original.Size(), humanize.Bytes(original.RawSize()),
		current.Size(), humanize.Bytes(current.RawSize()))
}
