package modifiers

import "image-modifier-studio/internal/core"

const (
	// MaxThumbnailSize bounds the source used to render previews.
	MaxThumbnailSize = 100

	previewLow  = 0.2
	previewHigh = 0.8
)

// Previews are two small renders of a modifier at 20% and 80% of its range,
// shown next to its slider.
type Previews struct {
	Source *core.RasterImage
	Min    *core.RasterImage
	Max    *core.RasterImage
}

// WithPreviewThumbnails builds the default modifier of kind together with its
// previews rendered against source.
func WithPreviewThumbnails(kind Kind, source *core.RasterImage) Modifier {
	m := New(kind)
	m.previews = renderPreviews(m, source)
	return m
}

// renderPreviews works on copies of m and leaves the caller's value alone.
func renderPreviews(m Modifier, source *core.RasterImage) *Previews {
	if source == nil {
		return nil
	}
	if source.Width() > MaxThumbnailSize || source.Height() > MaxThumbnailSize {
		source = source.Thumbnail(MaxThumbnailSize, MaxThumbnailSize)
	}

	low, high := m, m
	low.param.Enabled, high.param.Enabled = true, true
	low.param.Set(m.param.AtFraction(previewLow))
	high.param.Set(m.param.AtFraction(previewHigh))

	return &Previews{
		Source: source,
		Min:    low.Apply(source),
		Max:    high.Apply(source),
	}
}

func (m *Modifier) refreshPreviews() {
	if m.previews == nil {
		return
	}
	m.previews = renderPreviews(*m, m.previews.Source)
}

// MinThumbnail is the 20% preview, nil when none was built.
func (m *Modifier) MinThumbnail() *core.RasterImage {
	if m.previews == nil {
		return nil
	}
	return m.previews.Min
}

// MaxThumbnail is the 80% preview, nil when none was built.
func (m *Modifier) MaxThumbnail() *core.RasterImage {
	if m.previews == nil {
		return nil
	}
	return m.previews.Max
}

// DefaultKinds is the editor's stock chain.
var DefaultKinds = []Kind{
	KindExposure,
	KindGamma,
	KindBrightnessMultiplyLuma,
	KindBrightnessMultiply,
	KindContrast,
	KindBlur,
	KindTint,
	KindSepia,
	KindColorGrading,
}

// DefaultChain builds DefaultKinds with previews from one shared thumbnail.
func DefaultChain(thumbnail *core.RasterImage) []Modifier {
	chain := make([]Modifier, 0, len(DefaultKinds))
	for _, k := range DefaultKinds {
		chain = append(chain, WithPreviewThumbnails(k, thumbnail))
	}
	return chain
}

// ChainFromNames builds a chain from config names, e.g. "gamma".
func ChainFromNames(names []string, thumbnail *core.RasterImage) ([]Modifier, error) {
	chain := make([]Modifier, 0, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, WithPreviewThumbnails(k, thumbnail))
	}
	return chain, nil
}
