// Modifier: one parametrised pixel-space transform of the editing chain
package modifiers

import (
	"fmt"
	"strings"

	"image-modifier-studio/internal/core"
)

// Kind tags the concrete transform a Modifier performs.
type Kind int

const (
	KindExposure Kind = iota
	KindContrast
	KindGamma
	KindBlur
	KindTint
	KindSepia
	KindBrightnessMultiply
	KindBrightnessMultiplyLuma
	KindColorGrading
)

type descriptor struct {
	name    string
	title   string
	units   string
	min     float32
	max     float32
	neutral float32
}

var descriptors = map[Kind]descriptor{
	KindExposure:               {name: "exposure", title: "Exposure", units: "%", min: -100, max: 100},
	KindContrast:               {name: "contrast", title: "Contrast", units: "%", min: -100, max: 100},
	KindGamma:                  {name: "gamma", title: "Gamma", min: -1, max: 1},
	KindBlur:                   {name: "blur", title: "Blur", units: "%", min: 0, max: 100},
	KindTint:                   {name: "tint", title: "Tint", units: "°", min: 0, max: 360},
	KindSepia:                  {name: "sepia", title: "Sepia", units: "%", min: 0, max: 100},
	KindBrightnessMultiply:     {name: "brightness_multiply", title: "Brightness multiply", units: "×", min: 0, max: 3, neutral: 1},
	KindBrightnessMultiplyLuma: {name: "brightness_multiply_luma", title: "Brightness multiply luma", min: -1, max: 5},
	KindColorGrading:           {name: "color_grading", title: "Color grading", units: "%", min: 0, max: 100},
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindExposure, KindContrast, KindGamma, KindBlur, KindTint, KindSepia,
		KindBrightnessMultiply, KindBrightnessMultiplyLuma, KindColorGrading,
	}
}

func (k Kind) String() string {
	if d, ok := descriptors[k]; ok {
		return d.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a config name such as "brightness_multiply".
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds() {
		if descriptors[k].name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown modifier: %q", name)
}

// Parameter is the single user-facing knob of a modifier.
type Parameter struct {
	Percent float32
	Min     float32
	Max     float32
	Neutral float32
	Enabled bool
	Title   string
	Units   string
}

// Set stores v clamped into [Min,Max].
func (p *Parameter) Set(v float32) {
	switch {
	case v != v:
		v = p.Neutral
	case v < p.Min:
		v = p.Min
	case v > p.Max:
		v = p.Max
	}
	p.Percent = v
}

// AtFraction maps 0..1 onto [Min,Max].
func (p Parameter) AtFraction(f float32) float32 {
	return p.Min + f*(p.Max-p.Min)
}

// Modifier is a closed tagged union over the supported transforms. It is a
// plain value: copying it yields an independent modifier.
type Modifier struct {
	kind     Kind
	param    Parameter
	gamma    float32
	matrix   Matrix3
	previews *Previews
}

// New returns a modifier of the given kind in its neutral default state.
func New(kind Kind) Modifier {
	d, ok := descriptors[kind]
	if !ok {
		panic(fmt.Sprintf("modifiers: unknown kind %d", int(kind)))
	}
	m := Modifier{
		kind: kind,
		param: Parameter{
			Percent: d.neutral,
			Min:     d.min,
			Max:     d.max,
			Neutral: d.neutral,
			Enabled: true,
			Title:   d.title,
			Units:   d.units,
		},
	}
	switch kind {
	case KindBrightnessMultiplyLuma:
		m.gamma = DefaultLumaGamma
	case KindColorGrading:
		m.matrix = Identity()
	}
	return m
}

func (m *Modifier) Kind() Kind           { return m.kind }
func (m *Modifier) Title() string        { return m.param.Title }
func (m *Modifier) Parameter() Parameter { return m.param }
func (m *Modifier) Percent() float32     { return m.param.Percent }
func (m *Modifier) Enabled() bool        { return m.param.Enabled }

// SetPercent clamps into the modifier's range. Previews are not touched.
func (m *Modifier) SetPercent(v float32) {
	m.param.Set(v)
}

func (m *Modifier) SetEnabled(enabled bool) {
	m.param.Enabled = enabled
}

// Reset restores the neutral percent and the default luma gamma.
func (m *Modifier) Reset() {
	m.param.Percent = m.param.Neutral
	if m.kind == KindBrightnessMultiplyLuma && m.gamma != DefaultLumaGamma {
		m.gamma = DefaultLumaGamma
		m.refreshPreviews()
	}
}

// IsNeutral reports whether Apply would be an identity transform.
func (m *Modifier) IsNeutral() bool {
	if m.param.Percent == m.param.Neutral {
		return true
	}
	return m.kind == KindColorGrading && m.matrix == Identity()
}

// Apply returns img transformed by this modifier. img itself is never
// modified; when the modifier is disabled or neutral img is returned as is.
func (m *Modifier) Apply(img *core.RasterImage) *core.RasterImage {
	if img == nil || !m.param.Enabled || m.IsNeutral() {
		return img
	}

	out := img.Clone()
	p := m.param.Percent
	switch m.kind {
	case KindExposure:
		applyExposure(out, p)
	case KindContrast:
		applyContrast(out, p)
	case KindGamma:
		applyGamma(out, p)
	case KindBlur:
		applyBlur(out, p)
	case KindTint:
		applyTint(out, p)
	case KindSepia:
		applySepia(out, p)
	case KindBrightnessMultiply:
		applyBrightnessMultiply(out, p)
	case KindBrightnessMultiplyLuma:
		applyBrightnessMultiplyLuma(out, p, m.gamma)
	case KindColorGrading:
		applyColorGrading(out, p, m.matrix)
	default:
		panic(fmt.Sprintf("modifiers: unknown kind %d", int(m.kind)))
	}
	return out
}

func (m *Modifier) String() string {
	state := "on"
	if !m.param.Enabled {
		state = "off"
	}
	return fmt.Sprintf("%s(%g%s, %s)", m.kind, m.param.Percent, m.param.Units, state)
}
