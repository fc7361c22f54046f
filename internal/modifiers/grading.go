package modifiers

import "fmt"

const (
	MinMatrixCell = 0
	MaxMatrixCell = 2
)

// Preset is a named grading matrix.
type Preset struct {
	Name   string
	Matrix Matrix3
}

var Presets = []Preset{
	{
		Name: "Grayscale Average",
		Matrix: Matrix3{
			{0.333, 0.333, 0.333},
			{0.333, 0.333, 0.333},
			{0.333, 0.333, 0.333},
		},
	},
	{
		Name: "Luma Brightness",
		Matrix: Matrix3{
			{0.299, 0.587, 0.114},
			{0.299, 0.587, 0.114},
			{0.299, 0.587, 0.114},
		},
	},
	{Name: "Sepia", Matrix: sepiaMatrix},
}

// Matrix returns the grading matrix (identity for other kinds).
func (m *Modifier) Matrix() Matrix3 {
	if m.kind != KindColorGrading {
		return Identity()
	}
	return m.matrix
}

// SetMatrix replaces the grading matrix, clamping every cell to [0,2], and
// regenerates the previews.
func (m *Modifier) SetMatrix(matrix Matrix3) error {
	if m.kind != KindColorGrading {
		return fmt.Errorf("%s has no grading matrix", m.kind)
	}
	for i := range matrix {
		for j := range matrix[i] {
			matrix[i][j] = clampCell(matrix[i][j])
		}
	}
	if matrix == m.matrix {
		return nil
	}
	m.matrix = matrix
	m.refreshPreviews()
	return nil
}

// SetCell edits one matrix cell.
func (m *Modifier) SetCell(row, col int, v float32) error {
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return fmt.Errorf("matrix cell out of range: %d,%d", row, col)
	}
	matrix := m.Matrix()
	matrix[row][col] = v
	return m.SetMatrix(matrix)
}

// ApplyPreset overwrites the matrix with a named preset. The percent is left
// alone, so the preset still blends in through the slider.
func (m *Modifier) ApplyPreset(name string) error {
	for _, p := range Presets {
		if p.Name == name {
			return m.SetMatrix(p.Matrix)
		}
	}
	return fmt.Errorf("unknown grading preset: %q", name)
}

// Gamma is the secondary knob of the luma modifier.
func (m *Modifier) Gamma() float32 {
	return m.gamma
}

// SetGamma clamps into [0.1,1.5] and regenerates the previews.
func (m *Modifier) SetGamma(gamma float32) error {
	if m.kind != KindBrightnessMultiplyLuma {
		return fmt.Errorf("%s has no gamma knob", m.kind)
	}
	if gamma != gamma {
		gamma = DefaultLumaGamma
	}
	gamma = max(MinLumaGamma, min(MaxLumaGamma, gamma))
	if gamma == m.gamma {
		return nil
	}
	m.gamma = gamma
	m.refreshPreviews()
	return nil
}

func clampCell(v float32) float32 {
	if v != v {
		return 0
	}
	return max(MinMatrixCell, min(MaxMatrixCell, v))
}
