package modifiers

// Matrix3 is a row-major 3x3 colour matrix: out = M · [R,G,B].
type Matrix3 [3][3]float32

func Identity() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul applies the matrix to an RGB triple.
func (m Matrix3) Mul(r, g, b float32) (float32, float32, float32) {
	return m[0][0]*r + m[0][1]*g + m[0][2]*b,
		m[1][0]*r + m[1][1]*g + m[1][2]*b,
		m[2][0]*r + m[2][1]*g + m[2][2]*b
}

// LerpFromIdentity blends cell-wise from the identity towards m.
func (m Matrix3) LerpFromIdentity(level float32) Matrix3 {
	id := Identity()
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = lramp(id[i][j], m[i][j], level)
		}
	}
	return out
}

// lramp moves from start towards target by level clamped to [0,1].
func lramp(start, target, level float32) float32 {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	return start + (target-start)*level
}

// RGB <-> YUV (SDTV, BT.470).
var (
	rgbToYUV = Matrix3{
		{0.299, 0.587, 0.114},
		{-0.14713, -0.28886, 0.436},
		{0.615, -0.51499, -0.10001},
	}
	yuvToRGB = Matrix3{
		{1, 0, 1.13983},
		{1, -0.39465, -0.58060},
		{1, 2.03211, 0},
	}
	sepiaMatrix = Matrix3{
		{0.393, 0.769, 0.189},
		{0.349, 0.686, 0.168},
		{0.272, 0.534, 0.131},
	}
)
