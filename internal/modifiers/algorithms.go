// Per-pixel algorithms behind each modifier kind
package modifiers

import (
	"math"

	"github.com/chewxy/math32"

	"image-modifier-studio/internal/core"
)

const (
	// exposureScale softens the slider so ±100 stays usable.
	exposureScale = 0.6
	// contrastScale maps the slider onto the stretch factor.
	contrastScale = 0.6
	// maxBlurSigma is the blur reached at 100%.
	maxBlurSigma = 3.0

	DefaultLumaGamma = 0.5
	MinLumaGamma     = 0.1
	MaxLumaGamma     = 1.5
)

func applyExposure(img *core.RasterImage, percent float32) {
	p := math.Max(-100, math.Min(100, float64(percent)))
	img.Brighten(int(math.Round(p * exposureScale * 2.55)))
}

func applyContrast(img *core.RasterImage, percent float32) {
	img.AdjustContrast(percent * contrastScale)
}

func applyGamma(img *core.RasterImage, percent float32) {
	exp := 1 - percent
	curve := func(v float32) float32 {
		return 255 * math32.Pow(v/255, exp)
	}
	img.MapRGB(func(r, g, b float32) (float32, float32, float32) {
		return curve(r), curve(g), curve(b)
	})
}

func applyBlur(img *core.RasterImage, percent float32) {
	img.Blur(lramp(0, maxBlurSigma, percent*0.01))
}

func applyTint(img *core.RasterImage, degrees float32) {
	img.HueRotate(degrees)
}

func applySepia(img *core.RasterImage, percent float32) {
	m := sepiaMatrix.LerpFromIdentity(percent / 100)
	img.MapRGB(m.Mul)
}

func applyBrightnessMultiply(img *core.RasterImage, coefficient float32) {
	img.MapRGB(func(r, g, b float32) (float32, float32, float32) {
		return r * coefficient, g * coefficient, b * coefficient
	})
}

// applyBrightnessMultiplyLuma scales luma only, boosting dark tones more than
// bright ones: Y' = Y*(1+coef*(1-Y^gamma)).
func applyBrightnessMultiplyLuma(img *core.RasterImage, coefficient, gamma float32) {
	img.MapRGB(func(r, g, b float32) (float32, float32, float32) {
		y, u, v := rgbToYUV.Mul(r/255, g/255, b/255)
		if y > 0 {
			y *= 1 + coefficient*(1-math32.Pow(y, gamma))
		}
		r, g, b = yuvToRGB.Mul(y, u, v)
		return r * 255, g * 255, b * 255
	})
}

func applyColorGrading(img *core.RasterImage, percent float32, matrix Matrix3) {
	m := matrix.LerpFromIdentity(percent / 100)
	img.MapRGB(m.Mul)
}
