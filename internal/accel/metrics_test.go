package accel

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-modifier-studio/internal/core"
)

func checker(w, h int) *core.RasterImage {
	img := core.NewRasterImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40)
			if (x/4+y/4)%2 == 0 {
				v = 210
			}
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestIdenticalImages(t *testing.T) {
	img := checker(32, 32)
	e := NewEvaluator()

	results := e.CalculateAll(img, img.Clone())
	require.Len(t, results, 4)
	assert.Equal(t, 0.0, results["mse"])
	assert.Equal(t, 0.0, results["mae"])
	assert.True(t, math.IsInf(results["psnr"], 1))
	assert.InDelta(t, 1.0, results["ssim"], 1e-4)

	report := e.GenerateReport(img, img)
	assert.InDelta(t, 100.0, report.Similarity, 1e-2)
	assert.Equal(t, "unchanged", report.Level)
}

func TestUniformShift(t *testing.T) {
	a := core.NewUniform(16, 16, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	b := core.NewUniform(16, 16, color.NRGBA{R: 110, G: 110, B: 110, A: 255})
	e := NewEvaluator()

	mse, err := e.Calculate("mse", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, mse, 1e-6)

	mae, err := e.Calculate("mae", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, mae, 1e-6)

	psnr, err := e.Calculate("psnr", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 20*math.Log10(25.5), psnr, 1e-4)
}

func TestAlphaIgnored(t *testing.T) {
	a := core.NewUniform(8, 8, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	b := core.NewUniform(8, 8, color.NRGBA{R: 53, G: 60, B: 70, A: 255})

	mae, err := NewMAE().Calculate(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mae, 1e-6)
}

func TestSSIMDropsWithStructureLoss(t *testing.T) {
	sharp := checker(32, 32)
	flat := core.NewUniform(32, 32, color.NRGBA{R: 125, G: 125, B: 125, A: 255})

	ssim, err := NewSSIM().Calculate(sharp, flat)
	require.NoError(t, err)
	assert.Less(t, ssim, 0.5)

	slight := sharp.Clone()
	slight.Brighten(5)
	near, err := NewSSIM().Calculate(sharp, slight)
	require.NoError(t, err)
	assert.Greater(t, near, ssim)
	assert.Greater(t, near, 0.9)
}

func TestMismatchedSizes(t *testing.T) {
	a := core.NewRasterImage(4, 4)
	b := core.NewRasterImage(5, 4)

	_, err := NewPSNR().Calculate(a, b)
	assert.Error(t, err)
	_, err = NewSSIM().Calculate(a, nil)
	assert.Error(t, err)
	assert.Empty(t, NewEvaluator().CalculateAll(a, b))
}

func TestEvaluatorNames(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, []string{"mae", "mse", "psnr", "ssim"}, e.Names())

	info := e.GetMetricInfo()
	assert.True(t, info["ssim"].HigherBetter)
	assert.False(t, info["mse"].HigherBetter)
}
