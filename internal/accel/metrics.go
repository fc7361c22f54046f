// OpenCV implementations of the difference metrics
package accel

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/metrics"
)

// ssimWindow and ssimSigma describe the Gaussian window of SSIM.
var ssimWindow = image.Pt(11, 11)

const ssimSigma = 1.5

// NewEvaluator returns an evaluator with every OpenCV metric registered.
func NewEvaluator() *metrics.Evaluator {
	e := metrics.NewEvaluator()
	RegisterMetrics(e)
	return e
}

// RegisterMetrics adds psnr, ssim, mse and mae to e.
func RegisterMetrics(e *metrics.Evaluator) {
	e.Register("psnr", NewPSNR())
	e.Register("ssim", NewSSIM())
	e.Register("mse", NewMSE())
	e.Register("mae", NewMAE())
}

// matPair converts both images to BGRA Mats after checking their sizes. The
// caller closes both.
func matPair(original, processed *core.RasterImage) (gocv.Mat, gocv.Mat, error) {
	if err := metrics.CheckPair(original, processed); err != nil {
		return gocv.Mat{}, gocv.Mat{}, err
	}

	a, err := gocv.ImageToMatRGBA(original.NRGBA())
	if err != nil {
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	b, err := gocv.ImageToMatRGBA(processed.NRGBA())
	if err != nil {
		a.Close()
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	return a, b, nil
}

// colorMean averages the three colour channels of a 4 channel mean,
// ignoring alpha.
func colorMean(s gocv.Scalar) float64 {
	return (s.Val1 + s.Val2 + s.Val3) / 3
}

// meanSquaredError is the mean over the B, G and R channels of the squared
// difference.
func meanSquaredError(a, b gocv.Mat) float64 {
	fa := gocv.NewMat()
	defer fa.Close()
	a.ConvertTo(&fa, gocv.MatTypeCV32FC4)

	fb := gocv.NewMat()
	defer fb.Close()
	b.ConvertTo(&fb, gocv.MatTypeCV32FC4)

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(fa, fb, &diff)

	sq := gocv.NewMat()
	defer sq.Close()
	gocv.Multiply(diff, diff, &sq)

	return colorMean(sq.Mean())
}

// PSNR implements Peak Signal-to-Noise Ratio metric
type PSNR struct{}

func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed *core.RasterImage) (float64, error) {
	a, b, err := matPair(original, processed)
	if err != nil {
		return 0, err
	}
	defer a.Close()
	defer b.Close()

	mse := meanSquaredError(a, b)
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}
	return 20 * math.Log10(255.0/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) GetDescription() string {
	return "Peak Signal-to-Noise Ratio - measures how much the render deviates from its base"
}

func (p *PSNR) GetRange() (float64, float64) {
	return 0, 100 // Practical range, can go higher
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}

// MSE implements Mean Squared Error metric
type MSE struct{}

func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed *core.RasterImage) (float64, error) {
	a, b, err := matPair(original, processed)
	if err != nil {
		return 0, err
	}
	defer a.Close()
	defer b.Close()
	return meanSquaredError(a, b), nil
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) GetDescription() string {
	return "Mean Squared Error over the RGB channels"
}

func (m *MSE) GetRange() (float64, float64) {
	return 0, 255 * 255
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

// MAE implements mean absolute channel difference
type MAE struct{}

func NewMAE() *MAE {
	return &MAE{}
}

func (m *MAE) Calculate(original, processed *core.RasterImage) (float64, error) {
	a, b, err := matPair(original, processed)
	if err != nil {
		return 0, err
	}
	defer a.Close()
	defer b.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)
	return colorMean(diff.Mean()), nil
}

func (m *MAE) GetName() string {
	return "MAE"
}

func (m *MAE) GetDescription() string {
	return "Mean Absolute Error - average per channel shift in 0..255 units"
}

func (m *MAE) GetRange() (float64, float64) {
	return 0, 255
}

func (m *MAE) IsHigherBetter() bool {
	return false
}

// SSIM implements Structural Similarity Index on luma with a Gaussian window
type SSIM struct{}

func NewSSIM() *SSIM {
	return &SSIM{}
}

func (s *SSIM) Calculate(original, processed *core.RasterImage) (float64, error) {
	a, b, err := matPair(original, processed)
	if err != nil {
		return 0, err
	}
	defer a.Close()
	defer b.Close()

	fa := grayFloat(a)
	defer fa.Close()
	fb := grayFloat(b)
	defer fb.Close()

	return calculateSSIM(fa, fb), nil
}

// grayFloat converts a BGRA Mat to single channel float luma.
func grayFloat(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)

	f := gocv.NewMat()
	gray.ConvertTo(&f, gocv.MatTypeCV32F)
	return f
}

func gaussian(src gocv.Mat, dst *gocv.Mat) {
	gocv.GaussianBlur(src, dst, ssimWindow, ssimSigma, ssimSigma, gocv.BorderDefault)
}

func calculateSSIM(f1, f2 gocv.Mat) float64 {
	const (
		C1 = 6.5025  // (0.01 * 255)^2
		C2 = 58.5225 // (0.03 * 255)^2
	)

	mu1 := gocv.NewMat()
	defer mu1.Close()
	gaussian(f1, &mu1)

	mu2 := gocv.NewMat()
	defer mu2.Close()
	gaussian(f2, &mu2)

	mu1Sq := gocv.NewMat()
	defer mu1Sq.Close()
	gocv.Multiply(mu1, mu1, &mu1Sq)

	mu2Sq := gocv.NewMat()
	defer mu2Sq.Close()
	gocv.Multiply(mu2, mu2, &mu2Sq)

	mu1Mu2 := gocv.NewMat()
	defer mu1Mu2.Close()
	gocv.Multiply(mu1, mu2, &mu1Mu2)

	sigma1Sq := windowedMoment(f1, f1, mu1Sq)
	defer sigma1Sq.Close()
	sigma2Sq := windowedMoment(f2, f2, mu2Sq)
	defer sigma2Sq.Close()
	sigma12 := windowedMoment(f1, f2, mu1Mu2)
	defer sigma12.Close()

	// (2*mu1*mu2 + C1) * (2*sigma12 + C2)
	n1 := gocv.NewMat()
	defer n1.Close()
	gocv.AddWeighted(mu1Mu2, 2, mu1Mu2, 0, C1, &n1)
	n2 := gocv.NewMat()
	defer n2.Close()
	gocv.AddWeighted(sigma12, 2, sigma12, 0, C2, &n2)
	numerator := gocv.NewMat()
	defer numerator.Close()
	gocv.Multiply(n1, n2, &numerator)

	// (mu1^2 + mu2^2 + C1) * (sigma1^2 + sigma2^2 + C2)
	d1 := gocv.NewMat()
	defer d1.Close()
	gocv.AddWeighted(mu1Sq, 1, mu2Sq, 1, C1, &d1)
	d2 := gocv.NewMat()
	defer d2.Close()
	gocv.AddWeighted(sigma1Sq, 1, sigma2Sq, 1, C2, &d2)
	denominator := gocv.NewMat()
	defer denominator.Close()
	gocv.Multiply(d1, d2, &denominator)

	ssimMap := gocv.NewMat()
	defer ssimMap.Close()
	gocv.Divide(numerator, denominator, &ssimMap)

	return ssimMap.Mean().Val1
}

// windowedMoment returns G(a*b) - mean, the local (co)variance under the
// Gaussian window. The caller closes the result.
func windowedMoment(a, b, mean gocv.Mat) gocv.Mat {
	product := gocv.NewMat()
	defer product.Close()
	gocv.Multiply(a, b, &product)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gaussian(product, &blurred)

	out := gocv.NewMat()
	gocv.Subtract(blurred, mean, &out)
	return out
}
