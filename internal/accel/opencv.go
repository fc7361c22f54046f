// OpenCV-backed resizing for large originals
package accel

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/pipeline"
)

// Resize fits src into target with area interpolation, which is what OpenCV
// recommends for downscaling. It never enlarges.
func Resize(src *core.RasterImage, target core.Size) (*core.RasterImage, error) {
	size := core.FitInto(target, src.Size(), false)
	if size.Empty() || size == src.Size() {
		return src.Clone(), nil
	}

	mat, err := gocv.ImageToMatRGBA(src.NRGBA())
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer mat.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(size.W, size.H), 0, 0, gocv.InterpolationArea)
	if resized.Empty() {
		return nil, fmt.Errorf("opencv resize to %s produced an empty Mat", size)
	}

	img, err := resized.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert Mat to image: %w", err)
	}
	return core.FromImage(img), nil
}

// Resizer wraps Resize for the background resize job and logs its timings.
func Resizer(logger logrus.FieldLogger) pipeline.Resizer {
	return func(src *core.RasterImage, target core.Size) (*core.RasterImage, error) {
		result, err := Resize(src, target)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"source": src.Size().String(),
			"result": result.Size().String(),
		}).Debug("OPENCV: resized")
		return result, nil
	}
}
