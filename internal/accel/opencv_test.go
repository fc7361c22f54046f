package accel

import (
	"image/color"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-modifier-studio/internal/core"
)

func TestResizeKeepsUniformColor(t *testing.T) {
	src := core.NewUniform(40, 20, color.NRGBA{R: 10, G: 200, B: 90, A: 255})

	out, err := Resize(src, core.NewSize(20, 20))
	require.NoError(t, err)
	assert.Equal(t, core.NewSize(20, 10), out.Size())
	assert.Equal(t, color.NRGBA{R: 10, G: 200, B: 90, A: 255}, out.At(5, 5))
}

func TestResizeNeverEnlarges(t *testing.T) {
	src := core.NewRasterImage(8, 8)
	logger, _ := test.NewNullLogger()

	out, err := Resizer(logger)(src, core.NewSize(100, 100))
	require.NoError(t, err)
	assert.Equal(t, src.Size(), out.Size())
	assert.NotSame(t, src, out)
}
