package main

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-modifier-studio/internal/accel"
	"image-modifier-studio/internal/config"
	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/io"
	"image-modifier-studio/internal/modifiers"
	"image-modifier-studio/internal/pipeline"
)

func TestParseSettings(t *testing.T) {
	settings, err := parseSettings([]string{"exposure=20", "sepia = off", "color_grading=Sepia"})
	require.NoError(t, err)
	require.Len(t, settings, 3)
	assert.Equal(t, modifiers.KindExposure, settings[0].Kind)
	assert.Equal(t, "off", settings[1].Value)

	_, err = parseSettings([]string{"exposure"})
	assert.Error(t, err)
	_, err = parseSettings([]string{"vignette=3"})
	assert.Error(t, err)
}

func TestApplySetting(t *testing.T) {
	p := pipeline.New(core.NewRasterImage(4, 4), core.NewSize(4, 4))
	p.PushModifier(modifiers.New(modifiers.KindExposure))

	require.NoError(t, applySetting(p, setting{Kind: modifiers.KindExposure, Value: "35"}))
	assert.Equal(t, float32(35), p.Modifier(0).Percent())

	require.NoError(t, applySetting(p, setting{Kind: modifiers.KindSepia, Value: "off"}))
	require.Equal(t, 2, p.Len(), "missing kinds are appended")
	assert.False(t, p.Modifier(1).Enabled())

	require.NoError(t, applySetting(p, setting{Kind: modifiers.KindColorGrading, Value: "Luma Brightness"}))
	assert.Error(t, applySetting(p, setting{Kind: modifiers.KindColorGrading, Value: "Vintage"}))
	assert.Error(t, applySetting(p, setting{Kind: modifiers.KindBlur, Value: "lots"}))
}

func TestRunHeadless(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	logger, hook := test.NewNullLogger()

	src := core.NewUniform(8, 6, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	require.NoError(t, io.NewSaver(logger).Save(src, in))

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, runHeadless(cfg, logger, accel.NewEvaluator(), in, out, []string{"sepia=100"}))

	file, err := io.NewLoader(logger).Load(out)
	require.NoError(t, err)
	assert.Equal(t, core.NewSize(8, 6), file.Image.Size())
	assert.Equal(t, color.NRGBA{R: 135, G: 120, B: 94, A: 255}, file.Image.At(0, 0))

	var compared bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Export compared with original" {
			compared = true
			assert.Equal(t, "strong", entry.Data["level"])
			assert.Contains(t, entry.Data["metrics"], "ssim")
		}
	}
	assert.True(t, compared)

	assert.Error(t, runHeadless(cfg, logger, nil, "", out, nil))
}
