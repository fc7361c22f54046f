package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-modifier-studio/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, 50, cfg.ThumbnailSize)
	assert.Equal(t, 0.1, cfg.Preview.Hysteresis)
	assert.Equal(t, core.FilterNearest, cfg.PreviewFilter())
	assert.Equal(t, core.FilterLinear, cfg.BackgroundFilter())
	assert.Equal(t, 4_000_000, cfg.Background.MinPixels)
	assert.Len(t, cfg.Modifiers, 9)
	assert.Equal(t, "exposure", cfg.Modifiers[0])
	assert.Equal(t, float32(1400), cfg.Window.Width)
	assert.Equal(t, 92, cfg.Export.JPEGQuality)
}

func TestFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.yaml")
	content := []byte("thumbnail_size: 64\npreview:\n  filter: lanczos\nmodifiers: [gamma, sepia]\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("IMGMOD_BACKGROUND_MIN_PIXELS", "1000")
	t.Setenv("IMGMOD_EXPORT_JPEG_QUALITY", "75")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.ThumbnailSize)
	assert.Equal(t, core.FilterLanczos, cfg.PreviewFilter())
	assert.Equal(t, []string{"gamma", "sepia"}, cfg.Modifiers)
	assert.Equal(t, 1000, cfg.Background.MinPixels)
	assert.Equal(t, 75, cfg.Export.JPEGQuality)
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"thumbnail":  "thumbnail_size: 500\n",
		"filter":     "preview:\n  filter: bogus\n",
		"modifier":   "modifiers: [exposure, vignette]\n",
		"hysteresis": "preview:\n  hysteresis: 1.5\n",
		"quality":    "export:\n  jpeg_quality: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
