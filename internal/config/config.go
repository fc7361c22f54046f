// Application configuration: defaults, optional config file, environment
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/modifiers"
)

const EnvPrefix = "IMGMOD"

type PreviewConf struct {
	Hysteresis float64 `mapstructure:"hysteresis"`
	Filter     string  `mapstructure:"filter"`
}

type BackgroundConf struct {
	MinPixels int    `mapstructure:"min_pixels"`
	Filter    string `mapstructure:"filter"`
	OpenCV    bool   `mapstructure:"opencv"`
}

type ExportConf struct {
	JPEGQuality int `mapstructure:"jpeg_quality"`
}

type WindowConf struct {
	Width  float32 `mapstructure:"width"`
	Height float32 `mapstructure:"height"`
}

type Config struct {
	Debug         bool           `mapstructure:"debug"`
	ThumbnailSize int            `mapstructure:"thumbnail_size"`
	Preview       PreviewConf    `mapstructure:"preview"`
	Background    BackgroundConf `mapstructure:"background"`
	Export        ExportConf     `mapstructure:"export"`
	Modifiers     []string       `mapstructure:"modifiers"`
	Window        WindowConf     `mapstructure:"window"`
}

func setDefaults(v *viper.Viper) {
	names := make([]string, 0, len(modifiers.DefaultKinds))
	for _, kind := range modifiers.DefaultKinds {
		names = append(names, kind.String())
	}

	v.SetDefault("debug", false)
	v.SetDefault("thumbnail_size", 50)
	v.SetDefault("preview.hysteresis", 0.1)
	v.SetDefault("preview.filter", core.FilterNearest.String())
	v.SetDefault("background.min_pixels", 4_000_000)
	v.SetDefault("background.filter", core.FilterLinear.String())
	v.SetDefault("background.opencv", false)
	v.SetDefault("export.jpeg_quality", 92)
	v.SetDefault("modifiers", names)
	v.SetDefault("window.width", 1400)
	v.SetDefault("window.height", 900)
}

// Load reads the defaults, then path when it is not empty, then IMGMOD_*
// environment variables (IMGMOD_PREVIEW_FILTER overrides preview.filter).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the rest of the application relies on.
func (c *Config) Validate() error {
	if c.ThumbnailSize <= 0 || c.ThumbnailSize > modifiers.MaxThumbnailSize {
		return fmt.Errorf("thumbnail_size must be in 1..%d, got %d", modifiers.MaxThumbnailSize, c.ThumbnailSize)
	}
	if c.Preview.Hysteresis < 0 || c.Preview.Hysteresis >= 1 {
		return fmt.Errorf("preview.hysteresis must be in [0,1), got %g", c.Preview.Hysteresis)
	}
	if _, err := core.ParseFilter(c.Preview.Filter); err != nil {
		return fmt.Errorf("preview.filter: %w", err)
	}
	if _, err := core.ParseFilter(c.Background.Filter); err != nil {
		return fmt.Errorf("background.filter: %w", err)
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be in 1..100, got %d", c.Export.JPEGQuality)
	}
	if c.Background.MinPixels < 0 {
		return fmt.Errorf("background.min_pixels must not be negative")
	}
	for _, name := range c.Modifiers {
		if _, err := modifiers.ParseKind(name); err != nil {
			return fmt.Errorf("modifiers: %w", err)
		}
	}
	return nil
}

func (c *Config) PreviewFilter() core.FilterKind {
	f, _ := core.ParseFilter(c.Preview.Filter)
	return f
}

func (c *Config) BackgroundFilter() core.FilterKind {
	f, _ := core.ParseFilter(c.Background.Filter)
	return f
}
