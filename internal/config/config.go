// Package config handles atlastool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/uvatlas/internal/logger"
	"github.com/Faultbox/uvatlas/pkg/atlas"
)

// Supported chart image formats.
const (
	ImageFormatNone = ""
	ImageFormatPNG  = "png"
	ImageFormatBMP  = "bmp"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all atlastool settings.
type Config struct {
	Logging LoggingConfig      `yaml:"logging"`
	Chart   atlas.ChartOptions `yaml:"chart"`
	Pack    atlas.PackOptions  `yaml:"pack"`
	Output  OutputConfig       `yaml:"output"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig controls what generate writes next to the mesh.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	ImageFormat string `yaml:"image_format"` // "", "png" or "bmp"
	Verbose     bool   `yaml:"verbose"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Chart: atlas.DefaultChartOptions(),
		Pack:  atlas.DefaultPackOptions(),
		Output: OutputConfig{
			Dir: ".",
		},
	}
}

// Validate checks values that cannot be caught by YAML decoding.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}

	switch c.Output.ImageFormat {
	case ImageFormatNone, ImageFormatPNG, ImageFormatBMP:
	default:
		return fmt.Errorf("%w: output.image_format %q (want png or bmp)", ErrInvalidConfig, c.Output.ImageFormat)
	}

	if c.Chart.MaxCost < 0 {
		return fmt.Errorf("%w: chart.max_cost must not be negative", ErrInvalidConfig)
	}
	if c.Pack.TexelsPerUnit < 0 {
		return fmt.Errorf("%w: pack.texels_per_unit must not be negative", ErrInvalidConfig)
	}

	return nil
}
