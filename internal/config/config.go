// Package config handles generator configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/arx-levelgen/pkg/lighting"
)

// Config holds all generator settings.
type Config struct {
	Output     OutputConfig     `yaml:"output"`
	Generation GenerationConfig `yaml:"generation"`
	Lighting   LightingConfig   `yaml:"lighting"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// OutputConfig holds where and how level files are written.
type OutputConfig struct {
	Dir             string `yaml:"dir"`              // game root the level files go under
	Level           int    `yaml:"level"`            // level index N of graph/levels/levelN
	UncompressedFTS bool   `yaml:"uncompressed_fts"` // skip imploding the geometry file
}

// GenerationConfig holds the settings of the demo level generator.
type GenerationConfig struct {
	Seed   int64 `yaml:"seed"`
	Size   int   `yaml:"size"`   // floor edge in cells
	Lights int   `yaml:"lights"` // number of random lights
}

// LightingConfig holds the lighting bake settings.
type LightingConfig struct {
	Calculate bool            `yaml:"calculate"`
	Mode      string          `yaml:"mode"` // arx, max_brightness, complete_darkness
	Companion CompanionConfig `yaml:"companion"`
}

// CompanionConfig describes an optional external lighting tool run after
// export. An empty path disables it.
type CompanionConfig struct {
	Path    string        `yaml:"path"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:   "./output",
			Level: 1,
		},
		Generation: GenerationConfig{
			Seed:   1,
			Size:   20,
			Lights: 6,
		},
		Lighting: LightingConfig{
			Calculate: true,
			Mode:      lighting.Arx.String(),
			Companion: CompanionConfig{
				Timeout: 5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// LightingMode returns the parsed lighting mode.
func (c *Config) LightingMode() (lighting.Mode, error) {
	return lighting.ParseMode(c.Lighting.Mode)
}

// Validate checks values that would only fail deep inside an export.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is empty")
	}
	if c.Output.Level < 0 {
		return fmt.Errorf("output.level must not be negative, got %d", c.Output.Level)
	}
	if c.Generation.Size <= 0 || c.Generation.Size > 160 {
		return fmt.Errorf("generation.size must be in 1..160, got %d", c.Generation.Size)
	}
	if c.Generation.Lights < 0 {
		return fmt.Errorf("generation.lights must not be negative, got %d", c.Generation.Lights)
	}
	if _, err := c.LightingMode(); err != nil {
		return fmt.Errorf("lighting.mode: %w", err)
	}
	if c.Lighting.Companion.Path != "" && c.Lighting.Companion.Timeout <= 0 {
		return fmt.Errorf("lighting.companion.timeout must be positive")
	}
	return nil
}
