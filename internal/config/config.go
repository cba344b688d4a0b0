// Package config handles viewer and build configuration loading.
package config

import (
	"fmt"
	"time"

	"github.com/ironblock/bim-demo/internal/scene"
)

// Config holds all settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Build    BuildConfig    `yaml:"build"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig holds model file paths.
type DataConfig struct {
	ModelPath string `yaml:"model_path"` // Placement dump to open on start
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// BuildConfig holds scene build settings.
type BuildConfig struct {
	ChunkSize      int           `yaml:"chunk_size"`      // Groups per build step
	DepthBiasStep  float32       `yaml:"depth_bias_step"` // Per-material bias increment
	FreezeBatches  bool          `yaml:"freeze_batches"`
	AxisConversion string        `yaml:"axis_conversion"` // none, flip-x, flip-y, flip-z, z-up
	FrameBudget    time.Duration `yaml:"frame_budget"`    // Build time allowed per frame
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Build: BuildConfig{
			ChunkSize:      scene.DefaultChunkSize,
			DepthBiasStep:  scene.DefaultDepthBiasStep,
			FreezeBatches:  true,
			AxisConversion: scene.AxisFlipZ.String(),
			FrameBudget:    8 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks build settings.
func (c *Config) Validate() error {
	if c.Build.ChunkSize <= 0 {
		return fmt.Errorf("build.chunk_size must be positive, got %d", c.Build.ChunkSize)
	}
	if c.Build.DepthBiasStep < 0 || c.Build.DepthBiasStep >= 1 {
		return fmt.Errorf("build.depth_bias_step must be in [0, 1), got %g", c.Build.DepthBiasStep)
	}
	if c.Build.FrameBudget < 0 {
		return fmt.Errorf("build.frame_budget must not be negative, got %s", c.Build.FrameBudget)
	}
	if _, err := scene.ParseAxisConversion(c.Build.AxisConversion); err != nil {
		return fmt.Errorf("build.axis_conversion: %w", err)
	}
	return nil
}

// SceneOptions converts the build section to scene build options.
// The logger is left unset; callers attach their own.
func (b BuildConfig) SceneOptions() (scene.Options, error) {
	axis, err := scene.ParseAxisConversion(b.AxisConversion)
	if err != nil {
		return scene.Options{}, err
	}
	return scene.Options{
		ChunkSize:     b.ChunkSize,
		DepthBiasStep: b.DepthBiasStep,
		FreezeBatches: b.FreezeBatches,
		Axis:          axis,
	}, nil
}
