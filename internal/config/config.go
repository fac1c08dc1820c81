// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/marina-ripple/internal/ripple"
)

// Config holds all application settings.
type Config struct {
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Ripple     ripple.Params    `yaml:"ripple"`
	Background BackgroundConfig `yaml:"background"`
	Audio      AudioConfig      `yaml:"audio"`
	Capture    CaptureConfig    `yaml:"capture"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// BackgroundConfig holds background image settings.
type BackgroundConfig struct {
	URL                string        `yaml:"url"`
	FallbackURL        string        `yaml:"fallback_url"`
	TransitionDuration time.Duration `yaml:"transition_duration"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"` // 0 = wait forever
	PlaceholderColor   string        `yaml:"placeholder_color"`
	CacheEntries       int           `yaml:"cache_entries"`
}

// AudioConfig holds ripple sound settings.
type AudioConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MasterVolume float64 `yaml:"master_volume"`
	Muted        bool    `yaml:"muted"`
}

// CaptureConfig holds screenshot settings.
type CaptureConfig struct {
	OutputDir string `yaml:"output_dir"`
	Prefix    string `yaml:"prefix"`
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
			Title:      "Marina Ripple",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Ripple: ripple.DefaultParams(),
		Background: BackgroundConfig{
			URL:                "assets/backgrounds/marina.jpg",
			FallbackURL:        "assets/backgrounds/fallback.jpg",
			TransitionDuration: ripple.DefaultTransitionDuration,
			FetchTimeout:       0,
			PlaceholderColor:   "#1a1a1f",
			CacheEntries:       16,
		},
		Audio: AudioConfig{
			Enabled:      true,
			MasterVolume: 0.8,
			Muted:        false,
		},
		Capture: CaptureConfig{
			OutputDir: "screenshots",
			Prefix:    "ripple",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that would make the pipeline unusable.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Background.TransitionDuration < 0 {
		return fmt.Errorf("background: negative transition_duration %v", c.Background.TransitionDuration)
	}
	if c.Background.FetchTimeout < 0 {
		return fmt.Errorf("background: negative fetch_timeout %v", c.Background.FetchTimeout)
	}
	if _, err := c.Background.Placeholder(); err != nil {
		return err
	}
	return nil
}

// Placeholder parses the placeholder color.
func (b BackgroundConfig) Placeholder() (color.Color, error) {
	c, err := colorful.Hex(b.PlaceholderColor)
	if err != nil {
		return nil, fmt.Errorf("background: placeholder_color %q: %w", b.PlaceholderColor, err)
	}
	return c.Clamped(), nil
}
