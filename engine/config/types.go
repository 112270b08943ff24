// Package config defines the harness configuration and loads it from YAML or TOML files.
package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes as a Go duration string ("16ms").
type Duration time.Duration

// UnmarshalText parses a duration string such as "16ms" or "1s".
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds every setting the harness reads at startup.
type Config struct {
	// Width is the initial window width in pixels.
	Width int `yaml:"width" toml:"width"`

	// Height is the initial window height in pixels.
	Height int `yaml:"height" toml:"height"`

	// Title is the window title.
	Title string `yaml:"title" toml:"title"`

	// Level is the log level name: debug, info, warn, error or fatal.
	Level string `yaml:"level" toml:"level"`

	// Mode selects the scene: "triangle" or "quad".
	Mode string `yaml:"mode" toml:"mode"`

	// Backend selects the graphics device layer: "wgpu" or "headless".
	Backend string `yaml:"backend" toml:"backend"`

	// Texture is a file path or http(s) URL of the image drawn by the quad scene.
	// Empty uses the procedural texture.
	Texture string `yaml:"texture" toml:"texture"`

	// FitTexture keeps the image aspect ratio when sizing the quad.
	FitTexture bool `yaml:"fit_texture" toml:"fit_texture"`

	// FrameBudget is the target interval between render frames. Zero selects DefaultFrameBudget;
	// an uncapped loop is not configurable.
	FrameBudget Duration `yaml:"frame_budget" toml:"frame_budget"`

	// MainTick is the bound on each window event polling iteration.
	MainTick Duration `yaml:"main_tick" toml:"main_tick"`

	// VSync presents with FIFO instead of immediate mode.
	VSync bool `yaml:"vsync" toml:"vsync"`

	// ForceFallbackAdapter requests a software adapter.
	ForceFallbackAdapter bool `yaml:"force_fallback_adapter" toml:"force_fallback_adapter"`

	// Profile enables the per-second FPS and memory log line.
	Profile bool `yaml:"profile" toml:"profile"`
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}
