package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
)

// Default values for Config.
const (
	DefaultWidth       = 1280
	DefaultHeight      = 720
	DefaultTitle       = "Dawn window"
	DefaultLevel       = "debug"
	DefaultMode        = "triangle"
	DefaultBackend     = "wgpu"
	DefaultFrameBudget = 16 * time.Millisecond
	DefaultMainTick    = 16 * time.Millisecond
)

var (
	validModes    = []string{"triangle", "quad"}
	validBackends = []string{"wgpu", "headless"}
)

// DefaultConfig returns a Config with the harness defaults.
func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Title:       DefaultTitle,
		Level:       DefaultLevel,
		Mode:        DefaultMode,
		Backend:     DefaultBackend,
		FrameBudget: Duration(DefaultFrameBudget),
		MainTick:    Duration(DefaultMainTick),
	}
}

// Load reads a configuration file and applies it on top of DefaultConfig.
// The format is chosen by extension: .yaml/.yml or .toml. An empty path returns the defaults.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - *Config: the loaded and validated configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	logging.Logger().Debug("loaded config", "path", path)
	return &cfg, nil
}

// Validate checks that every field holds a usable value.
//
// Parameters:
//   - cfg: the configuration to check
//
// Returns:
//   - error: a joined set of ValidationError values, or nil
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Width <= 0 {
		errs = append(errs, ValidationError{Field: "width", Message: "must be positive"})
	}
	if cfg.Height <= 0 {
		errs = append(errs, ValidationError{Field: "height", Message: "must be positive"})
	}
	if _, err := logging.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, ValidationError{Field: "level", Message: "must be one of debug, info, warn, error, fatal"})
	}
	if !oneOf(cfg.Mode, validModes) {
		errs = append(errs, ValidationError{Field: "mode", Message: "must be one of " + strings.Join(validModes, ", ")})
	}
	if !oneOf(cfg.Backend, validBackends) {
		errs = append(errs, ValidationError{Field: "backend", Message: "must be one of " + strings.Join(validBackends, ", ")})
	}
	if cfg.FrameBudget < 0 {
		errs = append(errs, ValidationError{Field: "frame_budget", Message: "must not be negative"})
	}
	if cfg.MainTick <= 0 {
		errs = append(errs, ValidationError{Field: "main_tick", Message: "must be positive"})
	}

	return errors.Join(errs...)
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
