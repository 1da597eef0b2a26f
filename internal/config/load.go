package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the search locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the terrain cannot start without.
func (c *Config) Validate() error {
	switch c.Graphics.Instancing {
	case InstancingAuto, InstancingInstanced, InstancingUniform:
	default:
		return fmt.Errorf("%w: graphics.instancing %q", ErrInvalidConfig, c.Graphics.Instancing)
	}
	if b := c.Terrain.BaseDimension; b < 4 || b&(b-1) != 0 {
		return fmt.Errorf("%w: terrain.base_dimension %d is not a power of two >= 4", ErrInvalidConfig, b)
	}
	if c.Terrain.RangeMultiplier <= 0 {
		return fmt.Errorf("%w: terrain.range_multiplier must be positive", ErrInvalidConfig)
	}
	if c.Terrain.MaxStitch < 0 || 1<<uint(c.Terrain.MaxStitch) > c.Terrain.BaseDimension/2 {
		return fmt.Errorf("%w: terrain.max_stitch %d out of range", ErrInvalidConfig, c.Terrain.MaxStitch)
	}
	if c.Terrain.HorizontalScale == 0 {
		return fmt.Errorf("%w: terrain.horizontal_scale must not be zero", ErrInvalidConfig)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera near/far %v/%v", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "CDLODTerrain")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "CDLODTerrain")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "cdlod-terrain")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cdlod-terrain")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
