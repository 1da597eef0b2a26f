// Package config handles terrain viewer configuration loading and management.
package config

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Tomius/LoD-sub000/internal/engine/terrain"
)

// Config holds all settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Camera   CameraConfig   `yaml:"camera"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Instancing modes for the patch renderer.
const (
	InstancingAuto      = "auto"
	InstancingInstanced = "instanced"
	InstancingUniform   = "uniform"
)

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Wireframe  bool   `yaml:"wireframe"`
	Instancing string `yaml:"instancing"` // auto, instanced or uniform
	ShowBounds bool   `yaml:"show_bounds"`
}

// TerrainConfig holds quadtree and LOD settings.
type TerrainConfig struct {
	Heightmap       string     `yaml:"heightmap"`
	BaseDimension   int        `yaml:"base_dimension"`   // leaf patch cells per side
	RangeMultiplier float32    `yaml:"range_multiplier"` // lodRange = node world size * this
	MaxStitch       int        `yaml:"max_stitch"`       // deepest level difference stitched
	ParallelDepth   int        `yaml:"parallel_depth"`   // tree levels built concurrently
	HorizontalScale float32    `yaml:"horizontal_scale"`
	HeightScale     float32    `yaml:"height_scale"`
	Offset          [3]float32 `yaml:"offset"`
}

// CameraConfig holds projection and initial orbit settings.
type CameraConfig struct {
	FOV      float32 `yaml:"fov"` // vertical, degrees
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
	Distance float32 `yaml:"distance"`
	Pitch    float32 `yaml:"pitch"` // radians
}

// MetricsConfig holds the Prometheus endpoint settings. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
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
			Instancing: InstancingAuto,
		},
		Terrain: TerrainConfig{
			Heightmap:       "heightmap.png",
			BaseDimension:   32,
			RangeMultiplier: terrain.DefaultRangeMultiplier,
			MaxStitch:       terrain.DefaultMaxStitch,
			ParallelDepth:   2,
			HorizontalScale: 1,
			HeightScale:     128,
		},
		Camera: CameraConfig{
			FOV:      60,
			Near:     0.5,
			Far:      20000,
			Distance: 400,
			Pitch:    0.6,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// BuildOptions converts the terrain section to quadtree build options.
func (t TerrainConfig) BuildOptions() terrain.Options {
	return terrain.Options{
		BaseDimension: t.BaseDimension,
		ParallelDepth: t.ParallelDepth,
		Transform: terrain.Transform{
			HorizontalScale: t.HorizontalScale,
			HeightScale:     t.HeightScale,
			Offset:          mgl32.Vec3(t.Offset),
		},
	}
}

// Selector returns a LOD selector with the configured tuning.
func (t TerrainConfig) Selector() *terrain.Selector {
	return terrain.NewSelector(t.RangeMultiplier, t.MaxStitch)
}
