// Package config loads viewer and CLI settings: defaults, then a YAML
// file, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/internal/minimap"
)

// ErrInvalid is wrapped by Validate errors.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	LOD     LODConfig     `yaml:"lod"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// GridConfig holds grid construction settings.
type GridConfig struct {
	CellSize       float64 `yaml:"cell_size"`
	MaxReprPerCell int     `yaml:"max_repr_per_cell"`
}

// BuildOptions converts the section to grid build options.
func (g GridConfig) BuildOptions() lod.BuildOptions {
	return lod.BuildOptions{CellSize: g.CellSize, MaxReprPerCell: g.MaxReprPerCell}
}

// LODConfig holds per-frame selection settings.
type LODConfig struct {
	Enabled           bool    `yaml:"enabled"`
	NearDist          float64 `yaml:"near_dist"`
	MidDist           float64 `yaml:"mid_dist"`
	MaxPerCellNear    int     `yaml:"max_per_cell_near"`
	MaxPerCellMid     int     `yaml:"max_per_cell_mid"`
	ScreenPxThreshold float64 `yaml:"screen_px_threshold"`
	FilterRadius      float64 `yaml:"filter_radius"` // 0 selects over all cells
}

// Params converts the section to selection parameters.
func (l LODConfig) Params() lod.Params {
	return lod.Params{
		NearDist:          l.NearDist,
		MidDist:           l.MidDist,
		MaxPerCellNear:    l.MaxPerCellNear,
		MaxPerCellMid:     l.MaxPerCellMid,
		ScreenPxThreshold: l.ScreenPxThreshold,
	}
}

// ViewerConfig holds display settings for splatview.
type ViewerConfig struct {
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Fullscreen  bool          `yaml:"fullscreen"`
	VSync       bool          `yaml:"vsync"`
	FOVDeg      float64       `yaml:"fov_deg"`
	PointSize   float32       `yaml:"point_size"`
	ApplyEvery  time.Duration `yaml:"apply_every"` // draw state upload throttle
	MinimapAxis string        `yaml:"minimap_axis"`
	MinimapSize int           `yaml:"minimap_size"`

	ScreenshotDir string `yaml:"screenshot_dir"`
}

// CacheConfig holds grid snapshot settings.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // empty means <config dir>/grids
}

// MetricsConfig holds the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock values.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			CellSize:       1.5,
			MaxReprPerCell: 32,
		},
		LOD: LODConfig{
			Enabled:           true,
			NearDist:          12,
			MidDist:           40,
			MaxPerCellNear:    512,
			MaxPerCellMid:     128,
			ScreenPxThreshold: 1.2,
		},
		Viewer: ViewerConfig{
			Width:       1280,
			Height:      720,
			VSync:       true,
			FOVDeg:      60,
			PointSize:   2,
			ApplyEvery:  80 * time.Millisecond,
			MinimapAxis: "XY",
			MinimapSize: minimap.DefaultSize,

			ScreenshotDir: "screenshots",
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the grid, LOD and viewer sections.
func (c *Config) Validate() error {
	if err := c.Grid.BuildOptions().Validate(); err != nil {
		return fmt.Errorf("%w: grid: %w", ErrInvalid, err)
	}
	if err := c.LOD.Params().Validate(); err != nil {
		return fmt.Errorf("%w: lod: %w", ErrInvalid, err)
	}
	if c.LOD.FilterRadius < 0 {
		return fmt.Errorf("%w: lod: filter radius %v is negative", ErrInvalid, c.LOD.FilterRadius)
	}
	if _, err := minimap.ParseAxis(c.Viewer.MinimapAxis); err != nil {
		return fmt.Errorf("%w: viewer: %w", ErrInvalid, err)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("%w: viewer: window size %dx%d", ErrInvalid, c.Viewer.Width, c.Viewer.Height)
	}
	if c.Viewer.FOVDeg <= 0 || c.Viewer.FOVDeg >= 180 {
		return fmt.Errorf("%w: viewer: fov %v out of range", ErrInvalid, c.Viewer.FOVDeg)
	}
	if c.Viewer.ApplyEvery < 0 {
		return fmt.Errorf("%w: viewer: apply_every %v is negative", ErrInvalid, c.Viewer.ApplyEvery)
	}
	return nil
}
