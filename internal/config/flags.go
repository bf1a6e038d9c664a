package config

import (
	"flag"
	"time"
)

// Flags are the command-line overrides shared by the commands.
type Flags struct {
	fs *flag.FlagSet

	config       *string
	debug        *bool
	logFile      *string
	fullscreen   *bool
	width        *int
	height       *int
	noLOD        *bool
	cellSize     *float64
	maxRepr      *int
	near         *float64
	mid          *float64
	threshold    *float64
	filterRadius *float64
	applyEvery   *time.Duration
	axis         *string
	noCache      *bool
	cacheDir     *string
	metricsAddr  *string
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:           fs,
		config:       fs.String("config", "", "Path to config file"),
		debug:        fs.Bool("debug", false, "Enable debug logging"),
		logFile:      fs.String("log-file", "", "Also log to this rotating file"),
		fullscreen:   fs.Bool("fullscreen", false, "Run in fullscreen mode"),
		width:        fs.Int("width", 0, "Window width"),
		height:       fs.Int("height", 0, "Window height"),
		noLOD:        fs.Bool("no-lod", false, "Start with LOD disabled"),
		cellSize:     fs.Float64("cell-size", 0, "Grid cell size in world units"),
		maxRepr:      fs.Int("max-repr", 0, "Representatives kept per dense cell"),
		near:         fs.Float64("near", 0, "Near bucket distance"),
		mid:          fs.Float64("mid", 0, "Mid bucket distance"),
		threshold:    fs.Float64("threshold", 0, "Minimum screen size in pixels"),
		filterRadius: fs.Float64("radius", 0, "Only consider cells within this distance (0 = all)"),
		applyEvery:   fs.Duration("apply-every", 0, "Minimum interval between draw state uploads"),
		axis:         fs.String("minimap-axis", "", "Minimap plane: XY or XZ"),
		noCache:      fs.Bool("no-cache", false, "Do not read or write grid snapshots"),
		cacheDir:     fs.String("cache-dir", "", "Grid snapshot directory"),
		metricsAddr:  fs.String("metrics-addr", "", "Serve Prometheus metrics on this address"),
	}
}

var commandLine *Flags

// ParseFlags registers the override flags on the process command line and
// parses it. Call this early in main().
func ParseFlags() *Flags {
	if commandLine == nil {
		commandLine = RegisterFlags(flag.CommandLine)
	}
	flag.Parse()
	return commandLine
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// Apply copies every flag that was set on the command line into cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "debug":
			if *f.debug {
				cfg.Logging.Level = "debug"
			}
		case "log-file":
			cfg.Logging.LogFile = *f.logFile
		case "fullscreen":
			cfg.Viewer.Fullscreen = *f.fullscreen
		case "width":
			cfg.Viewer.Width = *f.width
		case "height":
			cfg.Viewer.Height = *f.height
		case "no-lod":
			cfg.LOD.Enabled = !*f.noLOD
		case "cell-size":
			cfg.Grid.CellSize = *f.cellSize
		case "max-repr":
			cfg.Grid.MaxReprPerCell = *f.maxRepr
		case "near":
			cfg.LOD.NearDist = *f.near
		case "mid":
			cfg.LOD.MidDist = *f.mid
		case "threshold":
			cfg.LOD.ScreenPxThreshold = *f.threshold
		case "radius":
			cfg.LOD.FilterRadius = *f.filterRadius
		case "apply-every":
			cfg.Viewer.ApplyEvery = *f.applyEvery
		case "minimap-axis":
			cfg.Viewer.MinimapAxis = *f.axis
		case "no-cache":
			cfg.Cache.Enabled = !*f.noCache
		case "cache-dir":
			cfg.Cache.Dir = *f.cacheDir
		case "metrics-addr":
			cfg.Metrics.Addr = *f.metricsAddr
		}
	})
}
