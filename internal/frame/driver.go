// Package frame drives LOD selection from a host's render loop.
//
// The driver owns the grid and the per-frame buffers; the loop owns the
// Options and passes them to every Tick. A tick never panics and never
// leaves the driver unusable: failures are logged, counted and returned in
// the Report.
package frame

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/splatlod/internal/gridcache"
	"github.com/Faultbox/splatlod/internal/host"
	"github.com/Faultbox/splatlod/internal/hud"
	"github.com/Faultbox/splatlod/internal/logger"
	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/internal/minimap"
)

// Frame errors.
var (
	ErrEmptyInput = errors.New("no point positions available yet")
	ErrPose       = errors.New("camera pose unavailable")
	ErrDraw       = errors.New("set draw indices failed")
	ErrPanic      = errors.New("panic during frame")
)

// Options are the per-frame settings owned by the render loop.
type Options struct {
	LODEnabled bool
	Params     lod.Params
	Filter     CellFilter // nil means AllCells
}

// DefaultParams are the selection parameters the viewer starts with.
func DefaultParams() lod.Params {
	return lod.Params{
		NearDist:          12,
		MidDist:           40,
		MaxPerCellNear:    512,
		MaxPerCellMid:     128,
		ScreenPxThreshold: 1.2,
	}
}

// DefaultOptions returns LOD enabled with DefaultParams over all cells.
func DefaultOptions() Options {
	return Options{LODEnabled: true, Params: DefaultParams(), Filter: AllCells}
}

// Config wires a Driver.
type Config struct {
	Build   lod.BuildOptions
	HUD     *hud.HUD         // optional
	Minimap *minimap.Minimap // optional
	Cache   *gridcache.Cache // optional; grids are built in memory when nil
}

// Report describes one tick.
type Report struct {
	Drawn      int
	Total      int
	LODEnabled bool
	Buckets    lod.BucketCounts
	GridBuilt  bool // a grid was installed during this tick
	Elapsed    time.Duration
	Err        error
}

// Driver runs the per-frame selection for one bound host.
type Driver struct {
	binding *host.Binding
	cfg     Config

	grid     *lod.Grid
	lastTick time.Time

	candidates []lod.Cell
	indices    []uint32
	all        []uint32
}

// New validates cfg and returns a driver for b. The grid is built lazily on
// the first tick that finds positions.
func New(b *host.Binding, cfg Config) (*Driver, error) {
	if b == nil {
		return nil, host.ErrNilHost
	}
	if err := cfg.Build.Validate(); err != nil {
		return nil, err
	}
	return &Driver{binding: b, cfg: cfg}, nil
}

// Grid returns the current grid, or nil before the first successful build.
func (d *Driver) Grid() *lod.Grid {
	return d.grid
}

// Rebuild replaces the grid from the host's current positions.
func (d *Driver) Rebuild() error {
	positions := d.binding.Host().Positions()
	if len(positions) < 3 {
		d.grid = nil
		return ErrEmptyInput
	}
	d.install(positions)
	return nil
}

func (d *Driver) install(positions []float32) {
	start := time.Now()
	source := "build"
	var g *lod.Grid
	if d.cfg.Cache != nil {
		var hit bool
		var err error
		g, hit, err = d.cfg.Cache.LoadOrBuild(positions, d.cfg.Build)
		if err != nil {
			logger.Warn("grid cache unavailable", zap.Error(err))
		}
		if hit {
			source = "cache"
		}
	} else {
		g = d.cfg.Build.Build(positions)
	}

	d.grid = g
	d.all = d.all[:0]
	if d.cfg.Minimap != nil {
		d.cfg.Minimap.SetBounds(g.Bounds)
	}
	instrumentGridBuild(source)

	s := g.Stats()
	logger.Info("grid ready",
		zap.String("source", source),
		zap.Int("points", s.Points),
		zap.Int("cells", s.Cells),
		zap.Int("maxMembers", s.MaxMembers),
		zap.Int("cellsWithRepr", s.CellsWithRepr),
		zap.Duration("took", time.Since(start)))
}

// ensureGrid builds the grid when it is missing or the point count changed.
func (d *Driver) ensureGrid(positions []float32) (bool, error) {
	n := len(positions) / 3
	if n == 0 {
		return false, ErrEmptyInput
	}
	if d.grid != nil && !d.grid.Empty() && d.grid.PointCount == n {
		return false, nil
	}
	d.install(positions)
	return true, nil
}

// allIndices returns 0..n-1, reusing the previous slice when possible.
func (d *Driver) allIndices(n int) []uint32 {
	if len(d.all) != n {
		d.all = d.all[:0]
		for i := 0; i < n; i++ {
			d.all = append(d.all, uint32(i))
		}
	}
	return d.all
}

// Tick runs one frame at now with opts.
func (d *Driver) Tick(now time.Time, opts Options) (rep Report) {
	start := time.Now()
	framesTotal.Inc()
	rep.LODEnabled = opts.LODEnabled

	defer func() {
		if r := recover(); r != nil {
			rep.Err = errors.Join(rep.Err, fmt.Errorf("%w: %v", ErrPanic, r))
		}
		if rep.Err != nil {
			d.fail(rep.Err)
		}
		rep.Elapsed = time.Since(start)
	}()

	d.tickHUD(now, opts.LODEnabled)

	h := d.binding.Host()
	positions := h.Positions()
	built, err := d.ensureGrid(positions)
	rep.GridBuilt = built
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Total = d.grid.PointCount

	cam, err := h.CameraPose()
	if err != nil {
		rep.Err = fmt.Errorf("%w: %w", ErrPose, err)
		return rep
	}

	var indices []uint32
	if opts.LODEnabled {
		filter := opts.Filter
		if filter == nil {
			filter = AllCells
		}
		selStart := time.Now()
		d.candidates = filter.Candidates(d.candidates, d.grid, cam)
		res, err := lod.SelectInto(d.indices, d.candidates, cam, d.binding.Estimator(positions, cam), opts.Params)
		if err != nil {
			// Draw nothing this frame.
			rep.Err = fmt.Errorf("select: %w", err)
			res.Indices = d.indices[:0]
		}
		d.indices = res.Indices
		indices = res.Indices
		rep.Buckets = res.Buckets
		instrumentSelection(selStart, len(indices), res.Buckets)
	} else {
		indices = d.allIndices(rep.Total)
		selectedPoints.Set(float64(len(indices)))
	}

	// The HUD and minimap still update when the host rejects the draw set.
	if err := h.SetDrawIndices(indices); err != nil {
		rep.Err = errors.Join(rep.Err, fmt.Errorf("%w: %w", ErrDraw, err))
	}
	rep.Drawn = len(indices)

	if d.cfg.HUD != nil {
		d.cfg.HUD.SetTotals(rep.Drawn, rep.Total)
	}
	if d.cfg.Minimap != nil {
		d.cfg.Minimap.SetCamera(cam)
	}
	return rep
}

func (d *Driver) tickHUD(now time.Time, lodEnabled bool) {
	if d.cfg.HUD == nil {
		return
	}
	if !d.lastTick.IsZero() {
		d.cfg.HUD.Update(float64(now.Sub(d.lastTick)) / float64(time.Millisecond))
	}
	d.lastTick = now
	d.cfg.HUD.SetLODEnabled(lodEnabled)
}

func (d *Driver) fail(err error) {
	instrumentFrameError(err)
	if errors.Is(err, ErrEmptyInput) {
		logger.Debug("waiting for positions")
		return
	}
	logger.Warn("frame failed", zap.String("kind", errorKind(err)), zap.Error(err))
}
