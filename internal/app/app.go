// Package app runs the interactive splat viewer: window, input, fly camera,
// per-frame LOD selection and point rendering.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/splatlod/internal/config"
	"github.com/Faultbox/splatlod/internal/engine/camera"
	"github.com/Faultbox/splatlod/internal/engine/debug"
	"github.com/Faultbox/splatlod/internal/engine/input"
	"github.com/Faultbox/splatlod/internal/engine/picking"
	"github.com/Faultbox/splatlod/internal/engine/renderer"
	"github.com/Faultbox/splatlod/internal/engine/window"
	"github.com/Faultbox/splatlod/internal/frame"
	"github.com/Faultbox/splatlod/internal/gridcache"
	"github.com/Faultbox/splatlod/internal/host"
	"github.com/Faultbox/splatlod/internal/hud"
	"github.com/Faultbox/splatlod/internal/logger"
	"github.com/Faultbox/splatlod/internal/minimap"
	"github.com/Faultbox/splatlod/internal/viewer"
	"github.com/Faultbox/splatlod/pkg/formats"
	"github.com/Faultbox/splatlod/pkg/math"
)

const (
	titleEvery = 250 * time.Millisecond

	// maxOverlayCells bounds the cell overlay per bucket.
	maxOverlayCells = 4096
)

// App is one viewer session over a loaded cloud.
type App struct {
	cfg   *config.Config
	title string

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.FlyCamera

	surface *viewer.Surface
	binding *host.Binding
	driver  *frame.Driver
	hud     *hud.HUD
	minimap *minimap.Minimap
	opts    frame.Options

	cells     debug.CellWireframe
	showCells bool
	shots     *debug.Screenshots
	wantShot  bool

	running   bool
	lastTitle time.Time
}

// New opens the window, uploads cloud and builds its grid.
func New(cfg *config.Config, title string, cloud *formats.SplatCloud) (*App, error) {
	logger.Info("initializing viewer",
		zap.String("title", title),
		zap.Int("points", cloud.Count),
		zap.Bool("scales", cloud.HasScales()),
	)

	a := &App{
		cfg:   cfg,
		title: title,
		hud:   hud.New(),
		shots: debug.NewScreenshots(cfg.Viewer.ScreenshotDir, "splatview"),
	}

	var err error
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the GL context the window just created.
	dw, dh := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{Width: dw, Height: dh, PointSize: cfg.Viewer.PointSize})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	a.input = input.New()
	a.camera = camera.NewFlyCamera(cfg.Viewer.FOVDeg)

	a.surface = viewer.NewSurface(a.camera, cloud.Positions, cfg.Viewer.ApplyEvery, a.renderer.UpdateState)
	a.surface.Height = func() int {
		_, h := a.window.DrawableSize()
		return h
	}
	a.binding, err = host.Bind(viewer.NewHost(a.surface, cloud.Scales))
	if err != nil {
		a.Close()
		return nil, err
	}

	axis, err := minimap.ParseAxis(cfg.Viewer.MinimapAxis)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.minimap = minimap.New(math.EmptyAABB(), axis, cfg.Viewer.MinimapSize)

	var cache *gridcache.Cache
	if cfg.Cache.Enabled {
		cache = &gridcache.Cache{Dir: cfg.CacheDir()}
	}
	a.driver, err = frame.New(a.binding, frame.Config{
		Build:   cfg.Grid.BuildOptions(),
		HUD:     a.hud,
		Minimap: a.minimap,
		Cache:   cache,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.driver.Rebuild(); err != nil {
		a.Close()
		return nil, fmt.Errorf("build grid: %w", err)
	}

	a.upload()
	a.camera.Fit(a.driver.Grid().Bounds)

	a.opts = frame.Options{
		LODEnabled: cfg.LOD.Enabled,
		Params:     cfg.LOD.Params(),
		Filter:     frame.FilterForRadius(cfg.LOD.FilterRadius),
	}

	logger.Info("viewer initialized")
	return a, nil
}

// Run drives the frame loop until the window closes or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.running = true
	lastTime := time.Now()

	logger.Info("starting frame loop")
	for a.running {
		if err := ctx.Err(); err != nil {
			logger.Info("frame loop cancelled", zap.Error(err))
			break
		}
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		a.handleInput(dt)
		if !a.running {
			break
		}
		a.camera.Update(now)

		rep := a.driver.Tick(now, a.opts)
		if rep.GridBuilt {
			a.upload()
		}

		a.render()
		if a.wantShot {
			a.screenshot()
		}
		a.window.SwapBuffers()

		if now.Sub(a.lastTitle) >= titleEvery {
			a.window.SetTitle(a.title + " | " + a.hud.String())
			a.lastTitle = now
		}
	}
	return nil
}

// upload sends the positions and the current draw state to the GPU.
func (a *App) upload() {
	a.renderer.Upload(a.surface.Positions(), a.driver.Grid().Bounds)
	a.renderer.UpdateState(a.surface.Mask().State())
}

func (a *App) overviewRect() viewer.Rect {
	return viewer.OverviewRect(a.minimap.Width)
}

func (a *App) handleInput(dt time.Duration) {
	f := a.input.Update()
	if f.Quit {
		a.running = false
		return
	}

	clickedOverview := false
	for _, event := range f.Events {
		switch event.Type {
		case input.EventWindowResize:
			w, h := a.window.DrawableSize()
			a.renderer.Resize(w, h)
		case input.EventKeyDown:
			a.handleKey(event.Key)
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_MIDDLE {
				a.flyToPicked(event.MouseX, event.MouseY)
				continue
			}
			if event.Button != sdl.BUTTON_LEFT {
				continue
			}
			u, v, ok := viewer.Hit(a.overviewRect(), event.MouseX, event.MouseY)
			if !ok {
				continue
			}
			clickedOverview = true
			target, err := a.minimap.Click(u, v, a.binding)
			if err != nil {
				logger.Warn("overview click failed", zap.Error(err))
				continue
			}
			logger.Debug("flying to overview target",
				zap.Float64("x", target.X),
				zap.Float64("y", target.Y),
				zap.Float64("z", target.Z),
			)
		}
	}
	if !a.running {
		return
	}

	if !clickedOverview {
		a.camera.HandleDrag(f.RotateX, f.RotateY)
	}
	a.camera.HandlePan(f.PanX, f.PanY)
	a.camera.HandleZoom(f.Wheel)
	a.camera.HandleMovement(axis(sdl.SCANCODE_W, sdl.SCANCODE_S), axis(sdl.SCANCODE_D, sdl.SCANCODE_A), axis(sdl.SCANCODE_E, sdl.SCANCODE_Q), dt)
}

// flyToPicked flies toward the nearest grid cell under window pixel (x, y).
func (a *App) flyToPicked(x, y int) {
	g := a.driver.Grid()
	if g == nil {
		return
	}
	w, h := a.window.Size()
	ray := picking.ScreenRay(a.camera.Position, a.camera.Forward(), a.camera.Right(),
		a.camera.FOVDeg, float64(x), float64(y), float64(w), float64(h))
	idx, t := picking.PickCell(ray, g.Cells)
	if idx < 0 {
		return
	}
	target := picking.Standoff(ray, t, 2*g.CellSize)
	if err := a.binding.FlyTo(target, host.DefaultFlyDuration); err != nil {
		logger.Warn("fly to picked cell failed", zap.Error(err))
		return
	}
	logger.Debug("flying to picked cell", zap.Int("cell", idx), zap.Float64("distance", t))
}

// axis returns +1, -1 or 0 for a pair of held keys.
func axis(pos, neg sdl.Scancode) float64 {
	var v float64
	if input.KeyHeld(pos) {
		v++
	}
	if input.KeyHeld(neg) {
		v--
	}
	return v
}

func (a *App) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		a.running = false
	case sdl.SCANCODE_L:
		a.opts.LODEnabled = !a.opts.LODEnabled
		logger.Info("LOD toggled", zap.Bool("enabled", a.opts.LODEnabled))
	case sdl.SCANCODE_F:
		if g := a.driver.Grid(); g != nil {
			a.camera.Fit(g.Bounds)
		}
	case sdl.SCANCODE_G:
		a.showCells = !a.showCells
	case sdl.SCANCODE_P:
		a.wantShot = true
	case sdl.SCANCODE_R:
		if err := a.driver.Rebuild(); err != nil {
			logger.Warn("grid rebuild failed", zap.Error(err))
			return
		}
		a.upload()
	}
}

func (a *App) render() {
	a.renderer.Begin()

	w, h := a.window.DrawableSize()
	mvp := a.camera.ProjectionMatrix(w, h).Mul(a.camera.ViewMatrix())
	a.renderer.DrawPoints(mvp)
	if g := a.driver.Grid(); a.showCells && g != nil {
		a.cells.Build(g.Cells, viewer.Pose(a.camera, h), a.opts.Params, maxOverlayCells)
		for b, lines := range a.cells.Lines {
			a.renderer.DrawLines(mvp, lines, renderer.StateNearCell+uint8(b))
		}
	}

	ww, wh := a.window.Size()
	if ww <= 0 || wh <= 0 {
		return
	}
	rect := viewer.Scale(a.overviewRect(), float64(w)/float64(ww), float64(h)/float64(wh))
	marker, ok := a.minimap.Marker()
	a.renderer.DrawOverview(rect.X, rect.Y, rect.W, rect.H,
		viewer.OverviewMatrix(a.minimap.Projection), viewer.MarkerNDC(a.minimap.Projection, marker), ok)
}

func (a *App) screenshot() {
	a.wantShot = false
	pixels, w, h := a.renderer.ReadPixels()
	name, err := a.shots.Save(pixels, w, h)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", name))
}

// Close releases the renderer and window.
func (a *App) Close() {
	logger.Info("closing viewer")
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
