package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	gomath "math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Faultbox/splatlod/internal/config"
	"github.com/Faultbox/splatlod/internal/frame"
	"github.com/Faultbox/splatlod/internal/gridcache"
	"github.com/Faultbox/splatlod/internal/host"
	"github.com/Faultbox/splatlod/internal/logger"
	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/formats"
	"github.com/Faultbox/splatlod/pkg/math"
)

var errUsage = errors.New("usage")

// setup parses args for a subcommand and loads the configuration. extra
// registers the subcommand's own flags.
func setup(name string, args []string, extra func(fs *flag.FlagSet)) (*flag.FlagSet, *config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}

	// Console output would interleave with command output; only debug
	// runs get it.
	opts := logger.Options{Level: cfg.Logging.Level, Console: cfg.Logging.Level == "debug"}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		return nil, nil, err
	}
	return fs, cfg, nil
}

func loadCloud(fs *flag.FlagSet, usage string) (*formats.SplatCloud, string, error) {
	if fs.NArg() < 1 {
		return nil, "", fmt.Errorf("%w: %s", errUsage, usage)
	}
	path := fs.Arg(0)
	cloud, err := formats.ParseSplatPLYFile(path)
	if err != nil {
		return nil, "", err
	}
	return cloud, path, nil
}

// bindCloud wraps a cloud in an in-memory host, with per-splat estimates
// when the cloud carries scales. The returned Memory sets the pose.
func bindCloud(cloud *formats.SplatCloud) (host.Host, *host.Memory) {
	if cloud.HasScales() {
		sm := host.NewSplatMemory(cloud.Positions, lod.BaseScales(cloud.Scales))
		return sm, sm.Memory
	}
	m := host.NewMemory(cloud.Positions)
	return m, m
}

func frameOptions(cfg *config.Config) frame.Options {
	return frame.Options{
		LODEnabled: cfg.LOD.Enabled,
		Params:     cfg.LOD.Params(),
		Filter:     frame.FilterForRadius(cfg.LOD.FilterRadius),
	}
}

func cmdInfo(w io.Writer, args []string) error {
	fs, cfg, err := setup("info", args, nil)
	if err != nil {
		return err
	}
	cloud, path, err := loadCloud(fs, "splatlod info <file.ply>")
	if err != nil {
		return err
	}

	opts := cfg.Grid.BuildOptions()
	start := time.Now()
	g := opts.Build(cloud.Positions)
	took := time.Since(start)
	s := g.Stats()

	fmt.Fprintf(w, "File:     %s\n", path)
	fmt.Fprintf(w, "Points:   %d\n", cloud.Count)
	fmt.Fprintf(w, "Scales:   %v\n", cloud.HasScales())
	fmt.Fprintf(w, "Bounds:   %s\n", formatBounds(g.Bounds))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Grid (cell %.3g, max repr %d, built in %s):\n", opts.CellSize, opts.MaxReprPerCell, took.Round(time.Microsecond))
	fmt.Fprintf(w, "  Cells:           %d\n", s.Cells)
	fmt.Fprintf(w, "  Max members:     %d\n", s.MaxMembers)
	fmt.Fprintf(w, "  Mean members:    %.2f\n", s.MeanMembers)
	fmt.Fprintf(w, "  Cells with repr: %d\n", s.CellsWithRepr)
	fmt.Fprintf(w, "  Representatives: %d\n", s.TotalRepresentatives)
	fmt.Fprintf(w, "  Snapshot key:    %016x\n", gridcache.Key(cloud.Positions, opts))
	return nil
}

func cmdBuild(w io.Writer, args []string) error {
	var out string
	fs, cfg, err := setup("build", args, func(fs *flag.FlagSet) {
		fs.StringVar(&out, "o", "", "Write the snapshot here instead of the cache directory")
	})
	if err != nil {
		return err
	}
	cloud, _, err := loadCloud(fs, "splatlod build [-o out.zst] <file.ply>")
	if err != nil {
		return err
	}

	opts := cfg.Grid.BuildOptions()
	g := opts.Build(cloud.Positions)
	key := gridcache.Key(cloud.Positions, opts)
	if out == "" {
		out = gridcache.Cache{Dir: cfg.CacheDir()}.Path(key)
	}
	if err := gridcache.Save(out, key, opts, g); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote: %s (key %016x, %d cells)\n", out, key, len(g.Cells))
	return nil
}

// parseVec3 parses "x,y,z".
func parseVec3(s string) (math.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		v[i] = f
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func cmdSelect(w io.Writer, args []string) error {
	var (
		pos, lookAt string
		fx, fovDeg  float64
		height      int
		printLimit  int
	)
	fs, cfg, err := setup("select", args, func(fs *flag.FlagSet) {
		fs.StringVar(&pos, "pos", "0,0,0", "Camera position x,y,z")
		fs.StringVar(&lookAt, "look-at", "", "Point the camera faces, for the reported yaw")
		fs.Float64Var(&fx, "fx", 0, "Focal length in pixels (0 = derive from -fov and -h)")
		fs.Float64Var(&fovDeg, "fov", 60, "Vertical field of view in degrees")
		fs.IntVar(&height, "h", 720, "Viewport height in pixels")
		fs.IntVar(&printLimit, "print", 0, "Print up to N selected indices")
	})
	if err != nil {
		return err
	}
	cloud, _, err := loadCloud(fs, "splatlod select -pos x,y,z <file.ply>")
	if err != nil {
		return err
	}

	p, err := parseVec3(pos)
	if err != nil {
		return fmt.Errorf("-pos: %w", err)
	}
	if fx <= 0 {
		fx = host.FocalLength(fovDeg, height)
	}
	cam := lod.CameraPose{Position: p, FX: fx}
	if lookAt != "" {
		target, err := parseVec3(lookAt)
		if err != nil {
			return fmt.Errorf("-look-at: %w", err)
		}
		cam.Yaw = host.YawFromForward(target.Sub(p))
	}

	h, mem := bindCloud(cloud)
	mem.Pose = cam
	b, err := host.Bind(h)
	if err != nil {
		return err
	}
	d, err := frame.New(b, frame.Config{Build: cfg.Grid.BuildOptions()})
	if err != nil {
		return err
	}

	rep := d.Tick(time.Now(), frameOptions(cfg))
	if rep.Err != nil {
		return rep.Err
	}

	fmt.Fprintf(w, "Camera:  %s fx=%.1f yaw=%.3f\n", formatVec(cam.Position), cam.FX, cam.Yaw)
	fmt.Fprintf(w, "Drawn:   %d / %d (LOD %s)\n", rep.Drawn, rep.Total, onOff(rep.LODEnabled))
	writeBuckets(w, rep.Buckets)

	if printLimit > 0 {
		drawn := mem.Drawn()
		if len(drawn) > printLimit {
			drawn = drawn[:printLimit]
		}
		strs := make([]string, len(drawn))
		for i, idx := range drawn {
			strs[i] = strconv.FormatUint(uint64(idx), 10)
		}
		fmt.Fprintf(w, "Indices: %s\n", strings.Join(strs, " "))
	}
	return nil
}

func cmdBench(w io.Writer, args []string) error {
	var (
		n      int
		frames int
		seed   int64
		radius float64
	)
	fs, cfg, err := setup("bench", args, func(fs *flag.FlagSet) {
		fs.IntVar(&n, "n", 100000, "Synthetic point count when no file is given")
		fs.IntVar(&frames, "frames", 240, "Frames to simulate")
		fs.Int64Var(&seed, "seed", 1, "Synthetic cloud seed")
		fs.Float64Var(&radius, "orbit", 0, "Orbit radius (0 = from bounds)")
	})
	if err != nil {
		return err
	}
	if frames <= 0 {
		return fmt.Errorf("%w: -frames must be positive", errUsage)
	}

	var cloud *formats.SplatCloud
	if fs.NArg() > 0 {
		if cloud, _, err = loadCloud(fs, ""); err != nil {
			return err
		}
	} else {
		cloud = synthCloud(rand.New(rand.NewSource(seed)), n)
	}

	h, mem := bindCloud(cloud)
	b, err := host.Bind(h)
	if err != nil {
		return err
	}
	d, err := frame.New(b, frame.Config{Build: cfg.Grid.BuildOptions()})
	if err != nil {
		return err
	}
	buildStart := time.Now()
	if err := d.Rebuild(); err != nil {
		return err
	}
	buildTook := time.Since(buildStart)

	bounds := d.Grid().Bounds
	center := bounds.Center()
	if radius <= 0 {
		radius = bounds.Size().Length() * 0.6
	}
	fx := host.FocalLength(cfg.Viewer.FOVDeg, cfg.Viewer.Height)
	opts := frameOptions(cfg)

	elapsed := make([]time.Duration, 0, frames)
	var drawnSum int
	var buckets lod.BucketCounts
	now := time.Now()
	for f := 0; f < frames; f++ {
		angle := 2 * gomath.Pi * float64(f) / float64(frames)
		p := center.Add(math.Vec3{X: radius * gomath.Cos(angle), Y: radius * 0.25, Z: radius * gomath.Sin(angle)})
		mem.Pose = lod.CameraPose{Position: p, FX: fx, Yaw: host.YawFromForward(center.Sub(p))}

		rep := d.Tick(now, opts)
		if rep.Err != nil {
			return fmt.Errorf("frame %d: %w", f, rep.Err)
		}
		now = now.Add(16 * time.Millisecond)
		elapsed = append(elapsed, rep.Elapsed)
		drawnSum += rep.Drawn
		for i := range buckets.Cells {
			buckets.Cells[i] += rep.Buckets.Cells[i]
			buckets.Points[i] += rep.Buckets.Points[i]
		}
	}

	sort.Slice(elapsed, func(i, j int) bool { return elapsed[i] < elapsed[j] })
	var total time.Duration
	for _, e := range elapsed {
		total += e
	}

	fmt.Fprintf(w, "Points:  %d (grid %d cells, built in %s)\n", cloud.Count, len(d.Grid().Cells), buildTook.Round(time.Microsecond))
	fmt.Fprintf(w, "Frames:  %d, orbit radius %.2f\n", frames, radius)
	fmt.Fprintf(w, "Tick:    mean %s  p50 %s  p95 %s  max %s\n",
		(total / time.Duration(frames)).Round(time.Microsecond),
		percentile(elapsed, 0.50).Round(time.Microsecond),
		percentile(elapsed, 0.95).Round(time.Microsecond),
		elapsed[len(elapsed)-1].Round(time.Microsecond))
	fmt.Fprintf(w, "Drawn:   mean %d / %d\n", drawnSum/frames, cloud.Count)
	writeBuckets(w, buckets)
	return nil
}

func cmdGen(w io.Writer, args []string) error {
	var (
		n    int
		seed int64
		out  string
	)
	_, _, err := setup("gen", args, func(fs *flag.FlagSet) {
		fs.IntVar(&n, "n", 100000, "Point count")
		fs.Int64Var(&seed, "seed", 1, "Random seed")
		fs.StringVar(&out, "o", "", "Output PLY path")
	})
	if err != nil {
		return err
	}
	if out == "" || n <= 0 {
		return fmt.Errorf("%w: splatlod gen -n N -o <file.ply>", errUsage)
	}

	cloud := synthCloud(rand.New(rand.NewSource(seed)), n)
	if err := formats.WriteSplatPLYFile(out, cloud); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote: %s (%d points)\n", out, cloud.Count)
	return nil
}

func cmdConfig(w io.Writer, args []string) error {
	var out string
	_, cfg, err := setup("config", args, func(fs *flag.FlagSet) {
		fs.StringVar(&out, "o", "", "Save to this path instead of printing")
	})
	if err != nil {
		return err
	}
	if out != "" {
		if err := cfg.SaveTo(out); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote: %s\n", out)
		return nil
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// percentile returns the q-quantile of sorted.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(q * float64(len(sorted)-1))
	return sorted[i]
}

func writeBuckets(w io.Writer, b lod.BucketCounts) {
	fmt.Fprintln(w, "Buckets:")
	for _, bucket := range []lod.Bucket{lod.BucketNear, lod.BucketMid, lod.BucketFar} {
		fmt.Fprintf(w, "  %-5s cells %-8d points %d\n", bucket, b.Cells[bucket], b.Points[bucket])
	}
}

func formatVec(v math.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func formatBounds(b math.AABB) string {
	if b.IsEmpty() {
		return "empty"
	}
	return formatVec(b.Min) + " - " + formatVec(b.Max)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
