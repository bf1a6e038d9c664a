package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/splatlod/internal/config"
	"github.com/Faultbox/splatlod/internal/gridcache"
	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/formats"
	"github.com/Faultbox/splatlod/pkg/math"
)

// hermetic returns flags that keep a command away from user config and
// cache directories.
func hermetic(t *testing.T) (args []string, cacheDir string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "splatlod.yaml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o644))
	cacheDir = filepath.Join(dir, "grids")
	return []string{"-config", cfgPath, "-cache-dir", cacheDir}, cacheDir
}

func genCloud(t *testing.T, n int) string {
	t.Helper()
	args, _ := hermetic(t)
	out := filepath.Join(t.TempDir(), "cloud.ply")
	var buf bytes.Buffer
	require.NoError(t, cmdGen(&buf, append(args, "-n", strconv.Itoa(n), "-seed", "7", "-o", out)))
	assert.Contains(t, buf.String(), strconv.Itoa(n)+" points")
	return out
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		in      string
		want    math.Vec3
		wantErr bool
	}{
		{"1,2,3", math.Vec3{X: 1, Y: 2, Z: 3}, false},
		{" -1.5, 0 ,4e2", math.Vec3{X: -1.5, Y: 0, Z: 400}, false},
		{"1,2", math.Vec3{}, true},
		{"1,x,3", math.Vec3{}, true},
	}
	for _, tt := range tests {
		got, err := parseVec3(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestGen_WritesScales(t *testing.T) {
	path := genCloud(t, 2000)
	cloud, err := formats.ParseSplatPLYFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2000, cloud.Count)
	assert.True(t, cloud.HasScales())
}

func TestInfo(t *testing.T) {
	path := genCloud(t, 2000)
	args, _ := hermetic(t)

	var buf bytes.Buffer
	require.NoError(t, cmdInfo(&buf, append(args, path)))
	out := buf.String()
	assert.Contains(t, out, "Points:   2000")
	assert.Contains(t, out, "Scales:   true")
	assert.Contains(t, out, "Snapshot key:")
}

func TestBuild_WritesSnapshotIntoCache(t *testing.T) {
	path := genCloud(t, 2000)
	args, cacheDir := hermetic(t)

	var buf bytes.Buffer
	require.NoError(t, cmdBuild(&buf, append(args, "-cell-size", "2", path)))

	cloud, err := formats.ParseSplatPLYFile(path)
	require.NoError(t, err)
	opts := lod.BuildOptions{CellSize: 2, MaxReprPerCell: 32}
	key := gridcache.Key(cloud.Positions, opts)
	snap := gridcache.Cache{Dir: cacheDir}.Path(key)

	g, err := gridcache.Load(snap, key)
	require.NoError(t, err)
	assert.Equal(t, 2000, g.PointCount)
	assert.Contains(t, buf.String(), snap)
}

func TestSelect(t *testing.T) {
	path := genCloud(t, 2000)
	args, _ := hermetic(t)

	var buf bytes.Buffer
	require.NoError(t, cmdSelect(&buf, append(args, "-pos", "0,5,-60", "-look-at", "0,5,0", "-print", "3", path)))
	out := buf.String()
	assert.Contains(t, out, "Drawn:")
	assert.Contains(t, out, "/ 2000 (LOD on)")
	assert.Contains(t, out, "yaw=0.000")
	assert.Contains(t, out, "near")
	assert.Contains(t, out, "far")
}

func TestSelect_NoLODDrawsAll(t *testing.T) {
	path := genCloud(t, 2000)
	args, _ := hermetic(t)

	var buf bytes.Buffer
	require.NoError(t, cmdSelect(&buf, append(args, "-no-lod", path)))
	assert.Contains(t, buf.String(), "Drawn:   2000 / 2000 (LOD off)")
}

func TestSelect_Usage(t *testing.T) {
	args, _ := hermetic(t)
	err := cmdSelect(&bytes.Buffer{}, args)
	assert.ErrorIs(t, err, errUsage)

	err = cmdSelect(&bytes.Buffer{}, append(args, "-pos", "1,2", "missing.ply"))
	assert.Error(t, err)
}

func TestBench_Synthetic(t *testing.T) {
	args, _ := hermetic(t)

	var buf bytes.Buffer
	require.NoError(t, cmdBench(&buf, append(args, "-n", "3000", "-frames", "12")))
	out := buf.String()
	assert.Contains(t, out, "Points:  3000")
	assert.Contains(t, out, "Frames:  12")
	assert.Contains(t, out, "p95")

	assert.ErrorIs(t, cmdBench(&bytes.Buffer{}, append(args, "-frames", "0")), errUsage)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Equal(t, time.Duration(5), percentile(sorted, 0.5))
	assert.Equal(t, time.Duration(10), percentile(sorted, 1))
	assert.Zero(t, percentile(nil, 0.5))
}

func TestConfig_PrintAndSave(t *testing.T) {
	args, _ := hermetic(t)

	var buf bytes.Buffer
	require.NoError(t, cmdConfig(&buf, append(args, "-near", "3")))
	assert.Contains(t, buf.String(), "near_dist: 3")

	out := filepath.Join(t.TempDir(), "saved.yaml")
	buf.Reset()
	require.NoError(t, cmdConfig(&buf, append(args, "-mid", "55", "-o", out)))
	cfg, err := config.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 55.0, cfg.LOD.MidDist)
}
