package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

func TestAppendBox(t *testing.T) {
	b := math.AABB{Min: math.Vec3{X: 1, Y: 2, Z: 3}, Max: math.Vec3{X: 4, Y: 5, Z: 6}}
	v := AppendBox(nil, b)
	require.Len(t, v, 3*BoxVertexCount)
	for i := 0; i < len(v); i += 3 {
		assert.Contains(t, []float32{1, 4}, v[i])
		assert.Contains(t, []float32{2, 5}, v[i+1])
		assert.Contains(t, []float32{3, 6}, v[i+2])
	}
}

func TestCellWireframe_Buckets(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		10, 0, 0,
		100, 0, 0,
		101, 0, 0,
	}
	g := lod.BuildGrid(positions, 1, 8)
	p := lod.Params{NearDist: 5, MidDist: 50}

	var w CellWireframe
	w.Build(g.Cells, lod.CameraPose{}, p, 0)
	assert.Equal(t, 1, w.Boxes(lod.BucketNear))
	assert.Equal(t, 1, w.Boxes(lod.BucketMid))
	assert.Equal(t, 2, w.Boxes(lod.BucketFar))

	w.Build(g.Cells, lod.CameraPose{}, p, 1)
	assert.Equal(t, 1, w.Boxes(lod.BucketFar))
}

func TestScreenshots_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshots(dir, "splat")
	s.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	// 1x2 image: bottom row red, top row blue as OpenGL returns them.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	name, err := s.Save(pixels, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "splat_2025-03-01_12-00-00.000.png"), name)

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	r, _, b, _ := img.At(0, 0).RGBA()
	assert.Zero(t, r)
	assert.NotZero(t, b, "top row must come from the last GL row")

	_, err = s.Save(pixels, 2, 2)
	assert.Error(t, err)
}
