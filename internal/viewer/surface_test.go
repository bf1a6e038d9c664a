package viewer

import (
	gomath "math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/splatlod/internal/engine/camera"
	"github.com/Faultbox/splatlod/internal/host"
	"github.com/Faultbox/splatlod/pkg/math"
)

func TestPose(t *testing.T) {
	cam := camera.NewFlyCamera(90)
	cam.Position = math.Vec3{X: 1, Y: 2, Z: 3}
	cam.Yaw = 0.7

	pose := Pose(cam, 600)
	assert.Equal(t, cam.Position, pose.Position)
	assert.InDelta(t, 0.7, pose.Yaw, 1e-9)
	assert.InDelta(t, 300, pose.FX, 1e-9)
}

func TestSurface_ImplementsHost(t *testing.T) {
	cam := camera.NewFlyCamera(60)
	s := NewSurface(cam, []float32{0, 0, 0, 1, 1, 1}, 0, nil)

	b, err := host.Bind(s)
	require.NoError(t, err)
	assert.True(t, b.CanFly())
	assert.False(t, b.HasScreenSizer())
}

func TestSurface_NoCamera(t *testing.T) {
	s := NewSurface(nil, nil, 0, nil)
	_, err := s.CameraPose()
	assert.ErrorIs(t, err, ErrNoCamera)
	s.FlyTo(math.Vec3{}, time.Second)
}

func TestSurface_SetDrawIndicesFeedsMask(t *testing.T) {
	var applied [][]uint8
	s := NewSurface(camera.NewFlyCamera(60), make([]float32, 12), 80*time.Millisecond, func(state []uint8) {
		applied = append(applied, append([]uint8(nil), state...))
	})
	now := time.Unix(10, 0)
	s.Now = func() time.Time { return now }

	require.NoError(t, s.SetDrawIndices([]uint32{1, 3}))
	require.Len(t, applied, 1)
	assert.Equal(t, []uint8{0, 1, 0, 1}, applied[0])

	now = now.Add(10 * time.Millisecond)
	require.NoError(t, s.SetDrawIndices([]uint32{0}))
	assert.Len(t, applied, 1, "second update inside the interval must be throttled")
	assert.True(t, s.Mask().Dirty())
	assert.Equal(t, []uint8{1, 0, 0, 0}, s.Mask().State())
}

func TestSurface_FlyToStartsFlight(t *testing.T) {
	cam := camera.NewFlyCamera(60)
	s := NewSurface(cam, nil, 0, nil)
	now := time.Unix(5, 0)
	s.Now = func() time.Time { return now }

	b, err := host.Bind(s)
	require.NoError(t, err)
	require.NoError(t, b.FlyTo(math.Vec3{X: 10}, time.Second))
	assert.True(t, cam.Flying())

	cam.Update(now.Add(2 * time.Second))
	assert.False(t, cam.Flying())
	assert.InDelta(t, 10, cam.Position.X, 1e-9)
}

func TestNewHost_PicksSplatSurface(t *testing.T) {
	positions := []float32{0, 0, 10, 0, 0, 20}
	logScales := []float32{
		float32(gomath.Log(0.1)), -5, -5,
		float32(gomath.Log(0.4)), -5, -5,
	}
	cam := camera.NewFlyCamera(90)
	s := NewSurface(cam, positions, 0, nil)
	s.Height = func() int { return 2000 }

	h := NewHost(s, logScales)
	b, err := host.Bind(h)
	require.NoError(t, err)
	require.True(t, b.HasScreenSizer())

	pose, err := h.CameraPose()
	require.NoError(t, err)
	require.InDelta(t, 1000, pose.FX, 1e-6)

	px, err := b.Estimator(positions, pose).EstimateScreenSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 10, px, 1e-3)
	px, err = b.Estimator(positions, pose).EstimateScreenSize(1)
	require.NoError(t, err)
	assert.InDelta(t, 20, px, 1e-3)

	plain := NewHost(s, nil)
	_, isSplat := plain.(*SplatSurface)
	assert.False(t, isSplat)
}
