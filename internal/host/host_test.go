package host

import (
	"errors"
	gomath "math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

func TestBind_Nil(t *testing.T) {
	_, err := Bind(nil)
	assert.ErrorIs(t, err, ErrNilHost)
}

// bareHost implements only the required surface.
type bareHost struct{}

func (bareHost) CameraPose() (lod.CameraPose, error) { return lod.CameraPose{}, nil }
func (bareHost) Positions() []float32                { return []float32{0, 0, 10} }
func (bareHost) SetDrawIndices([]uint32) error       { return nil }

func TestBind_BareHost(t *testing.T) {
	b, err := Bind(bareHost{})
	require.NoError(t, err)
	assert.False(t, b.HasScreenSizer())
	assert.False(t, b.CanFly())
	assert.ErrorIs(t, b.FlyTo(math.Vec3{}, time.Second), ErrNoFlyTo)

	// Fallback: 1000 * 0.02 / 10.
	px, err := b.Estimator(b.Host().Positions(), lod.CameraPose{}).EstimateScreenSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, px, 1e-9)
}

func TestBind_SplatMemory(t *testing.T) {
	m := NewSplatMemory([]float32{0, 0, 10}, []float32{0.5})
	m.Pose.FX = 100

	b, err := Bind(m)
	require.NoError(t, err)
	assert.True(t, b.HasScreenSizer())
	assert.True(t, b.CanFly())

	px, err := b.Estimator(m.Positions(), m.Pose).EstimateScreenSize(0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, px, 1e-9)

	_, err = b.Estimator(m.Positions(), m.Pose).EstimateScreenSize(4)
	assert.ErrorIs(t, err, lod.ErrIndexOutOfRange)
}

func TestBinding_FlyTo(t *testing.T) {
	m := NewMemory(nil)
	b, err := Bind(m)
	require.NoError(t, err)

	target := math.Vec3{X: 1, Y: 2, Z: 3}
	require.NoError(t, b.FlyTo(target, DefaultFlyDuration))
	assert.Equal(t, target, m.Pose.Position)
	assert.Equal(t, []math.Vec3{target}, m.Flights())

	err = b.FlyTo(math.Vec3{X: gomath.NaN()}, time.Second)
	assert.ErrorIs(t, err, lod.ErrMalformedPose)
	assert.Len(t, m.Flights(), 1)
}

func TestMemory(t *testing.T) {
	m := NewMemory([]float32{1, 2, 3})
	buf := []uint32{4, 5}
	require.NoError(t, m.SetDrawIndices(buf))
	buf[0] = 9
	assert.Equal(t, []uint32{4, 5}, m.Drawn(), "draw set must be copied")
	assert.Equal(t, 1, m.DrawCalls())

	m.PoseErr = errors.New("camera not ready")
	_, err := m.CameraPose()
	assert.Error(t, err)

	m.SetPositions(nil)
	assert.Empty(t, m.Positions())
}

func TestFocalLength(t *testing.T) {
	// tan(45deg) = 1, so fx = h/2.
	assert.InDelta(t, 540.0, FocalLength(90, 1080), 1e-9)
	assert.InDelta(t, 935.3074360871938, FocalLength(60, 1080), 1e-6)
	assert.Zero(t, FocalLength(60, 0))
	assert.Zero(t, FocalLength(0, 1080))
	assert.Zero(t, FocalLength(180, 1080))
}

func TestYawFromForward(t *testing.T) {
	assert.InDelta(t, 0.0, YawFromForward(math.Vec3{Z: 1}), 1e-12)
	assert.InDelta(t, gomath.Pi/2, YawFromForward(math.Vec3{X: 1}), 1e-12)
	assert.InDelta(t, gomath.Pi, YawFromForward(math.Vec3{Z: -1}), 1e-12)
}
