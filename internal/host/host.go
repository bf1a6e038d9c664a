// Package host defines what a renderer must provide to the LOD frame loop.
//
// A host is required to expose the point positions, the current camera pose
// and a sink for the selected indices. Screen-size estimation and camera
// flights are optional capabilities discovered once by Bind.
package host

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

// Host errors.
var (
	ErrNilHost = errors.New("nil host")
	ErrNoFlyTo = errors.New("host does not support camera flights")
)

// DefaultFlyDuration is the flight time used by minimap clicks.
const DefaultFlyDuration = 900 * time.Millisecond

// Host is the required capability surface.
type Host interface {
	// CameraPose returns the pose for the current frame.
	CameraPose() (lod.CameraPose, error)

	// Positions returns the flat x,y,z buffer. It may be empty until the
	// scene has loaded. The caller never mutates it.
	Positions() []float32

	// SetDrawIndices replaces the set of points to draw.
	SetDrawIndices(indices []uint32) error
}

// ScreenSizer is implemented by hosts that can estimate per-point screen
// size better than the fallback formula.
type ScreenSizer interface {
	EstimateScreenSize(index uint32) (float64, error)
}

// Flyer is implemented by hosts that can animate the camera to a target.
type Flyer interface {
	FlyTo(target math.Vec3, d time.Duration)
}

// Binding is a host with its optional capabilities resolved.
type Binding struct {
	host  Host
	sizer ScreenSizer
	flyer Flyer
}

// Bind inspects h once and records which optional capabilities it offers.
func Bind(h Host) (*Binding, error) {
	if h == nil {
		return nil, ErrNilHost
	}
	b := &Binding{host: h}
	if s, ok := h.(ScreenSizer); ok {
		b.sizer = s
	}
	if f, ok := h.(Flyer); ok {
		b.flyer = f
	}
	return b, nil
}

// Host returns the bound host.
func (b *Binding) Host() Host {
	return b.host
}

// HasScreenSizer reports whether the host estimates screen sizes itself.
func (b *Binding) HasScreenSizer() bool {
	return b.sizer != nil
}

// CanFly reports whether the host supports FlyTo.
func (b *Binding) CanFly() bool {
	return b.flyer != nil
}

// Estimator returns the host's estimator when it has one, otherwise the
// fallback formula over positions for cam.
func (b *Binding) Estimator(positions []float32, cam lod.CameraPose) lod.Estimator {
	if b.sizer != nil {
		return b.sizer
	}
	return lod.FallbackEstimator(positions, cam, 0)
}

// FlyTo moves the camera to target over d, or returns ErrNoFlyTo.
func (b *Binding) FlyTo(target math.Vec3, d time.Duration) error {
	if b.flyer == nil {
		return ErrNoFlyTo
	}
	if !target.IsFinite() {
		return fmt.Errorf("%w: fly-to target %v", lod.ErrMalformedPose, target)
	}
	b.flyer.FlyTo(target, d)
	return nil
}

// FocalLength converts a vertical field of view in degrees and a viewport
// height in pixels to a focal length in pixels. The vertical focal length
// stands in for the horizontal one, which is close enough for thresholding.
func FocalLength(fovYDeg float64, heightPx int) float64 {
	if heightPx <= 0 || fovYDeg <= 0 || fovYDeg >= 180 {
		return 0
	}
	fovY := fovYDeg * gomath.Pi / 180
	return 0.5 * float64(heightPx) / gomath.Tan(0.5*fovY)
}

// YawFromForward returns the heading of a forward vector in the XZ plane,
// atan2(x, z).
func YawFromForward(forward math.Vec3) float64 {
	return gomath.Atan2(forward.X, forward.Z)
}
