// Package viewer adapts the interactive point viewer to the host
// capability surface used by the frame driver.
package viewer

import (
	"errors"
	"time"

	"github.com/Faultbox/splatlod/internal/engine/camera"
	"github.com/Faultbox/splatlod/internal/host"
	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

// ErrNoCamera is returned by CameraPose before a camera is attached.
var ErrNoCamera = errors.New("viewer has no camera")

// Surface is the viewer side of the host capability surface: the fly camera
// supplies the pose, the draw mask receives the selection, and fly-to
// requests become camera flights.
type Surface struct {
	cam       *camera.FlyCamera
	positions []float32
	mask      *host.DrawMask

	// Height returns the drawable height in pixels for the focal length.
	Height func() int
	// Now is the clock used for mask throttling and flights.
	Now func() time.Time
}

// NewSurface returns a surface over positions. apply receives the draw
// state at most once per applyEvery.
func NewSurface(cam *camera.FlyCamera, positions []float32, applyEvery time.Duration, apply func([]uint8)) *Surface {
	return &Surface{
		cam:       cam,
		positions: positions,
		mask:      host.NewDrawMask(len(positions)/3, applyEvery, apply),
		Height:    func() int { return 0 },
		Now:       time.Now,
	}
}

// Mask returns the draw mask.
func (s *Surface) Mask() *host.DrawMask {
	return s.mask
}

// Pose converts the fly camera to a selection pose for a viewport heightPx
// pixels tall.
func Pose(cam *camera.FlyCamera, heightPx int) lod.CameraPose {
	return lod.CameraPose{
		Position: cam.Position,
		Yaw:      host.YawFromForward(cam.Forward()),
		FX:       host.FocalLength(cam.FOVDeg, heightPx),
	}
}

// CameraPose implements host.Host.
func (s *Surface) CameraPose() (lod.CameraPose, error) {
	if s.cam == nil {
		return lod.CameraPose{}, ErrNoCamera
	}
	return Pose(s.cam, s.Height()), nil
}

// Positions implements host.Host.
func (s *Surface) Positions() []float32 {
	return s.positions
}

// SetDrawIndices implements host.Host.
func (s *Surface) SetDrawIndices(indices []uint32) error {
	s.mask.Set(indices, s.Now())
	return nil
}

// FlyTo implements host.Flyer.
func (s *Surface) FlyTo(target math.Vec3, d time.Duration) {
	if s.cam != nil {
		s.cam.FlyTo(target, d, s.Now())
	}
}

// SplatSurface adds per-splat screen-size estimates to a Surface.
type SplatSurface struct {
	*Surface
	baseScale []float32
	est       lod.Estimator
}

// NewSplatSurface wraps s with base scales from lod.BaseScales.
func NewSplatSurface(s *Surface, baseScale []float32) *SplatSurface {
	return &SplatSurface{Surface: s, baseScale: baseScale}
}

// CameraPose implements host.Host and fixes the pose used by
// EstimateScreenSize until the next call.
func (s *SplatSurface) CameraPose() (lod.CameraPose, error) {
	cam, err := s.Surface.CameraPose()
	if err != nil {
		s.est = nil
		return cam, err
	}
	s.est = lod.SplatEstimator(s.positions, s.baseScale, cam)
	return cam, nil
}

// EstimateScreenSize implements host.ScreenSizer.
func (s *SplatSurface) EstimateScreenSize(index uint32) (float64, error) {
	if s.est == nil {
		if _, err := s.CameraPose(); err != nil {
			return 0, err
		}
	}
	return s.est.EstimateScreenSize(index)
}

// NewHost picks the surface variant for the data at hand: splats with
// scales estimate their own size, plain points use the fallback estimate.
func NewHost(s *Surface, logScales []float32) host.Host {
	if len(logScales) >= len(s.positions) && len(s.positions) > 0 {
		return NewSplatSurface(s, lod.BaseScales(logScales))
	}
	return s
}
