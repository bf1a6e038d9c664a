package host

import (
	"time"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

// Memory is a host backed by plain slices. It records every draw call and
// moves the camera instantly on FlyTo.
type Memory struct {
	Pose    lod.CameraPose
	PoseErr error // returned by CameraPose when set

	positions []float32
	drawn     []uint32
	drawCalls int
	flights   []math.Vec3
}

// NewMemory returns a host over positions with the camera at the origin.
func NewMemory(positions []float32) *Memory {
	return &Memory{positions: positions}
}

// CameraPose returns Pose, or PoseErr when set.
func (m *Memory) CameraPose() (lod.CameraPose, error) {
	if m.PoseErr != nil {
		return lod.CameraPose{}, m.PoseErr
	}
	return m.Pose, nil
}

// Positions returns the point buffer.
func (m *Memory) Positions() []float32 {
	return m.positions
}

// SetPositions replaces the point buffer, as when a new scene loads.
func (m *Memory) SetPositions(positions []float32) {
	m.positions = positions
}

// SetDrawIndices copies indices as the current draw set.
func (m *Memory) SetDrawIndices(indices []uint32) error {
	m.drawn = append(m.drawn[:0], indices...)
	m.drawCalls++
	return nil
}

// Drawn returns the last draw set.
func (m *Memory) Drawn() []uint32 {
	return m.drawn
}

// DrawCalls returns how many times SetDrawIndices was called.
func (m *Memory) DrawCalls() int {
	return m.drawCalls
}

// FlyTo jumps the camera to target.
func (m *Memory) FlyTo(target math.Vec3, _ time.Duration) {
	m.Pose.Position = target
	m.flights = append(m.flights, target)
}

// Flights returns every FlyTo target in call order.
func (m *Memory) Flights() []math.Vec3 {
	return m.flights
}

// SplatMemory is a Memory that also knows per-splat sizes and therefore
// estimates screen size itself.
type SplatMemory struct {
	*Memory
	BaseScale []float32 // exp(max log-scale) per splat, see lod.BaseScales
}

// NewSplatMemory returns a host over positions and precomputed base scales.
func NewSplatMemory(positions, baseScale []float32) *SplatMemory {
	return &SplatMemory{Memory: NewMemory(positions), BaseScale: baseScale}
}

// EstimateScreenSize applies the splat formula at the current pose.
func (m *SplatMemory) EstimateScreenSize(index uint32) (float64, error) {
	return lod.SplatEstimator(m.positions, m.BaseScale, m.Pose).EstimateScreenSize(index)
}
