// Package minimap maps between world coordinates and a small top-down
// overview of the scene, and turns clicks on it into camera flights.
package minimap

import (
	"errors"
	"fmt"
	gomath "math"
	"strings"

	"github.com/Faultbox/splatlod/internal/host"
	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

// DefaultSize is the width and height of the overview in pixels.
const DefaultSize = 240

// FOVHalfAngle is the half-angle of the view wedge drawn at the camera marker.
const FOVHalfAngle = gomath.Pi / 6

// ErrUnknownAxis is returned by ParseAxis.
var ErrUnknownAxis = errors.New("unknown minimap axis")

// Axis selects which world plane the overview shows. X is always horizontal.
type Axis uint8

const (
	AxisXY Axis = iota // vertical axis is world Y; flights keep the camera Z
	AxisXZ             // vertical axis is world Z; flights keep the camera Y
)

// String returns the axis name.
func (a Axis) String() string {
	switch a {
	case AxisXY:
		return "XY"
	case AxisXZ:
		return "XZ"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ParseAxis parses "XY" or "XZ", case-insensitively.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "XY":
		return AxisXY, nil
	case "XZ":
		return AxisXZ, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// Projection maps a scene AABB onto a Width x Height pixel rectangle.
type Projection struct {
	Bounds math.AABB
	Axis   Axis
	Width  int
	Height int
}

func (p Projection) secondAxis() int {
	if p.Axis == AxisXY {
		return 1
	}
	return 2
}

// Second returns the coordinate of v shown on the vertical axis.
func (p Projection) Second(v math.Vec3) float64 {
	return v.Axis(p.secondAxis())
}

// span reports the extent of [lo, hi], or false when it cannot be divided by.
func span(lo, hi float64) (float64, bool) {
	d := hi - lo
	if !(d > 0) || gomath.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}

// WorldToMini converts world (x, second) to overview pixels. A degenerate
// extent maps to the centre of that axis.
func (p Projection) WorldToMini(x, second float64) (u, v float64) {
	return toMini(x, p.Bounds.Min.X, p.Bounds.Max.X, p.Width),
		toMini(second, p.Bounds.Min.Axis(p.secondAxis()), p.Bounds.Max.Axis(p.secondAxis()), p.Height)
}

func toMini(w, lo, hi float64, size int) float64 {
	d, ok := span(lo, hi)
	if !ok {
		return float64(size) / 2
	}
	return (w - lo) / d * float64(size)
}

// MiniToWorld converts overview pixels to world (x, second). Pixels outside
// the overview are clamped to its edge. A degenerate extent maps to the
// middle of the bounds on that axis.
func (p Projection) MiniToWorld(u, v float64) (x, second float64) {
	return toWorld(u, p.Bounds.Min.X, p.Bounds.Max.X, p.Width),
		toWorld(v, p.Bounds.Min.Axis(p.secondAxis()), p.Bounds.Max.Axis(p.secondAxis()), p.Height)
}

func toWorld(px, lo, hi float64, size int) float64 {
	d, ok := span(lo, hi)
	if !ok || size <= 0 {
		if gomath.IsInf(lo, 0) || gomath.IsInf(hi, 0) {
			return 0
		}
		return (lo + hi) / 2
	}
	t := gomath.Max(0, gomath.Min(px/float64(size), 1))
	return lo + t*d
}

// Pick returns the fly-to target for a click at (u, v). The coordinate not
// shown on the overview is taken from the camera.
func (p Projection) Pick(u, v float64, camera math.Vec3) math.Vec3 {
	x, second := p.MiniToWorld(u, v)
	if p.Axis == AxisXY {
		return math.Vec3{X: x, Y: second, Z: camera.Z}
	}
	return math.Vec3{X: x, Y: camera.Y, Z: second}
}

// Marker is the camera as drawn on the overview.
type Marker struct {
	U, V float64
	Yaw  float64
}

// Minimap is a projection plus the last camera marker.
type Minimap struct {
	Projection

	marker    Marker
	hasMarker bool
}

// New returns a square overview of size pixels over bounds.
func New(bounds math.AABB, axis Axis, size int) *Minimap {
	if size <= 0 {
		size = DefaultSize
	}
	return &Minimap{Projection: Projection{Bounds: bounds, Axis: axis, Width: size, Height: size}}
}

// SetBounds replaces the projected bounds, as after a grid rebuild.
func (m *Minimap) SetBounds(bounds math.AABB) {
	m.Bounds = bounds
}

// SetCamera moves the camera marker.
func (m *Minimap) SetCamera(cam lod.CameraPose) {
	u, v := m.WorldToMini(cam.Position.X, m.Second(cam.Position))
	m.marker = Marker{U: u, V: v, Yaw: cam.Yaw}
	m.hasMarker = true
}

// Marker returns the last camera marker, if any.
func (m *Minimap) Marker() (Marker, bool) {
	return m.marker, m.hasMarker
}

// Click flies the bound host's camera to the point under (u, v).
func (m *Minimap) Click(u, v float64, b *host.Binding) (math.Vec3, error) {
	cam, err := b.Host().CameraPose()
	if err != nil {
		return math.Vec3{}, fmt.Errorf("minimap click: %w", err)
	}
	target := m.Pick(u, v, cam.Position)
	if err := b.FlyTo(target, host.DefaultFlyDuration); err != nil {
		return target, fmt.Errorf("minimap click: %w", err)
	}
	return target, nil
}
