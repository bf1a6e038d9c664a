// Package camera provides the free-flying viewer camera.
package camera

import (
	gomath "math"
	"time"

	"github.com/Faultbox/splatlod/pkg/math"
)

// FlyCamera is a position with yaw and pitch. Yaw 0 looks down +Z; yaw is
// measured toward +X, matching atan2(forward.x, forward.z).
type FlyCamera struct {
	Position math.Vec3
	Yaw      float64 // radians
	Pitch    float64 // radians, positive looks up

	FOVDeg float64
	Near   float64
	Far    float64

	// Speed is the movement speed in world units per second.
	Speed float64

	MaxPitch        float64
	DragSensitivity float64
	PanSensitivity  float64
	ZoomStep        float64 // fraction of Speed moved per wheel notch

	flight *Flight
}

// NewFlyCamera creates a camera at the origin looking down +Z.
func NewFlyCamera(fovDeg float64) *FlyCamera {
	return &FlyCamera{
		FOVDeg:          fovDeg,
		Near:            0.05,
		Far:             5000,
		Speed:           5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		PanSensitivity:  0.01,
		ZoomStep:        0.5,
	}
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := gomath.Cos(c.Pitch)
	return math.Vec3{
		X: gomath.Sin(c.Yaw) * cp,
		Y: gomath.Sin(c.Pitch),
		Z: gomath.Cos(c.Yaw) * cp,
	}
}

// Right returns the unit right direction on the horizontal plane.
func (c *FlyCamera) Right() math.Vec3 {
	return math.Vec3{X: -gomath.Cos(c.Yaw), Z: gomath.Sin(c.Yaw)}
}

var up = math.Vec3{Y: 1}

// ViewMatrix returns the world-to-view transform.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Position.Add(c.Forward()), up)
}

// ProjectionMatrix returns the perspective transform for the viewport aspect.
func (c *FlyCamera) ProjectionMatrix(width, height int) math.Mat4 {
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	return math.Perspective(c.FOVDeg*gomath.Pi/180, aspect, c.Near, c.Far)
}

// HandleDrag turns the camera by a mouse drag delta in pixels.
func (c *FlyCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= float64(deltaX) * c.DragSensitivity
	c.Pitch -= float64(deltaY) * c.DragSensitivity
	c.Pitch = gomath.Max(-c.MaxPitch, gomath.Min(c.Pitch, c.MaxPitch))
}

// HandlePan slides the camera sideways and vertically by a drag delta.
func (c *FlyCamera) HandlePan(deltaX, deltaY float32) {
	step := c.Speed * c.PanSensitivity
	c.Position = c.Position.
		Add(c.Right().Scale(-float64(deltaX) * step)).
		Add(up.Scale(float64(deltaY) * step))
}

// HandleZoom dollies along the view direction per wheel notch.
func (c *FlyCamera) HandleZoom(delta float32) {
	c.Position = c.Position.Add(c.Forward().Scale(float64(delta) * c.Speed * c.ZoomStep))
}

// HandleMovement moves the camera for dt given forward, right and up axes
// in [-1, 1].
func (c *FlyCamera) HandleMovement(forward, right, upAxis float64, dt time.Duration) {
	step := c.Speed * dt.Seconds()
	c.Position = c.Position.
		Add(c.Forward().Scale(forward * step)).
		Add(c.Right().Scale(right * step)).
		Add(up.Scale(upAxis * step))
}

// Fit places the camera outside bounds looking at their center and scales
// the movement speed to the scene.
func (c *FlyCamera) Fit(bounds math.AABB) {
	if bounds.IsEmpty() {
		return
	}
	center := bounds.Center()
	radius := bounds.Size().Length() / 2
	if radius <= 0 {
		radius = 1
	}
	c.Yaw = 0
	c.Pitch = -0.35
	c.Position = center.Sub(c.Forward().Scale(radius * 1.5))
	c.Speed = gomath.Max(radius/4, 0.5)
	c.Far = gomath.Max(radius*8, 100)
}

// FlyTo starts a flight to target. A flight in progress is replaced.
func (c *FlyCamera) FlyTo(target math.Vec3, d time.Duration, now time.Time) {
	c.flight = &Flight{From: c.Position, To: target, Start: now, Duration: d}
}

// Flying reports whether a flight is in progress.
func (c *FlyCamera) Flying() bool {
	return c.flight != nil
}

// Update advances any flight to now.
func (c *FlyCamera) Update(now time.Time) {
	if c.flight == nil {
		return
	}
	pos, done := c.flight.At(now)
	c.Position = pos
	if done {
		c.flight = nil
	}
}

// Flight is an eased move between two points.
type Flight struct {
	From, To math.Vec3
	Start    time.Time
	Duration time.Duration
}

// At returns the position at now and whether the flight has finished.
func (f *Flight) At(now time.Time) (math.Vec3, bool) {
	if f.Duration <= 0 {
		return f.To, true
	}
	k := float64(now.Sub(f.Start)) / float64(f.Duration)
	if k >= 1 {
		return f.To, true
	}
	if k < 0 {
		k = 0
	}
	return f.From.Lerp(f.To, EaseInOut(k)), false
}

// EaseInOut is the quadratic ease-in-out curve on [0, 1].
func EaseInOut(k float64) float64 {
	if k < 0.5 {
		return 2 * k * k
	}
	return -1 + (4-2*k)*k
}
