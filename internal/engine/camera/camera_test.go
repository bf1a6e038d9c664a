package camera

import (
	gomath "math"
	"testing"
	"time"

	"github.com/Faultbox/splatlod/internal/host"
	"github.com/Faultbox/splatlod/pkg/math"
)

func near(a, b float64) bool {
	return gomath.Abs(a-b) < 1e-9
}

func TestEaseInOut(t *testing.T) {
	tests := []struct {
		k, want float64
	}{
		{0, 0},
		{0.25, 0.125},
		{0.5, 0.5},
		{0.75, 0.875},
		{1, 1},
	}
	for _, tt := range tests {
		if got := EaseInOut(tt.k); !near(got, tt.want) {
			t.Errorf("EaseInOut(%v) = %v, want %v", tt.k, got, tt.want)
		}
	}
}

func TestFlight(t *testing.T) {
	start := time.Unix(10, 0)
	f := Flight{From: math.Vec3{}, To: math.Vec3{X: 10}, Start: start, Duration: time.Second}

	pos, done := f.At(start.Add(500 * time.Millisecond))
	if done || !near(pos.X, 5) {
		t.Errorf("midpoint = %v done=%v, want X=5", pos, done)
	}
	pos, done = f.At(start.Add(-time.Second))
	if done || pos.X != 0 {
		t.Errorf("before start = %v done=%v", pos, done)
	}
	pos, done = f.At(start.Add(2 * time.Second))
	if !done || pos.X != 10 {
		t.Errorf("after end = %v done=%v", pos, done)
	}

	instant := Flight{To: math.Vec3{Y: 3}}
	if pos, done := instant.At(start); !done || pos.Y != 3 {
		t.Errorf("zero-duration flight = %v done=%v", pos, done)
	}
}

func TestFlyCamera_FlyTo(t *testing.T) {
	c := NewFlyCamera(60)
	now := time.Unix(0, 0)
	target := math.Vec3{X: 4, Y: -2, Z: 8}

	c.FlyTo(target, host.DefaultFlyDuration, now)
	if !c.Flying() {
		t.Fatal("expected a flight in progress")
	}
	c.Update(now.Add(host.DefaultFlyDuration / 2))
	if !near(c.Position.X, 2) {
		t.Errorf("halfway X = %v, want 2", c.Position.X)
	}
	c.Update(now.Add(host.DefaultFlyDuration))
	if c.Flying() || c.Position != target {
		t.Errorf("flight should end at the target, got %v flying=%v", c.Position, c.Flying())
	}
}

func TestFlyCamera_YawMatchesForward(t *testing.T) {
	c := NewFlyCamera(60)
	for _, yaw := range []float64{0, 0.7, -2.1, 3} {
		c.Yaw = yaw
		c.Pitch = 0.4
		if got := host.YawFromForward(c.Forward()); !near(got, yaw) {
			t.Errorf("yaw %v: forward gives %v", yaw, got)
		}
		if !near(c.Forward().Length(), 1) {
			t.Errorf("forward not unit length at yaw %v", yaw)
		}
		if !near(c.Forward().Dot(c.Right()), 0) {
			t.Errorf("right not perpendicular at yaw %v", yaw)
		}
	}
}

func TestFlyCamera_HandleDragClampsPitch(t *testing.T) {
	c := NewFlyCamera(60)
	c.HandleDrag(0, -100000)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want clamp at %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, 100000)
	if c.Pitch != -c.MaxPitch {
		t.Errorf("pitch = %v, want clamp at %v", c.Pitch, -c.MaxPitch)
	}
}

func TestFlyCamera_Movement(t *testing.T) {
	c := NewFlyCamera(60)
	c.Speed = 2
	c.HandleMovement(1, 0, 0, time.Second)
	if !near(c.Position.Z, 2) || !near(c.Position.X, 0) {
		t.Errorf("forward move = %v, want Z=2", c.Position)
	}
	c.HandleMovement(0, 0, 1, 500*time.Millisecond)
	if !near(c.Position.Y, 1) {
		t.Errorf("up move = %v, want Y=1", c.Position)
	}
	c.HandleZoom(2)
	if !near(c.Position.Z, 4) {
		t.Errorf("zoom = %v, want Z=4", c.Position)
	}
}

func TestFlyCamera_Fit(t *testing.T) {
	c := NewFlyCamera(60)
	b := math.AABB{Min: math.Vec3{X: -10, Y: -10, Z: -10}, Max: math.Vec3{X: 10, Y: 10, Z: 10}}
	c.Fit(b)
	if b.Contains(c.Position) {
		t.Errorf("camera %v should start outside the bounds", c.Position)
	}
	toCenter := b.Center().Sub(c.Position).Normalize()
	if !near(toCenter.Dot(c.Forward()), 1) {
		t.Error("camera should look at the bounds center")
	}

	before := c.Position
	c.Fit(math.EmptyAABB())
	if c.Position != before {
		t.Error("fitting empty bounds must not move the camera")
	}
}
