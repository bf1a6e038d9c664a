// Package picking casts view rays and finds the grid cells they hit.
package picking

import (
	gomath "math"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

// Ray is a half-line from Origin along the unit vector Direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point t units along the ray.
func (r Ray) At(t float64) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenRay returns the ray through pixel (x, y) of a width x height
// viewport for a pinhole camera at eye with the given forward and right
// unit vectors and vertical field of view.
func ScreenRay(eye, forward, right math.Vec3, fovYDeg, x, y, width, height float64) Ray {
	if width <= 0 || height <= 0 {
		return Ray{Origin: eye, Direction: forward}
	}
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height
	tanHalf := gomath.Tan(fovYDeg * gomath.Pi / 360)
	aspect := width / height

	up := right.Cross(forward)
	dir := forward.
		Add(right.Scale(ndcX * tanHalf * aspect)).
		Add(up.Scale(ndcY * tanHalf))
	return Ray{Origin: eye, Direction: dir.Normalize()}
}

// IntersectAABB returns the distance along r to box. A ray starting inside
// the box reports the exit distance.
func (r Ray) IntersectAABB(box math.AABB) (t float64, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := gomath.Inf(-1)
	tmax := gomath.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := r.Origin.Axis(axis)
		d := r.Direction.Axis(axis)
		lo, hi := box.Min.Axis(axis), box.Max.Axis(axis)
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = gomath.Max(tmin, t1)
		tmax = gomath.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// PickCell returns the index of the nearest cell r enters, skipping cells
// that contain the ray origin. It returns -1 when nothing is hit.
func PickCell(r Ray, cells []lod.Cell) (index int, t float64) {
	index, t = -1, gomath.Inf(1)
	for i := range cells {
		b := cells[i].Bounds
		if b.Contains(r.Origin) {
			continue
		}
		if d, ok := r.IntersectAABB(b); ok && d < t {
			index, t = i, d
		}
	}
	return index, t
}

// Standoff returns the fly-to target that stops distance units short of
// the hit at t, never behind the ray origin.
func Standoff(r Ray, t, distance float64) math.Vec3 {
	return r.At(gomath.Max(0, t-distance))
}
