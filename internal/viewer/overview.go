package viewer

import (
	gomath "math"

	"github.com/Faultbox/splatlod/internal/minimap"
	"github.com/Faultbox/splatlod/pkg/math"
)

// OverviewMargin is the gap between the window corner and the overview.
const OverviewMargin = 12

// OverviewMatrix maps world points to normalised device coordinates of the
// overview viewport, matching minimap.Projection.WorldToMini with the
// vertical pixel axis pointing down. A degenerate extent maps to the centre.
func OverviewMatrix(p minimap.Projection) math.Mat4 {
	var m math.Mat4
	second := 1
	if p.Axis == minimap.AxisXZ {
		second = 2
	}

	if d := p.Bounds.Max.X - p.Bounds.Min.X; d > 0 && !gomath.IsInf(d, 0) {
		m[0] = float32(2 / d)
		m[12] = float32(-2*p.Bounds.Min.X/d - 1)
	}
	lo, hi := p.Bounds.Min.Axis(second), p.Bounds.Max.Axis(second)
	if d := hi - lo; d > 0 && !gomath.IsInf(d, 0) {
		m[second*4+1] = float32(-2 / d)
		m[13] = float32(1 + 2*lo/d)
	}
	m[15] = 1
	return m
}

// MarkerNDC converts an overview marker to normalised device coordinates.
func MarkerNDC(p minimap.Projection, mk minimap.Marker) [2]float32 {
	if p.Width <= 0 || p.Height <= 0 {
		return [2]float32{}
	}
	return [2]float32{
		float32(2*mk.U/float64(p.Width) - 1),
		float32(1 - 2*mk.V/float64(p.Height)),
	}
}

// Rect is a viewport with the origin at the top left.
type Rect struct {
	X, Y, W, H int
}

// OverviewRect places a size x size overview in the top-left corner.
func OverviewRect(size int) Rect {
	return Rect{X: OverviewMargin, Y: OverviewMargin, W: size, H: size}
}

// Hit converts window coordinates to overview pixels when (x, y) lies
// inside rect.
func Hit(rect Rect, x, y int) (u, v float64, ok bool) {
	if x < rect.X || y < rect.Y || x >= rect.X+rect.W || y >= rect.Y+rect.H {
		return 0, 0, false
	}
	return float64(x - rect.X), float64(y - rect.Y), true
}

// Scale multiplies a window-space rect by the drawable/window ratio.
func Scale(rect Rect, sx, sy float64) Rect {
	return Rect{
		X: int(float64(rect.X) * sx),
		Y: int(float64(rect.Y) * sy),
		W: int(float64(rect.W) * sx),
		H: int(float64(rect.H) * sy),
	}
}
