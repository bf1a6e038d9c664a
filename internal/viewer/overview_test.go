package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/internal/minimap"
	"github.com/Faultbox/splatlod/pkg/math"
)

func TestOverviewMatrix_MatchesProjection(t *testing.T) {
	bounds := math.AABB{Min: math.Vec3{X: -10, Y: 0, Z: 5}, Max: math.Vec3{X: 30, Y: 8, Z: 25}}
	for _, axis := range []minimap.Axis{minimap.AxisXY, minimap.AxisXZ} {
		t.Run(axis.String(), func(t *testing.T) {
			p := minimap.Projection{Bounds: bounds, Axis: axis, Width: 200, Height: 100}
			m := OverviewMatrix(p)
			for _, w := range []math.Vec3{bounds.Min, bounds.Max, bounds.Center(), {X: 0, Y: 2, Z: 10}} {
				u, v := p.WorldToMini(w.X, p.Second(w))
				ndc := m.TransformPoint(w)
				assert.InDelta(t, 2*u/200-1, ndc.X, 1e-5)
				assert.InDelta(t, 1-2*v/100, ndc.Y, 1e-5)
			}
		})
	}
}

func TestOverviewMatrix_DegenerateBoundsCentre(t *testing.T) {
	p := minimap.Projection{Bounds: math.AABB{Min: math.Vec3{X: 3, Y: 3, Z: 3}, Max: math.Vec3{X: 3, Y: 3, Z: 3}}, Axis: minimap.AxisXY, Width: 100, Height: 100}
	ndc := OverviewMatrix(p).TransformPoint(math.Vec3{X: 3, Y: 3, Z: 3})
	assert.InDelta(t, 0, ndc.X, 1e-9)
	assert.InDelta(t, 0, ndc.Y, 1e-9)
}

func TestMarkerNDC(t *testing.T) {
	m := minimap.New(math.AABB{Max: math.Vec3{X: 10, Y: 10, Z: 10}}, minimap.AxisXZ, 100)
	m.SetCamera(lod.CameraPose{Position: math.Vec3{X: 10, Y: 4, Z: 0}})
	mk, ok := m.Marker()
	assert.True(t, ok)
	assert.Equal(t, [2]float32{1, 1}, MarkerNDC(m.Projection, mk))

	assert.Equal(t, [2]float32{}, MarkerNDC(minimap.Projection{}, mk))
}

func TestHit(t *testing.T) {
	rect := OverviewRect(100)
	tests := []struct {
		x, y int
		u, v float64
		ok   bool
	}{
		{OverviewMargin, OverviewMargin, 0, 0, true},
		{OverviewMargin + 50, OverviewMargin + 99, 50, 99, true},
		{OverviewMargin + 100, OverviewMargin, 0, 0, false},
		{0, 0, 0, 0, false},
	}
	for _, tt := range tests {
		u, v, ok := Hit(rect, tt.x, tt.y)
		assert.Equal(t, tt.ok, ok, "(%d, %d)", tt.x, tt.y)
		assert.Equal(t, tt.u, u)
		assert.Equal(t, tt.v, v)
	}
}

func TestScale(t *testing.T) {
	assert.Equal(t, Rect{X: 24, Y: 24, W: 480, H: 480}, Scale(OverviewRect(240), 2, 2))
}
