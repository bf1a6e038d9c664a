package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, -4, 2}
	if got := a.Lerp(b, 0.5); got != (Vec3{5, -2, 1}) {
		t.Errorf("Lerp(0.5) = %v", got)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if (Vec3{math.NaN(), 0, 0}).IsFinite() {
		t.Error("NaN vector reported finite")
	}
	if (Vec3{0, math.Inf(-1), 0}).IsFinite() {
		t.Error("Inf vector reported finite")
	}
}

func TestAt(t *testing.T) {
	buf := []float32{1, 2, 3, 4, 5, 6}
	if got := At(buf, 1); got != (Vec3{4, 5, 6}) {
		t.Errorf("At(1) = %v", got)
	}
}

func TestEmptyAABB(t *testing.T) {
	b := EmptyAABB()
	if !b.IsEmpty() {
		t.Fatal("EmptyAABB should be empty")
	}
	b.Extend(Vec3{1, 2, 3})
	if b.IsEmpty() {
		t.Fatal("box should not be empty after Extend")
	}
	if b.Min != b.Max || b.Min != (Vec3{1, 2, 3}) {
		t.Errorf("single point box = %+v", b)
	}
}

func TestAABBDistance(t *testing.T) {
	b := CubeAt(Vec3{0, 0, 0}, 1)

	tests := []struct {
		name string
		p    Vec3
		want float64
	}{
		{"inside", Vec3{0.5, 0.5, 0.5}, 0},
		{"corner", Vec3{0, 0, 0}, 0},
		{"face", Vec3{3, 0.5, 0.5}, 2},
		{"diagonal", Vec3{4, 5, 0.5}, 5},
		{"below", Vec3{0.5, -2, 0.5}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Distance(tt.p); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Distance(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestAABBContainsAndCenter(t *testing.T) {
	b := CubeAt(Vec3{-1, -1, -1}, 2)
	if b.Center() != (Vec3{}) {
		t.Errorf("Center() = %v", b.Center())
	}
	if !b.Contains(Vec3{1, 1, 1}) {
		t.Error("max corner should be contained")
	}
	if b.Contains(Vec3{1.01, 0, 0}) {
		t.Error("point outside reported contained")
	}
}
