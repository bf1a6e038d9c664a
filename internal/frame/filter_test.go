package frame

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

func TestRadiusFilter(t *testing.T) {
	g := lod.BuildGrid([]float32{
		0, 0, 0,
		5, 0, 0,
		20, 0, 0,
	}, 1, 8)
	cam := lod.CameraPose{Position: math.Vec3{X: -2}}

	tests := []struct {
		radius float64
		want   int
	}{
		{0.5, 0},
		{2, 1},
		{7, 2},
		{100, 3},
	}
	for _, tt := range tests {
		got := RadiusFilter(tt.radius).Candidates(nil, g, cam)
		if len(got) != tt.want {
			t.Errorf("radius %v: %d cells, want %d", tt.radius, len(got), tt.want)
		}
	}
}

func TestRadiusFilter_ReusesBuffer(t *testing.T) {
	g := lod.BuildGrid([]float32{0, 0, 0, 3, 0, 0}, 1, 8)
	buf := make([]lod.Cell, 0, 8)
	got := RadiusFilter(50).Candidates(buf, g, lod.CameraPose{})
	if len(got) != 2 || &got[0] != &buf[:1][0] {
		t.Error("expected candidates appended into the caller's buffer")
	}
}

func TestFilterForRadius(t *testing.T) {
	if FilterForRadius(0) != AllCells || FilterForRadius(-1) != AllCells {
		t.Error("non-positive radius should select AllCells")
	}
	if FilterForRadius(3) != RadiusFilter(3) {
		t.Error("positive radius should select RadiusFilter")
	}

	g := lod.BuildGrid([]float32{0, 0, 0, 9, 9, 9}, 1, 8)
	if got := AllCells.Candidates(nil, g, lod.CameraPose{}); len(got) != len(g.Cells) {
		t.Errorf("AllCells returned %d cells, want %d", len(got), len(g.Cells))
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrEmptyInput, "empty_input"},
		{fmt.Errorf("%w: %w", ErrPose, errors.New("x")), "pose"},
		{fmt.Errorf("select: %w", lod.ErrMalformedPose), "malformed_pose"},
		{fmt.Errorf("select: %w", lod.ErrInvalidParams), "invalid_params"},
		{fmt.Errorf("%w: boom", ErrDraw), "draw"},
		{errors.Join(ErrDraw, fmt.Errorf("%w: boom", ErrPanic)), "panic"},
		{errors.New("something else"), "other"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
