package lod

import (
	gomath "math"
	"math/rand"
	"testing"

	"github.com/Faultbox/splatlod/pkg/math"
)

func TestBuildGrid_TwoCells(t *testing.T) {
	positions := []float32{
		0.1, 0, 0,
		0.2, 0, 0,
		1.6, 0, 0,
	}
	g := BuildGrid(positions, 1, 32)

	if len(g.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(g.Cells))
	}

	first := g.Cells[0]
	if first.Coord != [3]int64{0, 0, 0} {
		t.Errorf("first cell coord = %v, want (0,0,0)", first.Coord)
	}
	if len(first.Members) != 2 || first.Members[0] != 0 || first.Members[1] != 1 {
		t.Errorf("first cell members = %v, want [0 1]", first.Members)
	}

	second := g.Cells[1]
	if second.Coord != [3]int64{1, 0, 0} {
		t.Errorf("second cell coord = %v, want (1,0,0)", second.Coord)
	}
	if len(second.Members) != 1 || second.Members[0] != 2 {
		t.Errorf("second cell members = %v, want [2]", second.Members)
	}

	if first.Representatives != nil || second.Representatives != nil {
		t.Error("small cells should have no representatives")
	}
}

func TestBuildGrid_Empty(t *testing.T) {
	for _, positions := range [][]float32{nil, {}, {1, 2}} {
		g := BuildGrid(positions, 1.5, 32)
		if !g.Empty() {
			t.Errorf("grid from %v should be empty", positions)
		}
		if len(g.Cells) != 0 {
			t.Errorf("expected zero cells, got %d", len(g.Cells))
		}
		if !g.Bounds.IsEmpty() {
			t.Errorf("expected sentinel bounds, got %+v", g.Bounds)
		}
		if !gomath.IsInf(g.Bounds.Min.X, 1) || !gomath.IsInf(g.Bounds.Max.X, -1) {
			t.Errorf("sentinel bounds should be +Inf/-Inf, got %+v", g.Bounds)
		}
	}
}

func TestBuildGrid_RepresentativeStride(t *testing.T) {
	positions := make([]float32, 0, 300)
	for i := 0; i < 100; i++ {
		positions = append(positions, float32(i)*0.001, 0, 0)
	}
	g := BuildGrid(positions, 1, 10)

	if len(g.Cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(g.Cells))
	}
	repr := g.Cells[0].Representatives
	if len(repr) != 10 {
		t.Fatalf("expected 10 representatives, got %d", len(repr))
	}
	for i, idx := range repr {
		if idx != uint32(i*10) {
			t.Errorf("representative %d = %d, want %d", i, idx, i*10)
		}
	}
}

func TestBuildGrid_RepresentativeUnevenStride(t *testing.T) {
	// 25 members, cap 10: step = 2, first 10 of 0,2,4,...
	members := make([]uint32, 25)
	for i := range members {
		members[i] = uint32(i)
	}
	repr := sampleRepresentatives(members, 10)
	if len(repr) != 10 {
		t.Fatalf("expected 10 representatives, got %d", len(repr))
	}
	if repr[9] != 18 {
		t.Errorf("last representative = %d, want 18", repr[9])
	}
	if sampleRepresentatives(members[:10], 10) != nil {
		t.Error("cell at the cap should have no representatives")
	}
}

func TestBuildGrid_CellBoundsAreGridAligned(t *testing.T) {
	positions := []float32{
		-1, -1, -1,
		2.2, 0.4, 0.1,
	}
	g := BuildGrid(positions, 1, 4)

	for _, c := range g.Cells {
		wantMin := math.Vec3{
			X: -1 + float64(c.Coord[0]),
			Y: -1 + float64(c.Coord[1]),
			Z: -1 + float64(c.Coord[2]),
		}
		if c.Bounds.Min != wantMin {
			t.Errorf("cell %v min = %v, want %v", c.Coord, c.Bounds.Min, wantMin)
		}
		if c.Bounds.Size() != (math.Vec3{X: 1, Y: 1, Z: 1}) {
			t.Errorf("cell %v size = %v, want unit cube", c.Coord, c.Bounds.Size())
		}
	}
	// (2.2,0.4,0.1) is at offset (3.2,1.4,1.1) -> coord (3,1,1), bounds not tightened.
	if g.Cells[1].Coord != [3]int64{3, 1, 1} {
		t.Errorf("second cell coord = %v, want (3,1,1)", g.Cells[1].Coord)
	}
}

func randomCloud(rng *rand.Rand, n int, extent float32) []float32 {
	positions := make([]float32, 3*n)
	for i := range positions {
		positions[i] = (rng.Float32()*2 - 1) * extent
	}
	return positions
}

func TestBuildGrid_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	positions := randomCloud(rng, 5000, 20)
	// Non-finite input must not break the partition.
	positions[30] = float32(gomath.NaN())
	positions[61] = float32(gomath.Inf(1))

	g := BuildGrid(positions, 1.5, 8)

	seen := make([]int, len(positions)/3)
	for _, c := range g.Cells {
		for j, idx := range c.Members {
			seen[idx]++
			if j > 0 && c.Members[j-1] >= idx {
				t.Fatalf("cell %v members not ascending: %v", c.Coord, c.Members)
			}
		}
	}
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("point %d appears %d times", i, n)
		}
	}
}

func TestBuildGrid_RepresentativeBound(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	positions := randomCloud(rng, 20000, 4)
	const maxRepr = 16

	g := BuildGrid(positions, 1, maxRepr)
	for _, c := range g.Cells {
		if c.Representatives == nil {
			if len(c.Members) > maxRepr {
				t.Errorf("cell %v has %d members but no representatives", c.Coord, len(c.Members))
			}
			continue
		}
		if len(c.Representatives) == 0 || len(c.Representatives) > maxRepr {
			t.Errorf("cell %v has %d representatives", c.Coord, len(c.Representatives))
		}
		// Subsequence check.
		j := 0
		for _, m := range c.Members {
			if j < len(c.Representatives) && c.Representatives[j] == m {
				j++
			}
		}
		if j != len(c.Representatives) {
			t.Errorf("cell %v representatives are not an ordered subsequence of members", c.Coord)
		}
	}
}

func TestGridStats(t *testing.T) {
	positions := make([]float32, 0, 90)
	for i := 0; i < 30; i++ {
		positions = append(positions, 0.01*float32(i), 0, 0)
	}
	positions = append(positions, 5, 5, 5)

	s := BuildGrid(positions, 1, 10).Stats()
	if s.Cells != 2 || s.Points != 31 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.MaxMembers != 30 || s.CellsWithRepr != 1 || s.TotalRepresentatives != 10 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.MeanMembers != 15.5 {
		t.Errorf("mean members = %v, want 15.5", s.MeanMembers)
	}
}

func TestBuildOptions_Validate(t *testing.T) {
	tests := []struct {
		opts    BuildOptions
		wantErr bool
	}{
		{BuildOptions{CellSize: 1.5, MaxReprPerCell: 32}, false},
		{BuildOptions{CellSize: 0, MaxReprPerCell: 32}, true},
		{BuildOptions{CellSize: -1, MaxReprPerCell: 32}, true},
		{BuildOptions{CellSize: gomath.NaN(), MaxReprPerCell: 32}, true},
		{BuildOptions{CellSize: gomath.Inf(1), MaxReprPerCell: 32}, true},
		{BuildOptions{CellSize: 1, MaxReprPerCell: 0}, true},
	}
	for _, tt := range tests {
		err := tt.opts.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
		}
	}

	g := BuildOptions{CellSize: 1, MaxReprPerCell: 4}.Build([]float32{0, 0, 0})
	if g.PointCount != 1 || len(g.Cells) != 1 {
		t.Errorf("Build produced %+v", g.Stats())
	}
}
