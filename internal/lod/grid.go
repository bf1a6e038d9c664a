// Package lod builds a uniform grid over a static point set and selects,
// per frame, a bounded subset of point indices to draw for a camera pose.
//
// The grid is immutable once built. Selection is a pure function of the
// candidate cells, the pose, the screen-size estimator and the parameters.
package lod

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/splatlod/pkg/math"
)

// Cell is one non-empty cube of the grid.
type Cell struct {
	// Coord is the integer grid coordinate relative to the scene min corner.
	Coord [3]int64

	// Members holds the point indices in this cell, ascending.
	Members []uint32

	// Representatives is a stride sample of Members used at far range.
	// Nil unless len(Members) exceeds the per-cell cap.
	Representatives []uint32

	// Bounds is grid-aligned: sceneMin + Coord*cellSize, one cellSize wide.
	// It is not tightened to the member points.
	Bounds math.AABB
}

// Grid is the spatial index over a point set.
type Grid struct {
	Cells      []Cell
	CellSize   float64
	Bounds     math.AABB // scene bounds; EmptyAABB() when there are no points
	PointCount int
}

// Empty reports whether the grid was built from zero points. Callers must
// check this before using Bounds.
func (g *Grid) Empty() bool {
	return g == nil || g.PointCount == 0
}

// BuildOptions are the grid construction parameters.
type BuildOptions struct {
	CellSize       float64
	MaxReprPerCell int
}

// Validate rejects options BuildGrid would silently clamp or misuse.
func (o BuildOptions) Validate() error {
	if !finite(o.CellSize) || o.CellSize <= 0 {
		return fmt.Errorf("%w: cell size %v must be positive and finite", ErrInvalidParams, o.CellSize)
	}
	if o.MaxReprPerCell <= 0 {
		return fmt.Errorf("%w: max representatives per cell %d must be positive", ErrInvalidParams, o.MaxReprPerCell)
	}
	return nil
}

// Build calls BuildGrid with the options.
func (o BuildOptions) Build(positions []float32) *Grid {
	return BuildGrid(positions, o.CellSize, o.MaxReprPerCell)
}

// BuildGrid partitions positions (flat x,y,z triples) into cubic cells of
// side cellSize. Cells whose member count exceeds maxReprPerCell get a
// representative sub-sample.
//
// BuildGrid never panics on numeric input: NaN or infinite coordinates land
// in whatever cell the arithmetic yields. A trailing partial triple is ignored.
func BuildGrid(positions []float32, cellSize float64, maxReprPerCell int) *Grid {
	n := len(positions) / 3
	g := &Grid{
		CellSize:   cellSize,
		Bounds:     math.EmptyAABB(),
		PointCount: n,
	}
	if n == 0 {
		return g
	}
	if maxReprPerCell < 1 {
		maxReprPerCell = 1
	}

	for i := 0; i < n; i++ {
		g.Bounds.Extend(math.At(positions, i))
	}

	// Cells are kept in order of their first member.
	slots := make(map[[3]int64]int)
	for i := 0; i < n; i++ {
		key := cellCoord(math.At(positions, i), g.Bounds.Min, cellSize)
		slot, ok := slots[key]
		if !ok {
			slot = len(g.Cells)
			slots[key] = slot
			g.Cells = append(g.Cells, Cell{
				Coord:  key,
				Bounds: cellBounds(key, g.Bounds.Min, cellSize),
			})
		}
		g.Cells[slot].Members = append(g.Cells[slot].Members, uint32(i))
	}

	for i := range g.Cells {
		g.Cells[i].Representatives = sampleRepresentatives(g.Cells[i].Members, maxReprPerCell)
	}
	return g
}

func cellCoord(p, origin math.Vec3, cellSize float64) [3]int64 {
	return [3]int64{
		int64(gomath.Floor((p.X - origin.X) / cellSize)),
		int64(gomath.Floor((p.Y - origin.Y) / cellSize)),
		int64(gomath.Floor((p.Z - origin.Z) / cellSize)),
	}
}

func cellBounds(key [3]int64, origin math.Vec3, cellSize float64) math.AABB {
	corner := math.Vec3{
		X: origin.X + float64(key[0])*cellSize,
		Y: origin.Y + float64(key[1])*cellSize,
		Z: origin.Z + float64(key[2])*cellSize,
	}
	return math.CubeAt(corner, cellSize)
}

// sampleRepresentatives takes every step-th member from offset 0, with
// step = max(1, len/limit), until limit are collected.
func sampleRepresentatives(members []uint32, limit int) []uint32 {
	if len(members) <= limit {
		return nil
	}
	step := len(members) / limit
	if step < 1 {
		step = 1
	}
	repr := make([]uint32, 0, limit)
	for i := 0; i < len(members) && len(repr) < limit; i += step {
		repr = append(repr, members[i])
	}
	return repr
}

// GridStats summarizes the shape of a grid.
type GridStats struct {
	Cells                int
	Points               int
	MaxMembers           int
	MeanMembers          float64
	CellsWithRepr        int
	TotalRepresentatives int
}

// Stats walks the grid once and returns its summary.
func (g *Grid) Stats() GridStats {
	s := GridStats{Cells: len(g.Cells), Points: g.PointCount}
	for i := range g.Cells {
		c := &g.Cells[i]
		if len(c.Members) > s.MaxMembers {
			s.MaxMembers = len(c.Members)
		}
		if c.Representatives != nil {
			s.CellsWithRepr++
			s.TotalRepresentatives += len(c.Representatives)
		}
	}
	if s.Cells > 0 {
		s.MeanMembers = float64(g.PointCount) / float64(s.Cells)
	}
	return s
}
