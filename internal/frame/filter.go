package frame

import (
	"github.com/Faultbox/splatlod/internal/lod"
)

// CellFilter chooses the candidate cells handed to the selector each frame.
type CellFilter interface {
	// Candidates appends the cells to consider into dst[:0], or returns a
	// slice of the grid's own cells.
	Candidates(dst []lod.Cell, g *lod.Grid, cam lod.CameraPose) []lod.Cell
}

type allCells struct{}

// AllCells passes every grid cell through.
var AllCells CellFilter = allCells{}

func (allCells) Candidates(_ []lod.Cell, g *lod.Grid, _ lod.CameraPose) []lod.Cell {
	return g.Cells
}

// RadiusFilter keeps cells whose bounds are within the given distance of
// the camera.
type RadiusFilter float64

// Candidates implements CellFilter.
func (r RadiusFilter) Candidates(dst []lod.Cell, g *lod.Grid, cam lod.CameraPose) []lod.Cell {
	dst = dst[:0]
	for i := range g.Cells {
		if lod.DistanceToCell(cam.Position, &g.Cells[i]) <= float64(r) {
			dst = append(dst, g.Cells[i])
		}
	}
	return dst
}

// FilterForRadius returns RadiusFilter(radius), or AllCells when radius is
// not positive.
func FilterForRadius(radius float64) CellFilter {
	if radius > 0 {
		return RadiusFilter(radius)
	}
	return AllCells
}
