// Package debug builds overlays and captures for inspecting the LOD grid.
package debug

import (
	"github.com/Faultbox/splatlod/internal/lod"
	"github.com/Faultbox/splatlod/pkg/math"
)

// BoxVertexCount is the number of line vertices per box (12 edges x 2).
const BoxVertexCount = 24

// AppendBox appends the 12 edges of b as line vertices, x, y, z each.
func AppendBox(dst []float32, b math.AABB) []float32 {
	minX, minY, minZ := float32(b.Min.X), float32(b.Min.Y), float32(b.Min.Z)
	maxX, maxY, maxZ := float32(b.Max.X), float32(b.Max.Y), float32(b.Max.Z)
	return append(dst,
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Verticals
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	)
}

// CellWireframe holds box edges for the cells of each distance bucket.
type CellWireframe struct {
	Lines [3][]float32 // indexed by lod.Bucket
}

// Build refills w with the cells classified from cam under p. At most
// maxCells boxes are emitted per bucket; zero means no limit.
func (w *CellWireframe) Build(cells []lod.Cell, cam lod.CameraPose, p lod.Params, maxCells int) {
	var counts [3]int
	for i := range w.Lines {
		w.Lines[i] = w.Lines[i][:0]
	}
	for i := range cells {
		c := &cells[i]
		b := lod.Classify(lod.DistanceToCell(cam.Position, c), p)
		if maxCells > 0 && counts[b] >= maxCells {
			continue
		}
		counts[b]++
		w.Lines[b] = AppendBox(w.Lines[b], c.Bounds)
	}
}

// Boxes returns the number of boxes in bucket b.
func (w *CellWireframe) Boxes(b lod.Bucket) int {
	return len(w.Lines[b]) / (3 * BoxVertexCount)
}
