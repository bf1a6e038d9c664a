package lod

import (
	"fmt"

	"github.com/Faultbox/splatlod/pkg/math"
)

// Bucket is the distance class of a cell relative to the camera.
type Bucket uint8

// Buckets, nearest first.
const (
	BucketNear Bucket = iota
	BucketMid
	BucketFar
)

// String returns the bucket name.
func (b Bucket) String() string {
	switch b {
	case BucketNear:
		return "near"
	case BucketMid:
		return "mid"
	case BucketFar:
		return "far"
	default:
		return fmt.Sprintf("Unknown(%d)", b)
	}
}

// Classify buckets a camera-to-cell distance. Thresholds are exclusive upper
// bounds: a distance equal to NearDist is mid, equal to MidDist is far.
func Classify(distance float64, p Params) Bucket {
	switch {
	case distance < p.NearDist:
		return BucketNear
	case distance < p.MidDist:
		return BucketMid
	default:
		return BucketFar
	}
}

// DistanceToCell is the point-to-box distance from the camera to the cell's
// grid-aligned bounds, 0 when the camera is inside.
func DistanceToCell(camera math.Vec3, c *Cell) float64 {
	return c.Bounds.Distance(camera)
}

// BucketCounts tallies cells and emitted points per bucket for one selection.
type BucketCounts struct {
	Cells  [3]int
	Points [3]int
}

// Result is the output of one selection.
type Result struct {
	Indices []uint32
	Buckets BucketCounts
}

// Select chooses the point indices to draw from the candidate cells.
//
// Cells are visited in the given order and each contributes:
//   - far: its representatives, or nothing when it has none;
//   - near/mid: members whose estimate is finite and >= ScreenPxThreshold,
//     in ascending index order, truncated to the bucket's per-cell cap.
//
// An estimator error or non-finite estimate excludes only that point.
// A non-finite pose yields ErrMalformedPose and an empty Result.
func Select(cells []Cell, cam CameraPose, est Estimator, p Params) (Result, error) {
	return SelectInto(nil, cells, cam, est, p)
}

// SelectInto is Select appending into dst[:0], so a frame loop can reuse
// one index buffer across frames.
func SelectInto(dst []uint32, cells []Cell, cam CameraPose, est Estimator, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if err := cam.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{Indices: dst[:0]}
	for i := range cells {
		c := &cells[i]
		bucket := Classify(DistanceToCell(cam.Position, c), p)
		res.Buckets.Cells[bucket]++

		before := len(res.Indices)
		if bucket == BucketFar {
			res.Indices = append(res.Indices, c.Representatives...)
		} else {
			limit := p.MaxPerCellMid
			if bucket == BucketNear {
				limit = p.MaxPerCellNear
			}
			res.Indices = appendVisible(res.Indices, c.Members, est, p.ScreenPxThreshold, limit)
		}
		res.Buckets.Points[bucket] += len(res.Indices) - before
	}
	return res, nil
}

// appendVisible appends members passing the screen-size threshold, stopping
// once limit have been kept. Stopping early is equivalent to prefix
// truncation of the full survivor list.
func appendVisible(dst, members []uint32, est Estimator, threshold float64, limit int) []uint32 {
	kept := 0
	for _, idx := range members {
		if kept >= limit {
			break
		}
		if passes(est, idx, threshold) {
			dst = append(dst, idx)
			kept++
		}
	}
	return dst
}

// passes also treats a panicking estimator as a failed estimate.
func passes(est Estimator, idx uint32, threshold float64) (ok bool) {
	if est == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	px, err := est.EstimateScreenSize(idx)
	if err != nil || !finite(px) {
		return false
	}
	return px >= threshold
}

// Selector pairs a grid with validated parameters.
type Selector struct {
	grid   *Grid
	params Params
}

// NewSelector validates params and returns a selector over grid.
func NewSelector(grid *Grid, params Params) (*Selector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Selector{grid: grid, params: params}, nil
}

// Grid returns the grid the selector reads.
func (s *Selector) Grid() *Grid {
	return s.grid
}

// Params returns the selector's parameters.
func (s *Selector) Params() Params {
	return s.params
}

// Filter runs Select over cells, or over every grid cell when cells is nil.
func (s *Selector) Filter(cells []Cell, cam CameraPose, est Estimator) (Result, error) {
	if cells == nil && s.grid != nil {
		cells = s.grid.Cells
	}
	return Select(cells, cam, est, s.params)
}
