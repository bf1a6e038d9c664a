package lod

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/splatlod/pkg/math"
)

// Selection errors.
var (
	ErrInvalidParams = errors.New("invalid LOD params")
	ErrMalformedPose = errors.New("malformed camera pose")
)

// Params controls per-cell selection. All fields are required; the package
// applies no defaults.
type Params struct {
	NearDist          float64 // cells closer than this are "near"
	MidDist           float64 // cells closer than this (and not near) are "mid"
	MaxPerCellNear    int     // cap on points kept from one near cell
	MaxPerCellMid     int     // cap on points kept from one mid cell
	ScreenPxThreshold float64 // minimum estimated size, in pixels, to keep a point
}

// Validate checks the parameter invariants.
func (p Params) Validate() error {
	switch {
	case !finite(p.NearDist) || !finite(p.MidDist):
		return fmt.Errorf("%w: distances must be finite", ErrInvalidParams)
	case p.NearDist < 0:
		return fmt.Errorf("%w: near distance %v is negative", ErrInvalidParams, p.NearDist)
	case p.NearDist >= p.MidDist:
		return fmt.Errorf("%w: near distance %v must be below mid distance %v", ErrInvalidParams, p.NearDist, p.MidDist)
	case p.MaxPerCellNear < 0 || p.MaxPerCellMid < 0:
		return fmt.Errorf("%w: per-cell caps must be non-negative", ErrInvalidParams)
	case !finite(p.ScreenPxThreshold):
		return fmt.Errorf("%w: screen size threshold must be finite", ErrInvalidParams)
	}
	return nil
}

// CameraPose is the viewpoint for one frame.
type CameraPose struct {
	Position math.Vec3
	Yaw      float64 // radians; only used by collaborators such as the minimap
	FX       float64 // horizontal focal length in pixels; <= 0 means not provided
}

// HasFX reports whether the pose carries a focal length.
func (c CameraPose) HasFX() bool {
	return c.FX > 0
}

// Validate reports ErrMalformedPose when the position or a provided focal
// length is not finite.
func (c CameraPose) Validate() error {
	if !c.Position.IsFinite() {
		return fmt.Errorf("%w: position %v", ErrMalformedPose, c.Position)
	}
	if !finite(c.FX) {
		return fmt.Errorf("%w: fx %v", ErrMalformedPose, c.FX)
	}
	return nil
}

func finite(f float64) bool {
	return !gomath.IsNaN(f) && !gomath.IsInf(f, 0)
}
