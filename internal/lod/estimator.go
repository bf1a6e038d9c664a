package lod

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/splatlod/pkg/math"
)

// Estimator defaults.
const (
	// DefaultFX is the focal length assumed when the pose has none.
	DefaultFX = 1000.0

	// FallbackScale is the world-space splat size assumed by the fallback estimator.
	FallbackScale = 0.02

	// MinEstimateDistance keeps estimates finite for points at the camera.
	MinEstimateDistance = 1e-3
)

// ErrIndexOutOfRange is returned by estimators for indices past the point set.
var ErrIndexOutOfRange = errors.New("point index out of range")

// Estimator returns the approximate projected size of a point in pixels.
type Estimator interface {
	EstimateScreenSize(index uint32) (float64, error)
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(index uint32) (float64, error)

// EstimateScreenSize calls f(index).
func (f EstimatorFunc) EstimateScreenSize(index uint32) (float64, error) {
	return f(index)
}

func focal(cam CameraPose) float64 {
	if cam.HasFX() {
		return cam.FX
	}
	return DefaultFX
}

func pointDistance(positions []float32, index uint32, cam CameraPose) (float64, error) {
	i := int(index)
	if 3*i+2 >= len(positions) {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return gomath.Max(math.At(positions, i).Distance(cam.Position), MinEstimateDistance), nil
}

// FallbackEstimator estimates fx * fixedScale / max(distance, epsilon) for
// every point, for hosts that cannot estimate sizes themselves.
// A non-positive fixedScale selects FallbackScale.
func FallbackEstimator(positions []float32, cam CameraPose, fixedScale float64) Estimator {
	if fixedScale <= 0 {
		fixedScale = FallbackScale
	}
	fx := focal(cam)
	return EstimatorFunc(func(index uint32) (float64, error) {
		d, err := pointDistance(positions, index, cam)
		if err != nil {
			return 0, err
		}
		return fx * fixedScale / d, nil
	})
}

// BaseScales converts per-splat log scales (flat scale_0..2 triples) into the
// world-space size exp(max(s0, s1, s2)) of each splat.
func BaseScales(logScales []float32) []float32 {
	n := len(logScales) / 3
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		m := gomath.Max(float64(logScales[3*i]), gomath.Max(float64(logScales[3*i+1]), float64(logScales[3*i+2])))
		out[i] = float32(gomath.Exp(m))
	}
	return out
}

// SplatEstimator estimates fx * baseScale[i] / max(distance, epsilon) using
// the splat's own size.
func SplatEstimator(positions, baseScale []float32, cam CameraPose) Estimator {
	fx := focal(cam)
	return EstimatorFunc(func(index uint32) (float64, error) {
		if int(index) >= len(baseScale) {
			return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		d, err := pointDistance(positions, index, cam)
		if err != nil {
			return 0, err
		}
		return fx * float64(baseScale[index]) / d, nil
	})
}
