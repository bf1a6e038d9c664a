package main

import (
	gomath "math"
	"math/rand"

	"github.com/Faultbox/splatlod/pkg/formats"
)

// synthCloud scatters n splats over a handful of Gaussian blobs on a
// 40 x 10 x 40 floor, with log-scales in [-4.5, -2].
func synthCloud(rng *rand.Rand, n int) *formats.SplatCloud {
	const blobs = 12
	type blob struct {
		cx, cy, cz float64
		sigma      float64
	}
	centers := make([]blob, blobs)
	for i := range centers {
		centers[i] = blob{
			cx:    rng.Float64()*40 - 20,
			cy:    rng.Float64() * 10,
			cz:    rng.Float64()*40 - 20,
			sigma: 0.5 + rng.Float64()*3,
		}
	}

	cloud := &formats.SplatCloud{
		Count:     n,
		Positions: make([]float32, 0, 3*n),
		Scales:    make([]float32, 0, 3*n),
	}
	for i := 0; i < n; i++ {
		b := centers[rng.Intn(blobs)]
		cloud.Positions = append(cloud.Positions,
			float32(b.cx+rng.NormFloat64()*b.sigma),
			float32(gomath.Max(0, b.cy+rng.NormFloat64()*b.sigma*0.5)),
			float32(b.cz+rng.NormFloat64()*b.sigma),
		)
		for k := 0; k < 3; k++ {
			cloud.Scales = append(cloud.Scales, float32(-4.5+rng.Float64()*2.5))
		}
	}
	return cloud
}
