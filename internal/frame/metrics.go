package frame

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Faultbox/splatlod/internal/lod"
)

const (
	namespace       = "splatlod"
	errTypeLabel    = "error_type"
	bucketLabel     = "bucket"
	gridSourceLabel = "source"
)

var (
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "The number of frames ticked.",
	})

	frameErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frame_errors_total",
		Help:      "The errors that occurred while ticking a frame.",
	}, []string{
		errTypeLabel,
	})

	selectedPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "selected_points",
		Help:      "The number of points drawn in the last frame.",
	})

	bucketCells = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bucket_cells",
		Help:      "The number of candidate cells per distance bucket in the last frame.",
	}, []string{
		bucketLabel,
	})

	selectLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "select_latency_seconds",
		Help:      "The time spent selecting points for one frame.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	gridBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grid_builds_total",
		Help:      "The number of grids installed, by where they came from.",
	}, []string{
		gridSourceLabel,
	})
)

// Error kinds reported in the error_type label.
const (
	kindEmptyInput    = "empty_input"
	kindPose          = "pose"
	kindMalformedPose = "malformed_pose"
	kindInvalidParams = "invalid_params"
	kindDraw          = "draw"
	kindPanic         = "panic"
	kindOther         = "other"
)

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrPanic):
		return kindPanic
	case errors.Is(err, ErrEmptyInput):
		return kindEmptyInput
	case errors.Is(err, lod.ErrMalformedPose):
		return kindMalformedPose
	case errors.Is(err, ErrPose):
		return kindPose
	case errors.Is(err, lod.ErrInvalidParams):
		return kindInvalidParams
	case errors.Is(err, ErrDraw):
		return kindDraw
	default:
		return kindOther
	}
}

func instrumentFrameError(err error) {
	frameErrors.With(prometheus.Labels{
		errTypeLabel: errorKind(err),
	}).Inc()
}

func instrumentSelection(start time.Time, drawn int, b lod.BucketCounts) {
	selectLatency.Observe(time.Since(start).Seconds())
	selectedPoints.Set(float64(drawn))
	for i, n := range b.Cells {
		bucketCells.With(prometheus.Labels{
			bucketLabel: lod.Bucket(i).String(),
		}).Set(float64(n))
	}
}

func instrumentGridBuild(source string) {
	gridBuilds.With(prometheus.Labels{
		gridSourceLabel: source,
	}).Inc()
}
