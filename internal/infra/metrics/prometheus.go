package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CapturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_captures_total",
		Help: "Total number of frame captures, by outcome",
	}, []string{"outcome"})

	CaptureDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_capture_duration_seconds",
		Help:    "Wall-clock duration of one ffmpeg frame capture",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"codec"})

	CapturesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_captures_in_flight",
		Help: "Number of ffmpeg capture processes currently running",
	})

	FrameBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_frame_bytes",
		Help:    "Size of captured frames in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
	})
)
