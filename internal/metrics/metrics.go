package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scheduler metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calcanim_jobs_total",
			Help: "Total number of sweep jobs by wave and outcome",
		},
		[]string{"wave", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calcanim_job_duration_seconds",
			Help:    "Wall time of one sweep job in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"wave"},
	)

	LanesBusy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "calcanim_lanes_busy",
			Help: "Number of lanes currently running a job",
		},
		[]string{"wave"},
	)

	JobRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calcanim_job_retries_total",
			Help: "Total number of step retries",
		},
		[]string{"wave"},
	)
)

// Pipeline metrics
var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calcanim_pipeline_stage_duration_seconds",
			Help:    "Duration of one pipeline stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	FramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calcanim_frames_total",
			Help: "Total number of frames emitted into calculator projects",
		},
	)
)
