package metrics

import (
	"time"

	"github.com/backmassage/calcanim/internal/pipeline"
	"github.com/backmassage/calcanim/internal/scheduler"
)

// schedulerObserver implements scheduler.Observer using the collectors
// declared in metrics.go.
type schedulerObserver struct{}

// NewSchedulerObserver creates an observer that records job metrics.
func NewSchedulerObserver() scheduler.Observer {
	return &schedulerObserver{}
}

func (o *schedulerObserver) JobStarted(wave string, _ int, _ scheduler.Job) {
	LanesBusy.WithLabelValues(wave).Inc()
}

func (o *schedulerObserver) JobFinished(wave string, _ int, res scheduler.JobResult) {
	LanesBusy.WithLabelValues(wave).Dec()
	JobsTotal.WithLabelValues(wave, string(res.Status)).Inc()
	JobDuration.WithLabelValues(wave).Observe(res.Duration().Seconds())
}

func (o *schedulerObserver) StepRetried(wave string, _ scheduler.Job, _ int, _ error) {
	JobRetries.WithLabelValues(wave).Inc()
}

// pipelineObserver implements pipeline.Observer.
type pipelineObserver struct{}

// NewPipelineObserver creates an observer that records stage timings and
// frame counts.
func NewPipelineObserver() pipeline.Observer {
	return &pipelineObserver{}
}

func (o *pipelineObserver) StageFinished(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (o *pipelineObserver) FramesEmitted(n int) {
	FramesTotal.Add(float64(n))
}

// RecordSkipped counts jobs a wave never dispatched. The scheduler does not
// report them through the observer because they never start.
func RecordSkipped(report scheduler.WaveReport) {
	if n := report.Skipped(); n > 0 {
		JobsTotal.WithLabelValues(report.Wave, string(scheduler.StatusSkipped)).Add(float64(n))
	}
}
