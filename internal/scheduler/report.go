package scheduler

import "time"

// Status is the outcome of one job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped" // Never dispatched (interrupted).
)

// StepResult records one step of a job.
type StepResult struct {
	Args     []string
	Attempts int
	Duration time.Duration
	Stdout   string
	Stderr   string
	Err      error
}

// JobResult records one job of a wave.
type JobResult struct {
	Job      Job
	Index    int // Position in the wave's job list.
	Lane     int
	Status   Status
	Steps    []StepResult
	Err      error // First failing step's error, or the interruption cause.
	Started  time.Time
	Finished time.Time
}

// Duration is the job's wall time; zero for skipped jobs.
func (r JobResult) Duration() time.Duration {
	if r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// WaveReport is the outcome of one RunWave call. Results are in the order
// the jobs were given.
type WaveReport struct {
	Wave    string
	Lanes   int
	Results []JobResult
	Elapsed time.Duration
}

func (w WaveReport) count(s Status) int {
	n := 0
	for _, r := range w.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

func (w WaveReport) Total() int     { return len(w.Results) }
func (w WaveReport) Succeeded() int { return w.count(StatusSucceeded) }
func (w WaveReport) Failed() int    { return w.count(StatusFailed) }
func (w WaveReport) Skipped() int   { return w.count(StatusSkipped) }

// FailedJobs returns the results of every failed job, in input order.
func (w WaveReport) FailedJobs() []JobResult {
	var out []JobResult
	for _, r := range w.Results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}
