package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/backmassage/calcanim/internal/scheduler"
)

// value reads a counter or gauge from the default registry. pairs are
// label name/value pairs the series must carry.
func value(t *testing.T, name string, pairs ...string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for i := 0; i+1 < len(pairs); i += 2 {
				if labels[pairs[i]] != pairs[i+1] {
					continue series
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"JobsTotal", JobsTotal},
		{"JobDuration", JobDuration},
		{"LanesBusy", LanesBusy},
		{"JobRetries", JobRetries},
		{"StageDuration", StageDuration},
		{"FramesTotal", FramesTotal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestSchedulerObserver(t *testing.T) {
	obs := NewSchedulerObserver()
	wave := "test-observer"
	job := scheduler.Job{Label: "clip"}

	obs.JobStarted(wave, 0, job)
	if got := value(t, "calcanim_lanes_busy", "wave", wave); got != 1 {
		t.Errorf("lanes busy = %v, want 1", got)
	}

	start := time.Now()
	obs.StepRetried(wave, job, 1, nil)
	obs.JobFinished(wave, 0, scheduler.JobResult{Job: job, Status: scheduler.StatusFailed, Started: start, Finished: start.Add(time.Second)})

	if got := value(t, "calcanim_lanes_busy", "wave", wave); got != 0 {
		t.Errorf("lanes busy = %v, want 0", got)
	}
	if got := value(t, "calcanim_jobs_total", "wave", wave, "status", "failed"); got != 1 {
		t.Errorf("failed jobs = %v, want 1", got)
	}
	if got := value(t, "calcanim_job_retries_total", "wave", wave); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
}

func TestRecordSkipped(t *testing.T) {
	wave := "test-skipped"
	RecordSkipped(scheduler.WaveReport{Wave: wave, Results: []scheduler.JobResult{
		{Status: scheduler.StatusSkipped},
		{Status: scheduler.StatusSucceeded},
		{Status: scheduler.StatusSkipped},
	}})
	if got := value(t, "calcanim_jobs_total", "wave", wave, "status", "skipped"); got != 2 {
		t.Errorf("skipped = %v, want 2", got)
	}
}

func TestPipelineObserver(t *testing.T) {
	before := value(t, "calcanim_frames_total")
	obs := NewPipelineObserver()
	obs.FramesEmitted(12)
	obs.StageFinished("extract", 250*time.Millisecond)
	if got := value(t, "calcanim_frames_total") - before; got != 12 {
		t.Errorf("frames delta = %v, want 12", got)
	}
}

func TestWriteTextfileFrom(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "calcanim_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	path := filepath.Join(t.TempDir(), "textfile", "calcanim.prom")
	if err := WriteTextfileFrom(reg, path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "calcanim_test_total 3") {
		t.Errorf("textfile content:\n%s", b)
	}
}
