package sweep

import (
	"context"
	"time"

	"github.com/backmassage/calcanim/internal/display"
	"github.com/backmassage/calcanim/internal/scheduler"
)

// Wave names, also used as metric and ledger labels.
const (
	WaveRender  = "render"
	WaveCompile = "compile"
)

// Recorder persists wave reports. *ledger.Ledger satisfies it.
type Recorder interface {
	RecordWave(ctx context.Context, runID string, report scheduler.WaveReport) error
}

// Logger is the subset of the process logger a sweep needs.
type Logger interface {
	scheduler.Logger
	Success(format string, args ...any)
}

// Driver runs plans on a scheduler.
type Driver struct {
	Scheduler *scheduler.Scheduler
	Recorder  Recorder // optional
	Log       Logger
	RunID     string

	// OnWave, if set, is called with each wave's report after its barrier.
	OnWave func(scheduler.WaveReport)
}

// WaveStats counts one wave's outcomes.
type WaveStats struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

func statsOf(r scheduler.WaveReport) WaveStats {
	return WaveStats{Total: r.Total(), Succeeded: r.Succeeded(), Failed: r.Failed(), Skipped: r.Skipped()}
}

// Failure is one failed job and the wave it ran in.
type Failure struct {
	Wave   string
	Result scheduler.JobResult
}

// RunStats summarizes a sweep.
type RunStats struct {
	Configs int
	Render  WaveStats
	Compile WaveStats
	Failed  []Failure // Render failures first.
	Elapsed time.Duration
}

// HasFailures reports whether any job of either wave failed.
func (s RunStats) HasFailures() bool { return s.Render.Failed+s.Compile.Failed > 0 }

// Interrupted reports whether any job was skipped.
func (s RunStats) Interrupted() bool { return s.Render.Skipped+s.Compile.Skipped > 0 }

// Run executes the render wave, waits for its barrier, then executes the
// compile wave. Failures are counted, never returned; ctx cancellation
// leaves undispatched jobs skipped.
func (d *Driver) Run(ctx context.Context, plan Plan) RunStats {
	start := time.Now()
	stats := RunStats{Configs: len(plan.Configs)}

	logBatchHeader(d.Log, plan, d.Scheduler.Lanes)

	render := d.wave(ctx, WaveRender, plan.Render)
	stats.Render = statsOf(render)
	stats.Failed = appendFailures(stats.Failed, render)

	compile := d.wave(ctx, WaveCompile, plan.Compile)
	stats.Compile = statsOf(compile)
	stats.Failed = appendFailures(stats.Failed, compile)

	stats.Elapsed = time.Since(start)
	logSummary(d.Log, &stats)
	return stats
}

func (d *Driver) wave(ctx context.Context, name string, jobs []scheduler.Job) scheduler.WaveReport {
	report := d.Scheduler.RunWave(ctx, name, jobs)
	d.Log.Info("Wave %s finished in %s: %d ok, %d failed, %d skipped",
		name, display.FormatElapsed(report.Elapsed), report.Succeeded(), report.Failed(), report.Skipped())

	if d.Recorder != nil {
		// Record even when interrupted so skipped jobs are visible later.
		if err := d.Recorder.RecordWave(context.WithoutCancel(ctx), d.RunID, report); err != nil {
			d.Log.Warn("Could not record %s wave: %v", name, err)
		}
	}
	if d.OnWave != nil {
		d.OnWave(report)
	}
	return report
}

func logBatchHeader(log Logger, plan Plan, lanes int) {
	inputs := make(map[string]bool)
	for _, c := range plan.Configs {
		inputs[c.Input] = true
	}
	log.Info("Sweep: %s from %s, %d lanes",
		display.FormatCount(len(plan.Configs), "configuration"),
		display.FormatCount(len(inputs), "input"), lanes)
}

func logSummary(log Logger, stats *RunStats) {
	log.Info("Done: %d rendered, %d compiled, %d failed, %d skipped in %s",
		stats.Render.Succeeded, stats.Compile.Succeeded,
		stats.Render.Failed+stats.Compile.Failed,
		stats.Render.Skipped+stats.Compile.Skipped,
		display.FormatElapsed(stats.Elapsed))
	if len(stats.Failed) > 0 {
		log.Warn("Failed jobs:")
		for _, f := range stats.Failed {
			log.Warn("  %s (%s, lane %d): %v", f.Result.Job.Label, f.Wave, f.Result.Lane, f.Result.Err)
		}
		return
	}
	if !stats.Interrupted() && stats.Configs > 0 {
		log.Success("All %s built", display.FormatCount(stats.Configs, "project"))
	}
}

func appendFailures(dst []Failure, r scheduler.WaveReport) []Failure {
	for _, res := range r.FailedJobs() {
		dst = append(dst, Failure{Wave: r.Wave, Result: res})
	}
	return dst
}
