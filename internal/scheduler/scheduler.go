package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/calcanim/internal/tool"
)

// outputTail is how many lines of captured stdout/stderr a failure logs.
const outputTail = 20

// Job is a labelled sequence of argv steps run in Dir. Steps run in order;
// a failing step is logged and the job still continues with the next one.
type Job struct {
	Label string
	Dir   string
	Steps [][]string
}

// Scheduler fans waves of jobs out over Lanes worker lanes.
type Scheduler struct {
	Lanes    int
	Runner   tool.Runner
	Retry    RetryPolicy
	Observer Observer // optional
	Log      Logger   // optional
	Verbose  bool     // log captured output of successful steps at DEBUG

	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a scheduler with retry disabled.
func New(lanes int, runner tool.Runner, log Logger) *Scheduler {
	return &Scheduler{
		Lanes:  lanes,
		Runner: runner,
		Retry:  DefaultRetryPolicy(),
		Log:    log,
	}
}

func (s *Scheduler) logger() Logger {
	if s.Log == nil {
		return nopLogger{}
	}
	return s.Log
}

// RunWave runs jobs and returns once every lane has drained. It never
// returns early because of a job failure.
func (s *Scheduler) RunWave(ctx context.Context, wave string, jobs []Job) WaveReport {
	start := time.Now()
	report := WaveReport{Wave: wave, Results: make([]JobResult, len(jobs))}
	if len(jobs) == 0 {
		return report
	}

	indices := make([]int, len(jobs))
	for i := range indices {
		indices[i] = i
	}
	lanes := Partition(indices, s.Lanes)
	report.Lanes = len(lanes)
	s.logger().Info("Wave %s: %d jobs across %d lanes", wave, len(jobs), len(lanes))

	var g errgroup.Group
	for lane, members := range lanes {
		g.Go(func() error {
			for _, i := range members {
				if err := ctx.Err(); err != nil {
					report.Results[i] = JobResult{Job: jobs[i], Index: i, Lane: lane, Status: StatusSkipped, Err: err}
					continue
				}
				report.Results[i] = s.runJob(ctx, wave, lane, i, jobs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Elapsed = time.Since(start)
	if n := report.Skipped(); n > 0 {
		s.logger().Warn("Wave %s interrupted: %d jobs not started", wave, n)
	}
	return report
}

func (s *Scheduler) runJob(ctx context.Context, wave string, lane, index int, job Job) JobResult {
	res := JobResult{Job: job, Index: index, Lane: lane, Status: StatusSucceeded, Started: time.Now()}
	if s.Observer != nil {
		s.Observer.JobStarted(wave, lane, job)
	}
	s.logger().Debug("[%s lane %d] start %s", wave, lane, job.Label)

	// A dispatched job runs to completion even if the wave is interrupted.
	runCtx := context.WithoutCancel(ctx)
	for _, step := range job.Steps {
		sr := s.runStep(ctx, runCtx, wave, job, step)
		res.Steps = append(res.Steps, sr)
		if sr.Err != nil {
			s.logFailure(wave, lane, job, sr)
			if res.Err == nil {
				res.Err = sr.Err
			}
			res.Status = StatusFailed
			continue
		}
		if s.Verbose {
			s.logOutput(wave, lane, job, sr)
		}
	}

	res.Finished = time.Now()
	if res.Status == StatusSucceeded {
		s.logger().Info("[%s lane %d] done %s (%s)", wave, lane, job.Label, res.Duration().Round(time.Millisecond))
	}
	if s.Observer != nil {
		s.Observer.JobFinished(wave, lane, res)
	}
	return res
}

// runStep runs one step, retrying per the policy. Backoff waits are cut
// short by ctx; the step itself runs under runCtx.
func (s *Scheduler) runStep(ctx, runCtx context.Context, wave string, job Job, args []string) StepResult {
	sr := StepResult{Args: args}
	start := time.Now()
	limit := s.Retry.Attempts()
	for attempt := 1; ; attempt++ {
		sr.Attempts = attempt
		out, err := s.Runner.Run(runCtx, job.Dir, args...)
		sr.Stdout, sr.Stderr, sr.Err = out.Stdout, out.Stderr, err
		if err == nil || attempt >= limit {
			break
		}
		wait := s.Retry.Backoff(attempt)
		s.logger().Warn("[%s] %s: %s failed (attempt %d/%d), retrying in %s",
			wave, job.Label, tool.FormatArgs(args), attempt, limit, wait)
		if s.Observer != nil {
			s.Observer.StepRetried(wave, job, attempt, err)
		}
		if s.wait(ctx, wait) != nil {
			break
		}
	}
	sr.Duration = time.Since(start)
	return sr
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) error {
	if s.sleep != nil {
		return s.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Scheduler) logFailure(wave string, lane int, job Job, sr StepResult) {
	log := s.logger()
	exit := -1
	var te *tool.ToolError
	if errors.As(sr.Err, &te) {
		exit = te.ExitCode
	}
	log.Error("[%s lane %d] %s failed: %v", wave, lane, job.Label, sr.Err)
	log.Error("  command: %s", tool.FormatArgs(sr.Args))
	log.Error("  dir: %s, exit code: %d, attempts: %d", job.Dir, exit, sr.Attempts)
	if hint := tool.Hint(sr.Err); hint != "" {
		log.Error("  hint: %s", hint)
	}
	logTail(log.Error, "stdout", sr.Stdout)
	logTail(log.Error, "stderr", sr.Stderr)
}

func (s *Scheduler) logOutput(wave string, lane int, job Job, sr StepResult) {
	log := s.logger()
	log.Debug("[%s lane %d] %s: %s", wave, lane, job.Label, tool.FormatArgs(sr.Args))
	logTail(log.Debug, "stdout", sr.Stdout)
	logTail(log.Debug, "stderr", sr.Stderr)
}

func logTail(logf func(string, ...any), stream, text string) {
	lines := tool.Tail(text, outputTail)
	if len(lines) == 0 {
		return
	}
	logf("  last %s:", stream)
	for _, l := range lines {
		logf("    %s", strings.TrimRight(l, "\r"))
	}
}
