package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/calcanim/internal/tool"
)

// --- Partition ---

func TestPartition_RoundRobin(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	lanes := Partition(items, 4)
	require.Len(t, lanes, 4)
	assert.Equal(t, []int{0, 4, 8}, lanes[0])
	assert.Equal(t, []int{1, 5, 9}, lanes[1])
	assert.Equal(t, []int{2, 6}, lanes[2])
	assert.Equal(t, []int{3, 7}, lanes[3])
}

func TestPartition_EveryItemOnce(t *testing.T) {
	for n := 0; n < 20; n++ {
		for lanes := -1; lanes < 8; lanes++ {
			items := make([]int, n)
			for i := range items {
				items[i] = i
			}
			seen := make(map[int]int)
			for li, lane := range Partition(items, lanes) {
				assert.NotEmpty(t, lane, "n=%d lanes=%d: empty lane %d", n, lanes, li)
				for _, it := range lane {
					seen[it]++
				}
			}
			assert.Len(t, seen, n)
			for it, c := range seen {
				assert.Equal(t, 1, c, "item %d assigned %d times", it, c)
			}
		}
	}
}

func TestPartition_NonPositiveLanes(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b", "c"}}, Partition([]string{"a", "b", "c"}, 0))
	assert.Equal(t, [][]string{{"a", "b"}}, Partition([]string{"a", "b"}, -3))
	assert.Len(t, Partition([]string{"a", "b"}, 5), 2)
}

// --- RetryPolicy ---

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 400*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 800*time.Millisecond, p.Backoff(4))
	assert.Equal(t, time.Second, p.Backoff(5))
	assert.Equal(t, time.Second, p.Backoff(50))
	assert.Equal(t, time.Duration(0), p.Backoff(0))
}

func TestRetryPolicy_Attempts(t *testing.T) {
	assert.Equal(t, 1, DefaultRetryPolicy().Attempts())
	assert.Equal(t, 1, RetryPolicy{}.Attempts())
	assert.Equal(t, 4, WithRetries(3, time.Millisecond, time.Second).Attempts())
	assert.Equal(t, 1, WithRetries(-2, 0, 0).Attempts())
}

// --- fakes ---

type call struct {
	label string
	dir   string
	args  []string
	start time.Time
	end   time.Time
}

// fakeRunner records calls and fails any step whose joined args appear in
// fail (a count > 0 fails that many times).
type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]int
	delay time.Duration
	hook  func(ctx context.Context, dir string, args []string)
}

func (f *fakeRunner) Run(ctx context.Context, dir string, args ...string) (tool.Result, error) {
	if f.hook != nil {
		f.hook(ctx, dir, args)
	}
	c := call{dir: dir, args: args, start: time.Now()}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	c.end = time.Now()

	key := strings.Join(args, " ")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if n, ok := f.fail[key]; ok && n != 0 {
		if n > 0 {
			f.fail[key] = n - 1
		}
		return tool.Result{Stdout: "out\n", Stderr: "bad things\n"},
			&tool.ToolError{Args: args, Dir: dir, ExitCode: 2, Stderr: "bad things\n"}
	}
	return tool.Result{Stdout: "ok\n"}, nil
}

func (f *fakeRunner) callsIn(dir string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.dir == dir {
			out = append(out, c)
		}
	}
	return out
}

type recLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recLogger) Info(string, ...any)  {}
func (l *recLogger) Warn(string, ...any)  {}
func (l *recLogger) Debug(string, ...any) {}
func (l *recLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recLogger) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.errors, "\n")
}

type countingObserver struct {
	started, finished, retried atomic.Int32
	maxBusy, busy              atomic.Int32
}

func (o *countingObserver) JobStarted(string, int, Job) {
	o.started.Add(1)
	n := o.busy.Add(1)
	for {
		m := o.maxBusy.Load()
		if n <= m || o.maxBusy.CompareAndSwap(m, n) {
			break
		}
	}
}

func (o *countingObserver) JobFinished(string, int, JobResult) {
	o.finished.Add(1)
	o.busy.Add(-1)
}

func (o *countingObserver) StepRetried(string, Job, int, error) { o.retried.Add(1) }

func jobs(n int) []Job {
	out := make([]Job, n)
	for i := range out {
		dir := fmt.Sprintf("/work/%d", i)
		out[i] = Job{Label: fmt.Sprintf("job-%d", i), Dir: dir, Steps: [][]string{{"make", "clean"}, {"make", "-j2"}}}
	}
	return out
}

// --- RunWave ---

func TestRunWave_Empty(t *testing.T) {
	s := New(4, &fakeRunner{}, nil)
	r := s.RunWave(context.Background(), "render", nil)
	assert.Equal(t, 0, r.Total())
	assert.Equal(t, 0, r.Lanes)
}

func TestRunWave_AllSucceed(t *testing.T) {
	fr := &fakeRunner{}
	obs := &countingObserver{}
	s := New(3, fr, nil)
	s.Observer = obs

	r := s.RunWave(context.Background(), "compile", jobs(7))
	assert.Equal(t, 7, r.Total())
	assert.Equal(t, 7, r.Succeeded())
	assert.Equal(t, 3, r.Lanes)
	assert.Len(t, fr.calls, 14)
	assert.Equal(t, int32(7), obs.started.Load())
	assert.Equal(t, int32(7), obs.finished.Load())

	for i, res := range r.Results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, i%3, res.Lane)
		assert.Equal(t, fmt.Sprintf("job-%d", i), res.Job.Label)
		assert.Len(t, res.Steps, 2)
	}
}

func TestRunWave_StepsInOrderInJobDir(t *testing.T) {
	fr := &fakeRunner{}
	s := New(2, fr, nil)
	s.RunWave(context.Background(), "compile", jobs(4))

	for i := 0; i < 4; i++ {
		calls := fr.callsIn(fmt.Sprintf("/work/%d", i))
		require.Len(t, calls, 2)
		assert.Equal(t, []string{"make", "clean"}, calls[0].args)
		assert.Equal(t, []string{"make", "-j2"}, calls[1].args)
	}
}

func TestRunWave_LanesSequentialWithinLane(t *testing.T) {
	fr := &fakeRunner{delay: 5 * time.Millisecond}
	s := New(2, fr, nil)
	js := jobs(6)
	r := s.RunWave(context.Background(), "render", js)
	require.Equal(t, 6, r.Succeeded())

	// Per lane, each job must start after the previous one finished.
	for lane := 0; lane < 2; lane++ {
		var prevEnd time.Time
		for i := lane; i < len(js); i += 2 {
			res := r.Results[i]
			assert.Equal(t, lane, res.Lane)
			if !prevEnd.IsZero() {
				assert.False(t, res.Started.Before(prevEnd), "job %d started before its predecessor finished", i)
			}
			prevEnd = res.Finished
		}
	}
}

func TestRunWave_LanesRunInParallel(t *testing.T) {
	const lanes = 4
	var inflight atomic.Int32
	all := make(chan struct{})
	var once sync.Once
	fr := &fakeRunner{hook: func(context.Context, string, []string) {
		if inflight.Add(1) == lanes {
			once.Do(func() { close(all) })
		}
		select {
		case <-all:
		case <-time.After(5 * time.Second):
		}
	}}
	s := New(lanes, fr, nil)
	js := make([]Job, lanes)
	for i := range js {
		js[i] = Job{Label: fmt.Sprint(i), Steps: [][]string{{"convert"}}}
	}

	done := make(chan WaveReport)
	go func() { done <- s.RunWave(context.Background(), "render", js) }()

	select {
	case <-all:
	case <-time.After(3 * time.Second):
		t.Fatal("lanes did not run concurrently")
	}
	r := <-done
	assert.Equal(t, lanes, r.Succeeded())
}

func TestRunWave_BarrierWaitsForAllLanes(t *testing.T) {
	var finished atomic.Int32
	fr := &fakeRunner{hook: func(_ context.Context, _ string, args []string) {
		if args[0] == "slow" {
			time.Sleep(30 * time.Millisecond)
		}
		finished.Add(1)
	}}
	s := New(3, fr, nil)
	js := []Job{
		{Label: "a", Steps: [][]string{{"slow"}}},
		{Label: "b", Steps: [][]string{{"fast"}}},
		{Label: "c", Steps: [][]string{{"fast"}}},
		{Label: "d", Steps: [][]string{{"slow"}}},
	}
	r := s.RunWave(context.Background(), "render", js)
	assert.Equal(t, int32(4), finished.Load(), "RunWave returned before every job was attempted")
	assert.Equal(t, 4, r.Succeeded())
}

func TestRunWave_FailureIsolation(t *testing.T) {
	js := []Job{
		{Label: "bad", Dir: "/w/bad", Steps: [][]string{{"calcanim", "build", "bad"}}},
		{Label: "ok1", Dir: "/w/ok1", Steps: [][]string{{"calcanim", "build", "ok1"}}},
		{Label: "after-bad", Dir: "/w/after", Steps: [][]string{{"calcanim", "build", "after"}}},
		{Label: "ok2", Dir: "/w/ok2", Steps: [][]string{{"calcanim", "build", "ok2"}}},
	}
	fr := &fakeRunner{fail: map[string]int{"calcanim build bad": -1}}
	log := &recLogger{}
	s := New(2, fr, log)

	r := s.RunWave(context.Background(), "render", js)
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, 3, r.Succeeded())
	assert.Equal(t, StatusFailed, r.Results[0].Status)
	assert.Equal(t, StatusSucceeded, r.Results[2].Status, "lane must continue after a failure")

	failed := r.FailedJobs()
	require.Len(t, failed, 1)
	var te *tool.ToolError
	require.True(t, errors.As(failed[0].Err, &te))
	assert.Equal(t, 2, te.ExitCode)

	logged := log.joined()
	assert.Contains(t, logged, "bad failed")
	assert.Contains(t, logged, "command: calcanim build bad")
	assert.Contains(t, logged, "dir: /w/bad, exit code: 2")
	assert.Contains(t, logged, "bad things")
}

func TestRunWave_FailingStepDoesNotStopJob(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"make clean": -1}}
	s := New(1, fr, nil)
	r := s.RunWave(context.Background(), "compile", jobs(1))

	res := r.Results[0]
	assert.Equal(t, StatusFailed, res.Status)
	require.Len(t, res.Steps, 2)
	assert.Error(t, res.Steps[0].Err)
	assert.NoError(t, res.Steps[1].Err)
	assert.Len(t, fr.calls, 2)
}

func TestRunWave_RetryRecovers(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"make clean": 2}}
	obs := &countingObserver{}
	var waits []time.Duration
	s := New(1, fr, nil)
	s.Observer = obs
	s.Retry = WithRetries(3, 10*time.Millisecond, time.Second)
	s.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	r := s.RunWave(context.Background(), "compile", jobs(1))
	assert.Equal(t, 1, r.Succeeded())
	assert.Equal(t, 3, r.Results[0].Steps[0].Attempts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, waits)
	assert.Equal(t, int32(2), obs.retried.Load())
}

func TestRunWave_RetryExhausted(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"make clean": -1}}
	s := New(1, fr, nil)
	s.Retry = WithRetries(2, 0, 0)
	r := s.RunWave(context.Background(), "compile", jobs(1))
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, 3, r.Results[0].Steps[0].Attempts)
	assert.Len(t, fr.calls, 4) // 3 attempts of clean, 1 of build
}

func TestRunWave_NoRetryByDefault(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"make clean": 1}}
	s := New(1, fr, nil)
	r := s.RunWave(context.Background(), "compile", jobs(1))
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, 1, r.Results[0].Steps[0].Attempts)
}

func TestRunWave_InterruptSkipsUndispatched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sawCancelled atomic.Bool
	fr := &fakeRunner{hook: func(runCtx context.Context, _ string, _ []string) {
		cancel()
		if runCtx.Err() != nil {
			sawCancelled.Store(true)
		}
	}}
	s := New(1, fr, nil)
	r := s.RunWave(ctx, "compile", jobs(3))

	assert.Equal(t, StatusSucceeded, r.Results[0].Status, "dispatched job must finish")
	assert.Len(t, r.Results[0].Steps, 2)
	assert.False(t, sawCancelled.Load(), "tool calls must not see the cancellation")
	assert.Equal(t, StatusSkipped, r.Results[1].Status)
	assert.Equal(t, StatusSkipped, r.Results[2].Status)
	assert.True(t, errors.Is(r.Results[1].Err, context.Canceled))
	assert.Equal(t, 2, r.Skipped())
	assert.Equal(t, time.Duration(0), r.Results[1].Duration())
}

func TestRunWave_RespectsLaneCount(t *testing.T) {
	obs := &countingObserver{}
	fr := &fakeRunner{delay: 2 * time.Millisecond}
	s := New(2, fr, nil)
	s.Observer = obs
	s.RunWave(context.Background(), "render", jobs(8))
	assert.LessOrEqual(t, obs.maxBusy.Load(), int32(2))
}
