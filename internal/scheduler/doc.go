// Package scheduler runs waves of independent jobs across a fixed number of
// worker lanes.
//
// Jobs are assigned round-robin: job i goes to lane i mod N. Lanes run
// concurrently; inside a lane jobs run strictly one after another. A failed
// job is logged with its full context and the lane moves on, so one bad
// configuration never stops its siblings. [Scheduler.RunWave] returns only
// once every lane has drained, which makes it the barrier between waves.
//
// After ctx is cancelled lanes stop dispatching: jobs not yet started are
// reported as skipped, while a job already running finishes its steps
// (tools run under context.WithoutCancel).
package scheduler
