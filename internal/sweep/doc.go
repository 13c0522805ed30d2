// Package sweep renders and compiles every (input, fps, size) combination
// found in a directory.
//
// A sweep runs in two waves on a scheduler.Scheduler. The render wave
// re-invokes this binary's build command once per configuration; the
// compile wave runs make in each generated project. The compile wave
// starts only after every render job has finished.
//
// Split: discover.go (input listing), plan.go (enumeration and job
// construction), sweep.go (wave execution and summary).
package sweep
