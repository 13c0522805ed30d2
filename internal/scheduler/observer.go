package scheduler

// Observer receives job lifecycle events, typically to record metrics.
// Calls arrive concurrently from every lane. A nil Observer is skipped.
type Observer interface {
	JobStarted(wave string, lane int, job Job)
	JobFinished(wave string, lane int, res JobResult)
	StepRetried(wave string, job Job, attempt int, err error)
}

// Logger is the subset of the process logger the scheduler needs.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Debug(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}
