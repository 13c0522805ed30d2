package scheduler

import "time"

// RetryPolicy bounds how often a failing step is re-run. The wait before
// attempt n+1 is InitialBackoff * 2^(n-1), capped at MaxBackoff.
type RetryPolicy struct {
	MaxAttempts    int // Total attempts per step; values below 1 mean 1.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy runs every step exactly once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    1,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// WithRetries returns a policy allowing n extra attempts per step.
func WithRetries(n int, initial, maxWait time.Duration) RetryPolicy {
	if n < 0 {
		n = 0
	}
	return RetryPolicy{MaxAttempts: n + 1, InitialBackoff: initial, MaxBackoff: maxWait}
}

// Attempts is the effective attempt limit.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
