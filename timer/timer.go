// Package timer provides nanosecond-resolution elapsed-time measurement and
// statistical summarization of recorded durations.
package timer

import "time"

// Timer measures elapsed time using the monotonic clock.
type Timer struct {
	start   time.Time
	stopped time.Time
}

// Start creates a new Timer running from now.
func Start() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started, or the frozen duration
// if the timer was stopped.
func (t *Timer) Elapsed() time.Duration {
	if !t.stopped.IsZero() {
		return t.stopped.Sub(t.start)
	}
	return time.Since(t.start)
}

// Stop freezes the timer and returns the final elapsed duration. Stopping an
// already stopped timer returns the same duration.
func (t *Timer) Stop() time.Duration {
	if t.stopped.IsZero() {
		t.stopped = time.Now()
	}
	return t.stopped.Sub(t.start)
}

// StartedAt returns the timer's start time.
func (t *Timer) StartedAt() time.Time {
	return t.start
}

// Recorder accumulates duration samples for later summarization.
type Recorder struct {
	samples []time.Duration
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends one sample.
func (r *Recorder) Record(d time.Duration) {
	r.samples = append(r.samples, d)
}

// Samples returns a copy of the recorded samples.
func (r *Recorder) Samples() []time.Duration {
	out := make([]time.Duration, len(r.samples))
	copy(out, r.samples)
	return out
}

// Stats summarizes the recorded samples.
func (r *Recorder) Stats() DurationStats {
	return Summarize(r.samples)
}
