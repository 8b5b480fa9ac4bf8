package scheduler

import "time"

// fixedRate is a cron.Schedule firing at start and then every interval after it.
// Firing times derive from start, never from when the previous run finished.
//
// cron only calls Next from its run loop, so primed needs no locking.
type fixedRate struct {
	start    time.Time
	interval time.Duration
	primed   bool
}

func newFixedRate(start time.Time, interval time.Duration) *fixedRate {
	return &fixedRate{start: start, interval: interval}
}

// Next returns the first firing time after t. The very first call always returns
// start so a zero initial delay fires immediately even though cron asks a moment later.
func (s *fixedRate) Next(t time.Time) time.Time {
	if !s.primed {
		s.primed = true
		return s.start
	}
	if t.Before(s.start) {
		return s.start
	}
	n := t.Sub(s.start)/s.interval + 1
	return s.start.Add(n * s.interval)
}
