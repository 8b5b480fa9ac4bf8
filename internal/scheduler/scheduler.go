// Package scheduler fires a job at a fixed rate after an initial delay.
package scheduler

import (
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/robfig/cron/v3"

	"github.com/raoulx24/dir-archiver/internal/logging"
)

// Job runs on every fire. active reports whether the schedule that fired is still
// enabled; a job that blocks before doing its work must check it again afterwards.
type Job func(active func() bool)

// Scheduler owns the recurring timer. Overlapping fires are serialized by
// cron.DelayIfStillRunning: a fire that arrives while the job still runs waits
// for it instead of being dropped.
type Scheduler struct {
	mu          sync.Mutex
	cron        *cron.Cron
	gen         uint64
	delay       time.Duration
	interval    time.Duration
	stopTimeout time.Duration

	job Job
	log logging.Logger
}

// New creates a disabled scheduler for job. stopTimeout bounds how long Disable
// waits for an in-flight job.
func New(job Job, log logging.Logger, stopTimeout time.Duration) *Scheduler {
	return &Scheduler{job: job, log: log, stopTimeout: stopTimeout}
}

// Enable starts firing after initialDelay and then every interval, replacing any
// schedule already running.
func (s *Scheduler) Enable(initialDelay, interval time.Duration) error {
	if interval <= 0 {
		return errors.NotValidf("schedule interval %v", interval)
	}
	if initialDelay < 0 {
		return errors.NotValidf("schedule initial delay %v", initialDelay)
	}

	s.Disable()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	cl := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.DelayIfStillRunning(cl)),
	)
	active := func() bool { return s.active(gen) }
	c.Schedule(newFixedRate(time.Now().Add(initialDelay), interval), cron.FuncJob(func() {
		if !active() {
			s.log.Debug("dropping fire of a disabled schedule")
			return
		}
		s.job(active)
	}))
	c.Start()

	s.cron = c
	s.delay = initialDelay
	s.interval = interval
	s.log.Info("schedule enabled", "initialDelay", initialDelay, "interval", interval)
	return nil
}

// Disable cancels future fires. An in-flight job may finish; Disable waits for it
// at most the stop timeout and then returns without it.
func (s *Scheduler) Disable() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.gen++
	timeout := s.stopTimeout
	s.mu.Unlock()

	if c == nil {
		return
	}

	ctx := c.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		s.log.Warn("schedule disabled while a run is still in progress; not waiting further", "waited", timeout)
	}
	s.log.Info("schedule disabled")
}

func (s *Scheduler) active(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil && s.gen == gen
}

func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// Interval is the last configured interval, kept after Disable.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// InitialDelay is the last configured initial delay.
func (s *Scheduler) InitialDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

// Next returns the next firing time, or the zero time when disabled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c == nil {
		return time.Time{}
	}
	if entries := c.Entries(); len(entries) > 0 {
		return entries[0].Next
	}
	return time.Time{}
}

// SetInterval records the interval for the next Enable. An enabled schedule is
// restarted with its first fire one interval from now.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.NotValidf("schedule interval %v", d)
	}
	if s.Enabled() {
		return s.Enable(d, d)
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) SetStopTimeout(d time.Duration) {
	s.mu.Lock()
	s.stopTimeout = d
	s.mu.Unlock()
}

// cronLogger routes cron's own logging into ours.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
