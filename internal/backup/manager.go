// Package backup coordinates backup runs, their schedule and retention for one backups root.
package backup

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/raoulx24/dir-archiver/internal/config"
	"github.com/raoulx24/dir-archiver/internal/fs"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/metrics"
	"github.com/raoulx24/dir-archiver/internal/retention"
	"github.com/raoulx24/dir-archiver/internal/scheduler"
	"github.com/raoulx24/dir-archiver/internal/snapshot"
	"github.com/raoulx24/dir-archiver/internal/worker"
)

// ErrBusy is returned by TryRunBackup while another run is in progress.
const ErrBusy = errors.ConstError("backup already in progress")

// Manager is the single owner of the run lock, the schedule and the last-run status.
// At most one run (or retention pass) touches the backups root at any time.
type Manager struct {
	runMu   sync.Mutex
	running atomic.Bool

	mu       sync.RWMutex
	status   Status
	keepLast int

	worker    *worker.Worker
	retention *retention.Engine
	scheduler *scheduler.Scheduler

	fs    fs.FS
	clock clock.Clock
	log   logging.Logger
}

type Option func(*Manager)

func WithLogger(log logging.Logger) Option { return func(m *Manager) { m.log = log } }

func WithClock(clk clock.Clock) Option { return func(m *Manager) { m.clock = clk } }

func WithFS(filesystem fs.FS) Option { return func(m *Manager) { m.fs = filesystem } }

// New builds a Manager with its schedule disabled, whatever cfg.Schedule says;
// callers enable it explicitly with ScheduleBackup.
func New(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		keepLast: cfg.Retention.KeepLast,
		fs:       fs.New(),
		clock:    clock.WallClock,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.worker = worker.New(worker.SettingsFrom(cfg), m.log, m.clock, m.fs)
	m.retention = retention.New(m.fs, m.log)
	m.scheduler = scheduler.New(m.runScheduled, m.log, cfg.Schedule.StopTimeout)
	if cfg.Schedule.Interval > 0 {
		_ = m.scheduler.SetInterval(cfg.Schedule.Interval)
	}

	m.status.SnapshotCount = m.BackupCount()
	metrics.Snapshots.Set(float64(m.status.SnapshotCount))
	return m
}

// RunBackup runs a backup now, waiting for any run in progress to finish first.
// It reports whether every configured source was archived.
func (m *Manager) RunBackup(ctx context.Context) bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.runLocked(ctx, metrics.TriggerManual)
}

// TryRunBackup is RunBackup that returns ErrBusy instead of waiting.
func (m *Manager) TryRunBackup(ctx context.Context) (bool, error) {
	if !m.runMu.TryLock() {
		return false, ErrBusy
	}
	defer m.runMu.Unlock()
	return m.runLocked(ctx, metrics.TriggerManual), nil
}

// runScheduled waits for the run lock and then re-checks the schedule, so a fire that
// queued behind a manual run does nothing once the schedule has been stopped.
func (m *Manager) runScheduled(active func() bool) {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if !active() {
		m.log.Info("schedule stopped while waiting for the run lock, skipping scheduled backup")
		return
	}
	m.log.Info("running scheduled backup")
	m.runLocked(context.Background(), metrics.TriggerScheduled)
}

// runLocked executes one run; the caller holds runMu. Failures end here as a false
// outcome in the status and the log.
func (m *Manager) runLocked(ctx context.Context, trigger string) bool {
	m.running.Store(true)
	defer m.running.Store(false)

	m.log.Info("starting backup", "trigger", trigger)
	res, err := m.worker.Run(ctx, worker.Job{Trigger: trigger})

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		m.log.Error("backup failed", "trigger", trigger, "error", err)
	} else {
		m.log.Info("backup completed",
			"snapshot", res.Name,
			"files", len(res.Manifest.Entries),
			"size", humanize.IBytes(uint64(res.Manifest.Total)),
			"took", res.Finished.Sub(res.Started),
		)
		metrics.LastRunBytes.Set(float64(res.Manifest.Total))
		metrics.LastSuccess.Set(float64(res.Finished.Unix()))
	}
	metrics.RunsTotal.WithLabelValues(trigger, outcome).Inc()
	metrics.RunDuration.Observe(res.Finished.Sub(res.Started).Seconds())

	m.mu.RLock()
	keep := m.keepLast
	m.mu.RUnlock()
	if err == nil && keep > 0 {
		m.pruneLocked(ctx, keep)
	}

	count := m.BackupCount()
	metrics.Snapshots.Set(float64(count))

	m.mu.Lock()
	m.status = Status{
		LastRun:       res.Finished,
		Success:       err == nil,
		LastSnapshot:  res.Name,
		SnapshotCount: count,
	}
	m.mu.Unlock()

	return err == nil
}

// ScheduleBackup enables automatic runs: the first after initialDelay, then every interval.
func (m *Manager) ScheduleBackup(initialDelay, interval time.Duration) error {
	return m.scheduler.Enable(initialDelay, interval)
}

// StopScheduledBackup disables automatic runs. A run in progress is allowed to finish.
func (m *Manager) StopScheduledBackup() {
	m.scheduler.Disable()
}

func (m *Manager) IsAutoBackupEnabled() bool {
	return m.scheduler.Enabled()
}

func (m *Manager) BackupInterval() time.Duration {
	return m.scheduler.Interval()
}

func (m *Manager) BackupIntervalHours() float64 {
	return m.BackupInterval().Hours()
}

// SetBackupInterval changes the interval. An enabled schedule restarts with its first
// run one new interval from now.
func (m *Manager) SetBackupInterval(d time.Duration) error {
	if d <= 0 {
		return errors.NotValidf("backup interval %v", d)
	}
	m.log.Info("backup interval set", "interval", d)
	return m.scheduler.SetInterval(d)
}

func (m *Manager) SetBackupIntervalHours(hours float64) error {
	return m.SetBackupInterval(time.Duration(hours * float64(time.Hour)))
}

// State reports Running while a run holds the lock, otherwise Scheduled or Disabled.
func (m *Manager) State() State {
	if m.running.Load() {
		return Running
	}
	if m.scheduler.Enabled() {
		return Scheduled
	}
	return Disabled
}

// Status returns the outcome of the most recent run.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LastBackupStatus is Status rendered for display.
func (m *Manager) LastBackupStatus() string {
	return m.Status().String()
}

// NextRun is the next scheduled firing, zero when disabled.
func (m *Manager) NextRun() time.Time {
	return m.scheduler.Next()
}

// BackupCount counts the complete snapshots present on disk.
func (m *Manager) BackupCount() int {
	n, err := m.retention.Count(m.root())
	if err != nil {
		m.log.Error("error counting backups", "error", err)
		return 0
	}
	return n
}

// Snapshots lists the complete snapshots, newest first.
func (m *Manager) Snapshots() ([]snapshot.Info, error) {
	return m.retention.List(m.root())
}

// CleanupOldBackups keeps the keep most recent snapshots and deletes the rest.
// A negative keep is rejected without touching anything. It waits for a run in progress.
func (m *Manager) CleanupOldBackups(ctx context.Context, keep int) (retention.Result, error) {
	if keep < 0 {
		return retention.Result{}, errors.NotValidf("keep count %d", keep)
	}
	m.runMu.Lock()
	defer m.runMu.Unlock()

	res, err := m.pruneLocked(ctx, keep)

	count := m.BackupCount()
	metrics.Snapshots.Set(float64(count))
	m.mu.Lock()
	m.status.SnapshotCount = count
	m.mu.Unlock()
	return res, err
}

func (m *Manager) pruneLocked(ctx context.Context, keep int) (retention.Result, error) {
	res, err := m.retention.Prune(ctx, m.root(), keep)
	if err != nil {
		m.log.Error("error during backup cleanup", "error", err)
		return res, err
	}
	m.log.Info("backup cleanup finished", "keep", keep, "deleted", len(res.Deleted), "failed", len(res.Failed))
	return res, nil
}

// UpdateConfig applies a reloaded configuration. Sources, destination and copy
// settings take effect from the next run; schedule changes take effect now.
func (m *Manager) UpdateConfig(cfg *config.Config) error {
	m.worker.UpdateConfig(worker.SettingsFrom(cfg))

	m.mu.Lock()
	m.keepLast = cfg.Retention.KeepLast
	m.mu.Unlock()

	m.scheduler.SetStopTimeout(cfg.Schedule.StopTimeout)

	sched := cfg.Schedule
	switch {
	case !sched.Enabled && m.scheduler.Enabled():
		m.StopScheduledBackup()
	case sched.Enabled && (!m.scheduler.Enabled() ||
		m.scheduler.Interval() != sched.Interval ||
		m.scheduler.InitialDelay() != sched.InitialDelay):
		if err := m.ScheduleBackup(sched.InitialDelay, sched.Interval); err != nil {
			return err
		}
	}
	m.log.Info("configuration applied")
	return nil
}

// Close stops the schedule, waiting at most the stop timeout for a run in progress.
func (m *Manager) Close() {
	m.StopScheduledBackup()
}

func (m *Manager) root() string {
	return m.worker.Settings().Root
}
