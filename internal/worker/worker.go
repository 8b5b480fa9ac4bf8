// Package worker executes backup runs and writes atomic snapshot directories.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/raoulx24/dir-archiver/internal/archive"
	"github.com/raoulx24/dir-archiver/internal/config"
	"github.com/raoulx24/dir-archiver/internal/fs"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/snapshot"
)

const (
	stagingPrefix = ".staging-"
	failedSuffix  = ".failed"
)

// Settings is the part of the configuration a run reads.
type Settings struct {
	Sources    []string
	Root       string
	KeepFailed bool
	Workers    int
}

// SettingsFrom extracts run settings from a config.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Sources:    append([]string(nil), cfg.Sources...),
		Root:       cfg.Destination.Root,
		KeepFailed: cfg.Destination.KeepFailed,
		Workers:    cfg.Copy.Workers,
	}
}

// Worker writes snapshots into the backups root. It does not serialize runs itself;
// callers must ensure only one Run is in progress per backups root.
type Worker struct {
	mu       sync.RWMutex
	settings Settings
	fs       fs.FS
	clock    clock.Clock
	log      logging.Logger
}

// New creates a worker. A nil filesystem selects the OS filesystem.
func New(settings Settings, log logging.Logger, clk clock.Clock, filesystem fs.FS) *Worker {
	log.Debug("creating worker")
	if filesystem == nil {
		filesystem = fs.New()
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Worker{
		settings: settings,
		fs:       filesystem,
		clock:    clk,
		log:      log,
	}
}

// UpdateConfig hot-reloads run settings. A run already in progress keeps the settings it started with.
func (w *Worker) UpdateConfig(settings Settings) {
	w.mu.Lock()
	w.settings = settings
	w.mu.Unlock()
}

// Settings returns the current run settings.
func (w *Worker) Settings() Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.settings
}

// Run copies every source into a staging directory, writes the manifest and publishes
// the staging directory under its snapshot name. Each source is attempted even when an
// earlier one failed; any failure leaves no published snapshot and is returned joined.
func (w *Worker) Run(ctx context.Context, job Job) (Result, error) {
	settings := w.Settings()
	res := Result{Started: w.clock.Now()}
	log := w.log

	staging := filepath.Join(settings.Root, stagingPrefix+uuid.NewString())
	log.Debug("staging snapshot", "trigger", job.Trigger, "staging", staging)

	if err := w.fs.MkdirAll(staging); err != nil {
		res.Finished = w.clock.Now()
		return res, fmt.Errorf("creating staging dir: %w", err)
	}

	arch := archive.New(w.fs, log, settings.Workers)

	var errs []error
	var files []string
	for _, src := range settings.Sources {
		base := filepath.Base(filepath.Clean(src))

		st, err := w.fs.Stat(src)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn("source directory missing, skipping", "source", src)
			res.Skipped = append(res.Skipped, src)
			continue
		case err != nil:
			log.Error("cannot access source directory", "source", src, "error", err)
			errs = append(errs, err)
			continue
		case !st.Dir:
			log.Error("source is not a directory", "source", src)
			errs = append(errs, &fs.Error{Op: "archive", Path: src, Err: errors.New("not a directory")})
			continue
		}

		copied, err := arch.CopyTree(ctx, src, filepath.Join(staging, base))
		if err != nil {
			log.Error("source directory backup failed", "source", src, "error", err)
			errs = append(errs, fmt.Errorf("backing up %s: %w", src, err))
			continue
		}
		for _, rel := range copied {
			files = append(files, filepath.Join(base, rel))
		}
		log.Info("source directory backed up", "source", src, "files", len(copied))
	}

	if len(errs) == 0 {
		m, err := snapshot.BuildManifest(w.fs, staging, files, res.Started)
		if err != nil {
			log.Error("manifest failed", "error", err)
			errs = append(errs, err)
		}
		res.Manifest = m
	}

	if len(errs) == 0 {
		name, final, err := w.publish(ctx, settings.Root, staging, res.Started)
		if err != nil {
			errs = append(errs, err)
		} else {
			res.Name, res.Path = name, final
		}
	}

	if len(errs) > 0 {
		w.discard(ctx, settings, staging, res.Started)
		res.Finished = w.clock.Now()
		return res, errors.Join(errs...)
	}

	res.Succeeded = true
	res.Finished = w.clock.Now()
	return res, nil
}

// publish renames the staging dir to the first free snapshot name for ts.
func (w *Worker) publish(ctx context.Context, root, staging string, ts time.Time) (string, string, error) {
	for seq := 0; ; seq++ {
		name := snapshot.Name(ts, seq)
		final := filepath.Join(root, name)
		if _, err := w.fs.Stat(final); err == nil {
			continue
		}
		if err := w.fs.Rename(ctx, staging, final); err != nil {
			return "", "", fmt.Errorf("finalizing snapshot: %w", err)
		}
		return name, final, nil
	}
}

// discard removes a failed staging dir, or parks it as <name>.failed for inspection.
func (w *Worker) discard(ctx context.Context, settings Settings, staging string, ts time.Time) {
	if settings.KeepFailed {
		failed := filepath.Join(settings.Root, snapshot.Name(ts, 0)+failedSuffix)
		if err := w.fs.Rename(ctx, staging, failed); err == nil {
			w.log.Warn("kept failed snapshot for inspection", "path", failed)
			return
		}
	}
	if err := w.fs.RemoveAll(staging); err != nil {
		w.log.Error("failed to remove staging dir", "path", staging, "error", err)
	}
}
