package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raoulx24/dir-archiver/internal/backup"
	"github.com/raoulx24/dir-archiver/internal/config"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/mailbox"
	"github.com/raoulx24/dir-archiver/internal/watcher"
)

// runDaemon keeps the schedule running until SIGINT/SIGTERM. Reloaded configs arrive
// through a mailbox, fed by SIGHUP and, when enabled, by the config file watcher.
func runDaemon(parent context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Logger
	log, closer, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	mgr := backup.New(cfg, backup.WithLogger(log))
	defer mgr.Close()

	if cfg.Schedule.Enabled {
		if err := mgr.ScheduleBackup(cfg.Schedule.InitialDelay, cfg.Schedule.Interval); err != nil {
			return err
		}
	}

	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, log)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Mailbox for reloaded configs
	mb := mailbox.New[*config.Config]()

	// Watcher (detects config file changes and pushes into mailbox)
	var watch *watcher.Watcher
	if cfg.ConfigReload.Enabled {
		watch = watcher.New(configPath, cfg.ConfigReload, log, mb)
		go func() {
			if err := watch.Start(ctx); err != nil {
				log.Error("config watcher stopped", "error", err)
			}
		}()
	}

	// Hot reload on SIGHUP
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				newCfg, err := config.Load(configPath)
				if err != nil {
					log.Error("config reload failed", "error", err)
					continue
				}
				mb.Put(newCfg)
			}
		}
	}()

	log.Info("daemon started",
		"sources", cfg.Sources,
		"root", cfg.Destination.Root,
		"autoBackup", mgr.IsAutoBackupEnabled(),
		"next", mgr.NextRun(),
	)

	for {
		newCfg, err := mb.Take(ctx)
		if err != nil {
			break
		}

		// Apply updates
		if err := mgr.UpdateConfig(newCfg); err != nil {
			log.Error("config apply failed", "error", err)
			continue
		}
		if watch != nil {
			watch.UpdateConfig(newCfg.ConfigReload)
		}
		log.Info("config reloaded", "autoBackup", mgr.IsAutoBackupEnabled(), "next", mgr.NextRun())
	}

	log.Info("shutting down")
	return nil
}

func serveMetrics(addr string, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
