package watcher

import (
	"os"
	"path/filepath"

	"github.com/raoulx24/dir-archiver/internal/config"
)

// detect loads and publishes the config file if it changed since the last version seen.
// An invalid file is logged and skipped; the running config stays in effect.
func (w *Watcher) detect() {
	w.mu.RLock()
	path := w.path
	last := w.lastModTime
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		w.log.Warn("config file unavailable", "path", path, "error", err)
		return
	}

	mod := info.ModTime()
	if !mod.After(last) {
		return
	}

	if !w.isStable() {
		w.log.Debug("config file still being written", "path", path)
		return
	}

	w.mu.Lock()
	w.lastModTime = mod
	w.mu.Unlock()

	cfg, err := config.Load(path)
	if err != nil {
		w.log.Error("config reload failed", "path", path, "error", err)
		return
	}

	w.log.Info("config file changed", "path", path)
	w.mb.Put(cfg)
}

func (w *Watcher) dir() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return filepath.Dir(w.path)
}
