package watcher

import (
	"github.com/raoulx24/dir-archiver/internal/config"
)

// UpdateConfig applies reloaded watch settings. The method takes effect on the next Start.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.interval = cfg.PollInterval
	w.mode = cfg.Method
	w.debounce = cfg.DebounceWindow
	w.stability = cfg.DebounceWindow
}
