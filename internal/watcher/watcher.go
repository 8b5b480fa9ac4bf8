// Package watcher monitors the configuration file and publishes reloaded configs.
package watcher

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/raoulx24/dir-archiver/internal/config"
	"github.com/raoulx24/dir-archiver/internal/fsprobe"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/mailbox"
)

// Watcher observes the config file and puts every valid new version into the mailbox.
type Watcher struct {
	mu sync.RWMutex

	path      string
	interval  time.Duration
	mode      string
	debounce  time.Duration
	stability time.Duration

	log logging.Logger

	lastModTime time.Time

	mb *mailbox.Mailbox[*config.Config]
}

// New creates a watcher for the config file at path. The file's current version
// counts as already applied.
func New(path string, cfg config.ReloadConfig, log logging.Logger, mb *mailbox.Mailbox[*config.Config]) *Watcher {
	w := &Watcher{
		path:      path,
		interval:  cfg.PollInterval,
		mode:      cfg.Method,
		debounce:  cfg.DebounceWindow,
		stability: cfg.DebounceWindow,
		log:       log,
		mb:        mb,
	}
	if st, err := os.Stat(path); err == nil {
		w.lastModTime = st.ModTime()
	}
	return w
}

// Start chooses the watching strategy from the reload method and blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	w.mu.RUnlock()

	switch mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)

	case "poll":
		w.StartPolling(ctx)
		return nil

	case "", "auto":
		res := fsprobe.Probe(w.dir(), fsprobe.DefaultTimeout)
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, polling config file", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown reload method %q", mode)
	}
}
