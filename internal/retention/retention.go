// Package retention keeps only the most recent snapshots under a backups root.
package retention

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/juju/errors"

	"github.com/raoulx24/dir-archiver/internal/fs"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/metrics"
	"github.com/raoulx24/dir-archiver/internal/snapshot"
)

type Engine struct {
	fs  fs.FS
	log logging.Logger
}

func New(filesystem fs.FS, log logging.Logger) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Engine{fs: filesystem, log: log}
}

// Failure is a snapshot that could not be deleted.
type Failure struct {
	Name string
	Err  error
}

// Result reports what a prune did. Deleted and Failed are in pruning order, oldest last.
type Result struct {
	Deleted []string
	Failed  []Failure
}

// List returns the snapshots under root, newest first by modification time.
// Ties are broken by name, later names first. A missing root holds no snapshots.
func (e *Engine) List(root string) ([]snapshot.Info, error) {
	entries, err := e.fs.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backups root: %w", err)
	}

	var snaps []snapshot.Info
	for _, ent := range entries {
		name := ent.Name()
		if !ent.IsDir() || !snapshot.IsName(name) {
			continue
		}

		info, err := ent.Info()
		if err != nil {
			e.log.Warn("retention: skipping unreadable snapshot", "name", name, "error", err)
			continue
		}
		created, _, _ := snapshot.ParseName(name)

		snaps = append(snaps, snapshot.Info{
			Name:    name,
			Path:    filepath.Join(root, name),
			Created: created,
			ModTime: info.ModTime(),
		})
	}

	// Sort newest → oldest
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].ModTime.Equal(snaps[j].ModTime) {
			return snaps[i].ModTime.After(snaps[j].ModTime)
		}
		return snaps[i].Name > snaps[j].Name
	})
	return snaps, nil
}

// Count returns the number of snapshots under root.
func (e *Engine) Count(root string) (int, error) {
	snaps, err := e.List(root)
	return len(snaps), err
}

// Prune deletes every snapshot beyond the keep newest. Deletions are independent:
// a snapshot that cannot be removed is recorded in the result and the rest proceed.
// A negative keep is rejected before anything is touched.
func (e *Engine) Prune(ctx context.Context, root string, keep int) (Result, error) {
	var res Result
	if keep < 0 {
		return res, errors.NotValidf("retention keep count %d", keep)
	}

	snaps, err := e.List(root)
	if err != nil {
		return res, err
	}
	if len(snaps) <= keep {
		return res, nil
	}

	for _, s := range snaps[keep:] {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := e.fs.RemoveAll(s.Path); err != nil {
			e.log.Error("retention: failed to delete snapshot", "name", s.Name, "error", err)
			metrics.RetentionFailures.Inc()
			res.Failed = append(res.Failed, Failure{Name: s.Name, Err: err})
			continue
		}
		e.log.Info("retention: deleted snapshot", "name", s.Name)
		metrics.RetentionDeleted.Inc()
		res.Deleted = append(res.Deleted, s.Name)
	}
	return res, nil
}
