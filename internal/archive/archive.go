// Package archive mirrors source directory trees into snapshot directories.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/raoulx24/dir-archiver/internal/fs"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/metrics"
)

// Archiver copies trees with a bounded number of concurrent file copies.
type Archiver struct {
	fs      fs.FS
	log     logging.Logger
	workers int
}

func New(filesystem fs.FS, log logging.Logger, workers int) *Archiver {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if workers < 1 {
		workers = 1
	}
	return &Archiver{fs: filesystem, log: log, workers: workers}
}

// CopyTree mirrors source into destination, creating directories as needed and
// overwriting existing entries. It returns every regular file under destination
// afterwards, relative to destination, in walk order.
//
// The first failing file cancels the remaining copies of this tree and its error is returned.
// Symbolic links and special files are skipped.
func (a *Archiver) CopyTree(ctx context.Context, source, destination string) ([]string, error) {
	a.log.Debug("copying tree", "source", source, "destination", destination)

	if err := a.fs.MkdirAll(destination); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	walkErr := a.fs.Walk(source, fs.VisitorFuncs{
		OnDir: func(rel string, _ os.FileInfo) error {
			dst := filepath.Join(destination, rel)
			if err := a.clearMismatch(dst, true); err != nil {
				return err
			}
			return a.fs.MkdirAll(dst)
		},
		OnFile: func(rel string, _ os.FileInfo) error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := filepath.Join(source, rel)
			dst := filepath.Join(destination, rel)
			if err := a.clearMismatch(dst, false); err != nil {
				return err
			}
			g.Go(func() error {
				if err := a.fs.CopyFile(gctx, src, dst); err != nil {
					a.log.Error("copy failed", "src", src, "dst", dst, "error", err)
					return err
				}
				metrics.CopiedFiles.Inc()
				return nil
			})
			return nil
		},
	})

	// wait for in-flight copies even when the walk itself failed
	copyErr := g.Wait()
	if walkErr != nil {
		if copyErr != nil {
			return nil, copyErr
		}
		return nil, fmt.Errorf("walking %s: %w", source, walkErr)
	}
	if copyErr != nil {
		return nil, copyErr
	}

	files, err := fs.ListFiles(destination)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", destination, err)
	}
	return files, nil
}

// clearMismatch removes an existing destination entry whose kind differs from the source entry.
func (a *Archiver) clearMismatch(dst string, wantDir bool) error {
	st, err := a.fs.Stat(dst)
	if err != nil {
		return nil // absent
	}
	if st.Dir == wantDir {
		return nil
	}
	a.log.Debug("replacing destination entry of a different kind", "path", dst)
	return a.fs.RemoveAll(dst)
}
