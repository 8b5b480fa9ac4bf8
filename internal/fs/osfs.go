package fs

import (
	"context"
	"os"

	"github.com/juju/clock"
)

// OSFS is the implementation of FS backed by the local OS filesystem.
// Platform-specific details (such as inode extraction) are handled in build-tagged files.
type OSFS struct {
	clock clock.Clock
}

func New() *OSFS {
	return NewWithClock(clock.WallClock)
}

// NewWithClock uses clk for retry backoff waits.
func NewWithClock(clk clock.Clock) *OSFS {
	return &OSFS{clock: clk}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, wrap("stat", path, err)
	}

	return FileInfo{
		Path:  path,
		Size:  st.Size(),
		MTime: st.ModTime(),
		Inode: inodeOf(st),
		Dir:   st.IsDir(),
	}, nil
}

func (o *OSFS) MkdirAll(path string) error {
	return wrap("mkdir", path, os.MkdirAll(path, 0o755))
}

func (o *OSFS) RemoveAll(path string) error {
	return wrap("remove", path, os.RemoveAll(path))
}

func (o *OSFS) CopyFile(ctx context.Context, src, dst string) error {
	return copyWithRetry(ctx, o.clock, o, src, dst)
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, o.clock, oldPath, newPath)
}

func (o *OSFS) WriteFile(path string, data []byte) error {
	return WriteFileAtomic(path, data)
}

func (o *OSFS) Walk(root string, v Visitor) error {
	return Walk(root, v)
}

func (o *OSFS) ReadDir(path string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, wrap("readdir", path, err)
	}
	return entries, nil
}
