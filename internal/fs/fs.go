// Package fs defines the filesystem abstraction used by dir-archiver.
// It provides the FS interface, the FileInfo type shared across the system,
// the atomic write primitive and the tree walk used to mirror directories.
package fs

import (
	"context"
	"os"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	Inode uint64
	Dir   bool
}

type FS interface {
	Stat(path string) (FileInfo, error)
	CopyFile(ctx context.Context, src, dst string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	MkdirAll(path string) error
	RemoveAll(path string) error
	// WriteFile replaces path with data atomically; readers never observe a partial file.
	WriteFile(path string, data []byte) error
	Walk(root string, v Visitor) error
	// ReadDir lists the direct entries of path sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)
}
