//go:build windows

package fs

import "os"

// Windows does not expose POSIX inodes; replacement detection falls back to size and mtime.
func inodeOf(os.FileInfo) uint64 {
	return 0
}
