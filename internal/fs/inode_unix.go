//go:build unix

package fs

import (
	"os"
	"syscall"
)

// inodeOf lets copyWithRetry notice a source file that was replaced by rename while being copied.
func inodeOf(info os.FileInfo) uint64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(st.Ino)
}
