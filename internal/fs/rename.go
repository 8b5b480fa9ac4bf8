package fs

import (
	"context"
	"os"

	"github.com/juju/clock"
)

// renameWithRetry wraps os.Rename with retry logic.
// Snapshot finalization depends on it: a staging directory only becomes visible through this rename.
func renameWithRetry(ctx context.Context, clk clock.Clock, oldPath, newPath string) error {
	err := retry(ctx, clk, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
	return wrap("rename", oldPath, err)
}
