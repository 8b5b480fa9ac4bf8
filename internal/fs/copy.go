package fs

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/juju/clock"
)

// errSourceChanged aborts a copy whose source was replaced or rewritten mid-copy.
var errSourceChanged = errors.New("source changed during copy")

func copyWithRetry(ctx context.Context, clk clock.Clock, f FS, src, dst string) error {
	orig, err := f.Stat(src)
	if err != nil {
		return err
	}

	err = retry(ctx, clk, "copy", func() error {
		now, err := f.Stat(src)
		if err != nil {
			return err
		}

		if sourceChanged(orig, now) {
			return errSourceChanged
		}

		if err := copyOnce(src, dst); err != nil {
			return err
		}

		after, err := f.Stat(src)
		if err != nil {
			return err
		}
		if sourceChanged(orig, after) {
			return errSourceChanged
		}
		return nil
	})
	return wrap("copy", src, err)
}

func sourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	return now.Size != orig.Size
}

// copyOnce copies src over dst, truncating any existing file and keeping the source permissions.
func copyOnce(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}
