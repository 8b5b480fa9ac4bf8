package fs

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	jujuerrors "github.com/juju/errors"
)

// ErrIO is the single recoverable category every filesystem failure falls into:
// missing paths, permission problems, full disks.
const ErrIO = jujuerrors.ConstError("i/o failure")

// Error records the operation and path of a failed filesystem call.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrIO for every *Error so callers can classify without unwrapping.
func (e *Error) Is(target error) bool { return target == ErrIO }

// wrap classifies err as an I/O failure. Errors that already carry an *Error
// and context errors are returned untouched.
func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Op: op, Path: path, Err: err}
}

// isTransient reports errors worth retrying: the resource is momentarily busy.
func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// extend here for network filesystem specific errors if needed
	return false
}
