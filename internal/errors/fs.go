package errors

import (
	"context"
	"errors"
	"io/fs"
)

// MapFSError maps filesystem errors to AppError instances.
//   - fs.ErrNotExist → NotFound
//   - fs.ErrPermission → Internal
//   - Context timeouts/cancellations → Timeout/Canceled
//
// Errors that already carry an AppError are returned unchanged.
func MapFSError(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "request was canceled")
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(err, ErrCodeNotFound, message)
	default:
		return Wrap(err, ErrCodeInternal, message)
	}
}
