// Package errs defines the error kinds shared across the service.
package errs

import "errors"

var (
	// ErrInvalidArgument is returned when a caller supplies bounds, counts or
	// parameters that cannot produce meaningful output.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClipboardUnavailable is reported when the clipboard write fails. It is
	// never fatal.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")

	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)
