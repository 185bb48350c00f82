// Package process provides interfaces and types for querying a process's address space
package process

import (
	"errors"
	"syscall"
)

var (
	// ErrAcquisitionFailed is returned when the privileged channel or a process handle
	// could not be obtained.
	ErrAcquisitionFailed = errors.New("acquisition failed")

	// ErrAccessDenied is returned when the caller lacks the rights to open the target.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is returned when no process with the requested PID exists.
	ErrNotFound = errors.New("process not found")

	// ErrQueryFailed is returned when a region query fails mid-enumeration.
	ErrQueryFailed = errors.New("region query failed")

	// ErrEndOfSpace signals that no region exists at or beyond the queried address.
	// It terminates a walk normally.
	ErrEndOfSpace = errors.New("end of address space")

	// ErrPathUnavailable is returned when no file name can be resolved for a region.
	ErrPathUnavailable = errors.New("mapped path not available")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")
)

// ErrorCode returns the OS error code carried by err, or 0 if there is none.
func ErrorCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
