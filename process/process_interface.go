package process

import (
	"memmap/process/memory_map"
)

// Channel is the privileged path used to open and inspect other processes.
// It is acquired once and closed after enumeration ends.
type Channel interface {
	// OpenProcess resolves a PID to a handle that regions can be queried against.
	// Failures wrap ErrAccessDenied or ErrNotFound together with the OS error.
	OpenProcess(pid ProcessID) (Handle, error)

	// Close releases the channel
	Close() error
}

// Handle is an open reference to a target process
type Handle interface {
	// GetPID returns the process ID
	GetPID() ProcessID

	// QueryRegion returns the region containing or following addr.
	// It returns ErrEndOfSpace when no region exists at or beyond addr.
	QueryRegion(addr ProcessMemoryAddress) (memory_map.Region, error)

	// ResolveMappedPath returns the file backing the image mapped at base.
	// It returns ErrPathUnavailable when no name can be resolved.
	ResolveMappedPath(base ProcessMemoryAddress) (string, error)

	// Close closes the handle and releases resources
	Close() error
}
