//go:build !linux && !windows

package main

import (
	"fmt"
	"runtime"

	"memmap/process"
)

func openChannel() (process.Channel, error) {
	return nil, fmt.Errorf("%w: no channel for %s", process.ErrAcquisitionFailed, runtime.GOOS)
}
