package main

import (
	"memmap/process"
	"memmap/process_windows"
)

func openChannel() (process.Channel, error) {
	ch, err := process_windows.Open(process_windows.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return ch, nil
}
