package main

import (
	"memmap/process"
	"memmap/process_linux"
)

func openChannel() (process.Channel, error) {
	ch, err := process_linux.Open(process_linux.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return ch, nil
}
