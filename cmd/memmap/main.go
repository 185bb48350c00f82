package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	gprocess "github.com/shirou/gopsutil/v3/process"

	"memmap/process"
	"memmap/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, openChannel))
}

func run(args []string, stdout io.Writer, open func() (process.Channel, error)) int {
	flags := flag.NewFlagSet("memmap", flag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.Usage = func() {
		fmt.Fprintln(stdout, "Usage: memmap <pid>")
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	fmt.Fprintln(stdout, "memmap - process memory map")

	if flags.NArg() != 1 {
		flags.Usage()
		return 0
	}

	pid, err := strconv.Atoi(flags.Arg(0))
	if err != nil || pid <= 0 {
		fmt.Fprintf(stdout, "Error: invalid pid %q\n", flags.Arg(0))
		flags.Usage()
		return 1
	}

	ch, err := open()
	if err != nil {
		return fatal(stdout, "Failed to open privileged channel", err)
	}
	defer ch.Close()

	proc, err := ch.OpenProcess(process.ProcessID(pid))
	if err != nil {
		return fatal(stdout, "Failed to open process object", err)
	}
	defer proc.Close()

	fmt.Fprintf(stdout, "Process: %s\n\n", describe(pid))

	if _, err := report.ShowMemoryMap(stdout, proc); err != nil {
		return fatal(stdout, "Failed to walk address space", err)
	}
	return 0
}

func fatal(w io.Writer, message string, err error) int {
	fmt.Fprintf(w, "%s: %v (error=%d)\n", message, err, process.ErrorCode(err))
	return 1
}

// describe names the target for the header, falling back to the bare PID
func describe(pid int) string {
	p, err := gprocess.NewProcess(int32(pid))
	if err != nil {
		return fmt.Sprintf("pid %d", pid)
	}
	name, err := p.Name()
	if err != nil || name == "" {
		return fmt.Sprintf("pid %d", pid)
	}
	return fmt.Sprintf("%s (pid %d)", name, pid)
}
