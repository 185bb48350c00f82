//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"memmap/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/unix"
)

// Config controls where and how the proc filesystem is read
type Config struct {
	ProcPath      string // Mount point of procfs
	RequireProcFS bool   // Reject ProcPath unless it is a procfs mount
	AddressLimit  uint64 // First address past the user address space
}

// DefaultConfig returns the configuration for the host's /proc
func DefaultConfig() Config {
	return Config{
		ProcPath:      "/proc",
		RequireProcFS: true,
		AddressLimit:  defaultAddressLimit(runtime.GOARCH),
	}
}

// defaultAddressLimit returns the top of user space for the common page table
// layouts of goarch. Snapshots grow past it when a mapping lies higher.
func defaultAddressLimit(goarch string) uint64 {
	switch goarch {
	case "arm64":
		return 1 << 48
	case "386", "arm", "mips", "mipsle":
		return 0xC0000000
	}
	return 1 << 47
}

// LinuxChannel implements the process.Channel interface on top of procfs
type LinuxChannel struct {
	cfg Config
	log *logger.Logger
}

// Open acquires the channel. It fails when ProcPath is missing or, with
// RequireProcFS, is not a procfs mount.
func Open(cfg Config) (*LinuxChannel, error) {
	info, err := os.Stat(cfg.ProcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", process.ErrAcquisitionFailed, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: %w", process.ErrAcquisitionFailed, cfg.ProcPath, syscall.ENOTDIR)
	}

	if cfg.RequireProcFS {
		var st unix.Statfs_t
		if err := unix.Statfs(cfg.ProcPath, &st); err != nil {
			return nil, fmt.Errorf("%w: statfs %s: %w", process.ErrAcquisitionFailed, cfg.ProcPath, err)
		}
		if st.Type != unix.PROC_SUPER_MAGIC {
			return nil, fmt.Errorf("%w: %s is not a proc filesystem: %w", process.ErrAcquisitionFailed, cfg.ProcPath, syscall.EINVAL)
		}
	}

	c := &LinuxChannel{
		cfg: cfg,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "procfs")),
	}
	c.log.Debugln("Channel opened at", cfg.ProcPath)
	return c, nil
}

// OpenProcess checks that pid exists and that its maps can be read
func (c *LinuxChannel) OpenProcess(pid process.ProcessID) (process.Handle, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("%w: pid %d: %w", process.ErrNotFound, pid, syscall.ESRCH)
	}

	// Check if process exists
	if _, err := os.Stat(c.procPath(pid)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: pid %d: %w", process.ErrNotFound, pid, err)
		}
		return nil, fmt.Errorf("%w: pid %d: %w", process.ErrAcquisitionFailed, pid, err)
	}

	// maps enforces ptrace access checks at open time
	f, err := os.Open(c.procPath(pid, "maps"))
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: pid %d: %w", process.ErrAccessDenied, pid, err)
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: pid %d: %w", process.ErrNotFound, pid, err)
		}
		return nil, fmt.Errorf("%w: pid %d: %w", process.ErrAcquisitionFailed, pid, err)
	}
	f.Close()

	return newLinuxProcess(c, pid), nil
}

// Close releases the channel. procfs holds no state, so this only logs.
func (c *LinuxChannel) Close() error {
	c.log.Debugln("Channel closed")
	return nil
}

func (c *LinuxChannel) procPath(pid process.ProcessID, paths ...string) string {
	p := append([]string{c.cfg.ProcPath, strconv.Itoa(int(pid))}, paths...)
	return filepath.Join(p...)
}
