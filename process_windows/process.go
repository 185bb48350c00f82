//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"memmap/process"
	"memmap/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

var (
	modpsapi               = windows.NewLazySystemDLL("psapi.dll")
	procGetMappedFileNameW = modpsapi.NewProc("GetMappedFileNameW")
)

// WindowsProcess implements the process.Handle interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	mu     sync.Mutex
}

func newWindowsProcess(pid process.ProcessID, handle windows.Handle) *WindowsProcess {
	p := &WindowsProcess{
		pid:    pid,
		handle: handle,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}
	p.log.Infoln("Process opened")
	return p
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != 0 {
		if err := windows.CloseHandle(p.handle); err != nil {
			return fmt.Errorf("CloseHandle failed: %w", err)
		}
		p.handle = 0
	}

	p.pid = 0
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	p.log.Infoln("Process closed")

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *WindowsProcess) getHandle() (windows.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return 0, process.ErrProcessNotOpen
	}
	return p.handle, nil
}

// QueryRegion wraps VirtualQueryEx. Addresses above the highest application
// address fail with ERROR_INVALID_PARAMETER, which ends the walk.
func (p *WindowsProcess) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.Region, error) {
	handle, err := p.getHandle()
	if err != nil {
		return memory_map.Region{}, err
	}

	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQueryEx(handle, uintptr(addr), &mbi, unsafe.Sizeof(mbi)); err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return memory_map.Region{}, process.ErrEndOfSpace
		}
		return memory_map.Region{}, fmt.Errorf("VirtualQueryEx failed: %w", err)
	}

	return memory_map.Region{
		BaseAddress:       uint64(mbi.BaseAddress),
		RegionSize:        uint64(mbi.RegionSize),
		State:             memory_map.State(mbi.State),
		Protect:           memory_map.Protection(mbi.Protect),
		AllocationProtect: memory_map.Protection(mbi.AllocationProtect),
		Type:              memory_map.Type(mbi.Type),
	}, nil
}

// ResolveMappedPath returns the device path of the file mapped at base
func (p *WindowsProcess) ResolveMappedPath(base process.ProcessMemoryAddress) (string, error) {
	handle, err := p.getHandle()
	if err != nil {
		return "", err
	}

	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, _, err := procGetMappedFileNameW.Call(
		uintptr(handle),
		uintptr(base),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if n == 0 {
		p.log.Debugln("GetMappedFileNameW failed at", base.ToString(), err)
		return "", fmt.Errorf("%w: %w", process.ErrPathUnavailable, err)
	}

	return windows.UTF16ToString(buf[:n]), nil
}
