//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sync"

	"memmap/process"
	"memmap/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements the process.Handle interface for Linux systems.
// /proc/[pid]/maps is read once per walk: the snapshot is reused while queries
// move forward and reloaded when a query goes back to or before the previous one.
type LinuxProcess struct {
	ch        *LinuxChannel
	pid       process.ProcessID
	log       *logger.Logger
	snap      *memory_map.Snapshot
	lastQuery process.ProcessMemoryAddress
	loads     int // Number of maps reads
	mu        sync.Mutex
}

func newLinuxProcess(ch *LinuxChannel, pid process.ProcessID) *LinuxProcess {
	p := &LinuxProcess{
		ch:  ch,
		pid: pid,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}
	p.log.Infoln("Process opened")
	return p
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pid = 0
	p.snap = nil
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	p.log.Infoln("Process closed")

	return nil
}

// QueryRegion returns the mapping containing addr, or the free gap around it
func (p *LinuxProcess) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.Region, error) {
	p.mu.Lock()
	snap, err := p.snapshotLocked(p.snap == nil || addr <= p.lastQuery)
	p.lastQuery = addr
	p.mu.Unlock()
	if err != nil {
		return memory_map.Region{}, err
	}

	region, ok := snap.RegionAt(uint64(addr))
	if !ok {
		return memory_map.Region{}, process.ErrEndOfSpace
	}

	p.log.Debugln("Query", addr.ToString(), "->", region.String())
	return region, nil
}

// ResolveMappedPath returns the file mapped at base. The map_files link needs
// CAP_SYS_ADMIN; without it the path recorded in maps is used.
func (p *LinuxProcess) ResolveMappedPath(base process.ProcessMemoryAddress) (string, error) {
	p.mu.Lock()
	snap, err := p.snapshotLocked(p.snap == nil)
	pid := p.pid
	p.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("%w: %w", process.ErrPathUnavailable, err)
	}

	entry, ok := snap.EntryAt(uint64(base))
	if !ok || !entry.IsFileBacked() {
		return "", process.ErrPathUnavailable
	}

	link := p.ch.procPath(pid, "map_files", fmt.Sprintf("%x-%x", entry.Start, entry.End))
	target, err := os.Readlink(link)
	if err != nil {
		p.log.Debugln("Failed to read", link, err)
		return entry.Path, nil
	}
	return target, nil
}

// snapshotLocked returns the cached snapshot, reading maps first when reload is set
// or nothing is cached. p.mu must be held.
func (p *LinuxProcess) snapshotLocked(reload bool) (*memory_map.Snapshot, error) {
	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}
	if !reload && p.snap != nil {
		return p.snap, nil
	}

	file, err := os.Open(p.ch.procPath(p.pid, "maps"))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}
	defer file.Close()

	entries, err := memory_map.ParseMaps(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}

	p.loads++
	p.snap = memory_map.NewSnapshot(entries, p.ch.cfg.AddressLimit)
	return p.snap, nil
}
