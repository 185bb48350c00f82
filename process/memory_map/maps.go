package memory_map

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// PageSize is the granularity region answers are aligned to
const PageSize = 0x1000

// MapsEntry is one mapping from /proc/[pid]/maps
type MapsEntry struct {
	Start  uint64 // First address of the mapping
	End    uint64 // First address past the mapping
	Perms  string // Permissions (e.g., "r-xp" for read, execute, private)
	Offset uint64 // Offset into the backing file
	Inode  uint64 // Inode of the backing file, 0 for anonymous mappings
	Path   string // Backing file or pseudo path such as [heap], may be empty
}

func (e MapsEntry) IsReadable() bool {
	return len(e.Perms) > 0 && e.Perms[0] == 'r'
}

func (e MapsEntry) IsWritable() bool {
	return len(e.Perms) > 1 && e.Perms[1] == 'w'
}

func (e MapsEntry) IsExecutable() bool {
	return len(e.Perms) > 2 && e.Perms[2] == 'x'
}

func (e MapsEntry) IsShared() bool {
	return len(e.Perms) > 3 && e.Perms[3] == 's'
}

// IsFileBacked reports whether the mapping names a file rather than an anonymous
// or pseudo mapping like [stack].
func (e MapsEntry) IsFileBacked() bool {
	return strings.HasPrefix(e.Path, "/")
}

// ParseMaps parses the contents of a /proc/[pid]/maps file. Malformed lines are
// skipped. The result is sorted by start address.
func ParseMaps(r io.Reader) ([]MapsEntry, error) {
	var entries []MapsEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		entry, ok := parseMapsLine(scanner.Text())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})

	return entries, nil
}

// parseMapsLine parses a line such as
// "00400000-0040b000 r-xp 00000000 08:01 1234    /usr/bin/cat".
// The path is everything after the inode and may contain spaces.
func parseMapsLine(line string) (MapsEntry, bool) {
	fields := strings.SplitN(line, " ", 6)
	if len(fields) < 5 {
		return MapsEntry{}, false
	}

	// Parse address range (e.g., "00400000-0040b000")
	addrRange := strings.Split(fields[0], "-")
	if len(addrRange) != 2 {
		return MapsEntry{}, false
	}

	start, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return MapsEntry{}, false
	}

	end, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil || end <= start {
		return MapsEntry{}, false
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return MapsEntry{}, false
	}

	inode, err := strconv.ParseUint(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil {
		return MapsEntry{}, false
	}

	entry := MapsEntry{
		Start:  start,
		End:    end,
		Perms:  fields[1],
		Offset: offset,
		Inode:  inode,
	}
	if len(fields) == 6 {
		entry.Path = strings.TrimSpace(fields[5])
	}

	return entry, true
}

// Snapshot answers region queries against one reading of a maps file, the way
// VirtualQueryEx answers them against a live address space: the mapping containing
// the address, or the free gap around it, up to limit.
type Snapshot struct {
	entries []MapsEntry
	images  map[string]struct{}
	limit   uint64
}

// KernelHalf is the first address of the kernel half of a 64-bit address space.
// Mappings at or above it, such as [vsyscall], are never listed.
const KernelHalf = 1 << 63

// NewSnapshot builds a snapshot from sorted entries. limit is the first address past
// the user address space. It grows to cover the highest user mapping, so hosts with
// a larger address space than limit assumes still list every mapping.
func NewSnapshot(entries []MapsEntry, limit uint64) *Snapshot {
	entries = lo.Filter(entries, func(e MapsEntry, _ int) bool {
		return e.Start < KernelHalf
	})
	if n := len(entries); n > 0 && entries[n-1].End > limit {
		limit = entries[n-1].End
	}

	// a file with any executable mapping is a loaded module
	modules := lo.FilterMap(entries, func(e MapsEntry, _ int) (string, bool) {
		return e.Path, e.IsFileBacked() && e.IsExecutable()
	})

	return &Snapshot{
		entries: entries,
		images: lo.Associate(modules, func(path string) (string, struct{}) {
			return path, struct{}{}
		}),
		limit: limit,
	}
}

// EntryAt returns the mapping containing addr.
func (s *Snapshot) EntryAt(addr uint64) (MapsEntry, bool) {
	i := s.search(addr)
	if i < len(s.entries) && s.entries[i].Start <= addr {
		return s.entries[i], true
	}
	return MapsEntry{}, false
}

// RegionAt returns the part of the region containing addr that starts at addr's
// page. The second result is false when addr lies beyond the last mapping and the
// address limit.
func (s *Snapshot) RegionAt(addr uint64) (Region, bool) {
	i := s.search(addr)
	if i < len(s.entries) && s.entries[i].Start <= addr {
		return clip(s.regionFromEntry(s.entries[i]), addr), true
	}

	var gapStart uint64
	if i > 0 {
		gapStart = s.entries[i-1].End
	}
	gapEnd := s.limit
	if i < len(s.entries) {
		gapEnd = s.entries[i].Start
	}
	if gapEnd <= addr || gapEnd <= gapStart {
		return Region{}, false
	}

	return clip(Region{
		BaseAddress: gapStart,
		RegionSize:  gapEnd - gapStart,
		State:       MemFree,
	}, addr), true
}

// clip moves the start of r up to the page containing addr, so consecutive answers
// stay contiguous even when the maps file changes between queries.
func clip(r Region, addr uint64) Region {
	page := addr &^ (PageSize - 1)
	if page > r.BaseAddress {
		r.RegionSize -= page - r.BaseAddress
		r.BaseAddress = page
	}
	return r
}

// search returns the index of the first entry ending past addr
func (s *Snapshot) search(addr uint64) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].End > addr
	})
}

func (s *Snapshot) regionFromEntry(e MapsEntry) Region {
	region := Region{
		BaseAddress: e.Start,
		RegionSize:  e.End - e.Start,
		Type:        s.typeOf(e),
	}

	if !e.IsReadable() && !e.IsWritable() && !e.IsExecutable() {
		// PROT_NONE keeps the range claimed without usable storage
		region.State = MemReserve
		region.AllocationProtect = PageNoAccess
		return region
	}

	region.State = MemCommit
	region.Protect = ProtectionFromPerms(e)
	region.AllocationProtect = region.Protect
	return region
}

func (s *Snapshot) typeOf(e MapsEntry) Type {
	if e.IsFileBacked() {
		if _, ok := s.images[e.Path]; ok {
			return MemImage
		}
		return MemMapped
	}
	if e.IsShared() {
		return MemMapped
	}
	return MemPrivate
}

// ProtectionFromPerms converts maps permissions to a protection mask. Private
// writable file mappings are copy-on-write.
func ProtectionFromPerms(e MapsEntry) Protection {
	r, w, x := e.IsReadable(), e.IsWritable(), e.IsExecutable()
	cow := w && e.IsFileBacked() && !e.IsShared()

	switch {
	case x && cow:
		return PageExecuteWriteCopy
	case x && w:
		return PageExecuteReadWrite
	case x && r:
		return PageExecuteRead
	case x:
		return PageExecute
	case cow:
		return PageWriteCopy
	case w:
		return PageReadWrite
	case r:
		return PageReadOnly
	}
	return PageNoAccess
}
