package memory_map

import (
	"fmt"
)

// Protection is a page protection mask: one base permission optionally combined
// with the Guard modifier.
type Protection uint32

const (
	PageNoAccess         Protection = 0x01
	PageReadOnly         Protection = 0x02
	PageReadWrite        Protection = 0x04
	PageWriteCopy        Protection = 0x08
	PageExecute          Protection = 0x10
	PageExecuteRead      Protection = 0x20
	PageExecuteReadWrite Protection = 0x40
	PageExecuteWriteCopy Protection = 0x80

	PageGuard Protection = 0x100
)

// State is the lifecycle state of a region.
type State uint32

const (
	MemCommit  State = 0x1000
	MemReserve State = 0x2000
	MemFree    State = 0x10000
)

// Type describes how the storage of a region is supplied.
type Type uint32

const (
	MemPrivate Type = 0x20000
	MemMapped  Type = 0x40000
	MemImage   Type = 0x1000000
)

// Region describes one contiguous range of a process's address space
type Region struct {
	BaseAddress       uint64     // Start of the region
	RegionSize        uint64     // Length of the region in bytes
	State             State      // Committed, Reserved or Free
	Protect           Protection // Current protection, meaningful only when committed
	AllocationProtect Protection // Protection at allocation time, meaningless when free
	Type              Type       // Image, Mapped or Private, meaningless when free
	Path              string     // Backing file, only for images
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.BaseAddress + r.RegionSize
}

// String returns a string representation of the region
func (r Region) String() string {
	return fmt.Sprintf("Address: %x, Size: %x, State: %s, Protect: %s, Type: %s",
		r.BaseAddress, r.RegionSize, StateString(r.State), ProtectionString(r.Protect), TypeString(r.Type))
}

func (r Region) IsCommitted() bool {
	return r.State == MemCommit
}

func (r Region) IsFree() bool {
	return r.State == MemFree
}

func (r Region) IsImage() bool {
	return r.Type == MemImage
}

// ProtectionString returns the label of a protection mask. The base permission must
// match one of the eight known values exactly; anything else is "Unknown". The Guard
// suffix is applied independently of the base match.
func ProtectionString(protect Protection) string {
	guard := protect&PageGuard == PageGuard
	protect &^= PageGuard

	var text string
	switch protect {
	case PageNoAccess:
		text = "No Access"
	case PageReadOnly:
		text = "Read Only"
	case PageReadWrite:
		text = "Read/Write"
	case PageWriteCopy:
		text = "Write Copy"
	case PageExecute:
		text = "Execute"
	case PageExecuteRead:
		text = "Execute/Read"
	case PageExecuteReadWrite:
		text = "Execute/Read/Write"
	case PageExecuteWriteCopy:
		text = "Execute/Write Copy"
	default:
		text = "Unknown"
	}

	if guard {
		text += "/Guard"
	}
	return text
}

// StateString returns the label of a lifecycle state, or "" if it is not one of the
// three known states.
func StateString(state State) string {
	switch state {
	case MemCommit:
		return "Committed"
	case MemReserve:
		return "Reserved"
	case MemFree:
		return "Free"
	}
	return ""
}

// TypeString returns the label of a backing type, or "" if unknown.
func TypeString(t Type) string {
	switch t {
	case MemImage:
		return "Image"
	case MemMapped:
		return "Mapped"
	case MemPrivate:
		return "Private"
	}
	return ""
}
