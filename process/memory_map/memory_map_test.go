package memory_map

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectionString(t *testing.T) {
	tests := []struct {
		name    string
		protect Protection
		want    string
	}{
		{"no access", PageNoAccess, "No Access"},
		{"read only", PageReadOnly, "Read Only"},
		{"read write", PageReadWrite, "Read/Write"},
		{"write copy", PageWriteCopy, "Write Copy"},
		{"execute", PageExecute, "Execute"},
		{"execute read", PageExecuteRead, "Execute/Read"},
		{"execute read write", PageExecuteReadWrite, "Execute/Read/Write"},
		{"execute write copy", PageExecuteWriteCopy, "Execute/Write Copy"},
		{"guarded read write", PageReadWrite | PageGuard, "Read/Write/Guard"},
		{"guarded execute read", PageExecuteRead | PageGuard, "Execute/Read/Guard"},
		{"zero", 0, "Unknown"},
		{"combined bits are not a permission", PageReadOnly | PageExecute, "Unknown"},
		{"nocache modifier", PageReadWrite | 0x200, "Unknown"},
		{"guard alone", PageGuard, "Unknown/Guard"},
		{"unknown guarded", 0x3 | PageGuard, "Unknown/Guard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProtectionString(tt.protect))
		})
	}
}

func TestProtectionStringTotal(t *testing.T) {
	for mask := Protection(0); mask < 0x400; mask++ {
		first := ProtectionString(mask)
		assert.NotEmpty(t, first, "mask %#x", uint32(mask))
		assert.Equal(t, first, ProtectionString(mask), "mask %#x", uint32(mask))
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Committed", StateString(MemCommit))
	assert.Equal(t, "Reserved", StateString(MemReserve))
	assert.Equal(t, "Free", StateString(MemFree))
	assert.Equal(t, "", StateString(0))
	assert.Equal(t, "", StateString(MemCommit|MemReserve))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "Image", TypeString(MemImage))
	assert.Equal(t, "Mapped", TypeString(MemMapped))
	assert.Equal(t, "Private", TypeString(MemPrivate))
	assert.Equal(t, "", TypeString(0))
	assert.Equal(t, "", TypeString(MemImage|MemPrivate))
}

func TestRegionEnd(t *testing.T) {
	r := Region{BaseAddress: 0x1000, RegionSize: 0x2000}
	assert.Equal(t, uint64(0x3000), r.End())
}
