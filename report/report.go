// Package report renders a process memory map as a fixed-width text table.
package report

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"memmap/process"
	"memmap/process/memory_map"
	"memmap/walker"
)

var columns = []ColumnSpec{
	{Header: "Address", Width: 16, Align: AlignRight},
	{Header: "Size (bytes)", Width: 16, Align: AlignRight},
	{Header: "Protection", Width: 27},
	{Header: "State", Width: 10},
	{Header: "Allocation Protection", Width: 27},
	{Header: "Type", Width: 8},
	{Header: "Path"},
}

// Resolver maps the base address of an image region to its backing file
type Resolver interface {
	ResolveMappedPath(base process.ProcessMemoryAddress) (string, error)
}

// NewMemoryMapTable returns a table with the memory map columns
func NewMemoryMapTable(w io.Writer) *Table {
	return NewTable(w, columns...)
}

// Fields returns the protection, allocation protection and type columns of a
// region. Protection is shown only for committed regions; nothing is shown for
// free ones.
func Fields(r memory_map.Region) (protection, allocation, typ string) {
	free := r.IsFree()
	protection = lo.Ternary(r.IsCommitted(), memory_map.ProtectionString(r.Protect), "")
	allocation = lo.Ternary(free, "", memory_map.ProtectionString(r.AllocationProtect))
	typ = lo.Ternary(free, "", memory_map.TypeString(r.Type))
	return protection, allocation, typ
}

// FormatRow renders a region as one memory map row
func FormatRow(r memory_map.Region) string {
	return NewMemoryMapTable(nil).FormatRow(cells(r)...)
}

func cells(r memory_map.Region) []string {
	protection, allocation, typ := Fields(r)
	return []string{
		fmt.Sprintf("%016X", r.BaseAddress),
		fmt.Sprintf("%X", r.RegionSize),
		protection,
		memory_map.StateString(r.State),
		allocation,
		typ,
		r.Path,
	}
}

// ResolveBackingPath returns the file behind an image region, or "" when the region
// is not an image or the name cannot be resolved.
func ResolveBackingPath(res Resolver, r memory_map.Region) string {
	if !r.IsImage() || r.IsFree() {
		return ""
	}

	path, err := res.ResolveMappedPath(process.ProcessMemoryAddress(r.BaseAddress))
	if err != nil {
		return ""
	}
	return path
}

// ShowMemoryMap walks the address space of h from address 0 and writes one row per
// region. Rows already written stay in place when a query fails. It returns the
// number of rows written.
func ShowMemoryMap(w io.Writer, h process.Handle) (int, error) {
	table := NewMemoryMapTable(w)
	if err := table.WriteHeader(); err != nil {
		return 0, err
	}

	rows := 0
	walk := walker.New(h)
	for walk.Next() {
		region := walk.Region()
		region.Path = ResolveBackingPath(h, region)

		if err := table.WriteRow(cells(region)...); err != nil {
			return rows, err
		}
		rows++
	}

	if err := walk.Err(); err != nil {
		return rows, err
	}

	if _, err := fmt.Fprintf(w, "\n%d regions\n", rows); err != nil {
		return rows, err
	}
	return rows, nil
}

