// Package walker enumerates the regions of a process address space in ascending
// address order.
package walker

import (
	"errors"
	"fmt"
	"math"

	"memmap/process"
	"memmap/process/memory_map"
)

// Querier is the single query primitive the walker needs.
type Querier interface {
	QueryRegion(addr process.ProcessMemoryAddress) (memory_map.Region, error)
}

// NextRegion queries the region containing or following addr.
//
// It returns process.ErrEndOfSpace when the address space is exhausted, including
// when the query answers with an empty region or one that does not end past addr.
// Any other failure is wrapped in process.ErrQueryFailed.
func NextRegion(q Querier, addr process.ProcessMemoryAddress) (memory_map.Region, error) {
	region, err := q.QueryRegion(addr)
	if err != nil {
		if errors.Is(err, process.ErrEndOfSpace) {
			return memory_map.Region{}, process.ErrEndOfSpace
		}
		return memory_map.Region{}, fmt.Errorf("%w at %s: %w", process.ErrQueryFailed, addr.ToString(), err)
	}

	if region.RegionSize == 0 {
		return memory_map.Region{}, process.ErrEndOfSpace
	}

	if !endsAtTop(region) && region.End() <= uint64(addr) {
		return memory_map.Region{}, process.ErrEndOfSpace
	}

	return region, nil
}

// endsAtTop reports whether the region reaches the end of the 64-bit space, where
// BaseAddress+RegionSize wraps.
func endsAtTop(r memory_map.Region) bool {
	return r.RegionSize > math.MaxUint64-r.BaseAddress
}

// Walker is a forward-only iterator over regions, starting at address 0.
//
//	w := walker.New(h)
//	for w.Next() {
//		r := w.Region()
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	q      Querier
	addr   process.ProcessMemoryAddress
	region memory_map.Region
	done   bool
	err    error
}

// New returns a walker positioned before the first region
func New(q Querier) *Walker {
	return &Walker{q: q}
}

// Next advances to the next region. It returns false at the end of the address
// space or after a failed query; Err tells the two apart.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}

	region, err := NextRegion(w.q, w.addr)
	if err != nil {
		w.done = true
		if !errors.Is(err, process.ErrEndOfSpace) {
			w.err = err
		}
		return false
	}

	w.region = region
	if endsAtTop(region) {
		w.done = true
	} else {
		w.addr = process.ProcessMemoryAddress(region.End())
	}
	return true
}

// Region returns the region produced by the last successful call to Next
func (w *Walker) Region() memory_map.Region {
	return w.region
}

// Err returns the query failure that stopped the walk, or nil if it ended normally.
func (w *Walker) Err() error {
	return w.err
}
