package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memmap/process"
	"memmap/process/memory_map"
)

type fakeChannel struct {
	handle  *fakeHandle
	openErr error
	closed  bool
}

func (c *fakeChannel) OpenProcess(pid process.ProcessID) (process.Handle, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.handle.pid = pid
	return c.handle, nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeHandle struct {
	pid     process.ProcessID
	regions []memory_map.Region
	closed  bool
}

func (h *fakeHandle) GetPID() process.ProcessID { return h.pid }

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func (h *fakeHandle) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.Region, error) {
	for _, r := range h.regions {
		if uint64(addr) >= r.BaseAddress && uint64(addr) < r.End() {
			return r, nil
		}
	}
	return memory_map.Region{}, process.ErrEndOfSpace
}

func (h *fakeHandle) ResolveMappedPath(base process.ProcessMemoryAddress) (string, error) {
	return "", process.ErrPathUnavailable
}

func opener(ch *fakeChannel) func() (process.Channel, error) {
	return func() (process.Channel, error) {
		return ch, nil
	}
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	code := run(nil, &out, func() (process.Channel, error) {
		t.Fatal("channel must not be opened without a pid")
		return nil, nil
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Usage: memmap <pid>")
}

func TestRunInvalidPid(t *testing.T) {
	for _, arg := range []string{"abc", "0"} {
		var out bytes.Buffer
		code := run([]string{arg}, &out, opener(&fakeChannel{}))
		assert.Equal(t, 1, code, arg)
		assert.Contains(t, out.String(), "Usage: memmap <pid>", arg)
	}
}

func TestRunSingleRegion(t *testing.T) {
	ch := &fakeChannel{handle: &fakeHandle{regions: []memory_map.Region{{
		BaseAddress:       0,
		RegionSize:        0x1000,
		State:             memory_map.MemCommit,
		Protect:           memory_map.PageExecuteRead,
		AllocationProtect: memory_map.PageExecuteRead,
		Type:              memory_map.MemPrivate,
	}}}}

	var out bytes.Buffer
	code := run([]string{"4242"}, &out, opener(ch))
	require.Equal(t, 0, code, out.String())

	want := strings.TrimRight(fmt.Sprintf("%016X %16X %-27s %-10s %-27s %-8s",
		0, 0x1000, "Execute/Read", "Committed", "Execute/Read", "Private"), " ")
	assert.Contains(t, out.String(), "\n"+want+"\n")
	assert.Contains(t, out.String(), "\n1 regions\n")

	assert.Equal(t, process.ProcessID(4242), ch.handle.pid)
	assert.True(t, ch.handle.closed)
	assert.True(t, ch.closed)
}

func TestRunAcquisitionAccessDenied(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"4242"}, &out, func() (process.Channel, error) {
		return nil, fmt.Errorf("%w: %w", process.ErrAccessDenied, syscall.EACCES)
	})

	assert.NotEqual(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, out.String())
	assert.Equal(t, "memmap - process memory map", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Failed to open privileged channel: access denied"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], fmt.Sprintf("(error=%d)", int(syscall.EACCES))), lines[1])
	assert.NotContains(t, out.String(), "Address")
}

func TestRunOpenProcessFails(t *testing.T) {
	ch := &fakeChannel{openErr: fmt.Errorf("%w: pid 4242: %w", process.ErrNotFound, syscall.ENOENT)}

	var out bytes.Buffer
	code := run([]string{"4242"}, &out, opener(ch))
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Failed to open process object: process not found")
	assert.True(t, ch.closed)
}

func TestRunQueryFailed(t *testing.T) {
	ch := &fakeChannel{handle: &fakeHandle{}}
	broken := &failingHandle{fakeHandle: ch.handle}

	var out bytes.Buffer
	code := run([]string{"4242"}, &out, func() (process.Channel, error) {
		return &fixedChannel{handle: broken}, nil
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Failed to walk address space: region query failed")
	assert.True(t, ch.handle.closed)
}

type failingHandle struct {
	*fakeHandle
}

func (h *failingHandle) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.Region, error) {
	return memory_map.Region{}, errors.New("handle invalidated")
}

type fixedChannel struct {
	handle process.Handle
}

func (c *fixedChannel) OpenProcess(pid process.ProcessID) (process.Handle, error) {
	return c.handle, nil
}

func (c *fixedChannel) Close() error { return nil }
