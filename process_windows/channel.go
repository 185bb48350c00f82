//go:build windows

package process_windows

import (
	"errors"
	"fmt"

	"memmap/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

// Config controls how the channel opens target processes
type Config struct {
	EnableDebugPrivilege bool   // Enable SeDebugPrivilege on the current token
	AccessMask           uint32 // Access requested from OpenProcess
}

// DefaultConfig returns a configuration able to query any process the caller may debug
func DefaultConfig() Config {
	return Config{
		EnableDebugPrivilege: true,
		AccessMask:           windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ,
	}
}

// WindowsChannel implements the process.Channel interface with the caller's token
type WindowsChannel struct {
	cfg Config
	log *logger.Logger
}

// Open acquires the channel, enabling SeDebugPrivilege when configured
func Open(cfg Config) (*WindowsChannel, error) {
	c := &WindowsChannel{
		cfg: cfg,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "debug-channel")),
	}

	if cfg.EnableDebugPrivilege {
		assigned, err := enableDebugPrivilege()
		if err != nil {
			return nil, fmt.Errorf("%w: SeDebugPrivilege: %w", process.ErrAcquisitionFailed, err)
		}
		if !assigned {
			c.log.Warn("SeDebugPrivilege is not held by this token, protected processes will be denied")
		}
	}

	c.log.Debugln("Channel opened")
	return c, nil
}

func (c *WindowsChannel) OpenProcess(pid process.ProcessID) (process.Handle, error) {
	handle, err := windows.OpenProcess(c.cfg.AccessMask, false, uint32(pid))
	if err != nil {
		switch {
		case errors.Is(err, windows.ERROR_ACCESS_DENIED):
			return nil, fmt.Errorf("%w: OpenProcess(%d): %w", process.ErrAccessDenied, pid, err)
		case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
			return nil, fmt.Errorf("%w: OpenProcess(%d): %w", process.ErrNotFound, pid, err)
		}
		return nil, fmt.Errorf("%w: OpenProcess(%d): %w", process.ErrAcquisitionFailed, pid, err)
	}

	return newWindowsProcess(pid, handle), nil
}

func (c *WindowsChannel) Close() error {
	c.log.Debugln("Channel closed")
	return nil
}

// enableDebugPrivilege reports whether the token actually holds SeDebugPrivilege.
// AdjustTokenPrivileges succeeds without assigning it when the token lacks the privilege.
func enableDebugPrivilege() (bool, error) {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return false, fmt.Errorf("OpenProcessToken failed: %w", err)
	}
	defer token.Close()

	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, windows.StringToUTF16Ptr("SeDebugPrivilege"), &luid); err != nil {
		return false, fmt.Errorf("LookupPrivilegeValue failed: %w", err)
	}

	privileges := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{
			{Luid: luid, Attributes: windows.SE_PRIVILEGE_ENABLED},
		},
	}
	if err := windows.AdjustTokenPrivileges(token, false, &privileges, 0, nil, nil); err != nil {
		if errors.Is(err, windows.ERROR_NOT_ALL_ASSIGNED) {
			return false, nil
		}
		return false, fmt.Errorf("AdjustTokenPrivileges failed: %w", err)
	}
	return !errors.Is(windows.GetLastError(), windows.ERROR_NOT_ALL_ASSIGNED), nil
}
