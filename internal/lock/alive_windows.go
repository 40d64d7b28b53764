//go:build windows

package lock

import (
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// pidAlive checks process existence via gopsutil on Windows, where signal 0
// is not available.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gopsproc.PidExists(int32(pid))
	return err == nil && ok
}

// procStartUnix returns the process start time as Unix seconds.
func procStartUnix(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}
