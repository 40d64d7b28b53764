//go:build !windows

package process

import "syscall"

// signalTerm sends SIGTERM to a Unix process.
func signalTerm(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}
