//go:build windows

package process

import "os"

// signalTerm kills the process on Windows, where SIGTERM delivery to another
// process is not supported.
func signalTerm(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
