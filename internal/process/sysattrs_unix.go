//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr creates a new session (setsid) so the monitor is
// detached from the controlling terminal and survives supervisor exit.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
