//go:build windows

package process

import "os/exec"

// shellCommand wraps a command line for Windows systems.
func shellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("cmd", "/C", script)
}
