package process

import (
	"fmt"
	"os"
)

// StartDetached launches the monitor in its own session with combined
// stdout/stderr redirected to the configured log destination. It returns the
// child PID without waiting for the child to exit.
//
// With the default plain-file log the child inherits the file descriptor
// directly and survives supervisor exit, which is what the one-shot CLI
// relies on. With a rotating log the output travels through a pipe owned by
// the supervisor, so rotation is only effective in serve mode where the
// supervisor stays resident.
func StartDetached(spec Spec) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	cmd := shellCommand(spec.Command)
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	w, err := spec.Log.Writer()
	if err != nil {
		return 0, fmt.Errorf("open monitor log: %w", err)
	}
	if w != nil {
		cmd.Stdout = w
		cmd.Stderr = w
	}
	cmd.Stdin = nil
	configureSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		if w != nil {
			_ = w.Close()
		}
		return 0, fmt.Errorf("launch monitor: %w", err)
	}
	pid := cmd.Process.Pid
	// Reap in the background. In one-shot CLI invocations the supervisor
	// exits first and the child is re-parented to init; in serve mode this
	// goroutine collects the exit status and closes the log writer.
	go func() {
		_ = cmd.Wait()
		if w != nil {
			_ = w.Close()
		}
	}()
	return pid, nil
}

// Terminate delivers the graceful stop signal to pid. It does not wait for
// the process to exit.
func Terminate(pid int) error {
	return signalTerm(pid)
}
