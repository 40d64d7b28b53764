//go:build !windows

package process

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/aamsilva/vigilhome/internal/logger"
)

func waitUntil(timeout, step time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(step)
	}
	return cond()
}

func TestStartDetachedWritesLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "monitor.log")
	spec := Spec{
		Command: "echo hello-from-monitor",
		Log:     logger.Config{Path: logPath},
	}
	pid, err := StartDetached(spec)
	if err != nil {
		t.Fatalf("StartDetached: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("invalid pid: %d", pid)
	}
	ok := waitUntil(2*time.Second, 20*time.Millisecond, func() bool {
		b, err := os.ReadFile(logPath)
		return err == nil && strings.Contains(string(b), "hello-from-monitor")
	})
	if !ok {
		t.Fatalf("monitor output not redirected to log")
	}
}

func TestStartDetachedEmptyCommand(t *testing.T) {
	if _, err := StartDetached(Spec{}); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

func TestStartDetachedHonorsWorkDir(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "monitor.log")
	spec := Spec{
		Command: "pwd",
		WorkDir: dir,
		Log:     logger.Config{Path: logPath},
	}
	if _, err := StartDetached(spec); err != nil {
		t.Fatalf("StartDetached: %v", err)
	}
	ok := waitUntil(2*time.Second, 20*time.Millisecond, func() bool {
		b, err := os.ReadFile(logPath)
		return err == nil && strings.Contains(string(b), dir)
	})
	if !ok {
		t.Fatalf("workdir not honored")
	}
}

func TestTerminateStopsProcess(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{
		Command: "sleep 30",
		Log:     logger.Config{Path: filepath.Join(dir, "monitor.log")},
	}
	pid, err := StartDetached(spec)
	if err != nil {
		t.Fatalf("StartDetached: %v", err)
	}
	if err := Terminate(pid); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	ok := waitUntil(3*time.Second, 50*time.Millisecond, func() bool {
		// Reaped by the background Wait; signal 0 fails once gone.
		return syscall.Kill(pid, 0) != nil
	})
	if !ok {
		t.Fatalf("process %d still alive after Terminate", pid)
	}
}
