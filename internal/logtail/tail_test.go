package logtail

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer for concurrent writer/reader use.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

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

func TestFollowStreamsAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.log")
	if err := os.WriteFile(path, []byte("first line\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Follower{Path: path}.Follow(ctx, &out)
	}()

	// Give the follower a moment to position at end of file.
	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("second line\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	ok := waitUntil(3*time.Second, 20*time.Millisecond, func() bool {
		return strings.Contains(out.String(), "second line")
	})
	if !ok {
		t.Fatalf("appended line not streamed, got %q", out.String())
	}
	if strings.Contains(out.String(), "first line") {
		t.Fatalf("pre-existing content streamed without TailLines, got %q", out.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow returned error on cancel: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Follow did not return after cancellation")
	}
}

func TestFollowTailLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.log")
	content := "one\ntwo\nthree\nfour\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Follower{Path: path, TailLines: 2}.Follow(ctx, &out)
	}()

	ok := waitUntil(3*time.Second, 20*time.Millisecond, func() bool {
		s := out.String()
		return strings.Contains(s, "three") && strings.Contains(s, "four")
	})
	if !ok {
		t.Fatalf("trailing lines not emitted, got %q", out.String())
	}
	if strings.Contains(out.String(), "two") {
		t.Fatalf("expected only last 2 lines, got %q", out.String())
	}
	cancel()
	<-done
}

func TestFollowMissingFileWaits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Follower{Path: path}.Follow(ctx, &out)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("late arrival\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ok := waitUntil(3*time.Second, 20*time.Millisecond, func() bool {
		return strings.Contains(out.String(), "late arrival")
	})
	if !ok {
		t.Fatalf("content of late-created log not streamed")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
}

func TestTailOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.log")
	content := "aa\nbb\ncc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	off := tailOffset(path, int64(len(content)), 1)
	if got := content[off:]; got != "cc\n" {
		t.Fatalf("tailOffset(1): got %q", got)
	}
	off = tailOffset(path, int64(len(content)), 3)
	if off != 0 {
		t.Fatalf("tailOffset(3): got offset %d want 0", off)
	}
	off = tailOffset(path, int64(len(content)), 10)
	if off != 0 {
		t.Fatalf("tailOffset beyond line count: got %d want 0", off)
	}
}
