package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrHeld is returned by Acquire when a live lock already exists.
var ErrHeld = errors.New("lock held by running process")

// Record is the persisted content of the lock file: the PID on the first
// line, followed by JSON metadata used to guard against PID reuse.
// Legacy files containing only the PID line remain readable (Meta is nil).
type Record struct {
	PID  int
	Meta *Meta
}

// Meta carries the observed start time of the locked process.
type Meta struct {
	StartUnix int64 `json:"start_unix"`
}

// Store is a PID-file backed lock for a single managed process.
// Acquire uses exclusive file creation, so two concurrent acquirers cannot
// both succeed; the read-then-write race of naive PID files is closed here.
type Store struct {
	Path string
}

// Read returns the current lock record. os.IsNotExist errors pass through
// so callers can distinguish "no lock" from unreadable lock files.
func (s Store) Read() (Record, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return Record{}, err
	}
	lines := strings.Split(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
	pidStr := strings.TrimSpace(lines[0])
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return Record{}, fmt.Errorf("invalid pid in %s: %w", s.Path, err)
	}
	rec := Record{PID: pid}
	if len(lines) >= 2 {
		var m Meta
		if err := json.Unmarshal([]byte(strings.TrimSpace(lines[1])), &m); err == nil && m.StartUnix > 0 {
			rec.Meta = &m
		}
	}
	return rec, nil
}

// Acquire atomically creates the lock file for pid. It fails with ErrHeld
// when the file already exists and the recorded process is alive. A stale
// file (dead process, or unparseable content) is removed and creation is
// retried exactly once; losing that second race also reports ErrHeld.
func (s Store) Acquire(pid int) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	for attempt := 0; attempt < 2; attempt++ {
		err := s.tryCreate(pid)
		if err == nil {
			return nil
		}
		if !os.IsExist(err) {
			return err
		}
		rec, rerr := s.Read()
		if rerr == nil && Alive(rec) {
			return ErrHeld
		}
		if rerr != nil && !os.IsNotExist(rerr) {
			// Unparseable lock file: treat as stale.
			if _, serr := os.Stat(s.Path); serr != nil && !os.IsNotExist(serr) {
				return serr
			}
		}
		if rmErr := os.Remove(s.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			return rmErr
		}
	}
	return ErrHeld
}

func (s Store) tryCreate(pid int) error {
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	meta := Meta{StartUnix: procStartUnix(pid)}
	mb, _ := json.Marshal(meta)
	_, err = fmt.Fprintf(f, "%d\n%s\n", pid, mb)
	return err
}

// Release removes the lock file. A missing file is not an error.
func (s Store) Release() error {
	err := os.Remove(s.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Alive reports whether the record's process still exists. When start-time
// metadata is present and the current process start time differs, the PID
// has been reused and the record counts as dead.
func Alive(rec Record) bool {
	if rec.PID <= 0 {
		return false
	}
	if rec.Meta != nil && rec.Meta.StartUnix > 0 {
		cur := procStartUnix(rec.PID)
		if cur > 0 && cur != rec.Meta.StartUnix {
			return false
		}
	}
	return pidAlive(rec.PID)
}
