package logtail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval backs up fsnotify on filesystems without reliable events.
const pollInterval = 500 * time.Millisecond

// Follower streams appended log data to a writer until cancelled.
type Follower struct {
	Path string
	// TailLines is how many existing trailing lines to print before
	// following. Zero means start at the current end of file.
	TailLines int
}

// Follow blocks, copying appended bytes from the log to w, until ctx is
// cancelled (which returns nil). The file may not exist yet; Follow waits
// for it to appear. Truncation (a fresh monitor start) resets the read
// offset to the beginning.
func (f Follower) Follow(ctx context.Context, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	// Watch the directory: the log file itself may not exist yet, and
	// watching the parent also survives rename-style rotation.
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(f.Path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.Path), err)
	}

	var file *os.File
	var offset int64
	defer func() {
		if file != nil {
			_ = file.Close()
		}
	}()

	if fi, err := os.Stat(f.Path); err == nil && f.TailLines > 0 {
		offset = tailOffset(f.Path, fi.Size(), f.TailLines)
	} else if err == nil {
		offset = fi.Size()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	drain := func() error {
		if file == nil {
			var oerr error
			// #nosec G304 -- operator-configured log path
			file, oerr = os.Open(f.Path)
			if oerr != nil {
				if os.IsNotExist(oerr) {
					return nil
				}
				return oerr
			}
		}
		fi, serr := file.Stat()
		if serr != nil {
			return serr
		}
		if fi.Size() < offset {
			offset = 0 // truncated by a fresh start
		}
		if _, serr := file.Seek(offset, io.SeekStart); serr != nil {
			return serr
		}
		n, cerr := io.Copy(w, file)
		offset += n
		if cerr != nil && !errors.Is(cerr, io.EOF) {
			return cerr
		}
		return nil
	}

	if err := drain(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != f.Path {
				continue
			}
			if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				if file != nil {
					_ = file.Close()
					file = nil
				}
				offset = 0
				continue
			}
			if err := drain(); err != nil {
				return err
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return werr
		case <-ticker.C:
			if err := drain(); err != nil {
				return err
			}
		}
	}
}

// tailOffset returns the byte offset of the n-th line from the end, scanning
// backwards so large logs are not read in full.
func tailOffset(path string, size int64, n int) int64 {
	// #nosec G304 -- operator-configured log path
	file, err := os.Open(path)
	if err != nil {
		return size
	}
	defer func() { _ = file.Close() }()
	const chunk = 8192
	var lines int
	pos := size
	buf := make([]byte, chunk)
	for pos > 0 {
		readFrom := pos - chunk
		if readFrom < 0 {
			readFrom = 0
		}
		m := pos - readFrom
		if _, err := file.ReadAt(buf[:m], readFrom); err != nil && !errors.Is(err, io.EOF) {
			return size
		}
		for i := m - 1; i >= 0; i-- {
			if buf[i] == '\n' {
				// Trailing newline of the file does not count as a line break.
				if readFrom+i == size-1 {
					continue
				}
				lines++
				if lines >= n {
					return readFrom + i + 1
				}
			}
		}
		pos = readFrom
	}
	return 0
}
