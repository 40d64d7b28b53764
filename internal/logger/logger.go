package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters (lumberjack semantics).
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the destination for the monitor's combined output.
// By default the file is truncated on each start, matching the shell
// redirection the monitor was historically launched with. Append keeps
// previous runs; Rotate switches to a size-rotated lumberjack writer
// (which always appends).
type Config struct {
	Path       string `toml:"path" mapstructure:"path"`
	Append     bool   `toml:"append" mapstructure:"append"`
	Rotate     bool   `toml:"rotate" mapstructure:"rotate"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Writer returns an io.WriteCloser for the monitor's combined stdout/stderr.
func (c Config) Writer() (io.WriteCloser, error) {
	if c.Path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return nil, err
	}
	if c.Rotate {
		return &lj.Logger{
			Filename:   c.Path,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY
	if c.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	// #nosec G304 -- path comes from operator config
	return os.OpenFile(c.Path, flags, 0o644)
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// NewSlog builds the supervisor's own diagnostic logger. Output goes to
// stderr with the colored handler; when file is non-empty a rotating file
// writer is used instead (for serve mode running unattended).
func NewSlog(level slog.Level, file string) *slog.Logger {
	var w io.Writer = os.Stderr
	colored := true
	if file != "" {
		w = &lj.Logger{
			Filename:   file,
			MaxSize:    DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAge:     DefaultMaxAgeDays,
		}
		colored = false
	}
	opts := &slog.HandlerOptions{Level: level}
	if colored {
		return slog.New(NewColorTextHandler(w, opts, true))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
