package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aamsilva/vigilhome/internal/config"
	"github.com/aamsilva/vigilhome/internal/history"
	"github.com/aamsilva/vigilhome/internal/lock"
	"github.com/aamsilva/vigilhome/internal/logtail"
	"github.com/aamsilva/vigilhome/internal/metrics"
	"github.com/aamsilva/vigilhome/internal/process"
)

// ErrAlreadyRunning is returned by Start when a live lock record exists.
// Callers treat it as a reportable outcome with a non-zero exit, matching
// the behavior operators have scripted against.
var ErrAlreadyRunning = errors.New("monitor already running")

// Supervisor drives the lifecycle of the single monitor process. It keeps no
// state between operations: every call re-reads the lock record, so separate
// CLI invocations and a resident serve daemon behave identically.
type Supervisor struct {
	cfg  config.Config
	lk   lock.Store
	sink history.Sink
	log  *slog.Logger
}

func New(cfg config.Config, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{cfg: cfg, lk: lock.Store{Path: cfg.PIDFile}, log: log}
}

// SetHistorySink attaches an optional lifecycle event sink. Sink errors are
// logged and never fail the operation that produced the event.
func (s *Supervisor) SetHistorySink(sink history.Sink) { s.sink = sink }

func (s *Supervisor) Config() config.Config { return s.cfg }

// Status describes the monitor's observed state.
type Status struct {
	Running   bool `json:"running"`
	PID       int  `json:"pid,omitempty"`
	StaleLock bool `json:"stale_lock,omitempty"`
}

// StopOutcome classifies what Stop actually did.
type StopOutcome string

const (
	StopNotRunning StopOutcome = "not_running"
	StopStale      StopOutcome = "stale_cleanup"
	StopSignalled  StopOutcome = "signalled"
)

// StopResult reports the outcome of a Stop call.
type StopResult struct {
	Outcome StopOutcome `json:"outcome"`
	PID     int         `json:"pid,omitempty"`
}

// Start launches the monitor unless a live lock exists. It returns the new
// PID. Stale locks are removed and the start proceeds. The lock is acquired
// with exclusive file creation after the spawn; losing that race to a
// concurrent start terminates the extra child and reports ErrAlreadyRunning.
func (s *Supervisor) Start(ctx context.Context) (int, error) {
	if rec, err := s.lk.Read(); err == nil && lock.Alive(rec) {
		return rec.PID, ErrAlreadyRunning
	} else if err != nil && !os.IsNotExist(err) {
		s.log.Warn("unreadable lock record, treating as stale", "path", s.lk.Path, "error", err)
	}

	pid, err := process.StartDetached(s.cfg.Monitor)
	if err != nil {
		return 0, err
	}
	if err := s.lk.Acquire(pid); err != nil {
		if errors.Is(err, lock.ErrHeld) {
			// A concurrent start won the lock; ours is the duplicate.
			_ = process.Terminate(pid)
			return 0, ErrAlreadyRunning
		}
		_ = process.Terminate(pid)
		return 0, err
	}

	metrics.IncStart()
	metrics.SetMonitorUp(true)
	s.emit(ctx, history.Event{Type: history.EventStart, OccurredAt: time.Now().UTC(), PID: pid})
	s.log.Info("monitor started", "pid", pid, "log", s.cfg.Monitor.Log.Path)
	return pid, nil
}

// Stop delivers the termination signal if the monitor runs, removes stale
// locks, and reports what happened. Absent lock and stale lock are normal
// outcomes, not errors. It does not wait for the process to exit.
func (s *Supervisor) Stop(ctx context.Context) (StopResult, error) {
	rec, err := s.lk.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return StopResult{Outcome: StopNotRunning}, nil
		}
		// Unparseable lock record: nothing to signal, clean it up.
		if rmErr := s.lk.Release(); rmErr != nil {
			return StopResult{}, rmErr
		}
		s.log.Warn("removed unreadable lock record", "path", s.lk.Path, "error", err)
		return StopResult{Outcome: StopStale}, nil
	}

	if !lock.Alive(rec) {
		if err := s.lk.Release(); err != nil {
			return StopResult{}, err
		}
		metrics.IncStaleLock()
		metrics.SetMonitorUp(false)
		s.emit(ctx, history.Event{Type: history.EventStaleCleanup, OccurredAt: time.Now().UTC(), PID: rec.PID, Note: "process gone"})
		s.log.Info("removed stale lock", "pid", rec.PID)
		return StopResult{Outcome: StopStale, PID: rec.PID}, nil
	}

	if err := process.Terminate(rec.PID); err != nil {
		return StopResult{}, err
	}
	if err := s.lk.Release(); err != nil {
		return StopResult{}, err
	}
	metrics.IncStop()
	metrics.SetMonitorUp(false)
	s.emit(ctx, history.Event{Type: history.EventStop, OccurredAt: time.Now().UTC(), PID: rec.PID})
	s.log.Info("monitor stopped", "pid", rec.PID)
	return StopResult{Outcome: StopSignalled, PID: rec.PID}, nil
}

// Restart is Stop, a fixed delay for the OS to reclaim the PID, then Start.
// There is no atomicity across the two steps; a failure in between leaves no
// running monitor and no lock, which is safe to recover from with Start.
func (s *Supervisor) Restart(ctx context.Context) (int, error) {
	if _, err := s.Stop(ctx); err != nil {
		return 0, err
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(s.cfg.RestartDelay):
	}
	pid, err := s.Start(ctx)
	if err == nil {
		metrics.IncRestart()
	}
	return pid, err
}

// Status is read-only: a stale lock is reported but never deleted here, so
// concurrent Start calls cannot race a mutating status check.
func (s *Supervisor) Status() (Status, error) {
	rec, err := s.lk.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return Status{Running: false}, nil
		}
		// Unreadable lock record counts as a stale observation.
		return Status{Running: false, StaleLock: true}, nil
	}
	if lock.Alive(rec) {
		metrics.SetMonitorUp(true)
		return Status{Running: true, PID: rec.PID}, nil
	}
	metrics.SetMonitorUp(false)
	return Status{Running: false, PID: rec.PID, StaleLock: true}, nil
}

// Stats scans the monitor log for the configured markers.
func (s *Supervisor) Stats() (logtail.Summary, error) {
	return logtail.Collect(s.cfg.Monitor.Log.Path, s.cfg.Stats.Markers, s.cfg.Stats.RecentLines)
}

// Follow streams the monitor log to w until ctx is cancelled.
func (s *Supervisor) Follow(ctx context.Context, w io.Writer) error {
	f := logtail.Follower{Path: s.cfg.Monitor.Log.Path, TailLines: s.cfg.TailLines}
	return f.Follow(ctx, w)
}

func (s *Supervisor) emit(ctx context.Context, e history.Event) {
	if s.sink == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.sink.Send(sendCtx, e); err != nil {
		s.log.Warn("history sink send failed", "event", string(e.Type), "error", err)
	}
}
