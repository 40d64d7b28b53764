package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	vigilhome "github.com/aamsilva/vigilhome"
	"github.com/aamsilva/vigilhome/internal/logger"
)

// command binds the CLI handlers to the shared global flags. Every handler
// builds a fresh supervisor from persisted state; no state survives between
// invocations.
type command struct {
	flags *GlobalFlags
}

func (c command) supervisor(logFile string) (*vigilhome.Supervisor, func(), error) {
	cfg, err := vigilhome.LoadConfig(c.flags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(logFile)
	sup := vigilhome.New(cfg, log)
	cleanup := func() {}
	if cfg.HistoryDSN != "" {
		sink, err := vigilhome.NewHistorySink(cfg.HistoryDSN)
		if err != nil {
			// History is an audit trail, not a prerequisite for control.
			log.Warn("history sink unavailable", "dsn", cfg.HistoryDSN, "error", err)
		} else {
			sup.SetHistorySink(sink)
			cleanup = func() { _ = sink.Close() }
		}
	}
	return sup, cleanup, nil
}

func newLogger(file string) *slog.Logger {
	return logger.NewSlog(slog.LevelInfo, file)
}

// Start launches the monitor. An already-running monitor is a non-zero exit:
// operator scripts depend on that asymmetry, so it is an error here even
// though stop/status treat "not running" as success.
func (c command) Start(ctx context.Context) error {
	sup, cleanup, err := c.supervisor("")
	if err != nil {
		return err
	}
	defer cleanup()
	pid, err := sup.Start(ctx)
	if err != nil {
		if errors.Is(err, vigilhome.ErrAlreadyRunning) {
			return fmt.Errorf("monitor already running (pid %d)", pid)
		}
		return err
	}
	if c.flags.JSON {
		printJSON(map[string]any{"ok": true, "pid": pid})
		return nil
	}
	fmt.Printf("monitor started (pid %d)\n", pid)
	return nil
}

// Stop signals the monitor. Not running is an informational outcome, exit 0.
func (c command) Stop(ctx context.Context) error {
	sup, cleanup, err := c.supervisor("")
	if err != nil {
		return err
	}
	defer cleanup()
	res, err := sup.Stop(ctx)
	if err != nil {
		return err
	}
	if c.flags.JSON {
		printJSON(res)
		return nil
	}
	switch res.Outcome {
	case vigilhome.StopNotRunning:
		fmt.Println("monitor not running")
	case vigilhome.StopStale:
		fmt.Printf("monitor not running (removed stale lock, pid %d)\n", res.PID)
	default:
		fmt.Printf("monitor stopped (pid %d)\n", res.PID)
	}
	return nil
}

func (c command) Restart(ctx context.Context) error {
	sup, cleanup, err := c.supervisor("")
	if err != nil {
		return err
	}
	defer cleanup()
	pid, err := sup.Restart(ctx)
	if err != nil {
		if errors.Is(err, vigilhome.ErrAlreadyRunning) {
			return fmt.Errorf("monitor already running (pid %d)", pid)
		}
		return err
	}
	if c.flags.JSON {
		printJSON(map[string]any{"ok": true, "pid": pid})
		return nil
	}
	fmt.Printf("monitor restarted (pid %d)\n", pid)
	return nil
}

// Status is read-only and always exits zero; the text tells running state.
func (c command) Status() error {
	sup, cleanup, err := c.supervisor("")
	if err != nil {
		return err
	}
	defer cleanup()
	st, err := sup.Status()
	if err != nil {
		return err
	}
	if c.flags.JSON {
		printJSON(st)
		return nil
	}
	switch {
	case st.Running:
		fmt.Printf("monitor running (pid %d)\n", st.PID)
	case st.StaleLock:
		fmt.Printf("monitor not running (stale lock, pid %d)\n", st.PID)
	default:
		fmt.Println("monitor not running")
	}
	return nil
}

// Logs follows the monitor log until the operator interrupts.
func (c command) Logs(ctx context.Context, flags LogsFlags) error {
	cfg, err := vigilhome.LoadConfig(c.flags.ConfigPath)
	if err != nil {
		return err
	}
	cfg.TailLines = flags.Tail
	sup := vigilhome.New(cfg, newLogger(""))

	if _, serr := os.Stat(cfg.Monitor.Log.Path); os.IsNotExist(serr) {
		fmt.Fprintf(os.Stderr, "no log yet at %s, waiting...\n", cfg.Monitor.Log.Path)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return sup.Follow(ctx, os.Stdout)
}

// Stats summarizes the monitor log. Missing log yields zero counts, exit 0.
func (c command) Stats() error {
	sup, cleanup, err := c.supervisor("")
	if err != nil {
		return err
	}
	defer cleanup()
	sum, err := sup.Stats()
	if err != nil {
		return err
	}
	if c.flags.JSON {
		printJSON(sum)
		return nil
	}
	fmt.Printf("detections: %d\n", sum.Detections)
	fmt.Printf("alerts:     %d\n", sum.Alerts)
	if len(sum.RecentLines) > 0 {
		fmt.Printf("recent anomalies (%d):\n", len(sum.RecentLines))
		for _, line := range sum.RecentLines {
			fmt.Printf("  %s\n", line)
		}
	}
	return nil
}

// Serve runs the HTTP API until interrupted.
func (c command) Serve(ctx context.Context, flags ServeFlags) error {
	cfg, err := vigilhome.LoadConfig(c.flags.ConfigPath)
	if err != nil {
		return err
	}
	listen := cfg.Serve.Listen
	if flags.Listen != "" {
		listen = flags.Listen
	}
	basePath := cfg.Serve.BasePath
	if flags.BasePath != "" {
		basePath = flags.BasePath
	}
	if basePath == "" {
		basePath = "/api"
	}

	sup, cleanup, err := c.supervisor(cfg.Serve.LogFile)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := vigilhome.RegisterMetricsDefault(); err != nil {
		return err
	}
	srv, err := vigilhome.NewHTTPServer(listen, basePath, sup)
	if err != nil {
		return err
	}
	fmt.Printf("supervisor API listening on %s\n", listen)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
