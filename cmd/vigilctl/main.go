package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	logsFlags := &LogsFlags{}
	serveFlags := &ServeFlags{}

	vigilCommand := command{flags: globalFlags}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createStartCommand(vigilCommand),
		createStopCommand(vigilCommand),
		createRestartCommand(vigilCommand),
		createStatusCommand(vigilCommand),
		createLogsCommand(vigilCommand, logsFlags),
		createStatsCommand(vigilCommand),
		createServeCommand(vigilCommand, serveFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "vigilctl",
		Short: "Lifecycle control for the VigilHome monitor process",
		Long: `Vigilctl starts, stops and observes the single VigilHome realtime
monitor process, using a PID file as the source of truth for running state.

Examples:
  vigilctl start                 # launch the monitor detached
  vigilctl status                # running / not running
  vigilctl logs                  # follow the monitor log (Ctrl-C to stop)
  vigilctl stats                 # detection/alert counts from the log
  vigilctl serve                 # HTTP API + /metrics for dashboards`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().BoolVar(&flags.JSON, "json", false, "print machine-readable JSON instead of text")
	return root
}

func createStartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the monitor if it is not already running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Start(cmd.Context())
		},
	}
}

func createStopCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the monitor (no-op when not running)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Stop(cmd.Context())
		},
	}
}

func createRestartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop the monitor, wait briefly, then start it again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Restart(cmd.Context())
		},
	}
}

func createStatusCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the monitor is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status()
		},
	}
}

func createLogsCommand(c command, flags *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Follow the monitor log until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Logs(cmd.Context(), *flags)
		},
	}
	cmd.Flags().IntVar(&flags.Tail, "tail", 10, "number of trailing lines to print before following")
	return cmd
}

func createStatsCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize detections and alerts from the monitor log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Stats()
		},
	}
}

func createServeCommand(c command, flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and metrics endpoint",
		Long: `Serve exposes the supervisor operations over HTTP (status, stats,
start, stop, restart) plus Prometheus metrics on /metrics. The listen
address comes from the config file unless overridden here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Serve(cmd.Context(), *flags)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "base path for API routes (overrides config)")
	return cmd
}
