package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/aamsilva/vigilhome/internal/logtail"
	"github.com/aamsilva/vigilhome/internal/process"
)

// Fixed default layout, relative to the working directory the operator runs
// from — the same files the original shell wrapper used.
const (
	DefaultPIDFile = "vigilhome.pid"
	DefaultLogFile = "logs/monitor.log"
	DefaultCommand = ". venv/bin/activate && python3 src/realtime_monitor.py"
)

// Config is the full supervisor configuration. Every field has a default, so
// running without a config file reproduces the original fixed layout.
type Config struct {
	PIDFile      string        `toml:"pidfile" mapstructure:"pidfile"`
	Monitor      process.Spec  `toml:"monitor" mapstructure:"monitor"`
	RestartDelay time.Duration `toml:"restart_delay" mapstructure:"restart_delay"`
	TailLines    int           `toml:"tail_lines" mapstructure:"tail_lines"`
	Stats        StatsConfig   `toml:"stats" mapstructure:"stats"`
	HistoryDSN   string        `toml:"history_dsn" mapstructure:"history_dsn"`
	Serve        ServeConfig   `toml:"serve" mapstructure:"serve"`
}

// StatsConfig controls the stats scan.
type StatsConfig struct {
	Markers     logtail.Markers `toml:"markers" mapstructure:"markers"`
	RecentLines int             `toml:"recent_lines" mapstructure:"recent_lines"`
}

// ServeConfig configures the optional HTTP API.
type ServeConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
	LogFile  string `toml:"logfile" mapstructure:"logfile"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		PIDFile:      DefaultPIDFile,
		RestartDelay: time.Second,
		TailLines:    10,
		HistoryDSN:   "",
	}
	cfg.Monitor.Command = DefaultCommand
	cfg.Monitor.Log.Path = DefaultLogFile
	cfg.Stats.Markers = logtail.DefaultMarkers()
	cfg.Stats.RecentLines = 10
	cfg.Serve.Listen = "127.0.0.1:8321"
	return cfg
}

// Load reads a TOML config file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return normalize(cfg), nil
}

func normalize(cfg Config) Config {
	if cfg.PIDFile == "" {
		cfg.PIDFile = DefaultPIDFile
	}
	if cfg.Monitor.Command == "" {
		cfg.Monitor.Command = DefaultCommand
	}
	if cfg.Monitor.Log.Path == "" {
		cfg.Monitor.Log.Path = DefaultLogFile
	}
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = time.Second
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = 10
	}
	if cfg.Stats.RecentLines <= 0 {
		cfg.Stats.RecentLines = 10
	}
	def := logtail.DefaultMarkers()
	if cfg.Stats.Markers.Detection == "" {
		cfg.Stats.Markers.Detection = def.Detection
	}
	if cfg.Stats.Markers.Alert == "" {
		cfg.Stats.Markers.Alert = def.Alert
	}
	if cfg.Stats.Markers.Recent == "" {
		cfg.Stats.Markers.Recent = def.Recent
	}
	if cfg.Serve.Listen == "" {
		cfg.Serve.Listen = "127.0.0.1:8321"
	}
	return cfg
}
