package main

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
}

// LogsFlags holds flags for the logs command.
type LogsFlags struct {
	Tail int
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen   string
	BasePath string
}
