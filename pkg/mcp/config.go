package mcp

import (
	"log/slog"
	"time"
)

// Default timeouts for subprocess operations.
const (
	// DefaultCallTimeout bounds a single tool call. Browser-driven
	// tools can be slow, so this is generous.
	DefaultCallTimeout = 30 * time.Second

	// DefaultStartupWait is how long to let the subprocess settle
	// before the initialize handshake.
	DefaultStartupWait = 1 * time.Second

	// DefaultShutdownGrace is how long to wait for a clean exit
	// after SIGTERM before killing the process.
	DefaultShutdownGrace = 5 * time.Second
)

// Config describes an MCP server subprocess.
type Config struct {
	// Name identifies the server in logs and errors (e.g. "ubereats").
	Name string

	// Command is the executable to run (e.g. "python3").
	Command string

	// Args are the command arguments (e.g. ["server.py"]).
	Args []string

	// Dir is the working directory for the subprocess.
	Dir string

	// Env is extra environment in KEY=VALUE form, appended to the
	// parent environment.
	Env []string

	// CallTimeout bounds a single request/response exchange.
	CallTimeout time.Duration

	// StartupWait delays the handshake after process start.
	StartupWait time.Duration

	// ShutdownGrace is the SIGTERM-to-SIGKILL window on Close.
	ShutdownGrace time.Duration

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults fills in zero values.
func (c Config) withDefaults() Config {
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.StartupWait == 0 {
		c.StartupWait = DefaultStartupWait
	}
	if c.ShutdownGrace == 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
