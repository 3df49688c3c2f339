// Package mcp provides a client for MCP (Model Context Protocol) servers
// spoken to over stdio JSON-RPC 2.0.
//
// Each MCP server is an external subprocess (here, the browser-automation
// servers that place real food orders). The client spawns the subprocess
// lazily, performs the MCP initialize handshake, and exchanges
// line-delimited JSON-RPC messages over the child's stdin/stdout. Servers
// are treated as opaque: the client knows nothing about how a tool does
// its work.
//
// Example usage:
//
//	client := mcp.NewClient(mcp.Config{
//	    Name:    "ubereats",
//	    Command: "python3",
//	    Args:    []string{"server.py"},
//	    Dir:     "submodules/uber-eats-mcp-server",
//	})
//	defer client.Close()
//
//	result, _ := client.CallTool(ctx, "order_food", map[string]any{
//	    "item_name": "al pastor taco",
//	})
package mcp

import (
	"context"
	"errors"
)

// Common errors returned by MCP clients.
var (
	// ErrServerUnavailable is returned when the subprocess cannot be started.
	ErrServerUnavailable = errors.New("mcp: server unavailable")

	// ErrServerExited is returned when the subprocess died mid-call.
	ErrServerExited = errors.New("mcp: server exited")

	// ErrTimeout is returned when the server does not answer in time.
	ErrTimeout = errors.New("mcp: server timeout")

	// ErrClosed is returned when calling a closed client.
	ErrClosed = errors.New("mcp: client closed")
)

// Caller is the interface for talking to an MCP server.
// Client implements it against a real subprocess; Mock implements it
// for tests.
type Caller interface {
	// CallTool invokes a named tool on the server and returns its
	// textual result.
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)

	// ReadResource reads a resource URI exposed by the server
	// (e.g. deferred search results).
	ReadResource(ctx context.Context, uri string) (string, error)

	// Healthy reports whether the server subprocess is running.
	Healthy() bool

	// Close terminates the server subprocess.
	Close() error
}

// ServerError is a JSON-RPC error returned by an MCP server.
type ServerError struct {
	// Server is the configured server name.
	Server string

	// Code is the JSON-RPC error code.
	Code int

	// Message is the error message from the server.
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return "mcp [" + e.Server + "]: " + e.Message
}
