package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Client talks to a single MCP server subprocess over stdio.
//
// The subprocess is started lazily on the first call and restarted if it
// dies. Calls are serialized: MCP servers answer on stdout in request
// order, so one in-flight request at a time keeps the wire simple. Use
// one Client per concurrent browser session (see pkg/batch).
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string   // stdout lines from the current process
	exited chan struct{} // closed when the current process exits
	nextID int64
	closed bool
}

// NewClient creates a client for the configured server.
// The subprocess is not started until the first call.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "mcp."+cfg.Name),
	}
}

// Name returns the configured server name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// CallTool invokes a named tool on the server and returns its textual result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	raw, err := c.Call(ctx, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return "", err
	}
	return decodeResult(raw), nil
}

// ReadResource reads a resource URI exposed by the server.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	raw, err := c.Call(ctx, "resources/read", map[string]any{
		"uri": uri,
	})
	if err != nil {
		return "", err
	}
	return decodeResult(raw), nil
}

// Call sends a raw JSON-RPC request and waits for the matching response.
// Most callers want CallTool or ReadResource instead.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureStartedLocked(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	return c.callLocked(ctx, method, params)
}

// Healthy reports whether the server subprocess is currently running.
func (c *Client) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.cmd == nil {
		return false
	}
	select {
	case <-c.exited:
		return false
	default:
		return true
	}
}

// Close terminates the server subprocess. SIGTERM first, SIGKILL after
// the grace period.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}

	if c.stdin != nil {
		c.stdin.Close()
	}
	c.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-c.exited:
	case <-time.After(c.cfg.ShutdownGrace):
		c.cmd.Process.Kill()
		<-c.exited
	}

	c.logger.Info("server stopped")
	return nil
}

// ensureStartedLocked starts or restarts the subprocess as needed.
func (c *Client) ensureStartedLocked() error {
	if c.closed {
		return ErrClosed
	}

	if c.cmd != nil {
		select {
		case <-c.exited:
			c.logger.Warn("server died, restarting")
		default:
			return nil
		}
	}

	return c.startLocked()
}

// startLocked spawns the subprocess and performs the MCP handshake.
func (c *Client) startLocked() error {
	cmd := exec.Command(c.cfg.Command, c.cfg.Args...)
	cmd.Dir = c.cfg.Dir
	cmd.Env = append(os.Environ(), c.cfg.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrServerUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrServerUnavailable, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %v", ErrServerUnavailable, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}

	lines := make(chan string, 64)
	exited := make(chan struct{})

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			default:
				// Reader is behind; drop the oldest line.
				select {
				case <-lines:
				default:
				}
				lines <- scanner.Text()
			}
		}
		close(lines)
	}()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			c.logger.Debug("server stderr", "line", scanner.Text())
		}
	}()

	go func() {
		cmd.Wait()
		close(exited)
	}()

	c.cmd = cmd
	c.stdin = stdin
	c.lines = lines
	c.exited = exited

	c.logger.Info("server started", "command", c.cfg.Command, "dir", c.cfg.Dir)

	// Let a slow interpreter come up before the handshake.
	time.Sleep(c.cfg.StartupWait)

	return c.handshakeLocked()
}

// handshakeLocked performs the MCP initialize exchange.
func (c *Client) handshakeLocked() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
	defer cancel()

	_, err := c.callLocked(ctx, "initialize", initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ClientInfo:      clientInfo{Name: "hungry-agent", Version: "1.0.0"},
	})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	return c.notifyLocked("notifications/initialized", map[string]any{})
}

// callLocked writes one request and reads lines until the matching
// response appears. Non-JSON output (telemetry, log noise) is skipped.
func (c *Client) callLocked(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.nextID++
	id := c.nextID

	if err := c.writeLocked(request{
		Jsonrpc: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}); err != nil {
		return nil, err
	}

	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return nil, c.exitError()
			}
			if raw, matched, err := c.matchLine(line, id); matched {
				return raw, err
			}

		case <-c.exited:
			// The server can write its reply and exit before we read
			// it. Keep draining stdout until the scanner closes the
			// channel at EOF.
			for {
				select {
				case line, ok := <-c.lines:
					if !ok {
						return nil, c.exitError()
					}
					if raw, matched, err := c.matchLine(line, id); matched {
						return raw, err
					}
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %s %s", ErrTimeout, c.cfg.Name, method)
				}
			}

		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s %s", ErrTimeout, c.cfg.Name, method)
		}
	}
}

// matchLine parses one stdout line. matched reports whether the line
// was the response to request id; non-JSON output (telemetry, log
// noise) and unrelated messages are skipped.
func (c *Client) matchLine(line string, id int64) (raw json.RawMessage, matched bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		c.logger.Debug("skipping non-JSON output", "line", line)
		return nil, false, nil
	}

	var resp response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		c.logger.Debug("skipping unparseable output", "line", line)
		return nil, false, nil
	}
	if resp.ID != id {
		// Server-initiated message or stale response.
		return nil, false, nil
	}

	if resp.Error != nil {
		return nil, true, &ServerError{
			Server:  c.cfg.Name,
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
		}
	}
	return resp.Result, true, nil
}

// notifyLocked sends a notification (no response expected).
func (c *Client) notifyLocked(method string, params any) error {
	return c.writeLocked(request{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
	})
}

// writeLocked marshals and writes one newline-delimited message.
func (c *Client) writeLocked(req request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.stdin.Write(data); err != nil {
		return fmt.Errorf("%w: write: %v", ErrServerExited, err)
	}
	return nil
}

func (c *Client) exitError() error {
	return fmt.Errorf("%w: %s", ErrServerExited, c.cfg.Name)
}

// Verify Client implements Caller at compile time.
var _ Caller = (*Client)(nil)
