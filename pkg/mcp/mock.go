package mcp

import (
	"context"
	"fmt"
	"sync"
)

// Mock implements Caller for testing.
// Tool results are scripted per tool name; unscripted tools return a
// generic acknowledgement so handler plumbing can be tested without a
// real subprocess.
type Mock struct {
	// Results maps tool name to the result returned by CallTool.
	Results map[string]string

	// Resources maps URI to the result returned by ReadResource.
	Resources map[string]string

	// Err, when set, is returned by every call.
	Err error

	// HealthyVal is returned by Healthy. Defaults to true.
	HealthyVal bool

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a tool invocation.
type MockCall struct {
	Tool string
	Args map[string]any
}

// NewMock creates a healthy mock with no scripted results.
func NewMock() *Mock {
	return &Mock{
		Results:    make(map[string]string),
		Resources:  make(map[string]string),
		HealthyVal: true,
	}
}

// WithError creates a mock whose every call fails with err.
func WithError(err error) *Mock {
	m := NewMock()
	m.Err = err
	return m
}

// CallTool returns the scripted result for the tool.
func (m *Mock) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Tool: name, Args: args})
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if result, ok := m.Results[name]; ok {
		return result, nil
	}
	return fmt.Sprintf("%s completed", name), nil
}

// ReadResource returns the scripted result for the URI.
func (m *Mock) ReadResource(ctx context.Context, uri string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if result, ok := m.Resources[uri]; ok {
		return result, nil
	}
	return "", &ServerError{Server: "mock", Code: -32002, Message: "resource not found: " + uri}
}

// Healthy returns the configured health state.
func (m *Mock) Healthy() bool {
	return m.HealthyVal && m.Err == nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// Calls returns all recorded tool invocations.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of invocations of a tool.
func (m *Mock) CallCount(tool string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Tool == tool {
			n++
		}
	}
	return n
}

// Verify Mock implements Caller at compile time.
var _ Caller = (*Mock)(nil)
