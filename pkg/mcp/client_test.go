package mcp

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeServer is a shell script that speaks just enough line-delimited
// JSON-RPC to satisfy the handshake plus one tool call. Like a real
// server it echoes the request's id, so it stays correct when the
// client's ids keep counting across a restart. Log noise before the
// response exercises the non-JSON line filter.
const fakeServer = `
reqid() { echo "$1" | sed 's/.*"id":\([0-9]*\).*/\1/'; }
read init
echo "{\"jsonrpc\":\"2.0\",\"id\":$(reqid "$init"),\"result\":{\"protocolVersion\":\"2024-11-05\"}}"
read initialized
read call
echo 'INFO starting browser session'
echo "{\"jsonrpc\":\"2.0\",\"id\":$(reqid "$call"),\"result\":\"Found 3 taco spots near you\"}"
`

func testConfig(script string) Config {
	return Config{
		Name:        "test",
		Command:     "sh",
		Args:        []string{"-c", script},
		CallTimeout: 5 * time.Second,
		StartupWait: 10 * time.Millisecond,
	}
}

func TestClientCallTool(t *testing.T) {
	client := NewClient(testConfig(fakeServer))
	defer client.Close()

	result, err := client.CallTool(context.Background(), "search_restaurants", map[string]any{
		"query": "tacos",
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result != "Found 3 taco spots near you" {
		t.Errorf("Unexpected result: %q", result)
	}

	if !client.Healthy() {
		// The script blocks on a fourth read, so it should still be up.
		t.Error("Expected server to be healthy after call")
	}
}

func TestClientRestartsDeadServer(t *testing.T) {
	// The script exits after one tool call; the second call must
	// restart the subprocess and still succeed.
	client := NewClient(testConfig(fakeServer + "\nexit 0\n"))
	defer client.Close()

	ctx := context.Background()

	first, err := client.CallTool(ctx, "order_food", nil)
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if first == "" {
		t.Error("Expected a result from first call")
	}

	// Give the process time to exit.
	time.Sleep(100 * time.Millisecond)
	if client.Healthy() {
		t.Error("Expected server to be dead")
	}

	second, err := client.CallTool(ctx, "order_food", nil)
	if err != nil {
		t.Fatalf("Second call after restart failed: %v", err)
	}
	if second != "Found 3 taco spots near you" {
		t.Errorf("Unexpected result after restart: %q", second)
	}
}

func TestClientReplyBeforeExit(t *testing.T) {
	// The script writes the tool response and exits in the same
	// instant. The buffered reply must win over the exit notice.
	script := `
read init
echo '{"jsonrpc":"2.0","id":1,"result":{}}'
read initialized
read call
echo '{"jsonrpc":"2.0","id":2,"result":"done before exit"}'
exit 0
`
	for i := 0; i < 10; i++ {
		client := NewClient(testConfig(script))

		result, err := client.CallTool(context.Background(), "order_food", nil)
		if err != nil {
			t.Fatalf("CallTool failed on run %d: %v", i, err)
		}
		if result != "done before exit" {
			t.Errorf("Unexpected result: %q", result)
		}

		client.Close()
	}
}

func TestClientServerError(t *testing.T) {
	script := `
read init
echo '{"jsonrpc":"2.0","id":1,"result":{}}'
read initialized
read call
echo '{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"unknown tool"}}'
read block
`
	client := NewClient(testConfig(script))
	defer client.Close()

	_, err := client.CallTool(context.Background(), "bogus_tool", nil)
	if err == nil {
		t.Fatal("Expected error")
	}

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected *ServerError, got %T: %v", err, err)
	}
	if serverErr.Code != -32601 {
		t.Errorf("Expected code -32601, got %d", serverErr.Code)
	}
}

func TestClientTimeout(t *testing.T) {
	// Server answers the handshake but never the tool call.
	script := `
read init
echo '{"jsonrpc":"2.0","id":1,"result":{}}'
read initialized
read call
sleep 60
`
	cfg := testConfig(script)
	cfg.CallTimeout = 200 * time.Millisecond
	client := NewClient(cfg)
	defer client.Close()

	_, err := client.CallTool(context.Background(), "slow_tool", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
}

func TestClientClosed(t *testing.T) {
	client := NewClient(testConfig(fakeServer))
	client.Close()

	_, err := client.CallTool(context.Background(), "anything", nil)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
	if client.Healthy() {
		t.Error("Closed client should not be healthy")
	}
}

func TestDecodeResult(t *testing.T) {
	t.Run("bare string", func(t *testing.T) {
		got := decodeResult([]byte(`"hello"`))
		if got != "hello" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("content blocks", func(t *testing.T) {
		raw := []byte(`{"content":[{"type":"text","text":"line one"},{"type":"text","text":"line two"}]}`)
		got := decodeResult(raw)
		if got != "line one\nline two" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("opaque JSON passes through", func(t *testing.T) {
		raw := []byte(`{"restaurants":[]}`)
		got := decodeResult(raw)
		if got != `{"restaurants":[]}` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := decodeResult(nil); got != "" {
			t.Errorf("got %q", got)
		}
	})
}

func TestMock(t *testing.T) {
	mock := NewMock()
	mock.Results["search_restaurants"] = "2 results"

	result, err := mock.CallTool(context.Background(), "search_restaurants", map[string]any{"query": "tacos"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "2 results" {
		t.Errorf("got %q", result)
	}

	if mock.CallCount("search_restaurants") != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount("search_restaurants"))
	}

	testErr := errors.New("boom")
	failing := WithError(testErr)
	if _, err := failing.CallTool(context.Background(), "x", nil); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if failing.Healthy() {
		t.Error("failing mock should not be healthy")
	}
}
