package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tacolabs/hungry-agent/pkg/mcp"
)

const searchReply = "Search started. Results will be available at resource://search_results/req1 shortly."

func searchMockFactory() ClientFactory {
	return func() (mcp.Caller, error) {
		m := mcp.NewMock()
		m.Results["find_menu_options"] = searchReply
		m.Results["order_food"] = "Order placed successfully. ETA 25 minutes."
		m.Resources["resource://search_results/req1"] = "1. Al Pastor Taco - $4.50\n2. Carnitas Taco - $4.00"
		return m, nil
	}
}

func waitForStatus(t *testing.T, c *Coordinator, orderID string, want Status) Order {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if order, ok := c.Get(orderID); ok && order.Status == want {
			return order
		}
		time.Sleep(5 * time.Millisecond)
	}
	order, _ := c.Get(orderID)
	t.Fatalf("order %s never reached %s (currently %s)", orderID, want, order.Status)
	return Order{}
}

func TestCreateFansOutSearches(t *testing.T) {
	var mu sync.Mutex
	var seen []Status

	c := NewCoordinator(searchMockFactory(),
		WithSearchWait(10*time.Millisecond),
		WithUpdateFunc(func(order Order) {
			mu.Lock()
			seen = append(seen, order.Status)
			mu.Unlock()
		}),
	)

	ids, err := c.Create(
		[]string{"best tacos", "breakfast tacos"},
		[][]string{{"al pastor"}, {"migas"}},
		"Austin, TX", "sess-1",
	)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 order IDs, got %d", len(ids))
	}

	for _, id := range ids {
		order := waitForStatus(t, c, id, StatusReadyToOrder)
		if order.SearchResults == "" {
			t.Error("expected search results to be stored")
		}
		if order.SessionID != "sess-1" {
			t.Errorf("SessionID = %q", order.SessionID)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	var sawSearching, sawReady bool
	for _, s := range seen {
		if s == StatusSearching {
			sawSearching = true
		}
		if s == StatusReadyToOrder {
			sawReady = true
		}
	}
	if !sawSearching || !sawReady {
		t.Errorf("update callback missed transitions: %v", seen)
	}
}

func TestCreateValidation(t *testing.T) {
	c := NewCoordinator(searchMockFactory(), WithMaxConcurrent(2))

	_, err := c.Create(
		[]string{"a", "b", "c"},
		[][]string{{}, {}, {}},
		"Austin, TX", "sess-1",
	)
	if !errors.Is(err, ErrTooManyOrders) {
		t.Errorf("expected ErrTooManyOrders, got %v", err)
	}

	_, err = c.Create([]string{"a"}, nil, "Austin, TX", "sess-1")
	if !errors.Is(err, ErrMismatchedItems) {
		t.Errorf("expected ErrMismatchedItems, got %v", err)
	}
}

func TestPlace(t *testing.T) {
	c := NewCoordinator(searchMockFactory(), WithSearchWait(10*time.Millisecond))

	ids, err := c.Create([]string{"tacos"}, [][]string{{"al pastor"}}, "Austin, TX", "sess-2")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	orderID := ids[0]
	waitForStatus(t, c, orderID, StatusReadyToOrder)

	result, err := c.Place(context.Background(), orderID, "https://ubereats.com/item/1", "Al Pastor Taco")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if result == "" {
		t.Error("expected a placement result")
	}

	order, _ := c.Get(orderID)
	if order.Status != StatusOrderPlaced {
		t.Errorf("Status = %s, want order_placed", order.Status)
	}

	// A placed order cannot be placed twice.
	if _, err := c.Place(context.Background(), orderID, "u", "n"); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}

	if _, err := c.Place(context.Background(), "nope", "u", "n"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSearchFailure(t *testing.T) {
	factory := func() (mcp.Caller, error) {
		return mcp.WithError(errors.New("browser crashed")), nil
	}
	c := NewCoordinator(factory, WithSearchWait(time.Millisecond))

	ids, err := c.Create([]string{"tacos"}, [][]string{{"al pastor"}}, "Austin, TX", "sess-3")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	order := waitForStatus(t, c, ids[0], StatusSearchFailed)
	if order.Error == "" {
		t.Error("expected failure reason to be recorded")
	}
}

func TestCancelDuringSearch(t *testing.T) {
	c := NewCoordinator(searchMockFactory(), WithSearchWait(300*time.Millisecond))

	ids, err := c.Create([]string{"tacos"}, [][]string{{"al pastor"}}, "Austin, TX", "sess-4")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	orderID := ids[0]
	waitForStatus(t, c, orderID, StatusSearchStarted)

	if !c.Cancel(orderID) {
		t.Fatal("Cancel returned false")
	}

	// Let the search wait elapse; the order must stay cancelled.
	time.Sleep(400 * time.Millisecond)
	order, _ := c.Get(orderID)
	if order.Status != StatusCancelled {
		t.Errorf("Status = %s, want cancelled", order.Status)
	}

	if c.Cancel("nope") {
		t.Error("Cancel of unknown order should return false")
	}
}

func TestCleanupAndActiveCount(t *testing.T) {
	factory := func() (mcp.Caller, error) {
		return mcp.WithError(errors.New("boom")), nil
	}
	c := NewCoordinator(factory, WithSearchWait(time.Millisecond))

	ids, err := c.Create([]string{"tacos"}, [][]string{{"al pastor"}}, "Austin, TX", "sess-5")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForStatus(t, c, ids[0], StatusSearchFailed)

	if n := c.ActiveCount(); n != 0 {
		t.Errorf("ActiveCount = %d, want 0", n)
	}

	if removed := c.Cleanup(0); removed != 1 {
		t.Errorf("Cleanup removed %d, want 1", removed)
	}
	if _, ok := c.Get(ids[0]); ok {
		t.Error("order should have been purged")
	}
}

func TestExtractSearchResource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "embedded uri",
			in:   "Results at resource://search_results/abc123 when ready",
			want: "resource://search_results/abc123",
		},
		{
			name: "uri at end",
			in:   "See resource://search_results/xyz",
			want: "resource://search_results/xyz",
		},
		{
			name: "quoted uri",
			in:   `Fetch "resource://search_results/q1" for results`,
			want: "resource://search_results/q1",
		},
		{
			name: "no uri",
			in:   "Search failed completely",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractSearchResource(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
