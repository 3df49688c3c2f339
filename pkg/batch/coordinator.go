package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tacolabs/hungry-agent/internal/log"
	"github.com/tacolabs/hungry-agent/pkg/mcp"
)

const searchResourcePrefix = "resource://search_results/"

// ClientFactory produces a dedicated MCP client for one batch order.
// Each order runs its own browser session, so clients are not shared.
type ClientFactory func() (mcp.Caller, error)

// UpdateFunc is invoked on every status change with a snapshot of the
// order. Used to push updates to the dashboard.
type UpdateFunc func(order Order)

// Coordinator fans out restaurant searches across concurrent MCP
// sessions and tracks each order until placement or failure.
type Coordinator struct {
	mu     sync.RWMutex
	orders map[string]*Order

	factory       ClientFactory
	onUpdate      UpdateFunc
	maxConcurrent int
	searchWait    time.Duration
	logger        *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxConcurrent caps the number of orders per batch.
func WithMaxConcurrent(n int) Option {
	return func(c *Coordinator) { c.maxConcurrent = n }
}

// WithSearchWait sets how long to wait for the browser search to
// finish before fetching results.
func WithSearchWait(d time.Duration) Option {
	return func(c *Coordinator) { c.searchWait = d }
}

// WithUpdateFunc sets the status-change callback.
func WithUpdateFunc(fn UpdateFunc) Option {
	return func(c *Coordinator) { c.onUpdate = fn }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator creates a batch coordinator. The factory is called
// once per order to spawn a dedicated MCP session.
func NewCoordinator(factory ClientFactory, opts ...Option) *Coordinator {
	c := &Coordinator{
		orders:        make(map[string]*Order),
		factory:       factory,
		maxConcurrent: 5, // browser sessions are expensive
		searchWait:    2 * time.Minute,
		logger:        log.Component("batch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create registers one order per restaurant query and starts their
// searches concurrently. Returns the new order IDs.
func (c *Coordinator) Create(queries []string, itemsPerRestaurant [][]string, location, sessionID string) ([]string, error) {
	if len(queries) > c.maxConcurrent {
		return nil, fmt.Errorf("%w: maximum %d", ErrTooManyOrders, c.maxConcurrent)
	}
	if len(itemsPerRestaurant) != len(queries) {
		return nil, ErrMismatchedItems
	}

	orderIDs := make([]string, 0, len(queries))

	c.mu.Lock()
	for i, query := range queries {
		orderID := fmt.Sprintf("batch_%s_%s", sessionID, uuid.NewString()[:8])
		c.orders[orderID] = &Order{
			OrderID:         orderID,
			RestaurantQuery: query,
			Items:           itemsPerRestaurant[i],
			Location:        location,
			SessionID:       sessionID,
			Status:          StatusPending,
			CreatedAt:       time.Now().UTC(),
		}
		orderIDs = append(orderIDs, orderID)
	}
	c.mu.Unlock()

	for _, orderID := range orderIDs {
		go c.process(orderID)
	}

	return orderIDs, nil
}

// process runs one order's search through its own MCP session.
func (c *Coordinator) process(orderID string) {
	order, ok := c.Get(orderID)
	if !ok {
		return
	}

	client, err := c.factory()
	if err != nil {
		c.fail(orderID, StatusError, fmt.Sprintf("start session: %v", err))
		return
	}
	defer client.Close()

	c.setStatus(orderID, StatusSearching)

	ctx := context.Background()
	result, err := client.CallTool(ctx, "find_menu_options", map[string]any{
		"search_term":      order.RestaurantQuery,
		"delivery_address": order.Location,
	})
	if err != nil {
		c.fail(orderID, StatusSearchFailed, fmt.Sprintf("search: %v", err))
		return
	}

	c.setStatus(orderID, StatusSearchStarted)

	resourceURI := extractSearchResource(result)
	if resourceURI == "" {
		c.fail(orderID, StatusSearchFailed, "search did not return a results resource")
		return
	}

	// The browser agent needs time to crawl; poll once after the wait.
	time.Sleep(c.searchWait)

	if current, ok := c.Get(orderID); !ok || current.Status == StatusCancelled {
		return
	}

	results, err := client.ReadResource(ctx, resourceURI)
	if err != nil {
		c.fail(orderID, StatusSearchFailed, fmt.Sprintf("fetch results: %v", err))
		return
	}

	c.mu.Lock()
	if o, ok := c.orders[orderID]; ok && o.Status != StatusCancelled {
		o.SearchResults = results
		o.Status = StatusResultsReady
	}
	c.mu.Unlock()
	c.notify(orderID)

	// Results are presented for manual selection before placement.
	c.setStatus(orderID, StatusReadyToOrder)
}

// Place orders a specific item from a finished search. Only valid in
// the ready_to_order state. A fresh MCP session performs the checkout.
func (c *Coordinator) Place(ctx context.Context, orderID, itemURL, itemName string) (string, error) {
	order, ok := c.Get(orderID)
	if !ok {
		return "", ErrOrderNotFound
	}
	if order.Status != StatusReadyToOrder {
		return "", fmt.Errorf("%w: current status %s", ErrNotReady, order.Status)
	}

	client, err := c.factory()
	if err != nil {
		c.fail(orderID, StatusOrderFailed, fmt.Sprintf("start session: %v", err))
		return "", err
	}
	defer client.Close()

	result, err := client.CallTool(ctx, "order_food", map[string]any{
		"restaurant_name": order.RestaurantQuery,
		"item_url":        itemURL,
		"item_name":       itemName,
	})
	if err != nil {
		c.fail(orderID, StatusOrderFailed, fmt.Sprintf("place: %v", err))
		return "", err
	}

	c.setStatus(orderID, StatusOrderPlaced)
	return result, nil
}

// Status returns snapshots of all orders for a session, or all orders
// when sessionID is empty.
func (c *Coordinator) Status(sessionID string) []Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Order
	for _, order := range c.orders {
		if sessionID != "" && order.SessionID != sessionID {
			continue
		}
		out = append(out, *order)
	}
	return out
}

// Get returns a snapshot of one order.
func (c *Coordinator) Get(orderID string) (Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	order, ok := c.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *order, true
}

// Cancel marks an order cancelled. Its goroutine abandons the search
// at the next checkpoint.
func (c *Coordinator) Cancel(orderID string) bool {
	c.mu.Lock()
	order, ok := c.orders[orderID]
	if ok {
		order.Status = StatusCancelled
	}
	c.mu.Unlock()
	if ok {
		c.notify(orderID)
	}
	return ok
}

// Cleanup removes terminal orders older than maxAge. Returns the
// number removed.
func (c *Coordinator) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for orderID, order := range c.orders {
		if order.Status.Terminal() && order.CreatedAt.Before(cutoff) {
			delete(c.orders, orderID)
			removed++
		}
	}
	return removed
}

// ActiveCount returns the number of orders still in flight.
func (c *Coordinator) ActiveCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, order := range c.orders {
		if !order.Status.Terminal() {
			n++
		}
	}
	return n
}

func (c *Coordinator) setStatus(orderID string, status Status) {
	c.mu.Lock()
	order, ok := c.orders[orderID]
	if ok && order.Status != StatusCancelled {
		order.Status = status
	}
	c.mu.Unlock()
	if ok {
		c.notify(orderID)
	}
}

func (c *Coordinator) fail(orderID string, status Status, reason string) {
	c.logger.Warn("batch order failed", "order_id", orderID, "status", status, "reason", reason)

	c.mu.Lock()
	order, ok := c.orders[orderID]
	if ok && order.Status != StatusCancelled {
		order.Status = status
		order.Error = reason
	}
	c.mu.Unlock()
	if ok {
		c.notify(orderID)
	}
}

func (c *Coordinator) notify(orderID string) {
	if c.onUpdate == nil {
		return
	}
	if order, ok := c.Get(orderID); ok {
		c.onUpdate(order)
	}
}

// extractSearchResource pulls the results resource URI out of the
// search tool's reply text.
func extractSearchResource(text string) string {
	idx := strings.Index(text, searchResourcePrefix)
	if idx < 0 {
		return ""
	}
	rest := text[idx:]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '"' || r == '\'' || r == ')' || r == ','
	})
	if end < 0 {
		return rest
	}
	return rest[:end]
}
