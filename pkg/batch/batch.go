// Package batch coordinates concurrent restaurant searches and order
// placement across multiple dedicated browser-automation MCP sessions.
package batch

import (
	"errors"
	"time"
)

// Status tracks a batch order through its lifecycle.
type Status string

const (
	StatusPending       Status = "pending"
	StatusSearching     Status = "searching"
	StatusSearchStarted Status = "search_started"
	StatusResultsReady  Status = "results_ready"
	StatusReadyToOrder  Status = "ready_to_order"
	StatusOrderPlaced   Status = "order_placed"
	StatusOrderFailed   Status = "order_failed"
	StatusSearchFailed  Status = "search_failed"
	StatusCancelled     Status = "cancelled"
	StatusError         Status = "error"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusOrderPlaced, StatusOrderFailed, StatusSearchFailed, StatusCancelled, StatusError:
		return true
	}
	return false
}

// Order is one restaurant search within a batch.
type Order struct {
	OrderID         string    `json:"order_id"`
	RestaurantQuery string    `json:"restaurant_query"`
	Items           []string  `json:"items"`
	Location        string    `json:"location"`
	SessionID       string    `json:"session_id"`
	Status          Status    `json:"status"`
	SearchResults   string    `json:"search_results,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

var (
	// ErrTooManyOrders is returned when a batch exceeds the concurrency cap.
	ErrTooManyOrders = errors.New("batch: too many concurrent orders")

	// ErrMismatchedItems is returned when queries and item lists differ in length.
	ErrMismatchedItems = errors.New("batch: restaurant queries and item lists must align")

	// ErrOrderNotFound is returned for an unknown batch order ID.
	ErrOrderNotFound = errors.New("batch: order not found")

	// ErrNotReady is returned when placing an order that is not ready_to_order.
	ErrNotReady = errors.New("batch: order not ready")
)
