package orders

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("orders: not found")

// Store is the persistence interface for sessions, orders, and voice
// activity. Both the SQLite and in-memory implementations satisfy it.
type Store interface {
	// Order operations
	CreateOrder(order *Order) error
	GetOrder(id uint) (*Order, error)
	ListOrders(sessionID string, limit int) ([]*Order, error)
	UpdateOrderStatus(id uint, status OrderStatus) error
	CountOrdersSince(since time.Time) (int64, error)

	// Session operations
	GetOrCreateSession(sessionID string) (*Session, error)
	UpdateSession(session *Session) error
	ListSessions() ([]*Session, error)
	CountActiveSessions() (int64, error)

	// Voice activity
	RecordActivity(activity *VoiceActivity) error
	ListActivity(sessionID string, limit int) ([]*VoiceActivity, error)

	Close() error
}
