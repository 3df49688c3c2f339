package orders

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore holds everything in memory. Used in tests and as a
// fallback when the database cannot be opened.
type MemoryStore struct {
	mu sync.RWMutex

	orders   map[uint]*Order
	sessions map[string]*Session
	activity []*VoiceActivity

	orderCounter    uint
	activityCounter uint
	sessionCounter  uint
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[uint]*Order),
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryStore) CreateOrder(order *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orderCounter++
	order.ID = m.orderCounter
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = StatusPending
	}

	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *MemoryStore) GetOrder(id uint) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (m *MemoryStore) ListOrders(sessionID string, limit int) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Order
	for _, order := range m.orders {
		if sessionID != "" && order.SessionID != sessionID {
			continue
		}
		clone := *order
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateOrderStatus(id uint, status OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) CountOrdersSince(since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, order := range m.orders {
		if !order.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetOrCreateSession(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[sessionID]; ok {
		clone := *session
		return &clone, nil
	}

	m.sessionCounter++
	now := time.Now().UTC()
	session := &Session{
		ID:           m.sessionCounter,
		SessionID:    sessionID,
		Status:       SessionActive,
		StartedAt:    now,
		LastActivity: now,
	}
	m.sessions[sessionID] = session
	clone := *session
	return &clone, nil
}

func (m *MemoryStore) UpdateSession(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.SessionID]; !ok {
		return ErrNotFound
	}
	clone := *session
	m.sessions[session.SessionID] = &clone
	return nil
}

func (m *MemoryStore) ListSessions() ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, session := range m.sessions {
		clone := *session
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (m *MemoryStore) CountActiveSessions() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, session := range m.sessions {
		if session.Status == SessionActive || session.Status == SessionProcessing {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) RecordActivity(activity *VoiceActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activityCounter++
	activity.ID = m.activityCounter
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	clone := *activity
	m.activity = append(m.activity, &clone)
	return nil
}

func (m *MemoryStore) ListActivity(sessionID string, limit int) ([]*VoiceActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*VoiceActivity
	for i := len(m.activity) - 1; i >= 0; i-- {
		a := m.activity[i]
		if sessionID != "" && a.SessionID != sessionID {
			continue
		}
		clone := *a
		out = append(out, &clone)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
