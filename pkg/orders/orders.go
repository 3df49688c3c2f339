// Package orders holds the persistent data model for voice sessions,
// food orders, and voice activity, plus the Store implementations that
// back them (SQLite via GORM in production, in-memory for tests).
package orders

import (
	"encoding/json"
	"time"
)

// OrderStatus tracks an order through its delivery lifecycle.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusProcessing     OrderStatus = "processing"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusFailed         OrderStatus = "failed"
)

var orderStatuses = map[OrderStatus]bool{
	StatusPending:        true,
	StatusProcessing:     true,
	StatusConfirmed:      true,
	StatusPreparing:      true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
	StatusFailed:         true,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	return orderStatuses[s]
}

// Platform identifies the delivery platform an order was placed on.
type Platform string

const PlatformUberEats Platform = "uber_eats"

// SessionStatus tracks the state of a voice session.
type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionIdle       SessionStatus = "idle"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionError      SessionStatus = "error"
)

// ActivityKind classifies a voice activity record.
type ActivityKind string

const (
	ActivityInput    ActivityKind = "input"
	ActivityResponse ActivityKind = "response"
	ActivityError    ActivityKind = "error"
)

// OrderItem is a single line item within an order.
type OrderItem struct {
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	Price          float64  `json:"price,omitempty"`
	Customizations []string `json:"customizations,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Order is a food order placed through a voice session.
type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	SessionID string      `gorm:"index" json:"session_id"`
	Platform  Platform    `json:"platform"`
	Status    OrderStatus `json:"status"`

	// Items is the JSON-encoded []OrderItem. Use SetItems/ItemList.
	Items           string  `gorm:"type:text" json:"-"`
	RestaurantName  string  `json:"restaurant_name,omitempty"`
	TotalAmount     float64 `json:"total_amount,omitempty"`
	DeliveryAddress string  `gorm:"type:text" json:"delivery_address,omitempty"`

	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`

	ExternalOrderID string `json:"external_order_id,omitempty"`
	TrackingURL     string `json:"tracking_url,omitempty"`

	VoiceCommand string `gorm:"type:text" json:"voice_command,omitempty"`
	Intent       string `gorm:"type:text" json:"-"`
}

// SetItems serializes items into the Items column.
func (o *Order) SetItems(items []OrderItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	o.Items = string(data)
	return nil
}

// ItemList deserializes the Items column.
func (o *Order) ItemList() ([]OrderItem, error) {
	if o.Items == "" {
		return nil, nil
	}
	var items []OrderItem
	if err := json.Unmarshal([]byte(o.Items), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Session tracks one voice conversation and its outcomes.
type Session struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	SessionID string        `gorm:"uniqueIndex" json:"session_id"`
	Status    SessionStatus `json:"status"`

	StartedAt    time.Time  `json:"started_at"`
	LastActivity time.Time  `json:"last_activity"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`

	TotalInteractions int `json:"total_interactions"`
	SuccessfulOrders  int `json:"successful_orders"`
	FailedOrders      int `json:"failed_orders"`
}

// VoiceActivity is one logged voice interaction within a session.
type VoiceActivity struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	SessionID string       `gorm:"index" json:"session_id"`
	Kind      ActivityKind `json:"kind"`
	Payload   string       `gorm:"type:text" json:"payload"`
	CreatedAt time.Time    `json:"created_at"`
}
