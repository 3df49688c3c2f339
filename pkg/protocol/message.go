// Package protocol defines the WebSocket message types pushed to the
// dashboard. This package is shared between the orchestrator and any
// dashboard client written in Go.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of dashboard event
type MessageType string

const (
	TypeVoiceActivity     MessageType = "voice_activity"      // Voice input / assistant response
	TypeOrderUpdate       MessageType = "order_update"        // Order created or status changed
	TypeSystemStatus      MessageType = "system_status"       // Periodic health snapshot
	TypeBatchOrderCreated MessageType = "batch_order_created" // Batch search fan-out started
	TypeBatchOrderPlaced  MessageType = "batch_order_placed"  // One batch order placed
)

// Message is the base wrapper for all dashboard events
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	SessionID string          `json:"session_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, sessionID string, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// VoiceActivityData describes one voice interaction
type VoiceActivityData struct {
	Kind       string  `json:"kind"` // "input", "response", "error"
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// OrderUpdateData describes an order creation or status change
type OrderUpdateData struct {
	OrderID        uint    `json:"order_id"`
	Status         string  `json:"status"`
	Platform       string  `json:"platform"`
	RestaurantName string  `json:"restaurant_name,omitempty"`
	TotalAmount    float64 `json:"total_amount,omitempty"`
}

// SystemStatus is the health snapshot served by /health and pushed to
// the dashboard
type SystemStatus struct {
	Orchestrator      bool      `json:"orchestrator"`
	VoiceService      bool      `json:"voice_service"`
	UberEatsMCP       bool      `json:"uber_eats_mcp"`
	TacoSearchMCP     bool      `json:"taco_search_mcp"`
	BatchOrdering     bool      `json:"batch_ordering"`
	Dashboard         bool      `json:"dashboard"`
	ActiveSessions    int64     `json:"active_sessions"`
	ActiveBatchOrders int       `json:"active_batch_orders"`
	TotalOrdersToday  int64     `json:"total_orders_today"`
	Timestamp         time.Time `json:"timestamp"`
}

// BatchOrderCreatedData announces a batch search fan-out
type BatchOrderCreatedData struct {
	OrderIDs []string `json:"order_ids"`
	Queries  []string `json:"queries"`
	Count    int      `json:"count"`
}

// BatchOrderPlacedData announces the placement of one batch order
type BatchOrderPlacedData struct {
	OrderID  string `json:"order_id"`
	ItemName string `json:"item_name,omitempty"`
	Status   string `json:"status"`
}

// NewVoiceActivityMessage creates a voice activity event
func NewVoiceActivityMessage(sessionID, kind, text string, confidence float64) (*Message, error) {
	return NewMessage(TypeVoiceActivity, sessionID, VoiceActivityData{
		Kind:       kind,
		Text:       text,
		Confidence: confidence,
	})
}

// NewOrderUpdateMessage creates an order update event
func NewOrderUpdateMessage(sessionID string, data OrderUpdateData) (*Message, error) {
	return NewMessage(TypeOrderUpdate, sessionID, data)
}

// NewSystemStatusMessage creates a system status event
func NewSystemStatusMessage(status SystemStatus) (*Message, error) {
	return NewMessage(TypeSystemStatus, "", status)
}

// NewBatchOrderCreatedMessage creates a batch fan-out event
func NewBatchOrderCreatedMessage(sessionID string, orderIDs, queries []string) (*Message, error) {
	return NewMessage(TypeBatchOrderCreated, sessionID, BatchOrderCreatedData{
		OrderIDs: orderIDs,
		Queries:  queries,
		Count:    len(orderIDs),
	})
}

// NewBatchOrderPlacedMessage creates a batch placement event
func NewBatchOrderPlacedMessage(sessionID, orderID, itemName, status string) (*Message, error) {
	return NewMessage(TypeBatchOrderPlaced, sessionID, BatchOrderPlacedData{
		OrderID:  orderID,
		ItemName: itemName,
		Status:   status,
	})
}

// GetVoiceActivityData extracts voice activity data from a message
func (m *Message) GetVoiceActivityData() (*VoiceActivityData, error) {
	var data VoiceActivityData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetOrderUpdateData extracts order update data from a message
func (m *Message) GetOrderUpdateData() (*OrderUpdateData, error) {
	var data OrderUpdateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSystemStatus extracts the system status from a message
func (m *Message) GetSystemStatus() (*SystemStatus, error) {
	var data SystemStatus
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
