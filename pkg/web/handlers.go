package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tacolabs/hungry-agent/pkg/assistant"
	"github.com/tacolabs/hungry-agent/pkg/batch"
	"github.com/tacolabs/hungry-agent/pkg/orders"
	"github.com/tacolabs/hungry-agent/pkg/protocol"
)

// VoiceInput is one transcribed utterance from the voice service.
type VoiceInput struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	SessionID  string  `json:"session_id"`
}

// VoiceOutput is the reply text handed back for TTS.
type VoiceOutput struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
	Voice     string `json:"voice,omitempty"`
}

// handleIndex returns a service banner.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "Hungry Agent Orchestrator",
		"status":  "running",
	})
}

// handleHealth reports the health of the orchestrator and its
// dependencies, and pushes the snapshot to the dashboard.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	status := s.systemStatus()

	if msg, err := protocol.NewSystemStatusMessage(status); err == nil && s.cfg.Hub != nil {
		s.cfg.Hub.BroadcastEvent(msg)
	}

	return c.JSON(status)
}

// systemStatus assembles the health snapshot.
func (s *Server) systemStatus() protocol.SystemStatus {
	status := protocol.SystemStatus{
		Orchestrator:  true,
		BatchOrdering: s.cfg.Batch != nil,
		Timestamp:     time.Now().UTC(),
	}

	if s.cfg.UberEats != nil {
		status.UberEatsMCP = s.cfg.UberEats.Healthy()
	}
	if s.cfg.TacoSearch != nil {
		status.TacoSearchMCP = s.cfg.TacoSearch.Healthy()
	}
	if s.cfg.VoiceServiceURL != "" {
		status.VoiceService = s.probe(s.cfg.VoiceServiceURL + "/health")
	}
	if s.cfg.DashboardOrigin != "" {
		status.Dashboard = s.probe(s.cfg.DashboardOrigin)
	}

	if s.cfg.Store != nil {
		if n, err := s.cfg.Store.CountActiveSessions(); err == nil {
			status.ActiveSessions = n
		}
		midnight := time.Now().UTC().Truncate(24 * time.Hour)
		if n, err := s.cfg.Store.CountOrdersSince(midnight); err == nil {
			status.TotalOrdersToday = n
		}
	}
	if s.cfg.Batch != nil {
		status.ActiveBatchOrders = s.cfg.Batch.ActiveCount()
	}

	return status
}

// probe returns true when url answers with a 2xx.
func (s *Server) probe(url string) bool {
	resp, err := s.client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// handleVoiceProcess runs one utterance through the assistant and
// persists/broadcasts everything that happened. Failures after the
// input is accepted come back as an apologetic voice_output with HTTP
// 200 so the voice loop always has something to speak.
func (s *Server) handleVoiceProcess(c *fiber.Ctx) error {
	var input VoiceInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.Text == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}
	if input.SessionID == "" {
		input.SessionID = "session_" + uuid.NewString()[:8]
	}

	session, err := s.cfg.Store.GetOrCreateSession(input.SessionID)
	if err != nil {
		return s.voiceError(c, input.SessionID, err)
	}

	session.LastActivity = time.Now().UTC()
	session.TotalInteractions++
	session.Status = orders.SessionProcessing
	if err := s.cfg.Store.UpdateSession(session); err != nil {
		s.logger.Warn("session update failed", "session_id", input.SessionID, "error", err)
	}

	s.recordActivity(input.SessionID, orders.ActivityInput, input.Text)
	s.broadcastVoice(input.SessionID, "input", input.Text, input.Confidence)

	resp, err := s.cfg.Assistant.Process(c.Context(), input.SessionID, input.Text)
	if err != nil {
		s.recordActivity(input.SessionID, orders.ActivityError, err.Error())
		s.broadcastVoice(input.SessionID, "error", err.Error(), 0)
		return s.voiceError(c, input.SessionID, err)
	}

	s.persistPlacedOrders(session, input.Text, resp)

	session.Status = orders.SessionActive
	session.LastActivity = time.Now().UTC()
	if err := s.cfg.Store.UpdateSession(session); err != nil {
		s.logger.Warn("session update failed", "session_id", input.SessionID, "error", err)
	}

	s.recordActivity(input.SessionID, orders.ActivityResponse, resp.Text)
	s.broadcastVoice(input.SessionID, "response", resp.Text, 0)

	return c.JSON(fiber.Map{
		"voice_output": VoiceOutput{
			Text:      resp.Text,
			SessionID: input.SessionID,
			Voice:     s.cfg.TTSVoice,
		},
		"assistant_response": resp,
		"tool_results":       resp.Results,
	})
}

// voiceError wraps an error as a speakable apology. Always HTTP 200.
func (s *Server) voiceError(c *fiber.Ctx, sessionID string, err error) error {
	s.logger.Error("voice processing failed", "session_id", sessionID, "error", err)
	return c.JSON(fiber.Map{
		"voice_output": VoiceOutput{
			Text:      fmt.Sprintf("I'm sorry, I encountered an error: %v", err),
			SessionID: sessionID,
		},
		"error": err.Error(),
	})
}

// orderingTools are the tool names whose success means an order was
// actually placed on the platform.
var orderingTools = map[string]bool{
	"order_food":                 true,
	"place_multiple_items_order": true,
}

// persistPlacedOrders creates order records for successful placements
// and keeps the session's success/failure counters current.
func (s *Server) persistPlacedOrders(session *orders.Session, command string, resp *assistant.Response) {
	for _, result := range resp.Results {
		if !orderingTools[result.Name] {
			continue
		}

		if !result.Success {
			session.FailedOrders++
			continue
		}

		order := &orders.Order{
			SessionID:    session.SessionID,
			Platform:     orders.PlatformUberEats,
			Status:       orders.StatusPending,
			VoiceCommand: command,
			Intent:       result.Result,
		}
		if err := s.cfg.Store.CreateOrder(order); err != nil {
			s.logger.Error("order record failed", "session_id", session.SessionID, "error", err)
			continue
		}
		session.SuccessfulOrders++

		if msg, err := protocol.NewOrderUpdateMessage(session.SessionID, protocol.OrderUpdateData{
			OrderID:  order.ID,
			Status:   string(order.Status),
			Platform: string(order.Platform),
		}); err == nil && s.cfg.Hub != nil {
			s.cfg.Hub.BroadcastEvent(msg)
		}
	}
}

// recordActivity persists one activity row, logging failures only.
func (s *Server) recordActivity(sessionID string, kind orders.ActivityKind, payload string) {
	err := s.cfg.Store.RecordActivity(&orders.VoiceActivity{
		SessionID: sessionID,
		Kind:      kind,
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("activity record failed", "session_id", sessionID, "error", err)
	}
}

// broadcastVoice pushes a voice_activity event to the dashboard.
func (s *Server) broadcastVoice(sessionID, kind, text string, confidence float64) {
	if s.cfg.Hub == nil {
		return
	}
	if msg, err := protocol.NewVoiceActivityMessage(sessionID, kind, text, confidence); err == nil {
		s.cfg.Hub.BroadcastEvent(msg)
	}
}

// orderView is an Order with its items decoded for API responses.
type orderView struct {
	*orders.Order
	Items []orders.OrderItem `json:"items,omitempty"`
}

// handleListOrders returns orders, optionally filtered by session.
func (s *Server) handleListOrders(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	limit := c.QueryInt("limit", 50)

	list, err := s.cfg.Store.ListOrders(sessionID, limit)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	views := make([]orderView, 0, len(list))
	for _, order := range list {
		items, _ := order.ItemList()
		views = append(views, orderView{Order: order, Items: items})
	}

	return c.JSON(fiber.Map{"orders": views, "count": len(views)})
}

// StatusUpdate is the body for POST /api/orders/:id/status.
type StatusUpdate struct {
	Status string `json:"status"`
}

// handleUpdateOrderStatus transitions an order and broadcasts the
// change.
func (s *Server) handleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	var update StatusUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	status := orders.OrderStatus(update.Status)
	if !status.Valid() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid status: " + update.Status})
	}

	if err := s.cfg.Store.UpdateOrderStatus(uint(id), status); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	order, err := s.cfg.Store.GetOrder(uint(id))
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if msg, err := protocol.NewOrderUpdateMessage(order.SessionID, protocol.OrderUpdateData{
		OrderID:        order.ID,
		Status:         string(order.Status),
		Platform:       string(order.Platform),
		RestaurantName: order.RestaurantName,
		TotalAmount:    order.TotalAmount,
	}); err == nil && s.cfg.Hub != nil {
		s.cfg.Hub.BroadcastEvent(msg)
	}

	items, _ := order.ItemList()
	return c.JSON(orderView{Order: order, Items: items})
}

// sessionView is a Session with a computed is_active flag.
type sessionView struct {
	*orders.Session
	IsActive bool `json:"is_active"`
}

// handleListSessions returns all known voice sessions.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	list, err := s.cfg.Store.ListSessions()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	views := make([]sessionView, 0, len(list))
	for _, session := range list {
		active := session.Status == orders.SessionActive || session.Status == orders.SessionProcessing
		views = append(views, sessionView{Session: session, IsActive: active})
	}

	return c.JSON(fiber.Map{"sessions": views, "count": len(views)})
}

// BatchCreateRequest is the body for POST /api/batch/orders.
type BatchCreateRequest struct {
	RestaurantQueries  []string   `json:"restaurant_queries"`
	ItemsPerRestaurant [][]string `json:"items_per_restaurant"`
	Location           string     `json:"location"`
	SessionID          string     `json:"session_id"`
}

// handleBatchCreate fans out concurrent restaurant searches.
func (s *Server) handleBatchCreate(c *fiber.Ctx) error {
	var req BatchCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.RestaurantQueries) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "restaurant_queries is required"})
	}
	if req.SessionID == "" {
		req.SessionID = "batch_" + uuid.NewString()[:8]
	}

	orderIDs, err := s.cfg.Batch.Create(req.RestaurantQueries, req.ItemsPerRestaurant, req.Location, req.SessionID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if msg, err := protocol.NewBatchOrderCreatedMessage(req.SessionID, orderIDs, req.RestaurantQueries); err == nil && s.cfg.Hub != nil {
		s.cfg.Hub.BroadcastEvent(msg)
	}

	return c.JSON(fiber.Map{
		"session_id": req.SessionID,
		"order_ids":  orderIDs,
		"count":      len(orderIDs),
	})
}

// handleBatchStatus returns the state of a session's batch orders.
func (s *Server) handleBatchStatus(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	list := s.cfg.Batch.Status(sessionID)
	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"orders":     list,
		"count":      len(list),
	})
}

// BatchPlaceRequest is the body for POST /api/batch/orders/:id/place.
type BatchPlaceRequest struct {
	ItemURL  string `json:"item_url"`
	ItemName string `json:"item_name"`
}

// handleBatchPlace places an order from completed search results.
func (s *Server) handleBatchPlace(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req BatchPlaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ItemURL == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "item_url is required"})
	}

	result, err := s.cfg.Batch.Place(c.Context(), orderID, req.ItemURL, req.ItemName)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrOrderNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "batch order not found"})
		case errors.Is(err, batch.ErrNotReady):
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "order is not ready to place"})
		default:
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	order, _ := s.cfg.Batch.Get(orderID)
	if msg, err := protocol.NewBatchOrderPlacedMessage(order.SessionID, orderID, req.ItemName, string(order.Status)); err == nil && s.cfg.Hub != nil {
		s.cfg.Hub.BroadcastEvent(msg)
	}

	return c.JSON(fiber.Map{
		"order_id": orderID,
		"status":   order.Status,
		"result":   result,
	})
}

// handleBatchCancel cancels a pending batch order.
func (s *Server) handleBatchCancel(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if !s.cfg.Batch.Cancel(orderID) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "batch order not found"})
	}
	return c.JSON(fiber.Map{"order_id": orderID, "cancelled": true})
}
