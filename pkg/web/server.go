// Package web exposes the orchestrator's HTTP API and the dashboard
// WebSocket feed on a single Fiber app.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/tacolabs/hungry-agent/internal/httpc"
	"github.com/tacolabs/hungry-agent/internal/log"
	"github.com/tacolabs/hungry-agent/pkg/assistant"
	"github.com/tacolabs/hungry-agent/pkg/batch"
	"github.com/tacolabs/hungry-agent/pkg/hub"
	"github.com/tacolabs/hungry-agent/pkg/mcp"
	"github.com/tacolabs/hungry-agent/pkg/orders"
)

// probeTimeout bounds health probes of sibling services so /health
// stays responsive when one of them is down.
const probeTimeout = 3 * time.Second

// Config holds the server's dependencies.
type Config struct {
	Store     orders.Store
	Assistant *assistant.Assistant
	Batch     *batch.Coordinator
	Hub       *hub.Hub

	// MCP clients, reported in the health snapshot.
	UberEats   mcp.Caller
	TacoSearch mcp.Caller

	// Sibling services probed by /health.
	VoiceServiceURL string
	DashboardOrigin string

	// TTSVoice is echoed in voice_output payloads.
	TTSVoice string

	// HTTPClient overrides the probe client (tests).
	HTTPClient *http.Client
}

// Server is the orchestrator HTTP/WebSocket server.
type Server struct {
	app    *fiber.App
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewServer builds the Fiber app and registers all routes.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		client: cfg.HTTPClient,
		logger: log.Component("web"),
	}
	if s.client == nil {
		s.client = httpc.NewClient(probeTimeout)
	}

	app := fiber.New(fiber.Config{
		AppName:               "Hungry Agent",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlog.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.DashboardOrigin,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/", s.handleIndex)
	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Post("/voice/process", s.handleVoiceProcess)
	api.Get("/orders", s.handleListOrders)
	api.Post("/orders/:id/status", s.handleUpdateOrderStatus)
	api.Get("/sessions", s.handleListSessions)

	api.Post("/batch/orders", s.handleBatchCreate)
	api.Get("/batch/orders/:session_id", s.handleBatchStatus)
	api.Post("/batch/orders/:id/place", s.handleBatchPlace)
	api.Delete("/batch/orders/:id", s.handleBatchCancel)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleWS))

	s.app = app
	return s
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hub loop and listens on the given port. Blocks.
func (s *Server) Start(port string) error {
	if s.cfg.Hub != nil && !s.cfg.Hub.IsRunning() {
		go s.cfg.Hub.Run()
	}
	s.logger.Info("listening", "port", port)
	return s.app.Listen(":" + port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
