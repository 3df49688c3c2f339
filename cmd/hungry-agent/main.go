// hungry-agent: voice-driven food ordering orchestrator.
// Accepts transcribed utterances, runs them through an LLM with
// ordering tools, drives browser-automation MCP servers, and streams
// status to the dashboard.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tacolabs/hungry-agent/internal/config"
	"github.com/tacolabs/hungry-agent/internal/log"
	"github.com/tacolabs/hungry-agent/pkg/assistant"
	"github.com/tacolabs/hungry-agent/pkg/batch"
	"github.com/tacolabs/hungry-agent/pkg/hub"
	"github.com/tacolabs/hungry-agent/pkg/inference"
	"github.com/tacolabs/hungry-agent/pkg/mcp"
	"github.com/tacolabs/hungry-agent/pkg/orders"
	"github.com/tacolabs/hungry-agent/pkg/web"
)

const version = "1.0.0"

// batchCleanupInterval purges terminal batch orders this often.
const batchCleanupInterval = 10 * time.Minute

func main() {
	godotenv.Load()
	log.Init(config.LogLevel())
	logger := log.Component("main")

	fmt.Println()
	fmt.Println("🌮 Hungry Agent v" + version)
	fmt.Println("   Voice-driven food ordering orchestrator")
	fmt.Println()

	apiKey := config.OpenAIKey()

	// Persistence, with an in-memory fallback so a broken database
	// path never keeps the voice loop from running.
	var store orders.Store
	gormStore, err := orders.Open(config.DBPath())
	if err != nil {
		logger.Warn("database unavailable, using in-memory store", "path", config.DBPath(), "error", err)
		store = orders.NewMemoryStore()
	} else {
		store = gormStore
	}
	defer store.Close()

	llm, err := inference.NewClient(inference.WithAPIKey(apiKey))
	if err != nil {
		logger.Error("inference client failed", "error", err)
		os.Exit(1)
	}
	defer llm.Close()

	// Shared MCP subprocesses: one browser session for direct orders,
	// one for restaurant search.
	uberEats := mcp.NewClient(uberEatsConfig("uber-eats"))
	defer uberEats.Close()

	tacoSearch := mcp.NewClient(mcp.Config{
		Name:    "taco-search",
		Command: config.MCPPython(),
		Args:    []string{"server.py"},
		Dir:     config.TacoSearchServerDir(),
	})
	defer tacoSearch.Close()

	dashboard := hub.New("dashboard")

	// Batch orders each get a dedicated MCP session so concurrent
	// browser searches do not trample each other.
	coordinator := batch.NewCoordinator(func() (mcp.Caller, error) {
		return mcp.NewClient(uberEatsConfig("uber-eats-batch")), nil
	}, batch.WithUpdateFunc(func(order batch.Order) {
		logger.Info("batch order update",
			"order_id", order.OrderID,
			"status", order.Status,
			"query", order.RestaurantQuery,
		)
	}))

	go func() {
		ticker := time.NewTicker(batchCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			if n := coordinator.Cleanup(time.Hour); n > 0 {
				logger.Info("cleaned up batch orders", "removed", n)
			}
		}
	}()

	bot := assistant.New(llm, assistant.OrderingTools(assistant.ToolsConfig{
		TacoSearch:      tacoSearch,
		UberEats:        uberEats,
		Batch:           coordinator,
		Store:           store,
		DeliveryAddress: config.DeliveryAddress(),
	}))

	server := web.NewServer(web.Config{
		Store:           store,
		Assistant:       bot,
		Batch:           coordinator,
		Hub:             dashboard,
		UberEats:        uberEats,
		TacoSearch:      tacoSearch,
		VoiceServiceURL: config.VoiceServiceURL(),
		DashboardOrigin: config.DashboardOrigin(),
		TTSVoice:        config.TTSVoice(),
	})

	go func() {
		if err := server.Start(config.OrchestratorPort()); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	fmt.Println("   API: http://localhost:" + config.OrchestratorPort())
	fmt.Println("   Dashboard feed: ws://localhost:" + config.OrchestratorPort() + "/ws")
	fmt.Println()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println()
	logger.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		logger.Warn("server shutdown failed", "error", err)
	}
}

// uberEatsConfig builds the subprocess config for one Uber Eats MCP
// session.
func uberEatsConfig(name string) mcp.Config {
	return mcp.Config{
		Name:    name,
		Command: config.MCPPython(),
		Args:    []string{"server.py"},
		Dir:     config.UberEatsServerDir(),
	}
}
